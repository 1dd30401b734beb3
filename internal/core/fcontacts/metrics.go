package fcontacts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "driftwood_fcontact_lookups_total",
	Help: "fcontact cache lookups by result",
}, []string{"result"})

var backgroundRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "driftwood_fcontact_background_refresh_total",
	Help: "Background fcontact refresh jobs by enqueue status",
}, []string{"status"})

var directoryProbes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "driftwood_fcontact_probe_total",
	Help: "Directory probes issued by the fcontact cache by outcome",
}, []string{"outcome"})

var probeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "driftwood_fcontact_probe_duration_seconds",
	Help:    "Time spent probing the directory for a handle",
	Buckets: prometheus.ExponentialBucketsRange(0.001, 30, 20),
})
