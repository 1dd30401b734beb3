package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var jobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "driftwood_jobs_enqueued_total",
	Help: "Jobs accepted by the queue",
}, []string{"name", "priority"})

var jobsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "driftwood_jobs_dropped_total",
	Help: "Jobs rejected because their lane was full",
}, []string{"name", "priority"})

var jobsDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "driftwood_jobs_deduplicated_total",
	Help: "Jobs skipped because an identical job was already pending",
}, []string{"name"})

var jobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "driftwood_jobs_finished_total",
	Help: "Jobs run to completion by status",
}, []string{"name", "status"})

var jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "driftwood_job_duration_seconds",
	Help:    "Time spent running a job",
	Buckets: prometheus.ExponentialBucketsRange(0.001, 60, 20),
}, []string{"name"})
