package gserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_NextUpdateDate(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := &Policy{Now: func() time.Time { return now }}

	tests := []struct {
		created     time.Time
		lastContact time.Time
		want        time.Time
		name        string
		success     bool
		undetected  bool
	}{
		{
			name:        "success anchors on last contact",
			success:     true,
			created:     now.Add(-30 * 24 * time.Hour),
			lastContact: now.Add(-2 * 24 * time.Hour),
			want:        now.Add(5 * 24 * time.Hour),
		},
		{
			name:        "success anchors on created when later",
			success:     true,
			created:     now.Add(-1 * time.Hour),
			lastContact: now.Add(-10 * 24 * time.Hour),
			want:        now.Add(-1*time.Hour + 7*24*time.Hour),
		},
		{
			name:        "success with stale contact is already due",
			success:     true,
			created:     now.Add(-60 * 24 * time.Hour),
			lastContact: now.Add(-8 * 24 * time.Hour),
			want:        now.Add(-1 * 24 * time.Hour),
		},
		{
			name:    "success without any timestamp is due now",
			success: true,
			want:    now,
		},
		{
			name:        "failure within six hours",
			lastContact: now.Add(-1 * time.Hour),
			want:        now.Add(6 * time.Hour),
		},
		{
			name:        "failure within twelve hours",
			lastContact: now.Add(-7 * time.Hour),
			want:        now.Add(12 * time.Hour),
		},
		{
			name:        "failure within a day",
			lastContact: now.Add(-13 * time.Hour),
			want:        now.Add(24 * time.Hour),
		},
		{
			name:        "failure within a week",
			lastContact: now.Add(-3 * 24 * time.Hour),
			want:        now.Add(7 * 24 * time.Hour),
		},
		{
			name:        "undetected server retried monthly",
			lastContact: now.Add(-30 * 24 * time.Hour),
			undetected:  true,
			want:        now.AddDate(0, 1, 0),
		},
		{
			name:        "long dead server retried twice a year",
			lastContact: now.Add(-30 * 24 * time.Hour),
			want:        now.AddDate(0, 6, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.NextUpdateDate(tt.success, tt.created, tt.lastContact, tt.undetected)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestPolicy_DefaultClock(t *testing.T) {
	p := NewPolicy()
	got := p.NextUpdateDate(false, time.Time{}, time.Now().Add(-time.Hour), false)
	assert.WithinDuration(t, time.Now().Add(6*time.Hour), got, time.Minute)
}
