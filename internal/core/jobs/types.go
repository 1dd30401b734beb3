package jobs

import (
	"context"
	"errors"
	"time"
)

// Priority orders jobs; lower values run first
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityNegligible

	numPriorities = int(PriorityNegligible) + 1
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	case PriorityNegligible:
		return "negligible"
	default:
		return "unknown"
	}
}

// Options are the scheduling knobs of a job
type Options struct {
	Priority Priority
	// DontFork leaves the job to the running workers instead of starting a
	// burst goroutine for it
	DontFork bool
}

// Handler runs one job. Errors are logged by the queue.
type Handler func(ctx context.Context, args []string) error

// Job is a queued unit of work
type Job struct {
	EnqueuedAt time.Time
	ID         string
	Name       string
	Args       []string
	Options    Options
}

var (
	// ErrQueueFull is returned when the lane for a priority has no room
	ErrQueueFull = errors.New("job queue is full")

	// ErrQueueStopped is returned when enqueuing after Stop
	ErrQueueStopped = errors.New("job queue is stopped")

	// ErrInvalidPriority is returned for priorities outside the known range
	ErrInvalidPriority = errors.New("invalid job priority")

	// ErrEmptyName is returned when a job has no name
	ErrEmptyName = errors.New("job name is required")
)
