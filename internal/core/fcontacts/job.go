package fcontacts

import (
	"context"
	"fmt"

	"Driftwood/internal/core/jobs"
)

// JobRegistry is the subset of the job queue used to register handlers
type JobRegistry interface {
	Register(name string, handler jobs.Handler)
}

// RegisterJobs wires the UpdateFContact job to the service
func RegisterJobs(registry JobRegistry, svc Service) {
	registry.Register(JobUpdateFContact, func(ctx context.Context, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("%s expects exactly one handle, got %d args", JobUpdateFContact, len(args))
		}
		_, err := svc.Resolve(ctx, args[0], RefreshForce)
		return err
	})
}
