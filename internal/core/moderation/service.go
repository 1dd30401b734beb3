package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service files and reads moderation reports
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a moderation service
func NewService(repo Repository) *Service {
	if repo == nil {
		panic("moderation: repo cannot be nil")
	}
	return &Service{repo: repo, now: time.Now}
}

// Create validates and stores a new report
func (s *Service) Create(ctx context.Context, uid, cid int64, comment string, forward bool, postURIIDs []int64) (*Report, error) {
	report, err := NewReport(uid, cid, s.now(), comment, forward, postURIIDs)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	slog.Info("moderation report filed", "id", report.ID, "uid", uid, "cid", cid, "posts", len(report.PostURIIDs))
	return report, nil
}

// Get returns a stored report
func (s *Service) Get(ctx context.Context, id int64) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}
