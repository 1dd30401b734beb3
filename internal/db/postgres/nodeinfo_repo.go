package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Driftwood/internal/core/nodeinfo"
)

type postgresNodeinfoRepo struct {
	db *sql.DB
}

// NewNodeinfoRepository creates the statistics source for nodeinfo
func NewNodeinfoRepository(db *sql.DB) nodeinfo.StatsRepository {
	return &postgresNodeinfoRepo{db: db}
}

// UserStatistics counts usable accounts and how many were active recently
func (r *postgresNodeinfoRepo) UserStatistics(ctx context.Context) (nodeinfo.UserStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE last_activity > NOW() - INTERVAL '180 days'),
			COUNT(*) FILTER (WHERE last_activity > NOW() - INTERVAL '30 days'),
			COUNT(*) FILTER (WHERE last_activity > NOW() - INTERVAL '7 days')
		FROM "user"
		WHERE verified AND NOT blocked AND NOT account_removed AND NOT account_expired`

	var s nodeinfo.UserStats
	err := r.db.QueryRowContext(ctx, query).Scan(&s.Total, &s.ActiveHalfyear, &s.ActiveMonthly, &s.ActiveWeekly)
	if err != nil {
		return nodeinfo.UserStats{}, fmt.Errorf("failed to compute user statistics: %w", err)
	}
	return s, nil
}

// CountLocalPosts counts top-level posts that originated here
func (r *postgresNodeinfoRepo) CountLocalPosts(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post WHERE origin AND NOT deleted AND gravity = $1`, gravityParent).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count local posts: %w", err)
	}
	return n, nil
}

// CountLocalComments counts comments that originated here
func (r *postgresNodeinfoRepo) CountLocalComments(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post WHERE origin AND NOT deleted AND gravity = $1`, gravityComment).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count local comments: %w", err)
	}
	return n, nil
}

// FirstAdmin returns the oldest admin account
func (r *postgresNodeinfoRepo) FirstAdmin(ctx context.Context) (*nodeinfo.Admin, error) {
	query := `
		SELECT username, email, nickname FROM "user"
		WHERE is_admin AND NOT account_removed
		ORDER BY uid LIMIT 1`

	a := &nodeinfo.Admin{}
	err := r.db.QueryRowContext(ctx, query).Scan(&a.Username, &a.Email, &a.Nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nodeinfo.ErrNoAdmin
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get first admin: %w", err)
	}
	return a, nil
}
