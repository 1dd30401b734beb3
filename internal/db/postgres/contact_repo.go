package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"Driftwood/internal/core/interactions"
)

// Post gravities
const (
	gravityParent  = 0
	gravityComment = 6
)

type postgresContactRepo struct {
	db *sql.DB
}

// NewContactRepository creates a repository over contact, contact_relation and post
func NewContactRepository(db *sql.DB) interactions.ContactRepository {
	return &postgresContactRepo{db: db}
}

// GetByURIID returns the public contact (uid 0) of a profile
func (r *postgresContactRepo) GetByURIID(ctx context.Context, uriID int64) (*interactions.LocalContact, error) {
	query := `
		SELECT id, created FROM contact
		WHERE uri_id = $1 AND uid = 0 AND NOT deleted
		ORDER BY id LIMIT 1`

	c := &interactions.LocalContact{}
	err := r.db.QueryRowContext(ctx, query, uriID).Scan(&c.ID, &c.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interactions.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact by uri id: %w", err)
	}
	c.Created = c.Created.UTC()
	return c, nil
}

func (r *postgresContactRepo) count(ctx context.Context, what, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", what, err)
	}
	return n, nil
}

// CountInteracted counts the recent non-follow relations started by cid
func (r *postgresContactRepo) CountInteracted(ctx context.Context, cid int64, since time.Time) (int, error) {
	return r.count(ctx, "interacted",
		`SELECT COUNT(*) FROM contact_relation WHERE cid = $1 AND NOT follows AND last_interaction > $2`,
		cid, since)
}

// CountInteracting counts the recent non-follow relations targeting cid
func (r *postgresContactRepo) CountInteracting(ctx context.Context, cid int64, since time.Time) (int, error) {
	return r.count(ctx, "interacting",
		`SELECT COUNT(*) FROM contact_relation WHERE relation_cid = $1 AND NOT follows AND last_interaction > $2`,
		cid, since)
}

// CountPosts counts top-level posts and comments by cid
func (r *postgresContactRepo) CountPosts(ctx context.Context, cid int64) (int, error) {
	return r.count(ctx, "posts",
		`SELECT COUNT(*) FROM post WHERE author_id = $1 AND gravity IN ($2, $3)`,
		cid, gravityParent, gravityComment)
}

type postgresAPContactRepo struct {
	db *sql.DB
}

// NewAPContactRepository creates a repository over the ActivityPub actor cache
func NewAPContactRepository(db *sql.DB) interactions.APContactRepository {
	return &postgresAPContactRepo{db: db}
}

// GetCountsByURL returns the counters an actor publishes
func (r *postgresAPContactRepo) GetCountsByURL(ctx context.Context, url string) (*interactions.APCounts, error) {
	query := `SELECT following_count, followers_count, statuses_count FROM apcontact WHERE url = $1`

	c := &interactions.APCounts{}
	err := r.db.QueryRowContext(ctx, query, url).Scan(&c.Following, &c.Followers, &c.Statuses)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interactions.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get apcontact counts: %w", err)
	}
	return c, nil
}
