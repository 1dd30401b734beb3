package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"Driftwood/internal/core/itemuri"
)

type postgresItemURIRepo struct {
	db *sql.DB
}

// NewItemURIRepository creates a new PostgreSQL URI interner
func NewItemURIRepository(db *sql.DB) itemuri.Repository {
	return &postgresItemURIRepo{db: db}
}

// Intern returns the id of uri, inserting it if needed. A guid is only
// recorded when the row has none yet.
func (r *postgresItemURIRepo) Intern(ctx context.Context, uri, guid string) (int64, error) {
	if uri == "" {
		return 0, itemuri.ErrEmptyURI
	}

	query := `
		INSERT INTO item_uri (uri, guid)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (uri) DO UPDATE SET
			guid = COALESCE(NULLIF(item_uri.guid, ''), EXCLUDED.guid)
		RETURNING id`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, uri, truncate(guid, varcharDefault)).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to intern uri: %w", err)
	}
	return id, nil
}
