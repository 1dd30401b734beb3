package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Driftwood/internal/core/nodeinfo"
)

type postgresConfigRepo struct {
	db *sql.DB
}

// NewConfigRepository creates a key/value store over the config table
func NewConfigRepository(db *sql.DB) nodeinfo.ConfigStore {
	return &postgresConfigRepo{db: db}
}

func (r *postgresConfigRepo) Get(ctx context.Context, cat, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT v FROM config WHERE cat = $1 AND k = $2`, cat, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get config %s.%s: %w", cat, key, err)
	}
	return v, true, nil
}

func (r *postgresConfigRepo) Set(ctx context.Context, cat, key, value string) error {
	query := `
		INSERT INTO config (cat, k, v) VALUES ($1, $2, $3)
		ON CONFLICT (cat, k) DO UPDATE SET v = EXCLUDED.v`

	if _, err := r.db.ExecContext(ctx, query, cat, key, value); err != nil {
		return fmt.Errorf("failed to set config %s.%s: %w", cat, key, err)
	}
	return nil
}
