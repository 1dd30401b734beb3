package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"Driftwood/internal/core/moderation"
)

type postgresReportRepo struct {
	db *sql.DB
}

// NewReportRepository creates a new PostgreSQL moderation report repository
func NewReportRepository(db *sql.DB) moderation.Repository {
	return &postgresReportRepo{db: db}
}

// Save inserts the report and its supporting posts in one transaction
func (r *postgresReportRepo) Save(ctx context.Context, report *moderation.Report) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
			log.Printf("Failed to rollback transaction: %v", rollbackErr)
		}
	}()

	query := `
		INSERT INTO report (uid, cid, comment, forward, created)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err = tx.QueryRowContext(ctx, query, report.UID, report.CID, report.Comment, report.Forward, report.Created).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	if len(report.PostURIIDs) > 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO report_post (rid, uri_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING`,
			id, pq.Array(report.PostURIIDs))
		if err != nil {
			return fmt.Errorf("failed to insert report posts: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}

	report.ID = id
	return nil
}

// GetByID loads a report with its supporting posts
func (r *postgresReportRepo) GetByID(ctx context.Context, id int64) (*moderation.Report, error) {
	query := `
		SELECT r.id, r.uid, r.cid, r.comment, r.forward, r.created,
			COALESCE(array_agg(p.uri_id ORDER BY p.uri_id) FILTER (WHERE p.uri_id IS NOT NULL), '{}')
		FROM report r
		LEFT JOIN report_post p ON p.rid = r.id
		WHERE r.id = $1
		GROUP BY r.id`

	report := &moderation.Report{}
	var posts pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID, &report.UID, &report.CID, &report.Comment, &report.Forward, &report.Created, &posts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, moderation.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	report.Created = report.Created.UTC()
	report.PostURIIDs = []int64(posts)
	return report, nil
}
