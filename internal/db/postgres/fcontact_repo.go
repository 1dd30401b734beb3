package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"Driftwood/internal/core/fcontacts"
)

type postgresFContactRepo struct {
	db *sql.DB
}

// NewFContactRepository creates a new PostgreSQL fcontact repository
func NewFContactRepository(db *sql.DB) fcontacts.Repository {
	return &postgresFContactRepo{db: db}
}

const fcontactColumns = `
	network, url, addr, name, nick, photo, pubkey, request, batch, notify,
	poll, confirm, alias, guid, uri_id, interacting_count, interacted_count,
	post_count, created, updated`

func scanFContact(row interface{ Scan(...any) error }) (*fcontacts.FContact, error) {
	c := &fcontacts.FContact{}
	var uriID sql.NullInt64

	err := row.Scan(
		&c.Network, &c.URL, &c.Addr, &c.Name, &c.Nick, &c.Photo, &c.PubKey,
		&c.Request, &c.Batch, &c.Notify, &c.Poll, &c.Confirm, &c.Alias,
		&c.GUID, &uriID, &c.InteractingCount, &c.InteractedCount,
		&c.PostCount, &c.Created, &c.Updated,
	)
	if err != nil {
		return nil, err
	}

	c.URIID = uriID.Int64
	c.Created = c.Created.UTC()
	c.Updated = c.Updated.UTC()
	return c, nil
}

func (r *postgresFContactRepo) getOne(ctx context.Context, op, where string, args ...any) (*fcontacts.FContact, error) {
	query := `SELECT ` + fcontactColumns + ` FROM fcontact WHERE ` + where

	c, err := scanFContact(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fcontacts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fcontact by %s: %w", op, err)
	}
	return c, nil
}

// GetByAddr returns the first row with this handle
func (r *postgresFContactRepo) GetByAddr(ctx context.Context, network, addr string) (*fcontacts.FContact, error) {
	return r.getOne(ctx, "addr", `network = $1 AND addr = $2 ORDER BY id LIMIT 1`, network, truncate(addr, varcharDefault))
}

// GetByURLs returns the row matching the earliest url in the list
func (r *postgresFContactRepo) GetByURLs(ctx context.Context, network string, urls []string) (*fcontacts.FContact, error) {
	if len(urls) == 0 {
		return nil, fcontacts.ErrNotFound
	}
	keys := make([]string, len(urls))
	for i, u := range urls {
		keys[i] = truncate(u, varcharDefault)
	}
	return r.getOne(ctx, "urls",
		`network = $1 AND url = ANY($2::text[]) ORDER BY array_position($2::text[], url::text), id LIMIT 1`,
		network, pq.Array(keys))
}

// GetByURL returns the row keyed by (url, network). Keys are cut to the
// column limit the same way Upsert stores them.
func (r *postgresFContactRepo) GetByURL(ctx context.Context, network, url string) (*fcontacts.FContact, error) {
	return r.getOne(ctx, "url", `network = $1 AND url = $2`, network, truncate(url, varcharDefault))
}

// Upsert writes all fields of contact keyed by (url, network). A zero Created
// keeps the stored value, or takes Updated on insert.
func (r *postgresFContactRepo) Upsert(ctx context.Context, c *fcontacts.FContact) error {
	query := `
		INSERT INTO fcontact (
			network, url, addr, name, nick, photo, pubkey, request, batch, notify,
			poll, confirm, alias, guid, uri_id, interacting_count, interacted_count,
			post_count, created, updated
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17,
			$18, COALESCE($19::timestamptz, $20::timestamptz), $20
		)
		ON CONFLICT (url, network) DO UPDATE SET
			addr = EXCLUDED.addr,
			name = EXCLUDED.name,
			nick = EXCLUDED.nick,
			photo = EXCLUDED.photo,
			pubkey = EXCLUDED.pubkey,
			request = EXCLUDED.request,
			batch = EXCLUDED.batch,
			notify = EXCLUDED.notify,
			poll = EXCLUDED.poll,
			confirm = EXCLUDED.confirm,
			alias = EXCLUDED.alias,
			guid = EXCLUDED.guid,
			uri_id = EXCLUDED.uri_id,
			interacting_count = EXCLUDED.interacting_count,
			interacted_count = EXCLUDED.interacted_count,
			post_count = EXCLUDED.post_count,
			created = COALESCE($19::timestamptz, fcontact.created),
			updated = EXCLUDED.updated`

	var created sql.NullTime
	if !c.Created.IsZero() {
		created = sql.NullTime{Time: c.Created.UTC(), Valid: true}
	}
	var uriID sql.NullInt64
	if c.URIID > 0 {
		uriID = sql.NullInt64{Int64: c.URIID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		truncate(c.Network, networkLimit),
		truncate(c.URL, varcharDefault),
		truncate(c.Addr, varcharDefault),
		truncate(c.Name, varcharDefault),
		truncate(c.Nick, varcharDefault),
		truncate(c.Photo, varcharDefault),
		c.PubKey,
		truncate(c.Request, varcharDefault),
		truncate(c.Batch, varcharDefault),
		truncate(c.Notify, varcharDefault),
		truncate(c.Poll, varcharDefault),
		truncate(c.Confirm, varcharDefault),
		truncate(c.Alias, varcharDefault),
		truncate(c.GUID, varcharDefault),
		uriID,
		c.InteractingCount,
		c.InteractedCount,
		c.PostCount,
		created,
		c.Updated.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fcontact: %w", err)
	}

	return nil
}

// GetURLByGUID returns the first non-empty url stored for a guid
func (r *postgresFContactRepo) GetURLByGUID(ctx context.Context, network, guid string) (string, error) {
	query := `SELECT url FROM fcontact WHERE url <> '' AND network = $1 AND guid = $2 ORDER BY id LIMIT 1`

	var url string
	err := r.db.QueryRowContext(ctx, query, network, truncate(guid, varcharDefault)).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fcontacts.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get fcontact url by guid: %w", err)
	}
	return url, nil
}
