package postgres

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Driftwood/internal/core/fcontacts"
	"Driftwood/internal/core/interactions"
)

// setupTestDB connects to TEST_DATABASE_URL and runs the migrations.
// Tests are skipped when no database is configured.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "../migrations"), "Failed to run migrations")

	cleanupTables(t, db)
	t.Cleanup(func() {
		cleanupTables(t, db)
		_ = db.Close()
	})
	return db
}

// cleanupTables removes all rows in reverse order of foreign key dependencies
func cleanupTables(t *testing.T, db *sql.DB) {
	for _, table := range []string{
		"report_post", "report", "post", "contact_relation", "contact",
		"apcontact", "fcontact", "item_uri", "config", `"user"`,
	} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
}

func testFContact(uriID int64, now time.Time) *fcontacts.FContact {
	return &fcontacts.FContact{
		Network: fcontacts.NetworkDiaspora,
		URL:     "https://pod.example.org/u/alice",
		Addr:    "alice@pod.example.org",
		Name:    "Alice",
		Nick:    "alice",
		GUID:    "abc123",
		URIID:   uriID,
		Batch:   "https://pod.example.org/receive/public",
		Updated: now,
	}
}

func TestFContactRepo_UpsertKeepsCreated(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	uris := NewItemURIRepository(db)
	repo := NewFContactRepository(db)

	uriID, err := uris.Intern(ctx, "https://pod.example.org/u/alice", "abc123")
	require.NoError(t, err)

	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c := testFContact(uriID, first)
	require.NoError(t, repo.Upsert(ctx, c))

	got, err := repo.GetByURL(ctx, fcontacts.NetworkDiaspora, c.URL)
	require.NoError(t, err)
	assert.True(t, got.Created.Equal(first), "insert without created takes updated")
	assert.Equal(t, uriID, got.URIID)

	second := first.Add(24 * time.Hour)
	c = testFContact(uriID, second)
	c.Name = "Alice L."
	require.NoError(t, repo.Upsert(ctx, c))

	got, err = repo.GetByURL(ctx, fcontacts.NetworkDiaspora, c.URL)
	require.NoError(t, err)
	assert.True(t, got.Created.Equal(first))
	assert.True(t, got.Updated.Equal(second))
	assert.Equal(t, "Alice L.", got.Name)

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM fcontact`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestFContactRepo_UnsetCreatedSentinel(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewFContactRepository(db)

	_, err := db.Exec(`INSERT INTO fcontact (network, url, addr) VALUES ('dspr', 'https://pod.example.org/u/old', 'old@pod.example.org')`)
	require.NoError(t, err)

	got, err := repo.GetByAddr(ctx, fcontacts.NetworkDiaspora, "old@pod.example.org")
	require.NoError(t, err)
	assert.True(t, fcontacts.IsUnsetTime(got.Created))
	assert.Zero(t, got.URIID)
}

func TestFContactRepo_GetByURLsOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewFContactRepository(db)
	now := time.Now().UTC()

	normalised := testFContact(0, now)
	normalised.URL = "http://pod.example.org/u/alice"
	require.NoError(t, repo.Upsert(ctx, normalised))

	secure := testFContact(0, now)
	require.NoError(t, repo.Upsert(ctx, secure))

	got, err := repo.GetByURLs(ctx, fcontacts.NetworkDiaspora, []string{"https://pod.example.org/u/alice", "http://pod.example.org/u/alice"})
	require.NoError(t, err)
	assert.Equal(t, "https://pod.example.org/u/alice", got.URL)

	_, err = repo.GetByURLs(ctx, fcontacts.NetworkDiaspora, []string{"https://nowhere.example.org/u/x"})
	assert.ErrorIs(t, err, fcontacts.ErrNotFound)

	_, err = repo.GetByURLs(ctx, "apub", []string{"https://pod.example.org/u/alice"})
	assert.ErrorIs(t, err, fcontacts.ErrNotFound)
}

func TestFContactRepo_GetURLByGUIDSkipsEmptyURL(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewFContactRepository(db)

	_, err := db.Exec(`INSERT INTO fcontact (network, url, guid) VALUES ('dspr', '', 'g1')`)
	require.NoError(t, err)

	_, err = repo.GetURLByGUID(ctx, fcontacts.NetworkDiaspora, "g1")
	assert.ErrorIs(t, err, fcontacts.ErrNotFound)

	_, err = db.Exec(`INSERT INTO fcontact (network, url, guid) VALUES ('dspr', 'https://pod.example.org/u/g', 'g1')`)
	require.NoError(t, err)

	url, err := repo.GetURLByGUID(ctx, fcontacts.NetworkDiaspora, "g1")
	require.NoError(t, err)
	assert.Equal(t, "https://pod.example.org/u/g", url)
}

func TestFContactRepo_TruncatesLongFields(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewFContactRepository(db)

	c := testFContact(0, time.Now().UTC())
	c.Name = strings.Repeat("n", 400)
	require.NoError(t, repo.Upsert(ctx, c))

	got, err := repo.GetByURL(ctx, fcontacts.NetworkDiaspora, c.URL)
	require.NoError(t, err)
	assert.Len(t, got.Name, varcharDefault)
}

func TestFContactRepo_LongURLKeepsCreated(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewFContactRepository(db)

	longURL := "https://pod.example.org/u/" + strings.Repeat("a", 300)
	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	c := testFContact(0, first)
	c.URL = longURL
	c.Created = first
	require.NoError(t, repo.Upsert(ctx, c))

	got, err := repo.GetByURL(ctx, fcontacts.NetworkDiaspora, longURL)
	require.NoError(t, err, "lookup by the full url must find the truncated row")
	assert.Len(t, got.URL, varcharDefault)
	assert.True(t, got.Created.Equal(first))

	// A second write without created must not move it
	second := first.Add(48 * time.Hour)
	c = testFContact(0, second)
	c.URL = longURL
	require.NoError(t, repo.Upsert(ctx, c))

	got, err = repo.GetByURLs(ctx, fcontacts.NetworkDiaspora, []string{"https://elsewhere.example.org/u/x", longURL})
	require.NoError(t, err)
	assert.True(t, got.Created.Equal(first), "created = %s", got.Created)
	assert.True(t, got.Updated.Equal(second))

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM fcontact`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestItemURIRepo_Intern(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewItemURIRepository(db)

	id1, err := repo.Intern(ctx, "https://pod.example.org/u/alice", "")
	require.NoError(t, err)
	id2, err := repo.Intern(ctx, "https://pod.example.org/u/alice", "abc")
	require.NoError(t, err)
	id3, err := repo.Intern(ctx, "https://pod.example.org/u/alice", "other")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, id1, id3)

	var guid string
	require.NoError(t, db.QueryRow(`SELECT guid FROM item_uri WHERE id = $1`, id1).Scan(&guid))
	assert.Equal(t, "abc", guid, "the first guid sticks")
}

func TestContactRepo_Counts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	uris := NewItemURIRepository(db)
	repo := NewContactRepository(db)
	now := time.Now().UTC()

	uriID, err := uris.Intern(ctx, "https://pod.example.org/u/alice", "")
	require.NoError(t, err)
	postURI, err := uris.Intern(ctx, "https://pod.example.org/posts/1", "")
	require.NoError(t, err)

	created := time.Date(2019, 5, 6, 7, 8, 9, 0, time.UTC)
	var alice, bob, carol int64
	require.NoError(t, db.QueryRow(`INSERT INTO contact (uri_id, url, created) VALUES ($1, 'https://pod.example.org/u/alice', $2) RETURNING id`, uriID, created).Scan(&alice))
	require.NoError(t, db.QueryRow(`INSERT INTO contact (url) VALUES ('https://pod.example.org/u/bob') RETURNING id`).Scan(&bob))
	require.NoError(t, db.QueryRow(`INSERT INTO contact (url) VALUES ('https://pod.example.org/u/carol') RETURNING id`).Scan(&carol))

	recent := now.Add(-24 * time.Hour)
	old := now.Add(-200 * 24 * time.Hour)
	for _, rel := range []struct {
		at      time.Time
		cid     int64
		rcid    int64
		follows bool
	}{
		{cid: alice, rcid: bob, at: recent},
		{cid: alice, rcid: carol, at: old},
		{cid: bob, rcid: alice, at: recent},
		{cid: carol, rcid: alice, at: recent, follows: true},
	} {
		_, err := db.Exec(`INSERT INTO contact_relation (cid, relation_cid, last_interaction, follows) VALUES ($1, $2, $3, $4)`,
			rel.cid, rel.rcid, rel.at, rel.follows)
		require.NoError(t, err)
	}
	for _, gravity := range []int{gravityParent, gravityComment, 3} {
		_, err := db.Exec(`INSERT INTO post (uri_id, author_id, gravity) VALUES ($1, $2, $3)`, postURI, alice, gravity)
		require.NoError(t, err)
	}

	local, err := repo.GetByURIID(ctx, uriID)
	require.NoError(t, err)
	assert.Equal(t, alice, local.ID)
	assert.True(t, local.Created.Equal(created))

	since := now.Add(-interactions.Window)
	interacted, err := repo.CountInteracted(ctx, alice, since)
	require.NoError(t, err)
	assert.Equal(t, 1, interacted)

	interacting, err := repo.CountInteracting(ctx, alice, since)
	require.NoError(t, err)
	assert.Equal(t, 1, interacting, "follows are not interactions")

	posts, err := repo.CountPosts(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, posts)

	_, err = repo.GetByURIID(ctx, postURI)
	assert.ErrorIs(t, err, interactions.ErrNotFound)
}

func TestAPContactRepo_GetCountsByURL(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewAPContactRepository(db)

	_, err := db.Exec(`INSERT INTO apcontact (url, following_count, followers_count, statuses_count) VALUES ('https://ap.example.org/users/a', 1, 2, 3)`)
	require.NoError(t, err)

	counts, err := repo.GetCountsByURL(ctx, "https://ap.example.org/users/a")
	require.NoError(t, err)
	assert.Equal(t, &interactions.APCounts{Following: 1, Followers: 2, Statuses: 3}, counts)

	_, err = repo.GetCountsByURL(ctx, "https://ap.example.org/users/b")
	assert.ErrorIs(t, err, interactions.ErrNotFound)
}
