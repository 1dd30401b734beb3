package fcontacts

import (
	"context"
	"time"

	"Driftwood/internal/core/interactions"
	"Driftwood/internal/core/jobs"
)

// Service resolves Diaspora handles to cached contacts
type Service interface {
	// Resolve returns the cached contact for a handle (user@host or profile
	// URL), probing the directory when the policy allows it.
	// A nil contact with a nil error means the handle is unknown and could
	// not be resolved; that is not a failure.
	// Only local store failures are returned as errors.
	Resolve(ctx context.Context, handle string, policy RefreshPolicy) (*FContact, error)

	// Upsert stores a resolved directory document, keyed by (url, network)
	Upsert(ctx context.Context, doc *DirectoryDocument) error

	// LookupURLByGUID returns the profile URL stored for a Diaspora guid.
	// Never triggers a refresh.
	LookupURLByGUID(ctx context.Context, guid string) (string, bool, error)
}

// Repository is the fcontact table
type Repository interface {
	// GetByAddr returns ErrNotFound when no row has this addr
	GetByAddr(ctx context.Context, network, addr string) (*FContact, error)

	// GetByURLs returns the first row whose url is one of urls, or ErrNotFound
	GetByURLs(ctx context.Context, network string, urls []string) (*FContact, error)

	// GetByURL returns ErrNotFound when no row has this url
	GetByURL(ctx context.Context, network, url string) (*FContact, error)

	// Upsert inserts or updates the row keyed by (contact.URL, contact.Network).
	// A zero contact.Created keeps the stored value (or the updated time on insert).
	Upsert(ctx context.Context, contact *FContact) error

	// GetURLByGUID returns ErrNotFound when no row with a non-empty url matches
	GetURLByGUID(ctx context.Context, network, guid string) (string, error)
}

// DirectoryResolver performs the remote identity discovery
type DirectoryResolver interface {
	Probe(ctx context.Context, handle, network string) (*DirectoryDocument, error)
}

// URIInterner maps a URI to a stable id, idempotently
type URIInterner interface {
	Intern(ctx context.Context, uri, guid string) (int64, error)
}

// InteractionSource supplies follower/following/post counts for a profile
type InteractionSource interface {
	Counts(ctx context.Context, url string, uriID int64) (interactions.Counts, *interactions.LocalContact, error)
}

// TaskQueue accepts fire-and-forget background jobs
type TaskQueue interface {
	Enqueue(opts jobs.Options, name string, args ...string) (string, error)
}

// FreshnessPolicy computes when a cached record should be refreshed
type FreshnessPolicy interface {
	NextUpdateDate(success bool, created, lastContact time.Time, undetected bool) time.Time
}
