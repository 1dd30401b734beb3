package interactions

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Window is how far back local interactions are counted
const Window = 180 * 24 * time.Hour

// ErrNotFound is returned by repositories when there is nothing to count from
var ErrNotFound = errors.New("interaction source not found")

// Counts are the interaction statistics stored with a cached contact
type Counts struct {
	Interacting int // people interacting with the contact
	Interacted  int // people the contact interacted with
	Posts       int
}

// LocalContact is the local contact row matching a remote profile
type LocalContact struct {
	Created time.Time
	ID      int64
}

// APCounts are the counters an ActivityPub actor publishes
type APCounts struct {
	Following int
	Followers int
	Statuses  int
}

// APContactRepository reads the ActivityPub actor cache
type APContactRepository interface {
	// GetCountsByURL returns ErrNotFound when the actor is not cached
	GetCountsByURL(ctx context.Context, url string) (*APCounts, error)
}

// ContactRepository reads local contacts and their interaction history
type ContactRepository interface {
	// GetByURIID returns ErrNotFound when no public contact has this uri id
	GetByURIID(ctx context.Context, uriID int64) (*LocalContact, error)
	// CountInteracted counts non-follow relations started by cid since the given time
	CountInteracted(ctx context.Context, cid int64, since time.Time) (int, error)
	// CountInteracting counts non-follow relations targeting cid since the given time
	CountInteracting(ctx context.Context, cid int64, since time.Time) (int, error)
	// CountPosts counts top-level posts and comments authored by cid
	CountPosts(ctx context.Context, cid int64) (int, error)
}

// Source combines the ActivityPub actor cache with local history
type Source struct {
	apContacts APContactRepository
	contacts   ContactRepository
	now        func() time.Time
}

// NewSource creates a statistics source
func NewSource(apContacts APContactRepository, contacts ContactRepository) *Source {
	if apContacts == nil {
		panic("interactions: apContacts cannot be nil")
	}
	if contacts == nil {
		panic("interactions: contacts cannot be nil")
	}
	return &Source{
		apContacts: apContacts,
		contacts:   contacts,
		now:        time.Now,
	}
}

// Counts returns the interaction counts for a profile url and the local
// contact for its uri id, if any. The published ActivityPub counters win
// over local history; without either source all counts are zero.
func (s *Source) Counts(ctx context.Context, url string, uriID int64) (Counts, *LocalContact, error) {
	var local *LocalContact
	if uriID > 0 {
		c, err := s.contacts.GetByURIID(ctx, uriID)
		switch {
		case err == nil:
			local = c
		case !errors.Is(err, ErrNotFound):
			return Counts{}, nil, fmt.Errorf("failed to get local contact: %w", err)
		}
	}

	ap, err := s.apContacts.GetCountsByURL(ctx, url)
	if err == nil {
		return Counts{
			Interacted:  ap.Following,
			Interacting: ap.Followers,
			Posts:       ap.Statuses,
		}, local, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Counts{}, nil, fmt.Errorf("failed to get apcontact counts: %w", err)
	}

	if local == nil || local.ID == 0 {
		return Counts{}, local, nil
	}

	since := s.now().UTC().Add(-Window)

	interacted, err := s.contacts.CountInteracted(ctx, local.ID, since)
	if err != nil {
		return Counts{}, nil, fmt.Errorf("failed to count interacted: %w", err)
	}
	interacting, err := s.contacts.CountInteracting(ctx, local.ID, since)
	if err != nil {
		return Counts{}, nil, fmt.Errorf("failed to count interacting: %w", err)
	}
	posts, err := s.contacts.CountPosts(ctx, local.ID)
	if err != nil {
		return Counts{}, nil, fmt.Errorf("failed to count posts: %w", err)
	}

	return Counts{
		Interacted:  interacted,
		Interacting: interacting,
		Posts:       posts,
	}, local, nil
}
