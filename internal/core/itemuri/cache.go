package itemuri

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrEmptyURI is returned when interning an empty URI
var ErrEmptyURI = errors.New("uri is required")

// Repository is the item_uri table
type Repository interface {
	// Intern returns the id for uri, creating it when missing.
	// A non-empty guid is stored if the row has none yet.
	Intern(ctx context.Context, uri, guid string) (int64, error)
}

type entry struct {
	id      int64
	hasGUID bool
}

// Cache memoises interned ids. Ids never change for a URI, so entries never
// go stale; eviction only bounds memory.
type Cache struct {
	inner Repository
	ids   *lru.Cache[string, entry]
}

// NewCache wraps an interner with an LRU of the given size
func NewCache(inner Repository, size int) (*Cache, error) {
	if inner == nil {
		return nil, errors.New("itemuri: inner repository cannot be nil")
	}
	ids, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create item uri cache: %w", err)
	}
	return &Cache{inner: inner, ids: ids}, nil
}

// Intern returns the id for uri, asking the repository only on a miss or
// when a guid is supplied for a URI first seen without one
func (c *Cache) Intern(ctx context.Context, uri, guid string) (int64, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return 0, ErrEmptyURI
	}

	if e, ok := c.ids.Get(uri); ok && (guid == "" || e.hasGUID) {
		return e.id, nil
	}

	id, err := c.inner.Intern(ctx, uri, guid)
	if err != nil {
		return 0, err
	}

	c.ids.Add(uri, entry{id: id, hasGUID: guid != ""})
	return id, nil
}
