package fcontacts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"Driftwood/internal/core/jobs"
)

// JobUpdateFContact is the background job that force-refreshes a handle
const JobUpdateFContact = "UpdateFContact"

type service struct {
	repo      Repository
	resolver  DirectoryResolver
	interner  URIInterner
	stats     InteractionSource
	queue     TaskQueue
	freshness FreshnessPolicy
	now       func() time.Time
	probes    singleflight.Group
}

// ServiceOption configures the service
type ServiceOption func(*service)

// WithClock overrides the time source
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		s.now = now
	}
}

// NewService creates the fcontact cache service
func NewService(
	repo Repository,
	resolver DirectoryResolver,
	interner URIInterner,
	stats InteractionSource,
	queue TaskQueue,
	freshness FreshnessPolicy,
	opts ...ServiceOption,
) Service {
	if repo == nil {
		panic("fcontacts: repo cannot be nil")
	}
	if resolver == nil {
		panic("fcontacts: resolver cannot be nil")
	}
	if interner == nil {
		panic("fcontacts: interner cannot be nil")
	}
	if stats == nil {
		panic("fcontacts: stats cannot be nil")
	}
	if queue == nil {
		panic("fcontacts: queue cannot be nil")
	}
	if freshness == nil {
		panic("fcontacts: freshness policy cannot be nil")
	}

	s := &service{
		repo:      repo,
		resolver:  resolver,
		interner:  interner,
		stats:     stats,
		queue:     queue,
		freshness: freshness,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Resolve fetches data for a handle from the cache, probing the directory
// when the record is missing, incomplete or a refresh is forced.
func (s *service) Resolve(ctx context.Context, handle string, policy RefreshPolicy) (*FContact, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, ErrEmptyHandle
	}

	slog.Debug("fetch fcontact", "handle", handle, "policy", policy.String())

	person, err := s.lookup(ctx, handle)
	if err != nil {
		return nil, err
	}

	update := false
	if person != nil {
		cacheLookups.WithLabelValues("hit").Inc()
		slog.Debug("fcontact in cache", "handle", handle)

		switch policy {
		case RefreshNever:
			return person, nil
		case RefreshForce:
			update = true
		default:
			update = person.isIncomplete()
			if !update && s.isStale(person) {
				s.scheduleRefresh(handle)
			}
		}
	} else {
		cacheLookups.WithLabelValues("miss").Inc()
		if policy == RefreshNever {
			return nil, nil
		}
		update = true
	}

	if !update {
		return person, nil
	}

	return s.refresh(ctx, handle, person)
}

// lookup tries the exact addr first, then the url forms of the handle
func (s *service) lookup(ctx context.Context, handle string) (*FContact, error) {
	person, err := s.repo.GetByAddr(ctx, NetworkDiaspora, strings.ToLower(handle))
	if err == nil {
		return person, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, &StoreError{Op: "lookup by addr", Err: err}
	}

	person, err = s.repo.GetByURLs(ctx, NetworkDiaspora, urlCandidates(handle))
	if err == nil {
		return person, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, &StoreError{Op: "lookup by url", Err: err}
	}

	return nil, nil
}

func (s *service) isStale(person *FContact) bool {
	deadline := s.freshness.NextUpdateDate(true, person.Created, person.Updated, false)
	return deadline.Before(s.now())
}

// scheduleRefresh hands the handle to the job queue without waiting
func (s *service) scheduleRefresh(handle string) {
	slog.Debug("start background fcontact update", "handle", handle)

	opts := jobs.Options{Priority: jobs.PriorityLow, DontFork: true}
	if _, err := s.queue.Enqueue(opts, JobUpdateFContact, handle); err != nil {
		backgroundRefreshes.WithLabelValues("dropped").Inc()
		slog.Warn("failed to enqueue fcontact refresh", "handle", handle, "error", err)
		return
	}
	backgroundRefreshes.WithLabelValues("enqueued").Inc()
}

// refresh probes the directory and stores the result. Remote failures fall
// back to the record we already had.
func (s *service) refresh(ctx context.Context, handle string, person *FContact) (*FContact, error) {
	slog.Info("create or refresh fcontact", "handle", handle)

	// The shared probe outlives any single caller; the resolver's own
	// timeout bounds it
	shared := context.WithoutCancel(ctx)
	ch := s.probes.DoChan(handle, func() (interface{}, error) {
		start := time.Now()
		doc, probeErr := s.resolver.Probe(shared, handle, NetworkDiaspora)
		probeDuration.Observe(time.Since(start).Seconds())

		if probeErr != nil {
			directoryProbes.WithLabelValues("failed").Inc()
			slog.Info("fcontact probe failed", "handle", handle, "error", probeErr)
			return nil, nil
		}
		// Friendica pods answer as Diaspora persons when the addon is on,
		// anything else is not ours to cache
		if doc == nil || doc.Network != NetworkDiaspora {
			directoryProbes.WithLabelValues("protocol_mismatch").Inc()
			network := ""
			if doc != nil {
				network = doc.Network
			}
			slog.Info("fcontact probe returned foreign network", "handle", handle, "network", network)
			return nil, nil
		}
		directoryProbes.WithLabelValues("ok").Inc()

		if upsertErr := s.Upsert(shared, doc); upsertErr != nil {
			return nil, upsertErr
		}
		return doc, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		slog.Info("fcontact refresh abandoned by caller", "handle", handle, "error", ctx.Err())
		return person, nil
	}
	if res.Err != nil {
		return nil, res.Err
	}

	doc, _ := res.Val.(*DirectoryDocument)
	if doc == nil {
		return person, nil
	}

	fresh, err := s.lookup(ctx, handle)
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		return fresh, nil
	}

	// The handle may be an alias of the canonical url we just stored
	fresh, err = s.repo.GetByURL(ctx, NetworkDiaspora, strings.TrimSpace(doc.URL))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return person, nil
		}
		return nil, &StoreError{Op: "reload", Err: err}
	}
	return fresh, nil
}

// Upsert writes a directory document to the fcontact table
func (s *service) Upsert(ctx context.Context, doc *DirectoryDocument) error {
	if doc == nil {
		return ErrInvalidDocument
	}
	url := strings.TrimSpace(doc.URL)
	if url == "" {
		return ErrInvalidDocument
	}

	network := doc.Network
	if network == "" {
		network = NetworkDiaspora
	}

	uriID, err := s.interner.Intern(ctx, url, doc.GUID)
	if err != nil {
		return &StoreError{Op: "intern uri", Err: err}
	}

	existing, err := s.repo.GetByURL(ctx, network, url)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return &StoreError{Op: "read created", Err: err}
	}

	counts, local, err := s.stats.Counts(ctx, url, uriID)
	if err != nil {
		return &StoreError{Op: "interaction counts", Err: err}
	}

	now := s.now().UTC()
	contact := &FContact{
		Network:          network,
		URL:              url,
		Name:             doc.Name,
		Photo:            doc.Photo,
		Request:          doc.Request,
		Nick:             doc.Nick,
		Addr:             strings.ToLower(doc.Addr),
		GUID:             doc.GUID,
		Batch:            doc.Batch,
		Notify:           doc.Notify,
		Poll:             doc.Poll,
		Confirm:          doc.Confirm,
		Alias:            doc.Alias,
		PubKey:           doc.PubKey,
		URIID:            uriID,
		InteractingCount: counts.Interacting,
		InteractedCount:  counts.Interacted,
		PostCount:        counts.Posts,
		Updated:          now,
	}

	switch {
	case existing == nil:
		contact.Created = now
	case IsUnsetTime(existing.Created) && local != nil && !IsUnsetTime(local.Created):
		contact.Created = local.Created.UTC()
	}

	if err := s.repo.Upsert(ctx, contact); err != nil {
		return &StoreError{Op: "upsert", Err: err}
	}

	return nil
}

// LookupURLByGUID returns the url of the contact with this guid
func (s *service) LookupURLByGUID(ctx context.Context, guid string) (string, bool, error) {
	guid = strings.TrimSpace(guid)
	slog.Info("fcontact url by guid", "guid", guid)
	if guid == "" {
		return "", false, nil
	}

	url, err := s.repo.GetURLByGUID(ctx, NetworkDiaspora, guid)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StoreError{Op: "lookup by guid", Err: err}
	}

	return url, true, nil
}
