package diaspora

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/time/rate"

	"Driftwood/internal/core/fcontacts"
)

// maxBodySize caps webfinger and hcard responses
const maxBodySize = 1 << 20

// Config configures the directory resolver
type Config struct {
	// Transport overrides the HTTP transport (tests, proxies)
	Transport        http.RoundTripper
	UserAgent        string
	Timeout          time.Duration
	MaxRetries       int
	HostRate         float64 // requests per second per pod
	HostBurst        int
	FailureThreshold int
	OpenDuration     time.Duration
}

// DefaultConfig returns a resolver configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		UserAgent:        "Driftwood/1.0 (+https://github.com/driftwood-social/driftwood)",
		Timeout:          10 * time.Second,
		MaxRetries:       2,
		HostRate:         2,
		HostBurst:        4,
		FailureThreshold: 3,
		OpenDuration:     5 * time.Minute,
	}
}

// Resolver discovers Diaspora persons through webfinger and hcard
type Resolver struct {
	client   *http.Client
	breaker  *circuitBreaker
	limiters map[string]*rate.Limiter
	cfg      Config
	mu       sync.Mutex
}

// NewResolver creates a resolver; zero config fields take their defaults
func NewResolver(cfg Config) *Resolver {
	def := DefaultConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.HostRate <= 0 {
		cfg.HostRate = def.HostRate
	}
	if cfg.HostBurst <= 0 {
		cfg.HostBurst = def.HostBurst
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenDuration <= 0 {
		cfg.OpenDuration = def.OpenDuration
	}

	return &Resolver{
		client:   NewHTTPClient(cfg.Timeout, cfg.MaxRetries, cfg.Transport),
		breaker:  newCircuitBreaker(cfg.FailureThreshold, cfg.OpenDuration),
		limiters: make(map[string]*rate.Limiter),
		cfg:      cfg,
	}
}

// Probe resolves a handle to a directory document. Only the Diaspora
// network is supported; an empty network means Diaspora.
func (r *Resolver) Probe(ctx context.Context, handle, network string) (*fcontacts.DirectoryDocument, error) {
	if network != "" && network != fcontacts.NetworkDiaspora {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedNetwork, network)
	}

	addr, err := ParseAddress(handle)
	if err != nil {
		return nil, err
	}

	if err := r.breaker.canAttempt(addr.Host); err != nil {
		return nil, err
	}

	finger, err := r.webfinger(ctx, addr)
	if err != nil {
		return nil, r.fail(addr.Host, StageWebfinger, err)
	}

	hcardURL := finger.link(relHCard)
	if hcardURL == "" {
		r.breaker.recordSuccess(addr.Host)
		return nil, &ProbeError{Host: addr.Host, Stage: StageWebfinger, Err: fmt.Errorf("%w: no hcard link", ErrNotFound)}
	}

	body, err := r.get(ctx, addr.Host, hcardURL, "text/html")
	if err != nil {
		return nil, r.fail(addr.Host, StageHCard, err)
	}
	card, err := parseHCard(bytes.NewReader(body))
	if err != nil {
		r.breaker.recordSuccess(addr.Host)
		return nil, &ProbeError{Host: addr.Host, Stage: StageHCard, Err: err}
	}
	r.breaker.recordSuccess(addr.Host)

	doc := buildDocument(addr, finger, card)

	if doc.PubKey != "" {
		if _, err := jwk.ParseKey([]byte(doc.PubKey), jwk.WithPEM(true)); err != nil {
			return nil, &ProbeError{Host: addr.Host, Stage: StageKey, Err: fmt.Errorf("%w: %v", ErrInvalidKey, err)}
		}
	}

	slog.Debug("diaspora probe", "handle", handle, "url", doc.URL, "network", doc.Network)
	return doc, nil
}

// fail records transport failures on the circuit breaker; 404s mean the pod
// is alive and only the person is missing
func (r *Resolver) fail(host, stage string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
		r.breaker.recordSuccess(host)
	} else {
		r.breaker.recordFailure(host, err)
	}
	return &ProbeError{Host: host, Stage: stage, Err: err}
}

func (r *Resolver) webfinger(ctx context.Context, addr Address) (*jrd, error) {
	endpoint := fmt.Sprintf("https://%s/.well-known/webfinger?resource=%s", addr.Host, url.QueryEscape(addr.Resource))
	body, err := r.get(ctx, addr.Host, endpoint, "application/jrd+json, application/json")
	if err != nil {
		return nil, err
	}
	return parseJRD(body)
}

func (r *Resolver) get(ctx context.Context, host, target, accept string) ([]byte, error) {
	if err := r.limiter(host).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		// Limit error body to 1KB to prevent unbounded reads
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &statusError{Status: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func (r *Resolver) limiter(host string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(r.cfg.HostRate), r.cfg.HostBurst)
		r.limiters[host] = l
	}
	return l
}

// buildDocument merges the webfinger and hcard answers. The document is a
// Diaspora person only when both the pod base url and the guid are known.
func buildDocument(addr Address, finger *jrd, card *hCard) *fcontacts.DirectoryDocument {
	doc := &fcontacts.DirectoryDocument{
		GUID:   card.GUID,
		Name:   card.Name,
		Nick:   card.Nick,
		Photo:  card.Photo,
		PubKey: card.PubKey,
		Poll:   finger.link(relUpdatesFrom),
	}

	if doc.PubKey == "" {
		doc.PubKey = finger.publicKey()
	}

	doc.Addr = finger.subjectAddr()
	if doc.Addr == "" {
		doc.Addr = addr.Addr()
	}
	if doc.Nick == "" {
		if user, _, ok := strings.Cut(doc.Addr, "@"); ok {
			doc.Nick = user
		}
	}

	profiles := finger.profileURLs()
	switch {
	case len(profiles) > 0:
		doc.URL = profiles[0]
	case addr.ProfileURL != "":
		doc.URL = addr.ProfileURL
	}
	for _, p := range profiles {
		if p != doc.URL {
			doc.Alias = p
			break
		}
	}

	base := finger.link(relSeed)
	if base == "" {
		base = card.URL
	}
	doc.BaseURL = strings.TrimRight(base, "/")

	if doc.BaseURL != "" && doc.GUID != "" {
		doc.Network = fcontacts.NetworkDiaspora
		doc.Batch = doc.BaseURL + "/receive/public"
		doc.Notify = doc.BaseURL + "/receive/users/" + doc.GUID
		doc.Request = doc.Notify
	}

	return doc
}
