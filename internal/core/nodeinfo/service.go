package nodeinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"Driftwood/internal/core/jobs"
)

// Config describes this node in the published documents
type Config struct {
	BaseURL           string
	NodeName          string
	SoftwareName      string
	SoftwareVersion   string
	OpenRegistrations bool
}

// Service maintains and publishes the nodeinfo statistics
type Service struct {
	config ConfigStore
	addons AddonRegistry
	stats  StatsRepository
	cfg    Config
}

// NewService creates a nodeinfo service
func NewService(config ConfigStore, addons AddonRegistry, stats StatsRepository, cfg Config) *Service {
	if config == nil {
		panic("nodeinfo: config store cannot be nil")
	}
	if addons == nil {
		panic("nodeinfo: addon registry cannot be nil")
	}
	if stats == nil {
		panic("nodeinfo: stats repository cannot be nil")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SoftwareName == "" {
		cfg.SoftwareName = "driftwood"
	}
	return &Service{config: config, addons: addons, stats: stats, cfg: cfg}
}

// Enabled reports whether nodeinfo publishing is switched on
func (s *Service) Enabled(ctx context.Context) (bool, error) {
	v, ok, err := s.config.Get(ctx, CategorySystem, KeyEnabled)
	if err != nil {
		return false, fmt.Errorf("failed to read nodeinfo switch: %w", err)
	}
	if !ok {
		return false, nil
	}
	enabled, err := strconv.ParseBool(v)
	return err == nil && enabled, nil
}

// Update recomputes the statistics and stores them in the config store
func (s *Service) Update(ctx context.Context) error {
	// The statistics_json addon predates nodeinfo, take over from it
	if s.addons.IsEnabled(legacyStatisticsAddon) {
		if err := s.config.Set(ctx, CategorySystem, KeyEnabled, "true"); err != nil {
			return fmt.Errorf("failed to enable nodeinfo: %w", err)
		}
		if u, ok := s.addons.(AddonUninstaller); ok {
			if err := u.Uninstall(legacyStatisticsAddon); err != nil {
				slog.Warn("failed to uninstall legacy statistics addon", "error", err)
			}
		}
	}

	enabled, err := s.Enabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	users, err := s.stats.UserStatistics(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute user statistics: %w", err)
	}
	posts, err := s.stats.CountLocalPosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count local posts: %w", err)
	}
	comments, err := s.stats.CountLocalComments(ctx)
	if err != nil {
		return fmt.Errorf("failed to count local comments: %w", err)
	}

	values := []struct {
		key   string
		value int
	}{
		{KeyTotalUsers, users.Total},
		{KeyActiveUsersHalfyear, users.ActiveHalfyear},
		{KeyActiveUsersMonthly, users.ActiveMonthly},
		{KeyActiveUsersWeekly, users.ActiveWeekly},
		{KeyLocalPosts, posts},
		{KeyLocalComments, comments},
	}
	for _, v := range values {
		if err := s.config.Set(ctx, CategoryNodeinfo, v.key, strconv.Itoa(v.value)); err != nil {
			return fmt.Errorf("failed to store %s: %w", v.key, err)
		}
	}

	slog.Info("user statistics",
		"total_users", users.Total,
		"active_users_halfyear", users.ActiveHalfyear,
		"active_users_monthly", users.ActiveMonthly,
		"active_users_weekly", users.ActiveWeekly)
	slog.Info("user activity", "posts", posts, "comments", comments)

	return nil
}

// Usage returns the stored statistics. activeWeek is a 2.0 field.
func (s *Service) Usage(ctx context.Context, version2 bool) (Usage, error) {
	var usage Usage

	enabled, err := s.Enabled(ctx)
	if err != nil || !enabled {
		return usage, err
	}

	read := func(key string) (*int, error) {
		v, _, err := s.config.Get(ctx, CategoryNodeinfo, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		n, _ := strconv.Atoi(v)
		return &n, nil
	}

	if usage.Users.Total, err = read(KeyTotalUsers); err != nil {
		return Usage{}, err
	}
	if usage.Users.ActiveHalfyear, err = read(KeyActiveUsersHalfyear); err != nil {
		return Usage{}, err
	}
	if usage.Users.ActiveMonth, err = read(KeyActiveUsersMonthly); err != nil {
		return Usage{}, err
	}
	if usage.LocalPosts, err = read(KeyLocalPosts); err != nil {
		return Usage{}, err
	}
	if usage.LocalComments, err = read(KeyLocalComments); err != nil {
		return Usage{}, err
	}
	if version2 {
		if usage.Users.ActiveWeek, err = read(KeyActiveUsersWeekly); err != nil {
			return Usage{}, err
		}
	}

	return usage, nil
}

// Services lists the inbound and outbound bridges of the enabled addons.
// Mail is always available.
func (s *Service) Services() Services {
	services := Services{Inbound: []string{}, Outbound: []string{}}
	enabled := s.addons.IsEnabled

	if enabled("blogger") {
		services.Outbound = append(services.Outbound, "blogger")
	}
	if enabled("dwpost") {
		services.Outbound = append(services.Outbound, "dreamwidth")
	}
	if enabled("statusnet") {
		services.Inbound = append(services.Inbound, "gnusocial")
		services.Outbound = append(services.Outbound, "gnusocial")
	}
	if enabled("ijpost") {
		services.Outbound = append(services.Outbound, "insanejournal")
	}
	if enabled("libertree") {
		services.Outbound = append(services.Outbound, "libertree")
	}
	if enabled("buffer") {
		services.Outbound = append(services.Outbound, "linkedin")
	}
	if enabled("ljpost") {
		services.Outbound = append(services.Outbound, "livejournal")
	}
	if enabled("buffer") {
		services.Outbound = append(services.Outbound, "pinterest")
	}
	if enabled("posterous") {
		services.Outbound = append(services.Outbound, "posterous")
	}
	if enabled("pumpio") {
		services.Inbound = append(services.Inbound, "pumpio")
		services.Outbound = append(services.Outbound, "pumpio")
	}

	services.Outbound = append(services.Outbound, "smtp")

	if enabled("tumblr") {
		services.Outbound = append(services.Outbound, "tumblr")
	}
	if enabled("twitter") || enabled("buffer") {
		services.Outbound = append(services.Outbound, "twitter")
	}
	if enabled("wppost") {
		services.Outbound = append(services.Outbound, "wordpress")
	}

	return services
}

// Organization describes the first admin of the node
func (s *Service) Organization(ctx context.Context) (Organization, error) {
	admin, err := s.stats.FirstAdmin(ctx)
	if errors.Is(err, ErrNoAdmin) {
		return Organization{}, nil
	}
	if err != nil {
		return Organization{}, fmt.Errorf("failed to get first admin: %w", err)
	}

	org := Organization{
		Name:    &admin.Username,
		Contact: &admin.Email,
	}
	if admin.Nickname != "" {
		account := s.cfg.BaseURL + "/profile/" + admin.Nickname
		org.Account = &account
	}
	return org, nil
}

// Document assembles the nodeinfo document for schema version "1.0" or "2.0"
func (s *Service) Document(ctx context.Context, version string) (*Document, error) {
	if version != "1.0" && version != "2.0" {
		return nil, fmt.Errorf("unsupported nodeinfo version %q", version)
	}
	version2 := version == "2.0"

	usage, err := s.Usage(ctx, version2)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Version:           version,
		Software:          Software{Name: s.cfg.SoftwareName, Version: s.cfg.SoftwareVersion},
		Services:          s.Services(),
		Usage:             usage,
		OpenRegistrations: s.cfg.OpenRegistrations,
		Metadata:          map[string]any{"nodeName": s.cfg.NodeName},
	}
	if version2 {
		doc.Protocols = []string{"diaspora"}
	} else {
		doc.Protocols = Services{Inbound: []string{"diaspora"}, Outbound: []string{"diaspora"}}
	}

	org, err := s.Organization(ctx)
	if err != nil {
		return nil, err
	}
	doc.Metadata["organization"] = org

	return doc, nil
}

// WellKnown returns the discovery document pointing at both schema versions
func (s *Service) WellKnown() WellKnown {
	return WellKnown{Links: []WellKnownLink{
		{Rel: "http://nodeinfo.diaspora.software/ns/schema/1.0", Href: s.cfg.BaseURL + "/nodeinfo/1.0"},
		{Rel: "http://nodeinfo.diaspora.software/ns/schema/2.0", Href: s.cfg.BaseURL + "/nodeinfo/2.0"},
	}}
}

// JobRegistry is the subset of the job queue used to register handlers
type JobRegistry interface {
	Register(name string, handler jobs.Handler)
}

// RegisterJobs wires the NodeinfoUpdate job to the service
func RegisterJobs(registry JobRegistry, svc *Service) {
	registry.Register(JobNodeinfoUpdate, func(ctx context.Context, args []string) error {
		return svc.Update(ctx)
	})
}
