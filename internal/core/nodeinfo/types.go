package nodeinfo

import (
	"context"
	"errors"
)

// Config categories and keys
const (
	CategorySystem   = "system"
	CategoryNodeinfo = "nodeinfo"

	KeyEnabled             = "nodeinfo"
	KeyTotalUsers          = "total_users"
	KeyActiveUsersHalfyear = "active_users_halfyear"
	KeyActiveUsersMonthly  = "active_users_monthly"
	KeyActiveUsersWeekly   = "active_users_weekly"
	KeyLocalPosts          = "local_posts"
	KeyLocalComments       = "local_comments"
)

// JobNodeinfoUpdate is the periodic job that refreshes the statistics
const JobNodeinfoUpdate = "NodeinfoUpdate"

// legacyStatisticsAddon is the addon nodeinfo replaced
const legacyStatisticsAddon = "statistics_json"

// ErrNoAdmin is returned by StatsRepository.FirstAdmin when no admin account exists
var ErrNoAdmin = errors.New("no admin user")

// ConfigStore is the persisted key/value configuration (cat, key) -> value
type ConfigStore interface {
	// Get returns false when the key is not set
	Get(ctx context.Context, cat, key string) (string, bool, error)
	Set(ctx context.Context, cat, key, value string) error
}

// AddonRegistry reports which addons are enabled on this node
type AddonRegistry interface {
	IsEnabled(name string) bool
}

// AddonUninstaller is implemented by registries that can disable addons
type AddonUninstaller interface {
	Uninstall(name string) error
}

// UserStats are the account counters published in nodeinfo
type UserStats struct {
	Total          int `json:"total_users"`
	ActiveHalfyear int `json:"active_users_halfyear"`
	ActiveMonthly  int `json:"active_users_monthly"`
	ActiveWeekly   int `json:"active_users_weekly"`
}

// Admin is the first admin account, used for the organization block
type Admin struct {
	Username string
	Email    string
	Nickname string
}

// StatsRepository computes node statistics from the local tables
type StatsRepository interface {
	UserStatistics(ctx context.Context) (UserStats, error)
	CountLocalPosts(ctx context.Context) (int, error)
	CountLocalComments(ctx context.Context) (int, error)
	FirstAdmin(ctx context.Context) (*Admin, error)
}

// UsageUsers is the users block; all fields are absent when nodeinfo is off
type UsageUsers struct {
	Total          *int `json:"total,omitempty"`
	ActiveHalfyear *int `json:"activeHalfyear,omitempty"`
	ActiveMonth    *int `json:"activeMonth,omitempty"`
	ActiveWeek     *int `json:"activeWeek,omitempty"`
}

// Usage is the nodeinfo usage block
type Usage struct {
	LocalPosts    *int       `json:"localPosts,omitempty"`
	LocalComments *int       `json:"localComments,omitempty"`
	Users         UsageUsers `json:"users"`
}

// Services lists the third-party services this node bridges to
type Services struct {
	Inbound  []string `json:"inbound"`
	Outbound []string `json:"outbound"`
}

// Organization describes who runs the node; unknown fields are null
type Organization struct {
	Name    *string `json:"name"`
	Contact *string `json:"contact"`
	Account *string `json:"account"`
}

// Software identifies the server implementation
type Software struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Document is a nodeinfo 1.0 or 2.0 document
type Document struct {
	Protocols         interface{}    `json:"protocols"`
	Metadata          map[string]any `json:"metadata"`
	Version           string         `json:"version"`
	Software          Software       `json:"software"`
	Services          Services       `json:"services"`
	Usage             Usage          `json:"usage"`
	OpenRegistrations bool           `json:"openRegistrations"`
}

// WellKnownLink is one entry of /.well-known/nodeinfo
type WellKnownLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// WellKnown is the /.well-known/nodeinfo discovery document
type WellKnown struct {
	Links []WellKnownLink `json:"links"`
}
