package fcontacts

import (
	"fmt"
	"strings"
	"time"
)

// NetworkDiaspora is the protocol tag of every record held by this cache
const NetworkDiaspora = "dspr"

// FContact is a cached Diaspora contact, keyed by (Network, URL)
type FContact struct {
	Created          time.Time `json:"created"` // zero value means "unset"
	Updated          time.Time `json:"updated"`
	Network          string    `json:"network"`
	URL              string    `json:"url"`  // canonical profile URL, unique per network
	Addr             string    `json:"addr"` // user@host, lower-cased
	Name             string    `json:"name"`
	Nick             string    `json:"nick"`
	Photo            string    `json:"photo"`
	PubKey           string    `json:"pubkey"`
	Request          string    `json:"request"`
	Batch            string    `json:"batch"` // public receive endpoint of the pod
	Notify           string    `json:"notify"`
	Poll             string    `json:"poll"`
	Confirm          string    `json:"confirm"`
	Alias            string    `json:"alias"`
	GUID             string    `json:"guid"`
	URIID            int64     `json:"uriId"` // item_uri reference, 0 when missing
	InteractingCount int       `json:"interactingCount"`
	InteractedCount  int       `json:"interactedCount"`
	PostCount        int       `json:"postCount"`
}

// isIncomplete reports whether the record lacks data that only a fresh
// probe can fill in; such records are refreshed synchronously.
func (c *FContact) isIncomplete() bool {
	return c.GUID == "" || c.URIID == 0 || IsUnsetTime(c.Created)
}

// IsUnsetTime reports whether t is the "unset" timestamp sentinel.
// Rows written before created was tracked hold 0001-01-01 instead of NULL.
func IsUnsetTime(t time.Time) bool {
	return t.IsZero() || t.UTC().Year() <= 1
}

// DirectoryDocument is what a directory probe returns for a handle
type DirectoryDocument struct {
	Network string `json:"network"`
	URL     string `json:"url"`
	GUID    string `json:"guid"`
	Addr    string `json:"addr"`
	Name    string `json:"name"`
	Nick    string `json:"nick"`
	Photo   string `json:"photo"`
	Request string `json:"request"`
	Batch   string `json:"batch"`
	Notify  string `json:"notify"`
	Poll    string `json:"poll"`
	Confirm string `json:"confirm"`
	Alias   string `json:"alias"`
	PubKey  string `json:"pubkey"`
	BaseURL string `json:"baseUrl"`
}

// RefreshPolicy controls whether Resolve may touch the network
type RefreshPolicy int

const (
	// RefreshAuto fetches on a miss or an incomplete record and schedules a
	// background refresh for stale records
	RefreshAuto RefreshPolicy = iota
	// RefreshForce always probes the directory
	RefreshForce
	// RefreshNever only reads the cache
	RefreshNever
)

func (p RefreshPolicy) String() string {
	switch p {
	case RefreshAuto:
		return "auto"
	case RefreshForce:
		return "force"
	case RefreshNever:
		return "never"
	default:
		return fmt.Sprintf("RefreshPolicy(%d)", int(p))
	}
}

// ParseRefreshPolicy parses "auto", "force" or "never" (empty means auto)
func ParseRefreshPolicy(s string) (RefreshPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return RefreshAuto, nil
	case "force", "true":
		return RefreshForce, nil
	case "never", "false":
		return RefreshNever, nil
	default:
		return RefreshAuto, &InvalidPolicyError{Value: s}
	}
}
