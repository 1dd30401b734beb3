package diaspora

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Link relations published by Diaspora pods
const (
	relHCard       = "http://microformats.org/profile/hcard"
	relSeed        = "http://joindiaspora.com/seed_location"
	relProfilePage = "http://webfinger.net/rel/profile-page"
	relUpdatesFrom = "http://schemas.google.com/g/2010#updates-from"
	relPublicKey   = "diaspora-public-key"
)

// jrd is a JSON Resource Descriptor (RFC 7033)
type jrd struct {
	Subject string    `json:"subject"`
	Aliases []string  `json:"aliases,omitempty"`
	Links   []jrdLink `json:"links"`
}

type jrdLink struct {
	Rel  string `json:"rel"`
	Type string `json:"type,omitempty"`
	Href string `json:"href,omitempty"`
}

func parseJRD(body []byte) (*jrd, error) {
	var doc jrd
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode webfinger response: %w", err)
	}
	return &doc, nil
}

// link returns the href of the first link with this rel
func (d *jrd) link(rel string) string {
	for _, l := range d.Links {
		if l.Rel == rel && l.Href != "" {
			return l.Href
		}
	}
	return ""
}

// profileURLs returns the html profile page first, then the other
// profile-page links and aliases, without duplicates
func (d *jrd) profileURLs() []string {
	var primary, others []string
	for _, l := range d.Links {
		if l.Rel != relProfilePage || l.Href == "" {
			continue
		}
		if l.Type == "text/html" && len(primary) == 0 {
			primary = append(primary, l.Href)
		} else {
			others = append(others, l.Href)
		}
	}
	others = append(others, d.Aliases...)

	seen := make(map[string]bool)
	var out []string
	for _, u := range append(primary, others...) {
		if seen[u] || !strings.HasPrefix(u, "http") {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// subjectAddr returns user@host from an acct: subject
func (d *jrd) subjectAddr() string {
	if !strings.HasPrefix(d.Subject, "acct:") {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(d.Subject, "acct:"))
}

// publicKey decodes the legacy base64 key link
func (d *jrd) publicKey() string {
	href := d.link(relPublicKey)
	if href == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(href)
	if err != nil {
		return ""
	}
	return string(raw)
}
