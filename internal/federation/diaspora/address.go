package diaspora

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// Address is a parsed Diaspora handle
type Address struct {
	// User is the local part; empty for URL handles that carry only a guid
	User string
	// Host is the pod host, lower-cased, including a port if one was given
	Host string
	// Resource is what the pod's webfinger endpoint is asked about
	Resource string
	// ProfileURL is set when the handle was a URL
	ProfileURL string
}

// Addr returns user@host, or an empty string when the user is unknown
func (a Address) Addr() string {
	if a.User == "" {
		return ""
	}
	return a.User + "@" + a.Host
}

// ParseAddress accepts user@host, acct:user@host and profile URLs
// (https://host/u/user, https://host/people/<guid>)
func ParseAddress(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Address{}, fmt.Errorf("%w: empty handle", ErrInvalidAddress)
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return parseProfileURL(raw)
	}

	raw = strings.TrimPrefix(raw, "acct:")
	user, host, ok := strings.Cut(raw, "@")
	if !ok || user == "" || strings.ContainsAny(user, "/: ") {
		return Address{}, fmt.Errorf("%w: %q is not user@host", ErrInvalidAddress, raw)
	}

	host, err := normalizeHost(host)
	if err != nil {
		return Address{}, err
	}

	user = strings.ToLower(user)
	return Address{
		User:     user,
		Host:     host,
		Resource: "acct:" + user + "@" + host,
	}, nil
}

func parseProfileURL(raw string) (Address, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	host, err := normalizeHost(u.Host)
	if err != nil {
		return Address{}, err
	}

	addr := Address{
		Host:       host,
		Resource:   raw,
		ProfileURL: raw,
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 2 && (segments[0] == "u" || segments[0] == "profile") {
		addr.User = strings.ToLower(segments[1])
	}

	return addr, nil
}

// normalizeHost validates the host name with DNS-name rules and lower-cases it
func normalizeHost(host string) (string, error) {
	name, port := host, ""
	if i := strings.LastIndex(host, ":"); i >= 0 {
		name, port = host[:i], host[i+1:]
		if port == "" || strings.Trim(port, "0123456789") != "" {
			return "", fmt.Errorf("%w: bad port in %q", ErrInvalidAddress, host)
		}
	}

	h, err := syntax.ParseHandle(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	normalized := h.Normalize().String()
	if port != "" {
		normalized += ":" + port
	}
	return normalized, nil
}
