package fcontacts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormaliseLink(t *testing.T) {
	assert.Equal(t, "http://example.org/u/alice", NormaliseLink("https://example.org/u/alice/"))
	assert.Equal(t, "http://example.org/u/alice", NormaliseLink("http://example.org/u/alice"))
	assert.Equal(t, "alice@example.org", NormaliseLink("alice@example.org"))
}

func TestURLCandidates(t *testing.T) {
	assert.Equal(t,
		[]string{"http://example.org/u/alice", "https://example.org/u/alice"},
		urlCandidates("http://example.org/u/alice"))

	assert.Equal(t,
		[]string{"https://example.org/u/alice/", "http://example.org/u/alice"},
		urlCandidates("https://example.org/u/alice/"))

	assert.Equal(t, []string{"alice@example.org"}, urlCandidates("alice@example.org"))
}

func TestIsIncomplete(t *testing.T) {
	complete := FContact{GUID: "g", URIID: 1, Created: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	assert.False(t, complete.isIncomplete())

	legacy := complete
	legacy.Created = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, legacy.isIncomplete())

	noURI := complete
	noURI.URIID = 0
	assert.True(t, noURI.isIncomplete())
}
