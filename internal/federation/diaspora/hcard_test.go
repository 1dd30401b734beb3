package diaspora

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHCard(t *testing.T) {
	card, err := parseHCard(strings.NewReader(testHCard(testGUID, "KEY")))
	require.NoError(t, err)

	assert.Equal(t, testGUID, card.GUID)
	assert.Equal(t, "Alice Liddell", card.Name)
	assert.Equal(t, "alice", card.Nick)
	assert.Equal(t, "KEY", card.PubKey)
	assert.Equal(t, "https://pod.example.org/uploads/large_alice.png", card.Photo)
	assert.Equal(t, "https://pod.example.org/", card.URL)
	assert.True(t, card.Searchable)
}

func TestParseHCard_Empty(t *testing.T) {
	card, err := parseHCard(strings.NewReader("<html><body><p>nothing here</p></body></html>"))
	require.NoError(t, err)
	assert.Equal(t, &hCard{}, card)
}

func TestBuildDocument_RequiresGUIDAndBase(t *testing.T) {
	finger := &jrd{
		Subject: "acct:alice@pod.example.org",
		Links: []jrdLink{
			{Rel: relProfilePage, Type: "text/html", Href: "https://pod.example.org/u/alice"},
		},
	}
	addr := Address{User: "alice", Host: "pod.example.org"}

	doc := buildDocument(addr, finger, &hCard{GUID: testGUID})
	assert.Empty(t, doc.Network, "no base url")
	assert.Empty(t, doc.Batch)

	doc = buildDocument(addr, finger, &hCard{URL: "https://pod.example.org/"})
	assert.Empty(t, doc.Network, "no guid")

	doc = buildDocument(addr, finger, &hCard{GUID: testGUID, URL: "https://pod.example.org/"})
	assert.Equal(t, "dspr", doc.Network)
	assert.Equal(t, "https://pod.example.org/receive/public", doc.Batch)
}

func TestBuildDocument_LegacyKeyLink(t *testing.T) {
	pemKey := "-----BEGIN PUBLIC KEY-----\nabc\n-----END PUBLIC KEY-----"
	finger := &jrd{
		Links: []jrdLink{
			{Rel: relPublicKey, Type: "RSA", Href: base64.StdEncoding.EncodeToString([]byte(pemKey))},
			{Rel: relSeed, Href: "https://pod.example.org/"},
		},
	}

	doc := buildDocument(Address{User: "alice", Host: "pod.example.org"}, finger, &hCard{GUID: testGUID})
	assert.Equal(t, pemKey, doc.PubKey)
	assert.Equal(t, "alice@pod.example.org", doc.Addr)
	assert.Equal(t, "alice", doc.Nick)
}
