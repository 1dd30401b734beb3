package diaspora

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     Address
		wantAddr string
	}{
		{
			name:     "handle",
			input:    "alice@pod.example.org",
			want:     Address{User: "alice", Host: "pod.example.org", Resource: "acct:alice@pod.example.org"},
			wantAddr: "alice@pod.example.org",
		},
		{
			name:     "acct prefix and mixed case",
			input:    "acct:Alice@Pod.Example.ORG",
			want:     Address{User: "alice", Host: "pod.example.org", Resource: "acct:alice@pod.example.org"},
			wantAddr: "alice@pod.example.org",
		},
		{
			name:     "host with port",
			input:    "alice@pod.example.org:8443",
			want:     Address{User: "alice", Host: "pod.example.org:8443", Resource: "acct:alice@pod.example.org:8443"},
			wantAddr: "alice@pod.example.org:8443",
		},
		{
			name:  "profile url",
			input: "https://pod.example.org/u/alice",
			want: Address{
				User:       "alice",
				Host:       "pod.example.org",
				Resource:   "https://pod.example.org/u/alice",
				ProfileURL: "https://pod.example.org/u/alice",
			},
			wantAddr: "alice@pod.example.org",
		},
		{
			name:  "people url",
			input: "http://pod.example.org/people/abc123",
			want: Address{
				Host:       "pod.example.org",
				Resource:   "http://pod.example.org/people/abc123",
				ProfileURL: "http://pod.example.org/people/abc123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantAddr, got.Addr())
		})
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"alice",
		"@pod.example.org",
		"alice@",
		"alice@localhost",
		"alice@pod..example.org",
		"alice@pod.example.org:",
		"alice@pod.example.org:https",
		"https://",
		"ali/ce@pod.example.org",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseAddress(input)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}
