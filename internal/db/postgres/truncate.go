package postgres

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Column limits of the VARCHAR columns written by the repositories
const (
	varcharDefault = 255
	networkLimit   = 4
)

// truncate cuts s to at most limit characters (Postgres VARCHAR counts code
// points) without splitting a grapheme cluster
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := 0
	end := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		n := len(g.Runes())
		if runes+n > limit {
			break
		}
		runes += n
		_, end = g.Positions()
	}
	return s[:end]
}
