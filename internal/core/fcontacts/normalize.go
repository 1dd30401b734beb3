package fcontacts

import "strings"

// NormaliseLink returns the comparison form of a link: http scheme and no
// trailing slash. Stored URLs of legacy rows use this form.
func NormaliseLink(link string) string {
	return strings.TrimRight(strings.Replace(link, "https:", "http:", 1), "/")
}

// urlCandidates lists the url forms a handle may be stored under, in lookup
// order, without duplicates
func urlCandidates(handle string) []string {
	forms := []string{
		handle,
		strings.Replace(handle, "http://", "https://", 1),
		NormaliseLink(handle),
	}

	candidates := make([]string, 0, len(forms))
	seen := make(map[string]struct{}, len(forms))
	for _, f := range forms {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		candidates = append(candidates, f)
	}
	return candidates
}
