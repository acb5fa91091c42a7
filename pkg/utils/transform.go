package utils

import (
	"strings"
)

// Dedup returns the non-empty values of in, trimmed, in first-occurrence order.
func Dedup(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, e := range in {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// TrimURL strips whitespace and trailing slashes so paths can be appended.
func TrimURL(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}
