// Package sizes turns free-text tire sizes into digit-only keys.
package sizes

import "strings"

// Normalize strips every non-digit: "245/45R18 98W" -> "245451898".
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Contains reports whether the normalized size embeds the normalized query.
// Containment, not equality: sheet sizes often carry load/speed digits
// around the canonical width/ratio/rim block.
func Contains(size, query string) bool {
	return strings.Contains(Normalize(size), Normalize(query))
}
