package util

import "strings"

// CleanText collapses whitespace (including the non-breaking spaces
// the rendered tables are full of) into single spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
