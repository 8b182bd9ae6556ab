// Package fold provides case-insensitive string keys shared by sorting,
// facet ordering and substring matching.
package fold

import (
	"strings"

	"golang.org/x/text/cases"
)

// A Caser may keep state between calls; callers stay on one goroutine.
var folder = cases.Fold()

// String returns the Unicode case-folded form of s.
func String(s string) string {
	return folder.String(s)
}

// Compare orders a and b ignoring case.
func Compare(a, b string) int {
	return strings.Compare(String(a), String(b))
}

// Contains reports whether sub occurs in s ignoring case.
func Contains(s, sub string) bool {
	return strings.Contains(String(s), String(sub))
}
