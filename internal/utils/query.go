// Package utils holds small query-string helpers shared by the HTTP layer.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as a base-10 int, returning def when s is blank or
// malformed. Surrounding whitespace is ignored.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Offset parses a transcript offset such as ?since=12. Blank, malformed and
// negative values all mean the start of the transcript.
func Offset(s string) int {
	if n := AtoiDefault(s, 0); n > 0 {
		return n
	}
	return 0
}
