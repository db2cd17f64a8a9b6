package core

import "strings"

// CleanString trims surrounding whitespace; pass lower to also fold the
// result to lower case.
func CleanString(s string, lower ...bool) string {
	trimmed := strings.TrimSpace(s)
	if len(lower) == 0 || !lower[0] {
		return trimmed
	}
	return strings.ToLower(trimmed)
}
