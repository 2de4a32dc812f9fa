// Package ticket derives ticket numbers from raw scanned codes.
package ticket

import "strings"

// DefaultPrefix is prepended to the numeric part of a scanned code.
const DefaultPrefix = "GOOGA26"

// Derive turns a code of the form "<order>:<digits>" into prefix+digits.
// ok is false when the code has no colon or the right side is not all digits.
func Derive(raw, prefix string) (string, bool) {
	_, right, found := strings.Cut(strings.TrimSpace(raw), ":")
	if !found {
		return "", false
	}
	right = strings.TrimSpace(right)
	if !digits(right) {
		return "", false
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + right, true
}

// Typed resolves an operator-typed ticket. Bare digits get the prefix, a
// scanned-style code is derived, and anything else is taken as a full ticket
// number. ok is false for blank input.
func Typed(s, prefix string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if strings.Contains(s, ":") {
		return Derive(s, prefix)
	}
	if digits(s) {
		if prefix == "" {
			prefix = DefaultPrefix
		}
		return prefix + s, true
	}
	return strings.ToUpper(s), true
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
