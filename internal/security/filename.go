// Package security holds input hardening helpers for names that end up
// on the filesystem.
package security

import "strings"

const maxFilenameLen = 128

// SanitizeFilename maps an arbitrary identifier (a source name, a stroke
// name) to a safe file name component. Runs of characters outside
// [A-Za-z0-9._-] become a single underscore, leading and trailing dots and
// underscores are trimmed, and the result is capped in length. An empty
// result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			r == '.' || r == '_' || r == '-'
		if !ok {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte('_')
		}
		pending = false
		b.WriteRune(r)
		if b.Len() >= maxFilenameLen {
			break
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
