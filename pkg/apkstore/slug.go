package apkstore

import (
	"fmt"
	"strings"
	"time"
)

// MakeSlug derives a URL-safe identifier from a display name: lowercase,
// every run of characters outside [a-z0-9] collapsed to a single hyphen,
// leading and trailing hyphens trimmed, and the submission time in Unix
// milliseconds appended.
//
// The timestamp suffix makes collisions between two uploads of the same
// name a per-millisecond event without a catalog round-trip; checking the
// catalog first would be a check-then-act race between concurrent
// ingestions. The catalog's unique constraint on slug remains the backstop.
func MakeSlug(name string, at time.Time) (string, error) {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingSep = false
		default:
			pendingSep = true
		}
	}

	base := b.String()
	if base == "" {
		return "", ErrInvalidName
	}

	return fmt.Sprintf("%s-%d", base, at.UnixMilli()), nil
}
