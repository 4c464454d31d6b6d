// Package objectkey provides storage key generation strategies for uploaded
// blobs. Keys must be unique at the backend level independent of catalog
// state, so two concurrent uploads of the same file never overwrite each
// other.
package objectkey

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"
)

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates a storage key for a blob uploaded at the given time
	GenerateKey(filename string, at time.Time) string
}

// TimestampGenerator keys blobs as <unix-millis>-<random>-<filename>.
// Millisecond timestamps alone can collide under rapid concurrent uploads,
// so a random component is always included.
type TimestampGenerator struct {
	// RandBytes controls the length of the random component (default: 4,
	// rendered as 8 hex characters).
	RandBytes int
}

// NewTimestampGenerator returns the recommended generator.
func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{RandBytes: 4}
}

func (g *TimestampGenerator) GenerateKey(filename string, at time.Time) string {
	n := g.RandBytes
	if n <= 0 {
		n = 4
	}
	buf := make([]byte, n)
	// crypto/rand never fails on supported platforms; a zeroed suffix still
	// leaves the millisecond timestamp to separate keys.
	_, _ = rand.Read(buf)
	suffix := hex.EncodeToString(buf)

	if filename == "" {
		return fmt.Sprintf("%d-%s", at.UnixMilli(), suffix)
	}
	return fmt.Sprintf("%d-%s-%s", at.UnixMilli(), suffix, SanitizeFilename(filename))
}

// CustomFuncGenerator allows callers to provide their own key generation
// function, which is mostly useful for deterministic keys in tests.
type CustomFuncGenerator struct {
	GenerateFunc func(filename string, at time.Time) string
}

func NewCustomFuncGenerator(fn func(filename string, at time.Time) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{GenerateFunc: fn}
}

func (g *CustomFuncGenerator) GenerateKey(filename string, at time.Time) string {
	return g.GenerateFunc(filename, at)
}

// SanitizeFilename strips any directory components and replaces characters
// that are problematic for filesystem or object-store keys.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	replacer := strings.NewReplacer(
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(base)
}
