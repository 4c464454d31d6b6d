package objectkey_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphastore/apkstore/pkg/apkstore/objectkey"
)

func TestTimestampGeneratorKeyShape(t *testing.T) {
	g := objectkey.NewTimestampGenerator()
	at := time.UnixMilli(1700000000123)

	key := g.GenerateKey("app-release.apk", at)

	parts := strings.SplitN(key, "-", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, fmt.Sprintf("%d", at.UnixMilli()), parts[0])
	assert.Len(t, parts[1], 8) // 4 random bytes as hex
	assert.Equal(t, "app-release.apk", parts[2])
}

func TestTimestampGeneratorUniqueWithinMillisecond(t *testing.T) {
	g := objectkey.NewTimestampGenerator()
	at := time.UnixMilli(1700000000123)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := g.GenerateKey("same.apk", at)
		assert.False(t, seen[key], "duplicate key %q", key)
		seen[key] = true
	}
}

func TestTimestampGeneratorEmptyFilename(t *testing.T) {
	g := objectkey.NewTimestampGenerator()
	key := g.GenerateKey("", time.UnixMilli(42))

	assert.True(t, strings.HasPrefix(key, "42-"))
	assert.Equal(t, 2, strings.Count(key, "-")+1, "key %q should have no filename segment", key)
}

func TestCustomFuncGenerator(t *testing.T) {
	g := objectkey.NewCustomFuncGenerator(func(filename string, at time.Time) string {
		return "fixed/" + filename
	})

	assert.Equal(t, "fixed/a.apk", g.GenerateKey("a.apk", time.Now()))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"app release.apk", "app_release.apk"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\app.apk`, "app.apk"},
		{"we?ird*na|me.apk", "we_ird_na_me.apk"},
		{"clean.apk", "clean.apk"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, objectkey.SanitizeFilename(tt.input), "input %q", tt.input)
	}
}
