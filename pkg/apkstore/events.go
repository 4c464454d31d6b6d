package apkstore

import (
	"context"
	"log/slog"
)

// NoopEventSink is an EventSink that does nothing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-op event sink
func NewNoopEventSink() *NoopEventSink {
	return &NoopEventSink{}
}

func (s *NoopEventSink) ApkIngested(ctx context.Context, apk *Apk) error { return nil }

func (s *NoopEventSink) ApkRetired(ctx context.Context, apk *Apk) error { return nil }

func (s *NoopEventSink) RetirementIncomplete(ctx context.Context, apk *Apk, failedKeys []string) error {
	return nil
}

// LogEventSink is an EventSink that records lifecycle events to a
// structured logger
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink creates an event sink backed by the given logger. A nil
// logger falls back to slog.Default.
func NewLogEventSink(logger *slog.Logger) *LogEventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (s *LogEventSink) ApkIngested(ctx context.Context, apk *Apk) error {
	s.logger.InfoContext(ctx, "apk ingested",
		"slug", apk.Slug,
		"backend", apk.StorageBackend,
		"artifact_key", apk.ArtifactKey,
		"preview_key", apk.PreviewKey,
		"size", apk.ArtifactSize)
	return nil
}

func (s *LogEventSink) ApkRetired(ctx context.Context, apk *Apk) error {
	s.logger.InfoContext(ctx, "apk retired", "slug", apk.Slug, "id", apk.ID)
	return nil
}

func (s *LogEventSink) RetirementIncomplete(ctx context.Context, apk *Apk, failedKeys []string) error {
	s.logger.WarnContext(ctx, "apk retirement incomplete",
		"slug", apk.Slug,
		"failed_keys", failedKeys)
	return nil
}
