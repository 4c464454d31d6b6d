package admin

import "time"

// Orphan describes a blob with no corresponding live catalog record
type Orphan struct {
	Backend  string    `json:"backend"`
	Key      string    `json:"key"`
	Size     int64     `json:"size,omitempty"`
	StoredAt time.Time `json:"stored_at,omitempty"`
}

// FindOrphansRequest scopes an orphan scan. An empty Backend scans every
// registered backend.
type FindOrphansRequest struct {
	Backend string
}

// FindOrphansResponse lists the orphans found by a scan
type FindOrphansResponse struct {
	Orphans   []Orphan  `json:"orphans"`
	CheckedAt time.Time `json:"checked_at"`
}

// SweepOrphansRequest scopes a destructive sweep. GracePeriod defaults to
// DefaultGracePeriod when zero; DryRun reports what would be removed
// without deleting anything.
type SweepOrphansRequest struct {
	Backend     string
	GracePeriod time.Duration
	DryRun      bool
}

// SweepOrphansResponse reports the outcome of a sweep
type SweepOrphansResponse struct {
	Removed []Orphan `json:"removed"`
	Skipped []Orphan `json:"skipped"`
	Failed  []Orphan `json:"failed"`
	DryRun  bool     `json:"dry_run"`
}

// DefaultGracePeriod is how old an orphan must be before a sweep will
// delete it
const DefaultGracePeriod = time.Hour
