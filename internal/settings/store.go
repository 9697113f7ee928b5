package settings

import "context"

// Store exposes string settings keyed by name. The archival subsystem reads
// the event-year override and the retention window through it.
type Store interface {
	// Get returns the value for key, or sentinel.ErrNotFound when unset.
	Get(ctx context.Context, key string) (string, error)
}

// Keys consumed by the archival subsystem.
const (
	KeyCurrentEventYear = "event.current_year"
	KeyRetentionYears   = "archive.retention_years"
)
