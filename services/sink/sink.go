package sink

import "sjsage522/propertyworker/internal/scraper"

// WriteMode controls whether a batch write truncates or appends.
type WriteMode string

const (
	// ModeWrite truncates the destination before writing.
	ModeWrite WriteMode = "write"
	// ModeAppend appends to the destination.
	ModeAppend WriteMode = "append"
)

// BatchWriter persists batches of projects incrementally. WriteBatch never
// fails past its boundary; an I/O failure is logged and reported as false.
type BatchWriter interface {
	WriteBatch(projects []scraper.Project, mode WriteMode) bool
}

// SnapshotWriter persists the full accumulated corpus once, at run end.
type SnapshotWriter interface {
	WriteSnapshot(projects []scraper.Project) error
}
