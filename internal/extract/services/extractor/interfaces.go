package extractor

import (
	"time"

	"github.com/haukened/burp2fs/internal/extract/domain"
)

// ItemSource yields captured items in archive order. Next returns io.EOF after
// the last item; any other error halts the run.
type ItemSource interface {
	Next() (domain.CapturedItem, error)
}

// ScopeFilter decides whether an item's URL is extracted at all.
type ScopeFilter interface {
	ShouldProcess(rawURL string) bool
}

// PathProjector maps URLs to files and creates their directories.
type PathProjector interface {
	Project(outputRoot, rawURL string) domain.ProjectedPath
	EnsureDirectories(outputRoot, rawURL string) (string, error)
}

// ContentFilter rejects items by content type after decoding.
type ContentFilter interface {
	Unwanted(item domain.CapturedItem) (contentType string, unwanted bool)
}

// Manifest records written files. Optional.
type Manifest interface {
	BeginRun(at time.Time) (uint64, error)
	Record(e domain.ManifestEntry) error
}

// CollisionTracker reports whether a path was already written in this run. Optional.
type CollisionTracker interface {
	Seen(path string) bool
}
