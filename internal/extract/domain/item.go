package domain

import (
	"path/filepath"
	"time"
)

// CapturedItem is one recorded HTTP transaction read from an archive.
// It is consumed once by the extractor and then discarded.
type CapturedItem struct {
	Index     int    // 1-based position in the archive
	URL       string // may be malformed
	Body      []byte // decoded response bytes
	HasBody   bool   // false when the record had no response element
	DecodeErr error  // set when the response could not be decoded
	MIMEType  string // archive-declared content category, if any
	Status    string // archive-declared HTTP status, if any
}

// ProjectedPath is the filesystem location a URL maps to under Root.
type ProjectedPath struct {
	Root           string
	DirectoryChain []string // host first, then every path segment except the last
	Filename       string
}

// Dir returns the directory the file is written into.
func (p ProjectedPath) Dir() string {
	parts := make([]string, 0, len(p.DirectoryChain)+1)
	parts = append(parts, p.Root)
	parts = append(parts, p.DirectoryChain...)
	return filepath.Join(parts...)
}

// Path returns the full file path.
func (p ProjectedPath) Path() string {
	return filepath.Join(p.Dir(), p.Filename)
}

// ManifestEntry records where a URL was written. Projections are lossy, so the
// manifest is the only way back from a file to the URL(s) that produced it.
type ManifestEntry struct {
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	Bytes     int64     `json:"bytes"`
	Index     int       `json:"index"`
	Run       uint64    `json:"run"`
	WrittenAt time.Time `json:"written_at"`
}
