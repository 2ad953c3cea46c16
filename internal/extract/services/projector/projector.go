// Package projector maps URLs onto a directory tree below an output root.
//
// The mapping is deterministic and lossy: the host becomes the first directory,
// every path segment but the last becomes a nested directory, and the last
// segment plus ".txt" becomes the file name. Query strings and fragments are not
// part of the mapping, so URLs differing only in those overwrite each other.
package projector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haukened/burp2fs/internal/extract/common/utils"
	"github.com/haukened/burp2fs/internal/extract/domain"
)

const (
	// IndexFilename is used when the URL has no final path segment.
	IndexFilename = "index.txt"
	// FileSuffix is appended to the final path segment.
	FileSuffix = ".txt"

	dirPerm = 0o755
)

// Projector computes and materializes projected paths.
//
// With Harden unset, path segments are used verbatim, including ".." and "."
// segments, matching the historical output layout. With Harden set, a
// projection whose directory resolves outside the output root is rejected with
// domain.ErrPathEscapesRoot.
type Projector struct {
	Harden bool
}

// New returns a Projector.
func New(harden bool) *Projector {
	return &Projector{Harden: harden}
}

// Project maps rawURL to its location under outputRoot. It performs no I/O.
func (p *Projector) Project(outputRoot, rawURL string) domain.ProjectedPath {
	host, path := utils.SplitURL(rawURL)
	segments := splitSegments(path)

	chain := make([]string, 0, len(segments)+1)
	chain = append(chain, host)

	filename := IndexFilename
	if n := len(segments); n > 0 {
		chain = append(chain, segments[:n-1]...)
		if last := segments[n-1]; last != "" {
			filename = last + FileSuffix
		}
	}

	return domain.ProjectedPath{
		Root:           outputRoot,
		DirectoryChain: chain,
		Filename:       filename,
	}
}

// EnsureDirectories creates every directory level of rawURL's projection and
// returns the innermost directory. Existing directories are not an error, so the
// call is idempotent.
func (p *Projector) EnsureDirectories(outputRoot, rawURL string) (string, error) {
	proj := p.Project(outputRoot, rawURL)
	dir := proj.Dir()
	if p.Harden {
		if err := checkContained(outputRoot, dir); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", err
	}
	return dir, nil
}

// Project is the package-level form of (&Projector{}).Project.
func Project(outputRoot, rawURL string) domain.ProjectedPath {
	return (&Projector{}).Project(outputRoot, rawURL)
}

// EnsureDirectories is the package-level form of (&Projector{}).EnsureDirectories.
func EnsureDirectories(outputRoot, rawURL string) (string, error) {
	return (&Projector{}).EnsureDirectories(outputRoot, rawURL)
}

// splitSegments trims separators from both ends of path and splits it.
// An empty path yields no segments; interior empty segments are kept so the
// final segment stays aligned with the URL.
func splitSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// checkContained verifies dir resolves to outputRoot or a descendant of it.
func checkContained(outputRoot, dir string) error {
	rel, err := filepath.Rel(filepath.Clean(outputRoot), dir)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPathEscapesRoot, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", domain.ErrPathEscapesRoot, dir)
	}
	return nil
}
