// Package scopelist reads newline-delimited scope list files.
package scopelist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	logpkg "github.com/haukened/burp2fs/internal/extract/common/log"
)

// ParsePlainList parses a newline-delimited list of scope entries.
//
// Behavior:
//   - Whole-line comments start with '#'; inline comments start at " #"
//     (whitespace then '#'), so a '#' inside a pattern is kept.
//   - Surrounding whitespace and a leading BOM are trimmed.
//   - Entries are otherwise kept verbatim: no case folding, no trailing-dot
//     removal, since they may be regular expressions.
//   - Duplicates are dropped, preserving first-seen order.
func ParsePlainList(r io.Reader, source string, logger logpkg.Logger) ([]string, error) {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	out := make([]string, 0, 64)
	logger.Debug(map[string]any{"source": source}, "parse_scope_list_start")
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\uFEFF")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			logger.Debug(map[string]any{"line": lineNum}, "skip_comment")
			continue
		}
		entry := stripInlineComment(trimmed)
		if entry == "" {
			continue
		}
		if _, ok := seen[entry]; ok {
			logger.Debug(map[string]any{"line": lineNum, "entry": entry}, "skip_duplicate")
			continue
		}
		seen[entry] = struct{}{}
		out = append(out, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read scope list %s: %w", source, err)
	}
	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_scope_list_done")
	return out, nil
}

// LoadFile opens path and parses it with ParsePlainList.
func LoadFile(path string, logger logpkg.Logger) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scope list: %w", err)
	}
	defer f.Close()
	return ParsePlainList(f, path, logger)
}

// stripInlineComment cuts s at the first '#' that follows whitespace.
func stripInlineComment(s string) string {
	for i := 1; i < len(s); i++ {
		if s[i] == '#' && (s[i-1] == ' ' || s[i-1] == '\t') {
			return strings.TrimSpace(s[:i])
		}
	}
	return s
}
