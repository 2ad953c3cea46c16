package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingResponseBody marks an item whose record carried no response.
	ErrMissingResponseBody = errors.New("item has no response body")
	// ErrPathEscapesRoot is returned by hardened projection when a URL would
	// resolve outside of the output root.
	ErrPathEscapesRoot = errors.New("projected path escapes output root")
	// ErrArchive wraps failures reading the input archive. It halts a run.
	ErrArchive = errors.New("archive unreadable")
)

// PatternError reports a scope entry that is not a valid regular expression.
// It is only produced in pattern mode.
type PatternError struct {
	List    string // "in_scope_domains" or "out_scope_domains"
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q in %s: %v", e.Pattern, e.List, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// WriteFailure reports a per-item failure while materializing a response.
// Op is the stage that failed: "decode", "mkdir" or "write".
type WriteFailure struct {
	Op   string
	URL  string
	Path string
	Err  error
}

func (e *WriteFailure) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.URL, e.Path, e.Err)
}

func (e *WriteFailure) Unwrap() error { return e.Err }
