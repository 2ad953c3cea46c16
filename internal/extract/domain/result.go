package domain

import (
	"fmt"

	"go.uber.org/multierr"
)

// Outcome classifies what happened to a single item.
type Outcome uint8

const (
	OutcomeWritten Outcome = iota
	OutcomeSkippedScope
	OutcomeSkippedContent
	OutcomeSkippedNoBody
	OutcomeFailed
)

// String returns a stable string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeWritten:
		return "written"
	case OutcomeSkippedScope:
		return "skipped-scope"
	case OutcomeSkippedContent:
		return "skipped-content"
	case OutcomeSkippedNoBody:
		return "skipped-nobody"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", o)
	}
}

// ItemResult is the per-item result of an extraction run.
type ItemResult struct {
	Index     int
	URL       string
	Path      string // set for written and failed-after-projection items
	Domain    string // registrable domain of the URL host, for reporting
	Bytes     int64
	Outcome   Outcome
	Overwrote bool  // another item of this run already wrote Path
	Err       error // *WriteFailure when Outcome is OutcomeFailed
}

// RunSummary aggregates the results of a run.
type RunSummary struct {
	Results      []ItemResult
	BytesWritten int64
	Overwrites   int
	Domains      map[string]int // written files per registrable domain
	counts       map[Outcome]int
}

// NewRunSummary returns an empty summary ready for Add.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		Domains: make(map[string]int),
		counts:  make(map[Outcome]int),
	}
}

// Add appends a result and updates the counters.
func (s *RunSummary) Add(r ItemResult) {
	if s.counts == nil {
		s.counts = make(map[Outcome]int)
	}
	if s.Domains == nil {
		s.Domains = make(map[string]int)
	}
	s.Results = append(s.Results, r)
	s.counts[r.Outcome]++
	if r.Outcome != OutcomeWritten {
		return
	}
	s.BytesWritten += r.Bytes
	s.Domains[r.Domain]++
	if r.Overwrote {
		s.Overwrites++
	}
}

// Count returns how many items ended with outcome o.
func (s *RunSummary) Count(o Outcome) int { return s.counts[o] }

// Total returns the number of items seen.
func (s *RunSummary) Total() int { return len(s.Results) }

// Err combines every per-item failure into one error, or nil when no item failed.
func (s *RunSummary) Err() error {
	var err error
	for _, r := range s.Results {
		if r.Outcome == OutcomeFailed {
			err = multierr.Append(err, r.Err)
		}
	}
	return err
}
