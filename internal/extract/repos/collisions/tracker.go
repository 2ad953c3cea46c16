// Package collisions tracks which output paths a run has already written.
//
// Projection is lossy, so distinct URLs may land on the same file. The tracker
// does not prevent that; it only lets the run summary report how often it
// happened.
package collisions

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// DefaultFPRate is the Bloom filter false-positive target used by the CLI.
const DefaultFPRate = 0.01

// Tracker records paths using a Bloom filter in front of an exact set.
// A negative filter answer is final; a positive one is confirmed against the set.
type Tracker struct {
	mu     sync.Mutex
	filter *bitsbloom.BloomFilter
	exact  map[string]struct{}
	probes uint64 // positive filter answers that needed confirmation
}

// New returns a Tracker sized for about capacity paths at false-positive rate
// fpRate. A zero capacity is treated as one and a rate outside (0, 1) as
// DefaultFPRate.
func New(capacity uint64, fpRate float64) *Tracker {
	if capacity == 0 {
		capacity = 1
	}
	if !(fpRate > 0 && fpRate < 1) {
		fpRate = DefaultFPRate
	}
	return &Tracker{
		filter: bitsbloom.NewWithEstimates(uint(capacity), fpRate),
		exact:  make(map[string]struct{}),
	}
}

// Seen records path and reports whether it had been recorded before.
func (t *Tracker) Seen(path string) bool {
	key := []byte(path)
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.filter.Test(key) {
		t.filter.Add(key)
		t.exact[path] = struct{}{}
		return false
	}
	t.probes++
	if _, ok := t.exact[path]; ok {
		return true
	}
	t.exact[path] = struct{}{}
	return false
}

// Len returns the number of distinct paths recorded.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.exact)
}

// Probes returns how many lookups needed exact confirmation.
func (t *Tracker) Probes() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.probes
}
