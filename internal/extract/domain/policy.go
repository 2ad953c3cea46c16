package domain

import (
	"fmt"
	"strings"
)

// MatchMode defines how scope entries are compared against a domain.
//
// literal - entries are domain names, compared by equality (and, for the
// inclusion list, by subdomain suffix)
// pattern - entries are regular expressions searched anywhere in the domain
type MatchMode uint8

const (
	// MatchLiteral compares scope entries as plain domain names.
	MatchLiteral MatchMode = iota
	// MatchPattern interprets scope entries as regular expressions.
	MatchPattern
)

// String returns a stable string representation of the mode.
func (m MatchMode) String() string {
	switch m {
	case MatchLiteral:
		return "literal"
	case MatchPattern:
		return "pattern"
	default:
		return fmt.Sprintf("MatchMode(%d)", m)
	}
}

// ParseMatchMode converts a string into a MatchMode.
// Accepts: "literal", "pattern", "regex" (case-insensitive).
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "literal":
		return MatchLiteral, nil
	case "pattern", "regex":
		return MatchPattern, nil
	default:
		return 0, fmt.Errorf("unsupported MatchMode: %q", s)
	}
}

// MatchModeFromRegex maps the persisted use_regex flag onto a MatchMode.
func MatchModeFromRegex(useRegex bool) MatchMode {
	if useRegex {
		return MatchPattern
	}
	return MatchLiteral
}

// ScopePolicy is the resolved, per-run extraction policy.
//
// Notes:
//   - The three lists are sets; order carries no meaning and duplicates are dropped.
//   - In-scope and out-of-scope entries may overlap; exclusion always wins.
//   - Values are taken verbatim. No case folding or trailing-dot trimming is applied.
type ScopePolicy struct {
	InScopeDomains     []string
	OutScopeDomains    []string
	UnwantedExtensions []string
	Mode               MatchMode
}

// NewScopePolicy builds a ScopePolicy from raw lists, copying and de-duplicating them
// so later changes to the caller's slices cannot leak into a running extraction.
func NewScopePolicy(in, out, extensions []string, mode MatchMode) ScopePolicy {
	return ScopePolicy{
		InScopeDomains:     uniqueStrings(in),
		OutScopeDomains:    uniqueStrings(out),
		UnwantedExtensions: uniqueStrings(extensions),
		Mode:               mode,
	}
}

// HasInclusions reports whether an explicit inclusion list is configured.
func (p ScopePolicy) HasInclusions() bool { return len(p.InScopeDomains) > 0 }

// uniqueStrings returns a copy of in with duplicates removed, preserving first-seen order.
func uniqueStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
