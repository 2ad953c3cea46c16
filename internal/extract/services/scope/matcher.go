package scope

import (
	"regexp"
	"strings"

	"github.com/haukened/burp2fs/internal/extract/domain"
)

const (
	listInScope  = "in_scope_domains"
	listOutScope = "out_scope_domains"
)

// NewMatcher compiles a Matcher for the policy's MatchMode.
// In pattern mode every entry of both lists is compiled up front; the first
// invalid entry is reported as a *domain.PatternError.
func NewMatcher(policy domain.ScopePolicy) (Matcher, error) {
	switch policy.Mode {
	case domain.MatchPattern:
		return newPatternMatcher(policy)
	default:
		return newLiteralMatcher(policy), nil
	}
}

// IsInScope is the one-shot form of NewMatcher(policy).InScope(name).
func IsInScope(name string, policy domain.ScopePolicy) (bool, error) {
	m, err := NewMatcher(policy)
	if err != nil {
		return false, err
	}
	return m.InScope(name), nil
}

// literalMatcher compares domains as plain strings.
//
// Exclusion is exact equality only. Inclusion accepts an exact match or any
// subdomain of an entry ("api.example.com" is covered by "example.com"). With no
// inclusion entries every domain that is not excluded is in scope.
type literalMatcher struct {
	exclude map[string]struct{}
	include map[string]struct{}
}

func newLiteralMatcher(policy domain.ScopePolicy) *literalMatcher {
	m := &literalMatcher{
		exclude: make(map[string]struct{}, len(policy.OutScopeDomains)),
		include: make(map[string]struct{}, len(policy.InScopeDomains)),
	}
	for _, d := range policy.OutScopeDomains {
		m.exclude[d] = struct{}{}
	}
	for _, d := range policy.InScopeDomains {
		m.include[d] = struct{}{}
	}
	return m
}

func (m *literalMatcher) InScope(name string) bool {
	if _, excluded := m.exclude[name]; excluded {
		return false
	}
	if len(m.include) == 0 {
		return true
	}
	if _, ok := m.include[name]; ok {
		return true
	}
	// walk the parent labels: "a.b.example.com" -> "b.example.com" -> "example.com" -> "com"
	for rest := name; ; {
		i := strings.IndexByte(rest, '.')
		if i < 0 {
			return false
		}
		rest = rest[i+1:]
		if _, ok := m.include[rest]; ok {
			return true
		}
	}
}

// patternMatcher treats entries as regular expressions that may match anywhere
// in the domain (unanchored search).
type patternMatcher struct {
	exclude []*regexp.Regexp
	include []*regexp.Regexp
}

func newPatternMatcher(policy domain.ScopePolicy) (*patternMatcher, error) {
	exclude, err := compileAll(listOutScope, policy.OutScopeDomains)
	if err != nil {
		return nil, err
	}
	include, err := compileAll(listInScope, policy.InScopeDomains)
	if err != nil {
		return nil, err
	}
	return &patternMatcher{exclude: exclude, include: include}, nil
}

func (m *patternMatcher) InScope(name string) bool {
	if anyMatch(m.exclude, name) {
		return false
	}
	if len(m.include) == 0 {
		return true
	}
	return anyMatch(m.include, name)
}

func compileAll(list string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &domain.PatternError{List: list, Pattern: p, Err: err}
		}
		out = append(out, re)
	}
	return out, nil
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

var (
	_ Matcher = (*literalMatcher)(nil)
	_ Matcher = (*patternMatcher)(nil)
)
