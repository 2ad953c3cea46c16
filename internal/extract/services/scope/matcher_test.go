package scope

import (
	"errors"
	"regexp/syntax"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/burp2fs/internal/extract/domain"
)

func literal(in, out []string) domain.ScopePolicy {
	return domain.NewScopePolicy(in, out, nil, domain.MatchLiteral)
}

func pattern(in, out []string) domain.ScopePolicy {
	return domain.NewScopePolicy(in, out, nil, domain.MatchPattern)
}

func TestIsInScope_Literal(t *testing.T) {
	tests := []struct {
		name   string
		policy domain.ScopePolicy
		domain string
		want   bool
	}{
		{"no lists accepts everything", literal(nil, nil), "anything.test", true},
		{"no lists accepts empty domain", literal(nil, nil), "", true},
		{"empty inclusion, exact exclusion", literal(nil, []string{"ads.example.com"}), "ads.example.com", false},
		{"empty inclusion, exclusion is not suffix based", literal(nil, []string{"example.com"}), "api.example.com", true},
		{"empty inclusion, other domain", literal(nil, []string{"example.com"}), "example.org", true},
		{"empty domain excluded literally", literal(nil, []string{""}), "", false},
		{"exact inclusion", literal([]string{"example.com"}, nil), "example.com", true},
		{"subdomain inclusion", literal([]string{"example.com"}, nil), "api.example.com", true},
		{"deep subdomain inclusion", literal([]string{"example.com"}, nil), "a.b.c.example.com", true},
		{"lookalike is not a subdomain", literal([]string{"example.com"}, nil), "notexample.com", false},
		{"unrelated domain", literal([]string{"example.com"}, nil), "example.org", false},
		{"parent of entry not included", literal([]string{"api.example.com"}, nil), "example.com", false},
		{"case preserved", literal([]string{"example.com"}, nil), "API.EXAMPLE.COM", false},
		{"port is part of the domain", literal([]string{"example.com"}, nil), "example.com:8443", false},
		{"exclusion beats inclusion", literal([]string{"example.com"}, []string{"ads.example.com"}), "ads.example.com", false},
		{"exclusion exact only with inclusion", literal([]string{"example.com"}, []string{"ads.example.com"}), "x.ads.example.com", true},
		{"same entry in both lists", literal([]string{"example.com"}, []string{"example.com"}), "example.com", false},
		{"empty domain with inclusions", literal([]string{"example.com"}, nil), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsInScope(tt.domain, tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "IsInScope(%q)", tt.domain)
		})
	}
}

func TestIsInScope_Pattern(t *testing.T) {
	tests := []struct {
		name   string
		policy domain.ScopePolicy
		domain string
		want   bool
	}{
		{"no lists accepts everything", pattern(nil, nil), "x.test", true},
		{"empty inclusion, exclusion search", pattern(nil, []string{`ads\.`}), "ads.example.com", false},
		{"empty inclusion, exclusion matches anywhere", pattern(nil, []string{`cdn`}), "static.cdn.example.com", false},
		{"empty inclusion, no match", pattern(nil, []string{`^ads\.`}), "www.example.com", true},
		{"inclusion search", pattern([]string{`example\.(com|org)$`}, nil), "api.example.org", true},
		{"inclusion miss", pattern([]string{`example\.com$`}, nil), "example.com.evil.test", false},
		{"unanchored inclusion matches substring", pattern([]string{`example`}, nil), "notexample.net", true},
		{"exclusion beats inclusion", pattern([]string{`example\.com`}, []string{`^ads\.`}), "ads.example.com", false},
		{"case sensitive", pattern([]string{`^example\.com$`}, nil), "EXAMPLE.COM", false},
		{"inline case folding", pattern([]string{`(?i)^example\.com$`}, nil), "EXAMPLE.COM", true},
		{"empty pattern matches everything", pattern([]string{""}, nil), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsInScope(tt.domain, tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "IsInScope(%q)", tt.domain)
		})
	}
}

func TestIsInScope_LiteralEmptyInclusionProperty(t *testing.T) {
	out := []string{"a.test", "b.test", ""}
	policy := literal(nil, out)
	candidates := []string{"a.test", "x.a.test", "b.test", "c.test", "", "A.TEST"}
	for _, d := range candidates {
		excluded := false
		for _, o := range out {
			if d == o {
				excluded = true
			}
		}
		got, err := IsInScope(d, policy)
		require.NoError(t, err)
		assert.Equal(t, !excluded, got, "domain %q", d)
	}
}

func TestIsInScope_InvalidPattern(t *testing.T) {
	tests := []struct {
		name     string
		policy   domain.ScopePolicy
		wantList string
	}{
		{"invalid exclusion", pattern(nil, []string{`ok`, `(`}), listOutScope},
		{"invalid exclusion with inclusions", pattern([]string{`example`}, []string{`[a-`}), listOutScope},
		{"invalid inclusion", pattern([]string{`*.example.com`}, nil), listInScope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsInScope("example.com", tt.policy)
			require.Error(t, err)
			assert.False(t, got)

			var pe *domain.PatternError
			require.True(t, errors.As(err, &pe), "expected *domain.PatternError, got %T", err)
			assert.Equal(t, tt.wantList, pe.List)

			var se *syntax.Error
			assert.True(t, errors.As(err, &se), "expected wrapped *syntax.Error")
		})
	}
}

func TestIsInScope_InvalidPatternIgnoredInLiteralMode(t *testing.T) {
	got, err := IsInScope("example.com", literal([]string{"("}, []string{"["}))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestNewMatcher_Variants(t *testing.T) {
	m, err := NewMatcher(literal(nil, nil))
	require.NoError(t, err)
	assert.IsType(t, &literalMatcher{}, m)

	m, err = NewMatcher(pattern(nil, nil))
	require.NoError(t, err)
	assert.IsType(t, &patternMatcher{}, m)
}
