package scope

import (
	"strings"

	"github.com/haukened/burp2fs/internal/extract/common/log"
	"github.com/haukened/burp2fs/internal/extract/common/utils"
	"github.com/haukened/burp2fs/internal/extract/domain"
)

// FilterOptions configures a Filter.
type FilterOptions struct {
	Policy domain.ScopePolicy
	// Cache is optional. When set, scope verdicts are memoized per host.
	Cache  DecisionCache
	Logger log.Logger
}

// Filter combines the scope matcher with the extension blocklist into a single
// accept/reject verdict per URL.
type Filter struct {
	policy  domain.ScopePolicy
	matcher Matcher
	cache   DecisionCache
	logger  log.Logger
}

// NewFilter compiles the policy and returns a ready Filter. A malformed pattern
// fails here, before any item is processed.
func NewFilter(opts FilterOptions) (*Filter, error) {
	m, err := NewMatcher(opts.Policy)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Filter{policy: opts.Policy, matcher: m, cache: opts.Cache, logger: logger}, nil
}

// ShouldProcess reports whether the item at rawURL should be extracted.
//
// A URL that cannot be split is evaluated with an empty host and path rather than
// rejected outright. Extension matching is a literal suffix test against the
// lowercased path and ignores the policy's MatchMode.
func (f *Filter) ShouldProcess(rawURL string) bool {
	host, path := utils.SplitURL(rawURL)
	if !f.inScope(host) {
		f.logger.Debug(map[string]any{"url": rawURL, "host": host}, "out_of_scope")
		return false
	}
	if ext, ok := UnwantedExtension(strings.ToLower(path), f.policy.UnwantedExtensions); ok {
		f.logger.Debug(map[string]any{"url": rawURL, "extension": ext}, "unwanted_extension")
		return false
	}
	return true
}

// inScope consults the cache before the matcher.
func (f *Filter) inScope(host string) bool {
	if f.cache != nil {
		if v, ok := f.cache.Get(host); ok {
			return v
		}
	}
	v := f.matcher.InScope(host)
	if f.cache != nil {
		f.cache.Put(host, v)
	}
	return v
}

// ShouldProcess is the one-shot form of NewFilter(...).ShouldProcess(rawURL).
func ShouldProcess(rawURL string, policy domain.ScopePolicy) (bool, error) {
	f, err := NewFilter(FilterOptions{Policy: policy})
	if err != nil {
		return false, err
	}
	return f.ShouldProcess(rawURL), nil
}

// UnwantedExtension returns the first extension that path ends with.
// Extensions are compared exactly as given.
func UnwantedExtension(path string, extensions []string) (string, bool) {
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return ext, true
		}
	}
	return "", false
}
