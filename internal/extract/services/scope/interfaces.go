package scope

// DecisionCache caches scope verdicts by network location.
// Only verdicts are cached; pattern errors surface when the matcher is built.
type DecisionCache interface {
	Get(host string) (inScope bool, ok bool)
	Put(host string, inScope bool)
	Len() int
	Purge()
}

// Matcher decides whether a domain is in scope under a fixed policy.
type Matcher interface {
	InScope(domain string) bool
}
