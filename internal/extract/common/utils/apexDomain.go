package utils

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// GetApexDomain returns the registrable domain (eTLD+1) for a network location.
// It is used for reporting only; scope decisions never normalize names.
func GetApexDomain(netloc string) string {
	name := strings.ToLower(strings.TrimSpace(HostOnly(netloc)))
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	apexDomain, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		apexDomain = name // fall back to the bare host (IPs, single labels, empty)
	}
	return apexDomain
}
