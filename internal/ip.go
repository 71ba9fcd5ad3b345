package internal

import "net/netip"

// SimilarIP reports whether two addresses are close enough to be the same
// client across minor network reassignment (mobile carriers, DHCP churn).
// Identical strings match; otherwise two IPv4 addresses match when their
// first three octets agree (a /24 approximation). Anything else, including
// IPv6, malformed input, and mixed families, is non-similar.
//
// This is a coarse best-effort heuristic, not a security boundary.
func SimilarIP(a, b string) bool {
	if a == b {
		return a != ""
	}

	addrA, errA := netip.ParseAddr(a)
	addrB, errB := netip.ParseAddr(b)
	if errA != nil || errB != nil {
		return false
	}
	if !addrA.Is4() || !addrB.Is4() {
		return false
	}

	octetsA := addrA.As4()
	octetsB := addrB.As4()
	return octetsA[0] == octetsB[0] && octetsA[1] == octetsB[1] && octetsA[2] == octetsB[2]
}
