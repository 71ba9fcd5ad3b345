// Package kvstore wraps a Redis client with the TTL-bounded primitives the
// resetkit core depends on: get/set/delete, atomic increment-with-TTL in
// both refresh and fixed-window flavors, float accumulators, and hash/set
// operations. Every multi-step mutation runs as one transaction so a key can
// never exist without its TTL.
package kvstore
