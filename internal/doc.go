// Package internal holds pure helpers shared by resetkit: the reset-token
// codec and the IP similarity heuristic. Nothing here performs I/O.
package internal
