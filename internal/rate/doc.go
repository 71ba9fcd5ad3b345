// Package rate implements store-side fixed-window counters for generic
// per-identifier and per-IP throttling. The sliding-log check for reset
// requests is a pure function in the root package; the two models are kept
// distinct because a fixed window miscounts at window boundaries relative to
// a sliding log, and callers choose per use.
package rate
