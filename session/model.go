package session

import "time"

// Record is one session entry in the registry. Data is an opaque blob owned
// by the caller; the registry only interprets UserID (for the per-user
// index) and ExpiresAt.
type Record struct {
	SessionID    string            `json:"session_id"`
	UserID       string            `json:"user_id"`
	TokenVersion int64             `json:"token_version"`
	IP           string            `json:"ip,omitempty"`
	UserAgent    string            `json:"user_agent,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Data         map[string]string `json:"data,omitempty"`
}

// Expired reports whether the record is past its expiry at now.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}
