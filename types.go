package resetkit

import "time"

// OutcomeCode is the coarse, user-renderable classification of a verification
// or password-change outcome. Codes deliberately do not distinguish hash
// mismatch from malformed input so callers cannot leak which check failed.
type OutcomeCode string

const (
	// CodeValid marks a successful verification.
	CodeValid OutcomeCode = "VALID"
	// CodeInvalidToken marks a missing, malformed, or mismatched token.
	CodeInvalidToken OutcomeCode = "INVALID_TOKEN"
	// CodeTokenUsed marks a token that was already consumed.
	CodeTokenUsed OutcomeCode = "TOKEN_USED"
	// CodeTokenExpired marks a token past its expiry.
	CodeTokenExpired OutcomeCode = "TOKEN_EXPIRED"
	// CodeTooManyAttempts marks a token with too many failed verifications.
	CodeTooManyAttempts OutcomeCode = "TOO_MANY_ATTEMPTS"
	// CodeDeviceMismatch marks a user-agent mismatch under device verification.
	CodeDeviceMismatch OutcomeCode = "DEVICE_MISMATCH"
	// CodeLocationMismatch marks an IP dissimilarity under device verification.
	CodeLocationMismatch OutcomeCode = "LOCATION_MISMATCH"
	// CodeInvalidPassword marks a password policy violation.
	CodeInvalidPassword OutcomeCode = "INVALID_PASSWORD"
	// CodePasswordReused marks a password found in the user's history.
	CodePasswordReused OutcomeCode = "PASSWORD_REUSED"
	// CodeSamePassword marks a new password equal to the current one.
	CodeSamePassword OutcomeCode = "SAME_PASSWORD"
	// CodeInvalidCurrentPassword marks a failed current-password check.
	CodeInvalidCurrentPassword OutcomeCode = "INVALID_CURRENT_PASSWORD"
	// CodePasswordTooRecent marks a change attempted before the minimum age.
	CodePasswordTooRecent OutcomeCode = "PASSWORD_TOO_RECENT"
)

// SecurityContext captures the request environment at token issuance and at
// verification. Attempts counts failed verifications against the record.
type SecurityContext struct {
	UserAgent string `json:"user_agent,omitempty"`
	IP        string `json:"ip,omitempty"`
	Attempts  int    `json:"attempts"`
}

// ResetTokenRecord is the persistable shape of one outstanding password-reset
// request. The plain token is returned to the requester exactly once at
// issuance and never appears here; only its hash is stored. Once Used flips
// to true the record is terminal and never transitions back.
//
// Durable storage of the record is the caller's responsibility; resetkit only
// produces and consumes the in-memory shape.
type ResetTokenRecord struct {
	TokenHash string          `json:"token_hash"`
	UserID    string          `json:"user_id"`
	Email     string          `json:"email"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Context   SecurityContext `json:"security_context"`
	Used      bool            `json:"used"`
	UsedAt    time.Time       `json:"used_at,omitempty"`
}

// User is the slice of the caller's user aggregate that reset and change
// flows read and mutate. The caller owns persistence.
type User struct {
	UserID              string
	Email               string
	PasswordHash        string
	PasswordHistory     []string
	PasswordLastChanged time.Time
	MustChangePassword  bool
	FailedLoginAttempts int
	LockedUntil         time.Time
}

// VerificationResult is the outcome of VerifyResetToken.
type VerificationResult struct {
	Valid     bool
	Code      OutcomeCode
	UserID    string
	Email     string
	CheckedAt time.Time
}

// ResetResult is the outcome of ResetPassword and ValidatePasswordChange.
// StrengthScore is a coarse 0–100 signal; the new hash and token are never
// included.
type ResetResult struct {
	Success       bool
	Code          OutcomeCode
	StrengthScore int
	StrengthText  string
	PolicyErrors  []string
	// RetryAfter is set alongside CodePasswordTooRecent.
	RetryAfter time.Duration
}

// RateLimitResult is the outcome of CheckResetRateLimit.
type RateLimitResult struct {
	Allowed           bool
	RemainingAttempts int
	RecentAttempts    int
	// NextAllowedAt is the earliest instant the sliding window frees a slot.
	// Zero when Allowed.
	NextAllowedAt time.Time
}

// PolicyResult is returned by a PasswordPolicy's Validate.
type PolicyResult struct {
	OK           bool
	Score        int
	StrengthText string
	Errors       []string
}

// PasswordHasher hashes and verifies passwords. The default implementation is
// password.Argon2; callers may inject their own.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// PasswordPolicy validates candidate passwords and enforces history and
// minimum-age rules. The default implementation is password.Policy.
type PasswordPolicy interface {
	Validate(password string) PolicyResult
	InHistory(password string, history []string, hasher PasswordHasher) (bool, error)
	CanChange(lastChanged time.Time, now time.Time) (bool, time.Duration)
}
