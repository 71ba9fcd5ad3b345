package resetkit

import "errors"

var (
	// ErrInvalidToken is returned when a reset token is malformed, missing, or
	// does not hash to the stored value.
	ErrInvalidToken = errors.New("invalid reset token")
	// ErrTokenUsed is returned when the reset token was already consumed.
	ErrTokenUsed = errors.New("reset token already used")
	// ErrTokenExpired is returned when the reset token is past its expiry.
	ErrTokenExpired = errors.New("reset token expired")
	// ErrTooManyAttempts is returned when a token accumulated too many failed
	// verifications.
	ErrTooManyAttempts = errors.New("too many failed verification attempts")
	// ErrDeviceMismatch is returned when device verification is enabled and the
	// presented user agent differs from the one captured at issuance.
	ErrDeviceMismatch = errors.New("device mismatch")
	// ErrLocationMismatch is returned when device verification is enabled and
	// the presented IP is not similar to the one captured at issuance.
	ErrLocationMismatch = errors.New("location mismatch")
	// ErrInvalidPassword is returned when a new password fails policy checks.
	ErrInvalidPassword = errors.New("password policy violation")
	// ErrPasswordReused is returned when a new password matches an entry in the
	// user's password history.
	ErrPasswordReused = errors.New("password reused")
	// ErrSamePassword is returned when the new password equals the current one.
	ErrSamePassword = errors.New("new password must differ from current password")
	// ErrInvalidCurrentPassword is returned when the supplied current password
	// does not verify against the stored hash.
	ErrInvalidCurrentPassword = errors.New("invalid current password")
	// ErrPasswordTooRecent is returned when the password was changed more
	// recently than the configured minimum age allows.
	ErrPasswordTooRecent = errors.New("password changed too recently")
	// ErrRateLimited is returned when a fixed-window counter exceeds its budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrStoreUnavailable is returned when the backing key-value store cannot
	// be reached. It wraps the underlying transport error.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrTokenGeneration is returned when the random source or hash fails
	// during token issuance. It is fatal to the operation.
	ErrTokenGeneration = errors.New("token generation failed")
	// ErrSessionTokenStale is returned when a session token's embedded version
	// is older than the user's current token version.
	ErrSessionTokenStale = errors.New("session token stale")
	// ErrSessionTokenRevoked is returned when a session token's hash is on the
	// blacklist.
	ErrSessionTokenRevoked = errors.New("session token revoked")
	// ErrEngineNotReady is returned when an Engine method is called before
	// Build completed.
	ErrEngineNotReady = errors.New("engine not ready")
)

// outcomeErrs maps failure codes onto the package sentinel errors.
var outcomeErrs = map[OutcomeCode]error{
	CodeInvalidToken:           ErrInvalidToken,
	CodeTokenUsed:              ErrTokenUsed,
	CodeTokenExpired:           ErrTokenExpired,
	CodeTooManyAttempts:        ErrTooManyAttempts,
	CodeDeviceMismatch:         ErrDeviceMismatch,
	CodeLocationMismatch:       ErrLocationMismatch,
	CodeInvalidPassword:        ErrInvalidPassword,
	CodePasswordReused:         ErrPasswordReused,
	CodeSamePassword:           ErrSamePassword,
	CodeInvalidCurrentPassword: ErrInvalidCurrentPassword,
	CodePasswordTooRecent:      ErrPasswordTooRecent,
}

// Err returns the sentinel error matching the code, or nil for CodeValid.
// Callers that prefer errors.Is over switching on codes use this to branch.
func (c OutcomeCode) Err() error {
	return outcomeErrs[c]
}

// Err returns the sentinel error for a failed verification, nil when Valid.
func (r VerificationResult) Err() error {
	if r.Valid {
		return nil
	}
	return r.Code.Err()
}

// Err returns the sentinel error for a failed reset or change, nil on
// Success.
func (r *ResetResult) Err() error {
	if r == nil || r.Success {
		return nil
	}
	return r.Code.Err()
}
