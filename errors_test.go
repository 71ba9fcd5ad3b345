package resetkit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOutcomeCodeErr(t *testing.T) {
	tests := []struct {
		code OutcomeCode
		want error
	}{
		{CodeInvalidToken, ErrInvalidToken},
		{CodeTokenUsed, ErrTokenUsed},
		{CodeTokenExpired, ErrTokenExpired},
		{CodeTooManyAttempts, ErrTooManyAttempts},
		{CodeDeviceMismatch, ErrDeviceMismatch},
		{CodeLocationMismatch, ErrLocationMismatch},
		{CodeInvalidPassword, ErrInvalidPassword},
		{CodePasswordReused, ErrPasswordReused},
		{CodeSamePassword, ErrSamePassword},
		{CodeInvalidCurrentPassword, ErrInvalidCurrentPassword},
		{CodePasswordTooRecent, ErrPasswordTooRecent},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Err(); !errors.Is(got, tt.want) {
				t.Fatalf("Err() = %v, want %v", got, tt.want)
			}
		})
	}

	if err := CodeValid.Err(); err != nil {
		t.Fatalf("CodeValid.Err() = %v, want nil", err)
	}
}

func TestResultErrAccessors(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	plain, record := issueTestToken(t, engine, nil)

	if err := engine.VerifyResetToken(ctx, plain, record, nil).Err(); err != nil {
		t.Fatalf("valid verification Err() = %v, want nil", err)
	}

	record.Used = true
	if err := engine.VerifyResetToken(ctx, plain, record, nil).Err(); !errors.Is(err, ErrTokenUsed) {
		t.Fatalf("used-token verification Err() = %v, want ErrTokenUsed", err)
	}

	record.Used = false
	record.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	if err := engine.VerifyResetToken(ctx, plain, record, nil).Err(); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired-token verification Err() = %v, want ErrTokenExpired", err)
	}

	user := newTestUser(t, engine, "Old1Password!")
	plain, record = issueTestToken(t, engine, nil)
	result, err := engine.ResetPassword(ctx, plain, "weak", record, user, nil)
	if err != nil {
		t.Fatalf("ResetPassword errored: %v", err)
	}
	if resErr := result.Err(); !errors.Is(resErr, ErrInvalidPassword) {
		t.Fatalf("weak-password result Err() = %v, want ErrInvalidPassword", resErr)
	}

	result, err = engine.ResetPassword(ctx, plain, "N3wPassword!", record, user, nil)
	if err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if resErr := result.Err(); resErr != nil {
		t.Fatalf("successful reset Err() = %v, want nil", resErr)
	}

	var nilResult *ResetResult
	if err := nilResult.Err(); err != nil {
		t.Fatalf("nil result Err() = %v, want nil", err)
	}
}
