package resetkit

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config groups all tunables by concern. Instances are configured before
// [Builder.Build] and treated as immutable afterwards.
type Config struct {
	Token      TokenConfig
	RateLimit  RateLimitConfig
	Session    SessionConfig
	Blacklist  BlacklistConfig
	Password   PasswordPolicyConfig
	Reputation ReputationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

// TokenConfig controls reset-token issuance and verification.
type TokenConfig struct {
	// Length is the number of random bytes drawn per token. The plain token
	// is the hex encoding, so the string is twice this long.
	Length int
	// Expiry is the absolute lifetime of an issued token.
	Expiry time.Duration
	// MaxFailedVerifications caps failed verification attempts per record.
	MaxFailedVerifications int
	// RequireDeviceVerification enables user-agent and IP similarity checks
	// during verification.
	RequireDeviceVerification bool
}

// RateLimitConfig controls both the pure sliding-window reset-request check
// and the store-side fixed-window counters.
type RateLimitConfig struct {
	MaxResetAttempts int
	ResetWindow      time.Duration
	LockoutDuration  time.Duration
	// EnableIPThrottle adds a per-IP fixed-window counter next to the
	// per-identifier one.
	EnableIPThrottle bool
}

// SessionConfig controls session records and token-version TTLs.
type SessionConfig struct {
	// Lifetime bounds session records and is the TTL refreshed on every
	// token-version increment.
	Lifetime time.Duration
	// TokenSecret signs epoch-stamped session tokens. Optional; session token
	// validation is disabled when empty.
	TokenSecret []byte
	// TokenIssuer is the iss claim on minted session tokens.
	TokenIssuer string
}

// BlacklistConfig controls revocation-check behavior when the store is down.
type BlacklistConfig struct {
	// FailClosed rejects tokens when the blacklist cannot be read. The
	// default (false) fails open: an unreachable store reads as "not
	// blacklisted", trading strictness for availability.
	FailClosed bool
}

// PasswordPolicyConfig controls the default password policy collaborator.
type PasswordPolicyConfig struct {
	MinLength    int
	HistoryLimit int
	// MinAge is the minimum time between password changes.
	MinAge time.Duration
}

// ReputationConfig controls IP-reputation accumulators.
type ReputationConfig struct {
	// TTL bounds how long a score survives without new signal.
	TTL time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is full.
	DropIfFull bool
}

// MetricsConfig controls the in-process metric counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Length:                    32,
			Expiry:                    15 * time.Minute,
			MaxFailedVerifications:    5,
			RequireDeviceVerification: false,
		},
		RateLimit: RateLimitConfig{
			MaxResetAttempts: 3,
			ResetWindow:      time.Hour,
			LockoutDuration:  30 * time.Minute,
			EnableIPThrottle: true,
		},
		Session: SessionConfig{
			Lifetime: 24 * time.Hour,
		},
		Password: PasswordPolicyConfig{
			MinLength:    10,
			HistoryLimit: 5,
			MinAge:       24 * time.Hour,
		},
		Reputation: ReputationConfig{
			TTL: 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.Token.Length < 16 {
		return errors.New("token length must be at least 16 bytes")
	}
	if cfg.Token.Expiry <= 0 {
		return errors.New("token expiry must be positive")
	}
	if cfg.Token.MaxFailedVerifications < 1 {
		return errors.New("max failed verifications must be at least 1")
	}
	if cfg.RateLimit.MaxResetAttempts < 1 {
		return errors.New("max reset attempts must be at least 1")
	}
	if cfg.RateLimit.ResetWindow <= 0 {
		return errors.New("reset window must be positive")
	}
	if cfg.RateLimit.LockoutDuration < 0 {
		return errors.New("lockout duration must not be negative")
	}
	if cfg.Session.Lifetime <= 0 {
		return errors.New("session lifetime must be positive")
	}
	if cfg.Password.MinLength < 1 {
		return errors.New("password min length must be at least 1")
	}
	if cfg.Password.HistoryLimit < 0 {
		return errors.New("password history limit must not be negative")
	}
	if cfg.Password.MinAge < 0 {
		return errors.New("password min age must not be negative")
	}
	if cfg.Reputation.TTL <= 0 {
		return errors.New("reputation TTL must be positive")
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize < 1 {
		return errors.New("audit buffer size must be at least 1")
	}
	return nil
}

type envConfig struct {
	TokenLength               int           `env:"RESETKIT_TOKEN_LENGTH"`
	TokenExpiry               time.Duration `env:"RESETKIT_TOKEN_EXPIRY"`
	MaxFailedVerifications    int           `env:"RESETKIT_MAX_FAILED_VERIFICATIONS"`
	RequireDeviceVerification bool          `env:"RESETKIT_REQUIRE_DEVICE_VERIFICATION"`
	MaxResetAttempts          int           `env:"RESETKIT_MAX_RESET_ATTEMPTS"`
	ResetWindow               time.Duration `env:"RESETKIT_RESET_WINDOW"`
	LockoutDuration           time.Duration `env:"RESETKIT_LOCKOUT_DURATION"`
	SessionLifetime           time.Duration `env:"RESETKIT_SESSION_LIFETIME"`
	BlacklistFailClosed       bool          `env:"RESETKIT_BLACKLIST_FAIL_CLOSED"`
	PasswordMinLength         int           `env:"RESETKIT_PASSWORD_MIN_LENGTH"`
	PasswordHistoryLimit      int           `env:"RESETKIT_PASSWORD_HISTORY_LIMIT"`
	PasswordMinAge            time.Duration `env:"RESETKIT_PASSWORD_MIN_AGE"`
	AuditEnabled              bool          `env:"RESETKIT_AUDIT_ENABLED"`
	MetricsEnabled            bool          `env:"RESETKIT_METRICS_ENABLED"`
}

// ConfigFromEnv returns the default config overridden by RESETKIT_* variables.
// Unset variables leave their defaults untouched.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()

	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, err
	}

	if ec.TokenLength > 0 {
		cfg.Token.Length = ec.TokenLength
	}
	if ec.TokenExpiry > 0 {
		cfg.Token.Expiry = ec.TokenExpiry
	}
	if ec.MaxFailedVerifications > 0 {
		cfg.Token.MaxFailedVerifications = ec.MaxFailedVerifications
	}
	if ec.RequireDeviceVerification {
		cfg.Token.RequireDeviceVerification = true
	}
	if ec.MaxResetAttempts > 0 {
		cfg.RateLimit.MaxResetAttempts = ec.MaxResetAttempts
	}
	if ec.ResetWindow > 0 {
		cfg.RateLimit.ResetWindow = ec.ResetWindow
	}
	if ec.LockoutDuration > 0 {
		cfg.RateLimit.LockoutDuration = ec.LockoutDuration
	}
	if ec.SessionLifetime > 0 {
		cfg.Session.Lifetime = ec.SessionLifetime
	}
	if ec.BlacklistFailClosed {
		cfg.Blacklist.FailClosed = true
	}
	if ec.PasswordMinLength > 0 {
		cfg.Password.MinLength = ec.PasswordMinLength
	}
	if ec.PasswordHistoryLimit > 0 {
		cfg.Password.HistoryLimit = ec.PasswordHistoryLimit
	}
	if ec.PasswordMinAge > 0 {
		cfg.Password.MinAge = ec.PasswordMinAge
	}
	if ec.AuditEnabled {
		cfg.Audit.Enabled = true
	}
	if ec.MetricsEnabled {
		cfg.Metrics.Enabled = true
	}

	return cfg, nil
}
