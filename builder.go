package resetkit

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/resetkit/resetkit/internal/rate"
	"github.com/resetkit/resetkit/kvstore"
	"github.com/resetkit/resetkit/password"
	"github.com/resetkit/resetkit/session"
	"github.com/resetkit/resetkit/sessiontoken"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the first Engine method call.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	hasher    PasswordHasher
	policy    PasswordPolicy
	auditSink AuditSink
	logger    zerolog.Logger
	hasLogger bool
	built     bool
}

// New returns a Builder with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing all shared state. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHasher replaces the default argon2id password hasher.
func (b *Builder) WithHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithPolicy replaces the default password policy.
func (b *Builder) WithPolicy(p PasswordPolicy) *Builder {
	b.policy = p
	return b
}

// WithAuditSink sets the destination for audit entries. Implies nothing
// about Audit.Enabled; both must be set for entries to flow.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the operational logger. Without one the engine is silent.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.hasLogger = true
	return b
}

// WithSessionTokenSecret enables epoch-stamped session token validation.
func (b *Builder) WithSessionTokenSecret(secret []byte) *Builder {
	b.config.Session.TokenSecret = secret
	return b
}

// Build validates the configuration and assembles the Engine. A Builder can
// be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	kv := kvstore.New(b.redis)

	hasher := b.hasher
	if hasher == nil {
		var err error
		hasher, err = password.NewArgon2(password.DefaultConfig())
		if err != nil {
			return nil, err
		}
	}

	policy := b.policy
	if policy == nil {
		cfg := password.DefaultPolicyConfig()
		cfg.MinLength = b.config.Password.MinLength
		cfg.MinAge = b.config.Password.MinAge
		policy = &defaultPolicy{inner: password.NewPolicy(cfg)}
	}

	var tokens *sessiontoken.Manager
	if len(b.config.Session.TokenSecret) > 0 {
		var err error
		tokens, err = sessiontoken.New(sessiontoken.Config{
			Secret: b.config.Session.TokenSecret,
			Issuer: b.config.Session.TokenIssuer,
			TTL:    b.config.Session.Lifetime,
		})
		if err != nil {
			return nil, err
		}
	}

	logger := zerolog.Nop()
	if b.hasLogger {
		logger = b.logger
	}

	b.built = true

	return &Engine{
		config:   b.config,
		kv:       kv,
		registry: session.NewRegistry(kv, b.config.Session.Lifetime),
		limiter: rate.New(kv, rate.Config{
			MaxAttempts:      b.config.RateLimit.MaxResetAttempts,
			Window:           b.config.RateLimit.LockoutDuration,
			EnableIPThrottle: b.config.RateLimit.EnableIPThrottle,
		}),
		tokens:  tokens,
		hasher:  hasher,
		policy:  policy,
		audit:   newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics: NewMetrics(b.config.Metrics),
		logger:  logger,
		now:     time.Now,
	}, nil
}

// defaultPolicy adapts password.Policy to the PasswordPolicy interface.
type defaultPolicy struct {
	inner *password.Policy
}

func (p *defaultPolicy) Validate(candidate string) PolicyResult {
	result := p.inner.Validate(candidate)
	return PolicyResult{
		OK:           result.OK,
		Score:        result.Score,
		StrengthText: result.StrengthText,
		Errors:       result.Errors,
	}
}

func (p *defaultPolicy) InHistory(candidate string, history []string, hasher PasswordHasher) (bool, error) {
	return p.inner.InHistory(candidate, history, hasher.Verify)
}

func (p *defaultPolicy) CanChange(lastChanged, now time.Time) (bool, time.Duration) {
	return p.inner.CanChange(lastChanged, now)
}
