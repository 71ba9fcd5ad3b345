package password

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"
)

// Result is the outcome of a policy validation.
type Result struct {
	OK           bool
	Score        int
	StrengthText string
	Errors       []string
}

// PolicyConfig controls the default password policy.
type PolicyConfig struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
	// MinAge is the minimum time between password changes.
	MinAge time.Duration
}

// DefaultPolicyConfig requires 10+ characters with three character classes
// and a one-day minimum age.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		MinLength:      10,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: false,
		MinAge:         24 * time.Hour,
	}
}

// Policy is the default password policy engine: length and charset
// requirements, a coarse strength score, history lookups, and minimum-age
// checks.
type Policy struct {
	config PolicyConfig
}

// NewPolicy returns a policy with the given configuration.
func NewPolicy(cfg PolicyConfig) *Policy {
	if cfg.MinLength < 1 {
		cfg.MinLength = 1
	}
	return &Policy{config: cfg}
}

// Validate checks the candidate against length and charset requirements and
// scores its strength from 0 to 100. The score is informational; only
// Errors gate acceptance.
func (p *Policy) Validate(candidate string) Result {
	var (
		hasUpper, hasLower, hasDigit, hasSpecial bool
	)
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	// Length is measured in runes, not bytes, so multi-byte characters
	// count once.
	var errs []string
	if utf8.RuneCountInString(candidate) < p.config.MinLength {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters", p.config.MinLength))
	}
	if p.config.RequireUpper && !hasUpper {
		errs = append(errs, "password must contain an uppercase letter")
	}
	if p.config.RequireLower && !hasLower {
		errs = append(errs, "password must contain a lowercase letter")
	}
	if p.config.RequireDigit && !hasDigit {
		errs = append(errs, "password must contain a digit")
	}
	if p.config.RequireSpecial && !hasSpecial {
		errs = append(errs, "password must contain a special character")
	}

	score := strengthScore(candidate, hasUpper, hasLower, hasDigit, hasSpecial)

	return Result{
		OK:           len(errs) == 0,
		Score:        score,
		StrengthText: strengthText(score),
		Errors:       errs,
	}
}

// InHistory reports whether the candidate verifies against any history
// entry. verify is the hasher's comparison function; history entries are
// hashes, never plaintext.
func (p *Policy) InHistory(candidate string, history []string, verify func(password, hash string) (bool, error)) (bool, error) {
	for _, entry := range history {
		ok, err := verify(candidate, entry)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// CanChange reports whether the minimum password age has elapsed since
// lastChanged, and if not, how long remains. A zero lastChanged means the
// password has never been set and can always change.
func (p *Policy) CanChange(lastChanged, now time.Time) (bool, time.Duration) {
	if p.config.MinAge <= 0 || lastChanged.IsZero() {
		return true, 0
	}

	elapsed := now.Sub(lastChanged)
	if elapsed >= p.config.MinAge {
		return true, 0
	}
	return false, p.config.MinAge - elapsed
}

func strengthScore(candidate string, hasUpper, hasLower, hasDigit, hasSpecial bool) int {
	score := 0

	// Length dominates: 4 points per character up to 60.
	score += min(utf8.RuneCountInString(candidate)*4, 60)

	classes := 0
	for _, has := range []bool{hasUpper, hasLower, hasDigit, hasSpecial} {
		if has {
			classes++
		}
	}
	score += classes * 10

	return min(score, 100)
}

func strengthText(score int) string {
	switch {
	case score >= 80:
		return "strong"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "weak"
	}
}
