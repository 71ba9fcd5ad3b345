package sessiontoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalid is returned for tokens that fail signature or claim checks.
	ErrInvalid = errors.New("invalid session token")
	// ErrExpired is returned for tokens past their expiry.
	ErrExpired = errors.New("session token expired")
)

// Claims are the payload of an epoch-stamped session token. TokenVersion is
// the user's token version at mint time; validation compares it against the
// registry's current version, so bumping the version invalidates every
// token minted before the bump.
type Claims struct {
	UserID       string `json:"uid"`
	TokenVersion int64  `json:"tver"`
	jwt.RegisteredClaims
}

// Config holds session-token signing parameters.
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
}

// Manager mints and parses HS256 session tokens carrying the user's token
// version.
type Manager struct {
	config Config
}

// New validates the config and returns a Manager.
func New(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("session token secret must be at least 32 bytes")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("session token TTL must be positive")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// Issue mints a token for the user stamped with the given token version.
func (m *Manager) Issue(userID string, tokenVersion int64) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:       userID,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

// Parse verifies the signature and registered claims and returns the
// payload. The signing method is pinned to HS256.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.config.Leeway),
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return m.config.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}
