package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// Config holds argon2id cost factors. Costs are validated against floor
// values at construction so a misconfigured deployment cannot silently hash
// with weak parameters.
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns interactive-login argon2id costs.
func DefaultConfig() Config {
	return Config{
		Memory:      65536,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 is the default password hasher. Hashes are PHC-encoded strings, so
// cost factors travel with each hash and verification works across cost
// upgrades.
type Argon2 struct {
	config Config
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

// NewArgon2 validates the cost configuration and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if cfg.Memory < minMemoryKB {
		return nil, errors.New("argon2 memory below minimum")
	}
	if cfg.Time < minTimeCost {
		return nil, errors.New("argon2 time cost below minimum")
	}
	if cfg.Parallelism < minParallelism {
		return nil, errors.New("argon2 parallelism below minimum")
	}
	if cfg.SaltLength < minSaltLength {
		return nil, errors.New("argon2 salt length below minimum")
	}
	if cfg.KeyLength < minKeyLength {
		return nil, errors.New("argon2 key length below minimum")
	}

	return &Argon2{config: cfg}, nil
}

// Hash derives an argon2id hash of the password with a fresh random salt and
// returns it PHC-encoded. Password bytes are used exactly as provided, with
// no Unicode normalization.
func (a *Argon2) Hash(password string) (string, error) {
	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(hash),
	), nil
}

// Verify recomputes the hash with the parameters embedded in encodedHash and
// compares in constant time.
func (a *Argon2) Verify(password, encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker cost
// factors than this hasher is configured with.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	if a.config.Memory > parsed.memory {
		return true, nil
	}
	if a.config.Time > parsed.time {
		return true, nil
	}
	if a.config.Parallelism > parsed.parallelism {
		return true, nil
	}
	return a.config.KeyLength != parsed.keyLength, nil
}

func parsePHC(encodedHash string) (*parsedPHC, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	if !strings.HasPrefix(parts[2], "v=") {
		return nil, errors.New("missing argon2 version")
	}
	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	var memory, timeCost, parallelism uint64
	for _, pair := range strings.Split(parts[3], ",") {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.New("invalid parameter format")
		}
		n, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return nil, errors.New("invalid parameter value")
		}
		switch key {
		case "m":
			memory = n
		case "t":
			timeCost = n
		case "p":
			if n > 255 {
				return nil, errors.New("invalid parallelism value")
			}
			parallelism = n
		default:
			return nil, errors.New("unknown parameter")
		}
	}
	if memory == 0 || timeCost == 0 || parallelism == 0 {
		return nil, errors.New("missing argon2 parameters")
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	if len(salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt length")
	}

	hash, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, errors.New("invalid hash encoding")
	}
	if len(hash) == 0 {
		return nil, errors.New("invalid hash length")
	}

	return &parsedPHC{
		memory:      uint32(memory),
		time:        uint32(timeCost),
		parallelism: uint8(parallelism),
		salt:        salt,
		hash:        hash,
		keyLength:   uint32(len(hash)),
	}, nil
}
