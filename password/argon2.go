package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minPassBytes          = 10
	argon2Prefix          = "$argon2id$"

	// DefaultMaxPasswordBytes caps input size when Config.MaxPasswordBytes is zero.
	DefaultMaxPasswordBytes = 1024
)

// Config holds Argon2id cost parameters.
type Config struct {
	Memory      uint32 `env:"MEMORY_KB" envDefault:"65536"`
	Time        uint32 `env:"TIME" envDefault:"3"`
	Parallelism uint8  `env:"PARALLELISM" envDefault:"2"`
	SaltLength  uint32 `env:"SALT_LENGTH" envDefault:"16"`
	KeyLength   uint32 `env:"KEY_LENGTH" envDefault:"32"`

	MaxPasswordBytes int `env:"MAX_BYTES"`
}

// DefaultConfig returns the parameters used for new hashes.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate rejects parameters below the accepted floor.
func (c Config) Validate() error {
	switch {
	case c.Memory < minMemoryKB:
		return errors.New("password memory must be >= 8192 KB")
	case c.Time < 1:
		return errors.New("password time must be >= 1")
	case c.Parallelism < 1:
		return errors.New("password parallelism must be >= 1")
	case c.SaltLength < minSaltLength:
		return errors.New("password salt length must be >= 16")
	case c.KeyLength < minKeyLength:
		return errors.New("password key length must be >= 16")
	case c.MaxPasswordBytes < 0:
		return errors.New("password max bytes must be >= 0")
	}
	return nil
}

// Argon2 is the Argon2id [Hasher]. It is immutable after construction.
type Argon2 struct {
	config   Config
	maxBytes int
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxBytes := cfg.MaxPasswordBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxPasswordBytes
	}
	return &Argon2{config: cfg, maxBytes: maxBytes}, nil
}

// Hash derives a new salted hash. Password bytes are used as given, without
// Unicode normalization.
func (a *Argon2) Hash(password string) (string, error) {
	if len(password) < minPassBytes || len(password) > a.maxBytes {
		return "", ErrPasswordLength
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version,
		a.config.Memory, a.config.Time, a.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash with the parameters stored in encoded and
// compares in constant time.
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	if len(password) > a.maxBytes {
		return false, ErrPasswordLength
	}
	p, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.hash)))
	return subtle.ConstantTimeCompare(key, p.hash) == 1, nil
}

// Recognizes matches PHC strings with the argon2id identifier.
func (a *Argon2) Recognizes(encoded string) bool {
	return strings.HasPrefix(encoded, argon2Prefix)
}

// NeedsRehash reports whether encoded was produced with weaker parameters
// than the hasher's current configuration.
func (a *Argon2) NeedsRehash(encoded string) (bool, error) {
	p, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}
	return a.config.Memory > p.memory ||
		a.config.Time > p.time ||
		a.config.Parallelism > p.parallelism ||
		a.config.KeyLength != uint32(len(p.hash)), nil
}

func decodePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, errors.New("invalid argon2id PHC string")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	var p phc
	if n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.parallelism); err != nil || n != 3 {
		return nil, errors.New("invalid argon2 parameters")
	}
	if p.memory < minMemoryKB || p.time < 1 || p.parallelism < 1 {
		return nil, errors.New("argon2 parameters below minimum")
	}

	var err error
	if p.salt, err = base64.StdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) < int(minSaltLength) {
		return nil, errors.New("invalid argon2 salt")
	}
	if p.hash, err = base64.StdEncoding.DecodeString(parts[5]); err != nil || len(p.hash) == 0 {
		return nil, errors.New("invalid argon2 hash")
	}
	return &p, nil
}
