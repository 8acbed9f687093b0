package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt verifies and produces bcrypt hashes. It exists for accounts whose
// hashes predate Argon2id.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher. A cost of zero uses bcrypt.DefaultCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash returns a bcrypt hash at the configured cost. Passwords longer than
// 72 bytes are rejected rather than truncated.
func (b *Bcrypt) Hash(password string) (string, error) {
	// bcrypt silently truncates past 72 bytes.
	if password == "" || len(password) > 72 {
		return "", ErrPasswordLength
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether password matches encoded. A mismatch is (false, nil);
// only malformed hashes return an error.
func (b *Bcrypt) Verify(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// Recognizes matches the $2a$, $2b$ and $2y$ prefixes.
func (b *Bcrypt) Recognizes(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
