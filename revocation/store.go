package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrUnavailable marks failures of the backing store.
var ErrUnavailable = errors.New("revocation store unavailable")

// Store is a durable set of revoked tokens.
type Store interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Digest returns the hex SHA-256 of token, the key every backend stores.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
