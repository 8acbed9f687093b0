package authchain

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
)

// SecretKeyHeader is read when Request.Secret is empty.
const SecretKeyHeader = "X-Secret-Key"

// SecretKeyStrategy gates bootstrap operations behind one shared secret.
// It yields no identity.
type SecretKeyStrategy struct {
	name   string
	digest [sha256.Size]byte
}

// NewSecretKeyStrategy guards a shared secret. An empty secret is rejected.
func NewSecretKeyStrategy(secret string) (*SecretKeyStrategy, error) {
	if secret == "" {
		return nil, errors.New("secret key strategy requires a secret")
	}
	return &SecretKeyStrategy{name: StrategySecretKey, digest: sha256.Sum256([]byte(secret))}, nil
}

func (s *SecretKeyStrategy) Name() string     { return s.name }
func (s *SecretKeyStrategy) Variant() Variant { return VariantSecretKey }
func (s *SecretKeyStrategy) sealed()          {}

// Verify compares the presented secret in constant time. The result carries
// no principal.
func (s *SecretKeyStrategy) Verify(_ context.Context, req *Request) (*Verification, error) {
	presented := req.Secret
	if presented == "" && req.HTTP != nil {
		presented = req.HTTP.Header.Get(SecretKeyHeader)
	}
	if presented == "" {
		return nil, ErrInvalidSecret
	}

	// Comparing digests keeps the comparison length-independent.
	got := sha256.Sum256([]byte(presented))
	if subtle.ConstantTimeCompare(got[:], s.digest[:]) != 1 {
		return nil, ErrInvalidSecret
	}
	return &Verification{Strategy: s.name}, nil
}
