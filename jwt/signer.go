package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// Signer produces compact EdDSA tokens with a single private key.
//
// A Signer is immutable and safe for concurrent use.
type Signer struct {
	key   ed25519.PrivateKey
	keyID string
}

// NewSigner imports key material (raw or PEM) into an EdDSA signer. keyID is
// optional and is written to the "kid" header when set.
func NewSigner(key []byte, keyID string) (*Signer, error) {
	if len(key) == 0 {
		return nil, ErrInvalidPrivateKey
	}
	priv, err := ParsePrivateKey(key)
	if err != nil {
		return nil, err
	}
	return &Signer{key: priv, keyID: keyID}, nil
}

// Public returns the verification key matching the signing key.
func (s *Signer) Public() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// Sign serializes and signs claims. Claim sets implementing [Typed] get the
// matching "typ" header.
func (s *Signer) Sign(claims gjwt.Claims) (string, error) {
	if s == nil || len(s.key) == 0 {
		return "", errors.New("signer not initialized")
	}
	if claims == nil {
		return "", errors.New("claims must not be nil")
	}

	token := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims)
	if typed, ok := claims.(Typed); ok {
		token.Header["typ"] = typed.TokenType()
	}
	if s.keyID != "" {
		token.Header["kid"] = s.keyID
	}

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
