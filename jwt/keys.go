package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidPrivateKey is returned when key material is not an Ed25519 private key.
	ErrInvalidPrivateKey = errors.New("invalid ed25519 private key")
	// ErrInvalidPublicKey is returned when key material is not an Ed25519 public key.
	ErrInvalidPublicKey = errors.New("invalid ed25519 public key")
)

// LoadKey returns s as key bytes when it is inline PEM, otherwise it reads the
// file at path s.
func LoadKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty key reference")
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(s), nil
	}
	data, err := os.ReadFile(s)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return data, nil
}

// ParsePrivateKey accepts a raw 64-byte Ed25519 private key or a PKCS#8 PEM block.
func ParsePrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := gjwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, ErrInvalidPrivateKey
	}
	return edKey, nil
}

// ParsePublicKey accepts a raw 32-byte Ed25519 public key or a PKIX PEM block.
func ParsePublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := gjwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, ErrInvalidPublicKey
	}
	return edKey, nil
}

// GenerateKeyPair creates a fresh Ed25519 key pair encoded as PKCS#8 and PKIX PEM.
func GenerateKeyPair() (privatePEM, publicPEM []byte, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate ed25519 key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key: %w", err)
	}

	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privatePEM, publicPEM, nil
}
