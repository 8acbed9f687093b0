package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenType is returned when the typ header does not match the requested claims.
	ErrTokenType = errors.New("unexpected token type")
	// ErrMissingNotBefore is returned when a token has no nbf claim.
	ErrMissingNotBefore = errors.New("token has no nbf claim")
)

// VerifierConfig holds the claim constraints enforced on every parse.
type VerifierConfig struct {
	PublicKey []byte
	Issuer    string
	Audience  string
	KeyID     string
	Leeway    time.Duration
	// Now overrides the validation clock. Nil uses time.Now.
	Now func() time.Time
}

// Verifier validates signature, algorithm, issuer, audience, expiry and
// not-before of EdDSA tokens.
type Verifier struct {
	key    ed25519.PublicKey
	keyID  string
	parser *gjwt.Parser
}

// NewVerifier builds a verifier. The public key is mandatory.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	if len(cfg.PublicKey) == 0 {
		return nil, errors.New("verifier requires a public key")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	pub, err := ParsePublicKey(cfg.PublicKey)
	if err != nil {
		return nil, err
	}

	options := []gjwt.ParserOption{
		gjwt.WithValidMethods([]string{gjwt.SigningMethodEdDSA.Alg()}),
		gjwt.WithExpirationRequired(),
	}
	if cfg.Leeway > 0 {
		options = append(options, gjwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, gjwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, gjwt.WithAudience(cfg.Audience))
	}
	if cfg.Now != nil {
		options = append(options, gjwt.WithTimeFunc(cfg.Now))
	}

	return &Verifier{
		key:    pub,
		keyID:  cfg.KeyID,
		parser: gjwt.NewParser(options...),
	}, nil
}

// Parse verifies token and decodes it into claims. claims must be a pointer.
func (v *Verifier) Parse(token string, claims gjwt.Claims) error {
	if token == "" {
		return gjwt.ErrTokenMalformed
	}

	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *gjwt.Token) (interface{}, error) {
		if typed, ok := claims.(Typed); ok {
			if typ, _ := t.Header["typ"].(string); typ != typed.TokenType() {
				return nil, ErrTokenType
			}
		}
		if v.keyID != "" {
			if kid, _ := t.Header["kid"].(string); kid != v.keyID {
				return nil, fmt.Errorf("unknown kid %q", kid)
			}
		}
		return v.key, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return gjwt.ErrTokenInvalidClaims
	}

	nbf, err := claims.GetNotBefore()
	if err != nil {
		return err
	}
	if nbf == nil {
		return ErrMissingNotBefore
	}
	return nil
}
