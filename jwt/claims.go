package jwt

import gjwt "github.com/golang-jwt/jwt/v5"

const (
	// TypeAccess is the JOSE typ header of access tokens.
	TypeAccess = "at+jwt"
	// TypeRefresh is the JOSE typ header of refresh tokens.
	TypeRefresh = "rt+jwt"
)

// Typed is implemented by claim sets that bind themselves to a token kind.
type Typed interface {
	TokenType() string
}

// AccessClaims is the claim set of a short-lived access token. The registered
// ID (jti) is the session identifier shared with the paired refresh token.
type AccessClaims struct {
	Roles []string `json:"roles,omitempty"`
	gjwt.RegisteredClaims
}

// TokenType implements [Typed].
func (AccessClaims) TokenType() string { return TypeAccess }

// RefreshClaims is the claim set of a long-lived refresh token. It carries no
// subject or roles; identity is recovered from the session cache by jti.
type RefreshClaims struct {
	gjwt.RegisteredClaims
}

// TokenType implements [Typed].
func (RefreshClaims) TokenType() string { return TypeRefresh }
