package authchain

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/authchain/jwt"
)

// Principal is an authenticated identity. It is never persisted here.
type Principal struct {
	ID       string
	Roles    []string
	IsActive bool
}

// UserRecord is the stored user as returned by a [UserStore].
type UserRecord struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        []string
	Active       bool
	LastLoginIP  string
}

func (u *UserRecord) principal() *Principal {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	return &Principal{ID: u.ID, Roles: roles, IsActive: u.Active}
}

// ErrNoSuchUser may be returned by a UserStore lookup instead of a nil record.
var ErrNoSuchUser = errors.New("no such user")

// UserStore is the external user directory.
//
// Lookups return (nil, nil) or (nil, ErrNoSuchUser) for an absent user; any
// other error is treated as a storage failure.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	RecordLoginIP(ctx context.Context, userID, ip string) error
}

// Request carries everything a strategy may inspect. Fields left empty are
// filled from HTTP by the configured extractors, when HTTP is set.
type Request struct {
	HTTP *http.Request

	Username string
	Password string
	Secret   string

	AccessToken  string
	RefreshToken string
	// RefreshOnly makes the token strategy ignore any access token.
	RefreshOnly bool

	SourceIP string
}

// Verification is the result of a successful strategy check. Which fields
// are set depends on the strategy: Principal for credentials, Token plus
// exactly one of Access or Refresh for tokens, nothing extra for secrets.
type Verification struct {
	Strategy  string
	Principal *Principal
	Token     string
	Access    *jwt.AccessClaims
	Refresh   *jwt.RefreshClaims
}

// TokenPair is what issuance returns to the transport layer.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	SessionID        string
	// UserID is the principal the pair was issued to. For renewals it is the
	// user resolved from the session, since refresh tokens carry no subject.
	UserID           string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RevokeResult acknowledges a revocation. RefreshToken is always empty and
// ClearCredentials always true: the transport should drop its stored
// refresh credential.
type RevokeResult struct {
	RefreshToken     string
	ClearCredentials bool
}

// RevocationCheck decides whether a cryptographically valid refresh token
// may still be used. A nil return accepts it.
type RevocationCheck func(ctx context.Context, token string, claims *jwt.RefreshClaims) error
