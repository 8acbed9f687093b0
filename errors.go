package authchain

import (
	"errors"
	"fmt"
)

// Kind classifies a Failure.
type Kind uint8

const (
	KindUnauthorized Kind = iota + 1
	KindForbidden
	KindSessionExpired
	KindUnsupportedStrategy
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindSessionExpired:
		return "session_expired"
	case KindUnsupportedStrategy:
		return "unsupported_strategy"
	case KindServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Failure is the only error type returned across the package boundary.
// Message is safe to show to callers; the wrapped cause is for logs only.
type Failure struct {
	Kind    Kind
	Message string
	cause   error
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return f.Kind.String()
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.cause }

// Is matches another Failure of the same kind. A target without a message
// matches every failure of its kind.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Kind == f.Kind && (t.Message == "" || t.Message == f.Message)
}

func (f *Failure) withCause(err error) *Failure {
	return &Failure{Kind: f.Kind, Message: f.Message, cause: err}
}

// Kind sentinels.
var (
	ErrUnauthorized        = &Failure{Kind: KindUnauthorized}
	ErrForbidden           = &Failure{Kind: KindForbidden}
	ErrSessionExpired      = &Failure{Kind: KindSessionExpired}
	ErrUnsupportedStrategy = &Failure{Kind: KindUnsupportedStrategy}
	ErrServerError         = &Failure{Kind: KindServerError}
)

var (
	ErrInvalidCredentials = &Failure{Kind: KindUnauthorized, Message: "invalid username or password"}
	ErrNoToken            = &Failure{Kind: KindUnauthorized, Message: "no token provided"}
	ErrInvalidToken       = &Failure{Kind: KindUnauthorized, Message: "invalid token"}
	ErrTokenExpired       = &Failure{Kind: KindUnauthorized, Message: "token has expired"}
	ErrVerifyTimeout      = &Failure{Kind: KindUnauthorized, Message: "token verification timed out"}
	ErrRefreshRequired    = &Failure{Kind: KindUnauthorized, Message: "refresh token required"}
	ErrInvalidSecret      = &Failure{Kind: KindUnauthorized, Message: "invalid secret key"}

	ErrUserNotFound    = &Failure{Kind: KindForbidden, Message: "user not found"}
	ErrAccountInactive = &Failure{Kind: KindForbidden, Message: "account is inactive"}
	ErrTokenRevoked    = &Failure{Kind: KindForbidden, Message: "refresh token has been revoked"}

	ErrSessionRestart = &Failure{Kind: KindSessionExpired, Message: "session expired, login required"}

	ErrInternal = &Failure{Kind: KindServerError, Message: "internal server error"}
)

func unsupportedStrategy(name string) *Failure {
	return &Failure{Kind: KindUnsupportedStrategy, Message: fmt.Sprintf("unsupported strategy %q", name)}
}

func serverError(cause error) *Failure {
	return ErrInternal.withCause(cause)
}

// KindOf returns the kind of err, KindServerError for foreign errors and
// zero for nil.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindServerError
}

// Public returns the caller-safe form of err: a Failure without its cause.
// Errors that are not Failures become the generic server error.
func Public(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if !errors.As(err, &f) {
		return &Failure{Kind: ErrInternal.Kind, Message: ErrInternal.Message}
	}
	return &Failure{Kind: f.Kind, Message: f.Error()}
}

// asFailure passes Failures through and converts anything else into a
// server error carrying it as cause.
func asFailure(err error) error {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return serverError(err)
}
