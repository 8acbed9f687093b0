package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/authchain"
)

// Authenticator runs a named strategy. *authchain.Engine implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, name string, req *authchain.Request) (*authchain.Verification, error)
}

// Require verifies every request with the named strategy. Failures are
// written with [WriteFailure]; the wrapped handler only runs on success and
// finds the Verification via [authchain.VerificationFromContext].
func Require(engine Authenticator, strategy string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteFailure(w, authchain.ErrInternal)
				return
			}

			v, err := engine.Authenticate(r.Context(), strategy, &authchain.Request{HTTP: r})
			if err != nil {
				WriteFailure(w, err)
				return
			}

			ctx := authchain.WithVerification(r.Context(), v)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyRole must be mounted behind Require. Requests without an access
// verification are unauthorized; those lacking every listed role are
// forbidden.
func RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, ok := authchain.VerificationFromContext(r.Context())
			if !ok || v.Access == nil {
				WriteFailure(w, authchain.ErrUnauthorized)
				return
			}
			for _, have := range v.Access.Roles {
				for _, want := range roles {
					if have == want {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			WriteFailure(w, authchain.ErrForbidden)
		})
	}
}
