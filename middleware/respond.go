package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/MrEthical07/authchain"
)

type failureBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind authchain.Kind) int {
	switch kind {
	case authchain.KindUnauthorized, authchain.KindSessionExpired:
		return http.StatusUnauthorized
	case authchain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteFailure writes err as {"error": kind, "message": msg}. Only the public
// form of err is written.
func WriteFailure(w http.ResponseWriter, err error) {
	f := authchain.Public(err)
	if f == nil {
		f = authchain.Public(authchain.ErrInternal)
	}
	WriteJSON(w, StatusFor(f.Kind), failureBody{Error: f.Kind.String(), Message: f.Message})
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
