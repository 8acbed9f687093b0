package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/authchain"
	"github.com/MrEthical07/authchain/middleware"
)

const maxBodyBytes = 1 << 16

type server struct {
	engine *authchain.Engine
	users  *userStore
	cookie *middleware.RefreshCookie
	logger *slog.Logger
	// trustForwarded takes the client IP from X-Forwarded-For.
	trustForwarded bool
}

type credentialsBody struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles,omitempty"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	SessionID   string    `json:"session_id"`
}

// routes mounts the demo API. metrics may be nil.
func (s *server) routes(metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("POST /refresh", s.refresh)
	mux.HandleFunc("POST /logout", s.logout)
	mux.HandleFunc("POST /accounts", s.createAccount)
	mux.Handle("GET /me", middleware.Require(s.engine, authchain.StrategyToken)(http.HandlerFunc(s.me)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	if s.trustForwarded {
		return middleware.ForwardedFor(mux)
	}
	return mux
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if !decodeBody(w, r, &body) {
		return
	}
	pair, err := s.engine.Login(r.Context(), &authchain.Request{HTTP: r, Username: body.Username, Password: body.Password})
	if err != nil {
		middleware.WriteFailure(w, err)
		return
	}
	s.writePair(w, pair)
}

func (s *server) refresh(w http.ResponseWriter, r *http.Request) {
	pair, err := s.engine.Refresh(r.Context(), &authchain.Request{HTTP: r})
	if err != nil {
		if authchain.KindOf(err) == authchain.KindSessionExpired || errors.Is(err, authchain.ErrTokenRevoked) {
			s.cookie.Clear(w)
		}
		middleware.WriteFailure(w, err)
		return
	}
	s.writePair(w, pair)
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Logout(r.Context(), &authchain.Request{HTTP: r})
	if err != nil {
		middleware.WriteFailure(w, err)
		return
	}
	if res.ClearCredentials {
		s.cookie.Clear(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) createAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.AuthorizeSecret(r.Context(), &authchain.Request{HTTP: r}); err != nil {
		middleware.WriteFailure(w, err)
		return
	}
	var body credentialsBody
	if !decodeBody(w, r, &body) {
		return
	}
	rec, err := s.users.create("", body.Username, body.Password, body.Roles, true)
	switch {
	case errors.Is(err, errUsernameTaken):
		middleware.WriteJSON(w, http.StatusConflict, map[string]string{"error": "conflict", "message": err.Error()})
		return
	case err != nil:
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "message": err.Error()})
		return
	}
	s.logger.InfoContext(r.Context(), "account created", slog.String("user_id", rec.ID))
	middleware.WriteJSON(w, http.StatusCreated, map[string]any{"id": rec.ID, "username": rec.Username, "roles": rec.Roles})
}

func (s *server) me(w http.ResponseWriter, r *http.Request) {
	v, ok := authchain.VerificationFromContext(r.Context())
	if !ok || v.Access == nil {
		middleware.WriteFailure(w, authchain.ErrInvalidToken)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":    v.Access.Subject,
		"roles":      v.Access.Roles,
		"session_id": v.Access.ID,
	})
}

func (s *server) writePair(w http.ResponseWriter, pair *authchain.TokenPair) {
	s.cookie.Set(w, pair.RefreshToken, pair.RefreshExpiresAt)
	middleware.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   pair.AccessExpiresAt,
		SessionID:   pair.SessionID,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "message": "malformed request body"})
		return false
	}
	return true
}
