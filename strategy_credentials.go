package authchain

import (
	"context"
	"errors"
	"log/slog"
)

// PasswordVerifier compares passwords with stored hashes. *password.Chain
// implements it.
type PasswordVerifier interface {
	Verify(password, encoded string) (bool, error)
	// VerifyDummy spends the cost of a comparison that cannot succeed.
	VerifyDummy(password string)
}

// CredentialStrategy checks a username and password against a UserStore.
type CredentialStrategy struct {
	name      string
	users     UserStore
	passwords PasswordVerifier
	logger    *slog.Logger
}

// NewCredentialStrategy requires both collaborators.
func NewCredentialStrategy(users UserStore, passwords PasswordVerifier, logger *slog.Logger) (*CredentialStrategy, error) {
	if users == nil {
		return nil, errors.New("credential strategy requires a user store")
	}
	if passwords == nil {
		return nil, errors.New("credential strategy requires a password verifier")
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &CredentialStrategy{
		name:      StrategyCredentials,
		users:     users,
		passwords: passwords,
		logger:    logger,
	}, nil
}

func (s *CredentialStrategy) Name() string     { return s.name }
func (s *CredentialStrategy) Variant() Variant { return VariantCredential }
func (s *CredentialStrategy) sealed()          {}

// Verify returns ErrInvalidCredentials for unknown users and wrong passwords
// alike, after equal hashing work. The last login IP is recorded whenever the
// user exists, before the password is checked.
func (s *CredentialStrategy) Verify(ctx context.Context, req *Request) (*Verification, error) {
	if req.Username == "" {
		s.passwords.VerifyDummy(req.Password)
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, ErrNoSuchUser) {
		logError(ctx, s.logger, "user lookup failed", err)
		return nil, serverError(err)
	}
	if user == nil {
		s.passwords.VerifyDummy(req.Password)
		return nil, ErrInvalidCredentials
	}

	if ip := sourceIP(ctx, req); ip != "" {
		if err := s.users.RecordLoginIP(ctx, user.ID, ip); err != nil {
			s.logger.WarnContext(ctx, "record login ip failed",
				slog.String("user_id", user.ID), slog.String("error", err.Error()))
		}
	}

	ok, err := s.passwords.Verify(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.WarnContext(ctx, "stored password hash unusable",
			slog.String("user_id", user.ID), slog.String("error", err.Error()))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return &Verification{Strategy: s.name, Principal: user.principal()}, nil
}
