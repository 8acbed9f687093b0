package authchain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/authchain/jwt"
)

// Registry owns the ordered set of strategies and their imported signing keys.
//
// Strategies are registered during construction; lookups are safe for
// concurrent use afterwards.
type Registry struct {
	mu         sync.RWMutex
	strategies []Strategy
	signers    map[string]*jwt.Signer
}

// NewRegistry returns an empty registry. Register strategies before the
// registry is shared.
func NewRegistry() *Registry {
	return &Registry{signers: make(map[string]*jwt.Signer)}
}

// Register appends s. Keyed strategies have their signing key imported here,
// once; a key that cannot be imported fails registration.
func (r *Registry) Register(s Strategy) error {
	if s == nil {
		return errors.New("register nil strategy")
	}
	name := s.Name()
	if name == "" {
		return errors.New("strategy name must not be empty")
	}

	var signer *jwt.Signer
	if keyed, ok := s.(keyedStrategy); ok {
		var keyID string
		if ts, ok := s.(*TokenStrategy); ok {
			keyID = ts.verifierKeyID()
		}
		var err error
		signer, err = jwt.NewSigner(keyed.SigningKey(), keyID)
		if err != nil {
			return fmt.Errorf("strategy %q: import signing key: %w", name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.ContainsFunc(r.strategies, func(e Strategy) bool { return e.Name() == name }) {
		return fmt.Errorf("strategy %q already registered", name)
	}
	r.strategies = append(r.strategies, s)
	if signer != nil {
		r.signers[name] = signer
	}
	return nil
}

// Lookup returns the strategy registered under name.
func (r *Registry) Lookup(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.strategies {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Names lists registered strategies in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// SecretKeyFor returns a copy of the named strategy's signing material. It
// reports false for unknown and keyless strategies.
func (r *Registry) SecretKeyFor(name string) ([]byte, bool) {
	s, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	keyed, ok := s.(keyedStrategy)
	if !ok {
		return nil, false
	}
	return slices.Clone(keyed.SigningKey()), true
}

// SignToken signs claims with the named strategy's key.
func (r *Registry) SignToken(name string, claims gjwt.Claims) (string, error) {
	r.mu.RLock()
	signer, ok := r.signers[name]
	r.mu.RUnlock()
	if !ok {
		return "", unsupportedStrategy(name)
	}
	token, err := signer.Sign(claims)
	if err != nil {
		return "", serverError(err)
	}
	return token, nil
}

// Authenticate dispatches req to the named strategy.
func (r *Registry) Authenticate(ctx context.Context, name string, req *Request) (*Verification, error) {
	s, ok := r.Lookup(name)
	if !ok {
		return nil, unsupportedStrategy(name)
	}
	if req == nil {
		req = &Request{}
	}
	v, err := s.Verify(ctx, req)
	if err != nil {
		return nil, asFailure(err)
	}
	return v, nil
}
