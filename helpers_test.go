package authchain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authchain/jwt"
	"github.com/MrEthical07/authchain/password"
	"github.com/MrEthical07/authchain/revocation"
	"github.com/MrEthical07/authchain/session"
)

type memoryUsers struct {
	mu       sync.Mutex
	byID     map[string]*UserRecord
	loginIPs map[string][]string
	failWith error
}

func newMemoryUsers(records ...*UserRecord) *memoryUsers {
	u := &memoryUsers{byID: make(map[string]*UserRecord), loginIPs: make(map[string][]string)}
	for _, r := range records {
		u.byID[r.ID] = r
	}
	return u
}

func (u *memoryUsers) FindByUsername(_ context.Context, username string) (*UserRecord, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failWith != nil {
		return nil, u.failWith
	}
	for _, r := range u.byID {
		if r.Username == username {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNoSuchUser
}

func (u *memoryUsers) FindByID(_ context.Context, id string) (*UserRecord, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failWith != nil {
		return nil, u.failWith
	}
	r, ok := u.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (u *memoryUsers) RecordLoginIP(_ context.Context, userID, ip string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.loginIPs[userID] = append(u.loginIPs[userID], ip)
	if r, ok := u.byID[userID]; ok {
		r.LastLoginIP = ip
	}
	return nil
}

func (u *memoryUsers) setActive(id string, active bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.byID[id].Active = active
}

func (u *memoryUsers) ips(id string) []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.loginIPs[id]...)
}

func fastPasswords(t *testing.T) *password.Chain {
	t.Helper()
	primary, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	chain, err := password.NewChain(primary)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	return chain
}

func mustHash(t *testing.T, chain *password.Chain, pw string) string {
	t.Helper()
	h, err := chain.Hash(pw)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	return h
}

func testKeys(t *testing.T) (priv, pub []byte) {
	t.Helper()
	priv, pub, err := jwt.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	return priv, pub
}

type fixture struct {
	users       *memoryUsers
	passwords   *password.Chain
	registry    *Registry
	cache       *session.MemoryCache
	revocations *revocation.MemoryStore
	service     *TokenService
	tokens      *TokenStrategy
	metrics     *Metrics
}

const testPassword = "correct-horse-battery"

// newFixture wires a registry, service and strategies the way Build does,
// over in-memory stores.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		passwords:   fastPasswords(t),
		registry:    NewRegistry(),
		cache:       session.NewMemoryCache(0),
		revocations: revocation.NewMemoryStore(),
		metrics:     NewMetrics(MetricsConfig{Enabled: true, LatencyHistograms: true}),
	}
	t.Cleanup(func() { _ = f.cache.Close() })

	f.users = newMemoryUsers(
		&UserRecord{ID: "u1", Username: "alice", PasswordHash: mustHash(t, f.passwords, testPassword), Roles: []string{"admin", "editor"}, Active: true},
		&UserRecord{ID: "u2", Username: "bob", PasswordHash: mustHash(t, f.passwords, testPassword), Roles: []string{"viewer"}, Active: false},
	)

	var err error
	f.service, err = NewTokenService(ServiceConfig{
		Issuer:     "authchain-test",
		Audience:   "api",
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}, f.registry, f.cache, f.revocations, f.users, nil, f.metrics)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	priv, _ := testKeys(t)
	f.tokens, err = NewTokenStrategy(TokenStrategyConfig{
		PrivateKey: priv,
		Issuer:     "authchain-test",
		Audience:   "api",
		Revocation: f.service.CheckRevocation,
		Metrics:    f.metrics,
	})
	if err != nil {
		t.Fatalf("NewTokenStrategy: %v", err)
	}
	creds, err := NewCredentialStrategy(f.users, f.passwords, nil)
	if err != nil {
		t.Fatalf("NewCredentialStrategy: %v", err)
	}
	for _, s := range []Strategy{creds, f.tokens} {
		if err := f.registry.Register(s); err != nil {
			t.Fatalf("Register(%s): %v", s.Name(), err)
		}
	}
	return f
}

// refreshClaims verifies a refresh token through the registry.
func (f *fixture) refreshClaims(t *testing.T, token string) *jwt.RefreshClaims {
	t.Helper()
	v, err := f.registry.Authenticate(context.Background(), StrategyToken, &Request{RefreshToken: token})
	if err != nil {
		t.Fatalf("verify refresh token: %v", err)
	}
	if v.Refresh == nil {
		t.Fatal("expected refresh claims")
	}
	return v.Refresh
}

func assertKind(t *testing.T, err error, want *Failure) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v (%s), got %v", want, want.Kind, err)
	}
}
