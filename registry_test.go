package authchain

import (
	"bytes"
	"context"
	"slices"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/authchain/jwt"
)

func TestRegistryRegister(t *testing.T) {
	priv, _ := testKeys(t)
	reg := NewRegistry()

	if err := reg.Register(nil); err == nil {
		t.Fatal("expected nil strategy to fail")
	}

	tokens, err := NewTokenStrategy(TokenStrategyConfig{PrivateKey: priv})
	if err != nil {
		t.Fatalf("NewTokenStrategy: %v", err)
	}
	secret, _ := NewSecretKeyStrategy("s3cret")
	for _, s := range []Strategy{tokens, secret} {
		if err := reg.Register(s); err != nil {
			t.Fatalf("Register(%s): %v", s.Name(), err)
		}
	}
	if err := reg.Register(tokens); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if got := reg.Names(); !slices.Equal(got, []string{StrategyToken, StrategySecretKey}) {
		t.Fatalf("Names() = %v", got)
	}
}

func TestRegistryRejectsUnimportableKey(t *testing.T) {
	priv, pub := testKeys(t)
	tokens, err := NewTokenStrategy(TokenStrategyConfig{PrivateKey: priv, PublicKey: pub})
	if err != nil {
		t.Fatalf("NewTokenStrategy: %v", err)
	}
	tokens.signingKey = []byte("not a key")

	reg := NewRegistry()
	if err := reg.Register(tokens); err == nil {
		t.Fatal("expected registration with a bad signing key to fail")
	}
	if _, ok := reg.Lookup(StrategyToken); ok {
		t.Fatal("failed registration must not leave the strategy behind")
	}
}

func TestRegistrySecretKeyFor(t *testing.T) {
	f := newFixture(t)

	key, ok := f.registry.SecretKeyFor(StrategyToken)
	if !ok || len(key) == 0 {
		t.Fatal("expected token strategy key")
	}
	original := bytes.Clone(key)
	for i := range key {
		key[i] = 0
	}
	again, _ := f.registry.SecretKeyFor(StrategyToken)
	if !bytes.Equal(again, original) {
		t.Fatal("SecretKeyFor must return a copy of the key material")
	}

	if _, ok := f.registry.SecretKeyFor(StrategyCredentials); ok {
		t.Fatal("credential strategy has no key")
	}
	if _, ok := f.registry.SecretKeyFor("nope"); ok {
		t.Fatal("unknown strategy has no key")
	}
}

func TestRegistrySignToken(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	claims := &jwt.AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "authchain-test",
		Audience:  gjwt.ClaimStrings{"api"},
		NotBefore: gjwt.NewNumericDate(now),
		ExpiresAt: gjwt.NewNumericDate(now.Add(time.Minute)),
	}}

	token, err := f.registry.SignToken(StrategyToken, claims)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	v, err := f.registry.Authenticate(context.Background(), StrategyToken, &Request{AccessToken: token})
	if err != nil || v.Access.Subject != "u1" {
		t.Fatalf("signed token did not verify: %v", err)
	}

	_, err = f.registry.SignToken("unknown", claims)
	assertKind(t, err, ErrUnsupportedStrategy)
	_, err = f.registry.SignToken(StrategyCredentials, claims)
	assertKind(t, err, ErrUnsupportedStrategy)
}

func TestRegistryAuthenticateUnknownStrategy(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Authenticate(context.Background(), "ldap", &Request{})
	assertKind(t, err, ErrUnsupportedStrategy)
	if KindOf(err) != KindUnsupportedStrategy {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
}

func TestRegistryKeyIDPropagates(t *testing.T) {
	priv, _ := testKeys(t)
	tokens, err := NewTokenStrategy(TokenStrategyConfig{PrivateKey: priv, KeyID: "k1"})
	if err != nil {
		t.Fatalf("NewTokenStrategy: %v", err)
	}
	reg := NewRegistry()
	if err := reg.Register(tokens); err != nil {
		t.Fatalf("Register: %v", err)
	}
	now := time.Now()
	token, err := reg.SignToken(StrategyToken, &jwt.AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
		NotBefore: gjwt.NewNumericDate(now),
		ExpiresAt: gjwt.NewNumericDate(now.Add(time.Minute)),
	}})
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	parsed, _, err := gjwt.NewParser().ParseUnverified(token, &gjwt.RegisteredClaims{})
	if err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if parsed.Header["kid"] != "k1" {
		t.Fatalf("kid header = %v", parsed.Header["kid"])
	}
	if _, err := reg.Authenticate(context.Background(), StrategyToken, &Request{AccessToken: token}); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
