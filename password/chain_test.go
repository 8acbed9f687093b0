package password

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestChain(t *testing.T) *Chain {
	t.Helper()
	legacy, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	chain, err := NewChain(newTestArgon2(t, testConfig()), legacy)
	if err != nil {
		t.Fatalf("NewChain error: %v", err)
	}
	return chain
}

func TestChainHashesWithPrimary(t *testing.T) {
	chain := newTestChain(t)
	hash, err := chain.Hash("primary-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if ok, err := chain.Verify("primary-password", hash); err != nil || !ok {
		t.Fatalf("expected argon2 verification: ok=%v err=%v", ok, err)
	}
}

func TestChainVerifiesLegacyBcrypt(t *testing.T) {
	chain := newTestChain(t)
	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	if ok, err := chain.Verify("legacy-password", string(legacy)); err != nil || !ok {
		t.Fatalf("expected bcrypt verification: ok=%v err=%v", ok, err)
	}
	if ok, err := chain.Verify("other-password", string(legacy)); err != nil || ok {
		t.Fatalf("expected bcrypt mismatch: ok=%v err=%v", ok, err)
	}
}

func TestChainUnknownHashFamily(t *testing.T) {
	chain := newTestChain(t)
	if _, err := chain.Verify("anything", "$md5$abc"); !errors.Is(err, ErrUnsupportedHash) {
		t.Fatalf("expected ErrUnsupportedHash, got %v", err)
	}
}

func TestChainVerifyDummyDoesNotPanic(t *testing.T) {
	chain := newTestChain(t)
	chain.VerifyDummy("")
	chain.VerifyDummy("some-password")
}

func TestNewChainRequiresPrimary(t *testing.T) {
	if _, err := NewChain(nil); err == nil {
		t.Fatal("expected nil primary to fail")
	}
}
