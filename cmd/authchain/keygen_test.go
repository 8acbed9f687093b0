package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrEthical07/authchain/jwt"
)

func TestKeygenWritesUsablePair(t *testing.T) {
	dir := t.TempDir()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"keygen", "--out-dir", dir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("keygen: %v", err)
	}

	privPEM, err := os.ReadFile(filepath.Join(dir, privateKeyFile))
	if err != nil {
		t.Fatal(err)
	}
	pubPEM, err := os.ReadFile(filepath.Join(dir, publicKeyFile))
	if err != nil {
		t.Fatal(err)
	}
	priv, err := jwt.ParsePrivateKey(privPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	pub, err := jwt.ParsePublicKey(pubPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if !pub.Equal(priv.Public()) {
		t.Fatal("public key does not match private key")
	}

	info, err := os.Stat(filepath.Join(dir, privateKeyFile))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("private key mode = %v", info.Mode().Perm())
	}
	if !strings.Contains(out.String(), privateKeyFile) {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestKeygenRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := writeKeyPair(dir, false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	before, _ := os.ReadFile(filepath.Join(dir, privateKeyFile))

	if _, _, err := writeKeyPair(dir, false); err == nil {
		t.Fatal("expected existing keys to be kept")
	}
	if _, _, err := writeKeyPair(dir, true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	after, _ := os.ReadFile(filepath.Join(dir, privateKeyFile))
	if bytes.Equal(before, after) {
		t.Fatal("forced write must replace the key")
	}
}
