package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/authchain/jwt"
)

const (
	privateKeyFile = "jwt_private.pem"
	publicKeyFile  = "jwt_public.pem"
)

// NewKeygenCmd creates the keygen subcommand.
func NewKeygenCmd() *cobra.Command {
	var (
		outDir string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an Ed25519 signing key pair",
		Long: `Write a PKCS#8 private key and a PKIX public key, both PEM encoded,
to jwt_private.pem and jwt_public.pem in the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			priv, pub, err := writeKeyPair(outDir, force)
			if err != nil {
				return err
			}
			cmd.Printf("wrote %s\nwrote %s\n", priv, pub)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory to write the key files to")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	return cmd
}

func writeKeyPair(dir string, force bool) (privPath, pubPath string, err error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}
	privPath = filepath.Join(dir, privateKeyFile)
	pubPath = filepath.Join(dir, publicKeyFile)
	if !force {
		for _, p := range []string{privPath, pubPath} {
			if _, err := os.Stat(p); err == nil {
				return "", "", fmt.Errorf("%s already exists (use --force to overwrite)", p)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return "", "", err
			}
		}
	}

	priv, pub, err := jwt.GenerateKeyPair()
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(privPath, priv, 0o600); err != nil {
		return "", "", fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(pubPath, pub, 0o644); err != nil {
		return "", "", fmt.Errorf("write public key: %w", err)
	}
	return privPath, pubPath, nil
}
