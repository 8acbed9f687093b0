package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authchain CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authchain",
		Short: "authchain - token issuance and verification engine",
		Long: `authchain authenticates requests through a chain of strategies
(credentials, tokens, secret key) and manages rotating refresh sessions.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewKeygenCmd())
	cmd.AddCommand(NewServeCmd())

	return cmd
}
