package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "oauth-broker",
		Short: "Broker OAuth2 logins for third party integrations",
		Long: `oauth-broker runs the authorization code grant (with PKCE where the
provider supports it) on behalf of an application and hands the resulting
tokens to the application's backend.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "oauth-broker version %s\n" .Version}}`)
	root.AddCommand(newServeCmd(), newProvidersCmd(), newPKCECmd())
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute(version string) {
	if err := newRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}
