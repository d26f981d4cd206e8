package main

import (
	"fmt"

	"github.com/jrsteele09/go-oauth-broker/pkce"
	"github.com/spf13/cobra"
)

func newPKCECmd() *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "pkce",
		Short: "Print a fresh PKCE verifier and its S256 challenge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := pkce.NewPair(length)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "code_verifier:  %s\ncode_challenge: %s\n", pair.Verifier, pair.Challenge)
			return nil
		},
	}
	cmd.Flags().IntVar(&length, "length", pkce.DefaultVerifierLength, "verifier length (43-128)")
	return cmd
}
