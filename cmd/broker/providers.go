package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jrsteele09/go-oauth-broker/providers"
	"github.com/spf13/cobra"
)

func newProvidersCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the provider profiles the broker would serve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := providers.Default()
			if file != "" {
				overrides, err := providers.LoadFile(file)
				if err != nil {
					return err
				}
				if registry, err = registry.With(overrides...); err != nil {
					return err
				}
			}
			renderProviders(cmd, registry)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", os.Getenv("PROVIDERS_FILE"), "YAML file with provider overrides")
	return cmd
}

func renderProviders(cmd *cobra.Command, registry *providers.Registry) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("PKCE"),
		text.FgHiCyan.Sprint("SCOPE"),
		text.FgHiCyan.Sprint("AUTHORIZATION ENDPOINT"),
		text.FgHiCyan.Sprint("TOKEN ENDPOINT"),
	})
	for _, p := range registry.List() {
		pkce := text.FgYellow.Sprint("no")
		if p.PKCERequired {
			pkce = text.FgGreen.Sprint("yes")
		}
		t.AppendRow(table.Row{p.Name, pkce, truncate(p.Scope, 60), p.AuthorizationEndpoint, p.TokenEndpoint})
	}
	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "%d providers\n", len(registry.List()))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
