package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List installed providers and their credential status",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPlatform()
		if err != nil {
			return err
		}

		for _, name := range p.Providers.Names() {
			d, err := p.Providers.Get(name)
			if err != nil {
				return err
			}
			status := "ready"
			if !p.Vault.HasAllRequired(d.CredentialNames) {
				status = "missing credentials"
			}
			fmt.Printf("%-12s %-20s %s\n", d.Name, status, d.Website)
			for _, route := range p.Commands.CommandsFor(name) {
				fmt.Printf("    %s\n", route)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
