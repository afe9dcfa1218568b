package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Show which providers cover which operations",
}

var coverageCommandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List operations with their covering providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPlatform()
		if err != nil {
			return err
		}
		return printJSON(p.Providers.Coverage().CommandCoverage)
	},
}

var coverageProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List providers with the operations they cover",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPlatform()
		if err != nil {
			return err
		}
		return printJSON(p.Providers.Coverage().ProviderCoverage)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	coverageCmd.AddCommand(coverageCommandsCmd)
	coverageCmd.AddCommand(coverageProvidersCmd)
	rootCmd.AddCommand(coverageCmd)
}
