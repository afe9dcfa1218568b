package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openbb/platform-core/internal/config"
	"github.com/openbb/platform-core/internal/openbberr"
	"github.com/openbb/platform-core/internal/platform"
	"github.com/openbb/platform-core/internal/plugins"
	"github.com/openbb/platform-core/internal/provider"
	"github.com/openbb/platform-core/providers/fmp"
	"github.com/openbb/platform-core/providers/polygon"
)

var settings *config.Settings

var rootCmd = &cobra.Command{
	Use:   "openbb",
	Short: "Unified financial data access platform",
	Long:  "Dispatches standardized data queries to installed provider plug-ins and returns uniformly shaped results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load()
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		settings = s

		if err := config.InitLogger(settings.System); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// installed maps plug-in names to their descriptor constructors. Adding a
// provider package means adding one line here.
func installed() map[string]plugins.Builder {
	return map[string]plugins.Builder{
		fmp.Name:     func() provider.Descriptor { return fmp.Descriptor() },
		polygon.Name: func() provider.Descriptor { return polygon.Descriptor() },
	}
}

// buildPlatform assembles the frozen process root from settings and the
// plug-in manifest (providers.yaml in the settings directory, optional).
func buildPlatform() (*platform.Platform, error) {
	var manifest *plugins.Manifest
	manifestPath := filepath.Join(config.Dir(), "providers.yaml")
	if _, err := os.Stat(manifestPath); err == nil {
		m, err := plugins.LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		manifest = m
	}

	descriptors, err := plugins.Resolve(manifest, installed())
	if err != nil {
		return nil, err
	}

	return platform.New(settings, descriptors)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(openbberr.ExitCode(err))
	}
}
