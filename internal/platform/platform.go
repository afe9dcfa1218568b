// Package platform assembles the per-process root: schema and provider
// registries, credential vault, composer, dispatcher, and command map.
// The root is built once during startup, frozen, and passed by reference
// into every surface; tests construct a fresh root instead of sharing
// process globals.
package platform

import (
	"go.uber.org/zap"

	"github.com/openbb/platform-core/internal/command"
	"github.com/openbb/platform-core/internal/compose"
	"github.com/openbb/platform-core/internal/config"
	"github.com/openbb/platform-core/internal/credentials"
	"github.com/openbb/platform-core/internal/dispatch"
	"github.com/openbb/platform-core/internal/models"
	"github.com/openbb/platform-core/internal/provider"
	"github.com/openbb/platform-core/internal/schema"
)

// Platform is the process root.
type Platform struct {
	Schemas    *schema.Registry
	Providers  *provider.Registry
	Vault      *credentials.Vault
	Composer   *compose.Composer
	Dispatcher *dispatch.Dispatcher
	Commands   *command.Map
	Settings   *config.Settings
}

// New builds and freezes a platform root from settings and the resolved
// provider descriptors. Registration order follows the descriptor slice.
func New(settings *config.Settings, descriptors []provider.Descriptor) (*Platform, error) {
	schemas := schema.NewRegistry()
	if err := models.RegisterAll(schemas); err != nil {
		return nil, err
	}

	providers := provider.NewRegistry(schemas)
	composer := compose.NewComposer(schemas, providers)

	for _, d := range descriptors {
		if err := providers.Register(d); err != nil {
			return nil, err
		}
		zap.L().Debug("registered provider",
			zap.String("provider", d.Name),
			zap.Int("models", len(d.Models)),
		)
	}

	schemas.Freeze()
	providers.Freeze()

	vault := credentials.NewVault(settings.User.Credentials)
	dispatcher := dispatch.New(providers, composer, vault, settings.User.RouteDefaults())

	return &Platform{
		Schemas:    schemas,
		Providers:  providers,
		Vault:      vault,
		Composer:   composer,
		Dispatcher: dispatcher,
		Commands:   command.Build(schemas, providers),
		Settings:   settings,
	}, nil
}
