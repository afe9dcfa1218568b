// Package command indexes registered operations against the models and
// providers that serve them. It is a derived, read-only view over the
// schema and provider registries, built once after both freeze.
package command

import (
	"sort"

	"github.com/openbb/platform-core/internal/provider"
	"github.com/openbb/platform-core/internal/schema"
)

// Command is one logical operation callers can dispatch.
type Command struct {
	Route     string   `json:"route"`
	Model     string   `json:"model"`
	Providers []string `json:"providers"`
}

// Map answers "who covers what?" for coverage endpoints and the static
// command facade generator.
type Map struct {
	byRoute    map[string]Command
	byProvider map[string][]string
	routes     []string
}

// Build derives the command map from frozen registries.
func Build(schemas *schema.Registry, providers *provider.Registry) *Map {
	m := &Map{
		byRoute:    make(map[string]Command),
		byProvider: make(map[string][]string),
	}
	for _, modelName := range schemas.Names() {
		model, err := schemas.Lookup(modelName)
		if err != nil {
			continue
		}
		covering := providers.ProvidersFor(modelName)
		m.byRoute[model.Route] = Command{
			Route:     model.Route,
			Model:     modelName,
			Providers: covering,
		}
		m.routes = append(m.routes, model.Route)
		for _, p := range covering {
			m.byProvider[p] = append(m.byProvider[p], model.Route)
		}
	}
	sort.Strings(m.routes)
	return m
}

// ListCommands returns every registered route, sorted.
func (m *Map) ListCommands() []string {
	out := make([]string, len(m.routes))
	copy(out, m.routes)
	return out
}

// Get returns the command registered at a route.
func (m *Map) Get(route string) (Command, bool) {
	c, ok := m.byRoute[route]
	return c, ok
}

// ProvidersFor returns the providers covering a command route.
func (m *Map) ProvidersFor(route string) []string {
	return m.byRoute[route].Providers
}

// CommandsFor returns the command routes a provider covers.
func (m *Map) CommandsFor(providerName string) []string {
	return m.byProvider[providerName]
}
