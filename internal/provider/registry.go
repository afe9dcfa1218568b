package provider

import (
	"sync"

	"github.com/openbb/platform-core/internal/openbberr"
	"github.com/openbb/platform-core/internal/schema"
)

// Registry tracks registered provider descriptors and which models each
// one covers. Registration happens single-threaded at startup; Freeze
// makes the registry read-only for the life of the process.
type Registry struct {
	mu      sync.RWMutex
	schemas *schema.Registry
	byName  map[string]Descriptor
	order   []string
	frozen  bool

	// onFreeze callbacks run exactly once, inside the freeze transition.
	onFreeze []func()
}

// NewRegistry creates a provider registry validating against the given
// schema registry.
func NewRegistry(schemas *schema.Registry) *Registry {
	return &Registry{
		schemas: schemas,
		byName:  make(map[string]Descriptor),
	}
}

// Register validates and adds a provider descriptor. Every model the
// descriptor references must already exist in the schema registry, and
// credential names must be unique within the descriptor.
func (r *Registry) Register(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return openbberr.New(openbberr.KindRegistryFrozen, "cannot register provider %q after freeze", d.Name)
	}
	if d.Name == "" {
		return openbberr.New(openbberr.KindInvalidProvider, "provider descriptor has no name")
	}
	if _, exists := r.byName[d.Name]; exists {
		return openbberr.New(openbberr.KindInvalidProvider, "provider %q already registered", d.Name)
	}

	seen := make(map[string]struct{}, len(d.CredentialNames))
	for _, c := range d.CredentialNames {
		if _, dup := seen[c]; dup {
			return openbberr.New(openbberr.KindInvalidProvider, "provider %q declares credential %q twice", d.Name, c)
		}
		seen[c] = struct{}{}
	}

	for modelName, cov := range d.Models {
		if !r.schemas.Has(modelName) {
			return openbberr.New(openbberr.KindInvalidProvider, "provider %q references unknown model %q", d.Name, modelName)
		}
		if cov.Fetcher == nil {
			return openbberr.New(openbberr.KindInvalidProvider, "provider %q has no fetcher for model %q", d.Name, modelName)
		}
	}

	r.byName[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Get returns the descriptor for a provider name.
func (r *Registry) Get(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, openbberr.New(openbberr.KindUnknownProvider, "provider %q not registered", name)
	}
	return d, nil
}

// Names returns provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ProvidersFor returns the providers covering a model, in registration
// order.
func (r *Registry) ProvidersFor(modelName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, name := range r.order {
		if _, ok := r.byName[name].Models[modelName]; ok {
			out = append(out, name)
		}
	}
	return out
}

// CredentialChecker reports whether the user holds every credential a
// provider requires. Implemented by the credential vault.
type CredentialChecker interface {
	HasAllRequired(credentialNames []string) bool
}

// DefaultProvider resolves the provider for a model when the caller gave
// no explicit hint. Resolution order: the user's route default, then the
// first registered provider the user has credentials for, then the first
// registered provider.
func (r *Registry) DefaultProvider(modelName string, routeDefault string, creds CredentialChecker) (string, error) {
	candidates := r.ProvidersFor(modelName)
	if len(candidates) == 0 {
		return "", openbberr.New(openbberr.KindNoProviderAvailable, "no provider covers model %q", modelName)
	}

	if routeDefault != "" {
		for _, name := range candidates {
			if name == routeDefault {
				return name, nil
			}
		}
	}

	if creds != nil {
		for _, name := range candidates {
			d := r.byName[name]
			if creds.HasAllRequired(d.CredentialNames) {
				return name, nil
			}
		}
	}

	return candidates[0], nil
}

// Coverage is the bipartite relation between models and providers.
type Coverage struct {
	CommandCoverage  map[string][]string `json:"command_coverage"`
	ProviderCoverage map[string][]string `json:"provider_coverage"`
}

// Coverage returns both directions of the model/provider relation.
// Provider lists follow registration order; model lists follow schema
// registration order.
func (r *Registry) Coverage() Coverage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cov := Coverage{
		CommandCoverage:  make(map[string][]string),
		ProviderCoverage: make(map[string][]string),
	}
	for _, modelName := range r.schemas.Names() {
		for _, provName := range r.order {
			if _, ok := r.byName[provName].Models[modelName]; ok {
				cov.CommandCoverage[modelName] = append(cov.CommandCoverage[modelName], provName)
				cov.ProviderCoverage[provName] = append(cov.ProviderCoverage[provName], modelName)
			}
		}
	}
	return cov
}

// OnFreeze registers a callback invoked exactly once when the registry
// freezes. Used by the composer to invalidate its memoized schemas.
func (r *Registry) OnFreeze(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		fn()
		return
	}
	r.onFreeze = append(r.onFreeze, fn)
}

// Freeze makes the registry read-only and fires freeze callbacks.
// Idempotent; callbacks fire only on the first call.
func (r *Registry) Freeze() {
	r.mu.Lock()
	if r.frozen {
		r.mu.Unlock()
		return
	}
	r.frozen = true
	callbacks := r.onFreeze
	r.onFreeze = nil
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}
