// Package compose computes, per model, the merged view across every
// provider covering it: the standard query params, the provider choices,
// and the tagged union of provider-specific extras.
package compose

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/openbb/platform-core/internal/openbberr"
	"github.com/openbb/platform-core/internal/provider"
	"github.com/openbb/platform-core/internal/schema"
)

// MergedField is an extra query field in the union, tagged with every
// provider that declares it.
type MergedField struct {
	schema.Field
	Providers []string `json:"providers"`
}

// Merged is the composed interface for one model.
type Merged struct {
	Model     schema.Model
	Providers []string      // enum of provider names covering the model
	Standard  schema.QuerySchema
	Extras    []MergedField // union of provider extras, stable order

	// extrasByProvider indexes, per provider, the extra fields that
	// provider recognizes (under the name the coercer should use).
	extrasByProvider map[string][]schema.Field
}

// ExtrasFor returns the extra fields the given provider recognizes,
// including fields it owns under a provider-namespaced name.
func (m *Merged) ExtrasFor(providerName string) []schema.Field {
	return m.extrasByProvider[providerName]
}

// DataColumns returns the envelope column order: standard data fields
// first, provider extras appended by the envelope builder as encountered.
func (m *Merged) DataColumns() []string {
	cols := make([]string, len(m.Model.Data.Fields))
	for i, f := range m.Model.Data.Fields {
		cols[i] = f.Name
	}
	return cols
}

// Composer memoizes merged schemas per model. The cache is rebuilt lazily
// on first access after the provider registry freezes; freeze invalidates
// it exactly once.
type Composer struct {
	schemas   *schema.Registry
	providers *provider.Registry

	mu    sync.RWMutex
	cache map[string]*Merged
	group singleflight.Group
}

// NewComposer creates a composer bound to the given registries and hooks
// cache invalidation into the provider registry's freeze transition.
func NewComposer(schemas *schema.Registry, providers *provider.Registry) *Composer {
	c := &Composer{
		schemas:   schemas,
		providers: providers,
		cache:     make(map[string]*Merged),
	}
	providers.OnFreeze(c.invalidate)
	return c
}

func (c *Composer) invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]*Merged)
	c.mu.Unlock()
}

// Merged returns the composed interface for a model, building it on first
// access. Concurrent first accesses collapse into a single build.
func (c *Composer) Merged(modelName string) (*Merged, error) {
	c.mu.RLock()
	if m, ok := c.cache[modelName]; ok {
		c.mu.RUnlock()
		return m, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(modelName, func() (any, error) {
		m, err := c.build(modelName)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[modelName] = m
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Merged), nil
}

func (c *Composer) build(modelName string) (*Merged, error) {
	model, err := c.schemas.Lookup(modelName)
	if err != nil {
		return nil, err
	}

	names := c.providers.ProvidersFor(modelName)
	m := &Merged{
		Model:            model,
		Providers:        names,
		Standard:         model.Query,
		extrasByProvider: make(map[string][]schema.Field, len(names)),
	}

	// Union of extras in first-declared order. Same name with a compatible
	// kind collapses into one field; an incompatible kind is kept under a
	// provider-namespaced name.
	index := make(map[string]int)
	for _, provName := range names {
		desc, err := c.providers.Get(provName)
		if err != nil {
			return nil, err
		}
		cov := desc.Models[modelName]
		for _, extra := range cov.Extras {
			field, err := toSchemaField(extra, provName)
			if err != nil {
				return nil, openbberr.Wrap(openbberr.KindInvalidProvider, err,
					"provider %q extra %q for model %q", provName, extra.Name, modelName)
			}
			if _, std := model.Query.Lookup(field.Name); std {
				// Standard fields shadow provider extras of the same name.
				continue
			}

			i, seen := index[field.Name]
			switch {
			case !seen:
				index[field.Name] = len(m.Extras)
				m.Extras = append(m.Extras, MergedField{Field: field, Providers: []string{provName}})
				m.extrasByProvider[provName] = append(m.extrasByProvider[provName], field)
			case m.Extras[i].CompatibleWith(field):
				m.Extras[i].Providers = append(m.Extras[i].Providers, provName)
				m.extrasByProvider[provName] = append(m.extrasByProvider[provName], m.Extras[i].Field)
			default:
				ns := field
				ns.Name = provName + "." + field.Name
				index[ns.Name] = len(m.Extras)
				m.Extras = append(m.Extras, MergedField{Field: ns, Providers: []string{provName}})
				m.extrasByProvider[provName] = append(m.extrasByProvider[provName], ns)
			}
		}
	}

	return m, nil
}

func toSchemaField(e provider.ExtraField, provName string) (schema.Field, error) {
	kind := schema.Kind(e.Kind)
	switch kind {
	case schema.KindString, schema.KindInt, schema.KindFloat, schema.KindBool,
		schema.KindDate, schema.KindDateTime, schema.KindSymbol, schema.KindEnum, schema.KindList:
	default:
		return schema.Field{}, fmt.Errorf("unknown field kind %q", e.Kind)
	}
	return schema.Field{
		Name:        e.Name,
		Kind:        kind,
		Elem:        schema.Kind(e.Elem),
		Optional:    e.Optional,
		Default:     e.Default,
		Description: e.Description,
		Provider:    provName,
	}, nil
}
