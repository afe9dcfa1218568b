// Package schema holds the standard query and data schemas for every
// logical model the platform exposes. Schemas are declarative descriptors
// registered explicitly at startup; nothing is derived from runtime type
// introspection.
package schema

import (
	"sync"

	"github.com/openbb/platform-core/internal/openbberr"
)

// Kind is the semantic type tag of a schema field.
type Kind string

const (
	KindString   Kind = "string"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindBool     Kind = "bool"
	KindDate     Kind = "date"
	KindDateTime Kind = "datetime"
	KindSymbol   Kind = "symbol"
	KindEnum     Kind = "enum"
	KindList     Kind = "list"
)

// Field describes one named field of a query or data schema.
type Field struct {
	Name        string      `json:"name"`
	Kind        Kind        `json:"kind"`
	Elem        Kind        `json:"elem,omitempty"`    // element kind when Kind is list
	Choices     []string    `json:"choices,omitempty"` // allowed values when Kind is enum
	Optional    bool        `json:"optional"`
	Default     any         `json:"default,omitempty"`
	Description string      `json:"description,omitempty"`
	Validators  []Validator `json:"-"`

	// Provider tags an extra field with its originating provider. Empty for
	// standard fields.
	Provider string `json:"provider,omitempty"`
}

// Scalar reports whether the field holds a single value (not a list).
func (f Field) Scalar() bool {
	return f.Kind != KindList
}

// CompatibleWith reports whether two field declarations can collapse into
// one when merging provider extras.
func (f Field) CompatibleWith(other Field) bool {
	return f.Kind == other.Kind && f.Elem == other.Elem
}

// QuerySchema is an ordered set of query parameter fields.
type QuerySchema struct {
	Fields []Field
	byName map[string]int
}

// NewQuerySchema builds an indexed query schema. Field order is preserved.
func NewQuerySchema(fields ...Field) QuerySchema {
	s := QuerySchema{Fields: fields, byName: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.byName[f.Name] = i
	}
	return s
}

// Lookup returns the field with the given name.
func (s QuerySchema) Lookup(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// DataSchema is the minimal set of fields every provider must return for a
// model. Providers may return additional fields; those are preserved as
// open extension fields on each record, never dropped.
type DataSchema struct {
	Fields []Field
	byName map[string]int
}

// NewDataSchema builds an indexed data schema.
func NewDataSchema(fields ...Field) DataSchema {
	s := DataSchema{Fields: fields, byName: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.byName[f.Name] = i
	}
	return s
}

// Lookup returns the field with the given name.
func (s DataSchema) Lookup(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Model binds a model name to its route and standard schemas.
type Model struct {
	Name  string
	Route string
	Query QuerySchema
	Data  DataSchema
}

// Registry holds every registered model. Write-once during startup:
// registration is single-threaded, Freeze is a one-way transition after
// which the registry is read-only and safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Model
	order  []string
	frozen bool
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]Model)}
}

// Register adds a model. Fails with DuplicateModel when the name is taken
// and RegistryFrozen after Freeze.
func (r *Registry) Register(m Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return openbberr.New(openbberr.KindRegistryFrozen, "cannot register model %q after freeze", m.Name)
	}
	if _, exists := r.models[m.Name]; exists {
		return openbberr.New(openbberr.KindDuplicateModel, "model %q already registered", m.Name)
	}
	r.models[m.Name] = m
	r.order = append(r.order, m.Name)
	return nil
}

// Lookup returns the model for the given name.
func (r *Registry) Lookup(name string) (Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	if !ok {
		return Model{}, openbberr.New(openbberr.KindUnknownModel, "model %q not registered", name)
	}
	return m, nil
}

// Has reports whether the model name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.models[name]
	return ok
}

// Names returns model names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Freeze makes the registry read-only. Idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}
