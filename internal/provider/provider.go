// Package provider defines the plug-in contract for external data providers
// and the process-wide registry that tracks which provider covers which
// model.
package provider

import (
	"context"
	"time"
)

// Query is the provider-shaped query produced by TransformQuery. Keys are
// the provider's own parameter names; the dispatcher treats it as opaque.
type Query map[string]any

// RawBatch is the undecoded (or minimally decoded) payload returned by
// ExtractData. Its concrete shape is private to the fetcher.
type RawBatch any

// Record is a single normalized data row. Fields beyond the model's
// standard data schema are preserved as-is, never dropped.
type Record map[string]any

// Warning is a non-fatal annotation accumulated on the result envelope.
type Warning struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Result is the output of TransformData: normalized records plus optional
// free-form metadata (the annotated-result shape) and per-record warnings
// surfaced during provider-side validation.
type Result struct {
	Records  []Record
	Metadata map[string]any
	Warnings []Warning
}

// Credentials maps credential names to secret values for one fetch. Passed
// by value into each call; fetchers must not retain it.
type Credentials map[string]string

// Fetcher is the per-model capability a provider exposes. Each step is a
// pure function of its declared inputs; fetchers carry no mutable state
// across invocations.
//
// TransformQuery must not perform I/O. ExtractData is the only step
// expected to suspend on the network; TransformData may, when decoding
// requires a follow-up request.
type Fetcher interface {
	TransformQuery(params map[string]any) (Query, error)
	ExtractData(ctx context.Context, query Query, creds Credentials) (RawBatch, error)
	TransformData(ctx context.Context, query Query, raw RawBatch, creds Credentials) (*Result, error)
}

// ExtraField declares a provider-specific query parameter beyond the
// model's standard schema.
type ExtraField struct {
	Name        string
	Kind        string // schema.Kind value; plain string to keep descriptors declarative
	Elem        string
	Optional    bool
	Default     any
	Description string
}

// ModelCoverage binds a fetcher to a model, with the provider's extra
// query parameters.
type ModelCoverage struct {
	Fetcher Fetcher
	Extras  []ExtraField
}

// Descriptor is the single registration object a provider package exposes.
type Descriptor struct {
	Name            string
	Website         string
	Description     string
	ReprName        string
	LogoURL         string
	CredentialNames []string
	Models          map[string]ModelCoverage
}

// DefaultTimeout is the per-call deadline applied to ExtractData when the
// caller does not configure one.
const DefaultTimeout = 10 * time.Second
