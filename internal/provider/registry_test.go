package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbb/platform-core/internal/openbberr"
	"github.com/openbb/platform-core/internal/schema"
)

// fakeFetcher satisfies Fetcher for registration tests.
type fakeFetcher struct{}

func (fakeFetcher) TransformQuery(params map[string]any) (Query, error) {
	return Query(params), nil
}

func (fakeFetcher) ExtractData(_ context.Context, _ Query, _ Credentials) (RawBatch, error) {
	return nil, nil
}

func (fakeFetcher) TransformData(_ context.Context, _ Query, _ RawBatch, _ Credentials) (*Result, error) {
	return &Result{}, nil
}

func newSchemas(t *testing.T, names ...string) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()
	for _, n := range names {
		require.NoError(t, r.Register(schema.Model{
			Name:  n,
			Route: "/" + n,
			Query: schema.NewQuerySchema(schema.Field{Name: "symbol", Kind: schema.KindSymbol}),
			Data:  schema.NewDataSchema(schema.Field{Name: "date", Kind: schema.KindDate}),
		}))
	}
	return r
}

func descriptor(name string, creds []string, modelNames ...string) Descriptor {
	d := Descriptor{
		Name:            name,
		CredentialNames: creds,
		Models:          make(map[string]ModelCoverage, len(modelNames)),
	}
	for _, m := range modelNames {
		d.Models[m] = ModelCoverage{Fetcher: fakeFetcher{}}
	}
	return d
}

func TestRegistry_Register_UnknownModel(t *testing.T) {
	r := NewRegistry(newSchemas(t, "EquityHistorical"))

	err := r.Register(descriptor("p1", nil, "NotAModel"))
	assert.True(t, openbberr.IsKind(err, openbberr.KindInvalidProvider))
}

func TestRegistry_Register_DuplicateCredential(t *testing.T) {
	r := NewRegistry(newSchemas(t, "EquityHistorical"))

	err := r.Register(descriptor("p1", []string{"key", "key"}, "EquityHistorical"))
	assert.True(t, openbberr.IsKind(err, openbberr.KindInvalidProvider))
}

func TestRegistry_Register_NilFetcher(t *testing.T) {
	r := NewRegistry(newSchemas(t, "EquityHistorical"))

	err := r.Register(Descriptor{
		Name:   "p1",
		Models: map[string]ModelCoverage{"EquityHistorical": {}},
	})
	assert.True(t, openbberr.IsKind(err, openbberr.KindInvalidProvider))
}

func TestRegistry_ProvidersFor_RegistrationOrder(t *testing.T) {
	r := NewRegistry(newSchemas(t, "EquityHistorical", "CompanyNews"))
	require.NoError(t, r.Register(descriptor("p1", nil, "EquityHistorical", "CompanyNews")))
	require.NoError(t, r.Register(descriptor("p2", nil, "CompanyNews")))

	assert.Equal(t, []string{"p1"}, r.ProvidersFor("EquityHistorical"))
	assert.Equal(t, []string{"p1", "p2"}, r.ProvidersFor("CompanyNews"))
	assert.Empty(t, r.ProvidersFor("Nope"))
}

type fakeChecker struct {
	have map[string]bool
}

func (f fakeChecker) HasAllRequired(names []string) bool {
	for _, n := range names {
		if !f.have[n] {
			return false
		}
	}
	return true
}

func TestRegistry_DefaultProvider(t *testing.T) {
	r := NewRegistry(newSchemas(t, "CompanyNews"))
	require.NoError(t, r.Register(descriptor("p1", []string{"p1_key"}, "CompanyNews")))
	require.NoError(t, r.Register(descriptor("p2", []string{"p2_key"}, "CompanyNews")))

	t.Run("route default wins", func(t *testing.T) {
		got, err := r.DefaultProvider("CompanyNews", "p2", nil)
		require.NoError(t, err)
		assert.Equal(t, "p2", got)
	})

	t.Run("credentialed provider wins", func(t *testing.T) {
		got, err := r.DefaultProvider("CompanyNews", "", fakeChecker{have: map[string]bool{"p2_key": true}})
		require.NoError(t, err)
		assert.Equal(t, "p2", got)
	})

	t.Run("first registered as fallback", func(t *testing.T) {
		got, err := r.DefaultProvider("CompanyNews", "", fakeChecker{have: map[string]bool{}})
		require.NoError(t, err)
		assert.Equal(t, "p1", got)
	})

	t.Run("no coverage", func(t *testing.T) {
		_, err := r.DefaultProvider("Nope", "", nil)
		assert.True(t, openbberr.IsKind(err, openbberr.KindNoProviderAvailable))
	})
}

func TestRegistry_Coverage(t *testing.T) {
	r := NewRegistry(newSchemas(t, "EquityHistorical", "CompanyNews"))
	require.NoError(t, r.Register(descriptor("p1", nil, "EquityHistorical", "CompanyNews")))
	require.NoError(t, r.Register(descriptor("p2", nil, "CompanyNews")))

	cov := r.Coverage()
	assert.Equal(t, map[string][]string{
		"EquityHistorical": {"p1"},
		"CompanyNews":      {"p1", "p2"},
	}, cov.CommandCoverage)
	assert.Equal(t, map[string][]string{
		"p1": {"EquityHistorical", "CompanyNews"},
		"p2": {"CompanyNews"},
	}, cov.ProviderCoverage)
}

func TestRegistry_Freeze(t *testing.T) {
	r := NewRegistry(newSchemas(t, "CompanyNews"))
	require.NoError(t, r.Register(descriptor("p1", nil, "CompanyNews")))

	fired := 0
	r.OnFreeze(func() { fired++ })

	r.Freeze()
	r.Freeze() // idempotent; callback fires once
	assert.Equal(t, 1, fired)

	err := r.Register(descriptor("p2", nil, "CompanyNews"))
	assert.True(t, openbberr.IsKind(err, openbberr.KindRegistryFrozen))

	// Registering a callback after freeze runs it immediately.
	late := false
	r.OnFreeze(func() { late = true })
	assert.True(t, late)
}
