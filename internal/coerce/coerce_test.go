package coerce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbb/platform-core/internal/compose"
	"github.com/openbb/platform-core/internal/openbberr"
	"github.com/openbb/platform-core/internal/provider"
	"github.com/openbb/platform-core/internal/schema"
)

type fakeFetcher struct{}

func (fakeFetcher) TransformQuery(params map[string]any) (provider.Query, error) {
	return provider.Query(params), nil
}

func (fakeFetcher) ExtractData(_ context.Context, _ provider.Query, _ provider.Credentials) (provider.RawBatch, error) {
	return nil, nil
}

func (fakeFetcher) TransformData(_ context.Context, _ provider.Query, _ provider.RawBatch, _ provider.Credentials) (*provider.Result, error) {
	return &provider.Result{}, nil
}

func newMerged(t *testing.T) *compose.Merged {
	t.Helper()
	schemas := schema.NewRegistry()
	require.NoError(t, schemas.Register(schema.Model{
		Name:  "EquityHistorical",
		Route: "/equity/price/historical",
		Query: schema.NewQuerySchema(
			schema.Field{
				Name:       "symbol",
				Kind:       schema.KindSymbol,
				Validators: []schema.Validator{schema.SingleValue(), schema.UpperCase()},
			},
			schema.Field{Name: "start_date", Kind: schema.KindDate, Optional: true},
			schema.Field{
				Name: "interval", Kind: schema.KindEnum,
				Choices: []string{"1d", "1W"}, Default: "1d", Optional: true,
			},
			schema.Field{Name: "symbols_watch", Kind: schema.KindList, Elem: schema.KindSymbol, Optional: true},
		),
		Data: schema.NewDataSchema(
			schema.Field{Name: "date", Kind: schema.KindDate},
			schema.Field{Name: "close", Kind: schema.KindFloat},
		),
	}))

	providers := provider.NewRegistry(schemas)
	require.NoError(t, providers.Register(provider.Descriptor{
		Name: "p1",
		Models: map[string]provider.ModelCoverage{
			"EquityHistorical": {
				Fetcher: fakeFetcher{},
				Extras: []provider.ExtraField{
					{Name: "adjusted", Kind: "bool", Optional: true, Default: true},
				},
			},
		},
	}))

	composer := compose.NewComposer(schemas, providers)
	m, err := composer.Merged("EquityHistorical")
	require.NoError(t, err)
	return m
}

func TestCoerce_HappyPath(t *testing.T) {
	m := newMerged(t)

	got, err := Coerce(m, "p1", map[string]any{
		"symbol":     "aapl",
		"start_date": "2024-01-02",
		"adjusted":   "false",
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", got.Params["symbol"])
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got.Params["start_date"])
	assert.Equal(t, "1d", got.Params["interval"]) // default applied
	assert.Equal(t, false, got.Params["adjusted"])
	assert.Empty(t, got.Warnings)
}

func TestCoerce_SingleValueRejectsComma(t *testing.T) {
	m := newMerged(t)

	_, err := Coerce(m, "p1", map[string]any{"symbol": "AAPL,MSFT"})
	require.Error(t, err)
	assert.True(t, openbberr.IsKind(err, openbberr.KindValidationFailed))

	var oe *openbberr.Error
	require.True(t, errors.As(err, &oe))
	require.Len(t, oe.Fields, 1)
	assert.Equal(t, "symbol", oe.Fields[0].Field)
}

func TestCoerce_ListFieldAcceptsCommas(t *testing.T) {
	m := newMerged(t)

	got, err := Coerce(m, "p1", map[string]any{
		"symbol":        "AAPL",
		"symbols_watch": "AAPL, MSFT,GOOG",
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"AAPL", "MSFT", "GOOG"}, got.Params["symbols_watch"])
}

func TestCoerce_AggregatesAllFieldErrors(t *testing.T) {
	m := newMerged(t)

	_, err := Coerce(m, "p1", map[string]any{
		"symbol":     "AAPL,MSFT",
		"start_date": "not-a-date",
		"interval":   "fortnightly",
	})
	require.Error(t, err)

	var oe *openbberr.Error
	require.True(t, errors.As(err, &oe))
	assert.Len(t, oe.Fields, 3)
}

func TestCoerce_MandatoryMissing(t *testing.T) {
	m := newMerged(t)

	_, err := Coerce(m, "p1", map[string]any{})
	require.Error(t, err)

	var oe *openbberr.Error
	require.True(t, errors.As(err, &oe))
	require.Len(t, oe.Fields, 1)
	assert.Equal(t, "symbol", oe.Fields[0].Field)
}

func TestCoerce_UnusedParameterWarning(t *testing.T) {
	m := newMerged(t)

	got, err := Coerce(m, "p1", map[string]any{
		"symbol":     "AAPL",
		"sort_order": "desc",
	})
	require.NoError(t, err)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, WarningCategory, got.Warnings[0].Category)
	assert.Contains(t, got.Warnings[0].Message, "sort_order")

	// The unused key never reaches the fetcher-bound params.
	_, present := got.Params["sort_order"]
	assert.False(t, present)
}

func TestCoerce_Idempotent(t *testing.T) {
	m := newMerged(t)

	first, err := Coerce(m, "p1", map[string]any{
		"symbol":        "aapl",
		"start_date":    "2024-01-02",
		"symbols_watch": "AAPL,MSFT",
		"adjusted":      true,
	})
	require.NoError(t, err)

	second, err := Coerce(m, "p1", first.Params)
	require.NoError(t, err)
	assert.Equal(t, first.Params, second.Params)
	assert.Empty(t, second.Warnings)
}

func TestCoerce_TypeCoercions(t *testing.T) {
	schemas := schema.NewRegistry()
	require.NoError(t, schemas.Register(schema.Model{
		Name:  "M",
		Route: "/m",
		Query: schema.NewQuerySchema(
			schema.Field{Name: "count", Kind: schema.KindInt, Optional: true},
			schema.Field{Name: "ratio", Kind: schema.KindFloat, Optional: true},
			schema.Field{Name: "flag", Kind: schema.KindBool, Optional: true},
			schema.Field{Name: "when", Kind: schema.KindDateTime, Optional: true},
		),
		Data: schema.NewDataSchema(schema.Field{Name: "date", Kind: schema.KindDate}),
	}))
	providers := provider.NewRegistry(schemas)
	require.NoError(t, providers.Register(provider.Descriptor{
		Name:   "p1",
		Models: map[string]provider.ModelCoverage{"M": {Fetcher: fakeFetcher{}}},
	}))
	m, err := compose.NewComposer(schemas, providers).Merged("M")
	require.NoError(t, err)

	got, err := Coerce(m, "p1", map[string]any{
		"count": "42",
		"ratio": "0.5",
		"flag":  "true",
		"when":  "2024-07-30T12:34:56Z",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got.Params["count"])
	assert.Equal(t, 0.5, got.Params["ratio"])
	assert.Equal(t, true, got.Params["flag"])
	assert.Equal(t, time.Date(2024, 7, 30, 12, 34, 56, 0, time.UTC), got.Params["when"])
}
