package envelope

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbb/platform-core/internal/provider"
)

func sampleEnvelope() *Envelope {
	return NewBuilder("fmp", "/equity/price/historical").
		WithCallID("call-1").
		WithArguments(map[string]any{"symbol": "AAPL"}).
		WithColumns([]string{"date", "close"}).
		WithDuration(4123456 * time.Nanosecond).
		WithResult(&provider.Result{
			Records: []provider.Record{
				{"date": "2024-07-29", "close": 218.24, "adj_close": 218.0},
				{"date": "2024-07-30", "close": 220.10},
			},
			Metadata: map[string]any{"symbol": "AAPL"},
		}).
		Build()
}

func TestBuilder_Assembles(t *testing.T) {
	env := sampleEnvelope()

	assert.Equal(t, "fmp", env.Provider)
	assert.Equal(t, "/equity/price/historical", env.Extra.Metadata.Route)
	assert.Equal(t, int64(4123456), env.Extra.Metadata.Duration)
	assert.Equal(t, map[string]any{"symbol": "AAPL"}, env.Extra.Metadata.Arguments)
	assert.Len(t, env.Results, 2)
	assert.NotNil(t, env.Warnings)
	assert.Empty(t, env.Warnings)
	assert.False(t, env.Cancelled)
	assert.False(t, env.Empty())
}

func TestBuilder_ArgumentsCopied(t *testing.T) {
	args := map[string]any{"symbol": "AAPL"}
	env := NewBuilder("fmp", "/r").WithArguments(args).Build()

	args["symbol"] = "MSFT"
	assert.Equal(t, "AAPL", env.Extra.Metadata.Arguments["symbol"])
}

func TestBuilder_Cancelled(t *testing.T) {
	env := NewBuilder("fmp", "/r").Cancelled().Build()
	assert.True(t, env.Cancelled)
	assert.Empty(t, env.Results)
	assert.NotNil(t, env.Results)
}

func TestBuilder_HoistsResultWarnings(t *testing.T) {
	env := NewBuilder("fmp", "/r").
		WithWarnings(provider.Warning{Category: "OpenBBWarning", Message: "from coercion"}).
		WithResult(&provider.Result{
			Records:  []provider.Record{{"date": "2024-01-01"}},
			Warnings: []provider.Warning{{Category: "OpenBBWarning", Message: "from provider"}},
		}).
		Build()

	require.Len(t, env.Warnings, 2)
	assert.Equal(t, "from coercion", env.Warnings[0].Message)
	assert.Equal(t, "from provider", env.Warnings[1].Message)
}

func TestToDF_ColumnOrder(t *testing.T) {
	env := sampleEnvelope()
	table := env.ToDF()

	// Standard columns first, extension fields after.
	assert.Equal(t, []string{"date", "close", "adj_close"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []any{"2024-07-29", 218.24, 218.0}, table.Rows[0])
	assert.Equal(t, []any{"2024-07-30", 220.10, nil}, table.Rows[1])
}

func TestToDF_Memoized(t *testing.T) {
	env := sampleEnvelope()
	assert.Same(t, env.ToDF(), env.ToDF())
}

func TestToDict_Records(t *testing.T) {
	env := sampleEnvelope()

	got, err := env.ToDict("records")
	require.NoError(t, err)
	records := got.([]map[string]any)
	require.Len(t, records, 2)
	assert.Equal(t, 218.24, records[0]["close"])
}

func TestToDict_DefaultList(t *testing.T) {
	env := sampleEnvelope()

	got, err := env.ToDict("")
	require.NoError(t, err)
	byColumn := got.(map[string][]any)
	assert.Equal(t, []any{218.24, 220.10}, byColumn["close"])
}

func TestToDict_AllOrients(t *testing.T) {
	env := sampleEnvelope()
	for _, orient := range []string{"records", "list", "dict", "series", "split", "tight", "index"} {
		_, err := env.ToDict(orient)
		assert.NoError(t, err, orient)
	}

	_, err := env.ToDict("sideways")
	assert.Error(t, err)
}

func TestToDict_RoundTripsTable(t *testing.T) {
	env := sampleEnvelope()

	got, err := env.ToDict("records")
	require.NoError(t, err)
	records := got.([]map[string]any)

	rebuilt := NewBuilder(env.Provider, env.Extra.Metadata.Route).
		WithColumns([]string{"date", "close"})
	recs := make([]provider.Record, len(records))
	for i, r := range records {
		recs[i] = provider.Record(r)
	}
	rebuilt.WithResult(&provider.Result{Records: recs})

	assert.Equal(t, env.ToDF(), rebuilt.Build().ToDF())
}

func TestToColumns(t *testing.T) {
	env := sampleEnvelope()
	cols := env.ToColumns()
	assert.Equal(t, []any{"2024-07-29", "2024-07-30"}, cols["date"])
}

func TestToCSV(t *testing.T) {
	env := sampleEnvelope()
	out, err := env.ToCSV()
	require.NoError(t, err)
	assert.Contains(t, out, "date,close,adj_close\n")
	assert.Contains(t, out, "2024-07-29,218.24,218\n")
}

func TestToLLM(t *testing.T) {
	env := sampleEnvelope()
	out := env.ToLLM()
	assert.Contains(t, out, "route=/equity/price/historical provider=fmp")
	assert.Contains(t, out, "date|close|adj_close")
	assert.Contains(t, out, "2024-07-29|218.24|218")
}

func TestEnvelope_JSONRoundTrip(t *testing.T) {
	env := sampleEnvelope()

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, env.Provider, decoded.Provider)
	assert.Equal(t, env.Extra.Metadata.Route, decoded.Extra.Metadata.Route)
	assert.Len(t, decoded.Results, len(env.Results))
	assert.Equal(t, env.Warnings, decoded.Warnings)
	assert.Equal(t, "2024-07-29", decoded.Results[0]["date"])
}
