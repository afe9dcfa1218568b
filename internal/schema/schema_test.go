package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbb/platform-core/internal/openbberr"
)

func testModel(name, route string) Model {
	return Model{
		Name:  name,
		Route: route,
		Query: NewQuerySchema(
			Field{Name: "symbol", Kind: KindSymbol},
		),
		Data: NewDataSchema(
			Field{Name: "date", Kind: KindDate},
			Field{Name: "close", Kind: KindFloat},
		),
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testModel("EquityHistorical", "/equity/price/historical")))

	m, err := r.Lookup("EquityHistorical")
	require.NoError(t, err)
	assert.Equal(t, "/equity/price/historical", m.Route)

	_, err = r.Lookup("Nope")
	assert.True(t, openbberr.IsKind(err, openbberr.KindUnknownModel))
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testModel("CompanyNews", "/news/company")))

	err := r.Register(testModel("CompanyNews", "/news/company"))
	assert.True(t, openbberr.IsKind(err, openbberr.KindDuplicateModel))
}

func TestRegistry_Freeze(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testModel("A", "/a")))

	r.Freeze()
	assert.True(t, r.Frozen())

	err := r.Register(testModel("B", "/b"))
	assert.True(t, openbberr.IsKind(err, openbberr.KindRegistryFrozen))

	// Existing registrations stay readable.
	_, err = r.Lookup("A")
	assert.NoError(t, err)
}

func TestRegistry_NamesOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testModel("B", "/b")))
	require.NoError(t, r.Register(testModel("A", "/a")))
	require.NoError(t, r.Register(testModel("C", "/c")))

	assert.Equal(t, []string{"B", "A", "C"}, r.Names())
}

func TestQuerySchema_Lookup(t *testing.T) {
	s := NewQuerySchema(
		Field{Name: "symbol", Kind: KindSymbol},
		Field{Name: "limit", Kind: KindInt, Optional: true},
	)

	f, ok := s.Lookup("limit")
	require.True(t, ok)
	assert.Equal(t, KindInt, f.Kind)

	_, ok = s.Lookup("nope")
	assert.False(t, ok)
}

func TestField_CompatibleWith(t *testing.T) {
	a := Field{Name: "source", Kind: KindString}
	b := Field{Name: "source", Kind: KindString}
	c := Field{Name: "source", Kind: KindList, Elem: KindString}

	assert.True(t, a.CompatibleWith(b))
	assert.False(t, a.CompatibleWith(c))
}
