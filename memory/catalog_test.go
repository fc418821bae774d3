package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

func TestCatalogLookupsAreCaseInsensitive(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	cat := NewCatalog()
	cat.AddTable(NewTable("Orders", sql.Schema{{Name: "id", Type: types.Int64}}))

	tbl, err := cat.Table(ctx, "ORDERS")
	require.NoError(err)
	require.Equal("Orders", tbl.Name())
	require.False(tbl.IsValueTable())

	_, err = cat.Table(ctx, "missing")
	require.Error(err)
	require.True(sql.ErrTableNotFound.Is(err))

	fn, err := cat.Function(ctx, "SUM")
	require.NoError(err)
	require.Equal(sql.AggregateFunction, fn.Kind)

	_, err = cat.Function(ctx, "missing")
	require.Error(err)
	require.True(sql.ErrFunctionNotFound.Is(err))
}

func TestCatalogNamesAreSorted(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	cat := NewCatalog()
	cat.AddTable(NewTable("zebra", nil))
	cat.AddTable(NewTable("alpha", nil))

	require.Equal([]string{"alpha", "zebra"}, cat.TableNames(ctx))

	fns := cat.FunctionNames(ctx)
	require.NotEmpty(fns)
	for i := 1; i < len(fns); i++ {
		require.LessOrEqual(fns[i-1], fns[i])
	}
}

func TestValueTable(t *testing.T) {
	require := require.New(t)

	vt := NewValueTable("events", sql.Schema{{Name: "payload", Type: types.String}})
	require.True(vt.IsValueTable())
	require.Len(vt.Schema(), 1)
}
