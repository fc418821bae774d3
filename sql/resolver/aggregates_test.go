package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

func TestGroupByKeyAndAggregate(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{
			aliased(path("a"), ""),
			aliased(fnCall("sum", path("v")), "total"),
		},
		From:    namedTable("t"),
		GroupBy: []ast.Expr{path("a")},
	}
	node := mustResolve(t, b, stmt)

	proj, ok := node.(*resolved.Project)
	require.True(ok)
	gb, ok := proj.Child.(*resolved.GroupBy)
	require.True(ok)
	require.Len(gb.Keys, 1)
	require.Len(gb.Aggs, 1)
	require.Equal("a", gb.Keys[0].Col.Name)

	agg, ok := gb.Aggs[0].Expr.(*resolved.AggregateCall)
	require.True(ok)
	require.Equal("sum", agg.Name)
	require.True(agg.Typ.Equals(types.Int64))

	// the select list references the post-grouping aggregate column
	cr, ok := proj.Projections[1].Expr.(*resolved.ColumnRef)
	require.True(ok)
	require.Equal(gb.Aggs[0].Col.Id, cr.Col.Id)
	require.Equal("total", proj.Projections[1].Col.Name)
}

func TestAggregateDeduplication(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{
			aliased(fnCall("sum", path("v")), "s1"),
			aliased(fnCall("sum", path("v")), "s2"),
		},
		From: namedTable("t"),
	}
	node := mustResolve(t, b, stmt)

	proj := node.(*resolved.Project)
	gb := proj.Child.(*resolved.GroupBy)
	require.Len(gb.Aggs, 1)

	c1 := proj.Projections[0].Expr.(*resolved.ColumnRef)
	c2 := proj.Projections[1].Expr.(*resolved.ColumnRef)
	require.Equal(c1.Col.Id, c2.Col.Id)
}

func TestGroupByExpressionMatchesSelectList(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	// SELECT a+1, SUM(v) ... GROUP BY a+1 groups by the same expression
	// regardless of where it was written
	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{
			aliased(add(path("a"), intLit("1")), "x"),
			aliased(fnCall("sum", path("v")), "s"),
		},
		From:    namedTable("t"),
		GroupBy: []ast.Expr{add(path("a"), intLit("1"))},
	}
	node := mustResolve(t, b, stmt)

	proj := node.(*resolved.Project)
	gb := proj.Child.(*resolved.GroupBy)
	require.Len(gb.Keys, 1)

	cr, ok := proj.Projections[0].Expr.(*resolved.ColumnRef)
	require.True(ok)
	require.Equal(gb.Keys[0].Col.Id, cr.Col.Id)
}

func TestGroupByAliasKey(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	// GROUP BY x re-expands the alias to its pre-grouping expression
	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{
			aliased(add(path("a"), intLit("1")), "x"),
			aliased(fnCall("sum", path("v")), "s"),
		},
		From:    namedTable("t"),
		GroupBy: []ast.Expr{path("x")},
	}
	node := mustResolve(t, b, stmt)

	gb := node.(*resolved.Project).Child.(*resolved.GroupBy)
	require.Len(gb.Keys, 1)
	_, isArith := gb.Keys[0].Expr.(*resolved.Arithmetic)
	require.True(isArith)
}

func TestGroupByOrdinal(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{
			aliased(path("a"), ""),
			aliased(fnCall("sum", path("v")), "s"),
		},
		From:    namedTable("t"),
		GroupBy: []ast.Expr{intLit("1")},
	}
	node := mustResolve(t, b, stmt)

	gb := node.(*resolved.Project).Child.(*resolved.GroupBy)
	require.Len(gb.Keys, 1)
	require.Equal("a", gb.Keys[0].Col.Name)
}

func TestGroupByOrdinalOutOfRange(t *testing.T) {
	b := newTestBuilder(testCatalog())

	stmt := &ast.Select{
		Exprs:   []ast.SelectExpr{aliased(path("a"), "")},
		From:    namedTable("t"),
		GroupBy: []ast.Expr{intLit("3")},
	}
	_, _, err := b.ResolveStatement(stmt, "")
	require.Error(t, err)
	require.True(t, sql.ErrOrdinalOutOfRange.Is(err))
}

func TestUngroupedColumnRejected(t *testing.T) {
	t.Run("select list", func(t *testing.T) {
		b := newTestBuilder(testCatalog())
		stmt := &ast.Select{
			Exprs:   []ast.SelectExpr{aliased(path("b"), "")},
			From:    namedTable("t"),
			GroupBy: []ast.Expr{path("a")},
		}
		_, _, err := b.ResolveStatement(stmt, "")
		require.Error(t, err)
		require.True(t, sql.ErrUngroupedColumn.Is(err))
		require.True(t, sql.IsStructuralError(err))
	})

	t.Run("implicit grouping", func(t *testing.T) {
		// an aggregate anywhere makes the whole block an aggregate query
		b := newTestBuilder(testCatalog())
		stmt := &ast.Select{
			Exprs: []ast.SelectExpr{
				aliased(path("b"), ""),
				aliased(fnCall("sum", path("v")), "s"),
			},
			From: namedTable("t"),
		}
		_, _, err := b.ResolveStatement(stmt, "")
		require.Error(t, err)
		require.True(t, sql.ErrUngroupedColumn.Is(err))
	})

	t.Run("having", func(t *testing.T) {
		b := newTestBuilder(testCatalog())
		stmt := &ast.Select{
			Exprs:   []ast.SelectExpr{aliased(path("b"), "")},
			From:    namedTable("t"),
			GroupBy: []ast.Expr{path("b")},
			Having:  gt(path("v"), intLit("1")),
		}
		_, _, err := b.ResolveStatement(stmt, "")
		require.Error(t, err)
		require.True(t, sql.ErrUngroupedColumn.Is(err))
	})

	t.Run("order by", func(t *testing.T) {
		b := newTestBuilder(testCatalog())
		stmt := &ast.Select{
			Exprs:   []ast.SelectExpr{aliased(path("b"), "")},
			From:    namedTable("t"),
			GroupBy: []ast.Expr{path("b")},
			OrderBy: []*ast.Order{{Expr: path("v")}},
		}
		_, _, err := b.ResolveStatement(stmt, "")
		require.Error(t, err)
		require.True(t, sql.ErrUngroupedColumn.Is(err))
	})
}

func TestHavingSharesAggregates(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	// SUM(v) in HAVING is the same aggregate as SUM(v) in the select list
	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{
			aliased(path("b"), ""),
			aliased(fnCall("sum", path("v")), "total"),
		},
		From:    namedTable("t"),
		GroupBy: []ast.Expr{path("b")},
		Having:  gt(fnCall("sum", path("v")), intLit("1")),
	}
	node := mustResolve(t, b, stmt)

	proj := node.(*resolved.Project)
	having, ok := proj.Child.(*resolved.Filter)
	require.True(ok)
	gb := having.Child.(*resolved.GroupBy)
	require.Len(gb.Aggs, 1)

	cmp := having.Cond.(*resolved.Comparison)
	cr := cmp.Left.(*resolved.ColumnRef)
	require.Equal(gb.Aggs[0].Col.Id, cr.Col.Id)
}

func TestHavingAliasTarget(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	// a select alias in HAVING re-expands to its defining expression
	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{
			aliased(path("b"), ""),
			aliased(fnCall("sum", path("v")), "total"),
		},
		From:    namedTable("t"),
		GroupBy: []ast.Expr{path("b")},
		Having:  gt(path("total"), intLit("0")),
	}
	node := mustResolve(t, b, stmt)

	having := node.(*resolved.Project).Child.(*resolved.Filter)
	gb := having.Child.(*resolved.GroupBy)
	cmp := having.Cond.(*resolved.Comparison)
	cr := cmp.Left.(*resolved.ColumnRef)
	require.Equal(gb.Aggs[0].Col.Id, cr.Col.Id)
}

func TestNestedAggregate(t *testing.T) {
	b := newTestBuilder(testCatalog())

	stmt := selectCols(namedTable("t"), aliased(fnCall("sum", fnCall("sum", path("v"))), "s"))
	_, _, err := b.ResolveStatement(stmt, "")
	require.Error(t, err)
	require.True(t, sql.ErrNestedAggregate.Is(err))
}

func TestAggregateNotAllowedInWhere(t *testing.T) {
	b := newTestBuilder(testCatalog())

	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{aliased(path("a"), "")},
		From:  namedTable("t"),
		Where: gt(fnCall("sum", path("v")), intLit("1")),
	}
	_, _, err := b.ResolveStatement(stmt, "")
	require.Error(t, err)
	require.True(t, sql.ErrAggregateNotAllowed.Is(err))
	require.Contains(t, err.Error(), "WHERE")
}

func TestCountStar(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	node := mustResolve(t, b, selectCols(namedTable("t"), aliased(fnCall("count", nil), "n")))

	gb := node.(*resolved.Project).Child.(*resolved.GroupBy)
	require.Empty(gb.Keys)
	require.Len(gb.Aggs, 1)
	agg := gb.Aggs[0].Expr.(*resolved.AggregateCall)
	require.Empty(agg.Args)
	require.True(agg.Typ.Equals(types.Int64))
}

func TestStarArgumentOnlyForAggregates(t *testing.T) {
	b := newTestBuilder(testCatalog())

	stmt := selectCols(namedTable("t"), aliased(fnCall("length", nil), "n"))
	_, _, err := b.ResolveStatement(stmt, "")
	require.Error(t, err)
	require.True(t, sql.ErrUnsupportedFeature.Is(err))
}

func TestDistinctAggregate(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	stmt := selectCols(namedTable("t"),
		aliased(&ast.FuncExpr{Name: "count", Args: []ast.Expr{path("b")}, Distinct: true}, "n"))
	node := mustResolve(t, b, stmt)

	gb := node.(*resolved.Project).Child.(*resolved.GroupBy)
	agg := gb.Aggs[0].Expr.(*resolved.AggregateCall)
	require.True(agg.Distinct)
}

func TestWindowFunction(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	stmt := selectCols(namedTable("t"),
		aliased(path("a"), ""),
		aliased(&ast.FuncExpr{
			Name: "row_number",
			Over: &ast.WindowDef{OrderBy: []*ast.Order{{Expr: path("v"), Desc: true}}},
		}, "rn"),
	)
	node := mustResolve(t, b, stmt)

	proj := node.(*resolved.Project)
	win, ok := proj.Child.(*resolved.Window)
	require.True(ok)
	require.Len(win.Funcs, 1)

	wc := win.Funcs[0].Expr.(*resolved.WindowCall)
	require.Equal("row_number", wc.Name)
	require.Len(wc.OrderBy, 1)
	require.True(wc.OrderBy[0].Desc)

	cr := proj.Projections[1].Expr.(*resolved.ColumnRef)
	require.Equal(win.Funcs[0].Col.Id, cr.Col.Id)
}

func TestWindowDeduplication(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	over := func() *ast.FuncExpr {
		return &ast.FuncExpr{
			Name: "rank",
			Over: &ast.WindowDef{OrderBy: []*ast.Order{{Expr: path("v")}}},
		}
	}
	stmt := selectCols(namedTable("t"), aliased(over(), "r1"), aliased(over(), "r2"))
	node := mustResolve(t, b, stmt)

	win := node.(*resolved.Project).Child.(*resolved.Window)
	require.Len(win.Funcs, 1)
}

func TestAggregateWithOverIsAnalytic(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	stmt := selectCols(namedTable("t"),
		aliased(&ast.FuncExpr{
			Name: "sum",
			Args: []ast.Expr{path("v")},
			Over: &ast.WindowDef{PartitionBy: []ast.Expr{path("b")}},
		}, "running"),
	)
	node := mustResolve(t, b, stmt)

	win, ok := node.(*resolved.Project).Child.(*resolved.Window)
	require.True(ok)
	wc := win.Funcs[0].Expr.(*resolved.WindowCall)
	require.Len(wc.PartitionBy, 1)
}

func TestWindowNotAllowedInWhere(t *testing.T) {
	b := newTestBuilder(testCatalog())

	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{aliased(path("a"), "")},
		From:  namedTable("t"),
		Where: gt(&ast.FuncExpr{Name: "row_number", Over: &ast.WindowDef{}}, intLit("1")),
	}
	_, _, err := b.ResolveStatement(stmt, "")
	require.Error(t, err)
	require.True(t, sql.ErrWindowNotAllowed.Is(err))
}

func TestAnalyticWithoutOver(t *testing.T) {
	b := newTestBuilder(testCatalog())

	stmt := selectCols(namedTable("t"), aliased(fnCall("row_number"), "rn"))
	_, _, err := b.ResolveStatement(stmt, "")
	require.Error(t, err)
	require.True(t, sql.ErrWindowNotAllowed.Is(err))
}

func TestAnalyticFunctionsDisabled(t *testing.T) {
	b := New(sql.NewEmptyContext(), testCatalog(), WithFeatures(sql.FeatureSet{
		DecimalLiterals: true,
		NestedDML:       true,
	}))

	stmt := selectCols(namedTable("t"),
		aliased(&ast.FuncExpr{Name: "row_number", Over: &ast.WindowDef{}}, "rn"))
	_, _, err := b.ResolveStatement(stmt, "")
	require.Error(t, err)
	require.True(t, sql.IsUnsupportedError(err))
}

func TestScalarFunctionWithOver(t *testing.T) {
	b := newTestBuilder(testCatalog())

	stmt := selectCols(namedTable("t"),
		aliased(&ast.FuncExpr{Name: "length", Args: []ast.Expr{path("b")}, Over: &ast.WindowDef{}}, "x"))
	_, _, err := b.ResolveStatement(stmt, "")
	require.Error(t, err)
	require.True(t, sql.ErrUnsupportedFeature.Is(err))
}

func TestAnalyticInsideAggregate(t *testing.T) {
	b := newTestBuilder(testCatalog())

	stmt := selectCols(namedTable("t"),
		aliased(&ast.FuncExpr{Name: "sum", Args: []ast.Expr{
			&ast.FuncExpr{Name: "row_number", Over: &ast.WindowDef{}},
		}}, "x"))
	_, _, err := b.ResolveStatement(stmt, "")
	require.Error(t, err)
	require.True(t, sql.ErrWindowNotAllowed.Is(err))
	require.True(t, sql.IsStructuralError(err))
}

func TestSubqueryCorrelatedOnUngroupedColumn(t *testing.T) {
	correlated := func() *ast.Subquery {
		return &ast.Subquery{Select: &ast.Select{
			Exprs: []ast.SelectExpr{aliased(path("x"), "")},
			From:  namedTable("u"),
			Where: eq(path("u", "x"), path("v")),
		}}
	}

	t.Run("exists in having", func(t *testing.T) {
		b := newTestBuilder(testCatalog())
		stmt := &ast.Select{
			Exprs:   []ast.SelectExpr{aliased(path("a"), "")},
			From:    namedTable("t"),
			GroupBy: []ast.Expr{path("a")},
			Having:  &ast.Exists{Subquery: correlated()},
		}
		_, _, err := b.ResolveStatement(stmt, "")
		require.Error(t, err)
		require.True(t, sql.ErrUngroupedColumn.Is(err))
	})

	t.Run("in subquery in select list", func(t *testing.T) {
		b := newTestBuilder(testCatalog())
		stmt := &ast.Select{
			Exprs: []ast.SelectExpr{
				aliased(&ast.Comparison{Op: "IN", Left: path("a"), Right: correlated()}, "m"),
			},
			From:    namedTable("t"),
			GroupBy: []ast.Expr{path("a")},
		}
		_, _, err := b.ResolveStatement(stmt, "")
		require.Error(t, err)
		require.True(t, sql.ErrUngroupedColumn.Is(err))
	})

	t.Run("grouped correlation is allowed", func(t *testing.T) {
		b := newTestBuilder(testCatalog())
		stmt := &ast.Select{
			Exprs:   []ast.SelectExpr{aliased(path("a"), "")},
			From:    namedTable("t"),
			GroupBy: []ast.Expr{path("a")},
			Having: &ast.Exists{Subquery: &ast.Subquery{Select: &ast.Select{
				Exprs: []ast.SelectExpr{aliased(path("x"), "")},
				From:  namedTable("u"),
				Where: eq(path("u", "x"), path("t", "a")),
			}}},
		}
		_, _, err := b.ResolveStatement(stmt, "")
		require.NoError(t, err)
	})
}

func TestHavingAliasInsideAggregateExpandsPreGroup(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	// HAVING sum(w) aggregates the pre-grouping expression behind the alias
	stmt := &ast.Select{
		Exprs:   []ast.SelectExpr{aliased(add(path("a"), intLit("1")), "w")},
		From:    namedTable("t"),
		GroupBy: []ast.Expr{intLit("1")},
		Having:  gt(fnCall("sum", path("w")), intLit("5")),
	}
	node := mustResolve(t, b, stmt)

	gb := findNode[*resolved.GroupBy](t, node)
	require.Len(gb.Aggs, 1)
	agg := gb.Aggs[0].Expr.(*resolved.AggregateCall)
	require.Equal("sum", agg.Name)
	require.Equal("(t.a + 1)", agg.Args[0].String())
}
