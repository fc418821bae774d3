package resolver

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

func mustResolveExpr(t *testing.T, b *Builder, e ast.Expr) resolved.Expr {
	t.Helper()
	expr, _, err := b.ResolveExpr(e, "")
	require.NoError(t, err)
	return expr
}

func TestLiteralTypes(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	cases := []struct {
		lit  *ast.Literal
		typ  sql.Type
		want interface{}
	}{
		{intLit("42"), types.Int64, int64(42)},
		{floatLit("2.5"), types.Float64, 2.5},
		{strLit("hi"), types.String, "hi"},
		{&ast.Literal{Kind: ast.BoolVal, Text: "true"}, types.Boolean, true},
		{&ast.Literal{Kind: ast.NullVal}, types.Null, nil},
	}
	for _, tc := range cases {
		expr := mustResolveExpr(t, b, tc.lit)
		lit, ok := expr.(*resolved.Literal)
		require.True(ok)
		require.True(lit.Typ.Equals(tc.typ))
		require.Equal(tc.want, lit.Value)
	}
}

func TestHugeIntegerLiteralBecomesDecimal(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	expr := mustResolveExpr(t, b, intLit("99999999999999999999999999"))
	lit := expr.(*resolved.Literal)
	require.True(lit.Typ.Equals(types.InternalDecimalType))
	d := lit.Value.(decimal.Decimal)
	require.Equal("99999999999999999999999999", d.String())
}

func TestDecimalCastPreservesLiteralImage(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	// 3.14 has no exact float64 representation; the cast reparses the
	// written digits instead of converting the rounded binary value
	expr := mustResolveExpr(t, b, &ast.Cast{Expr: floatLit("3.14"), TypeName: "numeric"})
	lit, ok := expr.(*resolved.Literal)
	require.True(ok)
	require.True(lit.Typ.Equals(types.InternalDecimalType))
	d := lit.Value.(decimal.Decimal)
	require.True(d.Equal(decimal.RequireFromString("3.14")))
}

func TestDivisionNeverIntegral(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	expr := mustResolveExpr(t, b, &ast.Binary{Op: "/", Left: intLit("1"), Right: intLit("2")})
	ar := expr.(*resolved.Arithmetic)
	require.True(ar.Typ.Equals(types.Float64))
}

func TestArithmeticSupertype(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	expr := mustResolveExpr(t, b, add(intLit("1"), floatLit("2.5")))
	ar := expr.(*resolved.Arithmetic)
	require.True(ar.Typ.Equals(types.Float64))

	// the integer operand picked up an implicit cast
	cast, ok := ar.Left.(*resolved.Cast)
	require.True(ok)
	require.True(cast.Implicit)
}

func TestComparisonCoercesToSupertype(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	expr := mustResolveExpr(t, b, eq(intLit("1"), floatLit("1.0")))
	cmp := expr.(*resolved.Comparison)
	require.True(cmp.Type().Equals(types.Boolean))
	cast, ok := cmp.Left.(*resolved.Cast)
	require.True(ok)
	require.True(cast.To.Equals(types.Float64))
}

func TestIncomparableTypes(t *testing.T) {
	b := newTestBuilder(testCatalog())

	_, _, err := b.ResolveExpr(eq(intLit("1"), strLit("x")), "")
	require.Error(t, err)
	require.True(t, sql.ErrCannotCoerce.Is(err))
	require.True(t, sql.IsTypeError(err))
}

func TestUnaryMinusRequiresNumber(t *testing.T) {
	b := newTestBuilder(testCatalog())

	_, _, err := b.ResolveExpr(&ast.Unary{Op: "-", Expr: strLit("x")}, "")
	require.Error(t, err)
	require.True(t, sql.ErrCannotCoerce.Is(err))
}

func TestCaseResultType(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	expr := mustResolveExpr(t, b, &ast.Case{
		Whens: []ast.When{
			{Cond: &ast.Literal{Kind: ast.BoolVal, Text: "true"}, Value: intLit("1")},
		},
		Else: floatLit("2.5"),
	})
	c := expr.(*resolved.Case)
	require.True(c.Typ.Equals(types.Float64))
	// the int branch was unified to the result type
	_, isCast := c.Branches[0].Value.(*resolved.Cast)
	require.True(isCast)
}

func TestInTuple(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	expr := mustResolveExpr(t, b, &ast.Comparison{
		Op:    "IN",
		Left:  intLit("1"),
		Right: &ast.Tuple{Exprs: []ast.Expr{intLit("1"), intLit("2")}},
	})
	in := expr.(*resolved.InTuple)
	require.Len(in.Right.Exprs, 2)
	require.False(in.Negate)
}

func TestInvalidCast(t *testing.T) {
	b := newTestBuilder(testCatalog())

	_, _, err := b.ResolveExpr(&ast.Cast{
		Expr:     &ast.Literal{Kind: ast.BoolVal, Text: "true"},
		TypeName: "timestamp",
	}, "")
	require.Error(t, err)
	require.True(t, sql.ErrInvalidCast.Is(err))
	require.True(t, sql.IsTypeError(err))
}

func TestCastToUnknownType(t *testing.T) {
	b := newTestBuilder(testCatalog())

	_, _, err := b.ResolveExpr(&ast.Cast{Expr: intLit("1"), TypeName: "geography"}, "")
	require.Error(t, err)
	require.True(t, sql.ErrUnsupportedFeature.Is(err))
}

func TestCastToCatalogType(t *testing.T) {
	require := require.New(t)
	cat := testCatalog()
	color := types.CreateEnumType("color", "RED", "GREEN", "BLUE")
	cat.AddType("color", color)
	b := newTestBuilder(cat)

	expr := mustResolveExpr(t, b, &ast.Cast{Expr: strLit("RED"), TypeName: "color"})
	cast := expr.(*resolved.Cast)
	require.True(cast.To.Equals(color))
}

func TestIntervalArgumentExpansion(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	expr := mustResolveExpr(t, b, fnCall("date_add",
		fnCall("current_timestamp"),
		&ast.Interval{Value: intLit("5"), Unit: "day"},
	))
	fc := expr.(*resolved.FuncCall)
	require.Len(fc.Args, 3)
	unit := fc.Args[2].(*resolved.Literal)
	require.Equal("DAY", unit.Value)
	require.True(fc.Typ.Equals(types.Timestamp))
}

func TestIntervalOutsideFunction(t *testing.T) {
	b := newTestBuilder(testCatalog())

	_, _, err := b.ResolveExpr(&ast.Interval{Value: intLit("5"), Unit: "day"}, "")
	require.Error(t, err)
	require.True(t, sql.ErrUnsupportedFeature.Is(err))
}

func TestSignatureRetryForcesTypedLiteral(t *testing.T) {
	require := require.New(t)
	cat := testCatalog()
	cat.AddFunction(&sql.Function{
		Name: "toint",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{types.Int64}, Return: types.Int64},
		},
	})
	b := newTestBuilder(cat)

	// 3.0 reparses exactly as an integer, so the retry succeeds
	expr := mustResolveExpr(t, b, fnCall("toint", floatLit("3.0")))
	fc := expr.(*resolved.FuncCall)
	lit := fc.Args[0].(*resolved.Literal)
	require.True(lit.Typ.Equals(types.Int64))
	require.Equal(int64(3), lit.Value)

	// 3.14 does not
	_, _, err := b.ResolveExpr(fnCall("toint", floatLit("3.14")), "")
	require.Error(err)
	require.True(sql.ErrNoMatchingSignature.Is(err))
	require.True(sql.IsTypeError(err))
}

func TestVariadicOverload(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	expr := mustResolveExpr(t, b, fnCall("concat", strLit("a"), strLit("b"), strLit("c")))
	fc := expr.(*resolved.FuncCall)
	require.Len(fc.Args, 3)
	require.True(fc.Typ.Equals(types.String))
}

func TestAnyTypedOverloadReturnsArgumentType(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	expr := mustResolveExpr(t, b, fnCall("coalesce", strLit("x"), strLit("y")))
	fc := expr.(*resolved.FuncCall)
	require.True(fc.Typ.Equals(types.String))
}

func TestUnknownFunctionSuggestion(t *testing.T) {
	b := newTestBuilder(testCatalog())

	_, _, err := b.ResolveExpr(fnCall("lenght", strLit("x")), "")
	require.Error(t, err)
	require.True(t, sql.ErrFunctionNotFound.Is(err))
	require.Contains(t, err.Error(), "length")
}

func TestAggregateOutsideQuery(t *testing.T) {
	b := newTestBuilder(testCatalog())

	_, _, err := b.ResolveExpr(fnCall("sum", intLit("1")), "")
	require.Error(t, err)
	require.True(t, sql.ErrAggregateNotAllowed.Is(err))
	require.Contains(t, err.Error(), "this context")
}

func TestResolutionDepthGuard(t *testing.T) {
	b := newTestBuilder(testCatalog())

	var e ast.Expr = intLit("1")
	for i := 0; i < 2*maxResolveDepth; i++ {
		e = &ast.Unary{Op: "-", Expr: e}
	}
	_, _, err := b.ResolveExpr(e, "")
	require.Error(t, err)
	require.True(t, sql.ErrResolutionTooComplex.Is(err))
	require.True(t, sql.IsResourceError(err))
}

func TestParameterInference(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{aliased(path("a"), "")},
		From:  namedTable("t"),
		Where: eq(path("a"), &ast.Param{Name: "p"}),
	}
	_, diags, err := b.ResolveStatement(stmt, "")
	require.NoError(err)
	require.Len(diags.Params, 1)
	require.Equal("p", diags.Params[0].Name)
	require.True(diags.Params[0].Type.Equals(types.Int64))
}

func TestParameterDefaultsToString(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	_, diags, err := b.ResolveExpr(&ast.Param{Name: "q"}, "")
	require.NoError(err)
	require.Len(diags.Params, 1)
	require.True(diags.Params[0].Type.Equals(types.String))
}

func TestDeprecationWarningDeduplicated(t *testing.T) {
	require := require.New(t)
	cat := testCatalog()
	cat.AddFunction(&sql.Function{
		Name: "old_len",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{types.String}, Return: types.Int64},
		},
		Deprecated: "use length instead",
	})
	b := newTestBuilder(cat)

	stmt := selectCols(namedTable("t"),
		aliased(fnCall("old_len", path("b")), "l1"),
		aliased(fnCall("old_len", path("b")), "l2"),
	)
	_, diags, err := b.ResolveStatement(stmt, "")
	require.NoError(err)
	require.Len(diags.Warnings, 1)
	require.Equal("use length instead", diags.Warnings[0].Message)
}

func TestExistsSubquery(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{aliased(path("a"), "")},
		From:  namedTable("t"),
		Where: &ast.Exists{Subquery: &ast.Subquery{Select: &ast.Select{
			Exprs: []ast.SelectExpr{aliased(path("x"), "")},
			From:  namedTable("u"),
			Where: eq(path("u", "x"), path("t", "a")),
		}}},
	}
	node := mustResolve(t, b, stmt)

	filter := findNode[*resolved.Filter](t, node)
	ex, ok := filter.Cond.(*resolved.Exists)
	require.True(ok)
	require.Len(ex.Subquery.Correlated, 1)
	require.Equal("a", ex.Subquery.Correlated[0].Name)
}

func TestInSubquery(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	stmt := &ast.Select{
		Exprs: []ast.SelectExpr{aliased(path("a"), "")},
		From:  namedTable("t"),
		Where: &ast.Comparison{
			Op:   "IN",
			Left: path("a"),
			Right: &ast.Subquery{Select: selectCols(namedTable("u"),
				aliased(path("x"), ""))},
		},
	}
	node := mustResolve(t, b, stmt)

	filter := findNode[*resolved.Filter](t, node)
	in, ok := filter.Cond.(*resolved.InSubquery)
	require.True(ok)
	require.Empty(in.Right.Correlated)
}

func TestScalarSubqueryColumnCount(t *testing.T) {
	b := newTestBuilder(testCatalog())

	stmt := selectCols(namedTable("t"), aliased(&ast.Subquery{
		Select: selectCols(namedTable("u"), aliased(path("x"), ""), aliased(path("y"), "")),
	}, "sub"))
	_, _, err := b.ResolveStatement(stmt, "")
	require.Error(t, err)
	require.True(t, sql.ErrUnsupportedFeature.Is(err))
}

func TestArrayIndexing(t *testing.T) {
	require := require.New(t)
	b := newTestBuilder(testCatalog())

	stmt := selectCols(namedTable("t"),
		aliased(&ast.ArrayIndex{Array: path("arr"), Index: intLit("0")}, "first"))
	node := mustResolve(t, b, stmt)

	proj := node.(*resolved.Project)
	at, ok := proj.Projections[0].Expr.(*resolved.ArrayAt)
	require.True(ok)
	require.True(at.Typ.Equals(types.Int64))
}

func TestNamedConstantResolution(t *testing.T) {
	require := require.New(t)
	cat := testCatalog()
	cat.AddConstant(&sql.Constant{Name: "max_rows", Type: types.Int64, Value: int64(1000)})
	b := newTestBuilder(cat)

	expr := mustResolveExpr(t, b, path("max_rows"))
	lit, ok := expr.(*resolved.Literal)
	require.True(ok)
	require.Equal(int64(1000), lit.Value)
	require.True(lit.Typ.Equals(types.Int64))
}

func TestDecimalLiteralsDisabled(t *testing.T) {
	require := require.New(t)
	b := New(sql.NewEmptyContext(), testCatalog(), WithFeatures(sql.FeatureSet{
		AnalyticFunctions: true,
		NestedDML:         true,
	}))

	// without exact literals the cast stays a runtime conversion
	expr := mustResolveExpr(t, b, &ast.Cast{Expr: floatLit("3.14"), TypeName: "numeric"})
	cast, ok := expr.(*resolved.Cast)
	require.True(ok)
	require.True(cast.To.Equals(types.InternalDecimalType))

	// out-of-range integers have no exact representation to fall back to
	_, _, err := b.ResolveExpr(intLit("99999999999999999999999999"), "")
	require.Error(err)
	require.True(sql.IsUnsupportedError(err))
}

func TestInSubqueryColumnCount(t *testing.T) {
	b := newTestBuilder(testCatalog())

	stmt := selectCols(namedTable("t"), aliased(&ast.Comparison{
		Op:   "IN",
		Left: path("a"),
		Right: &ast.Subquery{Select: selectCols(namedTable("u"),
			aliased(path("x"), ""), aliased(path("y"), ""))},
	}, "m"))
	_, _, err := b.ResolveStatement(stmt, "")
	require.Error(t, err)
	require.True(t, sql.ErrUnsupportedFeature.Is(err))
}

func TestNamedConstantValueNormalization(t *testing.T) {
	require := require.New(t)
	cat := testCatalog()
	cat.AddConstant(&sql.Constant{Name: "retry_limit", Type: types.Int64, Value: 7})
	cat.AddConstant(&sql.Constant{Name: "broken", Type: types.Int64, Value: "seven"})
	b := newTestBuilder(cat)

	// registration values normalize to the declared type's runtime form
	expr := mustResolveExpr(t, b, path("retry_limit"))
	lit, ok := expr.(*resolved.Literal)
	require.True(ok)
	require.Equal(int64(7), lit.Value)

	_, _, err := b.ResolveExpr(path("broken"), "")
	require.Error(err)
	require.True(sql.IsInternalError(err))
}
