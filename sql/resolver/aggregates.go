package resolver

import (
	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
)

// groupBy accumulates one query block's grouping state: the grouping key
// expressions and every aggregate call found anywhere in the block. Both are
// deduplicated by canonical surface form, so SUM(v) written twice resolves
// to one aggregate output column.
type groupBy struct {
	// outScope exposes the post-grouping columns to name resolution.
	outScope *scope
	keys     []resolved.ProjectedExpr
	keyStrs  map[string]scopeColumn
	aggs     []resolved.ProjectedExpr
	aggStrs  map[string]scopeColumn
}

// initGroupBy lazily creates the grouping state. Resolving the first
// aggregate call or grouping key flips the query block into aggregation
// mode, which makes the second pass mandatory.
func (s *scope) initGroupBy() *groupBy {
	if s.groupBy == nil {
		s.groupBy = &groupBy{
			outScope: s.replace(),
			keyStrs:  make(map[string]scopeColumn),
			aggStrs:  make(map[string]scopeColumn),
		}
	}
	return s.groupBy
}

// addKey registers a grouping key and returns its post-grouping column.
// Keys that are plain column references keep their surface name so later
// clauses resolve them by name.
func (gb *groupBy) addKey(b *Builder, key resolved.Expr) scopeColumn {
	fp := key.String()
	if c, ok := gb.keyStrs[fp]; ok {
		return c
	}
	var table, name sql.Ident
	nullable := true
	if cr, ok := key.(*resolved.ColumnRef); ok {
		table = b.intern(cr.Col.Table)
		name = b.intern(cr.Col.Name)
		nullable = cr.Col.Nullable
	} else {
		name = b.intern(fp)
	}
	c := gb.outScope.newColumn(table, name, key.Type(), nullable, nil)
	gb.keys = append(gb.keys, resolved.ProjectedExpr{Col: c.col, Expr: key})
	gb.keyStrs[fp] = c
	return c
}

// addAgg registers an aggregate call and returns its output column.
func (gb *groupBy) addAgg(b *Builder, agg resolved.Expr) scopeColumn {
	fp := agg.String()
	if c, ok := gb.aggStrs[fp]; ok {
		return c
	}
	c := gb.outScope.newColumn(sql.InvalidIdent, b.intern(fp), agg.Type(), true, nil)
	gb.aggs = append(gb.aggs, resolved.ProjectedExpr{Col: c.col, Expr: agg})
	gb.aggStrs[fp] = c
	return c
}

// postIds is the set of column ids legal to reference after grouping. A key
// that is a plain column reference also legalizes its source column: direct
// references get rewritten to the key by fingerprint, but a correlated
// reference inside a subquery keeps the source id and is still grouped.
func (gb *groupBy) postIds() map[sql.ColumnId]bool {
	ids := make(map[sql.ColumnId]bool, len(gb.keys)+len(gb.aggs))
	for _, k := range gb.keys {
		ids[k.Col.Id] = true
		if cr, ok := k.Expr.(*resolved.ColumnRef); ok {
			ids[cr.Col.Id] = true
		}
	}
	for _, a := range gb.aggs {
		ids[a.Col.Id] = true
	}
	return ids
}

// buildAggregateCall resolves an aggregate function call, registers it with
// the query block's grouping state, and returns a reference to its
// post-grouping output column.
func (b *Builder) buildAggregateCall(inScope *scope, f *ast.FuncExpr, fn *sql.Function) resolved.Expr {
	if !inScope.allowAgg {
		b.handleErr(sql.ErrAggregateNotAllowed.New(fn.Name, inScope.clauseName()))
	}
	if inScope.qi == nil {
		b.handleErr(sql.ErrAggregateNotAllowed.New(fn.Name, inScope.clauseName()))
	}
	if b.aggDepth > 0 {
		b.handleErr(sql.ErrNestedAggregate.New(fn.Name))
	}

	b.aggDepth++
	args := b.buildArgs(inScope, f, true)
	b.aggDepth--

	ov, coerced := b.matchOverload(fn, args)
	agg := &resolved.AggregateCall{
		Name:     fn.Name,
		Overload: ov,
		Args:     coerced,
		Distinct: f.Distinct,
		Typ:      ov.ReturnType(exprTypes(coerced)),
	}
	gb := inScope.qi.fromScope.initGroupBy()
	return b.columnRef(gb.addAgg(b, agg))
}

// buildWindowCall resolves an analytic call (or an aggregate with an OVER
// clause), registers it with the query block, and returns a reference to
// its output column. Analytic evaluation happens after grouping, but the
// call's arguments resolve against the pre-grouping scope and go through
// the grouped rewrite with everything else.
func (b *Builder) buildWindowCall(inScope *scope, f *ast.FuncExpr, fn *sql.Function) resolved.Expr {
	if !b.features.AnalyticFunctions {
		b.handleErr(sql.ErrUnsupportedFeature.New("analytic functions"))
	}
	if !inScope.allowWindow {
		b.handleErr(sql.ErrWindowNotAllowed.New(fn.Name, inScope.clauseName()))
	}
	if inScope.qi == nil {
		b.handleErr(sql.ErrWindowNotAllowed.New(fn.Name, inScope.clauseName()))
	}
	// analytic evaluation happens above the grouping that consumes an
	// aggregate's argument, so a window call cannot feed an aggregate
	if b.aggDepth > 0 {
		b.handleErr(sql.ErrWindowNotAllowed.New(fn.Name, "aggregate function arguments"))
	}

	args := b.buildArgs(inScope, f, fn.Kind == sql.AggregateFunction)
	ov, coerced := b.matchOverload(fn, args)

	partition := make([]resolved.Expr, len(f.Over.PartitionBy))
	for i, p := range f.Over.PartitionBy {
		partition[i] = b.buildScalar(inScope, p)
	}
	order := make([]resolved.SortField, len(f.Over.OrderBy))
	for i, o := range f.Over.OrderBy {
		order[i] = resolved.SortField{Expr: b.buildScalar(inScope, o.Expr), Desc: o.Desc}
	}

	wc := &resolved.WindowCall{
		Name:        fn.Name,
		Overload:    ov,
		Args:        coerced,
		PartitionBy: partition,
		OrderBy:     order,
		Typ:         ov.ReturnType(exprTypes(coerced)),
	}
	return b.columnRef(inScope.qi.addWindow(b, wc))
}

func (s *scope) clauseName() string {
	if s.clause == "" {
		return "this context"
	}
	return s.clause
}

// rewriteGrouped replaces every subtree matching a grouping key with a
// reference to the key's post-grouping column. Matching is by canonical
// surface form, so GROUP BY a+1 matches SELECT a+1 regardless of where
// either was written. Aggregate arguments are never rewritten; they were
// extracted into the grouping state before this pass.
func (b *Builder) rewriteGrouped(gb *groupBy, e resolved.Expr) resolved.Expr {
	if e == nil {
		return nil
	}
	if c, ok := gb.keyStrs[e.String()]; ok {
		return b.columnRef(c)
	}
	switch e := e.(type) {
	case *resolved.Comparison:
		return &resolved.Comparison{Op: e.Op, Left: b.rewriteGrouped(gb, e.Left), Right: b.rewriteGrouped(gb, e.Right)}
	case *resolved.Arithmetic:
		return &resolved.Arithmetic{Op: e.Op, Left: b.rewriteGrouped(gb, e.Left), Right: b.rewriteGrouped(gb, e.Right), Typ: e.Typ}
	case *resolved.Negate:
		return &resolved.Negate{Child: b.rewriteGrouped(gb, e.Child)}
	case *resolved.And:
		return &resolved.And{Left: b.rewriteGrouped(gb, e.Left), Right: b.rewriteGrouped(gb, e.Right)}
	case *resolved.Or:
		return &resolved.Or{Left: b.rewriteGrouped(gb, e.Left), Right: b.rewriteGrouped(gb, e.Right)}
	case *resolved.Not:
		return &resolved.Not{Child: b.rewriteGrouped(gb, e.Child)}
	case *resolved.IsNull:
		return &resolved.IsNull{Child: b.rewriteGrouped(gb, e.Child), Negate: e.Negate}
	case *resolved.Case:
		branches := make([]resolved.CaseBranch, len(e.Branches))
		for i, br := range e.Branches {
			branches[i] = resolved.CaseBranch{Cond: b.rewriteGrouped(gb, br.Cond), Value: b.rewriteGrouped(gb, br.Value)}
		}
		return &resolved.Case{Operand: b.rewriteGrouped(gb, e.Operand), Branches: branches, Else: b.rewriteGrouped(gb, e.Else), Typ: e.Typ}
	case *resolved.Tuple:
		return &resolved.Tuple{Exprs: b.rewriteGroupedList(gb, e.Exprs)}
	case *resolved.FuncCall:
		return &resolved.FuncCall{Name: e.Name, Overload: e.Overload, Args: b.rewriteGroupedList(gb, e.Args), Typ: e.Typ}
	case *resolved.Cast:
		return &resolved.Cast{Child: b.rewriteGrouped(gb, e.Child), To: e.To, Implicit: e.Implicit}
	case *resolved.FieldAccess:
		return &resolved.FieldAccess{Child: b.rewriteGrouped(gb, e.Child), Field: e.Field, Extension: e.Extension, Typ: e.Typ}
	case *resolved.ArrayAt:
		return &resolved.ArrayAt{Array: b.rewriteGrouped(gb, e.Array), Index: b.rewriteGrouped(gb, e.Index), Typ: e.Typ}
	case *resolved.InTuple:
		return &resolved.InTuple{Left: b.rewriteGrouped(gb, e.Left), Right: &resolved.Tuple{Exprs: b.rewriteGroupedList(gb, e.Right.Exprs)}, Negate: e.Negate}
	case *resolved.InSubquery:
		return &resolved.InSubquery{Left: b.rewriteGrouped(gb, e.Left), Right: e.Right, Negate: e.Negate}
	case *resolved.WindowCall:
		order := make([]resolved.SortField, len(e.OrderBy))
		for i, o := range e.OrderBy {
			order[i] = resolved.SortField{Expr: b.rewriteGrouped(gb, o.Expr), Desc: o.Desc}
		}
		return &resolved.WindowCall{
			Name:        e.Name,
			Overload:    e.Overload,
			Args:        b.rewriteGroupedList(gb, e.Args),
			PartitionBy: b.rewriteGroupedList(gb, e.PartitionBy),
			OrderBy:     order,
			Typ:         e.Typ,
		}
	default:
		// leaves, aggregate outputs, subqueries
		return e
	}
}

func (b *Builder) rewriteGroupedList(gb *groupBy, exprs []resolved.Expr) []resolved.Expr {
	out := make([]resolved.Expr, len(exprs))
	for i, e := range exprs {
		out[i] = b.rewriteGrouped(gb, e)
	}
	return out
}

// validateGrouped rejects references to pre-grouping columns that survived
// the rewrite; they are neither grouping keys nor inside an aggregate, which
// is exactly the ungrouped-column error. local is the set of the query
// block's own pre-grouping columns, allowed the post-grouping set.
func (b *Builder) validateGrouped(local, allowed map[sql.ColumnId]bool, e resolved.Expr) {
	resolved.InspectExpr(e, func(x resolved.Expr) bool {
		switch x := x.(type) {
		case *resolved.ColumnRef:
			if !x.Correlated && local[x.Col.Id] && !allowed[x.Col.Id] {
				b.handleErr(sql.ErrUngroupedColumn.New(x.Col.String()))
			}
		case *resolved.Subquery:
			b.validateCorrelated(local, allowed, x)
		case *resolved.Exists:
			b.validateCorrelated(local, allowed, x.Subquery)
		case *resolved.InSubquery:
			b.validateCorrelated(local, allowed, x.Right)
		}
		return true
	})
}

// validateCorrelated rejects a subquery correlating on an ungrouped column,
// which would observe pre-grouping rows.
func (b *Builder) validateCorrelated(local, allowed map[sql.ColumnId]bool, sq *resolved.Subquery) {
	for _, col := range sq.Correlated {
		if local[col.Id] && !allowed[col.Id] {
			b.handleErr(sql.ErrUngroupedColumn.New(col.String()))
		}
	}
}
