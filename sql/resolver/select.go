package resolver

import (
	"strconv"

	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

// phase tracks how far one query block's resolution has progressed. The
// block's state machine is linear: names become visible when the FROM
// clause resolves, the select list resolves once against those names, the
// grouping keys fix the post-aggregation vocabulary, and only then can
// ungrouped references be rejected.
type phase int

const (
	phaseFromResolved phase = iota
	phaseFirstPass
	phaseGroupByResolved
	phaseSecondPass
	phaseFinalized
)

// selectColState is the per-SELECT-list-entry scratch: the first-pass
// expression, the post-rewrite expression, the output column identity, and
// the surface alias.
type selectColState struct {
	alias   string
	aliasId sql.Ident
	// explicit distinguishes a written alias from a synthesized one.
	explicit  bool
	firstPass resolved.Expr
	final     resolved.Expr
	col       *sql.Column
}

// queryInfo is one query block's mutable scratch state, owned exclusively
// by that block's buildSelect call and discarded when the block finalizes.
type queryInfo struct {
	phase      phase
	fromScope  *scope
	states     []*selectColState
	windows    []resolved.ProjectedExpr
	windowStrs map[string]scopeColumn
}

// addWindow registers an analytic call, deduplicated by surface form, and
// returns its output column.
func (qi *queryInfo) addWindow(b *Builder, wc *resolved.WindowCall) scopeColumn {
	fp := wc.String()
	if c, ok := qi.windowStrs[fp]; ok {
		return c
	}
	col := b.ids.Allocate("", fp, wc.Typ, true)
	c := scopeColumn{col: col, name: b.intern(fp)}
	qi.windows = append(qi.windows, resolved.ProjectedExpr{Col: col, Expr: wc})
	qi.windowStrs[fp] = c
	return c
}

// buildSelect resolves one query block into a scope holding the resolved
// tree. Clause order is fixed: FROM, WHERE, the select list's first pass,
// GROUP BY, HAVING, ORDER BY, LIMIT; if anything turned the block into an
// aggregate query, a second pass rewrites grouped subtrees to post-grouping
// column references and rejects what remains ungrouped.
func (b *Builder) buildSelect(inScope *scope, sel *ast.Select) *scope {
	b.enter()
	defer b.exit()

	ctes := b.ctes.enter(sel.With)
	defer b.ctes.exit(ctes)

	fromScope := b.buildFrom(inScope, sel.From)
	qi := &queryInfo{fromScope: fromScope, windowStrs: make(map[string]scopeColumn)}
	fromScope.qi = qi
	qi.phase = phaseFromResolved

	var where resolved.Expr
	if sel.Where != nil {
		fromScope.setClause("WHERE", false, false)
		where = b.buildBool(fromScope, sel.Where)
	}

	qi.phase = phaseFirstPass
	fromScope.setClause("SELECT list", true, true)
	b.buildSelectExprs(fromScope, qi, sel.Exprs)

	if len(sel.GroupBy) > 0 {
		b.buildGroupingKeys(fromScope, qi, sel.GroupBy)
		qi.phase = phaseGroupByResolved
	}

	var having resolved.Expr
	if sel.Having != nil {
		havingScope := fromScope.push()
		havingScope.aliases = qi.aliasTargets(false)
		havingScope.setClause("HAVING", true, false)
		having = b.buildBool(havingScope, sel.Having)
	}

	sortFields := b.buildOrderBy(fromScope, qi, sel.OrderBy)
	limit, offset := b.buildLimit(fromScope, sel.Limit, sel.Offset)

	// second pass: anything from the select list, HAVING, ORDER BY or a
	// window argument that still references a pre-grouping column must be a
	// grouping key or an error
	qi.phase = phaseSecondPass
	gb := fromScope.groupBy
	if gb != nil {
		local := make(map[sql.ColumnId]bool)
		for _, c := range fromScope.columns() {
			local[c.col.Id] = true
		}
		allowed := gb.postIds()

		for _, st := range qi.states {
			st.final = b.rewriteGrouped(gb, st.firstPass)
			b.validateGrouped(local, allowed, st.final)
		}
		if having != nil {
			having = b.rewriteGrouped(gb, having)
			b.validateGrouped(local, allowed, having)
		}
		for i := range qi.windows {
			qi.windows[i].Expr = b.rewriteGrouped(gb, qi.windows[i].Expr)
			b.validateGrouped(local, allowed, qi.windows[i].Expr)
		}
		for i := range sortFields {
			sortFields[i].Expr = b.rewriteGrouped(gb, sortFields[i].Expr)
			b.validateGrouped(local, allowed, sortFields[i].Expr)
		}
	}

	qi.phase = phaseFinalized
	node := fromScope.node
	if where != nil {
		node = &resolved.Filter{Cond: where, Child: node}
	}
	if gb != nil {
		node = &resolved.GroupBy{Keys: gb.keys, Aggs: gb.aggs, Child: node}
	}
	if having != nil {
		node = &resolved.Filter{Cond: having, Child: node}
	}
	if len(qi.windows) > 0 {
		node = &resolved.Window{Funcs: qi.windows, Child: node}
	}

	projections := make([]resolved.ProjectedExpr, len(qi.states))
	outList := &nameList{}
	outIds := make(map[sql.ColumnId]bool, len(qi.states))
	outByExpr := make(map[sql.ColumnId]*sql.Column)
	for i, st := range qi.states {
		expr := st.final
		if expr == nil {
			expr = st.firstPass
		}
		projections[i] = resolved.ProjectedExpr{Col: st.col, Expr: expr}
		outList.cols = append(outList.cols, scopeColumn{col: st.col, name: st.aliasId})
		outIds[st.col.Id] = true
		if cr, ok := expr.(*resolved.ColumnRef); ok {
			outByExpr[cr.Col.Id] = st.col
		}
	}

	// a sort term naming a column the select list projects under a different
	// identity sorts by the projected output column; the grouped rewrite
	// introduces such identities for grouping keys
	for i, f := range sortFields {
		if cr, ok := f.Expr.(*resolved.ColumnRef); ok && !outIds[cr.Col.Id] {
			if oc, ok := outByExpr[cr.Col.Id]; ok {
				sortFields[i].Expr = &resolved.ColumnRef{Col: oc}
			}
		}
	}

	// ORDER BY may reference columns the select list does not produce. Those
	// flow through the projection as hidden columns so the sort's child keeps
	// producing them; a final projection above the sort narrows the output
	// back to the declared select list. DISTINCT dedups over the select list
	// only, so hidden sort columns cannot cross it.
	hidden := hiddenSortColumns(sortFields, outIds)
	if len(hidden) > 0 && sel.Distinct {
		b.handleErr(sql.ErrDistinctOrderBy.New(hidden[0].Col.Name))
	}
	node = &resolved.Project{Projections: append(projections, hidden...), Child: node}

	if sel.Distinct {
		node = &resolved.Distinct{Child: node}
	}
	if len(sortFields) > 0 {
		node = &resolved.Sort{Fields: sortFields, Child: node}
	}
	if limit != nil || offset != nil {
		node = &resolved.Limit{Limit: limit, Offset: offset, Child: node}
	}
	if len(hidden) > 0 {
		finals := make([]resolved.ProjectedExpr, len(qi.states))
		for i, st := range qi.states {
			finals[i] = resolved.ProjectedExpr{Col: st.col, Expr: &resolved.ColumnRef{Col: st.col}}
		}
		node = &resolved.Project{Projections: finals, Child: node}
	}

	outScope := inScope.push()
	outScope.addList(outList)
	outScope.node = node
	return outScope
}

// buildSelectExprs runs the first pass over the select list, expanding
// stars and allocating the output column identities.
func (b *Builder) buildSelectExprs(fromScope *scope, qi *queryInfo, exprs []ast.SelectExpr) {
	for _, se := range exprs {
		switch se := se.(type) {
		case *ast.StarExpr:
			b.expandStar(fromScope, qi, se)
		case *ast.AliasedExpr:
			expr := b.buildScalar(fromScope, se.Expr)
			alias, explicit := aliasFor(se)
			qi.states = append(qi.states, &selectColState{
				alias:     alias,
				aliasId:   b.intern(alias),
				explicit:  explicit,
				firstPass: expr,
			})
		default:
			b.handleErr(sql.ErrInternal.New("unhandled select expression kind"))
		}
	}
	if len(qi.states) == 0 {
		b.handleErr(sql.ErrInternal.New("empty select list"))
	}

	for _, st := range qi.states {
		if st.col != nil {
			continue
		}
		// a bare column reference without a written alias keeps its identity
		if cr, ok := st.firstPass.(*resolved.ColumnRef); ok && !st.explicit {
			st.col = cr.Col
			continue
		}
		st.col = b.ids.Allocate("", st.alias, st.firstPass.Type(), nullableOf(st.firstPass))
	}
}

// aliasFor picks the surface alias of a select entry: the written alias,
// the last path segment for bare paths, or the expression's source text.
func aliasFor(se *ast.AliasedExpr) (string, bool) {
	if se.As != "" {
		return se.As, true
	}
	if p, ok := se.Expr.(*ast.Path); ok && len(p.Names) > 0 {
		return p.Names[len(p.Names)-1], false
	}
	return se.Input, false
}

func nullableOf(e resolved.Expr) bool {
	if cr, ok := e.(*resolved.ColumnRef); ok {
		return cr.Col.Nullable
	}
	return true
}

// aliasTargets exposes the select-list aliases as name targets. byOutput
// resolves an alias to the projected output column (ORDER BY); otherwise a
// reference re-expands to the first-pass expression, so an alias inside an
// aggregate argument sees pre-grouping values.
func (qi *queryInfo) aliasTargets(byOutput bool) *nameList {
	nl := &nameList{}
	for _, st := range qi.states {
		if st.aliasId == sql.InvalidIdent {
			continue
		}
		if byOutput {
			nl.cols = append(nl.cols, scopeColumn{col: st.col, name: st.aliasId})
		} else {
			nl.cols = append(nl.cols, scopeColumn{col: st.col, name: st.aliasId, scalar: st.firstPass, useScalar: true})
		}
	}
	return nl
}

// buildGroupingKeys resolves the GROUP BY clause. A key can be an ordinal
// into the select list, a select alias, or any expression over the FROM
// names; every key gets a post-grouping column.
func (b *Builder) buildGroupingKeys(fromScope *scope, qi *queryInfo, keys []ast.Expr) {
	gb := fromScope.initGroupBy()
	keyScope := fromScope.push()
	keyScope.aliases = qi.aliasTargets(false)
	keyScope.setClause("GROUP BY", false, false)

	for _, key := range keys {
		if st, ok := b.ordinalState(qi, key); ok {
			gb.addKey(b, st.firstPass)
			continue
		}
		gb.addKey(b, b.buildScalar(keyScope, key))
	}
}

// ordinalState resolves an integer literal as a 1-based select list index.
func (b *Builder) ordinalState(qi *queryInfo, e ast.Expr) (*selectColState, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok || lit.Kind != ast.IntVal {
		return nil, false
	}
	n, err := strconv.Atoi(lit.Text)
	if err != nil || n < 1 || n > len(qi.states) {
		b.handleErr(sql.ErrOrdinalOutOfRange.New(n, len(qi.states)))
	}
	return qi.states[n-1], true
}

// buildOrderBy resolves the ORDER BY terms. Select aliases take precedence
// over FROM columns here, and ordinals reference output columns.
func (b *Builder) buildOrderBy(fromScope *scope, qi *queryInfo, orders []*ast.Order) []resolved.SortField {
	if len(orders) == 0 {
		return nil
	}
	orderScope := fromScope.push()
	orderScope.aliases = qi.aliasTargets(true)
	orderScope.aliasesFirst = true
	orderScope.setClause("ORDER BY", true, true)

	fields := make([]resolved.SortField, len(orders))
	for i, o := range orders {
		if st, ok := b.ordinalState(qi, o.Expr); ok {
			// an ordinal sorts by the output column itself
			fields[i] = resolved.SortField{Expr: &resolved.ColumnRef{Col: st.col}, Desc: o.Desc}
			continue
		}
		fields[i] = resolved.SortField{Expr: b.buildScalar(orderScope, o.Expr), Desc: o.Desc}
	}
	return fields
}

// hiddenSortColumns collects the columns the sort fields reference that the
// select list does not produce.
func hiddenSortColumns(fields []resolved.SortField, outIds map[sql.ColumnId]bool) []resolved.ProjectedExpr {
	var hidden []resolved.ProjectedExpr
	seen := make(map[sql.ColumnId]bool)
	for _, f := range fields {
		resolved.InspectExpr(f.Expr, func(x resolved.Expr) bool {
			if cr, ok := x.(*resolved.ColumnRef); ok && !cr.Correlated && !outIds[cr.Col.Id] && !seen[cr.Col.Id] {
				seen[cr.Col.Id] = true
				hidden = append(hidden, resolved.ProjectedExpr{Col: cr.Col, Expr: &resolved.ColumnRef{Col: cr.Col}})
			}
			return true
		})
	}
	return hidden
}

// buildLimit resolves LIMIT and OFFSET, which must be integer constants or
// parameters.
func (b *Builder) buildLimit(fromScope *scope, limit, offset ast.Expr) (resolved.Expr, resolved.Expr) {
	return b.buildLimitTerm(fromScope, limit), b.buildLimitTerm(fromScope, offset)
}

func (b *Builder) buildLimitTerm(fromScope *scope, e ast.Expr) resolved.Expr {
	if e == nil {
		return nil
	}
	switch e.(type) {
	case *ast.Literal, *ast.Param:
	default:
		b.handleErr(sql.ErrUnsupportedFeature.New("non-constant LIMIT or OFFSET"))
	}
	return b.coerceTo(b.buildScalar(fromScope, e), types.Int64)
}
