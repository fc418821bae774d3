package resolver

import (
	"github.com/arbordb/go-sql-resolver/internal/similartext"
	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

// dmlTargetScan resolves a DML target table, which must be a real catalog
// table, never a CTE.
func (b *Builder) dmlTargetScan(t *ast.NamedTable) (*resolved.TableScan, *nameList) {
	tbl, err := b.cat.Table(b.ctx, t.Name)
	if err != nil {
		suffix := similartext.Find(b.cat.TableNames(b.ctx), t.Name)
		b.handleErr(sql.ErrTableNotFound.New(t.Name, suffix))
	}
	alias := t.As
	if alias == "" {
		alias = t.Name
	}
	return b.tableScan(tbl, alias)
}

func (b *Builder) buildInsert(inScope *scope, ins *ast.Insert) *scope {
	scan, nl := b.dmlTargetScan(ins.Table)

	var dest []*sql.Column
	if len(ins.Columns) == 0 {
		dest = scan.Cols
	} else {
		dest = make([]*sql.Column, len(ins.Columns))
		for i, name := range ins.Columns {
			c, ok := nl.find(b.intern(name))
			if !ok {
				suffix := similartext.Find(nl.names(b), name)
				b.handleErr(sql.ErrColumnNotFound.New(name, suffix))
			}
			dest[i] = c.col
		}
	}
	for _, col := range dest {
		b.access.Record(col.Id, sql.WriteAccess)
	}

	var source resolved.Node
	if ins.Select != nil {
		selScope := b.buildSelect(b.newScope(), ins.Select)
		source = selScope.node
		cols := source.Columns()
		if len(cols) != len(dest) {
			b.handleErr(sql.ErrInsertColumnMismatch.New(len(dest), len(cols)))
		}
		for i, c := range cols {
			if !c.Type.Equals(dest[i].Type) && b.coercer.CanCoerce(c.Type, dest[i].Type) != sql.CoerceImplicit {
				b.handleErr(sql.ErrCannotCoerce.New(c.Type, dest[i].Type))
			}
		}
	} else {
		source = b.buildInsertValues(ins, dest)
	}

	outScope := inScope.push()
	outScope.node = &resolved.Insert{Target: scan, Dest: dest, Source: source}
	return outScope
}

func (b *Builder) buildInsertValues(ins *ast.Insert, dest []*sql.Column) *resolved.Values {
	vals := &resolved.Values{}
	for _, col := range dest {
		vals.Cols = append(vals.Cols, b.ids.Allocate("", col.Name, col.Type, col.Nullable))
	}
	valScope := b.newScope()
	for _, row := range ins.Rows {
		if len(row) != len(dest) {
			b.handleErr(sql.ErrInsertColumnMismatch.New(len(dest), len(row)))
		}
		exprs := make([]resolved.Expr, len(row))
		for i, e := range row {
			exprs[i] = b.coerceTo(b.buildScalar(valScope, e), dest[i].Type)
		}
		vals.Rows = append(vals.Rows, exprs)
	}
	return vals
}

func (b *Builder) buildUpdate(inScope *scope, u *ast.Update) *scope {
	scan, nl := b.dmlTargetScan(u.Table)

	updScope := b.newScope()
	updScope.addList(nl)
	source := resolved.Node(scan)
	if u.From != nil {
		updScope.node = scan
		b.buildTableExpr(updScope, u.From)
		source = &resolved.Join{Kind: ast.CrossJoin.String(), Left: scan, Right: updScope.node}
	}
	if u.Where != nil {
		updScope.setClause("WHERE", false, false)
		source = &resolved.Filter{Cond: b.buildBool(updScope, u.Where), Child: source}
	}

	asgs := make([]*resolved.Assignment, len(u.Set))
	for i, a := range u.Set {
		asgs[i] = b.buildAssignment(updScope, nl, a)
	}

	outScope := inScope.push()
	outScope.node = &resolved.Update{Target: scan, Source: source, Assignments: asgs}
	return outScope
}

func (b *Builder) buildDelete(inScope *scope, d *ast.Delete) *scope {
	scan, nl := b.dmlTargetScan(d.Table)

	delScope := b.newScope()
	delScope.addList(nl)
	source := resolved.Node(scan)
	if d.Where != nil {
		delScope.setClause("WHERE", false, false)
		source = &resolved.Filter{Cond: b.buildBool(delScope, d.Where), Child: source}
	}

	outScope := inScope.push()
	outScope.node = &resolved.Delete{Target: scan, Source: source}
	return outScope
}

// buildAssignment resolves one SET target against the target table only;
// the right-hand side sees the full statement scope.
func (b *Builder) buildAssignment(s *scope, target *nameList, a *ast.Assignment) *resolved.Assignment {
	if a.Nested != nil {
		return b.buildNestedAssignment(s, target, a.Nested)
	}

	names := a.Path.Names
	fieldStart := 1
	c, ok := target.find(b.intern(names[0]))
	if !ok && len(names) >= 2 && target.table == b.intern(names[0]) {
		c, ok = target.find(b.intern(names[1]))
		fieldStart = 2
	}
	if !ok {
		suffix := similartext.Find(target.names(b), names[0])
		b.handleErr(sql.ErrColumnNotFound.New(names[0], suffix))
	}

	fieldPath := names[fieldStart:]
	targetType := c.col.Type
	for _, f := range fieldPath {
		ft, ok := fieldOf(targetType, f)
		if !ok {
			b.handleErr(sql.ErrFieldNotFound.New(f, targetType, ""))
		}
		targetType = ft
	}

	b.access.Record(c.col.Id, sql.WriteAccess)
	expr := b.coerceTo(b.buildScalar(s, a.Expr), targetType)
	return &resolved.Assignment{Col: c.col, FieldPath: fieldPath, Expr: expr}
}

// buildNestedAssignment resolves an array-element mutation. The inner
// predicate and assignments see a synthetic element column layered over the
// statement scope; mutating the array observes its current contents, so the
// array column carries an implicit read in addition to the write.
func (b *Builder) buildNestedAssignment(s *scope, target *nameList, n *ast.NestedDML) *resolved.Assignment {
	if !b.features.NestedDML {
		b.handleErr(sql.ErrUnsupportedFeature.New("nested DML"))
	}

	names := n.Target.Names
	c, ok := target.find(b.intern(names[0]))
	if !ok {
		suffix := similartext.Find(target.names(b), names[0])
		b.handleErr(sql.ErrColumnNotFound.New(names[0], suffix))
	}
	at, ok := c.col.Type.(types.ArrayType)
	if !ok {
		b.handleErr(sql.ErrNonArrayNestedDML.New(n.Kind, names[0]))
	}
	b.access.Record(c.col.Id, sql.ReadAccess|sql.WriteAccess)

	elemName := n.ElementAlias
	if elemName == "" {
		elemName = names[len(names)-1]
	}
	elemCol := b.ids.Allocate("", elemName, at.Elem, true)
	elemScope := s.push()
	elemScope.addList(&nameList{cols: []scopeColumn{{col: elemCol, name: b.intern(elemName)}}})
	elemList := elemScope.lists[0]

	nested := &resolved.NestedDML{Kind: n.Kind.String(), ArrayCol: c.col, ElementCol: elemCol}
	if n.Where != nil {
		elemScope.setClause("WHERE", false, false)
		nested.Where = b.buildBool(elemScope, n.Where)
	}
	switch n.Kind {
	case ast.NestedUpdate:
		for _, a := range n.Set {
			nested.Assignments = append(nested.Assignments, b.buildAssignment(elemScope, elemList, a))
		}
	case ast.NestedInsert:
		nested.InsertValue = b.coerceTo(b.buildScalar(s, n.InsertValue), at.Elem)
	}
	return &resolved.Assignment{Col: c.col, Nested: nested}
}

func (b *Builder) buildMerge(inScope *scope, m *ast.Merge) *scope {
	targetScan, targetList := b.dmlTargetScan(m.Target)

	// source names layer over the target's for ON and MATCHED clauses
	mergeScope := b.newScope()
	mergeScope.addList(targetList)
	sourceScope := b.newScope()
	b.buildTableExpr(sourceScope, m.Source)
	for _, nl := range sourceScope.lists {
		mergeScope.addList(nl)
	}

	mergeScope.setClause("ON", false, false)
	on := b.buildBool(mergeScope, m.On)

	clauses := make([]*resolved.MergeClause, len(m.Clauses))
	for i, c := range m.Clauses {
		clauses[i] = b.buildMergeClause(mergeScope, sourceScope, targetList, c)
	}

	outScope := inScope.push()
	outScope.node = &resolved.Merge{Target: targetScan, Source: sourceScope.node, On: on, Clauses: clauses}
	return outScope
}

// buildMergeClause resolves one WHEN clause. MATCHED clauses may update or
// delete; NOT MATCHED clauses may only insert, and their values see only
// the source names since no target row exists yet.
func (b *Builder) buildMergeClause(mergeScope, sourceScope *scope, targetList *nameList, c *ast.MergeClause) *resolved.MergeClause {
	if c.Matched && c.Action == ast.MergeInsert {
		b.handleErr(sql.ErrMergeClauseOrder.New(c.Action, "the clause is MATCHED"))
	}
	if !c.Matched && c.Action != ast.MergeInsert {
		b.handleErr(sql.ErrMergeClauseOrder.New(c.Action, "the clause is NOT MATCHED"))
	}

	out := &resolved.MergeClause{Matched: c.Matched, Action: c.Action.String()}
	condScope := mergeScope
	if !c.Matched {
		condScope = sourceScope
	}
	if c.Condition != nil {
		condScope.setClause("WHEN", false, false)
		out.Condition = b.buildBool(condScope, c.Condition)
	}

	switch c.Action {
	case ast.MergeUpdate:
		for _, a := range c.Set {
			out.Assignments = append(out.Assignments, b.buildAssignment(mergeScope, targetList, a))
		}
	case ast.MergeInsert:
		if len(c.InsertColumns) != len(c.InsertValues) {
			b.handleErr(sql.ErrInsertColumnMismatch.New(len(c.InsertColumns), len(c.InsertValues)))
		}
		for i, name := range c.InsertColumns {
			tc, ok := targetList.find(b.intern(name))
			if !ok {
				suffix := similartext.Find(targetList.names(b), name)
				b.handleErr(sql.ErrColumnNotFound.New(name, suffix))
			}
			b.access.Record(tc.col.Id, sql.WriteAccess)
			out.InsertColumns = append(out.InsertColumns, tc.col)
			out.InsertValues = append(out.InsertValues, b.coerceTo(b.buildScalar(sourceScope, c.InsertValues[i]), tc.col.Type))
		}
	}
	return out
}
