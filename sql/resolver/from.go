package resolver

import (
	"github.com/arbordb/go-sql-resolver/internal/similartext"
	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

// buildFrom resolves the FROM clause into a fresh child scope. A FROM-less
// select scans a single empty row.
func (b *Builder) buildFrom(inScope *scope, te ast.TableExpr) *scope {
	outScope := inScope.push()
	if te == nil {
		outScope.node = &resolved.SingleRow{}
		return outScope
	}
	b.buildTableExpr(outScope, te)
	return outScope
}

func (b *Builder) buildTableExpr(outScope *scope, te ast.TableExpr) {
	b.enter()
	defer b.exit()

	switch te := te.(type) {
	case *ast.NamedTable:
		b.buildNamedTable(outScope, te)
	case *ast.DerivedTable:
		b.buildDerivedTable(outScope, te)
	case *ast.JoinTable:
		b.buildJoin(outScope, te)
	default:
		b.handleErr(sql.ErrInternal.New("unhandled table expression kind"))
	}
}

// buildNamedTable resolves a table reference, checking the active CTE
// bindings before the catalog so an inner WITH shadows a real table.
func (b *Builder) buildNamedTable(outScope *scope, t *ast.NamedTable) {
	aliasName := t.As
	if aliasName == "" {
		aliasName = t.Name
	}
	alias := b.intern(aliasName)
	if outScope.hasTable(alias) {
		b.handleErr(sql.ErrDuplicateAlias.New(aliasName))
	}

	if d, ok := b.ctes.lookup(b.intern(t.Name)); ok {
		b.buildCTERef(outScope, d, aliasName)
		return
	}

	tbl, err := b.cat.Table(b.ctx, t.Name)
	if err != nil {
		suffix := similartext.Find(b.cat.TableNames(b.ctx), t.Name)
		b.handleErr(sql.ErrTableNotFound.New(t.Name, suffix))
	}
	scan, nl := b.tableScan(tbl, aliasName)
	outScope.addList(nl)
	outScope.node = scan
}

// tableScan allocates fresh column identities for one scan of a catalog
// table. A value table contributes a single whole-row value named after the
// range variable instead of its schema columns.
func (b *Builder) tableScan(tbl sql.Table, alias string) (*resolved.TableScan, *nameList) {
	aliasId := b.intern(alias)
	scan := &resolved.TableScan{Table: tbl, Alias: alias, ValueTable: tbl.IsValueTable()}
	nl := &nameList{table: aliasId, isValueTable: tbl.IsValueTable()}

	if tbl.IsValueTable() {
		col := b.ids.Allocate(alias, alias, valueTableRowType(tbl.Schema()), false)
		scan.Cols = []*sql.Column{col}
		nl.cols = []scopeColumn{{col: col, name: aliasId, table: aliasId}}
		return scan, nl
	}

	for _, def := range tbl.Schema() {
		col := b.ids.Allocate(alias, def.Name, def.Type, def.Nullable)
		scan.Cols = append(scan.Cols, col)
		nl.cols = append(nl.cols, scopeColumn{col: col, name: b.intern(def.Name), table: aliasId})
	}
	return scan, nl
}

// valueTableRowType is the type of a value table's whole-row value: the
// single declared column's type, or a struct over a multi-column schema.
func valueTableRowType(schema sql.Schema) sql.Type {
	if len(schema) == 1 {
		return schema[0].Type
	}
	fields := make([]types.StructField, len(schema))
	for i, def := range schema {
		fields[i] = types.StructField{Name: def.Name, Type: def.Type}
	}
	return types.StructType{Fields: fields}
}

// buildCTERef materializes one reference to a WITH binding. The definition
// is re-resolved per reference so every reference owns fresh column
// identities; a self-reference inside the definition falls through to the
// shadowed binding or the catalog.
func (b *Builder) buildCTERef(outScope *scope, d *cteDef, alias string) {
	release := b.ctes.beginDefinition(d)
	defer release()
	b.buildSubqueryAlias(outScope, alias, d.unique, d.def, d.columns)
}

func (b *Builder) buildDerivedTable(outScope *scope, t *ast.DerivedTable) {
	if t.As == "" {
		b.handleErr(sql.ErrInternal.New("derived table without an alias"))
	}
	b.buildSubqueryAlias(outScope, t.As, t.As, t.Select, t.Columns)
}

// buildSubqueryAlias resolves a subquery used as a relation and projects its
// output under a new range variable. Subqueries in FROM cannot see the
// enclosing scope; only expression-position subqueries correlate.
func (b *Builder) buildSubqueryAlias(outScope *scope, surface, unique string, sel *ast.Select, colAliases []string) {
	alias := b.intern(surface)
	if outScope.hasTable(alias) {
		b.handleErr(sql.ErrDuplicateAlias.New(surface))
	}

	defScope := b.buildSelect(b.newScope(), sel)
	inner := defScope.node
	innerCols := inner.Columns()
	if len(colAliases) > 0 {
		if len(colAliases) != len(innerCols) {
			b.handleErr(sql.ErrColumnCountMismatch.New(len(colAliases), len(innerCols)))
		}
		seen := make(map[sql.Ident]bool, len(colAliases))
		for _, a := range colAliases {
			id := b.intern(a)
			if seen[id] {
				b.handleErr(sql.ErrDuplicateColumnAlias.New(a))
			}
			seen[id] = true
		}
	}

	sqa := &resolved.SubqueryAlias{Name: surface, UniqueName: unique, Child: inner}
	nl := &nameList{table: alias}
	for i, ic := range innerCols {
		name := ic.Name
		if len(colAliases) > 0 {
			name = colAliases[i]
		}
		col := b.ids.Allocate(surface, name, ic.Type, ic.Nullable)
		sqa.Cols = append(sqa.Cols, col)
		nl.cols = append(nl.cols, scopeColumn{col: col, name: b.intern(name), table: alias})
	}
	outScope.addList(nl)
	outScope.node = sqa
}

// buildJoin resolves both sides into the same scope, then the ON condition
// with both sides' names visible.
func (b *Builder) buildJoin(outScope *scope, j *ast.JoinTable) {
	b.buildTableExpr(outScope, j.Left)
	left := outScope.node
	b.buildTableExpr(outScope, j.Right)
	right := outScope.node

	var cond resolved.Expr
	if j.On != nil {
		cond = b.buildBool(outScope, j.On)
	} else if j.Kind != ast.CrossJoin {
		b.handleErr(sql.ErrInternal.New("non-cross join without a condition"))
	}
	outScope.node = &resolved.Join{Kind: j.Kind.String(), Left: left, Right: right, Cond: cond}
}
