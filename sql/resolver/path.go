package resolver

import (
	"github.com/arbordb/go-sql-resolver/internal/similartext"
	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

// buildPath resolves a dotted identifier path. The try-order is part of the
// language: (1) the first segment as a column or range variable in scope,
// (2) a catalog named constant, (3) a catalog table promoted to a scan.
// The same surface text can be a column path or a qualified table name, so
// reordering these steps changes which statements resolve.
func (b *Builder) buildPath(inScope *scope, p *ast.Path) resolved.Expr {
	names := p.Names
	if len(names) == 0 {
		b.handleErr(sql.ErrInternal.New("empty path expression"))
	}
	first := b.intern(names[0])

	if c, ok := inScope.resolveColumn(sql.InvalidIdent, first, true); ok {
		return b.walkFields(inScope, b.columnRef(c), p, 1)
	}

	if len(names) >= 2 {
		if c, ok := inScope.resolveColumn(first, b.intern(names[1]), true); ok {
			return b.walkFields(inScope, b.columnRef(c), p, 2)
		}
	}

	if nl, ok := inScope.resolveRange(first); ok {
		if nl.isValueTable && len(nl.cols) == 1 {
			return b.walkFields(inScope, b.columnRef(nl.cols[0]), p, 1)
		}
		b.handleErr(sql.ErrTableAsValue.New(names[0]))
	}

	if con, ok := b.cat.Constant(b.ctx, names[0]); ok {
		lit := &resolved.Literal{Value: b.constantValue(names[0], con), Typ: con.Type}
		return b.walkFields(inScope, lit, p, 1)
	}

	if tbl, err := b.cat.Table(b.ctx, names[0]); err == nil {
		return b.walkFields(inScope, b.tableAsValue(names[0], tbl), p, 1)
	}

	suffix := similartext.Find(inScope.visibleNames(), names[0])
	b.handleErr(sql.ErrColumnNotFound.New(names[0], suffix))
	return nil
}

// constantValue normalizes a catalog constant's Go value to its declared
// type's representation; embedders register constants with whatever Go type
// their config layer produced. Composite-typed constants are taken as
// declared.
func (b *Builder) constantValue(name string, con *sql.Constant) interface{} {
	switch types.KindOf(con.Type) {
	case types.BoolKind, types.Int64Kind, types.Float64Kind,
		types.StringKind, types.BytesKind, types.DecimalKind:
		v, err := types.ConvertValue(con.Value, con.Type)
		if err != nil {
			b.handleErr(sql.ErrInternal.New("constant " + name + " does not match its declared type"))
		}
		return v
	}
	return con.Value
}

// tableAsValue promotes a catalog value table referenced in expression
// position to a single-value scan. Plain tables have no value form.
func (b *Builder) tableAsValue(name string, tbl sql.Table) resolved.Expr {
	if b.features.StrictNameResolution || !tbl.IsValueTable() {
		b.handleErr(sql.ErrTableAsValue.New(name))
	}
	scan, nl := b.tableScan(tbl, name)
	row := nl.cols[0]
	b.access.Record(row.col.Id, sql.ReadAccess)
	return &resolved.Subquery{Query: scan, Typ: row.col.Type}
}

// walkFields extends a resolved base expression through the remaining path
// segments as struct or protobuf field accesses.
func (b *Builder) walkFields(inScope *scope, base resolved.Expr, p *ast.Path, start int) resolved.Expr {
	expr := base
	for i := start; i < len(p.Names); i++ {
		name := p.Names[i]
		if i < len(p.Parenthesized) && p.Parenthesized[i] {
			expr = b.extensionField(expr, name)
			continue
		}
		ft, ok := fieldOf(expr.Type(), name)
		if !ok {
			suffix := similartext.Find(fieldNamesOf(expr.Type()), name)
			b.handleErr(sql.ErrFieldNotFound.New(name, expr.Type(), suffix))
		}
		expr = &resolved.FieldAccess{Child: expr, Field: name, Typ: ft}
	}
	return expr
}

// extensionField resolves a parenthesized path segment as a protobuf
// extension by fully qualified name.
func (b *Builder) extensionField(base resolved.Expr, fullName string) resolved.Expr {
	pt, ok := base.Type().(types.ProtoType)
	if !ok {
		b.handleErr(sql.ErrFieldNotFound.New(fullName, base.Type(), ""))
	}
	ft, ok := pt.Extension(fullName)
	if !ok {
		b.handleErr(sql.ErrFieldNotFound.New(fullName, base.Type(), ""))
	}
	return &resolved.FieldAccess{Child: base, Field: fullName, Extension: true, Typ: ft}
}

// fieldNamesOf lists the fields of a struct or proto type, for suggestions.
func fieldNamesOf(t sql.Type) []string {
	switch t := t.(type) {
	case types.StructType:
		names := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			names[i] = f.Name
		}
		return names
	case types.ProtoType:
		return t.FieldNames()
	}
	return nil
}
