package resolver

import (
	"github.com/arbordb/go-sql-resolver/internal/similartext"
	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
)

// expandStar expands `*` or `t.*` into one select column state per visible
// column. EXCEPT and REPLACE names are validated against the expanding name
// lists before any column is emitted, so a misspelled modifier is an error
// rather than a silent no-op.
func (b *Builder) expandStar(fromScope *scope, qi *queryInfo, se *ast.StarExpr) {
	var lists []*nameList
	if se.Table != "" {
		nl, ok := fromScope.resolveRange(b.intern(se.Table))
		if !ok {
			suffix := similartext.Find(b.cat.TableNames(b.ctx), se.Table)
			b.handleErr(sql.ErrTableNotFound.New(se.Table, suffix))
		}
		lists = []*nameList{nl}
	} else {
		if len(fromScope.lists) == 0 {
			b.handleErr(sql.ErrUnsupportedFeature.New("SELECT * without a FROM clause"))
		}
		lists = fromScope.lists
	}

	except := make(map[sql.Ident]bool, len(se.Except))
	for _, name := range se.Except {
		id := b.intern(name)
		if !b.starHasColumn(lists, id) {
			b.handleErr(sql.ErrStarExceptNotFound.New(name))
		}
		except[id] = true
	}
	replace := make(map[sql.Ident]*ast.AliasedExpr, len(se.Replace))
	for _, r := range se.Replace {
		id := b.intern(r.As)
		if !b.starHasColumn(lists, id) {
			b.handleErr(sql.ErrStarExceptNotFound.New(r.As))
		}
		replace[id] = r
	}

	for _, nl := range lists {
		if nl.isValueTable {
			b.expandValueTableStar(fromScope, qi, nl, except, replace)
			continue
		}
		for _, c := range nl.cols {
			if except[c.name] {
				continue
			}
			name := b.interner.String(c.name)
			st := &selectColState{alias: name, aliasId: c.name}
			if r, ok := replace[c.name]; ok {
				st.firstPass = b.buildScalar(fromScope, r.Expr)
				st.explicit = true
			} else {
				st.firstPass = b.columnRef(c)
			}
			qi.states = append(qi.states, st)
		}
	}
}

// expandValueTableStar expands a value table's whole-row value into one
// state per field of its row type.
func (b *Builder) expandValueTableStar(fromScope *scope, qi *queryInfo, nl *nameList, except map[sql.Ident]bool, replace map[sql.Ident]*ast.AliasedExpr) {
	row := nl.cols[0]
	for _, fname := range fieldNamesOf(row.col.Type) {
		id := b.intern(fname)
		if except[id] {
			continue
		}
		st := &selectColState{alias: fname, aliasId: id}
		if r, ok := replace[id]; ok {
			st.firstPass = b.buildScalar(fromScope, r.Expr)
			st.explicit = true
		} else {
			ft, _ := fieldOf(row.col.Type, fname)
			st.firstPass = &resolved.FieldAccess{Child: b.columnRef(row), Field: fname, Typ: ft}
		}
		qi.states = append(qi.states, st)
	}
}

// starHasColumn reports whether any expanding list (or value-table row
// type) has the named column.
func (b *Builder) starHasColumn(lists []*nameList, name sql.Ident) bool {
	for _, nl := range lists {
		if nl.isValueTable {
			fieldName := b.interner.String(name)
			if _, ok := fieldOf(nl.cols[0].col.Type, fieldName); ok {
				return true
			}
			continue
		}
		if _, ok := nl.find(name); ok {
			return true
		}
	}
	return false
}
