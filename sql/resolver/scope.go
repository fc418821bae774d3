// Package resolver converts parse trees into typed, name-resolved trees.
// It performs lexically scoped name resolution across nested queries,
// correlated subqueries and CTEs, assigns globally unique column
// identities, applies type coercion, and runs the two-pass algorithm for
// aggregate and analytic queries.
package resolver

import (
	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

// scopeColumn is one name target visible in a scope: a resolved column
// identity plus, for projected expressions and grouped keys, the defining
// scalar.
type scopeColumn struct {
	col    *sql.Column
	name   sql.Ident
	table  sql.Ident
	scalar resolved.Expr
	// useScalar makes references to this target expand to the defining
	// scalar instead of a column reference; set for value-table fields.
	useScalar bool
	// correlated is set on copies returned from an enclosing scope.
	correlated bool
}

func (c scopeColumn) empty() bool { return c.col == nil }

// nameList is the ordered set of names one scan or subquery contributes to
// a scope. A value table contributes a single whole-row value instead of
// named columns.
type nameList struct {
	table        sql.Ident
	isValueTable bool
	cols         []scopeColumn
}

// names lists the column names of the list, for error suggestions.
func (nl *nameList) names(b *Builder) []string {
	out := make([]string, len(nl.cols))
	for i, c := range nl.cols {
		out[i] = b.interner.String(c.name)
	}
	return out
}

func (nl *nameList) find(name sql.Ident) (scopeColumn, bool) {
	for _, c := range nl.cols {
		if c.name == name {
			return c, true
		}
	}
	return scopeColumn{}, false
}

// subquery collects the out-of-scope column references crossing one
// subquery boundary; they become the subquery's correlation parameters.
type subquery struct {
	correlated []*sql.Column
	seen       map[sql.ColumnId]bool
}

func (s *subquery) addCorrelated(col *sql.Column) {
	if s.seen == nil {
		s.seen = make(map[sql.ColumnId]bool)
	}
	if s.seen[col.Id] {
		return
	}
	s.seen[col.Id] = true
	s.correlated = append(s.correlated, col)
}

// scope tracks the names visible at one point of a query: an ordered stack
// of name lists plus a pointer to the enclosing (correlated) scope.
// Lookup walks the local lists most-recently-pushed first, then escalates
// to the parent, recording a correlated reference at every subquery
// boundary it crosses.
type scope struct {
	b      *Builder
	parent *scope
	lists  []*nameList
	node   resolved.Node

	// sub marks this scope as a subquery boundary.
	sub *subquery
	// groupBy carries aggregation bookkeeping once a query block turns out
	// to need grouping.
	groupBy *groupBy
	// qi is the enclosing query block's scratch state.
	qi *queryInfo
	// aliases exposes select-list aliases to GROUP BY, HAVING and ORDER BY.
	// aliasesFirst gives them precedence over FROM columns (ORDER BY only).
	aliases      *nameList
	aliasesFirst bool

	// clause names the clause being resolved, for aggregate legality errors.
	clause      string
	allowAgg    bool
	allowWindow bool
}

// push creates a child scope with name visibility into this scope.
func (s *scope) push() *scope {
	return &scope{b: s.b, parent: s, qi: s.qi}
}

// setClause marks which clause the scope is resolving and what call kinds
// are legal there.
func (s *scope) setClause(name string, allowAgg, allowWindow bool) {
	s.clause = name
	s.allowAgg = allowAgg
	s.allowWindow = allowWindow
}

// pushSubquery creates a child scope that is also a correlation boundary.
func (s *scope) pushSubquery() *scope {
	n := s.push()
	n.sub = &subquery{}
	return n
}

// replace creates a scope with the same parent visibility as this one,
// used for the post-group scope.
func (s *scope) replace() *scope {
	return &scope{b: s.b, parent: s.parent, qi: s.qi}
}

func (s *scope) addList(nl *nameList) {
	s.lists = append(s.lists, nl)
}

// addColumn appends a column to the scope's most recent name list,
// creating an anonymous list if none exists.
func (s *scope) addColumn(c scopeColumn) {
	if len(s.lists) == 0 {
		s.lists = append(s.lists, &nameList{})
	}
	nl := s.lists[len(s.lists)-1]
	nl.cols = append(nl.cols, c)
}

// newColumn allocates a fresh column identity and adds it to the scope.
func (s *scope) newColumn(table, name sql.Ident, typ sql.Type, nullable bool, scalar resolved.Expr) scopeColumn {
	col := s.b.ids.Allocate(s.b.interner.String(table), s.b.interner.String(name), typ, nullable)
	c := scopeColumn{col: col, name: name, table: table, scalar: scalar}
	s.addColumn(c)
	return c
}

// columns returns every column of every list, in declaration order.
func (s *scope) columns() []scopeColumn {
	var out []scopeColumn
	for _, nl := range s.lists {
		out = append(out, nl.cols...)
	}
	return out
}

// visibleNames lists the column names in scope, for error suggestions.
func (s *scope) visibleNames() []string {
	var out []string
	for n := s; n != nil; n = n.parent {
		for _, nl := range n.lists {
			for _, c := range nl.cols {
				out = append(out, s.b.interner.String(c.name))
			}
		}
	}
	return out
}

// resolveColumn looks up a (possibly table-qualified) column name. An
// unqualified name matching more than one target at the same scope level is
// an ambiguity error; shadowing across levels resolves by level priority.
func (s *scope) resolveColumn(table, name sql.Ident, checkParent bool) (scopeColumn, bool) {
	if s.aliasesFirst && table == sql.InvalidIdent && s.aliases != nil {
		if c, ok := s.aliases.find(name); ok {
			return c, true
		}
	}

	var found scopeColumn
	var foundCand bool
	for i := len(s.lists) - 1; i >= 0; i-- {
		nl := s.lists[i]
		if table != sql.InvalidIdent && nl.table != table {
			continue
		}
		c, ok := nl.find(name)
		if !ok {
			continue
		}
		if foundCand && found.col.Id != c.col.Id {
			tables := []string{
				s.b.interner.String(c.table),
				s.b.interner.String(found.table),
			}
			s.b.handleErr(sql.ErrAmbiguousColumnName.New(s.b.interner.String(name), tables))
		}
		found = c
		foundCand = true
	}
	if foundCand {
		return found, true
	}

	// value tables expose their row's fields as unqualified names
	if table == sql.InvalidIdent {
		if c, ok := s.resolveValueTableField(name); ok {
			return c, true
		}
	}

	if s.groupBy != nil {
		if c, ok := s.groupBy.outScope.resolveColumn(table, name, false); ok {
			return c, true
		}
	}

	if !s.aliasesFirst && table == sql.InvalidIdent && s.aliases != nil {
		if c, ok := s.aliases.find(name); ok {
			return c, true
		}
	}

	if !checkParent || s.parent == nil {
		return scopeColumn{}, false
	}
	c, ok := s.parent.resolveColumn(table, name, true)
	if !ok {
		return scopeColumn{}, false
	}
	// crossing a subquery boundary makes the reference correlated
	if s.sub != nil {
		s.sub.addCorrelated(c.col)
		c.correlated = true
	}
	return c, true
}

// resolveValueTableField resolves an unqualified name as a field of a
// value table's row type.
func (s *scope) resolveValueTableField(name sql.Ident) (scopeColumn, bool) {
	fieldName := s.b.interner.String(name)
	for i := len(s.lists) - 1; i >= 0; i-- {
		nl := s.lists[i]
		if !nl.isValueTable || len(nl.cols) != 1 {
			continue
		}
		row := nl.cols[0]
		ft, ok := fieldOf(row.col.Type, fieldName)
		if !ok {
			continue
		}
		scalar := &resolved.FieldAccess{
			Child: s.b.columnRef(row),
			Field: fieldName,
			Typ:   ft,
		}
		return scopeColumn{col: row.col, name: name, table: nl.table, scalar: scalar, useScalar: true}, true
	}
	return scopeColumn{}, false
}

// resolveRange looks up a whole-row target (a range variable) by name.
func (s *scope) resolveRange(name sql.Ident) (*nameList, bool) {
	for i := len(s.lists) - 1; i >= 0; i-- {
		if s.lists[i].table == name {
			return s.lists[i], true
		}
	}
	if s.parent != nil {
		return s.parent.resolveRange(name)
	}
	return nil, false
}

// hasTable reports whether a range variable with the given name exists at
// this scope level; used for duplicate alias detection.
func (s *scope) hasTable(name sql.Ident) bool {
	for _, nl := range s.lists {
		if nl.table == name {
			return true
		}
	}
	return false
}

// fieldOf resolves a field of a struct or proto type.
func fieldOf(t sql.Type, name string) (sql.Type, bool) {
	switch t := t.(type) {
	case types.StructType:
		return t.Field(name)
	case types.ProtoType:
		return t.Field(name)
	}
	return nil, false
}
