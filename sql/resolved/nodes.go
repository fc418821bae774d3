package resolved

import (
	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

// compareType is the type of every predicate expression.
var compareType = types.Boolean

// Node is one relational operator of the resolved tree. Output columns are
// reported in declaration order.
type Node interface {
	Columns() []*sql.Column
	Children() []Node
}

// SingleRow scans exactly one empty row; the terminal leaf of a FROM-less
// select.
type SingleRow struct{}

func (*SingleRow) Columns() []*sql.Column { return nil }
func (*SingleRow) Children() []Node       { return nil }

// TableScan reads a catalog table. Cols is the declared output column list;
// the pruning pass removes entries with no recorded access, which is the
// only mutation permitted after resolution.
type TableScan struct {
	Table sql.Table
	// Alias is the range variable name the scan is visible under.
	Alias string
	Cols  []*sql.Column
	// ValueTable marks a scan producing one whole-row value per row.
	ValueTable bool
}

func (t *TableScan) Columns() []*sql.Column { return t.Cols }
func (t *TableScan) Children() []Node       { return nil }

// SubqueryAlias is a derived table or a CTE reference. UniqueName
// disambiguates CTEs whose surface alias collides across scopes.
type SubqueryAlias struct {
	Name       string
	UniqueName string
	Child      Node
	Cols       []*sql.Column
}

func (s *SubqueryAlias) Columns() []*sql.Column { return s.Cols }
func (s *SubqueryAlias) Children() []Node       { return []Node{s.Child} }

// Values produces literal rows, the source of an INSERT ... VALUES.
type Values struct {
	Rows [][]Expr
	Cols []*sql.Column
}

func (v *Values) Columns() []*sql.Column { return v.Cols }
func (v *Values) Children() []Node       { return nil }

// Filter applies a predicate; WHERE and HAVING both lower to it.
type Filter struct {
	Cond  Expr
	Child Node
}

func (f *Filter) Columns() []*sql.Column { return f.Child.Columns() }
func (f *Filter) Children() []Node       { return []Node{f.Child} }

// ProjectedExpr pairs an output column identity with its defining expression.
type ProjectedExpr struct {
	Col  *sql.Column
	Expr Expr
}

// Project computes the final output row of a query block.
type Project struct {
	Projections []ProjectedExpr
	Child       Node
}

func (p *Project) Columns() []*sql.Column {
	cols := make([]*sql.Column, len(p.Projections))
	for i, pe := range p.Projections {
		cols[i] = pe.Col
	}
	return cols
}
func (p *Project) Children() []Node { return []Node{p.Child} }

// GroupBy aggregates its child. Keys are the grouping expressions paired
// with their post-grouping column identities; Aggs are the aggregate calls
// collected from the whole query block.
type GroupBy struct {
	Keys  []ProjectedExpr
	Aggs  []ProjectedExpr
	Child Node
}

func (g *GroupBy) Columns() []*sql.Column {
	cols := make([]*sql.Column, 0, len(g.Keys)+len(g.Aggs))
	for _, k := range g.Keys {
		cols = append(cols, k.Col)
	}
	for _, a := range g.Aggs {
		cols = append(cols, a.Col)
	}
	return cols
}
func (g *GroupBy) Children() []Node { return []Node{g.Child} }

// Window computes analytic functions over post-aggregation rows.
type Window struct {
	Funcs []ProjectedExpr
	Child Node
}

func (w *Window) Columns() []*sql.Column {
	cols := append([]*sql.Column{}, w.Child.Columns()...)
	for _, f := range w.Funcs {
		cols = append(cols, f.Col)
	}
	return cols
}
func (w *Window) Children() []Node { return []Node{w.Child} }

// Distinct removes duplicate rows: an implicit grouping over every visible
// output column.
type Distinct struct {
	Child Node
}

func (d *Distinct) Columns() []*sql.Column { return d.Child.Columns() }
func (d *Distinct) Children() []Node       { return []Node{d.Child} }

// Sort orders rows; it can reference analytic outputs.
type Sort struct {
	Fields []SortField
	Child  Node
}

func (s *Sort) Columns() []*sql.Column { return s.Child.Columns() }
func (s *Sort) Children() []Node       { return []Node{s.Child} }

// Limit bounds the row count with optional offset.
type Limit struct {
	Limit  Expr
	Offset Expr
	Child  Node
}

func (l *Limit) Columns() []*sql.Column { return l.Child.Columns() }
func (l *Limit) Children() []Node       { return []Node{l.Child} }

// Join combines two relations.
type Join struct {
	Kind  string
	Left  Node
	Right Node
	Cond  Expr
}

func (j *Join) Columns() []*sql.Column {
	return append(append([]*sql.Column{}, j.Left.Columns()...), j.Right.Columns()...)
}
func (j *Join) Children() []Node { return []Node{j.Left, j.Right} }

// Inspect walks the node tree depth-first, stopping a branch when f
// returns false. Scalar subtrees are not descended; use InspectExpr.
func Inspect(n Node, f func(Node) bool) {
	if n == nil {
		return
	}
	if !f(n) {
		return
	}
	for _, c := range n.Children() {
		Inspect(c, f)
	}
}
