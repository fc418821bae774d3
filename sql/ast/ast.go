// Package ast defines the parse tree the resolver consumes: a closed set of
// tagged variants, one per syntactic construct. The parser that produces it
// lives outside this module; the resolver dispatches over these types with
// exhaustive switches so an unhandled node kind is a visible default case,
// not a silent fallthrough.
//
// Nodes are immutable once built. Every node carries a byte offset into the
// original statement text, used to slice literal images and to position
// diagnostics.
package ast

// Node is any parse tree node.
type Node interface {
	// Pos returns the byte offset of the node in the original source text.
	Pos() int
}

// Statement is a top-level statement node.
type Statement interface {
	Node
	statementNode()
}

// Expr is a scalar expression node.
type Expr interface {
	Node
	exprNode()
}

// TableExpr is a FROM-clause relation node.
type TableExpr interface {
	Node
	tableExprNode()
}

// SelectExpr is one entry of a SELECT list.
type SelectExpr interface {
	Node
	selectExprNode()
}

func (*Select) statementNode() {}
func (*Insert) statementNode() {}
func (*Update) statementNode() {}
func (*Delete) statementNode() {}
func (*Merge) statementNode()  {}

// Select is a query block: WITH, SELECT list, FROM, WHERE, GROUP BY,
// HAVING, ORDER BY, LIMIT/OFFSET.
type Select struct {
	Position int
	With     *With
	Distinct bool
	Exprs    []SelectExpr
	// From is nil for a FROM-less select, which scans a single empty row.
	From    TableExpr
	Where   Expr
	GroupBy []Expr
	Having  Expr
	OrderBy []*Order
	Limit   Expr
	Offset  Expr
}

func (s *Select) Pos() int { return s.Position }

// With is a WITH clause introducing one or more CTEs.
type With struct {
	Position int
	CTEs     []*CTE
}

func (w *With) Pos() int { return w.Position }

// CTE is one WITH entry: an alias, an optional column alias list, and the
// defining subquery.
type CTE struct {
	Position int
	Alias    string
	Columns  []string
	Subquery *Select
}

func (c *CTE) Pos() int { return c.Position }

// Order is one ORDER BY term.
type Order struct {
	Position int
	Expr     Expr
	Desc     bool
}

func (o *Order) Pos() int { return o.Position }

// StarExpr is `*` or `t.*`, with optional EXCEPT and REPLACE modifiers.
type StarExpr struct {
	Position int
	// Table qualifies the expansion to one range variable; empty expands
	// every visible column.
	Table  string
	Except []string
	// Replace substitutes the expansion of the named columns.
	Replace []*AliasedExpr
}

func (s *StarExpr) Pos() int         { return s.Position }
func (*StarExpr) selectExprNode()    {}

// AliasedExpr is a SELECT-list expression with an optional explicit alias.
type AliasedExpr struct {
	Position int
	Expr     Expr
	// As is empty when the surface alias must be synthesized.
	As string
	// Input is the original expression text, used to synthesize an alias.
	Input string
}

func (a *AliasedExpr) Pos() int      { return a.Position }
func (*AliasedExpr) selectExprNode() {}

// NamedTable is a (possibly aliased) table reference in FROM.
type NamedTable struct {
	Position int
	Name     string
	As       string
}

func (t *NamedTable) Pos() int     { return t.Position }
func (*NamedTable) tableExprNode() {}

// DerivedTable is a parenthesized subquery in FROM with an alias and an
// optional column alias list.
type DerivedTable struct {
	Position int
	Select   *Select
	As       string
	Columns  []string
}

func (t *DerivedTable) Pos() int     { return t.Position }
func (*DerivedTable) tableExprNode() {}

// JoinKind enumerates join flavors.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

func (k JoinKind) String() string {
	switch k {
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	case FullJoin:
		return "FULL JOIN"
	case CrossJoin:
		return "CROSS JOIN"
	default:
		return "JOIN"
	}
}

// JoinTable is a binary join of two table expressions.
type JoinTable struct {
	Position int
	Kind     JoinKind
	Left     TableExpr
	Right    TableExpr
	// On is nil for cross joins.
	On Expr
}

func (t *JoinTable) Pos() int     { return t.Position }
func (*JoinTable) tableExprNode() {}
