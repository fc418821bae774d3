// Package resolved defines the typed, column-addressed output tree of the
// resolver. Nodes are produced bottom-up and never mutated after a subtree
// is returned to its parent; column pruning and access-list population are
// the sole post-hoc passes and run once on the completed tree.
package resolved

import (
	"fmt"
	"strings"

	"github.com/arbordb/go-sql-resolver/sql"
)

// Expr is a typed scalar expression in the resolved tree.
type Expr interface {
	// Type returns the expression's resolved type.
	Type() sql.Type
	// Children returns the direct scalar children.
	Children() []Expr
	// String renders a canonical surface form, used for synthesized
	// aliases and grouped-expression matching.
	String() string
}

// ColumnRef reads one resolved column from the row in scope.
type ColumnRef struct {
	Col *sql.Column
	// Correlated marks a reference that escaped to an enclosing query's
	// scope across a subquery boundary.
	Correlated bool
}

func (c *ColumnRef) Type() sql.Type   { return c.Col.Type }
func (c *ColumnRef) Children() []Expr { return nil }
func (c *ColumnRef) String() string   { return c.Col.String() }

// Literal is a constant with an optional preserved textual image.
type Literal struct {
	Value interface{}
	Typ   sql.Type
}

func (l *Literal) Type() sql.Type   { return l.Typ }
func (l *Literal) Children() []Expr { return nil }
func (l *Literal) String() string {
	if l.Value == nil {
		return "NULL"
	}
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", l.Value)
}

// Parameter is a query parameter with an inferred or declared type.
type Parameter struct {
	Name    string
	Ordinal int
	Typ     sql.Type
}

func (p *Parameter) Type() sql.Type   { return p.Typ }
func (p *Parameter) Children() []Expr { return nil }
func (p *Parameter) String() string {
	if p.Name != "" {
		return "@" + p.Name
	}
	return fmt.Sprintf("?%d", p.Ordinal)
}

// Cast converts its child to a target type.
type Cast struct {
	Child Expr
	To    sql.Type
	// Implicit casts were inserted by coercion, not written by the user.
	Implicit bool
}

func (c *Cast) Type() sql.Type   { return c.To }
func (c *Cast) Children() []Expr { return []Expr{c.Child} }
func (c *Cast) String() string {
	if c.Implicit {
		return c.Child.String()
	}
	return fmt.Sprintf("CAST(%s AS %s)", c.Child, c.To)
}

// FuncCall is a resolved scalar function call bound to one overload.
type FuncCall struct {
	Name     string
	Overload *sql.Overload
	Args     []Expr
	Typ      sql.Type
}

func (f *FuncCall) Type() sql.Type   { return f.Typ }
func (f *FuncCall) Children() []Expr { return f.Args }
func (f *FuncCall) String() string   { return callString(f.Name, f.Args, false) }

// AggregateCall is a resolved aggregate function call.
type AggregateCall struct {
	Name     string
	Overload *sql.Overload
	Args     []Expr
	Distinct bool
	Typ      sql.Type
}

func (a *AggregateCall) Type() sql.Type   { return a.Typ }
func (a *AggregateCall) Children() []Expr { return a.Args }
func (a *AggregateCall) String() string   { return callString(a.Name, a.Args, a.Distinct) }

// SortField is one ordering term.
type SortField struct {
	Expr Expr
	Desc bool
}

func (s SortField) String() string {
	if s.Desc {
		return s.Expr.String() + " DESC"
	}
	return s.Expr.String()
}

// WindowCall is a resolved analytic function call with its window.
type WindowCall struct {
	Name        string
	Overload    *sql.Overload
	Args        []Expr
	PartitionBy []Expr
	OrderBy     []SortField
	Typ         sql.Type
}

func (w *WindowCall) Type() sql.Type   { return w.Typ }
func (w *WindowCall) Children() []Expr { return w.Args }
func (w *WindowCall) String() string {
	var over []string
	if len(w.PartitionBy) > 0 {
		parts := make([]string, len(w.PartitionBy))
		for i, p := range w.PartitionBy {
			parts[i] = p.String()
		}
		over = append(over, "PARTITION BY "+strings.Join(parts, ", "))
	}
	if len(w.OrderBy) > 0 {
		parts := make([]string, len(w.OrderBy))
		for i, o := range w.OrderBy {
			parts[i] = o.String()
		}
		over = append(over, "ORDER BY "+strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s OVER (%s)", callString(w.Name, w.Args, false), strings.Join(over, " "))
}

// Comparison is a binary predicate.
type Comparison struct {
	Op          string
	Left, Right Expr
}

func (c *Comparison) Type() sql.Type   { return compareType }
func (c *Comparison) Children() []Expr { return []Expr{c.Left, c.Right} }
func (c *Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op, c.Right)
}

// Arithmetic is a binary numeric operation.
type Arithmetic struct {
	Op          string
	Left, Right Expr
	Typ         sql.Type
}

func (a *Arithmetic) Type() sql.Type   { return a.Typ }
func (a *Arithmetic) Children() []Expr { return []Expr{a.Left, a.Right} }
func (a *Arithmetic) String() string {
	return fmt.Sprintf("(%s %s %s)", a.Left, a.Op, a.Right)
}

// Negate is unary minus.
type Negate struct {
	Child Expr
}

func (n *Negate) Type() sql.Type   { return n.Child.Type() }
func (n *Negate) Children() []Expr { return []Expr{n.Child} }
func (n *Negate) String() string   { return "(-" + n.Child.String() + ")" }

// And is a logical conjunction.
type And struct {
	Left, Right Expr
}

func (a *And) Type() sql.Type   { return compareType }
func (a *And) Children() []Expr { return []Expr{a.Left, a.Right} }
func (a *And) String() string   { return fmt.Sprintf("(%s AND %s)", a.Left, a.Right) }

// Or is a logical disjunction.
type Or struct {
	Left, Right Expr
}

func (o *Or) Type() sql.Type   { return compareType }
func (o *Or) Children() []Expr { return []Expr{o.Left, o.Right} }
func (o *Or) String() string   { return fmt.Sprintf("(%s OR %s)", o.Left, o.Right) }

// Not is a logical negation.
type Not struct {
	Child Expr
}

func (n *Not) Type() sql.Type   { return compareType }
func (n *Not) Children() []Expr { return []Expr{n.Child} }
func (n *Not) String() string   { return "(NOT " + n.Child.String() + ")" }

// IsNull tests its child against NULL.
type IsNull struct {
	Child  Expr
	Negate bool
}

func (i *IsNull) Type() sql.Type   { return compareType }
func (i *IsNull) Children() []Expr { return []Expr{i.Child} }
func (i *IsNull) String() string {
	if i.Negate {
		return fmt.Sprintf("(%s IS NOT NULL)", i.Child)
	}
	return fmt.Sprintf("(%s IS NULL)", i.Child)
}

// CaseBranch is one WHEN of a Case.
type CaseBranch struct {
	Cond  Expr
	Value Expr
}

// Case is a resolved CASE expression with a unified result type.
type Case struct {
	Operand  Expr
	Branches []CaseBranch
	Else     Expr
	Typ      sql.Type
}

func (c *Case) Type() sql.Type { return c.Typ }
func (c *Case) Children() []Expr {
	var out []Expr
	if c.Operand != nil {
		out = append(out, c.Operand)
	}
	for _, b := range c.Branches {
		out = append(out, b.Cond, b.Value)
	}
	if c.Else != nil {
		out = append(out, c.Else)
	}
	return out
}
func (c *Case) String() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	if c.Operand != nil {
		sb.WriteString(" " + c.Operand.String())
	}
	for _, b := range c.Branches {
		fmt.Fprintf(&sb, " WHEN %s THEN %s", b.Cond, b.Value)
	}
	if c.Else != nil {
		sb.WriteString(" ELSE " + c.Else.String())
	}
	sb.WriteString(" END")
	return sb.String()
}

// Tuple is an expression list.
type Tuple struct {
	Exprs []Expr
}

func (t *Tuple) Type() sql.Type   { return compareType }
func (t *Tuple) Children() []Expr { return t.Exprs }
func (t *Tuple) String() string {
	parts := make([]string, len(t.Exprs))
	for i, e := range t.Exprs {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FieldAccess reads a struct or protobuf field from its child.
type FieldAccess struct {
	Child Expr
	Field string
	// Extension marks protobuf extension field access by qualified name.
	Extension bool
	Typ       sql.Type
}

func (f *FieldAccess) Type() sql.Type   { return f.Typ }
func (f *FieldAccess) Children() []Expr { return []Expr{f.Child} }
func (f *FieldAccess) String() string {
	if f.Extension {
		return fmt.Sprintf("%s.(%s)", f.Child, f.Field)
	}
	return fmt.Sprintf("%s.%s", f.Child, f.Field)
}

// ArrayAt reads one array element by offset.
type ArrayAt struct {
	Array Expr
	Index Expr
	Typ   sql.Type
}

func (a *ArrayAt) Type() sql.Type   { return a.Typ }
func (a *ArrayAt) Children() []Expr { return []Expr{a.Array, a.Index} }
func (a *ArrayAt) String() string   { return fmt.Sprintf("%s[OFFSET(%s)]", a.Array, a.Index) }

// Subquery is a scalar subquery expression with its correlation parameters.
type Subquery struct {
	Query Node
	// Correlated lists the outer columns the subquery references.
	Correlated []*sql.Column
	Typ        sql.Type
}

func (s *Subquery) Type() sql.Type   { return s.Typ }
func (s *Subquery) Children() []Expr { return nil }
func (s *Subquery) String() string   { return "(subquery)" }

// Exists is an EXISTS predicate over a subquery.
type Exists struct {
	Subquery *Subquery
}

func (e *Exists) Type() sql.Type   { return compareType }
func (e *Exists) Children() []Expr { return nil }
func (e *Exists) String() string   { return "EXISTS(subquery)" }

// InTuple tests membership in an expression list.
type InTuple struct {
	Left   Expr
	Right  *Tuple
	Negate bool
}

func (i *InTuple) Type() sql.Type   { return compareType }
func (i *InTuple) Children() []Expr { return append([]Expr{i.Left}, i.Right.Exprs...) }
func (i *InTuple) String() string {
	if i.Negate {
		return fmt.Sprintf("(%s NOT IN %s)", i.Left, i.Right)
	}
	return fmt.Sprintf("(%s IN %s)", i.Left, i.Right)
}

// InSubquery tests membership in a subquery's result.
type InSubquery struct {
	Left   Expr
	Right  *Subquery
	Negate bool
}

func (i *InSubquery) Type() sql.Type   { return compareType }
func (i *InSubquery) Children() []Expr { return []Expr{i.Left} }
func (i *InSubquery) String() string {
	if i.Negate {
		return fmt.Sprintf("(%s NOT IN %s)", i.Left, i.Right)
	}
	return fmt.Sprintf("(%s IN %s)", i.Left, i.Right)
}

func callString(name string, args []Expr, distinct bool) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	if distinct {
		return fmt.Sprintf("%s(DISTINCT %s)", name, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

// InspectExpr walks e depth-first, stopping a branch when f returns false.
func InspectExpr(e Expr, f func(Expr) bool) {
	if e == nil {
		return
	}
	if !f(e) {
		return
	}
	for _, c := range e.Children() {
		InspectExpr(c, f)
	}
}
