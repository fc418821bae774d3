package ast

func (*Path) exprNode()       {}
func (*Literal) exprNode()    {}
func (*Param) exprNode()      {}
func (*Unary) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Comparison) exprNode() {}
func (*And) exprNode()        {}
func (*Or) exprNode()         {}
func (*Not) exprNode()        {}
func (*IsNull) exprNode()     {}
func (*FuncExpr) exprNode()   {}
func (*Case) exprNode()       {}
func (*Cast) exprNode()       {}
func (*Tuple) exprNode()      {}
func (*Subquery) exprNode()   {}
func (*Exists) exprNode()     {}
func (*Interval) exprNode()   {}
func (*ArrayIndex) exprNode() {}

// Path is a dotted identifier path like a, a.b, or a.b.c. A parenthesized
// segment is a protobuf extension field reference by qualified name.
type Path struct {
	Position int
	Names    []string
	// Parenthesized marks segments that are extension field references.
	// Indexes correspond to Names; missing entries are false.
	Parenthesized []bool
}

func (p *Path) Pos() int { return p.Position }

// LiteralKind tags the lexical class of a literal.
type LiteralKind int

const (
	IntVal LiteralKind = iota
	FloatVal
	StrVal
	BoolVal
	NullVal
)

// Literal is a lexical literal. Text is the original image from the source,
// preserved verbatim so exact-decimal coercion can reconstruct precision.
type Literal struct {
	Position int
	Kind     LiteralKind
	Text     string
}

func (l *Literal) Pos() int { return l.Position }

// Param is a query parameter, named (@name) or positional (?).
type Param struct {
	Position int
	// Name is empty for positional parameters.
	Name    string
	Ordinal int
}

func (p *Param) Pos() int { return p.Position }

// Unary is -x or +x.
type Unary struct {
	Position int
	Op       string
	Expr     Expr
}

func (u *Unary) Pos() int { return u.Position }

// Binary is an arithmetic or bitwise operation.
type Binary struct {
	Position int
	Op       string
	Left     Expr
	Right    Expr
}

func (b *Binary) Pos() int { return b.Position }

// Comparison covers =, <>, <, <=, >, >=, LIKE, IN.
type Comparison struct {
	Position int
	Op       string
	Left     Expr
	Right    Expr
}

func (c *Comparison) Pos() int { return c.Position }

// And is a logical conjunction.
type And struct {
	Position    int
	Left, Right Expr
}

func (a *And) Pos() int { return a.Position }

// Or is a logical disjunction.
type Or struct {
	Position    int
	Left, Right Expr
}

func (o *Or) Pos() int { return o.Position }

// Not is a logical negation.
type Not struct {
	Position int
	Expr     Expr
}

func (n *Not) Pos() int { return n.Position }

// IsNull is `x IS [NOT] NULL`.
type IsNull struct {
	Position int
	Expr     Expr
	Negate   bool
}

func (i *IsNull) Pos() int { return i.Position }

// FuncExpr is a function call, possibly aggregate or analytic. A Star
// argument (COUNT(*)) is represented by a nil entry in Args.
type FuncExpr struct {
	Position int
	Name     string
	Args     []Expr
	Distinct bool
	// Over marks the call analytic.
	Over *WindowDef
}

func (f *FuncExpr) Pos() int { return f.Position }

// WindowDef is an OVER clause.
type WindowDef struct {
	Position    int
	PartitionBy []Expr
	OrderBy     []*Order
}

func (w *WindowDef) Pos() int { return w.Position }

// When is one branch of a CASE expression.
type When struct {
	Cond  Expr
	Value Expr
}

// Case is a searched or simple CASE expression.
type Case struct {
	Position int
	// Operand is nil for searched CASE.
	Operand Expr
	Whens   []When
	Else    Expr
}

func (c *Case) Pos() int { return c.Position }

// Cast is an explicit type conversion. TypeName is resolved against the
// type facade/catalog.
type Cast struct {
	Position int
	Expr     Expr
	TypeName string
}

func (c *Cast) Pos() int { return c.Position }

// Tuple is a parenthesized expression list, e.g. the right side of IN.
type Tuple struct {
	Position int
	Exprs    []Expr
}

func (t *Tuple) Pos() int { return t.Position }

// Subquery is a parenthesized query in expression position.
type Subquery struct {
	Position int
	Select   *Select
}

func (s *Subquery) Pos() int { return s.Position }

// Exists is an EXISTS predicate.
type Exists struct {
	Position int
	Subquery *Subquery
}

func (e *Exists) Pos() int { return e.Position }

// Interval is a date-part argument like INTERVAL 5 DAY. The resolver
// expands it into two arguments of the enclosing call.
type Interval struct {
	Position int
	Value    Expr
	Unit     string
}

func (i *Interval) Pos() int { return i.Position }

// ArrayIndex is array element access, arr[OFFSET(i)]. Observing an array
// element requires materializing the array, so resolving one marks an
// implicit read on the enclosing column.
type ArrayIndex struct {
	Position int
	Array    Expr
	Index    Expr
}

func (a *ArrayIndex) Pos() int { return a.Position }
