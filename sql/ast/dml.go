package ast

// Insert is INSERT INTO t (cols...) VALUES ... | SELECT ...
type Insert struct {
	Position int
	Table    *NamedTable
	Columns  []string
	// Rows and Select are mutually exclusive.
	Rows   [][]Expr
	Select *Select
}

func (i *Insert) Pos() int { return i.Position }

// Assignment is one SET target. Exactly one of Expr and Nested is set: a
// plain `path = expr` assignment, or a nested DML statement mutating an
// array-valued column in place.
type Assignment struct {
	Position int
	// Path addresses the assignment target inside the target table row.
	Path   *Path
	Expr   Expr
	Nested *NestedDML
}

func (a *Assignment) Pos() int { return a.Position }

// NestedDMLKind tags the inner operation of a nested array mutation.
type NestedDMLKind int

const (
	NestedDelete NestedDMLKind = iota
	NestedUpdate
	NestedInsert
)

func (k NestedDMLKind) String() string {
	switch k {
	case NestedUpdate:
		return "UPDATE"
	case NestedInsert:
		return "INSERT"
	default:
		return "DELETE"
	}
}

// NestedDML is an array-element mutation inside UPDATE ... SET, e.g.
// SET (DELETE arr WHERE arr > 3). The inner statement resolves against a
// synthetic scope rooted at the array's element type.
type NestedDML struct {
	Position int
	Kind     NestedDMLKind
	// Target addresses the array column being mutated.
	Target *Path
	// ElementAlias names the element row inside Where/Set; defaults to the
	// last path segment.
	ElementAlias string
	Where        Expr
	Set          []*Assignment
	InsertValue  Expr
}

func (n *NestedDML) Pos() int { return n.Position }

// Update is UPDATE t [FROM ...] SET ... WHERE ...
type Update struct {
	Position int
	Table    *NamedTable
	Set      []*Assignment
	// From joins extra rows visible to SET right-hand sides and WHERE.
	From  TableExpr
	Where Expr
}

func (u *Update) Pos() int { return u.Position }

// Delete is DELETE FROM t WHERE ...
type Delete struct {
	Position int
	Table    *NamedTable
	Where    Expr
}

func (d *Delete) Pos() int { return d.Position }

// MergeAction tags what a merge clause does.
type MergeAction int

const (
	MergeUpdate MergeAction = iota
	MergeDelete
	MergeInsert
)

func (a MergeAction) String() string {
	switch a {
	case MergeDelete:
		return "DELETE"
	case MergeInsert:
		return "INSERT"
	default:
		return "UPDATE"
	}
}

// MergeClause is one WHEN [NOT] MATCHED clause of a MERGE statement.
type MergeClause struct {
	Position int
	Matched  bool
	Action   MergeAction
	// Condition is the optional AND predicate of the clause.
	Condition     Expr
	Set           []*Assignment
	InsertColumns []string
	InsertValues  []Expr
}

func (c *MergeClause) Pos() int { return c.Position }

// Merge is MERGE INTO target USING source ON cond WHEN ... clauses.
type Merge struct {
	Position int
	Target   *NamedTable
	Source   TableExpr
	On       Expr
	Clauses  []*MergeClause
}

func (m *Merge) Pos() int { return m.Position }
