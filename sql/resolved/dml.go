package resolved

import (
	"github.com/arbordb/go-sql-resolver/sql"
)

// AccessList is the per-statement column access metadata attached to UPDATE
// and MERGE statements for column-level permission checks. It is computed
// from the access tracker after pruning, never before.
type AccessList struct {
	Read  []*sql.Column
	Write []*sql.Column
}

// Insert writes source rows into a table.
type Insert struct {
	Target *TableScan
	// Dest are the destination columns, in insert-list order.
	Dest   []*sql.Column
	Source Node
}

func (i *Insert) Columns() []*sql.Column { return nil }
func (i *Insert) Children() []Node       { return []Node{i.Target, i.Source} }

// Assignment is one resolved SET target.
type Assignment struct {
	// Col is the written column of the target table.
	Col *sql.Column
	// FieldPath addresses a nested field inside Col, empty for whole-column
	// assignment.
	FieldPath []string
	Expr      Expr
	// Nested is the resolved nested array mutation, nil for plain
	// assignments.
	Nested *NestedDML
}

// NestedDML is a resolved array-element mutation. The inner predicate and
// assignments are resolved against a synthetic scope rooted at the array's
// element type.
type NestedDML struct {
	Kind string
	// ArrayCol is the enclosing array column; nested DML observes its
	// cardinality, so it carries an implicit read.
	ArrayCol *sql.Column
	// ElementCol is the synthetic column standing for one array element.
	ElementCol  *sql.Column
	Where       Expr
	Assignments []*Assignment
	InsertValue Expr
}

// Update rewrites rows of a target table.
type Update struct {
	// Target scans the updated table.
	Target *TableScan
	// Source is the row source: the target scan, optionally joined with
	// FROM relations and filtered by WHERE.
	Source      Node
	Assignments []*Assignment
	// Access is populated after pruning.
	Access *AccessList
}

func (u *Update) Columns() []*sql.Column { return nil }
func (u *Update) Children() []Node       { return []Node{u.Source} }

// Delete removes rows of a target table.
type Delete struct {
	Target *TableScan
	Source Node
}

func (d *Delete) Columns() []*sql.Column { return nil }
func (d *Delete) Children() []Node       { return []Node{d.Source} }

// MergeClause is one resolved WHEN clause.
type MergeClause struct {
	Matched     bool
	Action      string
	Condition   Expr
	Assignments []*Assignment
	// InsertColumns/InsertValues are set for INSERT actions.
	InsertColumns []*sql.Column
	InsertValues  []Expr
}

// Merge applies per-row clauses joining a target table with a source.
type Merge struct {
	Target  *TableScan
	Source  Node
	On      Expr
	Clauses []*MergeClause
	// Access is populated after pruning.
	Access *AccessList
}

func (m *Merge) Columns() []*sql.Column { return nil }
func (m *Merge) Children() []Node       { return []Node{m.Target, m.Source} }
