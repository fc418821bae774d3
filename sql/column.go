package sql

import "fmt"

// ColumnId uniquely identifies one value-producing slot within a statement
// resolution. Ids are issued by a ColumnAllocator and never reused, so two
// columns are the same column iff their ids match, regardless of name.
type ColumnId uint64

// Column is the resolved identity of one value-producing slot: a table scan
// output, a computed expression, a join output, or a generated alias. It is
// never mutated after creation.
type Column struct {
	Id       ColumnId
	Table    string
	Name     string
	Type     Type
	Nullable bool
}

func (c *Column) String() string {
	if c.Table == "" {
		return c.Name
	}
	return fmt.Sprintf("%s.%s", c.Table, c.Name)
}

// ColumnAllocator issues strictly increasing column ids. It is injected
// into the resolver rather than kept as ambient global state so tests can
// build independent, deterministic sequences. Ids are monotonic for the
// lifetime of the allocator, not per statement.
type ColumnAllocator struct {
	next ColumnId
}

func NewColumnAllocator() *ColumnAllocator {
	return &ColumnAllocator{}
}

// Allocate creates a new resolved column with the next id.
func (a *ColumnAllocator) Allocate(table, name string, typ Type, nullable bool) *Column {
	a.next++
	return &Column{Id: a.next, Table: table, Name: name, Type: typ, Nullable: nullable}
}

// Peek returns the last id issued.
func (a *ColumnAllocator) Peek() ColumnId {
	return a.next
}

// Access is the OR-accumulated read/write flag set for one column.
type Access uint8

const (
	ReadAccess Access = 1 << iota
	WriteAccess
)

// AccessTracker records which columns a statement reads and writes. The
// pruning pass and the per-statement access lists consume it after the
// whole statement has been resolved.
type AccessTracker struct {
	access map[ColumnId]Access
}

func NewAccessTracker() *AccessTracker {
	return &AccessTracker{access: make(map[ColumnId]Access)}
}

// Record ORs the given flags into the column's accumulated access.
func (t *AccessTracker) Record(id ColumnId, a Access) {
	t.access[id] |= a
}

// Get returns the accumulated access flags for a column, zero if untouched.
func (t *AccessTracker) Get(id ColumnId) Access {
	return t.access[id]
}

// Reset clears all recorded access for the next statement.
func (t *AccessTracker) Reset() {
	t.access = make(map[ColumnId]Access)
}
