package resolver

import (
	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
)

// pruneColumns removes table scan output columns the statement never reads
// or writes. Access is recorded statement-wide during resolution, so one
// pass over the scans reaches the fixed point and running the pass again
// changes nothing. Pruning is conservative: a column with any recorded
// access survives, and a scan always keeps at least one column.
func (b *Builder) pruneColumns(n resolved.Node) {
	b.walkScans(n, func(scan *resolved.TableScan) {
		var kept []*sql.Column
		for _, c := range scan.Cols {
			if b.access.Get(c.Id) != 0 {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 && len(scan.Cols) > 0 {
			kept = scan.Cols[:1]
		}
		scan.Cols = kept
	})
}

// attachAccessLists populates the per-statement access metadata of UPDATE
// and MERGE nodes. It must run after pruning so the lists only name
// surviving columns.
func (b *Builder) attachAccessLists(n resolved.Node) {
	switch n := n.(type) {
	case *resolved.Update:
		n.Access = b.accessListFor(n.Target)
	case *resolved.Merge:
		n.Access = b.accessListFor(n.Target)
	}
}

func (b *Builder) accessListFor(scan *resolved.TableScan) *resolved.AccessList {
	al := &resolved.AccessList{}
	for _, c := range scan.Cols {
		a := b.access.Get(c.Id)
		if a&sql.ReadAccess != 0 {
			al.Read = append(al.Read, c)
		}
		if a&sql.WriteAccess != 0 {
			al.Write = append(al.Write, c)
		}
	}
	return al
}

// walkScans visits every table scan of a statement, including those inside
// subquery expressions, which are not part of the node child relation.
func (b *Builder) walkScans(n resolved.Node, visit func(*resolved.TableScan)) {
	resolved.Inspect(n, func(x resolved.Node) bool {
		if scan, ok := x.(*resolved.TableScan); ok {
			visit(scan)
		}
		for _, e := range nodeExprs(x) {
			b.walkExprScans(e, visit)
		}
		return true
	})
}

func (b *Builder) walkExprScans(e resolved.Expr, visit func(*resolved.TableScan)) {
	resolved.InspectExpr(e, func(x resolved.Expr) bool {
		switch x := x.(type) {
		case *resolved.Subquery:
			b.walkScans(x.Query, visit)
		case *resolved.InSubquery:
			b.walkScans(x.Right.Query, visit)
		case *resolved.Exists:
			b.walkScans(x.Subquery.Query, visit)
		}
		return true
	})
}

// nodeExprs enumerates the scalar expressions hanging off one node.
func nodeExprs(n resolved.Node) []resolved.Expr {
	switch n := n.(type) {
	case *resolved.Filter:
		return []resolved.Expr{n.Cond}
	case *resolved.Project:
		return projectedExprs(n.Projections)
	case *resolved.GroupBy:
		return append(projectedExprs(n.Keys), projectedExprs(n.Aggs)...)
	case *resolved.Window:
		return projectedExprs(n.Funcs)
	case *resolved.Sort:
		out := make([]resolved.Expr, len(n.Fields))
		for i, f := range n.Fields {
			out[i] = f.Expr
		}
		return out
	case *resolved.Limit:
		var out []resolved.Expr
		if n.Limit != nil {
			out = append(out, n.Limit)
		}
		if n.Offset != nil {
			out = append(out, n.Offset)
		}
		return out
	case *resolved.Join:
		if n.Cond != nil {
			return []resolved.Expr{n.Cond}
		}
		return nil
	case *resolved.Values:
		var out []resolved.Expr
		for _, row := range n.Rows {
			out = append(out, row...)
		}
		return out
	case *resolved.Update:
		return assignmentExprs(n.Assignments)
	case *resolved.Merge:
		out := []resolved.Expr{n.On}
		for _, c := range n.Clauses {
			if c.Condition != nil {
				out = append(out, c.Condition)
			}
			out = append(out, assignmentExprs(c.Assignments)...)
			out = append(out, c.InsertValues...)
		}
		return out
	default:
		return nil
	}
}

func projectedExprs(pes []resolved.ProjectedExpr) []resolved.Expr {
	out := make([]resolved.Expr, len(pes))
	for i, pe := range pes {
		out[i] = pe.Expr
	}
	return out
}

func assignmentExprs(asgs []*resolved.Assignment) []resolved.Expr {
	var out []resolved.Expr
	for _, a := range asgs {
		if a.Expr != nil {
			out = append(out, a.Expr)
		}
		if a.Nested != nil {
			if a.Nested.Where != nil {
				out = append(out, a.Nested.Where)
			}
			out = append(out, assignmentExprs(a.Nested.Assignments)...)
			if a.Nested.InsertValue != nil {
				out = append(out, a.Nested.InsertValue)
			}
		}
	}
	return out
}
