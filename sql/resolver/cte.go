package resolver

import (
	"fmt"

	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
)

// cteDef is one WITH binding. Definitions are kept as unresolved ASTs and
// re-resolved at every reference so each reference gets fresh column
// identities.
type cteDef struct {
	name sql.Ident
	// alias is the surface name; unique disambiguates same-named CTEs from
	// different WITH clauses inside one statement.
	alias  string
	unique string
	def    *ast.Select
	// columns are the explicit column aliases, empty to inherit the
	// definition's output names.
	columns []string
	// prev is the binding this one shadows, restored on scope exit.
	prev *cteDef
	// seq orders definitions statement-wide; a definition's body only sees
	// bindings defined before it.
	seq int
	// resolving guards against self-reference while the definition itself
	// is being resolved; lookups skip a resolving binding.
	resolving bool
}

// cteStack tracks WITH bindings as a shadow/restore stack keyed by folded
// name. Inner WITH clauses shadow outer same-named bindings for the extent
// of their query block and restore them on exit.
type cteStack struct {
	b      *Builder
	byName map[sql.Ident]*cteDef
	seq    int
	// hidden holds the (min, max) seq windows of bindings invisible while a
	// definition body resolves: the definition itself and every later binding
	// registered before its resolution started. Earlier bindings stay
	// visible, as do bindings entered inside the body, which get seqs above
	// the window.
	hidden [][2]int
}

func (s *cteStack) reset() {
	s.byName = nil
	s.seq = 0
	s.hidden = nil
}

// enter registers the bindings of one WITH clause and returns the token
// that exit consumes. Two CTEs with the same name in one clause conflict.
func (s *cteStack) enter(w *ast.With) []*cteDef {
	if w == nil {
		return nil
	}
	if s.byName == nil {
		s.byName = make(map[sql.Ident]*cteDef)
	}
	var defs []*cteDef
	seenHere := make(map[sql.Ident]bool)
	for _, cte := range w.CTEs {
		name := s.b.intern(cte.Alias)
		if seenHere[name] {
			s.b.handleErr(sql.ErrDuplicateAlias.New(cte.Alias))
		}
		seenHere[name] = true
		s.seq++
		d := &cteDef{
			name:    name,
			alias:   cte.Alias,
			unique:  fmt.Sprintf("%s_%d", cte.Alias, s.seq),
			def:     cte.Subquery,
			columns: cte.Columns,
			prev:    s.byName[name],
			seq:     s.seq,
		}
		s.byName[name] = d
		defs = append(defs, d)
	}
	return defs
}

// exit restores the bindings shadowed by a previous enter. Tokens must be
// exited in reverse order of entry.
func (s *cteStack) exit(defs []*cteDef) {
	for i := len(defs) - 1; i >= 0; i-- {
		d := defs[i]
		if d.prev != nil {
			s.byName[d.name] = d.prev
		} else {
			delete(s.byName, d.name)
		}
	}
}

// beginDefinition hides d and its later siblings for the extent of d's body
// resolution, restoring visibility through the returned release func. A
// WITH entry can only reference entries defined before it.
func (s *cteStack) beginDefinition(d *cteDef) func() {
	d.resolving = true
	s.hidden = append(s.hidden, [2]int{d.seq, s.seq})
	return func() {
		d.resolving = false
		s.hidden = s.hidden[:len(s.hidden)-1]
	}
}

func (s *cteStack) visible(d *cteDef) bool {
	if d.resolving {
		return false
	}
	for _, h := range s.hidden {
		if d.seq >= h[0] && d.seq <= h[1] {
			return false
		}
	}
	return true
}

func (s *cteStack) lookup(name sql.Ident) (*cteDef, bool) {
	for d := s.byName[name]; d != nil; d = d.prev {
		if s.visible(d) {
			return d, true
		}
	}
	return nil, false
}
