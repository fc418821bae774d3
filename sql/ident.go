package sql

import (
	"golang.org/x/text/cases"
)

// Ident is an interned identifier handle. Two handles from the same
// Interner compare equal iff the identifiers are equal under Unicode case
// folding, so scope and catalog lookups are integer comparisons instead of
// repeated string normalization.
type Ident uint32

// InvalidIdent is the zero handle; no interned identifier has it.
const InvalidIdent Ident = 0

type internedName struct {
	folded   string
	original string
}

// Interner canonicalizes identifier text into Ident handles. The fold uses
// full Unicode case folding, not ASCII lowercasing, so identifiers compare
// the way the lexer's dialect rules expect.
type Interner struct {
	folder cases.Caser
	ids    map[string]Ident
	names  []internedName
}

func NewInterner() *Interner {
	return &Interner{
		folder: cases.Fold(),
		ids:    make(map[string]Ident),
		// slot 0 is reserved for InvalidIdent
		names: make([]internedName, 1),
	}
}

// Intern returns the handle for name, allocating one if the case-folded
// form has not been seen before. The first original spelling wins for
// display purposes.
func (in *Interner) Intern(name string) Ident {
	folded := in.folder.String(name)
	if id, ok := in.ids[folded]; ok {
		return id
	}
	id := Ident(len(in.names))
	in.names = append(in.names, internedName{folded: folded, original: name})
	in.ids[folded] = id
	return id
}

// Lookup returns the handle for name without interning it.
func (in *Interner) Lookup(name string) (Ident, bool) {
	id, ok := in.ids[in.folder.String(name)]
	return id, ok
}

// String returns the original spelling first interned for id.
func (in *Interner) String(id Ident) string {
	if int(id) >= len(in.names) {
		return ""
	}
	return in.names[id].original
}

// Folded returns the case-folded form for id.
func (in *Interner) Folded(id Ident) string {
	if int(id) >= len(in.names) {
		return ""
	}
	return in.names[id].folded
}
