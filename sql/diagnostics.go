package sql

import (
	"github.com/mitchellh/hashstructure"
)

// DeprecationWarning is a non-fatal diagnostic attached to a successful
// resolution. Offset points into the original statement text.
type DeprecationWarning struct {
	Kind    string
	Message string
	Offset  int
}

// InferredParam records the type inferred for one undeclared parameter.
type InferredParam struct {
	Name    string
	Ordinal int
	Type    Type
}

// Diagnostics accumulates the non-fatal outputs of one resolution:
// deprecation warnings (deduplicated by kind and message, order of first
// occurrence preserved) and undeclared-parameter type inferences.
type Diagnostics struct {
	Warnings []DeprecationWarning
	Params   []InferredParam

	seenWarnings map[uint64]struct{}
	seenParams   map[string]struct{}
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		seenWarnings: make(map[uint64]struct{}),
		seenParams:   make(map[string]struct{}),
	}
}

// Deprecate appends a deprecation warning unless an identical (kind,
// message) pair was already recorded.
func (d *Diagnostics) Deprecate(w DeprecationWarning) {
	key, err := hashstructure.Hash(struct{ Kind, Message string }{w.Kind, w.Message}, nil)
	if err != nil {
		// hashstructure cannot fail on a struct of strings
		panic(err)
	}
	if _, ok := d.seenWarnings[key]; ok {
		return
	}
	d.seenWarnings[key] = struct{}{}
	d.Warnings = append(d.Warnings, w)
}

// InferParam records the inferred type of an undeclared parameter. The
// first inference for a name wins.
func (d *Diagnostics) InferParam(p InferredParam) {
	if _, ok := d.seenParams[p.Name]; ok {
		return
	}
	d.seenParams[p.Name] = struct{}{}
	d.Params = append(d.Params, p)
}

// Reset clears all diagnostics for the next statement.
func (d *Diagnostics) Reset() {
	d.Warnings = nil
	d.Params = nil
	d.seenWarnings = make(map[uint64]struct{})
	d.seenParams = make(map[string]struct{})
}
