package sql

// Type is one type in the resolver's type system. Concrete implementations
// live in the types subpackage; the resolver only compares and displays
// them and asks the coercer about conversions.
type Type interface {
	// String returns the SQL spelling of the type.
	String() string
	// Equals reports structural type equality.
	Equals(other Type) bool
}

// Coercion is the answer to a coercion-compatibility query.
type Coercion int

const (
	// CoerceNone means no conversion between the types exists.
	CoerceNone Coercion = iota
	// CoerceImplicit conversions are applied silently during signature
	// matching and comparison.
	CoerceImplicit
	// CoerceExplicit conversions require a CAST.
	CoerceExplicit
)

// TypeCoercer answers coercion-compatibility queries. It is supplied by the
// caller together with the catalog and must be safe for concurrent reads.
type TypeCoercer interface {
	CanCoerce(from, to Type) Coercion
}
