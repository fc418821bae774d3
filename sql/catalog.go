package sql

// Catalog resolves table, function, constant, and type names to metadata.
// The resolver holds a non-owning reference to one catalog per resolution
// and only ever performs read-only lookups against it; implementations must
// be safe for concurrent reads by multiple resolver instances.
type Catalog interface {
	// Table resolves a table by name. Returns ErrTableNotFound.
	Table(ctx *Context, name string) (Table, error)
	// Function resolves a function by name. Returns ErrFunctionNotFound.
	Function(ctx *Context, name string) (*Function, error)
	// Constant resolves a named constant, or ok=false.
	Constant(ctx *Context, name string) (*Constant, bool)
	// Type resolves a named type (enum, proto message), or ok=false.
	Type(ctx *Context, name string) (Type, bool)
	// TableNames lists all table names, used for error suggestions.
	TableNames(ctx *Context) []string
	// FunctionNames lists all function names, used for error suggestions.
	FunctionNames(ctx *Context) []string
}

// ColumnDef is the declared shape of one table column.
type ColumnDef struct {
	Name     string
	Type     Type
	Nullable bool
}

// Schema is an ordered list of column definitions.
type Schema []*ColumnDef

// IndexOf returns the position of the named column, or -1. Name comparison
// is done by the caller's interner; this helper is for exact matches in
// tests and catalog implementations.
func (s Schema) IndexOf(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Table is catalog metadata for one scannable relation.
type Table interface {
	Name() string
	Schema() Schema
	// IsValueTable reports whether the table produces a single whole-row
	// value per row instead of named columns.
	IsValueTable() bool
}

// FunctionKind distinguishes how calls to a function are resolved.
type FunctionKind int

const (
	ScalarFunction FunctionKind = iota
	AggregateFunction
	AnalyticFunction
)

func (k FunctionKind) String() string {
	switch k {
	case AggregateFunction:
		return "aggregate"
	case AnalyticFunction:
		return "analytic"
	default:
		return "scalar"
	}
}

// Overload is one signature of a function.
type Overload struct {
	// Params are the declared argument types, in order. A nil entry accepts
	// an argument of any type, unchanged.
	Params []Type
	// Variadic repeats the last param type zero or more times.
	Variadic bool
	// Return is the result type when ReturnFn is nil.
	Return Type
	// ReturnFn computes the result type from the coerced argument types,
	// for signatures whose result depends on the inputs (e.g. least/max).
	ReturnFn func(args []Type) Type
}

// ReturnType resolves the overload's result type for the given argument types.
func (o *Overload) ReturnType(args []Type) Type {
	if o.ReturnFn != nil {
		return o.ReturnFn(args)
	}
	return o.Return
}

// Function is catalog metadata for one function name and its overload list.
type Function struct {
	Name      string
	Kind      FunctionKind
	Overloads []*Overload
	// Deprecated, when non-empty, makes every resolved call emit a
	// deprecation warning with this message.
	Deprecated string
}

// Constant is a catalog-defined named constant.
type Constant struct {
	Name  string
	Type  Type
	Value interface{}
}
