// Package memory implements an in-memory catalog, used by tests and by
// callers that assemble their schema programmatically.
package memory

import (
	"sort"
	"strings"

	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

// Table is catalog metadata for one in-memory relation.
type Table struct {
	name       string
	schema     sql.Schema
	valueTable bool
}

func NewTable(name string, schema sql.Schema) *Table {
	return &Table{name: name, schema: schema}
}

// NewValueTable creates a table whose rows are single whole-row values.
func NewValueTable(name string, schema sql.Schema) *Table {
	return &Table{name: name, schema: schema, valueTable: true}
}

func (t *Table) Name() string       { return t.name }
func (t *Table) Schema() sql.Schema { return t.schema }
func (t *Table) IsValueTable() bool { return t.valueTable }

// Catalog is a map-backed sql.Catalog. Mutations are not synchronized;
// populate it fully before handing it to resolvers.
type Catalog struct {
	tables    map[string]*Table
	functions map[string]*sql.Function
	constants map[string]*sql.Constant
	types     map[string]sql.Type
}

var _ sql.Catalog = (*Catalog)(nil)

// NewCatalog creates an empty catalog preloaded with the builtin function
// set.
func NewCatalog() *Catalog {
	c := &Catalog{
		tables:    make(map[string]*Table),
		functions: make(map[string]*sql.Function),
		constants: make(map[string]*sql.Constant),
		types:     make(map[string]sql.Type),
	}
	registerBuiltins(c)
	return c
}

func key(name string) string { return strings.ToLower(name) }

func (c *Catalog) AddTable(t *Table) {
	c.tables[key(t.name)] = t
}

func (c *Catalog) AddFunction(f *sql.Function) {
	c.functions[key(f.Name)] = f
}

func (c *Catalog) AddConstant(con *sql.Constant) {
	c.constants[key(con.Name)] = con
}

func (c *Catalog) AddType(name string, t sql.Type) {
	c.types[key(name)] = t
}

func (c *Catalog) Table(ctx *sql.Context, name string) (sql.Table, error) {
	if t, ok := c.tables[key(name)]; ok {
		return t, nil
	}
	return nil, sql.ErrTableNotFound.New(name, "")
}

func (c *Catalog) Function(ctx *sql.Context, name string) (*sql.Function, error) {
	if f, ok := c.functions[key(name)]; ok {
		return f, nil
	}
	return nil, sql.ErrFunctionNotFound.New(name, "")
}

func (c *Catalog) Constant(ctx *sql.Context, name string) (*sql.Constant, bool) {
	con, ok := c.constants[key(name)]
	return con, ok
}

func (c *Catalog) Type(ctx *sql.Context, name string) (sql.Type, bool) {
	t, ok := c.types[key(name)]
	return t, ok
}

func (c *Catalog) TableNames(ctx *sql.Context) []string {
	names := make([]string, 0, len(c.tables))
	for _, t := range c.tables {
		names = append(names, t.name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) FunctionNames(ctx *sql.Context) []string {
	names := make([]string, 0, len(c.functions))
	for _, f := range c.functions {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// registerBuiltins installs the builtin functions every catalog carries.
func registerBuiltins(c *Catalog) {
	firstArg := func(args []sql.Type) sql.Type {
		if len(args) == 0 {
			return types.Null
		}
		return args[0]
	}

	c.AddFunction(&sql.Function{
		Name: "count",
		Kind: sql.AggregateFunction,
		Overloads: []*sql.Overload{
			{Params: nil, Return: types.Int64},
			{Params: []sql.Type{nil}, Return: types.Int64},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "sum",
		Kind: sql.AggregateFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{types.Int64}, Return: types.Int64},
			{Params: []sql.Type{types.Float64}, Return: types.Float64},
			{Params: []sql.Type{types.InternalDecimalType}, Return: types.InternalDecimalType},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "avg",
		Kind: sql.AggregateFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{types.Int64}, Return: types.Float64},
			{Params: []sql.Type{types.Float64}, Return: types.Float64},
			{Params: []sql.Type{types.InternalDecimalType}, Return: types.InternalDecimalType},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "min",
		Kind: sql.AggregateFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{nil}, ReturnFn: firstArg},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "max",
		Kind: sql.AggregateFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{nil}, ReturnFn: firstArg},
		},
	})

	c.AddFunction(&sql.Function{
		Name: "row_number",
		Kind: sql.AnalyticFunction,
		Overloads: []*sql.Overload{
			{Params: nil, Return: types.Int64},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "rank",
		Kind: sql.AnalyticFunction,
		Overloads: []*sql.Overload{
			{Params: nil, Return: types.Int64},
		},
	})

	c.AddFunction(&sql.Function{
		Name: "length",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{types.String}, Return: types.Int64},
			{Params: []sql.Type{types.Bytes}, Return: types.Int64},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "lower",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{types.String}, Return: types.String},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "upper",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{types.String}, Return: types.String},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "concat",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{types.String}, Variadic: true, Return: types.String},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "abs",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{types.Int64}, Return: types.Int64},
			{Params: []sql.Type{types.Float64}, Return: types.Float64},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "coalesce",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{nil}, Variadic: true, ReturnFn: firstArg},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "greatest",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{nil}, Variadic: true, ReturnFn: firstArg},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "least",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{nil}, Variadic: true, ReturnFn: firstArg},
		},
	})
	// date_add takes its interval as two arguments: the magnitude and the
	// date part name, the shape the interval expansion produces
	c.AddFunction(&sql.Function{
		Name: "date_add",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: []sql.Type{types.Date, types.Int64, types.String}, Return: types.Date},
			{Params: []sql.Type{types.Timestamp, types.Int64, types.String}, Return: types.Timestamp},
		},
	})
	c.AddFunction(&sql.Function{
		Name: "current_timestamp",
		Kind: sql.ScalarFunction,
		Overloads: []*sql.Overload{
			{Params: nil, Return: types.Timestamp},
		},
	})
}
