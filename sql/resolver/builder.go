package resolver

import (
	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

// maxResolveDepth bounds expression/query recursion. The input is attacker-
// or tool-controlled SQL of unbounded nesting, so resolution fails fast
// with ErrResolutionTooComplex instead of overflowing the stack.
const maxResolveDepth = 200

// Builder resolves one statement or expression at a time. It exclusively
// owns all scratch state (scopes, CTE stack, diagnostics) for the duration
// of one Resolve call and holds non-owning references to the catalog and
// coercer, which must support concurrent reads across instances. A single
// Builder must never be used concurrently.
type Builder struct {
	ctx      *sql.Context
	cat      sql.Catalog
	coercer  sql.TypeCoercer
	features sql.FeatureSet
	interner *sql.Interner
	ids      *sql.ColumnAllocator
	access   *sql.AccessTracker
	diags    *sql.Diagnostics
	ctes     *cteStack
	source   string
	depth    int
	// aggDepth is non-zero while aggregate arguments are being resolved;
	// finding another aggregate there is the nested-aggregate error.
	aggDepth int

	// images preserves the textual image of numeric literals so coercion to
	// decimal types can reparse the exact digits.
	images map[*resolved.Literal]string
	// params collects every parameter reference for type inference.
	params []*resolved.Parameter
}

// Option configures a Builder.
type Option func(*Builder)

// WithFeatures sets the enabled language features.
func WithFeatures(f sql.FeatureSet) Option {
	return func(b *Builder) { b.features = f }
}

// WithColumnAllocator injects the column id sequence, letting tests build
// deterministic sequences and sessions share one monotonic counter.
func WithColumnAllocator(a *sql.ColumnAllocator) Option {
	return func(b *Builder) { b.ids = a }
}

// WithCoercer overrides the type facade used for coercion queries.
func WithCoercer(c sql.TypeCoercer) Option {
	return func(b *Builder) { b.coercer = c }
}

// New creates a resolver over the given catalog. The default configuration
// enables every language feature and uses the types package coercer.
func New(ctx *sql.Context, cat sql.Catalog, opts ...Option) *Builder {
	b := &Builder{
		ctx:      ctx,
		cat:      cat,
		features: sql.AllFeatures(),
		interner: sql.NewInterner(),
		access:   sql.NewAccessTracker(),
		diags:    sql.NewDiagnostics(),
	}
	b.ctes = &cteStack{b: b}
	for _, opt := range opts {
		opt(b)
	}
	if b.ids == nil {
		b.ids = sql.NewColumnAllocator()
	}
	if b.coercer == nil {
		b.coercer = types.Coercer{}
	}
	return b
}

// Reset clears all per-statement scratch state. Column ids are monotonic
// for the lifetime of the allocator and are not reset.
func (b *Builder) Reset() {
	b.access.Reset()
	b.diags.Reset()
	b.ctes.reset()
	b.depth = 0
	b.aggDepth = 0
	b.source = ""
	b.images = make(map[*resolved.Literal]string)
	b.params = nil
}

// finishParams defaults the type of every parameter no coercion context
// constrained, then reports all inferences as diagnostics.
func (b *Builder) finishParams() {
	for _, p := range b.params {
		if types.IsNull(p.Typ) {
			p.Typ = types.String
		}
		b.diags.InferParam(sql.InferredParam{Name: p.Name, Ordinal: p.Ordinal, Type: p.Typ})
	}
}

// resolveErr wraps errors raised through handleErr so the recover at the
// entry points can tell them apart from genuine panics.
type resolveErr struct {
	err error
}

func (b *Builder) handleErr(err error) {
	panic(resolveErr{err})
}

// enter checks the recursion depth guard before descending.
func (b *Builder) enter() {
	b.depth++
	if b.depth > maxResolveDepth {
		b.handleErr(sql.ErrResolutionTooComplex.New(maxResolveDepth))
	}
}

func (b *Builder) exit() {
	b.depth--
}

func (b *Builder) newScope() *scope {
	return &scope{b: b}
}

// ResolveStatement resolves a parsed statement against the catalog,
// returning the resolved tree and this statement's diagnostics. On error
// the tree is nil; a statement resolution either fully succeeds or fails
// with the first error in left-to-right, outer-to-inner order.
func (b *Builder) ResolveStatement(stmt ast.Statement, source string) (node resolved.Node, diags *sql.Diagnostics, err error) {
	span, ctx := b.ctx.Span("resolve_statement")
	defer span.Finish()

	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(resolveErr)
			if !ok {
				panic(r)
			}
			node = nil
			err = re.err
		}
	}()

	b.Reset()
	b.source = source
	outScope := b.buildStatement(b.newScope(), stmt)
	node = outScope.node

	b.finishParams()

	// pruning must run before access lists are attached
	b.pruneColumns(node)
	b.attachAccessLists(node)

	log := ctx.Logger().WithField("statement", statementKind(stmt))
	if b.source != "" {
		log = log.WithField("source", b.source)
	}
	log.Debug("resolved statement")
	return node, b.diags, nil
}

// ResolveExpr resolves a standalone expression with no names in scope.
func (b *Builder) ResolveExpr(e ast.Expr, source string) (expr resolved.Expr, diags *sql.Diagnostics, err error) {
	span, ctx := b.ctx.Span("resolve_expr")
	defer span.Finish()

	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(resolveErr)
			if !ok {
				panic(r)
			}
			expr = nil
			err = re.err
		}
	}()

	b.Reset()
	b.source = source
	expr = b.buildScalar(b.newScope(), e)
	b.finishParams()

	log := ctx.Logger()
	if b.source != "" {
		log = log.WithField("source", b.source)
	}
	log.Debug("resolved expression")
	return expr, b.diags, nil
}

func (b *Builder) buildStatement(inScope *scope, stmt ast.Statement) (outScope *scope) {
	switch n := stmt.(type) {
	case *ast.Select:
		outScope = b.buildSelect(inScope, n)
	case *ast.Insert:
		outScope = b.buildInsert(inScope, n)
	case *ast.Update:
		outScope = b.buildUpdate(inScope, n)
	case *ast.Delete:
		outScope = b.buildDelete(inScope, n)
	case *ast.Merge:
		outScope = b.buildMerge(inScope, n)
	default:
		b.handleErr(sql.ErrInternal.New("unhandled statement kind"))
	}
	return outScope
}

func statementKind(stmt ast.Statement) string {
	switch stmt.(type) {
	case *ast.Select:
		return "select"
	case *ast.Insert:
		return "insert"
	case *ast.Update:
		return "update"
	case *ast.Delete:
		return "delete"
	case *ast.Merge:
		return "merge"
	default:
		return "unknown"
	}
}

// intern is shorthand for interning a raw identifier.
func (b *Builder) intern(name string) sql.Ident {
	if name == "" {
		return sql.InvalidIdent
	}
	return b.interner.Intern(name)
}

// columnRef builds a read reference to a scope column, recording the read
// access that pruning later consumes.
func (b *Builder) columnRef(c scopeColumn) resolved.Expr {
	if c.useScalar && c.scalar != nil {
		return c.scalar
	}
	b.access.Record(c.col.Id, sql.ReadAccess)
	return &resolved.ColumnRef{Col: c.col, Correlated: c.correlated}
}
