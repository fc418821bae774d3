package resolver

import (
	"strconv"
	"strings"

	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

// buildScalar resolves one scalar expression against the names visible in
// inScope. Every syntactic variant is handled explicitly; an unhandled kind
// is an internal error, not a silent passthrough.
func (b *Builder) buildScalar(inScope *scope, e ast.Expr) resolved.Expr {
	b.enter()
	defer b.exit()

	switch e := e.(type) {
	case *ast.Path:
		return b.buildPath(inScope, e)
	case *ast.Literal:
		return b.buildLiteral(e)
	case *ast.Param:
		return b.buildParam(e)
	case *ast.Unary:
		return b.buildUnary(inScope, e)
	case *ast.Binary:
		return b.buildBinary(inScope, e)
	case *ast.Comparison:
		return b.buildComparison(inScope, e)
	case *ast.And:
		return &resolved.And{
			Left:  b.buildBool(inScope, e.Left),
			Right: b.buildBool(inScope, e.Right),
		}
	case *ast.Or:
		return &resolved.Or{
			Left:  b.buildBool(inScope, e.Left),
			Right: b.buildBool(inScope, e.Right),
		}
	case *ast.Not:
		return &resolved.Not{Child: b.buildBool(inScope, e.Expr)}
	case *ast.IsNull:
		return &resolved.IsNull{Child: b.buildScalar(inScope, e.Expr), Negate: e.Negate}
	case *ast.FuncExpr:
		return b.buildFuncExpr(inScope, e)
	case *ast.Case:
		return b.buildCase(inScope, e)
	case *ast.Cast:
		return b.buildCast(inScope, e)
	case *ast.Tuple:
		return b.buildTuple(inScope, e)
	case *ast.Subquery:
		return b.buildSubqueryExpr(inScope, e)
	case *ast.Exists:
		sq := b.buildSubqueryNode(inScope, e.Subquery)
		return &resolved.Exists{Subquery: sq}
	case *ast.Interval:
		// intervals are only meaningful as function arguments, where the
		// call builder splits them before reaching here
		b.handleErr(sql.ErrUnsupportedFeature.New("INTERVAL outside a function argument"))
	case *ast.ArrayIndex:
		return b.buildArrayIndex(inScope, e)
	}
	b.handleErr(sql.ErrInternal.New("unhandled expression kind"))
	return nil
}

// buildBool resolves an expression and requires a boolean result.
func (b *Builder) buildBool(inScope *scope, e ast.Expr) resolved.Expr {
	expr := b.buildScalar(inScope, e)
	return b.coerceTo(expr, types.Boolean)
}

func (b *Builder) buildLiteral(l *ast.Literal) resolved.Expr {
	switch l.Kind {
	case ast.NullVal:
		return &resolved.Literal{Value: nil, Typ: types.Null}
	case ast.BoolVal:
		return &resolved.Literal{Value: strings.EqualFold(l.Text, "true"), Typ: types.Boolean}
	case ast.StrVal:
		return &resolved.Literal{Value: l.Text, Typ: types.String}
	case ast.IntVal:
		v, err := strconv.ParseInt(l.Text, 10, 64)
		if err != nil {
			// out-of-range integers need the exact decimal representation
			if !b.features.DecimalLiterals {
				b.handleErr(sql.ErrUnsupportedFeature.New("decimal literals"))
			}
			d, derr := types.InternalDecimalType.ConvertString(l.Text)
			if derr != nil {
				b.handleErr(sql.ErrInternal.New("malformed integer literal " + l.Text))
			}
			lit := &resolved.Literal{Value: d, Typ: types.InternalDecimalType}
			b.images[lit] = l.Text
			return lit
		}
		lit := &resolved.Literal{Value: v, Typ: types.Int64}
		b.images[lit] = l.Text
		return lit
	case ast.FloatVal:
		v, err := strconv.ParseFloat(l.Text, 64)
		if err != nil {
			b.handleErr(sql.ErrInternal.New("malformed float literal " + l.Text))
		}
		lit := &resolved.Literal{Value: v, Typ: types.Float64}
		b.images[lit] = l.Text
		return lit
	}
	b.handleErr(sql.ErrInternal.New("unhandled literal kind"))
	return nil
}

func (b *Builder) buildParam(p *ast.Param) resolved.Expr {
	param := &resolved.Parameter{Name: p.Name, Ordinal: p.Ordinal, Typ: types.Null}
	b.params = append(b.params, param)
	return param
}

func (b *Builder) buildUnary(inScope *scope, u *ast.Unary) resolved.Expr {
	child := b.buildScalar(inScope, u.Expr)
	switch u.Op {
	case "+":
		if !types.IsNumber(child.Type()) && !types.IsNull(child.Type()) {
			b.handleErr(sql.ErrCannotCoerce.New(child.Type(), types.Float64))
		}
		return child
	case "-":
		if !types.IsNumber(child.Type()) && !types.IsNull(child.Type()) {
			b.handleErr(sql.ErrCannotCoerce.New(child.Type(), types.Float64))
		}
		return &resolved.Negate{Child: child}
	}
	b.handleErr(sql.ErrUnsupportedFeature.New("unary operator " + u.Op))
	return nil
}

func (b *Builder) buildBinary(inScope *scope, bin *ast.Binary) resolved.Expr {
	left := b.buildScalar(inScope, bin.Left)
	right := b.buildScalar(inScope, bin.Right)
	lt, rt := left.Type(), right.Type()
	if !numericOrNull(lt) || !numericOrNull(rt) {
		b.handleErr(sql.ErrCannotCoerce.New(lt, rt))
	}

	var result sql.Type
	if bin.Op == "/" {
		// division never stays integral
		if types.KindOf(lt) == types.DecimalKind || types.KindOf(rt) == types.DecimalKind {
			result = types.InternalDecimalType
		} else {
			result = types.Float64
		}
	} else {
		super, ok := types.Supertype(lt, rt)
		if !ok {
			b.handleErr(sql.ErrCannotCoerce.New(lt, rt))
		}
		result = super
		if types.IsNull(result) {
			result = types.Int64
		}
	}
	return &resolved.Arithmetic{
		Op:    bin.Op,
		Left:  b.coerceTo(left, result),
		Right: b.coerceTo(right, result),
		Typ:   result,
	}
}

func numericOrNull(t sql.Type) bool {
	return types.IsNumber(t) || types.IsNull(t)
}

func (b *Builder) buildComparison(inScope *scope, c *ast.Comparison) resolved.Expr {
	op := strings.ToLower(c.Op)
	if op == "in" || op == "not in" {
		return b.buildIn(inScope, c, op == "not in")
	}

	left := b.buildScalar(inScope, c.Left)
	right := b.buildScalar(inScope, c.Right)
	super, ok := types.Supertype(left.Type(), right.Type())
	if !ok {
		b.handleErr(sql.ErrCannotCoerce.New(left.Type(), right.Type()))
	}
	return &resolved.Comparison{
		Op:    c.Op,
		Left:  b.coerceTo(left, super),
		Right: b.coerceTo(right, super),
	}
}

func (b *Builder) buildIn(inScope *scope, c *ast.Comparison, negate bool) resolved.Expr {
	left := b.buildScalar(inScope, c.Left)
	switch right := c.Right.(type) {
	case *ast.Tuple:
		elems := make([]resolved.Expr, len(right.Exprs))
		for i, e := range right.Exprs {
			elem := b.buildScalar(inScope, e)
			super, ok := types.Supertype(left.Type(), elem.Type())
			if !ok {
				b.handleErr(sql.ErrCannotCoerce.New(elem.Type(), left.Type()))
			}
			elems[i] = b.coerceTo(elem, super)
		}
		return &resolved.InTuple{Left: left, Right: &resolved.Tuple{Exprs: elems}, Negate: negate}
	case *ast.Subquery:
		sq := b.buildSubqueryNode(inScope, right)
		if len(sq.Query.Columns()) != 1 {
			b.handleErr(sql.ErrUnsupportedFeature.New("IN subquery with more than one output column"))
		}
		if _, ok := types.Supertype(left.Type(), sq.Typ); !ok {
			b.handleErr(sql.ErrCannotCoerce.New(left.Type(), sq.Typ))
		}
		return &resolved.InSubquery{Left: left, Right: sq, Negate: negate}
	}
	b.handleErr(sql.ErrInternal.New("IN right operand is neither a tuple nor a subquery"))
	return nil
}

func (b *Builder) buildCase(inScope *scope, c *ast.Case) resolved.Expr {
	var operand resolved.Expr
	if c.Operand != nil {
		operand = b.buildScalar(inScope, c.Operand)
	}

	branches := make([]resolved.CaseBranch, len(c.Whens))
	var result sql.Type = types.Null
	for i, w := range c.Whens {
		var cond resolved.Expr
		if operand != nil {
			cmp := b.buildScalar(inScope, w.Cond)
			super, ok := types.Supertype(operand.Type(), cmp.Type())
			if !ok {
				b.handleErr(sql.ErrCannotCoerce.New(cmp.Type(), operand.Type()))
			}
			cond = b.coerceTo(cmp, super)
		} else {
			cond = b.buildBool(inScope, w.Cond)
		}
		val := b.buildScalar(inScope, w.Value)
		super, ok := types.Supertype(result, val.Type())
		if !ok {
			b.handleErr(sql.ErrCannotCoerce.New(val.Type(), result))
		}
		result = super
		branches[i] = resolved.CaseBranch{Cond: cond, Value: val}
	}

	var elseExpr resolved.Expr
	if c.Else != nil {
		elseExpr = b.buildScalar(inScope, c.Else)
		super, ok := types.Supertype(result, elseExpr.Type())
		if !ok {
			b.handleErr(sql.ErrCannotCoerce.New(elseExpr.Type(), result))
		}
		result = super
	}

	// unify every branch to the final result type
	for i := range branches {
		branches[i].Value = b.coerceTo(branches[i].Value, result)
	}
	if elseExpr != nil {
		elseExpr = b.coerceTo(elseExpr, result)
	}
	return &resolved.Case{Operand: operand, Branches: branches, Else: elseExpr, Typ: result}
}

func (b *Builder) buildCast(inScope *scope, c *ast.Cast) resolved.Expr {
	child := b.buildScalar(inScope, c.Expr)
	to := b.typeFromName(c.TypeName)

	// decimal casts of numeric literals reparse the preserved image so the
	// written digits survive exactly
	if lit, ok := child.(*resolved.Literal); ok && b.features.DecimalLiterals {
		if dt, ok := to.(types.DecimalType); ok {
			if image, ok := b.images[lit]; ok {
				d, err := dt.ConvertString(image)
				if err != nil {
					b.handleErr(sql.ErrInvalidCast.New(child.Type(), to))
				}
				return &resolved.Literal{Value: d, Typ: dt}
			}
		}
	}

	if b.coercer.CanCoerce(child.Type(), to) == sql.CoerceNone {
		b.handleErr(sql.ErrInvalidCast.New(child.Type(), to))
	}
	return &resolved.Cast{Child: child, To: to}
}

// typeFromName resolves a type name from a CAST, checking the built-in
// names first and falling back to catalog-registered types.
func (b *Builder) typeFromName(name string) sql.Type {
	switch strings.ToLower(name) {
	case "bool", "boolean":
		return types.Boolean
	case "int64", "int", "integer":
		return types.Int64
	case "float64", "float":
		return types.Float64
	case "numeric", "decimal":
		return types.InternalDecimalType
	case "string":
		return types.String
	case "bytes":
		return types.Bytes
	case "date":
		return types.Date
	case "timestamp":
		return types.Timestamp
	}
	if t, ok := b.cat.Type(b.ctx, name); ok {
		return t
	}
	b.handleErr(sql.ErrUnsupportedFeature.New("cast to unknown type " + name))
	return nil
}

func (b *Builder) buildTuple(inScope *scope, t *ast.Tuple) resolved.Expr {
	exprs := make([]resolved.Expr, len(t.Exprs))
	for i, e := range t.Exprs {
		exprs[i] = b.buildScalar(inScope, e)
	}
	return &resolved.Tuple{Exprs: exprs}
}

func (b *Builder) buildArrayIndex(inScope *scope, a *ast.ArrayIndex) resolved.Expr {
	arr := b.buildScalar(inScope, a.Array)
	at, ok := arr.Type().(types.ArrayType)
	if !ok {
		b.handleErr(sql.ErrCannotCoerce.New(arr.Type(), "ARRAY"))
	}
	idx := b.coerceTo(b.buildScalar(inScope, a.Index), types.Int64)
	return &resolved.ArrayAt{Array: arr, Index: idx, Typ: at.Elem}
}

// buildSubqueryNode resolves a subquery used in expression position and
// collects the correlated columns crossing its boundary.
func (b *Builder) buildSubqueryNode(inScope *scope, sq *ast.Subquery) *resolved.Subquery {
	sqScope := inScope.pushSubquery()
	outScope := b.buildSelect(sqScope, sq.Select)
	cols := outScope.node.Columns()
	if len(cols) == 0 {
		b.handleErr(sql.ErrInternal.New("subquery produces no columns"))
	}
	return &resolved.Subquery{
		Query:      outScope.node,
		Correlated: sqScope.sub.correlated,
		Typ:        cols[0].Type,
	}
}

// buildSubqueryExpr resolves a scalar subquery, which must produce exactly
// one output column.
func (b *Builder) buildSubqueryExpr(inScope *scope, sq *ast.Subquery) resolved.Expr {
	node := b.buildSubqueryNode(inScope, sq)
	if len(node.Query.Columns()) != 1 {
		b.handleErr(sql.ErrUnsupportedFeature.New("scalar subquery with more than one output column"))
	}
	return node
}

// coerceTo converts expr to the target type, inserting an implicit cast when
// the types package allows it. Numeric literals coerce to decimal targets by
// reparsing their preserved image, and unconstrained parameters adopt the
// target type in place.
func (b *Builder) coerceTo(expr resolved.Expr, to sql.Type) resolved.Expr {
	from := expr.Type()
	if from.Equals(to) {
		return expr
	}

	if lit, ok := expr.(*resolved.Literal); ok {
		if lit.Value == nil {
			return &resolved.Literal{Value: nil, Typ: to}
		}
		if dt, ok := to.(types.DecimalType); ok && b.features.DecimalLiterals {
			if image, ok := b.images[lit]; ok {
				d, err := dt.ConvertString(image)
				if err != nil {
					b.handleErr(sql.ErrCannotCoerce.New(from, to))
				}
				return &resolved.Literal{Value: d, Typ: dt}
			}
		}
	}

	if p, ok := expr.(*resolved.Parameter); ok && types.IsNull(p.Typ) {
		p.Typ = to
		return p
	}

	if b.coercer.CanCoerce(from, to) != sql.CoerceImplicit {
		b.handleErr(sql.ErrCannotCoerce.New(from, to))
	}
	return &resolved.Cast{Child: expr, To: to, Implicit: true}
}
