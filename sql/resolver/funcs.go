package resolver

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/arbordb/go-sql-resolver/internal/similartext"
	"github.com/arbordb/go-sql-resolver/sql"
	"github.com/arbordb/go-sql-resolver/sql/ast"
	"github.com/arbordb/go-sql-resolver/sql/resolved"
	"github.com/arbordb/go-sql-resolver/sql/types"
)

// buildFuncExpr resolves a function call, dispatching on the catalog's
// function kind and the presence of an OVER clause.
func (b *Builder) buildFuncExpr(inScope *scope, f *ast.FuncExpr) resolved.Expr {
	fn, err := b.cat.Function(b.ctx, f.Name)
	if err != nil {
		suffix := similartext.Find(b.cat.FunctionNames(b.ctx), f.Name)
		b.handleErr(sql.ErrFunctionNotFound.New(f.Name, suffix))
	}
	if fn.Deprecated != "" {
		b.diags.Deprecate(sql.DeprecationWarning{
			Kind:    "deprecated_function",
			Message: fn.Deprecated,
			Offset:  f.Pos(),
		})
	}

	if f.Over != nil {
		if fn.Kind == sql.ScalarFunction {
			b.handleErr(sql.ErrUnsupportedFeature.New("OVER clause on scalar function " + fn.Name))
		}
		return b.buildWindowCall(inScope, f, fn)
	}

	switch fn.Kind {
	case sql.AggregateFunction:
		return b.buildAggregateCall(inScope, f, fn)
	case sql.AnalyticFunction:
		b.handleErr(sql.ErrWindowNotAllowed.New(fn.Name, "a call without an OVER clause"))
		return nil
	default:
		args := b.buildArgs(inScope, f, false)
		ov, coerced := b.matchOverload(fn, args)
		return &resolved.FuncCall{
			Name:     fn.Name,
			Overload: ov,
			Args:     coerced,
			Typ:      ov.ReturnType(exprTypes(coerced)),
		}
	}
}

// buildArgs resolves the argument list. A nil entry is a star argument,
// legal only as the sole argument of an aggregate; an interval argument is
// split into its value and a string literal naming the date part.
func (b *Builder) buildArgs(inScope *scope, f *ast.FuncExpr, allowStar bool) []resolved.Expr {
	var args []resolved.Expr
	for _, a := range f.Args {
		if a == nil {
			if !allowStar || len(f.Args) != 1 {
				b.handleErr(sql.ErrUnsupportedFeature.New("star argument to function " + f.Name))
			}
			continue
		}
		if iv, ok := a.(*ast.Interval); ok {
			args = append(args, b.buildScalar(inScope, iv.Value))
			args = append(args, &resolved.Literal{Value: strings.ToUpper(iv.Unit), Typ: types.String})
			continue
		}
		args = append(args, b.buildScalar(inScope, a))
	}
	return args
}

// matchOverload finds the first overload accepting the argument types. When
// none matches, it retries once with untyped literal arguments forced to
// carry the candidate parameter types; a literal image that reparses exactly
// as the parameter type makes an otherwise-uncoercible call match.
func (b *Builder) matchOverload(fn *sql.Function, args []resolved.Expr) (*sql.Overload, []resolved.Expr) {
	for _, ov := range fn.Overloads {
		if out, ok := b.tryOverload(ov, args, false); ok {
			return ov, out
		}
	}
	for _, ov := range fn.Overloads {
		if out, ok := b.tryOverload(ov, args, true); ok {
			return ov, out
		}
	}
	b.handleErr(sql.ErrNoMatchingSignature.New(fn.Name, typeNames(args)))
	return nil, nil
}

func (b *Builder) tryOverload(ov *sql.Overload, args []resolved.Expr, force bool) ([]resolved.Expr, bool) {
	params, ok := expandParams(ov, len(args))
	if !ok {
		return nil, false
	}
	out := make([]resolved.Expr, len(args))
	for i, arg := range args {
		p := params[i]
		// a nil parameter type accepts any argument unchanged
		if p == nil {
			out[i] = arg
			continue
		}
		switch {
		case arg.Type().Equals(p):
			out[i] = arg
		case types.IsNull(arg.Type()):
			out[i] = b.coerceTo(arg, p)
		case b.coercer.CanCoerce(arg.Type(), p) == sql.CoerceImplicit:
			out[i] = b.coerceTo(arg, p)
		case force:
			lit, isLit := arg.(*resolved.Literal)
			if !isLit {
				return nil, false
			}
			forced, ok := b.forceLiteral(lit, p)
			if !ok {
				return nil, false
			}
			out[i] = forced
		default:
			return nil, false
		}
	}
	return out, true
}

// expandParams materializes the parameter list for a given arity, repeating
// the last parameter of a variadic overload.
func expandParams(ov *sql.Overload, arity int) ([]sql.Type, bool) {
	if !ov.Variadic {
		if len(ov.Params) != arity {
			return nil, false
		}
		return ov.Params, true
	}
	if arity < len(ov.Params)-1 {
		return nil, false
	}
	params := make([]sql.Type, arity)
	for i := range params {
		if i < len(ov.Params) {
			params[i] = ov.Params[i]
		} else {
			params[i] = ov.Params[len(ov.Params)-1]
		}
	}
	return params, true
}

// forceLiteral retypes a numeric literal by reparsing its preserved textual
// image as the target type. Only exact reparses succeed: 3.0 can become an
// INT64, 3.14 cannot.
func (b *Builder) forceLiteral(lit *resolved.Literal, to sql.Type) (resolved.Expr, bool) {
	image, ok := b.images[lit]
	if !ok {
		return nil, false
	}
	switch to := to.(type) {
	case types.DecimalType:
		if !b.features.DecimalLiterals {
			return nil, false
		}
		d, err := to.ConvertString(image)
		if err != nil {
			return nil, false
		}
		return &resolved.Literal{Value: d, Typ: to}, true
	}
	switch types.KindOf(to) {
	case types.Int64Kind:
		d, err := decimal.NewFromString(image)
		if err != nil || !d.IsInteger() {
			return nil, false
		}
		return &resolved.Literal{Value: d.IntPart(), Typ: types.Int64}, true
	case types.Float64Kind:
		d, err := decimal.NewFromString(image)
		if err != nil {
			return nil, false
		}
		v, _ := d.Float64()
		return &resolved.Literal{Value: v, Typ: types.Float64}, true
	}
	return nil, false
}

func exprTypes(exprs []resolved.Expr) []sql.Type {
	out := make([]sql.Type, len(exprs))
	for i, e := range exprs {
		out[i] = e.Type()
	}
	return out
}

func typeNames(args []resolved.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Type().String()
	}
	return strings.Join(parts, ", ")
}
