package types

import (
	"github.com/arbordb/go-sql-resolver/sql"
)

// Coercer implements sql.TypeCoercer over this package's types. It is
// stateless and safe for concurrent use.
type Coercer struct{}

var _ sql.TypeCoercer = Coercer{}

// CanCoerce answers whether a value of type from can become a value of type
// to, and whether that needs an explicit cast.
func (Coercer) CanCoerce(from, to sql.Type) sql.Coercion {
	if from.Equals(to) {
		return sql.CoerceImplicit
	}
	fk, tk := KindOf(from), KindOf(to)

	// untyped NULL coerces to anything
	if fk == NullKind {
		return sql.CoerceImplicit
	}

	switch fk {
	case Int64Kind:
		switch tk {
		case Float64Kind, DecimalKind:
			return sql.CoerceImplicit
		case BoolKind, StringKind, EnumKind:
			return sql.CoerceExplicit
		}
	case Float64Kind:
		switch tk {
		case DecimalKind:
			return sql.CoerceImplicit
		case Int64Kind, StringKind:
			return sql.CoerceExplicit
		}
	case DecimalKind:
		switch tk {
		case Float64Kind, DecimalKind:
			return sql.CoerceImplicit
		case Int64Kind, StringKind:
			return sql.CoerceExplicit
		}
	case BoolKind:
		switch tk {
		case StringKind, Int64Kind:
			return sql.CoerceExplicit
		}
	case StringKind:
		switch tk {
		case DateKind, TimestampKind:
			return sql.CoerceImplicit
		case BytesKind, Int64Kind, Float64Kind, DecimalKind, BoolKind, EnumKind:
			return sql.CoerceExplicit
		}
	case BytesKind:
		if tk == StringKind {
			return sql.CoerceExplicit
		}
	case DateKind:
		switch tk {
		case TimestampKind:
			return sql.CoerceImplicit
		case StringKind:
			return sql.CoerceExplicit
		}
	case TimestampKind:
		switch tk {
		case DateKind, StringKind:
			return sql.CoerceExplicit
		}
	case EnumKind:
		switch tk {
		case StringKind, Int64Kind:
			return sql.CoerceExplicit
		}
	case ArrayKind:
		if tk == ArrayKind {
			return Coercer{}.CanCoerce(from.(ArrayType).Elem, to.(ArrayType).Elem)
		}
	case StructKind:
		if tk == StructKind {
			ft, tt := from.(StructType), to.(StructType)
			if len(ft.Fields) != len(tt.Fields) {
				return sql.CoerceNone
			}
			worst := sql.CoerceImplicit
			for i := range ft.Fields {
				c := Coercer{}.CanCoerce(ft.Fields[i].Type, tt.Fields[i].Type)
				if c == sql.CoerceNone {
					return sql.CoerceNone
				}
				if c > worst {
					worst = c
				}
			}
			return worst
		}
	}
	return sql.CoerceNone
}

// Supertype returns the common type two operands implicitly coerce to, used
// for comparisons and CASE result typing.
func Supertype(a, b sql.Type) (sql.Type, bool) {
	if a.Equals(b) {
		return a, true
	}
	if IsNull(a) {
		return b, true
	}
	if IsNull(b) {
		return a, true
	}
	c := Coercer{}
	if c.CanCoerce(a, b) == sql.CoerceImplicit {
		return b, true
	}
	if c.CanCoerce(b, a) == sql.CoerceImplicit {
		return a, true
	}
	return nil, false
}
