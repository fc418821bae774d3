// Package types implements the concrete type system consumed by the
// resolver through the sql.Type and sql.TypeCoercer facades: primitives,
// exact decimals, arrays, structs, enums, and protobuf message types.
package types

import (
	"github.com/arbordb/go-sql-resolver/sql"
)

// Kind enumerates the primitive type kinds.
type Kind int

const (
	NullKind Kind = iota
	BoolKind
	Int64Kind
	Float64Kind
	DecimalKind
	StringKind
	BytesKind
	DateKind
	TimestampKind
	ArrayKind
	StructKind
	EnumKind
	ProtoKind
)

type primitiveType struct {
	name string
	kind Kind
}

func (t primitiveType) String() string { return t.name }

func (t primitiveType) Equals(other sql.Type) bool {
	o, ok := other.(primitiveType)
	return ok && o.kind == t.kind
}

var (
	Null      sql.Type = primitiveType{"NULL", NullKind}
	Boolean   sql.Type = primitiveType{"BOOL", BoolKind}
	Int64     sql.Type = primitiveType{"INT64", Int64Kind}
	Float64   sql.Type = primitiveType{"FLOAT64", Float64Kind}
	String    sql.Type = primitiveType{"STRING", StringKind}
	Bytes     sql.Type = primitiveType{"BYTES", BytesKind}
	Date      sql.Type = primitiveType{"DATE", DateKind}
	Timestamp sql.Type = primitiveType{"TIMESTAMP", TimestampKind}
)

// KindOf returns the kind of any type produced by this package.
func KindOf(t sql.Type) Kind {
	switch t := t.(type) {
	case primitiveType:
		return t.kind
	case DecimalType:
		return DecimalKind
	case ArrayType:
		return ArrayKind
	case StructType:
		return StructKind
	case EnumType:
		return EnumKind
	case ProtoType:
		return ProtoKind
	default:
		return NullKind
	}
}

// IsNumber reports whether t is one of the numeric types.
func IsNumber(t sql.Type) bool {
	switch KindOf(t) {
	case Int64Kind, Float64Kind, DecimalKind:
		return true
	}
	return false
}

// IsNull reports whether t is the untyped NULL type.
func IsNull(t sql.Type) bool { return KindOf(t) == NullKind }

// IsText reports whether t is the string type.
func IsText(t sql.Type) bool { return KindOf(t) == StringKind }
