package types

import (
	"fmt"
	"strings"

	"github.com/arbordb/go-sql-resolver/sql"
)

// ArrayType is an ordered collection of elements of one type.
type ArrayType struct {
	Elem sql.Type
}

func CreateArrayType(elem sql.Type) ArrayType { return ArrayType{Elem: elem} }

func (t ArrayType) String() string { return fmt.Sprintf("ARRAY<%s>", t.Elem) }

func (t ArrayType) Equals(other sql.Type) bool {
	o, ok := other.(ArrayType)
	return ok && o.Elem.Equals(t.Elem)
}

// StructField is one named field of a struct type.
type StructField struct {
	Name string
	Type sql.Type
}

// StructType is an ordered list of named fields.
type StructType struct {
	Fields []StructField
}

func CreateStructType(fields ...StructField) StructType {
	return StructType{Fields: fields}
}

func (t StructType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = fmt.Sprintf("%s %s", f.Name, f.Type)
	}
	return fmt.Sprintf("STRUCT<%s>", strings.Join(parts, ", "))
}

func (t StructType) Equals(other sql.Type) bool {
	o, ok := other.(StructType)
	if !ok || len(o.Fields) != len(t.Fields) {
		return false
	}
	for i, f := range t.Fields {
		if !strings.EqualFold(f.Name, o.Fields[i].Name) || !f.Type.Equals(o.Fields[i].Type) {
			return false
		}
	}
	return true
}

// FieldIndex returns the position of the named field, case-insensitively.
func (t StructType) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// Field returns the type of the named field.
func (t StructType) Field(name string) (sql.Type, bool) {
	if i := t.FieldIndex(name); i >= 0 {
		return t.Fields[i].Type, true
	}
	return nil, false
}
