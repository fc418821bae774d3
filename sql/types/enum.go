package types

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/arbordb/go-sql-resolver/sql"
)

// EnumType is a named, closed set of string values, each with a number.
type EnumType struct {
	Name   string
	Values []string
}

func CreateEnumType(name string, values ...string) EnumType {
	return EnumType{Name: name, Values: values}
}

// EnumFromDescriptor builds an enum type from a protobuf enum descriptor.
func EnumFromDescriptor(desc protoreflect.EnumDescriptor) EnumType {
	vals := desc.Values()
	values := make([]string, vals.Len())
	for i := 0; i < vals.Len(); i++ {
		values[i] = string(vals.Get(i).Name())
	}
	return EnumType{Name: string(desc.FullName()), Values: values}
}

func (t EnumType) String() string { return fmt.Sprintf("ENUM<%s>", t.Name) }

func (t EnumType) Equals(other sql.Type) bool {
	o, ok := other.(EnumType)
	return ok && o.Name == t.Name
}

// IndexOf returns the number of the named enum value, or -1.
func (t EnumType) IndexOf(value string) int {
	for i, v := range t.Values {
		if strings.EqualFold(v, value) {
			return i
		}
	}
	return -1
}
