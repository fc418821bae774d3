package types

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"

	"github.com/arbordb/go-sql-resolver/sql"
)

// ProtoType is a protobuf message type. Field access in path expressions
// walks the message descriptor; extension fields are looked up by
// parenthesized qualified name against the registry.
type ProtoType struct {
	Desc protoreflect.MessageDescriptor
	// Registry resolves extension fields. Defaults to the global registry.
	Registry *protoregistry.Types
}

func CreateProtoType(desc protoreflect.MessageDescriptor) ProtoType {
	return ProtoType{Desc: desc}
}

func (t ProtoType) String() string { return fmt.Sprintf("PROTO<%s>", t.Desc.FullName()) }

func (t ProtoType) Equals(other sql.Type) bool {
	o, ok := other.(ProtoType)
	return ok && o.Desc.FullName() == t.Desc.FullName()
}

// Field resolves a field of the message by name and maps its type into the
// resolver's type system.
func (t ProtoType) Field(name string) (sql.Type, bool) {
	fd := t.Desc.Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		fd = t.Desc.Fields().ByJSONName(name)
	}
	if fd == nil {
		return nil, false
	}
	return fieldType(fd), true
}

// Extension resolves an extension field by fully qualified name, e.g.
// (my.pkg.ext_field).
func (t ProtoType) Extension(fullName string) (sql.Type, bool) {
	reg := t.Registry
	if reg == nil {
		reg = protoregistry.GlobalTypes
	}
	xt, err := reg.FindExtensionByName(protoreflect.FullName(fullName))
	if err != nil {
		return nil, false
	}
	fd := xt.TypeDescriptor()
	if fd.ContainingMessage().FullName() != t.Desc.FullName() {
		return nil, false
	}
	return fieldType(fd), true
}

// FieldNames lists the message's field names in declaration order, used for
// star expansion over proto-typed value tables.
func (t ProtoType) FieldNames() []string {
	fields := t.Desc.Fields()
	names := make([]string, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		names[i] = string(fields.Get(i).Name())
	}
	return names
}

func fieldType(fd protoreflect.FieldDescriptor) sql.Type {
	var t sql.Type
	switch fd.Kind() {
	case protoreflect.BoolKind:
		t = Boolean
	case protoreflect.Int32Kind, protoreflect.Int64Kind,
		protoreflect.Sint32Kind, protoreflect.Sint64Kind,
		protoreflect.Sfixed32Kind, protoreflect.Sfixed64Kind,
		protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		t = Int64
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		t = Int64
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		t = Float64
	case protoreflect.StringKind:
		t = String
	case protoreflect.BytesKind:
		t = Bytes
	case protoreflect.EnumKind:
		t = EnumFromDescriptor(fd.Enum())
	case protoreflect.MessageKind, protoreflect.GroupKind:
		t = CreateProtoType(fd.Message())
	default:
		t = Bytes
	}
	if fd.IsList() {
		return CreateArrayType(t)
	}
	return t
}
