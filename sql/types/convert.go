package types

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/arbordb/go-sql-resolver/sql"
)

// ConvertValue converts a Go literal value to the representation of the
// given type. Only literal folding during resolution uses it; the resolver
// never evaluates expressions.
func ConvertValue(v interface{}, t sql.Type) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch KindOf(t) {
	case BoolKind:
		return cast.ToBoolE(v)
	case Int64Kind:
		return cast.ToInt64E(v)
	case Float64Kind:
		return cast.ToFloat64E(v)
	case StringKind:
		return cast.ToStringE(v)
	case BytesKind:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
	case DecimalKind:
		dt := t.(DecimalType)
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, err
		}
		return dt.ConvertString(s)
	}
	return nil, fmt.Errorf("cannot convert %T to %s", v, t)
}
