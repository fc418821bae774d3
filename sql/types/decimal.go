package types

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/arbordb/go-sql-resolver/sql"
)

// DecimalType is an exact numeric type with fixed precision and scale.
type DecimalType struct {
	Precision uint8
	Scale     uint8
}

// InternalDecimalType is the widest decimal, used for numeric literals that
// overflow int64.
var InternalDecimalType = DecimalType{Precision: 65, Scale: 30}

func CreateDecimalType(precision, scale uint8) (DecimalType, error) {
	if scale > precision {
		return DecimalType{}, fmt.Errorf("scale %d exceeds precision %d", scale, precision)
	}
	if precision > 65 {
		return DecimalType{}, fmt.Errorf("precision %d out of range", precision)
	}
	return DecimalType{Precision: precision, Scale: scale}, nil
}

func MustCreateDecimalType(precision, scale uint8) DecimalType {
	t, err := CreateDecimalType(precision, scale)
	if err != nil {
		panic(err)
	}
	return t
}

func (t DecimalType) String() string {
	return fmt.Sprintf("NUMERIC(%d,%d)", t.Precision, t.Scale)
}

func (t DecimalType) Equals(other sql.Type) bool {
	o, ok := other.(DecimalType)
	return ok && o.Precision == t.Precision && o.Scale == t.Scale
}

// ConvertString parses an exact decimal from its textual image. Resolving a
// float literal and coercing it to a decimal type goes through the
// preserved image so the digits survive instead of a binary-float rounding.
func (t DecimalType) ConvertString(image string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(image)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if int32(t.Scale) < d.Exponent()*-1 {
		d = d.Round(int32(t.Scale))
	}
	return d, nil
}

// DecimalPrecisionAndScale derives the minimal precision and scale that can
// hold the given numeric literal image.
func DecimalPrecisionAndScale(image string) (uint8, uint8) {
	d, err := decimal.NewFromString(image)
	if err != nil {
		return InternalDecimalType.Precision, InternalDecimalType.Scale
	}
	scale := int32(0)
	if d.Exponent() < 0 {
		scale = -d.Exponent()
	}
	digits := len(d.Coefficient().String())
	if d.Coefficient().Sign() < 0 {
		digits--
	}
	if int32(digits) < scale {
		digits = int(scale)
	}
	return uint8(digits), uint8(scale)
}
