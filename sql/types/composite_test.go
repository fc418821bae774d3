package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStructFieldLookup(t *testing.T) {
	require := require.New(t)

	st := CreateStructType(
		StructField{Name: "Id", Type: Int64},
		StructField{Name: "Name", Type: String},
	)

	ft, ok := st.Field("id")
	require.True(ok)
	require.True(ft.Equals(Int64))

	require.Equal(1, st.FieldIndex("NAME"))
	_, ok = st.Field("missing")
	require.False(ok)
}

func TestTypeEquality(t *testing.T) {
	require := require.New(t)

	require.True(CreateArrayType(Int64).Equals(CreateArrayType(Int64)))
	require.False(CreateArrayType(Int64).Equals(CreateArrayType(String)))

	a := CreateStructType(StructField{Name: "x", Type: Int64})
	b := CreateStructType(StructField{Name: "X", Type: Int64})
	require.True(a.Equals(b))

	e1 := CreateEnumType("color", "RED", "GREEN")
	e2 := CreateEnumType("color", "RED", "GREEN", "BLUE")
	require.True(e1.Equals(e2))
	require.False(e1.Equals(CreateEnumType("size", "S")))

	require.Equal(1, e1.IndexOf("green"))
	require.Equal(-1, e1.IndexOf("BLUE"))
}

func TestConvertValue(t *testing.T) {
	require := require.New(t)

	v, err := ConvertValue("42", Int64)
	require.NoError(err)
	require.Equal(int64(42), v)

	v, err = ConvertValue(int64(1), Boolean)
	require.NoError(err)
	require.Equal(true, v)

	d, err := ConvertValue("2.50", InternalDecimalType)
	require.NoError(err)
	require.Equal("2.5", d.(decimal.Decimal).String())

	v, err = ConvertValue(nil, Int64)
	require.NoError(err)
	require.Nil(v)

	_, err = ConvertValue(struct{}{}, Date)
	require.Error(err)
}
