package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arbordb/go-sql-resolver/sql"
)

func TestCanCoerce(t *testing.T) {
	c := Coercer{}

	cases := []struct {
		from, to sql.Type
		want     sql.Coercion
	}{
		{Int64, Int64, sql.CoerceImplicit},
		{Null, Timestamp, sql.CoerceImplicit},
		{Int64, Float64, sql.CoerceImplicit},
		{Int64, InternalDecimalType, sql.CoerceImplicit},
		{Float64, Int64, sql.CoerceExplicit},
		{String, Date, sql.CoerceImplicit},
		{String, Int64, sql.CoerceExplicit},
		{Date, Timestamp, sql.CoerceImplicit},
		{Timestamp, Date, sql.CoerceExplicit},
		{Boolean, Timestamp, sql.CoerceNone},
		{Bytes, String, sql.CoerceExplicit},
		{String, Bytes, sql.CoerceExplicit},
	}
	for _, tc := range cases {
		got := c.CanCoerce(tc.from, tc.to)
		require.Equal(t, tc.want, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestCanCoerceArraysElementwise(t *testing.T) {
	require := require.New(t)
	c := Coercer{}

	require.Equal(sql.CoerceImplicit,
		c.CanCoerce(CreateArrayType(Int64), CreateArrayType(Float64)))
	require.Equal(sql.CoerceNone,
		c.CanCoerce(CreateArrayType(Boolean), CreateArrayType(Timestamp)))
	require.Equal(sql.CoerceNone,
		c.CanCoerce(CreateArrayType(Int64), Int64))
}

func TestCanCoerceStructsFieldwise(t *testing.T) {
	require := require.New(t)
	c := Coercer{}

	a := CreateStructType(
		StructField{Name: "n", Type: Int64},
		StructField{Name: "s", Type: String},
	)
	b := CreateStructType(
		StructField{Name: "n", Type: Float64},
		StructField{Name: "s", Type: String},
	)
	require.Equal(sql.CoerceImplicit, c.CanCoerce(a, b))

	// the worst field coercion wins
	explicit := CreateStructType(
		StructField{Name: "n", Type: String},
		StructField{Name: "s", Type: String},
	)
	require.Equal(sql.CoerceExplicit, c.CanCoerce(a, explicit))

	short := CreateStructType(StructField{Name: "n", Type: Int64})
	require.Equal(sql.CoerceNone, c.CanCoerce(a, short))
}

func TestSupertype(t *testing.T) {
	require := require.New(t)

	s, ok := Supertype(Int64, Float64)
	require.True(ok)
	require.True(s.Equals(Float64))

	s, ok = Supertype(Null, String)
	require.True(ok)
	require.True(s.Equals(String))

	s, ok = Supertype(Int64, InternalDecimalType)
	require.True(ok)
	require.True(s.Equals(InternalDecimalType))

	_, ok = Supertype(Int64, String)
	require.False(ok)
}
