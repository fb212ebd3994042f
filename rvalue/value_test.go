package rvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapInsertOverwrites(t *testing.T) {
	m := NewMap()
	m.Insert(String("a"), I64(1))
	m.Insert(String("b"), I64(2))
	m.Insert(String("a"), I64(3))

	require.Equal(t, 2, m.Len())
	assert.Equal(t, I64(3), m.Field("a"))

	kv := m.MapKV()
	require.Len(t, kv, 2)
	assert.Equal(t, "a", kv[0].Key.AsStringOr(""))
	assert.Equal(t, "b", kv[1].Key.AsStringOr(""))
}

func TestFieldAndIndexMiss(t *testing.T) {
	assert.Equal(t, Null, String("x").Field("y"))
	assert.Equal(t, Null, Array(I64(1)).Index(5))
	assert.True(t, Null.IsNull())
}

func TestExtUnwrap(t *testing.T) {
	v := Ext(ExtUUID, String("abc"))
	tag, ok := v.ExtTag()
	require.True(t, ok)
	assert.Equal(t, ExtUUID, tag)
	assert.Equal(t, String("abc"), v.Unwrap())
}

func TestEqualityRules(t *testing.T) {
	assert.True(t, Null.Equal(Null))
	assert.False(t, Null.Equal(I64(0)))
	assert.False(t, I64(0).Equal(Null))
	assert.True(t, I64(7).Equal(F64(7)))
	assert.True(t, Ext(ExtDecimal, I64(5)).Equal(I64(5)))
	assert.False(t, I64(1).Equal(String("1")))
}

func TestAsBoolCoercion(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
		ok   bool
	}{
		{Bool(true), true, true},
		{I64(0), false, true},
		{I64(5), true, true},
		{String("true"), true, true},
		{String("0"), false, true},
		{String("nope"), false, false},
		{Array(), false, false},
	}

	for _, c := range cases {
		got, ok := c.v.AsBool()
		assert.Equal(t, c.ok, ok)
		if ok {
			assert.Equal(t, c.want, got)
		}
	}
}

func TestAsI64Coercion(t *testing.T) {
	got, ok := F64(3.9).AsI64()
	require.True(t, ok)
	assert.Equal(t, int64(3), got, "float truncates toward zero")

	got, ok = String("42").AsI64()
	require.True(t, ok)
	assert.Equal(t, int64(42), got)

	got, ok = Bool(true).AsI64()
	require.True(t, ok)
	assert.Equal(t, int64(1), got)
}

func TestArithmeticDivisionByZero(t *testing.T) {
	assert.Equal(t, Null, I64(4).Div(I64(0)))
	assert.Equal(t, I64(2), I64(4).Div(I64(2)))
}

func TestArithmeticStringOperandParsesToLeftType(t *testing.T) {
	assert.Equal(t, I64(12), I64(7).Add(String("5")))
	assert.Equal(t, I64(7), I64(7).Add(String("nope")), "failed parse falls back to 0")
}

func TestStringPredicates(t *testing.T) {
	assert.True(t, String("hello world").Contains(String("wor")))
	assert.True(t, String("hello world").StartsWith(String("hello")))
	assert.True(t, String("hello world").EndsWith(String("world")))
	assert.False(t, I64(5).Contains(String("5")), "defined only when left is String")
}

func TestFrom(t *testing.T) {
	type Inner struct {
		Name string `db:"name"`
	}
	type Outer struct {
		Inner
		Count int `db:"count"`
		Skip  string
	}

	v := From(Outer{Inner: Inner{Name: "a"}, Count: 3, Skip: "x"})
	assert.Equal(t, String("a"), v.Field("name"))
	assert.Equal(t, I32(3), v.Field("count"))
	assert.Equal(t, String("x"), v.Field("Skip"), "fields without a db tag default to the Go field name")
}
