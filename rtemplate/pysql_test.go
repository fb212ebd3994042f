package rtemplate

import (
	"testing"

	"github.com/rbatis-go/rbatis/rvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPySQLIfWhereStripsConjunction(t *testing.T) {
	src := `select * from user
where:
  if name != null:
    and name = #{name}
  if age != null:
    and age = #{age}
`
	r := NewRegistry()
	require.NoError(t, r.LoadPySQL("findUsers", src))

	tpl := r.Get("findUsers")
	require.NotNil(t, tpl)

	root := rvalue.MapOf([2]rvalue.Value{rvalue.String("name"), rvalue.String("bob")})
	sql, args := tpl.Render(root)

	assert.Contains(t, sql, "WHERE name = ?")
	assert.NotContains(t, sql, "and name")
	assert.Equal(t, []rvalue.Value{rvalue.String("bob")}, args)
}

func TestLoadPySQLForeachInsertBatch(t *testing.T) {
	src := `insert into user (id, name) values
for item in list separator=',':
  (#{item.id}, #{item.name})
`
	r := NewRegistry()
	require.NoError(t, r.LoadPySQL("insertBatch", src))

	list := rvalue.Array(
		rvalue.MapOf([2]rvalue.Value{rvalue.String("id"), rvalue.I64(1)}, [2]rvalue.Value{rvalue.String("name"), rvalue.String("a")}),
		rvalue.MapOf([2]rvalue.Value{rvalue.String("id"), rvalue.I64(2)}, [2]rvalue.Value{rvalue.String("name"), rvalue.String("b")}),
	)
	root := rvalue.MapOf([2]rvalue.Value{rvalue.String("list"), list})

	sql, args := r.Get("insertBatch").Render(root)
	assert.Contains(t, sql, "(?, ?),(?, ?)")
	require.Len(t, args, 4)
}

func TestLoadPySQLForeachEmptyEmitsNothing(t *testing.T) {
	src := `insert into user (id) values
for item in list open='(' close=')' separator=',':
  #{item}
`
	r := NewRegistry()
	require.NoError(t, r.LoadPySQL("insertBatch", src))

	root := rvalue.MapOf([2]rvalue.Value{rvalue.String("list"), rvalue.Array()})
	sql, args := r.Get("insertBatch").Render(root)
	assert.Equal(t, "insert into user (id) values", sql)
	assert.Empty(t, args)
}

func TestLoadPySQLChooseFirstMatchWins(t *testing.T) {
	src := `select * from t
choose:
  when kind == 'a':
    where k = 1
  when kind == 'b':
    where k = 2
  otherwise:
    where k = 0
`
	r := NewRegistry()
	require.NoError(t, r.LoadPySQL("byKind", src))

	sql, _ := r.Get("byKind").Render(rvalue.MapOf([2]rvalue.Value{rvalue.String("kind"), rvalue.String("b")}))
	assert.Contains(t, sql, "k = 2")
	assert.NotContains(t, sql, "k = 1")

	sql, _ = r.Get("byKind").Render(rvalue.MapOf([2]rvalue.Value{rvalue.String("kind"), rvalue.String("z")}))
	assert.Contains(t, sql, "k = 0")
}

func TestLoadPySQLBindAndInclude(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.LoadXML(`<mapper><sql id="activeCond">and active = 1</sql></mapper>`))

	src := `select * from user
where:
  bind minAge = age + 1:
  and age >= #{minAge}
  include activeCond:
`
	require.NoError(t, registry.LoadPySQL("main", src))

	root := rvalue.MapOf([2]rvalue.Value{rvalue.String("age"), rvalue.I64(10)})
	sql, args := registry.Get("main").Render(root)

	assert.Contains(t, sql, "age >= ?")
	assert.Contains(t, sql, "active = 1")
	require.Len(t, args, 1)
	assert.Equal(t, rvalue.I64(11), args[0])
}
