package rtemplate

import (
	"strings"
	"testing"

	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/rbatis-go/rbatis/rvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadXMLWhereStripsLeadingConjunction(t *testing.T) {
	src := `<mapper>
  <select id="findUsers">
    select * from user
    <where>
      <if test="name != null">
        and name = #{name}
      </if>
      <if test="age != null">
        and age = #{age}
      </if>
    </where>
  </select>
</mapper>`

	r := NewRegistry()
	require.NoError(t, r.LoadXML(src))

	tpl := r.Get("findUsers")
	require.NotNil(t, tpl)

	root := rvalue.MapOf([2]rvalue.Value{rvalue.String("name"), rvalue.String("bob")})
	sql, args := tpl.Render(root)

	assert.Contains(t, sql, "WHERE name = ?")
	assert.NotContains(t, sql, "and name")
	assert.Equal(t, []rvalue.Value{rvalue.String("bob")}, args)
}

func TestLoadXMLWhereEmptyWhenNoBranchMatches(t *testing.T) {
	src := `<mapper>
  <select id="findAll">
    select * from user
    <where>
      <if test="name != null">
        and name = #{name}
      </if>
    </where>
  </select>
</mapper>`

	r := NewRegistry()
	require.NoError(t, r.LoadXML(src))

	sql, args := r.Get("findAll").Render(rvalue.NewMap())
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, args)
}

func TestLoadXMLForeachInsertBatch(t *testing.T) {
	src := `<mapper>
  <insert id="insertBatch">
    insert into user (id, name) values
    <foreach collection="list" item="item" separator=",">
      (#{item.id}, #{item.name})
    </foreach>
  </insert>
</mapper>`

	r := NewRegistry()
	require.NoError(t, r.LoadXML(src))

	list := rvalue.Array(
		rvalue.MapOf([2]rvalue.Value{rvalue.String("id"), rvalue.I64(1)}, [2]rvalue.Value{rvalue.String("name"), rvalue.String("a")}),
		rvalue.MapOf([2]rvalue.Value{rvalue.String("id"), rvalue.I64(2)}, [2]rvalue.Value{rvalue.String("name"), rvalue.String("b")}),
	)
	root := rvalue.MapOf([2]rvalue.Value{rvalue.String("list"), list})

	sql, args := r.Get("insertBatch").Render(root)
	assert.Equal(t, 4, rdialect.CountPlaceholders(sql))
	assert.Contains(t, sql, "(?, ?),(?, ?)")
	require.Len(t, args, 4)
	assert.Equal(t, rvalue.I64(1), args[0])
	assert.Equal(t, rvalue.String("a"), args[1])
	assert.Equal(t, rvalue.I64(2), args[2])
	assert.Equal(t, rvalue.String("b"), args[3])
}

func TestLoadXMLForeachEmptyCollectionEmitsNothing(t *testing.T) {
	src := `<mapper>
  <insert id="insertBatch">
    insert into user (id) values
    <foreach collection="list" item="item" open="(" close=")" separator=",">
      #{item}
    </foreach>
  </insert>
</mapper>`

	r := NewRegistry()
	require.NoError(t, r.LoadXML(src))

	root := rvalue.MapOf([2]rvalue.Value{rvalue.String("list"), rvalue.Array()})
	sql, args := r.Get("insertBatch").Render(root)
	assert.Equal(t, "insert into user (id) values", strings.TrimSpace(sql))
	assert.Empty(t, args)
}

func TestLoadXMLChooseFirstMatchWins(t *testing.T) {
	src := `<mapper>
  <select id="byKind">
    select * from t
    <choose>
      <when test="kind == 'a'">where k = 1</when>
      <when test="kind == 'b'">where k = 2</when>
      <otherwise>where k = 0</otherwise>
    </choose>
  </select>
</mapper>`

	r := NewRegistry()
	require.NoError(t, r.LoadXML(src))

	sql, _ := r.Get("byKind").Render(rvalue.MapOf([2]rvalue.Value{rvalue.String("kind"), rvalue.String("b")}))
	assert.Contains(t, sql, "k = 2")
	assert.NotContains(t, sql, "k = 1")

	sql, _ = r.Get("byKind").Render(rvalue.MapOf([2]rvalue.Value{rvalue.String("kind"), rvalue.String("z")}))
	assert.Contains(t, sql, "k = 0")
}

func TestLoadXMLIncludeResolvesForwardReference(t *testing.T) {
	src := `<mapper>
  <select id="main">
    select * from user <include refid="cond"/>
  </select>
  <sql id="cond">where active = 1</sql>
</mapper>`

	r := NewRegistry()
	require.NoError(t, r.LoadXML(src))

	sql, _ := r.Get("main").Render(rvalue.NewMap())
	assert.Contains(t, sql, "where active = 1")
}

func TestLoadXMLRenderForRewritesPlaceholders(t *testing.T) {
	src := `<mapper>
  <select id="byId">where id = #{id}</select>
</mapper>`

	r := NewRegistry()
	require.NoError(t, r.LoadXML(src))

	sql, args, err := r.Get("byId").RenderFor(rvalue.MapOf([2]rvalue.Value{rvalue.String("id"), rvalue.I64(7)}), rdialect.Postgres)
	require.NoError(t, err)
	assert.Contains(t, sql, "$1")
	assert.Equal(t, []rvalue.Value{rvalue.I64(7)}, args)
}
