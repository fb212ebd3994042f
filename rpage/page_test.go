package rpage

import (
	"testing"

	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakePagesEmptyInput(t *testing.T) {
	pages, err := MakePages([]int{}, 10)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestMakePagesBatchSizeGreaterThanLen(t *testing.T) {
	pages, err := MakePages([]int{1, 2, 3}, 10)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, []int{1, 2, 3}, pages[0].Records)
}

func TestMakePagesExactChunks(t *testing.T) {
	pages, err := MakePages([]int{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, []int{1, 2}, pages[0].Records)
	assert.Equal(t, []int{3, 4}, pages[1].Records)
}

func TestMakePagesLastPagePartial(t *testing.T) {
	pages, err := MakePages([]int{1, 2, 3, 4, 5}, 2)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, []int{5}, pages[2].Records)
}

func TestMakePagesConcatenationEqualsInput(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7}
	pages, err := MakePages(in, 3)
	require.NoError(t, err)

	var out []int
	for _, p := range pages {
		out = append(out, p.Records...)
		assert.LessOrEqual(t, len(p.Records), 3)
	}
	assert.Equal(t, in, out)
}

func TestMakePagesRejectsZeroBatchSize(t *testing.T) {
	_, err := MakePages([]int{1}, 0)
	require.Error(t, err)
}

func TestAppendLimitOffsetAnsi(t *testing.T) {
	got := appendLimitOffset("SELECT id FROM users", rdialect.MySQL, 20, 40)
	assert.Equal(t, "SELECT id FROM users LIMIT 20 OFFSET 40", got)
}

func TestAppendLimitOffsetMSSQL(t *testing.T) {
	got := appendLimitOffset("SELECT id FROM users ORDER BY id", rdialect.MSSQL, 20, 40)
	assert.Equal(t, "SELECT id FROM users ORDER BY id OFFSET 40 ROWS FETCH NEXT 20 ROWS ONLY", got)
}
