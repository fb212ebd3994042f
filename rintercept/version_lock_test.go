package rintercept_test

import (
	"context"
	"testing"

	"github.com/rbatis-go/rbatis/rintercept"
	"github.com/rbatis-go/rbatis/rvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionColumnIncrementsAndGuards(t *testing.T) {
	ic := rintercept.NewVersionColumnInterceptor("version")

	sql := `UPDATE "t" SET "name" = ?, "version" = ? WHERE "id" = ?`
	args := []rvalue.Value{rvalue.String("bob"), rvalue.I64(3), rvalue.I64(42)}

	newSQL, newArgs, skip, err := ic.Before(context.Background(), rintercept.OpExec, sql, args)
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, `UPDATE "t" SET "name" = ?, "version" = ? WHERE "id" = ? AND "version" = 3`, newSQL)

	n, ok := newArgs[1].AsI64()
	require.True(t, ok)
	assert.Equal(t, int64(4), n)

	// The old args slice must be untouched - callers may reuse it.
	old, ok := args[1].AsI64()
	require.True(t, ok)
	assert.Equal(t, int64(3), old)
}

func TestVersionColumnIgnoresNonUpdateStatements(t *testing.T) {
	ic := rintercept.NewVersionColumnInterceptor("version")

	sql := `SELECT * FROM "t" WHERE "version" = ?`
	out, _, _, err := ic.Before(context.Background(), rintercept.OpQuery, sql, []rvalue.Value{rvalue.I64(1)})
	require.NoError(t, err)
	assert.Equal(t, sql, out)
}

func TestVersionColumnIgnoresMultipleMatches(t *testing.T) {
	ic := rintercept.NewVersionColumnInterceptor("version")

	sql := `UPDATE "t" SET "version" = ? WHERE "version" = ? OR "version" = ?`
	args := []rvalue.Value{rvalue.I64(1), rvalue.I64(1), rvalue.I64(1)}

	out, outArgs, _, err := ic.Before(context.Background(), rintercept.OpExec, sql, args)
	require.NoError(t, err)
	assert.Equal(t, sql, out)
	assert.Equal(t, args, outArgs)
}

func TestVersionColumnIgnoresMissingColumn(t *testing.T) {
	ic := rintercept.NewVersionColumnInterceptor("version")

	sql := `UPDATE "t" SET "name" = ? WHERE "id" = ?`
	args := []rvalue.Value{rvalue.String("bob"), rvalue.I64(1)}

	out, outArgs, _, err := ic.Before(context.Background(), rintercept.OpExec, sql, args)
	require.NoError(t, err)
	assert.Equal(t, sql, out)
	assert.Equal(t, args, outArgs)
}
