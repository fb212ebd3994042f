package rvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalStr(t *testing.T, src string, ctx Context) Value {
	t.Helper()
	e, err := ParseExpr(src)
	require.NoError(t, err)
	return e.Eval(ctx)
}

func TestExprLiterals(t *testing.T) {
	assert.Equal(t, I64(42), evalStr(t, "42", nil))
	assert.Equal(t, F64(1.5), evalStr(t, "1.5", nil))
	assert.Equal(t, String("a'b"), evalStr(t, "'a''b'", nil))
	assert.Equal(t, Null, evalStr(t, "null", nil))
	assert.Equal(t, Bool(true), evalStr(t, "true", nil))
}

func TestExprArithmeticPrecedence(t *testing.T) {
	assert.Equal(t, I64(14), evalStr(t, "2 + 3 * 4", nil))
	assert.Equal(t, I64(20), evalStr(t, "(2 + 3) * 4", nil))
}

func TestExprComparisonAndLogical(t *testing.T) {
	assert.Equal(t, Bool(true), evalStr(t, "1 < 2 && 2 < 3", nil))
	assert.Equal(t, Bool(false), evalStr(t, "1 > 2 || 3 < 2", nil))
	assert.Equal(t, Bool(true), evalStr(t, "1 == 1.0", nil))
}

func TestExprFieldAndIndex(t *testing.T) {
	root := MapOf(
		[2]Value{String("name"), String("alice")},
		[2]Value{String("xs"), Array(I64(1), I64(2), I64(3))},
	)

	assert.Equal(t, String("alice"), evalStr(t, "name", root))
	assert.Equal(t, I64(2), evalStr(t, "xs[1]", root))
}

func TestExprMethodCall(t *testing.T) {
	root := MapOf([2]Value{String("name"), String("alice")})
	assert.Equal(t, Bool(true), evalStr(t, "name.contains('li')", root))
	assert.Equal(t, Bool(true), evalStr(t, "name.starts_with('al')", root))
}

func TestExprUnboundIdentifierYieldsNull(t *testing.T) {
	assert.Equal(t, Null, evalStr(t, "nope", MapOf()))
}

func TestExprInvalidSyntaxFailsAtParseTime(t *testing.T) {
	_, err := ParseExpr("1 +")
	assert.Error(t, err)

	_, err = ParseExpr("(1 + 2")
	assert.Error(t, err)
}

func TestExprUnaryNegation(t *testing.T) {
	assert.Equal(t, I64(-5), evalStr(t, "-5", nil))
	assert.Equal(t, Bool(false), evalStr(t, "!true", nil))
}
