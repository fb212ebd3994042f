package rtemplate

import (
	"strings"

	"github.com/rbatis-go/rbatis/rvalue"
)

// sqlInline implements the `${...}` inline-interpolation coercion rule:
// Array renders as `(e1, e2, ...)` with strings single-quoted and embedded
// single quotes doubled; Map renders as space-separated `k 'v'` pairs (used
// to expose column names); primitives render canonically; Null renders as
// the `null` literal.
func sqlInline(v rvalue.Value) string {
	switch v.Kind() {
	case rvalue.KindNull:
		return "null"
	case rvalue.KindString:
		return quoteSQLString(v.AsStringOr(""))
	case rvalue.KindArray:
		elems := v.Elements()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = sqlScalar(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case rvalue.KindMap:
		kv := v.MapKV()
		parts := make([]string, len(kv))
		for i, p := range kv {
			parts[i] = p.Key.AsStringOr("") + " " + quoteSQLString(p.Val.AsStringOr(""))
		}
		return strings.Join(parts, " ")
	case rvalue.KindExt:
		return sqlInline(v.Unwrap())
	default:
		return v.AsStringOr("")
	}
}

// sqlScalar renders one element of an inlined array: strings are quoted,
// everything else renders canonically.
func sqlScalar(v rvalue.Value) string {
	if v.Kind() == rvalue.KindString {
		return quoteSQLString(v.AsStringOr(""))
	}
	if v.Kind() == rvalue.KindNull {
		return "null"
	}
	return v.AsStringOr("")
}

func quoteSQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// trimLeft strips the first matching pipe-delimited token (matched
// case-insensitively against the rendered leading token) from the left of
// body, along with the whitespace it leads into.
func trimLeft(body string, overrides []string) string {
	trimmed := strings.TrimLeft(body, " \t\n")

	for _, tok := range overrides {
		if tok == "" {
			continue
		}
		if len(trimmed) >= len(tok) && strings.EqualFold(trimmed[:len(tok)], tok) {
			return trimmed[len(tok):]
		}
	}

	return body
}

// trimRight strips the first matching pipe-delimited token from the right of body.
func trimRight(body string, overrides []string) string {
	trimmed := strings.TrimRight(body, " \t\n")

	for _, tok := range overrides {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if len(trimmed) >= len(tok) && strings.EqualFold(trimmed[len(trimmed)-len(tok):], tok) {
			return trimmed[:len(trimmed)-len(tok)]
		}
	}

	return body
}

// splitOverrides parses a `|`-delimited override attribute, e.g. "AND |OR ".
func splitOverrides(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}
