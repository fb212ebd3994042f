package rdialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Rewrite normalizes positional `?` markers in sql into dialect's native
// placeholder convention. `?` stays `?` for MySQL/SQLite, becomes `$1`,
// `$2`, ... for Postgres and `@p1`, `@p2`, ... for MSSQL.
//
// The scan correctly skips `?` occurring inside single-quoted string
// literals and `--`/`/* */` comments, and never rewrites a `?` immediately
// followed by an alphanumeric character, `|` or `&`, since that's reserved
// for driver-specific operators (e.g. Postgres's JSON `?|`/`?&` containment
// operators).
func Rewrite(sql string, dialect Dialect) (string, error) {
	if dialect == MySQL || dialect == SQLite {
		return sql, nil
	}

	var out strings.Builder
	out.Grow(len(sql) + 8)

	n := 0
	i := 0
	for i < len(sql) {
		c := sql[i]

		switch {
		case c == '\'':
			j := skipStringLiteral(sql, i)
			out.WriteString(sql[i:j])
			i = j
			continue
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			j := skipLineComment(sql, i)
			out.WriteString(sql[i:j])
			i = j
			continue
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			j, err := skipBlockComment(sql, i)
			if err != nil {
				return "", fmt.Errorf("rdialect: %w", err)
			}
			out.WriteString(sql[i:j])
			i = j
			continue
		case c == '?':
			if i+1 < len(sql) && isOperatorSuffix(sql[i+1]) {
				// Reserved for a driver operator, e.g. Postgres `?|`; leave untouched.
				out.WriteByte(c)
				i++
				continue
			}

			n++
			out.WriteString(placeholderFor(dialect, n))
			i++
			continue
		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String(), nil
}

func placeholderFor(dialect Dialect, n int) string {
	switch dialect {
	case Postgres:
		return "$" + strconv.Itoa(n)
	case MSSQL:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

// isOperatorSuffix reports whether c, following a `?`, makes it part of a
// driver operator (`?name`, Postgres's `?|` and `?&`) rather than a placeholder.
func isOperatorSuffix(c byte) bool {
	return isAlnum(c) || c == '|' || c == '&'
}

func skipStringLiteral(sql string, start int) int {
	i := start + 1
	for i < len(sql) {
		if sql[i] == '\'' {
			if i+1 < len(sql) && sql[i+1] == '\'' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

func skipLineComment(sql string, start int) int {
	i := start
	for i < len(sql) && sql[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(sql string, start int) (int, error) {
	end := strings.Index(sql[start+2:], "*/")
	if end < 0 {
		return 0, fmt.Errorf("unterminated block comment")
	}
	return start + 2 + end + 2, nil
}

// CountPlaceholders counts the `?` markers in sql that Rewrite would treat as
// bound-parameter positions (i.e. the same quote/comment/operator-aware
// scan), used by property tests asserting placeholder-count invariance.
func CountPlaceholders(sql string) int {
	n := 0
	i := 0
	for i < len(sql) {
		c := sql[i]
		switch {
		case c == '\'':
			i = skipStringLiteral(sql, i)
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			i = skipLineComment(sql, i)
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			j, err := skipBlockComment(sql, i)
			if err != nil {
				i++
				continue
			}
			i = j
		case c == '?':
			if i+1 < len(sql) && isOperatorSuffix(sql[i+1]) {
				i++
				continue
			}
			n++
			i++
		default:
			i++
		}
	}
	return n
}
