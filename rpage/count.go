package rpage

import (
	"strings"

	"github.com/rbatis-go/rbatis/rerror"
)

// countQuery derives a `count(1)` variant of a base select: the projection
// list between the outermost SELECT and its matching FROM is replaced with
// "count(1) as count", and any outermost trailing ORDER BY is stripped, per
// the select_page contract. The scan is quote/paren-aware so it tolerates
// subselects and string literals containing the keywords it looks for.
func countQuery(sql string) (string, error) {
	selectStart, selectEnd, ok := findKeyword(sql, 0, "select")
	if !ok {
		return "", rerror.New(rerror.KindDecode, "rpage: base sql has no SELECT to paginate")
	}

	fromStart, _, ok := findTopLevelKeywordAfter(sql, selectEnd, "from", 0)
	if !ok {
		return "", rerror.New(rerror.KindDecode, "rpage: base sql has no top-level FROM matching its SELECT")
	}

	rest := sql[fromStart:]
	if orderStart, _, ok := findTopLevelKeywordAfter(rest, 0, "order", 0); ok {
		// "order" must additionally be followed by "by"; findTopLevelKeywordAfter
		// already anchors on word boundaries, so just trim from there.
		rest = rest[:orderStart]
	}

	var b strings.Builder
	b.WriteString(sql[:selectStart])
	b.WriteString("SELECT count(1) as count ")
	b.WriteString(strings.TrimSpace(rest))
	return b.String(), nil
}

// findKeyword finds the first case-insensitive whole-word occurrence of kw in
// sql starting at from, ignoring matches inside single-quoted literals and
// parenthesized groups. Returns the match's start/end byte offsets.
func findKeyword(sql string, from int, kw string) (start, end int, ok bool) {
	depth := 0
	i := from
	for i < len(sql) {
		c := sql[i]
		switch {
		case c == '\'':
			i = skipQuoted(sql, i)
			continue
		case c == '(':
			depth++
			i++
			continue
		case c == ')':
			depth--
			i++
			continue
		}

		if depth == 0 && matchesWord(sql, i, kw) {
			return i, i + len(kw), true
		}
		i++
	}
	return 0, 0, false
}

// findTopLevelKeywordAfter finds kw in sql starting at from, but only a match
// at the given paren depth (0 = top level relative to from) counts -
// anything inside a deeper subselect is skipped.
func findTopLevelKeywordAfter(sql string, from int, kw string, baseDepth int) (start, end int, ok bool) {
	depth := baseDepth
	i := from
	for i < len(sql) {
		c := sql[i]
		switch {
		case c == '\'':
			i = skipQuoted(sql, i)
			continue
		case c == '(':
			depth++
			i++
			continue
		case c == ')':
			depth--
			i++
			continue
		}

		if depth == baseDepth && matchesWord(sql, i, kw) {
			return i, i + len(kw), true
		}
		i++
	}
	return 0, 0, false
}

func matchesWord(sql string, i int, kw string) bool {
	if i+len(kw) > len(sql) {
		return false
	}
	if !strings.EqualFold(sql[i:i+len(kw)], kw) {
		return false
	}
	if i > 0 && isWordByte(sql[i-1]) {
		return false
	}
	if i+len(kw) < len(sql) && isWordByte(sql[i+len(kw)]) {
		return false
	}
	return true
}

func isWordByte(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func skipQuoted(sql string, start int) int {
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
