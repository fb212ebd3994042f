package rtemplate

import (
	"fmt"
	"strings"

	"github.com/rbatis-go/rbatis/rvalue"
)

// pysqlLine is one source line with its leading-whitespace width measured in
// columns, blank/comment lines already dropped.
type pysqlLine struct {
	indent int
	text   string // line with leading indentation stripped
}

// parsePySQL parses one indentation-based py-sql source into a node list.
// Structure is expressed purely through colon-terminated header lines and
// indentation, mirroring Python block syntax:
//
//	if <expr>:
//	for <item>[, <index>] in <expr>:
//	choose:
//	  when <expr>:
//	  otherwise:
//	trim prefix=<q> suffix=<q> prefixOverrides=<q> suffixOverrides=<q>:
//	where:
//	set:
//	bind <name> = <expr>:
//
// Every other non-blank line is literal SQL text (itself scanned for
// `#{}`/`${}` interpolation markers). A for header may carry `open=`,
// `close=`, `separator=` attributes the same way trim carries its own;
// a choose header takes no attributes.
func parsePySQL(source string, r *Registry) ([]node, error) {
	lines := pysqlLines(source)
	nodes, rest, err := parsePySQLBlock(lines, -1, r)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("pysql: unconsumed trailing content at line with text %q", rest[0].text)
	}
	return nodes, nil
}

func pysqlLines(source string) []pysqlLine {
	var out []pysqlLine
	for _, raw := range strings.Split(source, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimLeft(raw, " \t"), "#!") {
			continue // shebang-style comment line, ignored entirely
		}
		indent := 0
		for indent < len(raw) && (raw[indent] == ' ' || raw[indent] == '\t') {
			indent++
		}
		out = append(out, pysqlLine{indent: indent, text: raw[indent:]})
	}
	return out
}

// parsePySQLBlock consumes every line more indented than parentIndent,
// returning the produced nodes and the unconsumed remainder.
func parsePySQLBlock(lines []pysqlLine, parentIndent int, r *Registry) ([]node, []pysqlLine, error) {
	var out []node

	for len(lines) > 0 {
		ln := lines[0]
		if ln.indent <= parentIndent {
			break
		}

		n, rest, err := parsePySQLStatement(lines, r)
		if err != nil {
			return nil, nil, err
		}
		if n != nil {
			out = append(out, n)
		}
		lines = rest
	}

	return out, lines, nil
}

func parsePySQLStatement(lines []pysqlLine, r *Registry) (node, []pysqlLine, error) {
	ln := lines[0]
	rest := lines[1:]

	header := strings.TrimSuffix(strings.TrimSpace(ln.text), ":")
	isHeader := strings.HasSuffix(strings.TrimSpace(ln.text), ":") && looksLikeHeader(header)

	if !isHeader {
		nodes, err := parseInlineText(ln.text)
		if err != nil {
			return nil, nil, err
		}
		if len(nodes) == 0 {
			return nil, rest, nil
		}
		if len(nodes) == 1 {
			return nodes[0], rest, nil
		}
		return sequenceNode(nodes), rest, nil
	}

	fields := splitHeaderFields(header)
	kw := fields[0]

	body, afterBody, err := parsePySQLBlock(rest, ln.indent, r)
	if err != nil {
		return nil, nil, err
	}

	switch kw {
	case "if":
		test, err := rvalue.ParseExpr(strings.TrimSpace(header[len("if"):]))
		if err != nil {
			return nil, nil, fmt.Errorf("pysql: %w", err)
		}
		return ifNode{test: test, children: body}, afterBody, nil

	case "for":
		core, attrs := splitAttrsHeader(header)
		item, idx, collSrc, err := parseForHeader(core)
		if err != nil {
			return nil, nil, err
		}
		coll, err := rvalue.ParseExpr(collSrc)
		if err != nil {
			return nil, nil, fmt.Errorf("pysql: %w", err)
		}
		return foreachNode{
			collection: coll,
			item:       item,
			index:      idx,
			open:       attrs["open"],
			close:      attrs["close"],
			separator:  attrs["separator"],
			children:   body,
		}, afterBody, nil

	case "where":
		return newWhereNode(body), afterBody, nil

	case "set":
		return newSetNode(body), afterBody, nil

	case "trim":
		_, attrs := splitAttrsHeader(header)
		return trimNode{
			prefix:          attrs["prefix"],
			suffix:          attrs["suffix"],
			prefixOverrides: splitOverrides(attrs["prefixOverrides"]),
			suffixOverrides: splitOverrides(attrs["suffixOverrides"]),
			children:        body,
		}, afterBody, nil

	case "choose":
		n, err := parsePySQLChoose(body)
		return n, afterBody, err

	case "when":
		test, err := rvalue.ParseExpr(strings.TrimSpace(header[len("when"):]))
		if err != nil {
			return nil, nil, fmt.Errorf("pysql: %w", err)
		}
		return chooseBranchMarker{test: test, children: body}, afterBody, nil

	case "otherwise":
		return chooseBranchMarker{isOtherwise: true, children: body}, afterBody, nil

	case "bind":
		name, exprSrc, err := parseBindHeader(header)
		if err != nil {
			return nil, nil, err
		}
		expr, err := rvalue.ParseExpr(exprSrc)
		if err != nil {
			return nil, nil, fmt.Errorf("pysql: %w", err)
		}
		if len(body) != 0 {
			return nil, nil, fmt.Errorf("pysql: \"bind\" takes no indented body")
		}
		return bindVarNode{name: name, expr: expr}, afterBody, nil

	case "include":
		ref := strings.TrimSpace(header[len("include"):])
		return includeNode{ref: ref, registry: r}, afterBody, nil

	default:
		return nil, nil, fmt.Errorf("pysql: unrecognized block header %q", header)
	}
}

// parsePySQLChoose folds the chooseBranchMarker nodes produced by "when"/
// "otherwise" headers (themselves parsed as ordinary block statements by
// parsePySQLBlock) into a single chooseNode.
func parsePySQLChoose(rawChildren []node) (node, error) {
	n, ok := extractChooseBranches(rawChildren)
	if !ok {
		return nil, fmt.Errorf("pysql: \"choose\" body must contain only \"when\"/\"otherwise\" blocks")
	}
	return n, nil
}

// chooseBranchMarker is the node parsePySQLStatement produces for a
// when/otherwise header; parsePySQLChoose folds the markers of a choose body
// into a chooseNode via extractChooseBranches. A marker outside a choose
// body is not folded, and emitting it panics.
type chooseBranchMarker struct {
	isOtherwise bool
	test        *rvalue.Expr
	children    []node
}

func (chooseBranchMarker) emit(*renderState) {
	panic("rtemplate: chooseBranchMarker must be consumed by parsePySQLChoose, never rendered")
}

func extractChooseBranches(rawChildren []node) (node, bool) {
	var whens []whenNode
	var otherwise []node

	for _, n := range rawChildren {
		m, ok := n.(chooseBranchMarker)
		if !ok {
			return nil, false
		}
		if m.isOtherwise {
			otherwise = m.children
		} else {
			whens = append(whens, whenNode{test: m.test, children: m.children})
		}
	}

	return chooseNode{whens: whens, otherwise: otherwise}, true
}

func looksLikeHeader(header string) bool {
	kw := strings.Fields(header)
	if len(kw) == 0 {
		return false
	}
	switch kw[0] {
	case "if", "for", "where", "set", "trim", "choose", "when", "otherwise", "bind", "include":
		return true
	}
	return false
}

func splitHeaderFields(header string) []string {
	return strings.Fields(header)
}

// parseForHeader parses `for item[, index] in <expr>`.
func parseForHeader(header string) (item, index, collSrc string, err error) {
	rest := strings.TrimSpace(header[len("for"):])
	inIdx := strings.Index(rest, " in ")
	if inIdx < 0 {
		return "", "", "", fmt.Errorf("pysql: \"for\" header missing \" in \": %q", header)
	}

	binding := strings.TrimSpace(rest[:inIdx])
	collSrc = strings.TrimSpace(rest[inIdx+len(" in "):])

	if comma := strings.Index(binding, ","); comma >= 0 {
		item = strings.TrimSpace(binding[:comma])
		index = strings.TrimSpace(binding[comma+1:])
	} else {
		item = binding
	}

	return item, index, collSrc, nil
}

// parseBindHeader parses `bind name = <expr>`.
func parseBindHeader(header string) (name, exprSrc string, err error) {
	rest := strings.TrimSpace(header[len("bind"):])
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return "", "", fmt.Errorf("pysql: \"bind\" header missing \"=\": %q", header)
	}
	return strings.TrimSpace(rest[:eq]), strings.TrimSpace(rest[eq+1:]), nil
}

// splitAttrsHeader separates a block header into its non-attribute "core"
// (e.g. `for item in list`) and its trailing single-quoted `key='value'`
// attributes (e.g. `separator=','`), so "for"/"trim" headers can mix a
// collection/condition expression with MyBatis-style attributes on one line.
func splitAttrsHeader(header string) (core string, attrs map[string]string) {
	attrs = map[string]string{}

	coreEnd := len(header)
	i := 0
	for i < len(header) {
		for i < len(header) && header[i] == ' ' {
			i++
		}
		start := i
		for i < len(header) && header[i] != '=' && header[i] != ' ' {
			i++
		}
		if i < len(header) && header[i] == '=' {
			if coreEnd == len(header) {
				coreEnd = start
			}
			key := header[start:i]
			i++ // skip '='
			if i < len(header) && header[i] == '\'' {
				i++
				valStart := i
				for i < len(header) && header[i] != '\'' {
					i++
				}
				attrs[key] = header[valStart:i]
				i++ // skip closing quote
			}
		} else {
			i++
		}
	}

	return strings.TrimSpace(header[:coreEnd]), attrs
}

// sequenceNode groups multiple nodes parsed off one literal-text source line
// (e.g. a line mixing literal text with multiple `#{}` markers) into a single
// node slot so callers expecting one node per statement still work.
type sequenceNodeList []node

func (s sequenceNodeList) emit(rs *renderState) { emitAll(s, rs) }

func sequenceNode(nodes []node) node { return sequenceNodeList(nodes) }
