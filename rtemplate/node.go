// Package rtemplate compiles the XML-tag and py-sql surface syntaxes into a
// common Node AST, then packs that AST into a closure producing (sql, args)
// for a given root argument - the template compiler (C2) of the pipeline.
package rtemplate

import (
	"strings"

	"github.com/rbatis-go/rbatis/rvalue"
)

// node is one step of the lowered emit closure. Parsing happens once at
// template-compile time; emit is re-entrant and side-effect-free beyond
// appending to the renderState passed in.
type node interface {
	emit(rs *renderState)
}

// renderState accumulates the SQL text and bound args for one render call
// (or for a Trim child scratch buffer, which gets spliced into its parent).
type renderState struct {
	sql   strings.Builder
	args  []rvalue.Value
	scope *Scope
}

func emitAll(nodes []node, rs *renderState) {
	for _, n := range nodes {
		n.emit(rs)
	}
}

// literalNode is a verbatim SQL chunk.
type literalNode struct{ text string }

func (n literalNode) emit(rs *renderState) { rs.sql.WriteString(n.text) }

// bindParamNode is `#{expr}`: evaluate, append a `?` placeholder, push the value.
type bindParamNode struct{ expr *rvalue.Expr }

func (n bindParamNode) emit(rs *renderState) {
	rs.sql.WriteByte('?')
	rs.args = append(rs.args, n.expr.Eval(rs.scope))
}

// inlineNode is `${expr}`: evaluate, coerce via sql() and inline directly into the SQL text.
type inlineNode struct{ expr *rvalue.Expr }

func (n inlineNode) emit(rs *renderState) {
	rs.sql.WriteString(sqlInline(n.expr.Eval(rs.scope)))
}

// ifNode renders its children only when test evaluates truthy.
type ifNode struct {
	test     *rvalue.Expr
	children []node
}

func (n ifNode) emit(rs *renderState) {
	if rvalue.EvalBool(n.test, rs.scope) {
		emitAll(n.children, rs)
	}
}

// trimNode renders children into a scratch buffer, strips any of
// prefixOverrides from the left and suffixOverrides from the right
// (case-insensitively, against the rendered leading/trailing token), then
// wraps the remainder in prefix/suffix. An empty result after stripping
// emits nothing at all - not even prefix/suffix - so a Where with no true
// branches contributes no " WHERE" to the statement.
type trimNode struct {
	prefix, suffix                   string
	prefixOverrides, suffixOverrides []string
	children                         []node
}

func (n trimNode) emit(rs *renderState) {
	scratch := renderState{scope: rs.scope}
	emitAll(n.children, &scratch)

	body := scratch.sql.String()
	body = trimLeft(body, n.prefixOverrides)
	body = trimRight(body, n.suffixOverrides)

	if strings.TrimSpace(body) == "" {
		return
	}

	rs.sql.WriteString(n.prefix)
	rs.sql.WriteString(body)
	rs.sql.WriteString(n.suffix)
	rs.args = append(rs.args, scratch.args...)
}

// newWhereNode builds the `<where>` tag as Trim{prefix:" WHERE ", prefixOverrides:"AND |OR "}.
func newWhereNode(children []node) trimNode {
	return trimNode{
		prefix:          " WHERE ",
		prefixOverrides: []string{"AND ", "OR "},
		children:        children,
	}
}

// newSetNode builds the `<set>` tag as Trim{prefix:" SET ", suffixOverrides:","}.
func newSetNode(children []node) trimNode {
	return trimNode{
		prefix:          " SET ",
		suffixOverrides: []string{","},
		children:        children,
	}
}

// foreachNode iterates an Array or Map collection, binding item (and index -
// zero-based for arrays, the map key for maps) in a child scope per
// iteration. An empty collection emits nothing, not even open/close.
type foreachNode struct {
	collection            *rvalue.Expr
	item, index           string
	open, close, separator string
	children              []node
}

type foreachElem struct {
	idx rvalue.Value
	val rvalue.Value
}

func (n foreachNode) emit(rs *renderState) {
	coll := n.collection.Eval(rs.scope)

	var items []foreachElem
	switch coll.Kind() {
	case rvalue.KindArray:
		for i, v := range coll.Elements() {
			items = append(items, foreachElem{idx: rvalue.I64(int64(i)), val: v})
		}
	case rvalue.KindMap:
		for _, kv := range coll.MapKV() {
			items = append(items, foreachElem{idx: kv.Key, val: kv.Val})
		}
	default:
		return
	}

	if len(items) == 0 {
		return
	}

	rs.sql.WriteString(n.open)

	for i, it := range items {
		if i > 0 {
			rs.sql.WriteString(n.separator)
		}

		child := rs.scope.Child()
		if n.item != "" {
			child.Bind(n.item, it.val)
		}
		if n.index != "" {
			child.Bind(n.index, it.idx)
		}

		childRS := renderState{scope: child}
		emitAll(n.children, &childRS)

		rs.sql.WriteString(childRS.sql.String())
		rs.args = append(rs.args, childRS.args...)
	}

	rs.sql.WriteString(n.close)
}

// whenNode is one `<when>` branch of a Choose.
type whenNode struct {
	test     *rvalue.Expr
	children []node
}

// chooseNode evaluates when-branches in order, first-match-wins (the XML
// rule, adopted for py-sql too per the resolved Open Question), falling
// back to otherwise if none matched.
type chooseNode struct {
	whens     []whenNode
	otherwise []node
}

func (n chooseNode) emit(rs *renderState) {
	for _, w := range n.whens {
		if rvalue.EvalBool(w.test, rs.scope) {
			emitAll(w.children, rs)
			return
		}
	}
	emitAll(n.otherwise, rs)
}

// bindVarNode is the `<bind>` tag: evaluate expr and assign to name in the
// current innermost scope frame for the remainder of rendering.
type bindVarNode struct {
	name string
	expr *rvalue.Expr
}

func (n bindVarNode) emit(rs *renderState) {
	rs.scope.Bind(n.name, n.expr.Eval(rs.scope))
}

// includeNode splices another template's top-level nodes in by id, resolved
// lazily against the compiling Registry so forward references within one
// mapper file work.
type includeNode struct {
	ref      string
	registry *Registry
}

func (n includeNode) emit(rs *renderState) {
	frag, ok := n.registry.fragment(n.ref)
	if !ok {
		return
	}
	emitAll(frag, rs)
}
