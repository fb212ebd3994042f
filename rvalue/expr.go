package rvalue

import (
	"fmt"
)

// Context resolves identifiers during expression evaluation. A bare Value
// satisfies Context by treating itself as the lookup root (Field access),
// which is enough for a template with no nested scopes; rtemplate provides a
// layered Context for Foreach/Bind scoping.
type Context interface {
	Lookup(name string) Value
}

// Lookup implements Context for a plain Value root.
func (v Value) Lookup(name string) Value {
	return v.Field(name)
}

// Expr is a parsed, re-entrant, side-effect-free expression ready to evaluate
// against any Context. Parsing happens once at template-compile time;
// evaluation happens on every render.
type Expr struct {
	root exprNode
	src  string
}

// ParseExpr parses expression text once. This is the only operation that can
// fail - a syntactically invalid expression is a compile-time error; a
// type error or unbound identifier surfaces as Null at evaluation time
// instead of failing.
func ParseExpr(src string) (*Expr, error) {
	p := &parser{lex: newLexer(src), src: src}
	p.advance()

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("rvalue: unexpected token %q in expression %q", p.tok.text, src)
	}

	return &Expr{root: node, src: src}, nil
}

// MustParseExpr parses src and panics on a syntax error; intended for
// expressions baked into the source rather than user/template input.
func MustParseExpr(src string) *Expr {
	e, err := ParseExpr(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Eval evaluates the expression against ctx. Type errors and unbound names
// resolve to Null rather than failing, per the documented failure model.
func (e *Expr) Eval(ctx Context) Value {
	return e.root.eval(ctx)
}

// String returns the original expression source.
func (e *Expr) String() string {
	return e.src
}

// EvalBool is a convenience used by templates evaluating a boolean test
// expression (If/When), coercing the result via AsBool, failing to false.
func EvalBool(e *Expr, ctx Context) bool {
	b, _ := e.Eval(ctx).AsBool()
	return b
}

// ---- AST ----

type exprNode interface {
	eval(ctx Context) Value
}

type litNode struct{ v Value }

func (n litNode) eval(Context) Value { return n.v }

type identNode struct{ name string }

func (n identNode) eval(ctx Context) Value {
	if ctx == nil {
		return Null
	}
	return ctx.Lookup(n.name)
}

type fieldNode struct {
	recv exprNode
	name string
}

func (n fieldNode) eval(ctx Context) Value {
	return n.recv.eval(ctx).Field(n.name)
}

type indexNode struct {
	recv, idx exprNode
}

func (n indexNode) eval(ctx Context) Value {
	recv := n.recv.eval(ctx)
	idx := n.idx.eval(ctx)

	if recv.kind == KindMap {
		if s, ok := idx.AsString(); ok {
			return recv.Field(s)
		}
		return Null
	}

	if i, ok := idx.AsI64(); ok {
		return recv.Index(int(i))
	}

	return Null
}

type methodCallNode struct {
	recv exprNode
	name string
	args []exprNode
}

func (n methodCallNode) eval(ctx Context) Value {
	recv := n.recv.eval(ctx)
	args := make([]Value, len(n.args))
	for i, a := range n.args {
		args[i] = a.eval(ctx)
	}

	switch n.name {
	case "contains":
		if len(args) != 1 {
			return Null
		}
		return Bool(recv.Contains(args[0]))
	case "starts_with":
		if len(args) != 1 {
			return Null
		}
		return Bool(recv.StartsWith(args[0]))
	case "ends_with":
		if len(args) != 1 {
			return Null
		}
		return Bool(recv.EndsWith(args[0]))
	case "len":
		return I64(int64(recv.Len()))
	case "is_empty":
		if recv.kind == KindString {
			return Bool(recv.s == "")
		}
		return Bool(recv.Len() == 0)
	default:
		return Null
	}
}

type unaryNode struct {
	op   byte // '!' or '-'
	expr exprNode
}

func (n unaryNode) eval(ctx Context) Value {
	v := n.expr.eval(ctx)
	switch n.op {
	case '!':
		return v.Not()
	case '-':
		u := v.Unwrap()
		kind := u.kind
		if !kind.isNumeric() {
			kind = KindF64
		}
		f, _ := u.AsF64()
		return fromFloat(kind, -f)
	default:
		return Null
	}
}

type binOp int

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
	opMod
	opBitAnd
	opBitOr
	opBitXor
	opLt
	opLe
	opGt
	opGe
	opEq
	opNe
	opAnd
	opOr
)

type binNode struct {
	op          binOp
	left, right exprNode
}

func (n binNode) eval(ctx Context) Value {
	// Short-circuit logical operators without evaluating the right side eagerly.
	if n.op == opAnd {
		l := n.left.eval(ctx)
		if lb, _ := l.AsBool(); !lb {
			return Bool(false)
		}
		return n.right.eval(ctx).And(Bool(true))
	}
	if n.op == opOr {
		l := n.left.eval(ctx)
		if lb, _ := l.AsBool(); lb {
			return Bool(true)
		}
		return n.right.eval(ctx).Or(Bool(false))
	}

	l := n.left.eval(ctx)
	r := n.right.eval(ctx)

	switch n.op {
	case opAdd:
		return l.Add(r)
	case opSub:
		return l.Sub(r)
	case opMul:
		return l.Mul(r)
	case opDiv:
		return l.Div(r)
	case opMod:
		return l.Mod(r)
	case opBitAnd:
		return l.BitAnd(r)
	case opBitOr:
		return l.BitOr(r)
	case opBitXor:
		return l.BitXor(r)
	case opEq:
		return Bool(l.Equal(r))
	case opNe:
		return Bool(!l.Equal(r))
	case opLt, opLe, opGt, opGe:
		c, ok := l.Compare(r)
		if !ok {
			return Bool(false)
		}
		switch n.op {
		case opLt:
			return Bool(c < 0)
		case opLe:
			return Bool(c <= 0)
		case opGt:
			return Bool(c > 0)
		default:
			return Bool(c >= 0)
		}
	default:
		return Null
	}
}
