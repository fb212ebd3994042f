package rvalue

import (
	"strconv"
	"strings"
)

// AsBool implements the §4.1 as_bool coercion rule.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindI32, KindI64:
		return v.i != 0, true
	case KindU32, KindU64:
		return v.u != 0, true
	case KindF32, KindF64:
		return v.f != 0, true
	case KindString:
		switch v.s {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		default:
			return false, false
		}
	case KindExt:
		return v.ext.inner.AsBool()
	default:
		return false, false
	}
}

// AsI64 implements the §4.1 as_i64 coercion rule: integers widen losslessly,
// floats truncate toward zero, strings parse, Bool maps to 0/1, Ext unwraps.
func (v Value) AsI64() (int64, bool) {
	switch v.kind {
	case KindI32, KindI64:
		return v.i, true
	case KindU32, KindU64:
		return int64(v.u), true
	case KindF32, KindF64:
		return int64(v.f), true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			// Fall back to float parsing then truncate, so "3.9" still coerces like the
			// rest of the numeric pipeline expects (string parses to the left's numeric type).
			f, ferr := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case KindExt:
		return v.ext.inner.AsI64()
	default:
		return 0, false
	}
}

// AsF64 implements an as_f64 coercion analogous to as_i64 but widening to float64.
func (v Value) AsF64() (float64, bool) {
	switch v.kind {
	case KindF32, KindF64:
		return v.f, true
	case KindI32, KindI64:
		return float64(v.i), true
	case KindU32, KindU64:
		return float64(v.u), true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case KindExt:
		return v.ext.inner.AsF64()
	default:
		return 0, false
	}
}

// isNumeric reports whether the Kind is one of the primitive numeric variants.
func (k Kind) isNumeric() bool {
	switch k {
	case KindI32, KindI64, KindU32, KindU64, KindF32, KindF64:
		return true
	default:
		return false
	}
}

func (k Kind) isFloat() bool {
	return k == KindF32 || k == KindF64
}

// parseToKind parses a string to the numeric type named by kind, failing to 0 per §4.1
// ("a string is parsed to the left's numeric type, failing to 0").
func parseToKind(s string, kind Kind) Value {
	s = strings.TrimSpace(s)
	if kind.isFloat() {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			f = 0
		}
		if kind == KindF32 {
			return F32(float32(f))
		}
		return F64(f)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		n = 0
	}

	switch kind {
	case KindI32:
		return I32(int32(n))
	case KindU32:
		return U32(uint32(n))
	case KindU64:
		return U64(uint64(n))
	default:
		return I64(n)
	}
}

// numericOperand resolves the operand used on the right side of an arithmetic operator:
// if it's a string, parse it to the left operand's numeric kind (failing to 0); otherwise
// use it as-is. The left operand determines the result Kind.
func numericOperand(left, right Value) (leftF, rightF float64, resultKind Kind, bothInt bool) {
	left = left.Unwrap()
	right = right.Unwrap()

	resultKind = left.kind
	if !resultKind.isNumeric() {
		resultKind = KindF64
	}

	if right.kind == KindString {
		right = parseToKind(right.s, resultKind)
	}

	lf, _ := left.AsF64()
	rf, _ := right.AsF64()

	bothInt = !resultKind.isFloat() && !right.kind.isFloat()

	return lf, rf, resultKind, bothInt
}

func fromFloat(kind Kind, f float64) Value {
	switch kind {
	case KindI32:
		return I32(int32(f))
	case KindI64:
		return I64(int64(f))
	case KindU32:
		return U32(uint32(f))
	case KindU64:
		return U64(uint64(f))
	case KindF32:
		return F32(float32(f))
	default:
		return F64(f)
	}
}

// Add implements the `+` operator.
func (v Value) Add(other Value) Value {
	lf, rf, kind, _ := numericOperand(v, other)
	return fromFloat(kind, lf+rf)
}

// Sub implements the `-` operator.
func (v Value) Sub(other Value) Value {
	lf, rf, kind, _ := numericOperand(v, other)
	return fromFloat(kind, lf-rf)
}

// Mul implements the `*` operator.
func (v Value) Mul(other Value) Value {
	lf, rf, kind, _ := numericOperand(v, other)
	return fromFloat(kind, lf*rf)
}

// Div implements the `/` operator. Division by zero yields Null rather than trapping.
func (v Value) Div(other Value) Value {
	lf, rf, kind, _ := numericOperand(v, other)
	if rf == 0 {
		return Null
	}
	return fromFloat(kind, lf/rf)
}

// Mod implements the `%` operator. Modulo by zero yields Null.
func (v Value) Mod(other Value) Value {
	li, rok1 := v.AsI64()
	ri, rok2 := other.AsI64()
	if !rok1 || !rok2 || ri == 0 {
		return Null
	}
	return I64(li % ri)
}

// BitAnd implements the `&` operator.
func (v Value) BitAnd(other Value) Value {
	li, _ := v.AsI64()
	ri, _ := other.AsI64()
	return I64(li & ri)
}

// BitOr implements the `|` operator.
func (v Value) BitOr(other Value) Value {
	li, _ := v.AsI64()
	ri, _ := other.AsI64()
	return I64(li | ri)
}

// BitXor implements the `^` operator.
func (v Value) BitXor(other Value) Value {
	li, _ := v.AsI64()
	ri, _ := other.AsI64()
	return I64(li ^ ri)
}

// And implements the `&&` operator; non-boolean operands coerce via AsBool, failing to false.
func (v Value) And(other Value) Value {
	lb, _ := v.AsBool()
	rb, _ := other.AsBool()
	return Bool(lb && rb)
}

// Or implements the `||` operator.
func (v Value) Or(other Value) Value {
	lb, _ := v.AsBool()
	rb, _ := other.AsBool()
	return Bool(lb || rb)
}

// Not implements unary logical negation.
func (v Value) Not() Value {
	b, _ := v.AsBool()
	return Bool(!b)
}

// Equal implements the §4.1 equality rule: integer<->float compares as rationals,
// Null==Null, Null==anything-else is false, Ext unwraps on both sides.
func (v Value) Equal(other Value) bool {
	a := v.Unwrap()
	b := other.Unwrap()

	if a.kind == KindNull || b.kind == KindNull {
		return a.kind == KindNull && b.kind == KindNull
	}

	if a.kind.isNumeric() && b.kind.isNumeric() {
		af, _ := a.AsF64()
		bf, _ := b.AsF64()
		return af == bf
	}

	switch a.kind {
	case KindBool:
		if b.kind != KindBool {
			return false
		}
		return a.b == b.b
	case KindString:
		if b.kind != KindString {
			return false
		}
		return a.s == b.s
	case KindBinary:
		if b.kind != KindBinary {
			return false
		}
		return string(a.bin) == string(b.bin)
	case KindArray:
		if b.kind != KindArray || len(*a.arr) != len(*b.arr) {
			return false
		}
		for i := range *a.arr {
			if !(*a.arr)[i].Equal((*b.arr)[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if b.kind != KindMap || len(a.m.entries) != len(b.m.entries) {
			return false
		}
		for _, e := range a.m.entries {
			bv := b.Field(keyString(e.key))
			if !e.val.Equal(bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare returns -1, 0, 1 with ok=true for two numeric or two string operands, and
// 0 with ok=false for any other pairing, Null included (so >, <, >=, <= evaluate to false).
func (v Value) Compare(other Value) (int, bool) {
	a := v.Unwrap()
	b := other.Unwrap()

	if a.kind.isNumeric() && b.kind.isNumeric() {
		af, _ := a.AsF64()
		bf, _ := b.AsF64()
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	if a.kind == KindString && b.kind == KindString {
		return strings.Compare(a.s, b.s), true
	}

	return 0, false
}

// Contains implements the `contains` string predicate; defined only when v is String.
func (v Value) Contains(sub Value) bool {
	if v.kind != KindString {
		return false
	}
	s, ok := sub.AsString()
	return ok && strings.Contains(v.s, s)
}

// StartsWith implements the `starts_with` string predicate.
func (v Value) StartsWith(prefix Value) bool {
	if v.kind != KindString {
		return false
	}
	s, ok := prefix.AsString()
	return ok && strings.HasPrefix(v.s, s)
}

// EndsWith implements the `ends_with` string predicate.
func (v Value) EndsWith(suffix Value) bool {
	if v.kind != KindString {
		return false
	}
	s, ok := suffix.AsString()
	return ok && strings.HasSuffix(v.s, s)
}
