package rediscache

import "github.com/rbatis-go/rbatis/rvalue"

// jsonValue is a JSON-friendly mirror of rvalue.Value, since Value itself
// keeps its fields unexported to preserve its tagged-union invariants.
type jsonValue struct {
	Kind string      `json:"k"`
	Ext  string      `json:"e,omitempty"`
	B    bool        `json:"b,omitempty"`
	N    float64     `json:"n,omitempty"`
	S    string      `json:"s,omitempty"`
	Bin  []byte      `json:"bin,omitempty"`
	Arr  []jsonValue `json:"a,omitempty"`
	Map  []jsonKV    `json:"m,omitempty"`
}

type jsonKV struct {
	K jsonValue `json:"k"`
	V jsonValue `json:"v"`
}

func fromValue(v rvalue.Value) jsonValue {
	if tag, ok := v.ExtTag(); ok {
		inner := fromValue(v.Unwrap())
		inner.Ext = tag
		return inner
	}

	switch v.Kind() {
	case rvalue.KindNull:
		return jsonValue{Kind: "Null"}
	case rvalue.KindBool:
		b, _ := v.AsBool()
		return jsonValue{Kind: "Bool", B: b}
	case rvalue.KindString:
		s, _ := v.AsString()
		return jsonValue{Kind: "String", S: s}
	case rvalue.KindBinary:
		bin, _ := v.AsBinary()
		return jsonValue{Kind: "Binary", Bin: bin}
	case rvalue.KindArray:
		elems := v.Elements()
		out := make([]jsonValue, len(elems))
		for i, e := range elems {
			out[i] = fromValue(e)
		}
		return jsonValue{Kind: "Array", Arr: out}
	case rvalue.KindMap:
		kv := v.MapKV()
		out := make([]jsonKV, len(kv))
		for i, e := range kv {
			out[i] = jsonKV{K: fromValue(e.Key), V: fromValue(e.Val)}
		}
		return jsonValue{Kind: "Map", Map: out}
	default:
		f, _ := v.AsF64()
		return jsonValue{Kind: v.Kind().String(), N: f}
	}
}

func (j jsonValue) toValue() rvalue.Value {
	var v rvalue.Value
	switch j.Kind {
	case "Null":
		v = rvalue.Null
	case "Bool":
		v = rvalue.Bool(j.B)
	case "String":
		v = rvalue.String(j.S)
	case "Binary":
		v = rvalue.Binary(j.Bin)
	case "I32":
		v = rvalue.I32(int32(j.N))
	case "I64":
		v = rvalue.I64(int64(j.N))
	case "U32":
		v = rvalue.U32(uint32(j.N))
	case "U64":
		v = rvalue.U64(uint64(j.N))
	case "F32":
		v = rvalue.F32(float32(j.N))
	case "F64":
		v = rvalue.F64(j.N)
	case "Array":
		elems := make([]rvalue.Value, len(j.Arr))
		for i, e := range j.Arr {
			elems[i] = e.toValue()
		}
		v = rvalue.Array(elems...)
	case "Map":
		m := rvalue.NewMap()
		for _, e := range j.Map {
			m.Insert(e.K.toValue(), e.V.toValue())
		}
		v = m
	default:
		v = rvalue.Null
	}

	if j.Ext != "" {
		v = rvalue.Ext(j.Ext, v)
	}
	return v
}
