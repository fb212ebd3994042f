package rvalue

import (
	"encoding"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// From builds a Value from an arbitrary Go value using reflection. It is how
// application structs, maps and slices enter the template/expression runtime
// as the root argument. Structs are walked using the "db" field tag (falling
// back to the Go field name), the same convention the teacher's ColumnMap
// uses for statement building, so one struct tag drives both CRUD statement
// generation and template argument binding.
func From(x any) Value {
	if x == nil {
		return Null
	}

	if v, ok := x.(Value); ok {
		return v
	}

	switch t := x.(type) {
	case time.Time:
		return Ext(ExtDateTime, String(t.Format(time.RFC3339Nano)))
	case uuid.UUID:
		return Ext(ExtUUID, String(t.String()))
	case []byte:
		return Binary(t)
	}

	rv := reflect.ValueOf(x)
	return fromReflect(rv)
}

func fromReflect(rv reflect.Value) Value {
	if !rv.IsValid() {
		return Null
	}

	if tm, ok := rv.Interface().(encoding.TextMarshaler); ok {
		if text, err := tm.MarshalText(); err == nil {
			return String(string(text))
		}
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		return fromReflect(rv.Elem())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return I32(int32(rv.Int()))
	case reflect.Int64:
		return I64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return U32(uint32(rv.Uint()))
	case reflect.Uint64:
		return U64(rv.Uint())
	case reflect.Float32:
		return F32(float32(rv.Float()))
	case reflect.Float64:
		return F64(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Binary(append([]byte(nil), rv.Bytes()...))
		}

		n := rv.Len()
		elems := make([]Value, n)
		for i := 0; i < n; i++ {
			elems[i] = fromReflect(rv.Index(i))
		}
		return Array(elems...)
	case reflect.Map:
		m := NewMap()
		for _, key := range rv.MapKeys() {
			m.Insert(fromReflect(key), fromReflect(rv.MapIndex(key)))
		}
		return m
	case reflect.Struct:
		return structToMap(rv)
	default:
		return Null
	}
}

func structToMap(rv reflect.Value) Value {
	m := NewMap()
	t := rv.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" && !field.Anonymous {
			continue // unexported
		}

		name, skip := fieldTagName(field)
		if skip {
			continue
		}

		fv := rv.Field(i)

		if field.Anonymous && name == "" {
			embedded := fromReflect(fv)
			for _, kv := range embedded.MapKV() {
				m.Insert(kv.Key, kv.Val)
			}
			continue
		}

		if name == "" {
			name = field.Name
		}

		m.Insert(String(name), fromReflect(fv))
	}

	return m
}

func fieldTagName(field reflect.StructField) (name string, skip bool) {
	tag, ok := field.Tag.Lookup("db")
	if !ok {
		return "", false
	}

	if tag == "-" {
		return "", true
	}

	return tag, false
}
