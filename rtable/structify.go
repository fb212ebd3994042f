// Package rtable turns decoded rows (map[string]rvalue.Value) into Go
// structs via reflection - part of C4's decode support. It holds no table
// descriptor, and the sync engine (rsync) does not use it.
package rtable

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/jmoiron/sqlx/reflectx"

	"github.com/rbatis-go/rbatis/rerror"
	"github.com/rbatis-go/rbatis/rvalue"
)

// fieldAssigner assigns one already-looked-up column Value into one field of
// a freshly allocated struct value.
type fieldAssigner func(dest reflect.Value, v rvalue.Value) error

type structField struct {
	index  []int
	column string
	assign fieldAssigner
}

// mappers caches one reflectx.Mapper per tag key; building a Mapper walks the
// whole type graph, so it's worth sharing across structifiers that use the
// same tagKey ("db", most commonly).
var mappers = map[string]*reflectx.Mapper{}

func mapperFor(tagKey string) *reflectx.Mapper {
	if m, ok := mappers[tagKey]; ok {
		return m
	}
	m := reflectx.NewMapper(tagKey)
	mappers[tagKey] = m
	return m
}

// MakeMapStructifier builds a closure that decodes a map[string]rvalue.Value
// row into a freshly allocated *t, keyed by the struct's tag-name (tagKey) per
// field. Field resolution (tag parsing, anonymous-embedding promotion) is
// delegated to reflectx.Mapper, the same name-mapping machinery sqlx uses for
// its StructScan; only the per-column Value->field assignment below is
// domain-specific. Unsupported field types panic at build time, not at
// decode time: build once, reuse per row. initer, if non-nil, runs against
// the fresh struct pointer before columns are applied, so its defaults can be
// overwritten by matching columns.
func MakeMapStructifier(t reflect.Type, tagKey string, initer func(any)) func(map[string]rvalue.Value) (any, error) {
	fields := buildFields(t, tagKey)

	return func(row map[string]rvalue.Value) (any, error) {
		out := reflect.New(t)

		if initer != nil {
			initer(out.Interface())
		}

		if err := applyFields(fields, out.Elem(), row); err != nil {
			return nil, err
		}

		return out.Interface(), nil
	}
}

func buildFields(t reflect.Type, tagKey string) []structField {
	sm := mapperFor(tagKey).TypeMap(t)

	out := make([]structField, 0, len(sm.Names))
	for name, fi := range sm.Names {
		if name == "" || fi.Field.PkgPath != "" {
			continue // blank name ("-") or unexported leaf: not addressable
		}
		out = append(out, structField{
			index:  fi.Index,
			column: name,
			assign: makeAssigner(fi.Field.Type),
		})
	}

	return out
}

func applyFields(fields []structField, dest reflect.Value, row map[string]rvalue.Value) error {
	for _, f := range fields {
		v, ok := row[f.column]
		if !ok {
			continue
		}

		target := dest.FieldByIndex(f.index)
		if err := f.assign(target, v); err != nil {
			return rerror.Wrap(rerror.KindDecode, err, fmt.Sprintf("can't decode column %q", f.column))
		}
	}

	return nil
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// makeAssigner builds the per-field assign closure once, at structifier
// build time; ft is the static field type, so the switch below only needs to
// run once per field, not once per row.
func makeAssigner(ft reflect.Type) fieldAssigner {
	if reflect.PointerTo(ft).Implements(textUnmarshalerType) {
		return func(dest reflect.Value, v rvalue.Value) error {
			s, _ := v.AsString()
			return dest.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
		}
	}

	if ft.Kind() == reflect.Ptr {
		elemAssign := makeAssigner(ft.Elem())
		return func(dest reflect.Value, v rvalue.Value) error {
			if v.IsNull() {
				return nil
			}
			p := reflect.New(ft.Elem())
			if err := elemAssign(p.Elem(), v); err != nil {
				return err
			}
			dest.Set(p)
			return nil
		}
	}

	switch ft.Kind() {
	case reflect.String:
		return func(dest reflect.Value, v rvalue.Value) error {
			s, _ := v.AsString()
			dest.SetString(s)
			return nil
		}
	case reflect.Bool:
		return func(dest reflect.Value, v rvalue.Value) error {
			b, ok := v.AsBool()
			if !ok {
				return fmt.Errorf("value %v can't coerce to bool", v)
			}
			dest.SetBool(b)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(dest reflect.Value, v rvalue.Value) error {
			n, ok := v.AsI64()
			if !ok {
				return fmt.Errorf("value %v can't coerce to integer", v)
			}
			if dest.OverflowInt(n) {
				return fmt.Errorf("value %d overflows %s", n, ft)
			}
			dest.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(dest reflect.Value, v rvalue.Value) error {
			n, ok := v.AsI64()
			if !ok {
				return fmt.Errorf("value %v can't coerce to integer", v)
			}
			if n < 0 {
				return fmt.Errorf("value %d is negative, can't assign to %s", n, ft)
			}
			u := uint64(n)
			if dest.OverflowUint(u) {
				return fmt.Errorf("value %d overflows %s", u, ft)
			}
			dest.SetUint(u)
			return nil
		}
	case reflect.Float32, reflect.Float64:
		return func(dest reflect.Value, v rvalue.Value) error {
			f, ok := v.AsF64()
			if !ok {
				return fmt.Errorf("value %v can't coerce to float", v)
			}
			if dest.OverflowFloat(f) {
				return fmt.Errorf("value %v overflows %s", f, ft)
			}
			dest.SetFloat(f)
			return nil
		}
	default:
		panic(fmt.Sprintf("rtable: unsupported struct field type %s", ft))
	}
}
