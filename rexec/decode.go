package rexec

import (
	"reflect"
	"sync"

	"github.com/rbatis-go/rbatis/rerror"
	"github.com/rbatis-go/rbatis/rtable"
	"github.com/rbatis-go/rbatis/rvalue"
)

// structifierTag is the struct tag key used to map row columns to struct
// fields throughout the runtime, matching the teacher's "db" convention.
const structifierTag = "db"

var structifierCache sync.Map // map[reflect.Type]func(map[string]rvalue.Value) (any, error)

func structifierFor(t reflect.Type) func(map[string]rvalue.Value) (any, error) {
	if cached, ok := structifierCache.Load(t); ok {
		return cached.(func(map[string]rvalue.Value) (any, error))
	}

	ms := rtable.MakeMapStructifier(t, structifierTag, nil)
	structifierCache.Store(t, ms)
	return ms
}

// decodeStructLike decodes one row into a struct or map destination, keyed
// by each field's `db` tag.
func decodeStructLike(row rvalue.Value, dest any) error {
	rv := reflect.ValueOf(dest).Elem()

	asMap := make(map[string]rvalue.Value, row.Len())
	for _, kv := range row.MapKV() {
		key, _ := kv.Key.AsString()
		asMap[key] = kv.Val
	}

	if rv.Kind() == reflect.Map {
		if rv.IsNil() {
			rv.Set(reflect.MakeMapWithSize(rv.Type(), len(asMap)))
		}
		for k, v := range asMap {
			rv.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(v))
		}
		return nil
	}

	structified, err := structifierFor(rv.Type())(asMap)
	if err != nil {
		return rerror.Wrap(rerror.KindDecode, err, "can't decode row into struct")
	}

	rv.Set(reflect.ValueOf(structified).Elem())
	return nil
}
