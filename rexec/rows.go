// Package rexec is the executor hierarchy (Pool/Conn/Tx/GuardedTx) that runs
// rendered SQL against a live driver connection and decodes the resulting
// rows back into rvalue.Value / Go values - the Executor Hierarchy (C4) of
// the pipeline.
package rexec

import (
	"database/sql"
	"reflect"

	"github.com/rbatis-go/rbatis/rerror"
	"github.com/rbatis-go/rbatis/rvalue"
)

// ExecResult carries the outcome of a non-query statement.
type ExecResult struct {
	RowsAffected int64
	LastInsertID int64
}

// scanRows drains rows into a slice of ordered-map Values, one per row, using
// each row's own column names as keys. Mirrors sqlx's generic scan-into-map
// behavior but produces rvalue.Value directly instead of interface{}.
func scanRows(rows *sql.Rows) ([]rvalue.Value, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, rerror.Wrap(rerror.KindDriver, err, "can't read result columns")
	}

	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	var out []rvalue.Value
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, rerror.Wrap(rerror.KindDriver, err, "can't scan row")
		}

		row := rvalue.NewMap()
		for i, col := range cols {
			row.Insert(rvalue.String(col), rvalue.From(normalizeScanValue(dest[i])))
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, rerror.Wrap(rerror.KindDriver, err, "error iterating result rows")
	}

	return out, nil
}

// normalizeScanValue unwraps the []byte representation database/sql uses for
// driver-untyped columns (notably with sqlite/mysql TEXT columns) into a
// plain string, since callers expect Value.KindString, not KindBinary, for
// textual columns.
func normalizeScanValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// DecodeRows decodes every row returned by an Executor.Query call into a
// newly allocated slice of T, for callers (such as rpage) that need typed
// records rather than raw rvalue.Value rows.
func DecodeRows[T any](rows []rvalue.Value) ([]T, error) {
	return decodeSequence[T](rows)
}

// decodeSequence decodes every row of rows into a newly allocated slice of T,
// the many-rows branch of the decode rules.
func decodeSequence[T any](rows []rvalue.Value) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := decodeOne(row, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeOne decodes one row into dest, choosing primitive/extension
// single-cell decode vs. struct-like decode based on dest's type.
func decodeOne(row rvalue.Value, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return rerror.Wrap(rerror.KindDecode, rerror.ErrDecodeColumnMismatch, "decode target must be a non-nil pointer")
	}

	elem := rv.Elem()

	if elem.Type() == reflect.TypeOf(rvalue.Value{}) {
		kv := row.MapKV()
		if len(kv) != 1 {
			return rerror.DecodeColumnMismatch()
		}
		elem.Set(reflect.ValueOf(kv[0].Val))
		return nil
	}

	switch elem.Kind() {
	case reflect.Struct, reflect.Map:
		return decodeStructLike(row, dest)
	default:
		kv := row.MapKV()
		if len(kv) != 1 {
			return rerror.DecodeColumnMismatch()
		}
		return assignScalar(kv[0].Val, elem)
	}
}

func assignScalar(v rvalue.Value, elem reflect.Value) error {
	switch elem.Kind() {
	case reflect.String:
		s, _ := v.AsString()
		elem.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := v.AsI64()
		elem.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := v.AsI64()
		elem.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, _ := v.AsF64()
		elem.SetFloat(f)
	case reflect.Bool:
		b, _ := v.AsBool()
		elem.SetBool(b)
	default:
		elem.Set(reflect.ValueOf(v))
	}
	return nil
}
