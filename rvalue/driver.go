package rvalue

import (
	"database/sql/driver"
	"fmt"
)

// Value implements database/sql/driver.Valuer so a Value can be passed
// directly as a query argument to database/sql: Null maps to a nil driver
// value, primitives map to their natural driver.Value counterpart, Ext
// unwraps to its inner rendering, and Array/Map - which have no driver
// representation - render as their canonical string form rather than erroring,
// since a template can still bind one into a JSON/text column.
func (v Value) Value() (driver.Value, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.b, nil
	case KindI32, KindI64:
		return v.i, nil
	case KindU32, KindU64:
		return int64(v.u), nil
	case KindF32, KindF64:
		return v.f, nil
	case KindString:
		return v.s, nil
	case KindBinary:
		return v.bin, nil
	case KindExt:
		return v.ext.inner.Value()
	default:
		return fmt.Sprintf("%v", v), nil
	}
}
