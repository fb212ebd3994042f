// Package rsync is Table Sync (C8): given a sample record, it introspects
// the record's fields and brings a table's schema up to date with
// CREATE TABLE / ADD COLUMN statements, tolerating "already exists" /
// "duplicate column" errors from the driver so repeated calls are
// idempotent - grounded on the teacher's database/schema.go
// AutoUpgradeSchema, generalized from fixed .sql-file upgrade steps to a
// record-driven column diff with no migration file set.
package rsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/rbatis-go/rbatis/rerror"
	"github.com/rbatis-go/rbatis/rexec"
	"github.com/rbatis-go/rbatis/rvalue"
)

// ColumnMapper maps one field's runtime Value to its driver-specific column
// type, e.g. KindString -> "TEXT", KindI64 -> "BIGINT", KindBinary -> "BLOB",
// and extension-tagged values (Uuid, DateTime, ...) to their canonical
// storage type.
type ColumnMapper func(dialect rdialect.Dialect, field string, v rvalue.Value) string

// Sync introspects sampleRecord's fields (an rvalue.Value of KindMap, as
// produced by rvalue.From on a tagged struct) and brings tableName's schema
// in conn up to date: CREATE TABLE if missing, ADD COLUMN for any field the
// table doesn't yet carry. Safe to call repeatedly.
func Sync(ctx context.Context, ex rexec.Executor, mapper ColumnMapper, sampleRecord rvalue.Value, tableName string) error {
	if sampleRecord.Kind() != rvalue.KindMap {
		return rerror.New(rerror.KindDecode, "rsync: sample record must be a struct/map value")
	}

	fields := sampleRecord.MapKV()
	if len(fields) == 0 {
		return rerror.New(rerror.KindDecode, "rsync: sample record has no fields")
	}

	if err := createTable(ctx, ex, mapper, fields, tableName); err != nil {
		return err
	}

	for _, kv := range fields {
		name, _ := kv.Key.AsString()
		colType := mapper(ex.Dialect(), name, kv.Val)

		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", tableName, name, colType)
		if _, err := ex.Exec(ctx, stmt, nil); err != nil {
			if isDuplicateColumn(err) {
				continue
			}
			return rerror.Wrap(rerror.KindDriver, err, "rsync: can't add column "+name)
		}
	}

	return nil
}

func createTable(ctx context.Context, ex rexec.Executor, mapper ColumnMapper, fields []struct{ Key, Val rvalue.Value }, tableName string) error {
	cols := make([]string, 0, len(fields))
	for _, kv := range fields {
		name, _ := kv.Key.AsString()
		cols = append(cols, fmt.Sprintf("%s %s", name, mapper(ex.Dialect(), name, kv.Val)))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", tableName, strings.Join(cols, ", "))
	if _, err := ex.Exec(ctx, stmt, nil); err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return rerror.Wrap(rerror.KindDriver, err, "rsync: can't create table "+tableName)
	}

	return nil
}

// isAlreadyExists and isDuplicateColumn are driver-message heuristics, not a
// structured error code, since database/sql exposes no portable SQLSTATE
// across mysql/lib/pq/sqlite/mssql - the same limitation the teacher accepts
// in database/schema.go by matching on sql.ErrNoRows rather than a richer
// error taxonomy.
func isAlreadyExists(err error) bool {
	return containsAny(err, "already exists", "duplicate table", "table ... already exists")
}

func isDuplicateColumn(err error) bool {
	return containsAny(err, "duplicate column", "already exists")
}

func containsAny(err error, substrs ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range substrs {
		if strings.Contains(msg, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// DefaultColumnMapper maps rvalue Kinds to portable ANSI-ish column types.
// Callers targeting one specific driver (e.g. Postgres's native UUID/JSONB
// types) are expected to supply their own ColumnMapper instead.
func DefaultColumnMapper(_ rdialect.Dialect, _ string, v rvalue.Value) string {
	if tag, ok := v.ExtTag(); ok {
		switch tag {
		case "Uuid":
			return "CHAR(36)"
		case "Json":
			return "TEXT"
		case "DateTime", "Timestamp":
			return "TIMESTAMP"
		case "Date":
			return "DATE"
		case "Time":
			return "TIME"
		case "Decimal":
			return "DECIMAL(38,10)"
		}
	}

	switch v.Kind() {
	case rvalue.KindBool:
		return "BOOLEAN"
	case rvalue.KindI32, rvalue.KindU32:
		return "INT"
	case rvalue.KindI64, rvalue.KindU64:
		return "BIGINT"
	case rvalue.KindF32:
		return "FLOAT"
	case rvalue.KindF64:
		return "DOUBLE"
	case rvalue.KindBinary:
		return "BLOB"
	case rvalue.KindArray, rvalue.KindMap:
		return "TEXT"
	default:
		return "TEXT"
	}
}
