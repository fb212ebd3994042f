package rintercept

import (
	"context"
	"fmt"
	"strings"

	"github.com/rbatis-go/rbatis/rvalue"
)

// VersionColumnInterceptor implements optimistic locking: on an UPDATE
// statement that sets `"<column>" = ?` exactly once, it increments that
// bound argument by one and appends an `AND "<column>" = <old value>` guard
// to the statement, so the update only takes effect if no concurrent writer
// has already bumped the version. Every write therefore both advances and
// checks the version column in one round trip.
type VersionColumnInterceptor struct {
	column string
}

// NewVersionColumnInterceptor builds the interceptor for the given version column name.
func NewVersionColumnInterceptor(column string) *VersionColumnInterceptor {
	return &VersionColumnInterceptor{column: column}
}

func (i *VersionColumnInterceptor) Name() string { return "version_column" }

func (i *VersionColumnInterceptor) Before(ctx context.Context, op Op, sql string, args []rvalue.Value) (string, []rvalue.Value, bool, error) {
	if op != OpExec || !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sql)), "UPDATE") {
		return sql, args, false, nil
	}

	marker := fmt.Sprintf(`"%s" = ?`, i.column)
	idx := strings.Index(sql, marker)
	if idx < 0 || strings.Count(sql, marker) != 1 {
		return sql, args, false, nil
	}

	argIdx := strings.Count(sql[:idx], "?")
	if argIdx >= len(args) {
		return sql, args, false, nil
	}

	oldVersion := args[argIdx]
	n, ok := oldVersion.AsI64()
	if !ok {
		return sql, args, false, nil
	}

	newArgs := make([]rvalue.Value, len(args))
	copy(newArgs, args)
	newArgs[argIdx] = rvalue.I64(n + 1)

	newSQL := sql + fmt.Sprintf(` AND "%s" = %d`, i.column, n)

	return newSQL, newArgs, false, nil
}

func (i *VersionColumnInterceptor) After(ctx context.Context, op Op, sql string, rows []rvalue.Value, err error) ([]rvalue.Value, error) {
	return rows, err
}

var _ Interceptor = (*VersionColumnInterceptor)(nil)
