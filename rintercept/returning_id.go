package rintercept

import (
	"context"
	"strings"

	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/rbatis-go/rbatis/rvalue"
)

// ReturningIdInterceptor appends `RETURNING id` to a bare `insert into`
// statement issued as a query, for dialects (Postgres) whose driver doesn't
// otherwise expose the newly generated primary key from an Exec call. It is
// a no-op on any other dialect or statement shape.
type ReturningIdInterceptor struct {
	dialect rdialect.Dialect
	column  string
}

// NewReturningIdInterceptor builds the interceptor for dialect, returning
// column (defaulting to "id" when empty).
func NewReturningIdInterceptor(dialect rdialect.Dialect, column string) *ReturningIdInterceptor {
	if column == "" {
		column = "id"
	}
	return &ReturningIdInterceptor{dialect: dialect, column: column}
}

func (i *ReturningIdInterceptor) Name() string { return "returning_id" }

func (i *ReturningIdInterceptor) Before(ctx context.Context, op Op, sql string, args []rvalue.Value) (string, []rvalue.Value, bool, error) {
	if i.dialect != rdialect.Postgres || op != OpQuery {
		return sql, args, false, nil
	}

	lower := strings.ToLower(sql)
	if !strings.Contains(lower, "insert into") || strings.Contains(lower, "returning") {
		return sql, args, false, nil
	}

	return sql + " RETURNING " + i.column, args, false, nil
}

func (i *ReturningIdInterceptor) After(ctx context.Context, op Op, sql string, rows []rvalue.Value, err error) ([]rvalue.Value, error) {
	return rows, err
}

var _ Interceptor = (*ReturningIdInterceptor)(nil)
