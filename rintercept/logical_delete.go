package rintercept

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rbatis-go/rbatis/rvalue"
)

// deleteFromPattern captures the table name out of a rendered
// `DELETE FROM "table" ...` statement so it can be turned into a soft-delete
// UPDATE instead.
var deleteFromPattern = regexp.MustCompile(`(?i)^\s*DELETE\s+FROM\s+"?([\w.]+)"?`)

// LogicalDeleteInterceptor turns a physical `DELETE FROM` into an
// `UPDATE ... SET <column> = <deletedValue>`, so rows configured for logical
// deletion are marked rather than physically removed. Only statements
// against tables in its tracked set are rewritten; everything else passes
// through untouched.
type LogicalDeleteInterceptor struct {
	column        string
	deletedValue  string
	tables        map[string]bool
}

// NewLogicalDeleteInterceptor builds the interceptor for the given deleted-flag
// column/value, scoped to the listed table names.
func NewLogicalDeleteInterceptor(column, deletedValue string, tables ...string) *LogicalDeleteInterceptor {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t] = true
	}
	return &LogicalDeleteInterceptor{column: column, deletedValue: deletedValue, tables: set}
}

func (i *LogicalDeleteInterceptor) Name() string { return "logical_delete" }

func (i *LogicalDeleteInterceptor) Before(ctx context.Context, op Op, sql string, args []rvalue.Value) (string, []rvalue.Value, bool, error) {
	if op != OpExec {
		return sql, args, false, nil
	}

	m := deleteFromPattern.FindStringSubmatch(sql)
	if m == nil || !i.tables[m[1]] {
		return sql, args, false, nil
	}

	rest := strings.TrimSpace(sql[len(m[0]):]) // whatever followed the table name, usually " WHERE ..."
	newSQL := fmt.Sprintf(`UPDATE "%s" SET "%s" = %s`, m[1], i.column, i.deletedValue)
	if rest != "" {
		newSQL += " " + rest
	}

	return newSQL, args, false, nil
}

func (i *LogicalDeleteInterceptor) After(ctx context.Context, op Op, sql string, rows []rvalue.Value, err error) ([]rvalue.Value, error) {
	return rows, err
}

var _ Interceptor = (*LogicalDeleteInterceptor)(nil)
