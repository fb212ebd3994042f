package rexec

import (
	"context"
	"database/sql"

	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/rbatis-go/rbatis/rerror"
	"github.com/rbatis-go/rbatis/rintercept"
	"github.com/rbatis-go/rbatis/rvalue"
)

// Executor is the common surface every level of the hierarchy satisfies:
// bare *sql.DB pool executors, single checked-out connections, and
// transactions (nested or not).
type Executor interface {
	// Query runs sql with args and returns every resulting row as an ordered-map Value.
	Query(ctx context.Context, sql string, args []rvalue.Value) ([]rvalue.Value, error)
	// QueryOne runs sql with args and decodes at most one row, erroring if more than one came back.
	QueryOne(ctx context.Context, sql string, args []rvalue.Value) (rvalue.Value, error)
	// Exec runs a non-query statement and reports rows affected / last insert id.
	Exec(ctx context.Context, sql string, args []rvalue.Value) (ExecResult, error)
	// Begin opens a nested unit of work: a real transaction at depth 0, a savepoint below that.
	Begin(ctx context.Context) (*TxExecutor, error)
	// Dialect reports the placeholder/quoting convention this executor's underlying driver speaks.
	Dialect() rdialect.Dialect
}

// sqlExecutor is the minimal subset of *sql.DB / *sql.Tx / *sql.Conn the
// hierarchy drives directly.
type sqlExecutor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func toAnySlice(args []rvalue.Value) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

// runQuery is the shared implementation behind Query, parameterized only by
// which sqlExecutor + interceptor chain is driving it.
func runQuery(ctx context.Context, ex sqlExecutor, chain *rintercept.Chain, query string, args []rvalue.Value) ([]rvalue.Value, error) {
	query, args, skip, err := chain.Before(ctx, rintercept.OpQuery, query, args)
	if err != nil {
		return nil, err
	}
	if skip {
		return nil, nil
	}

	rows, err := ex.QueryContext(ctx, query, toAnySlice(args)...)
	if err != nil {
		return nil, chain.AfterErr(ctx, rintercept.OpQuery, query, rerror.WrapDriver("", err))
	}
	defer func() { _ = rows.Close() }()

	out, err := scanRows(rows)
	if err != nil {
		return nil, chain.AfterErr(ctx, rintercept.OpQuery, query, err)
	}

	return chain.After(ctx, rintercept.OpQuery, query, out, nil)
}

func runExec(ctx context.Context, ex sqlExecutor, chain *rintercept.Chain, query string, args []rvalue.Value) (ExecResult, error) {
	query, args, skip, err := chain.Before(ctx, rintercept.OpExec, query, args)
	if err != nil {
		return ExecResult{}, err
	}
	if skip {
		return ExecResult{}, nil
	}

	res, err := ex.ExecContext(ctx, query, toAnySlice(args)...)
	if err != nil {
		_, afterErr := chain.After(ctx, rintercept.OpExec, query, nil, rerror.WrapDriver("", err))
		return ExecResult{}, afterErr
	}

	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	result := ExecResult{RowsAffected: affected, LastInsertID: lastID}

	if _, err := chain.After(ctx, rintercept.OpExec, query, nil, nil); err != nil {
		return result, err
	}

	return result, nil
}

func queryOne(rows []rvalue.Value) (rvalue.Value, error) {
	switch len(rows) {
	case 0:
		return rvalue.Null, nil
	case 1:
		return rows[0], nil
	default:
		return rvalue.Null, rerror.DecodeMultipleRows()
	}
}
