package rexec

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/rbatis-go/rbatis/rerror"
	"github.com/rbatis-go/rbatis/rintercept"
	"github.com/rbatis-go/rbatis/rvalue"
)

// PoolExecutor drives a bare *sql.DB pool: every call checks out and returns
// its own connection, and Begin opens a real transaction at depth 0.
type PoolExecutor struct {
	db      *sql.DB
	dialect rdialect.Dialect
	chain   *rintercept.Chain
}

// NewPoolExecutor wraps db as the top of the executor hierarchy.
func NewPoolExecutor(db *sql.DB, dialect rdialect.Dialect, chain *rintercept.Chain) *PoolExecutor {
	if chain == nil {
		chain = rintercept.NewChain()
	}
	return &PoolExecutor{db: db, dialect: dialect, chain: chain}
}

func (p *PoolExecutor) Query(ctx context.Context, sql string, args []rvalue.Value) ([]rvalue.Value, error) {
	return runQuery(ctx, p.db, p.chain, sql, args)
}

func (p *PoolExecutor) QueryOne(ctx context.Context, sql string, args []rvalue.Value) (rvalue.Value, error) {
	rows, err := p.Query(ctx, sql, args)
	if err != nil {
		return rvalue.Null, err
	}
	return queryOne(rows)
}

func (p *PoolExecutor) Exec(ctx context.Context, sql string, args []rvalue.Value) (ExecResult, error) {
	return runExec(ctx, p.db, p.chain, sql, args)
}

func (p *PoolExecutor) Begin(ctx context.Context) (*TxExecutor, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rerror.WrapDriver("", err)
	}
	return &TxExecutor{tx: tx, dialect: p.dialect, chain: p.chain}, nil
}

func (p *PoolExecutor) Dialect() rdialect.Dialect { return p.dialect }

var _ Executor = (*PoolExecutor)(nil)

// ConnExecutor drives a single checked-out *sql.Conn, for callers that need
// every statement pinned to the same physical connection (session variables,
// advisory locks, temp tables) without yet starting a transaction.
type ConnExecutor struct {
	conn    *sql.Conn
	dialect rdialect.Dialect
	chain   *rintercept.Chain
}

// NewConnExecutor wraps a checked-out connection.
func NewConnExecutor(conn *sql.Conn, dialect rdialect.Dialect, chain *rintercept.Chain) *ConnExecutor {
	if chain == nil {
		chain = rintercept.NewChain()
	}
	return &ConnExecutor{conn: conn, dialect: dialect, chain: chain}
}

func (c *ConnExecutor) Query(ctx context.Context, sql string, args []rvalue.Value) ([]rvalue.Value, error) {
	return runQuery(ctx, c.conn, c.chain, sql, args)
}

func (c *ConnExecutor) QueryOne(ctx context.Context, sql string, args []rvalue.Value) (rvalue.Value, error) {
	rows, err := c.Query(ctx, sql, args)
	if err != nil {
		return rvalue.Null, err
	}
	return queryOne(rows)
}

func (c *ConnExecutor) Exec(ctx context.Context, sql string, args []rvalue.Value) (ExecResult, error) {
	return runExec(ctx, c.conn, c.chain, sql, args)
}

func (c *ConnExecutor) Begin(ctx context.Context) (*TxExecutor, error) {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, rerror.WrapDriver("", err)
	}
	return &TxExecutor{tx: tx, dialect: c.dialect, chain: c.chain}, nil
}

func (c *ConnExecutor) Dialect() rdialect.Dialect { return c.dialect }

var _ Executor = (*ConnExecutor)(nil)

// TxExecutor drives one unit of work against a *sql.Tx. Begin on a TxExecutor
// doesn't open a nested real transaction - no driver supports that - it
// issues a SAVEPOINT and returns a TxExecutor one level deeper, so the
// caller's commit/rollback vocabulary stays uniform no matter how deep the
// nesting goes. A TxExecutor that has seen a statement fail is "dirty" and
// fails every further call without another driver round trip, mirroring how
// Postgres already aborts the whole transaction on the first error.
type TxExecutor struct {
	tx      *sql.Tx
	dialect rdialect.Dialect
	chain   *rintercept.Chain

	depth int
	done  bool
	dirty bool
}

func (t *TxExecutor) Query(ctx context.Context, sql string, args []rvalue.Value) ([]rvalue.Value, error) {
	if err := t.checkLive(); err != nil {
		return nil, err
	}
	out, err := runQuery(ctx, t.tx, t.chain, sql, args)
	if err != nil {
		t.dirty = true
	}
	return out, err
}

func (t *TxExecutor) QueryOne(ctx context.Context, sql string, args []rvalue.Value) (rvalue.Value, error) {
	rows, err := t.Query(ctx, sql, args)
	if err != nil {
		return rvalue.Null, err
	}
	return queryOne(rows)
}

func (t *TxExecutor) Exec(ctx context.Context, sql string, args []rvalue.Value) (ExecResult, error) {
	if err := t.checkLive(); err != nil {
		return ExecResult{}, err
	}
	out, err := runExec(ctx, t.tx, t.chain, sql, args)
	if err != nil {
		t.dirty = true
	}
	return out, err
}

// Begin opens a nested unit of work. At depth 0 this issues a real
// SAVEPOINT; every level below that stacks another one.
func (t *TxExecutor) Begin(ctx context.Context) (*TxExecutor, error) {
	if err := t.checkLive(); err != nil {
		return nil, err
	}

	child := &TxExecutor{tx: t.tx, dialect: t.dialect, chain: t.chain, depth: t.depth + 1}
	if _, err := t.tx.ExecContext(ctx, savepointStmt(t.dialect, child.depth)); err != nil {
		return nil, rerror.WrapDriver("", err)
	}
	return child, nil
}

func (t *TxExecutor) Dialect() rdialect.Dialect { return t.dialect }

// Commit finishes this unit of work: a real COMMIT at depth 0, a RELEASE
// SAVEPOINT (no-op statement on MSSQL, which releases implicitly) below
// that. Committing twice, or committing after a rollback, fails with
// rerror.ErrTxAlreadyFinished.
func (t *TxExecutor) Commit(ctx context.Context) error {
	if err := t.checkLive(); err != nil {
		return err
	}
	t.done = true

	if t.depth == 0 {
		if err := t.tx.Commit(); err != nil {
			return rerror.WrapDriver("", err)
		}
		return nil
	}

	if stmt := releaseSavepointStmt(t.dialect, t.depth); stmt != "" {
		if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
			return rerror.WrapDriver("", err)
		}
	}
	return nil
}

// Rollback undoes this unit of work: a real ROLLBACK at depth 0, a ROLLBACK
// TO SAVEPOINT below that. Safe to call after Commit has already run -
// mirrors the teacher's `defer tx.Rollback()` pattern, where a rollback
// after a successful commit is expected to be a harmless no-op.
func (t *TxExecutor) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	if t.depth == 0 {
		if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
			return rerror.WrapDriver("", err)
		}
		return nil
	}

	if _, err := t.tx.ExecContext(ctx, rollbackToSavepointStmt(t.dialect, t.depth)); err != nil {
		return rerror.WrapDriver("", err)
	}
	return nil
}

func (t *TxExecutor) checkLive() error {
	if t.done {
		return rerror.TxAlreadyFinished()
	}
	if t.dirty {
		return rerror.Wrap(rerror.KindTx, rerror.ErrTxAlreadyFinished, "transaction aborted by a previous statement error")
	}
	return nil
}

var _ Executor = (*TxExecutor)(nil)

func savepointName(depth int) string {
	return fmt.Sprintf("sp_%d", depth)
}

func savepointStmt(dialect rdialect.Dialect, depth int) string {
	if dialect == rdialect.MSSQL {
		return "SAVE TRANSACTION " + savepointName(depth)
	}
	return "SAVEPOINT " + savepointName(depth)
}

func releaseSavepointStmt(dialect rdialect.Dialect, depth int) string {
	if dialect == rdialect.MSSQL {
		// MSSQL has no RELEASE SAVEPOINT equivalent: a save point is simply
		// left in place until the enclosing transaction commits or rolls back.
		return ""
	}
	return "RELEASE SAVEPOINT " + savepointName(depth)
}

func rollbackToSavepointStmt(dialect rdialect.Dialect, depth int) string {
	if dialect == rdialect.MSSQL {
		return "ROLLBACK TRANSACTION " + savepointName(depth)
	}
	return "ROLLBACK TO SAVEPOINT " + savepointName(depth)
}

// GuardedTxExecutor wraps a TxExecutor with a teardown callback invoked
// exactly once, on whichever of Commit/Rollback runs first - the Go
// equivalent of the teacher's ExecTx helper, which hides the
// begin/defer-rollback/commit dance behind a single function call.
type GuardedTxExecutor struct {
	*TxExecutor

	teardown func(err error)
}

// RunInTx opens a transaction on ex, runs fn, and commits or rolls back
// depending on whether fn returns an error - mirroring DB.ExecTx's contract,
// generalized to any Executor in the hierarchy rather than only *sql.DB.
func RunInTx(ctx context.Context, ex Executor, fn func(ctx context.Context, tx *TxExecutor) error) error {
	tx, err := ex.Begin(ctx)
	if err != nil {
		return err
	}

	guarded := &GuardedTxExecutor{TxExecutor: tx, teardown: func(error) {}}
	defer func() { _ = guarded.Rollback(ctx) }()

	if err := fn(ctx, guarded.TxExecutor); err != nil {
		guarded.teardown(err)
		return err
	}

	if err := guarded.Commit(ctx); err != nil {
		guarded.teardown(err)
		return err
	}

	guarded.teardown(nil)
	return nil
}
