// Package rdriver is the external-interfaces boundary (§6): Driver,
// Connection, Row and MetaData name the contract the executor hierarchy
// (rexec) is driven through, and RetryConnector is the shared
// retry-on-connect wrapper every concrete adapter (rdriver/mysql,
// rdriver/postgres, rdriver/sqlite, rdriver/mssql) builds its *sql.DB on
// top of - grounded on the teacher's database/driver.go RetryConnector and
// database/db.go's NewDbFromConfig connector-building, generalized from one
// hard-coded mysql/pgsql switch into a registry of per-dialect Drivers.
package rdriver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/rbatis-go/rbatis/backoff"
	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/rbatis-go/rbatis/retry"
)

// Options configures a connection the way database/config.go's Config did,
// generalized across all four dialects rather than just mysql/pgsql: Path is
// used by sqlite in place of Host/Port/Database.
type Options struct {
	Host     string
	Port     int
	Path     string // sqlite only: file path, or ":memory:"
	Database string
	User     string
	Password string

	MaxConnections int

	TLSConfig *TLSConfig
}

// TLSConfig is the subset of crypto/tls options a driver adapter needs to
// build its own *tls.Config; kept narrow and dialect-agnostic here so
// rdriver doesn't have to import crypto/tls itself.
type TLSConfig struct {
	Enable   bool
	Insecure bool
	Cert     string
	Key      string
	Ca       string
}

// Driver is the boundary the core consumes: a wire-protocol adapter the
// executor hierarchy drives without knowing which database it's actually
// talking to.
type Driver interface {
	// Name reports the driver's short identifier, e.g. "mysql", "postgres".
	Name() string
	// Connect parses url (mysql://, postgres://, sqlite://, mssql://) and
	// opens a pooled, retry-wrapped *sql.DB plus the Dialect its placeholder
	// convention follows.
	Connect(ctx context.Context, url string) (*sql.DB, rdialect.Dialect, error)
	// ConnectWith is the structured-Options equivalent of Connect, for
	// callers building a connection from a parsed config file rather than a
	// URL string.
	ConnectWith(ctx context.Context, opts Options) (*sql.DB, rdialect.Dialect, error)
	// DefaultOptions returns this driver's zero-value-filled defaults (port,
	// max connections, ...).
	DefaultOptions() Options
}

// Row is one result row, keyed by ordinal column index - the low-level
// per-row view beneath rexec's decode layer, which instead works against the
// named columns *sql.Rows.Columns() already reports. Unlike *sql.Rows, a Row
// holds its values already scanned out of the cursor, so a []Row returned by
// GetRows stays valid after the cursor that produced it has moved on or been
// closed.
type Row struct {
	values []any
	meta   MetaData
}

// NewRow scans the already-positioned rows (i.e. after a successful Next())
// into a Row that owns a copy of its column values.
func NewRow(rows *sql.Rows) (Row, error) {
	meta, err := newMetaData(rows)
	if err != nil {
		return Row{}, err
	}

	values := make([]any, meta.ColumnCount())
	dests := make([]any, len(values))
	for i := range dests {
		dests[i] = &values[i]
	}
	if err := rows.Scan(dests...); err != nil {
		return Row{}, err
	}

	return Row{values: values, meta: meta}, nil
}

// Meta returns this row's column metadata.
func (r Row) Meta() MetaData { return r.meta }

// Get copies the column at columnIndex into dest, which must be a pointer of
// a type assignable from the driver-reported column value (e.g. *string,
// *int64, *rvalue.Value via its Scan method).
func (r Row) Get(columnIndex int, dest any) error {
	return convertAssign(dest, r.values[columnIndex])
}

// convertAssign copies src into dest, which must be a non-nil pointer. It
// prefers dest's own sql.Scanner if it implements one (e.g. rvalue.Value),
// then falls back to a direct or reflect-assisted assignment - the same
// two-tier strategy database/sql itself uses internally, reimplemented here
// since that logic isn't exported.
func convertAssign(dest, src any) error {
	if scanner, ok := dest.(sql.Scanner); ok {
		return scanner.Scan(src)
	}

	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("rdriver: Get destination must be a non-nil pointer, got %T", dest)
	}
	elem := dv.Elem()

	if src == nil {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}

	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(elem.Type()) {
		elem.Set(sv)
		return nil
	}
	if sv.Type().ConvertibleTo(elem.Type()) {
		elem.Set(sv.Convert(elem.Type()))
		return nil
	}

	return fmt.Errorf("rdriver: can't assign %T into %s", src, elem.Type())
}

// MetaData describes a result set's columns.
type MetaData struct {
	names []string
	types []string
}

func newMetaData(rows *sql.Rows) (MetaData, error) {
	names, err := rows.Columns()
	if err != nil {
		return MetaData{}, err
	}

	types := make([]string, len(names))
	if colTypes, err := rows.ColumnTypes(); err == nil {
		for i, ct := range colTypes {
			types[i] = ct.DatabaseTypeName()
		}
	}

	return MetaData{names: names, types: types}, nil
}

// ColumnCount reports how many columns the row carries.
func (m MetaData) ColumnCount() int { return len(m.names) }

// ColumnName reports the name of column i.
func (m MetaData) ColumnName(i int) string { return m.names[i] }

// ColumnType reports the driver-reported type name of column i, e.g.
// "VARCHAR", "BIGINT" - empty if the driver doesn't expose it.
func (m MetaData) ColumnType(i int) string {
	if i < len(m.types) {
		return m.types[i]
	}
	return ""
}

// Connection is the low-level per-call surface named in §6: get_rows/exec/
// ping/close directly against a pooled *sql.DB, beneath rexec's
// Executor/interceptor/decode machinery. Most callers want an
// rexec.Executor instead; Connection exists for callers that need the raw
// Driver/Connection/Row/MetaData boundary itself (e.g. a custom adapter
// test, or cmd/rbatis-bench's connectivity check).
type Connection struct {
	db *sql.DB
}

// NewConnection wraps an already-open *sql.DB as a Connection.
func NewConnection(db *sql.DB) Connection {
	return Connection{db: db}
}

// GetRows runs sql with args and returns every resulting Row.
func (c Connection) GetRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		row, err := NewRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Exec runs a non-query statement.
func (c Connection) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// Ping checks connectivity.
func (c Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close releases the underlying pool.
func (c Connection) Close() error {
	return c.db.Close()
}

// InitConnFunc runs arbitrary post-Connect setup against a freshly
// established driver.Conn, e.g. setting session variables.
type InitConnFunc func(context.Context, driver.Conn) error

// RetryConnectorCallbacks lets a caller observe retry progress without
// forcing every adapter to reimplement logging.
type RetryConnectorCallbacks struct {
	OnInitConn InitConnFunc
	OnError    retry.OnRetryableErrorFunc
	OnSuccess  retry.OnSuccessFunc
}

// RetryConnector wraps a driver.Connector so every Connect attempt is
// retried with backoff instead of failing the whole adapter on one transient
// connection error - directly ported from database/driver.go's
// RetryConnector, generalized from a MySQL/Postgres-only shouldRetry to the
// dialect-agnostic retry.Retryable check shared by every adapter.
type RetryConnector struct {
	driver.Connector

	callbacks RetryConnectorCallbacks
	settings  retry.Settings
}

// NewRetryConnector wraps c, retrying Connect per settings (falling back to
// retry.DefaultTimeout if settings.Timeout is unset).
func NewRetryConnector(c driver.Connector, callbacks RetryConnectorCallbacks, settings retry.Settings) *RetryConnector {
	if settings.Timeout <= 0 {
		settings.Timeout = retry.DefaultTimeout
	}
	return &RetryConnector{Connector: c, callbacks: callbacks, settings: settings}
}

// Connect implements driver.Connector, retrying with backoff on any
// retry.Retryable error.
func (c *RetryConnector) Connect(ctx context.Context) (driver.Conn, error) {
	var conn driver.Conn

	settings := c.settings
	settings.OnRetryableError = c.callbacks.OnError
	settings.OnSuccess = c.callbacks.OnSuccess

	err := retry.WithBackoff(
		ctx,
		func(ctx context.Context) (err error) {
			conn, err = c.Connector.Connect(ctx)
			if err == nil && c.callbacks.OnInitConn != nil {
				if err = c.callbacks.OnInitConn(ctx, conn); err != nil {
					_ = conn.Close()
				}
			}
			return err
		},
		retry.Retryable,
		backoff.DefaultBackoff,
		settings,
	)
	return conn, err
}

// Driver implements driver.Connector.
func (c *RetryConnector) Driver() driver.Driver {
	return c.Connector.Driver()
}
