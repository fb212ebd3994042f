// Package sqlite is the rdriver.Driver adapter for SQLite, using the
// pure-Go modernc.org/sqlite driver - a dialect the teacher never supported,
// so only the surrounding RetryConnector/Options wiring is grounded on
// database/db.go's NewDbFromConfig; the DSN construction itself follows
// modernc.org/sqlite's own conventions rather than any cgo-based
// mattn/go-sqlite3 idiom.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"

	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/rbatis-go/rbatis/rdriver"
	"github.com/rbatis-go/rbatis/retry"
)

// Driver implements rdriver.Driver for SQLite.
type Driver struct{}

// New returns a SQLite rdriver.Driver.
func New() rdriver.Driver { return Driver{} }

func (Driver) Name() string { return "sqlite" }

func (Driver) DefaultOptions() rdriver.Options {
	return rdriver.Options{Path: ":memory:", MaxConnections: 1}
}

// Connect parses a sqlite://path URL (an empty path maps to SQLite's
// in-memory database). net/url would swallow the first path segment as a
// host for a relative path, so the scheme is split off with a plain
// strings.Cut instead of a full URL parse.
func (d Driver) Connect(ctx context.Context, dsn string) (*sql.DB, rdialect.Dialect, error) {
	opts := d.DefaultOptions()

	if _, rest, ok := strings.Cut(dsn, "://"); ok {
		opts.Path = rest
	} else {
		opts.Path = dsn
	}

	return d.ConnectWith(ctx, opts)
}

// ConnectWith opens a SQLite *sql.DB, retry-wrapped the same way the other
// adapters are - mostly relevant for SQLite's own SQLITE_BUSY contention
// rather than network flakiness, since retry.Retryable also treats any
// database/sql/driver.ErrBadConn as retryable.
func (d Driver) ConnectWith(ctx context.Context, opts rdriver.Options) (*sql.DB, rdialect.Dialect, error) {
	path := opts.Path
	if path == "" {
		path = ":memory:"
	}

	connector := &dsnConnector{driver: &sqlite.Driver{}, dsn: path}

	retryConnector := rdriver.NewRetryConnector(connector, rdriver.RetryConnectorCallbacks{}, retry.Settings{})

	db := sql.OpenDB(retryConnector)
	// SQLite allows only one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY errors from the pool itself opening concurrent
	// connections against a file-backed database.
	maxConns := opts.MaxConnections
	if maxConns <= 0 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)

	return db, rdialect.SQLite, nil
}

// dsnConnector adapts modernc.org/sqlite's driver.Driver (one Open(dsn) call
// per connection) into a driver.Connector, the shape rdriver.RetryConnector
// wraps.
type dsnConnector struct {
	driver driver.Driver
	dsn    string
}

func (c *dsnConnector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c *dsnConnector) Driver() driver.Driver { return c.driver }
