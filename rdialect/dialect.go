// Package rdialect rewrites the `?`-based SQL the template compiler renders
// into each driver's native placeholder convention - the Placeholder
// Rewriter (C3) of the pipeline.
package rdialect

// Dialect names a driver's placeholder convention and quoting style.
type Dialect int

const (
	// MySQL and SQLite both keep positional `?` placeholders.
	MySQL Dialect = iota
	SQLite
	// Postgres uses `$1`, `$2`, ...
	Postgres
	// MSSQL uses `@p1`, `@p2`, ...
	MSSQL
)

func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	case MSSQL:
		return "mssql"
	default:
		return "unknown"
	}
}
