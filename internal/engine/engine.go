// Package engine defines the adapter interface that every database engine
// implements: connection lifecycle, schema introspection, and the structural
// DDL operations the table and column wrappers delegate to.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tablekit/tablekit/internal/meta"
)

// Driver identifies a supported database engine.
type Driver string

const (
	SQLite    Driver = "sqlite"
	Postgres  Driver = "postgres"
	MySQL     Driver = "mysql"
	Oracle    Driver = "oracle"
	SQLServer Driver = "sqlserver"
)

// ErrNoSuchTable is returned by introspection when the named table does not
// exist. Engines wrap it so callers can test with errors.Is.
var ErrNoSuchTable = errors.New("no such table")

// ParseDriver converts a driver name to a Driver.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(s); d {
	case SQLite, Postgres, MySQL, Oracle, SQLServer:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", s)
	}
}

// DocType returns the engine spelling used in the exported schema
// document's type field. Only Postgres differs from the driver key: the
// document carries "postgresql".
func (d Driver) DocType() string {
	if d == Postgres {
		return "postgresql"
	}
	return string(d)
}

// DefaultPort returns the conventional server port for the driver. SQLite
// has no server and returns 0.
func (d Driver) DefaultPort() int {
	switch d {
	case Postgres:
		return 5432
	case MySQL:
		return 3306
	case Oracle:
		return 1521
	case SQLServer:
		return 1433
	default:
		return 0
	}
}

// DefaultSchema returns the driver's default schema name. SQLite and MySQL
// do not use a separate schema namespace.
func (d Driver) DefaultSchema() string {
	switch d {
	case Postgres:
		return "public"
	case SQLServer:
		return "dbo"
	default:
		return ""
	}
}

// Config holds engine-agnostic connection parameters. Either DSN is set
// directly, or it is built from the discrete fields (Path for SQLite, host
// and credentials for server engines).
type Config struct {
	Driver   Driver
	DSN      string
	Path     string // database file path, embedded engines only
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Schema   string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Engine is the interface every database engine adapter implements. All SQL
// execution happens behind it; the wrapper layer never builds SQL itself.
type Engine interface {
	// Connection lifecycle
	Connect(cfg Config) error
	Disconnect() error
	Ping(ctx context.Context) error
	DB() *sqlx.DB

	// Schema introspection
	TableNames(ctx context.Context) ([]string, error)
	IntrospectTable(ctx context.Context, table string) (*meta.TableInfo, error)

	// Structural DDL
	CreateTable(ctx context.Context, def meta.TableInfo) error
	AddColumn(ctx context.Context, table string, col meta.Column) error
	RenameTable(ctx context.Context, oldName, newName string) error
	RenameColumn(ctx context.Context, table, oldName, newName string) error
	DropTable(ctx context.Context, table string) error

	// Dialect metadata
	DriverName() string
	QuoteIdentifier(name string) string
	ColumnTypeSQL(col meta.Column) string
}
