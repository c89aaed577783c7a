// Package mysql implements the engine adapter for MySQL and MariaDB
// databases using go-sql-driver/mysql.
package mysql

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/meta"
)

// Engine implements engine.Engine for MySQL databases. Introspection is
// scoped to the connection's current database.
type Engine struct {
	db *sqlx.DB
}

// New creates a new, unconnected MySQL engine.
func New() engine.Engine {
	return &Engine{}
}

// Connect establishes a connection to the MySQL database and configures the
// connection pool.
func (e *Engine) Connect(cfg engine.Config) error {
	dsn, err := engine.BuildDSN(cfg)
	if err != nil {
		return err
	}

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	e.db = db
	return nil
}

// Disconnect closes the database connection pool.
func (e *Engine) Disconnect() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (e *Engine) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (e *Engine) DB() *sqlx.DB {
	return e.db
}

// DriverName returns the driver identifier for MySQL.
func (e *Engine) DriverName() string { return string(engine.MySQL) }

// QuoteIdentifier wraps a SQL identifier in backticks, escaping any embedded
// backticks.
func (e *Engine) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// ColumnTypeSQL maps a portable column type to its MySQL type name.
func (e *Engine) ColumnTypeSQL(col meta.Column) string {
	switch col.Type {
	case meta.TypeInt:
		return "INT"
	case meta.TypeVarchar:
		if col.Length != nil {
			return fmt.Sprintf("VARCHAR(%d)", *col.Length)
		}
		return fmt.Sprintf("VARCHAR(%d)", meta.MaxVarcharLength)
	case meta.TypeText:
		if col.Length != nil {
			return fmt.Sprintf("TEXT(%d)", *col.Length)
		}
		return "TEXT"
	case meta.TypeDate:
		return "DATE"
	case meta.TypeDateTime:
		return "DATETIME"
	case meta.TypeBoolean:
		return "BOOLEAN"
	case meta.TypeDecimal:
		return "DECIMAL(10,2)"
	default:
		return "TEXT"
	}
}
