// Package postgres implements the engine adapter for PostgreSQL databases
// using the pgx stdlib driver.
package postgres

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/meta"
)

// Engine implements engine.Engine for PostgreSQL databases.
type Engine struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new, unconnected PostgreSQL engine.
func New() engine.Engine {
	return &Engine{schemaName: "public"}
}

// Connect establishes a connection to the PostgreSQL database, configures
// the connection pool, and records the schema name used by introspection
// queries.
func (e *Engine) Connect(cfg engine.Config) error {
	dsn, err := engine.BuildDSN(cfg)
	if err != nil {
		return err
	}

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
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

	if cfg.Schema != "" {
		e.schemaName = cfg.Schema
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

// DriverName returns the driver identifier for PostgreSQL.
func (e *Engine) DriverName() string { return string(engine.Postgres) }

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double quotes.
func (e *Engine) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// qualified returns the schema-qualified, quoted form of a table name.
func (e *Engine) qualified(table string) string {
	return e.QuoteIdentifier(e.schemaName) + "." + e.QuoteIdentifier(table)
}

// ColumnTypeSQL maps a portable column type to its PostgreSQL type name.
// A TEXT column with a declared length becomes VARCHAR(n) since PostgreSQL's
// text type is unbounded.
func (e *Engine) ColumnTypeSQL(col meta.Column) string {
	switch col.Type {
	case meta.TypeInt:
		return "INTEGER"
	case meta.TypeVarchar:
		if col.Length != nil {
			return fmt.Sprintf("VARCHAR(%d)", *col.Length)
		}
		return fmt.Sprintf("VARCHAR(%d)", meta.MaxVarcharLength)
	case meta.TypeText:
		if col.Length != nil {
			return fmt.Sprintf("VARCHAR(%d)", *col.Length)
		}
		return "TEXT"
	case meta.TypeDate:
		return "DATE"
	case meta.TypeDateTime:
		return "TIMESTAMP"
	case meta.TypeBoolean:
		return "BOOLEAN"
	case meta.TypeDecimal:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}
