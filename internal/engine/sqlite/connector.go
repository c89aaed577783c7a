// Package sqlite implements the engine adapter for SQLite databases using
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/meta"
)

// Engine implements engine.Engine for SQLite databases.
type Engine struct {
	db *sqlx.DB
}

// New creates a new, unconnected SQLite engine.
func New() engine.Engine {
	return &Engine{}
}

// Connect opens the SQLite database file named in the configuration. The
// DSN is a file path (e.g. "/path/to/db.sqlite") or ":memory:" for an
// in-memory database. Query parameters like ?_journal_mode=WAL are
// supported.
func (e *Engine) Connect(cfg engine.Config) error {
	dsn, err := engine.BuildDSN(cfg)
	if err != nil {
		return err
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("sqlite connect: %w", err)
	}

	// SQLite doesn't support concurrent writes.
	db.SetMaxOpenConns(1)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	// Referential actions are ignored unless foreign keys are enabled.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	e.db = db
	return nil
}

// Disconnect closes the database connection.
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

// DriverName returns the driver identifier for SQLite.
func (e *Engine) DriverName() string { return string(engine.SQLite) }

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double quotes.
func (e *Engine) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnTypeSQL maps a portable column type to its SQLite type name.
// VARCHAR keeps its declared length so introspection can recover it.
func (e *Engine) ColumnTypeSQL(col meta.Column) string {
	switch col.Type {
	case meta.TypeInt:
		return "INTEGER"
	case meta.TypeVarchar:
		if col.Length != nil {
			return fmt.Sprintf("VARCHAR(%d)", *col.Length)
		}
		return "VARCHAR"
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
		return "DECIMAL"
	default:
		return "TEXT"
	}
}
