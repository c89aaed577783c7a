// Package oracle implements the engine adapter for Oracle databases using
// the pure-Go go-ora driver.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/sijms/go-ora/v2"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/meta"
)

// Engine implements engine.Engine for Oracle databases. When no schema is
// configured, introspection is scoped to the session's current schema.
type Engine struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new, unconnected Oracle engine.
func New() engine.Engine {
	return &Engine{}
}

// Connect establishes a connection to the Oracle database and configures
// the connection pool.
func (e *Engine) Connect(cfg engine.Config) error {
	dsn, err := engine.BuildDSN(cfg)
	if err != nil {
		return err
	}

	db, err := sqlx.Connect("oracle", dsn)
	if err != nil {
		return fmt.Errorf("oracle connect: %w", err)
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
		// Oracle folds unquoted identifiers to upper case.
		e.schemaName = strings.ToUpper(cfg.Schema)
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

// DriverName returns the driver identifier for Oracle.
func (e *Engine) DriverName() string { return string(engine.Oracle) }

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double quotes.
func (e *Engine) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// owner is the bind value for the schema scope of introspection queries.
// nil lets the query fall back to the session's current schema.
func (e *Engine) owner() interface{} {
	if e.schemaName == "" {
		return nil
	}
	return e.schemaName
}

// ColumnTypeSQL maps a portable column type to its Oracle type name.
func (e *Engine) ColumnTypeSQL(col meta.Column) string {
	switch col.Type {
	case meta.TypeInt:
		return "NUMBER(10)"
	case meta.TypeVarchar:
		if col.Length != nil {
			return fmt.Sprintf("VARCHAR2(%d CHAR)", *col.Length)
		}
		return fmt.Sprintf("VARCHAR2(%d CHAR)", meta.MaxVarcharLength)
	case meta.TypeText:
		if col.Length != nil {
			return fmt.Sprintf("VARCHAR2(%d CHAR)", *col.Length)
		}
		return "CLOB"
	case meta.TypeDate:
		return "DATE"
	case meta.TypeDateTime:
		return "TIMESTAMP"
	case meta.TypeBoolean:
		return "NUMBER(1)"
	case meta.TypeDecimal:
		return "NUMBER(18,2)"
	default:
		return "CLOB"
	}
}
