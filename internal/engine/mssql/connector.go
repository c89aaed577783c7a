// Package mssql implements the engine adapter for Microsoft SQL Server
// databases using go-mssqldb.
package mssql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/meta"
)

// Engine implements engine.Engine for SQL Server databases.
type Engine struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new, unconnected SQL Server engine.
func New() engine.Engine {
	return &Engine{schemaName: "dbo"}
}

// Connect establishes a connection to the SQL Server database, configures
// the connection pool, and records the schema name used by introspection
// queries.
func (e *Engine) Connect(cfg engine.Config) error {
	dsn, err := engine.BuildDSN(cfg)
	if err != nil {
		return err
	}

	db, err := sqlx.Connect("sqlserver", dsn)
	if err != nil {
		return fmt.Errorf("mssql connect: %w", err)
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

// DriverName returns the driver identifier for SQL Server.
func (e *Engine) DriverName() string { return string(engine.SQLServer) }

// QuoteIdentifier wraps a SQL identifier in square brackets, escaping any
// embedded closing brackets.
func (e *Engine) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// qualified returns the schema-qualified, quoted form of a table name.
func (e *Engine) qualified(table string) string {
	return e.QuoteIdentifier(e.schemaName) + "." + e.QuoteIdentifier(table)
}

// ColumnTypeSQL maps a portable column type to its SQL Server type name.
func (e *Engine) ColumnTypeSQL(col meta.Column) string {
	switch col.Type {
	case meta.TypeInt:
		return "INT"
	case meta.TypeVarchar:
		if col.Length != nil {
			return fmt.Sprintf("NVARCHAR(%d)", *col.Length)
		}
		return fmt.Sprintf("NVARCHAR(%d)", meta.MaxVarcharLength)
	case meta.TypeText:
		if col.Length != nil {
			return fmt.Sprintf("NVARCHAR(%d)", *col.Length)
		}
		return "NVARCHAR(MAX)"
	case meta.TypeDate:
		return "DATE"
	case meta.TypeDateTime:
		return "DATETIME2"
	case meta.TypeBoolean:
		return "BIT"
	case meta.TypeDecimal:
		return "DECIMAL(18,2)"
	default:
		return "NVARCHAR(MAX)"
	}
}
