// Package db provides the typed façade over an engine adapter: a Database
// owning one engine connection, Table and Column wrappers whose structural
// operations delegate to the engine, and the schema exporter.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/meta"
)

// ErrClosed is returned by any operation attempted after Disconnect.
var ErrClosed = errors.New("database is disconnected")

// Database owns an engine connection exclusively and tracks the table
// wrappers bound to it. Disconnect is terminal: once closed, every
// operation returns ErrClosed. Safe for concurrent use: mu guards the
// closed flag and the table cache.
type Database struct {
	name   string
	driver engine.Driver
	eng    engine.Engine
	log    zerolog.Logger

	mu     sync.RWMutex
	closed bool
	tables map[string]*Table
}

// Open connects the given engine with the configuration and returns the
// database façade. The logical name is the configured database name, or the
// file stem for path-based engines.
func Open(eng engine.Engine, cfg engine.Config, logger zerolog.Logger) (*Database, error) {
	name := cfg.Database
	if cfg.Driver == engine.SQLite {
		path := cfg.Path
		if path == "" {
			path = cfg.DSN
		}
		if path != "" && path != ":memory:" {
			base := filepath.Base(path)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		if name == "" {
			name = "memory"
		}
	}
	if name == "" {
		return nil, fmt.Errorf("database name is required")
	}

	if err := eng.Connect(cfg); err != nil {
		return nil, fmt.Errorf("open database %q: %w", name, err)
	}

	d := &Database{
		name:   name,
		driver: cfg.Driver,
		eng:    eng,
		log:    logger.With().Str("database", name).Str("driver", string(cfg.Driver)).Logger(),
		tables: make(map[string]*Table),
	}

	d.log.Debug().Msg("database connected")
	return d, nil
}

// Name returns the logical database name.
func (d *Database) Name() string { return d.name }

// Driver returns the database's engine driver.
func (d *Database) Driver() engine.Driver { return d.driver }

// Engine exposes the underlying engine adapter.
func (d *Database) Engine() engine.Engine { return d.eng }

// Disconnect releases the engine connection. It is terminal: the database
// and all wrappers bound to it become unusable. Disconnecting twice returns
// ErrClosed.
func (d *Database) Disconnect() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	d.tables = nil
	d.mu.Unlock()

	d.log.Debug().Msg("database disconnected")
	return d.eng.Disconnect()
}

// Ping verifies the engine connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.eng.Ping(ctx)
}

// TableNames returns the names of all tables in the database.
func (d *Database) TableNames(ctx context.Context) ([]string, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return d.eng.TableNames(ctx)
}

// Table returns a wrapper for an existing table, introspecting it on first
// access. The wrapper is cached until Refresh, Rename, or Disconnect.
func (d *Database) Table(ctx context.Context, name string) (*Table, error) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return nil, ErrClosed
	}
	t, ok := d.tables[name]
	d.mu.RUnlock()
	if ok {
		return t, nil
	}

	info, err := d.eng.IntrospectTable(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get table %q: %w", name, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	// Another goroutine may have introspected the same table; keep the
	// wrapper that won so callers see one identity per table.
	if t, ok := d.tables[name]; ok {
		return t, nil
	}
	t = newTable(d, info)
	d.tables[name] = t
	return t, nil
}

// CreateTable creates the table if it does not exist and returns its
// wrapper. When a table with the descriptor's name already exists, the
// existing table is wrapped as-is, matching get-or-create semantics.
func (d *Database) CreateTable(ctx context.Context, def meta.TableInfo) (*Table, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	if t, err := d.Table(ctx, def.Name); err == nil {
		return t, nil
	} else if !errors.Is(err, engine.ErrNoSuchTable) {
		return nil, err
	}

	// Foreign key targets must exist before the table is materialized.
	for _, col := range def.Columns {
		if col.ForeignKey != nil {
			if err := d.checkForeignKeyTarget(ctx, col); err != nil {
				return nil, fmt.Errorf("create table %q: %w", def.Name, err)
			}
		}
	}

	if err := d.eng.CreateTable(ctx, def); err != nil {
		return nil, err
	}
	d.log.Info().Str("table", def.Name).Int("columns", len(def.Columns)).Msg("table created")

	return d.Table(ctx, def.Name)
}

// DropTable drops a table and discards its wrapper.
func (d *Database) DropTable(ctx context.Context, name string) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if err := d.eng.DropTable(ctx, name); err != nil {
		return err
	}
	d.mu.Lock()
	delete(d.tables, name)
	d.mu.Unlock()
	d.log.Info().Str("table", name).Msg("table dropped")
	return nil
}

// Refresh discards all cached table wrappers so the next access
// re-introspects the engine.
func (d *Database) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.tables = make(map[string]*Table)
	return nil
}

// Schema walks every table in the database and produces the schema
// document: per-table column definitions with foreign key and uniqueness
// metadata. The engine is re-introspected so the document reflects current
// state, not cached wrappers.
func (d *Database) Schema(ctx context.Context) (*meta.DatabaseDoc, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	names, err := d.eng.TableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("export schema: %w", err)
	}

	doc := &meta.DatabaseDoc{
		Name:   d.name,
		Type:   d.driver.DocType(),
		Tables: make(map[string]meta.TableDoc, len(names)),
	}

	for _, name := range names {
		info, err := d.eng.IntrospectTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("export schema: table %q: %w", name, err)
		}
		doc.Tables[name] = info.Doc()
	}

	return doc, nil
}

// SaveSchema serializes the schema document as indented JSON to the given
// path, creating parent directories as needed and overwriting any existing
// file.
func (d *Database) SaveSchema(ctx context.Context, path string) error {
	doc, err := d.Schema(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create schema directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}

	d.log.Info().Str("path", path).Int("tables", len(doc.Tables)).Msg("schema saved")
	return nil
}

// checkForeignKeyTarget verifies that a foreign key column's referenced
// table and column exist in this database.
func (d *Database) checkForeignKeyTarget(ctx context.Context, col meta.Column) error {
	fk := col.ForeignKey
	info, err := d.eng.IntrospectTable(ctx, fk.Table)
	if err != nil {
		return fmt.Errorf("foreign key on %q: referenced table %q: %w", col.Name, fk.Table, err)
	}
	if _, ok := info.Column(fk.Column); !ok {
		return fmt.Errorf("foreign key on %q: referenced column %q does not exist in table %q",
			col.Name, fk.Column, fk.Table)
	}
	return nil
}

func (d *Database) checkOpen() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	return nil
}
