package db

import (
	"context"
	"fmt"

	"github.com/tablekit/tablekit/internal/meta"
)

// Table wraps one table of a Database. It holds the introspected column
// set and unique constraints; structural changes go through the owning
// database's engine and are mirrored into the wrapper once they succeed.
type Table struct {
	db      *Database
	name    string
	columns []*Column
	uniques []meta.UniqueColumns
}

func newTable(d *Database, info *meta.TableInfo) *Table {
	t := &Table{
		db:      d,
		name:    info.Name,
		uniques: info.UniqueConstraints,
	}
	t.columns = make([]*Column, len(info.Columns))
	for i := range info.Columns {
		t.columns[i] = &Column{table: t, meta: info.Columns[i]}
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Database returns the owning database.
func (t *Table) Database() *Database { return t.db }

// Columns returns the table's column wrappers in engine order.
func (t *Table) Columns() []*Column { return t.columns }

// UniqueConstraints returns the table's multi-column unique constraints.
// Single-column uniqueness is reported on the column itself.
func (t *Table) UniqueConstraints() []meta.UniqueColumns { return t.uniques }

// Column returns the wrapper for the named column, or an error when no such
// column exists.
func (t *Table) Column(name string) (*Column, error) {
	for _, c := range t.columns {
		if c.meta.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("table %q has no column %q", t.name, name)
}

// PrimaryKey returns the table's primary key column, or nil when the table
// has none.
func (t *Table) PrimaryKey() *Column {
	for _, c := range t.columns {
		if c.meta.PrimaryKey {
			return c
		}
	}
	return nil
}

// AddColumn validates and adds a column to the table. The descriptor is
// rejected before any engine call when its name collides with an existing
// column or its foreign key references a missing table or column, so a
// failed add leaves the table untouched. On success the wrapper for the new
// column is returned.
func (t *Table) AddColumn(ctx context.Context, col meta.Column) (*Column, error) {
	if err := t.db.checkOpen(); err != nil {
		return nil, err
	}
	if err := col.Validate(); err != nil {
		return nil, fmt.Errorf("add column to %q: %w", t.name, err)
	}
	for _, existing := range t.columns {
		if existing.meta.Name == col.Name {
			return nil, fmt.Errorf("add column to %q: column %q already exists", t.name, col.Name)
		}
	}
	if col.ForeignKey != nil {
		if err := t.db.checkForeignKeyTarget(ctx, col); err != nil {
			return nil, fmt.Errorf("add column to %q: %w", t.name, err)
		}
	}

	if err := t.db.eng.AddColumn(ctx, t.name, col); err != nil {
		return nil, err
	}
	t.db.log.Info().Str("table", t.name).Str("column", col.Name).Msg("column added")

	c := &Column{table: t, meta: col}
	t.columns = append(t.columns, c)
	return c, nil
}

// Rename renames the table in the engine and updates the wrapper and the
// database's table index in the same step, so the wrapper never refers to a
// stale name.
func (t *Table) Rename(ctx context.Context, newName string) error {
	d := t.db
	// The collision check and the cache update must see the same cache
	// state, so the lock is held across the engine call.
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if newName == "" {
		return fmt.Errorf("rename table %q: new name is empty", t.name)
	}
	if newName == t.name {
		return nil
	}
	if _, ok := d.tables[newName]; ok {
		return fmt.Errorf("rename table %q: table %q already exists", t.name, newName)
	}

	if err := d.eng.RenameTable(ctx, t.name, newName); err != nil {
		return err
	}
	d.log.Info().Str("from", t.name).Str("to", newName).Msg("table renamed")

	delete(d.tables, t.name)
	t.name = newName
	d.tables[newName] = t
	return nil
}

// Refresh re-introspects the table and replaces the wrapper's column set
// and unique constraints with current engine state.
func (t *Table) Refresh(ctx context.Context) error {
	if err := t.db.checkOpen(); err != nil {
		return err
	}
	info, err := t.db.eng.IntrospectTable(ctx, t.name)
	if err != nil {
		return fmt.Errorf("refresh table %q: %w", t.name, err)
	}
	t.uniques = info.UniqueConstraints
	t.columns = make([]*Column, len(info.Columns))
	for i := range info.Columns {
		t.columns[i] = &Column{table: t, meta: info.Columns[i]}
	}
	return nil
}

// Info returns the table's current metadata descriptor.
func (t *Table) Info() meta.TableInfo {
	info := meta.TableInfo{
		Name:              t.name,
		Columns:           make([]meta.Column, len(t.columns)),
		UniqueConstraints: t.uniques,
	}
	for i, c := range t.columns {
		info.Columns[i] = c.meta
	}
	return info
}
