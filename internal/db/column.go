package db

import (
	"context"
	"fmt"

	"github.com/tablekit/tablekit/internal/meta"
)

// Column wraps one column of a Table. Reads come from the introspected
// metadata; Rename goes through the engine and updates the wrapper only
// after the engine succeeds.
type Column struct {
	table *Table
	meta  meta.Column
}

// Name returns the column name.
func (c *Column) Name() string { return c.meta.Name }

// Type returns the column's logical type.
func (c *Column) Type() meta.ColumnType { return c.meta.Type }

// Length returns the declared length and whether one is set.
func (c *Column) Length() (int, bool) {
	if c.meta.Length == nil {
		return 0, false
	}
	return *c.meta.Length, true
}

// Nullable reports whether the column accepts NULL.
func (c *Column) Nullable() bool { return c.meta.Nullable }

// PrimaryKey reports whether the column is the table's primary key.
func (c *Column) PrimaryKey() bool { return c.meta.PrimaryKey }

// Unique reports whether the column carries a single-column unique
// constraint.
func (c *Column) Unique() bool { return c.meta.Unique }

// Default returns the column's default value and whether one is set.
func (c *Column) Default() (string, bool) {
	if c.meta.Default == nil {
		return "", false
	}
	return *c.meta.Default, true
}

// ForeignKey returns the column's foreign key reference, or nil when the
// column is not a foreign key.
func (c *Column) ForeignKey() *meta.ForeignKeyRef { return c.meta.ForeignKey }

// Table returns the owning table.
func (c *Column) Table() *Table { return c.table }

// Meta returns the column's metadata descriptor.
func (c *Column) Meta() meta.Column { return c.meta }

// Rename renames the column in the engine and updates the wrapper in the
// same step.
func (c *Column) Rename(ctx context.Context, newName string) error {
	if err := c.table.db.checkOpen(); err != nil {
		return err
	}
	if newName == "" {
		return fmt.Errorf("rename column %q: new name is empty", c.meta.Name)
	}
	if newName == c.meta.Name {
		return nil
	}
	for _, other := range c.table.columns {
		if other.meta.Name == newName {
			return fmt.Errorf("rename column %q: column %q already exists in table %q",
				c.meta.Name, newName, c.table.name)
		}
	}

	if err := c.table.db.eng.RenameColumn(ctx, c.table.name, c.meta.Name, newName); err != nil {
		return err
	}
	c.table.db.log.Info().
		Str("table", c.table.name).
		Str("from", c.meta.Name).
		Str("to", newName).
		Msg("column renamed")

	c.meta.Name = newName
	return nil
}
