package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/meta"
)

// CreateTable creates a table. Oracle has no ON UPDATE referential rule and
// rejects ON DELETE NO ACTION, so only CASCADE and SET NULL are emitted.
func (e *Engine) CreateTable(ctx context.Context, def meta.TableInfo) error {
	if def.Name == "" {
		return fmt.Errorf("table name is required")
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(e.QuoteIdentifier(def.Name))
	b.WriteString(" (\n")

	pkCols := []string{}
	for i, col := range def.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("  ")
		b.WriteString(e.QuoteIdentifier(col.Name))
		b.WriteString(" ")
		b.WriteString(e.ColumnTypeSQL(col))

		if col.PrimaryKey {
			pkCols = append(pkCols, col.Name)
		}
		// Oracle requires DEFAULT before the NOT NULL constraint.
		if lit, ok := engine.DefaultLiteral(col); ok {
			b.WriteString(" DEFAULT ")
			b.WriteString(lit)
		}
		if !col.Nullable && !col.PrimaryKey {
			b.WriteString(" NOT NULL")
		}
		if col.Unique {
			b.WriteString(" UNIQUE")
		}
	}

	if len(pkCols) > 0 {
		b.WriteString(",\n  PRIMARY KEY (")
		quoted := make([]string, len(pkCols))
		for i, pk := range pkCols {
			quoted[i] = e.QuoteIdentifier(pk)
		}
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(")")
	}

	for _, col := range def.Columns {
		fk := col.ForeignKey
		if fk == nil {
			continue
		}
		b.WriteString(",\n  CONSTRAINT ")
		b.WriteString(e.QuoteIdentifier(fmt.Sprintf("fk_%s_%s", def.Name, col.Name)))
		b.WriteString(" FOREIGN KEY (")
		b.WriteString(e.QuoteIdentifier(col.Name))
		b.WriteString(") REFERENCES ")
		b.WriteString(e.QuoteIdentifier(fk.Table))
		b.WriteString(" (")
		b.WriteString(e.QuoteIdentifier(fk.Column))
		b.WriteString(")")
		switch fk.OnDelete {
		case meta.Cascade:
			b.WriteString(" ON DELETE CASCADE")
		case meta.SetNull:
			b.WriteString(" ON DELETE SET NULL")
		}
	}

	for _, uc := range def.UniqueConstraints {
		b.WriteString(",\n  CONSTRAINT ")
		b.WriteString(e.QuoteIdentifier(uc.Name))
		b.WriteString(" UNIQUE (")
		quoted := make([]string, len(uc.Columns))
		for i, name := range uc.Columns {
			quoted[i] = e.QuoteIdentifier(name)
		}
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(")")
	}

	b.WriteString("\n)")

	if _, err := e.db.ExecContext(ctx, b.String()); err != nil {
		return fmt.Errorf("create table %q: %w", def.Name, err)
	}
	return nil
}

// AddColumn appends a column to an existing table.
func (e *Engine) AddColumn(ctx context.Context, table string, col meta.Column) error {
	var b strings.Builder
	b.WriteString("ALTER TABLE ")
	b.WriteString(e.QuoteIdentifier(table))
	b.WriteString(" ADD ")
	b.WriteString(e.QuoteIdentifier(col.Name))
	b.WriteString(" ")
	b.WriteString(e.ColumnTypeSQL(col))

	if lit, ok := engine.DefaultLiteral(col); ok {
		b.WriteString(" DEFAULT ")
		b.WriteString(lit)
	}
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.Unique {
		b.WriteString(" UNIQUE")
	}
	if fk := col.ForeignKey; fk != nil {
		b.WriteString(" CONSTRAINT ")
		b.WriteString(e.QuoteIdentifier(fmt.Sprintf("fk_%s_%s", table, col.Name)))
		b.WriteString(" REFERENCES ")
		b.WriteString(e.QuoteIdentifier(fk.Table))
		b.WriteString(" (")
		b.WriteString(e.QuoteIdentifier(fk.Column))
		b.WriteString(")")
		switch fk.OnDelete {
		case meta.Cascade:
			b.WriteString(" ON DELETE CASCADE")
		case meta.SetNull:
			b.WriteString(" ON DELETE SET NULL")
		}
	}

	if _, err := e.db.ExecContext(ctx, b.String()); err != nil {
		return fmt.Errorf("add column %q to %q: %w", col.Name, table, err)
	}
	return nil
}

// RenameTable renames a table.
func (e *Engine) RenameTable(ctx context.Context, oldName, newName string) error {
	stmt := fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		e.QuoteIdentifier(oldName), e.QuoteIdentifier(newName))
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("rename table %q to %q: %w", oldName, newName, err)
	}
	return nil
}

// RenameColumn renames a column.
func (e *Engine) RenameColumn(ctx context.Context, table, oldName, newName string) error {
	stmt := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		e.QuoteIdentifier(table), e.QuoteIdentifier(oldName), e.QuoteIdentifier(newName))
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("rename column %q to %q on %q: %w", oldName, newName, table, err)
	}
	return nil
}

// DropTable drops a table.
func (e *Engine) DropTable(ctx context.Context, table string) error {
	stmt := fmt.Sprintf("DROP TABLE %s", e.QuoteIdentifier(table))
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("drop table %q: %w", table, err)
	}
	return nil
}
