package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/meta"
)

// tableInfoRow holds a row from PRAGMA table_info().
type tableInfoRow struct {
	CID     int     `db:"cid"`
	Name    string  `db:"name"`
	Type    string  `db:"type"`
	NotNull int     `db:"notnull"`
	Default *string `db:"dflt_value"`
	PK      int     `db:"pk"`
}

// foreignKeyRow holds a row from PRAGMA foreign_key_list().
type foreignKeyRow struct {
	ID       int    `db:"id"`
	Seq      int    `db:"seq"`
	Table    string `db:"table"`
	From     string `db:"from"`
	To       string `db:"to"`
	OnUpdate string `db:"on_update"`
	OnDelete string `db:"on_delete"`
	Match    string `db:"match"`
}

// indexListRow holds a row from PRAGMA index_list().
type indexListRow struct {
	Seq     int    `db:"seq"`
	Name    string `db:"name"`
	Unique  int    `db:"unique"`
	Origin  string `db:"origin"`
	Partial int    `db:"partial"`
}

// indexInfoRow holds a row from PRAGMA index_info().
type indexInfoRow struct {
	SeqNo int     `db:"seqno"`
	CID   int     `db:"cid"`
	Name  *string `db:"name"`
}

// TableNames returns all user table names in the database.
func (e *Engine) TableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	var names []string
	if err := e.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// IntrospectTable returns the metadata for a single table: its columns in
// declaration order, foreign key references, and unique constraints.
func (e *Engine) IntrospectTable(ctx context.Context, tableName string) (*meta.TableInfo, error) {
	pragmaQuery := fmt.Sprintf("PRAGMA table_info(%s)", e.QuoteIdentifier(tableName))
	var columns []tableInfoRow
	if err := e.db.SelectContext(ctx, &columns, pragmaQuery); err != nil {
		return nil, fmt.Errorf("table_info for %q: %w", tableName, err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q: %w", tableName, engine.ErrNoSuchTable)
	}

	// Fetch foreign keys and index them by the referencing column.
	fkQuery := fmt.Sprintf("PRAGMA foreign_key_list(%s)", e.QuoteIdentifier(tableName))
	var fkRows []foreignKeyRow
	if err := e.db.SelectContext(ctx, &fkRows, fkQuery); err != nil {
		return nil, fmt.Errorf("foreign_key_list for %q: %w", tableName, err)
	}

	fkByColumn := make(map[string]*meta.ForeignKeyRef, len(fkRows))
	for _, fk := range fkRows {
		fkByColumn[fk.From] = &meta.ForeignKeyRef{
			Table:    fk.Table,
			Column:   fk.To,
			OnDelete: meta.ParseReferentialAction(fk.OnDelete),
			OnUpdate: meta.ParseReferentialAction(fk.OnUpdate),
		}
	}

	// Walk the unique indexes created by UNIQUE constraints. A single-column
	// constraint marks the column unique; multi-column constraints become
	// named unique-constraint groups.
	uniqueCols, uniqueConstraints, err := e.fetchUniques(ctx, tableName)
	if err != nil {
		return nil, err
	}

	info := &meta.TableInfo{
		Name:              tableName,
		Columns:           make([]meta.Column, 0, len(columns)),
		UniqueConstraints: uniqueConstraints,
	}

	for _, col := range columns {
		colType, length := mapSQLiteType(col.Type)
		isPK := col.PK > 0

		info.Columns = append(info.Columns, meta.Column{
			Name:       col.Name,
			Type:       colType,
			Length:     length,
			Nullable:   col.NotNull == 0 && !isPK,
			PrimaryKey: isPK,
			Unique:     uniqueCols[col.Name],
			Default:    col.Default,
			ForeignKey: fkByColumn[col.Name],
		})
	}

	return info, nil
}

// fetchUniques inspects the table's unique indexes. It returns the set of
// singly-unique column names and the multi-column unique constraints.
func (e *Engine) fetchUniques(ctx context.Context, tableName string) (map[string]bool, []meta.UniqueColumns, error) {
	idxQuery := fmt.Sprintf("PRAGMA index_list(%s)", e.QuoteIdentifier(tableName))
	var idxRows []indexListRow
	if err := e.db.SelectContext(ctx, &idxRows, idxQuery); err != nil {
		return nil, nil, fmt.Errorf("index_list for %q: %w", tableName, err)
	}

	uniqueCols := make(map[string]bool)
	constraints := []meta.UniqueColumns{}

	for _, idx := range idxRows {
		// Only constraint-created unique indexes; skip pk and plain indexes.
		if idx.Unique != 1 || idx.Origin == "pk" {
			continue
		}

		infoQuery := fmt.Sprintf("PRAGMA index_info(%s)", e.QuoteIdentifier(idx.Name))
		var infoRows []indexInfoRow
		if err := e.db.SelectContext(ctx, &infoRows, infoQuery); err != nil {
			continue
		}

		cols := make([]string, 0, len(infoRows))
		for _, info := range infoRows {
			if info.Name != nil {
				cols = append(cols, *info.Name)
			}
		}

		switch len(cols) {
		case 0:
		case 1:
			uniqueCols[cols[0]] = true
		default:
			constraints = append(constraints, meta.UniqueColumns{Name: idx.Name, Columns: cols})
		}
	}

	return uniqueCols, constraints, nil
}

// mapSQLiteType maps a declared SQLite column type to the portable type set,
// extracting the declared length for variable-width types. SQLite uses type
// affinity rather than strict types (https://sqlite.org/datatype3.html).
func mapSQLiteType(typeName string) (meta.ColumnType, *int) {
	upper := strings.ToUpper(strings.TrimSpace(typeName))

	var length *int
	if idx := strings.IndexByte(upper, '('); idx >= 0 {
		inner := strings.TrimSuffix(upper[idx+1:], ")")
		// Take the first number of a (precision, scale) pair.
		if ci := strings.IndexByte(inner, ','); ci >= 0 {
			inner = inner[:ci]
		}
		if n, err := strconv.Atoi(strings.TrimSpace(inner)); err == nil {
			length = &n
		}
		upper = strings.TrimSpace(upper[:idx])
	}

	switch {
	case strings.Contains(upper, "BOOL"):
		return meta.TypeBoolean, nil
	case strings.Contains(upper, "INT"):
		return meta.TypeInt, nil
	case strings.Contains(upper, "VARCHAR"):
		return meta.TypeVarchar, length
	case strings.Contains(upper, "CHAR"),
		strings.Contains(upper, "CLOB"),
		strings.Contains(upper, "TEXT"):
		return meta.TypeText, length
	case upper == "DATETIME", strings.Contains(upper, "TIMESTAMP"):
		return meta.TypeDateTime, nil
	case strings.Contains(upper, "DATE"):
		return meta.TypeDate, nil
	case strings.Contains(upper, "REAL"),
		strings.Contains(upper, "FLOA"),
		strings.Contains(upper, "DOUB"),
		strings.Contains(upper, "NUMERIC"),
		strings.Contains(upper, "DECIMAL"):
		return meta.TypeDecimal, nil
	default:
		return meta.TypeText, length
	}
}
