package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/meta"
)

// columnRow holds the result of querying INFORMATION_SCHEMA.COLUMNS.
type columnRow struct {
	ColumnName string  `db:"COLUMN_NAME"`
	DataType   string  `db:"DATA_TYPE"`
	IsNullable string  `db:"IS_NULLABLE"`
	Default    *string `db:"COLUMN_DEFAULT"`
	MaxLength  *int64  `db:"CHARACTER_MAXIMUM_LENGTH"`
	Position   int     `db:"ORDINAL_POSITION"`
	ColumnKey  string  `db:"COLUMN_KEY"`
}

// fkRow holds a foreign key relationship.
type fkRow struct {
	ColumnName       string `db:"COLUMN_NAME"`
	ReferencedTable  string `db:"REFERENCED_TABLE_NAME"`
	ReferencedColumn string `db:"REFERENCED_COLUMN_NAME"`
	DeleteRule       string `db:"DELETE_RULE"`
	UpdateRule       string `db:"UPDATE_RULE"`
}

// uniqueRow holds one column of a unique constraint.
type uniqueRow struct {
	ConstraintName string `db:"CONSTRAINT_NAME"`
	ColumnName     string `db:"COLUMN_NAME"`
}

// TableNames returns all base table names in the current database.
func (e *Engine) TableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	var names []string
	if err := e.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// IntrospectTable returns the metadata for a single table in the current
// database.
func (e *Engine) IntrospectTable(ctx context.Context, tableName string) (*meta.TableInfo, error) {
	const tableQuery = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`

	var name string
	if err := e.db.GetContext(ctx, &name, tableQuery, tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("table %q: %w", tableName, engine.ErrNoSuchTable)
		}
		return nil, fmt.Errorf("lookup table %q: %w", tableName, err)
	}

	const colQuery = `SELECT
			COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT,
			CHARACTER_MAXIMUM_LENGTH, ORDINAL_POSITION, COLUMN_KEY
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	var columns []columnRow
	if err := e.db.SelectContext(ctx, &columns, colQuery, tableName); err != nil {
		return nil, fmt.Errorf("introspect columns for %q: %w", tableName, err)
	}

	const fkQuery = `SELECT
			kcu.COLUMN_NAME,
			kcu.REFERENCED_TABLE_NAME,
			kcu.REFERENCED_COLUMN_NAME,
			rc.DELETE_RULE,
			rc.UPDATE_RULE
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
			ON kcu.CONSTRAINT_NAME = rc.CONSTRAINT_NAME
			AND kcu.CONSTRAINT_SCHEMA = rc.CONSTRAINT_SCHEMA
		WHERE kcu.TABLE_SCHEMA = DATABASE()
			AND kcu.TABLE_NAME = ?
			AND kcu.REFERENCED_TABLE_NAME IS NOT NULL`

	var fks []fkRow
	if err := e.db.SelectContext(ctx, &fks, fkQuery, tableName); err != nil {
		return nil, fmt.Errorf("introspect foreign keys for %q: %w", tableName, err)
	}

	fkByColumn := make(map[string]*meta.ForeignKeyRef, len(fks))
	for _, fk := range fks {
		fkByColumn[fk.ColumnName] = &meta.ForeignKeyRef{
			Table:    fk.ReferencedTable,
			Column:   fk.ReferencedColumn,
			OnDelete: meta.ParseReferentialAction(fk.DeleteRule),
			OnUpdate: meta.ParseReferentialAction(fk.UpdateRule),
		}
	}

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
		colType := mapMySQLType(col.DataType)
		isPK := col.ColumnKey == "PRI"

		var length *int
		if col.MaxLength != nil && (colType == meta.TypeVarchar || colType == meta.TypeText) {
			n := int(*col.MaxLength)
			length = &n
		}

		info.Columns = append(info.Columns, meta.Column{
			Name:       col.ColumnName,
			Type:       colType,
			Length:     length,
			Nullable:   col.IsNullable == "YES" && !isPK,
			PrimaryKey: isPK,
			Unique:     uniqueCols[col.ColumnName],
			Default:    col.Default,
			ForeignKey: fkByColumn[col.ColumnName],
		})
	}

	return info, nil
}

// fetchUniques returns the singly-unique column names and the multi-column
// unique constraints for a table.
func (e *Engine) fetchUniques(ctx context.Context, tableName string) (map[string]bool, []meta.UniqueColumns, error) {
	const query = `SELECT tc.CONSTRAINT_NAME, kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
			AND tc.TABLE_NAME = kcu.TABLE_NAME
		WHERE tc.CONSTRAINT_TYPE = 'UNIQUE'
			AND tc.TABLE_SCHEMA = DATABASE()
			AND tc.TABLE_NAME = ?
		ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

	var rows []uniqueRow
	if err := e.db.SelectContext(ctx, &rows, query, tableName); err != nil {
		return nil, nil, fmt.Errorf("introspect unique constraints for %q: %w", tableName, err)
	}

	grouped := make(map[string][]string)
	order := []string{}
	for _, row := range rows {
		if _, seen := grouped[row.ConstraintName]; !seen {
			order = append(order, row.ConstraintName)
		}
		grouped[row.ConstraintName] = append(grouped[row.ConstraintName], row.ColumnName)
	}

	uniqueCols := make(map[string]bool)
	constraints := []meta.UniqueColumns{}
	for _, name := range order {
		cols := grouped[name]
		if len(cols) == 1 {
			uniqueCols[cols[0]] = true
			continue
		}
		constraints = append(constraints, meta.UniqueColumns{Name: name, Columns: cols})
	}

	return uniqueCols, constraints, nil
}

// mapMySQLType maps a MySQL data type to the portable type set.
func mapMySQLType(dataType string) meta.ColumnType {
	switch strings.ToLower(dataType) {
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint", "year":
		return meta.TypeInt
	case "varchar", "char":
		return meta.TypeVarchar
	case "text", "tinytext", "mediumtext", "longtext", "enum", "set":
		return meta.TypeText
	case "date":
		return meta.TypeDate
	case "datetime", "timestamp", "time":
		return meta.TypeDateTime
	case "bit", "bool", "boolean":
		return meta.TypeBoolean
	case "decimal", "numeric", "float", "double":
		return meta.TypeDecimal
	default:
		return meta.TypeText
	}
}
