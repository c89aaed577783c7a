package mssql

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
}

// fkRow holds a foreign key relationship from the sys catalog. The
// referential action descriptions come back underscore-separated
// (NO_ACTION, SET_NULL).
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

// TableNames returns all base table names in the configured schema.
func (e *Engine) TableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	var names []string
	if err := e.db.SelectContext(ctx, &names, query, e.schemaName); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// IntrospectTable returns the metadata for a single table in the configured
// schema.
func (e *Engine) IntrospectTable(ctx context.Context, tableName string) (*meta.TableInfo, error) {
	const tableQuery = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2`

	var name string
	if err := e.db.GetContext(ctx, &name, tableQuery, e.schemaName, tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("table %q in schema %q: %w", tableName, e.schemaName, engine.ErrNoSuchTable)
		}
		return nil, fmt.Errorf("lookup table %q: %w", tableName, err)
	}

	const colQuery = `SELECT
			COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT,
			CHARACTER_MAXIMUM_LENGTH, ORDINAL_POSITION
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION`

	var columns []columnRow
	if err := e.db.SelectContext(ctx, &columns, colQuery, e.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("introspect columns for %q: %w", tableName, err)
	}

	const pkQuery = `SELECT kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
			AND tc.TABLE_SCHEMA = @p1
			AND tc.TABLE_NAME = @p2`

	var pkCols []string
	if err := e.db.SelectContext(ctx, &pkCols, pkQuery, e.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("introspect primary keys for %q: %w", tableName, err)
	}
	pkSet := make(map[string]bool, len(pkCols))
	for _, pk := range pkCols {
		pkSet[pk] = true
	}

	const fkQuery = `SELECT
			fk_col.name AS COLUMN_NAME,
			pk_tab.name AS REFERENCED_TABLE_NAME,
			pk_col.name AS REFERENCED_COLUMN_NAME,
			fk.delete_referential_action_desc AS DELETE_RULE,
			fk.update_referential_action_desc AS UPDATE_RULE
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
		JOIN sys.tables fk_tab ON fkc.parent_object_id = fk_tab.object_id
		JOIN sys.columns fk_col ON fkc.parent_object_id = fk_col.object_id AND fkc.parent_column_id = fk_col.column_id
		JOIN sys.tables pk_tab ON fkc.referenced_object_id = pk_tab.object_id
		JOIN sys.columns pk_col ON fkc.referenced_object_id = pk_col.object_id AND fkc.referenced_column_id = pk_col.column_id
		JOIN sys.schemas s ON fk_tab.schema_id = s.schema_id
		WHERE s.name = @p1 AND fk_tab.name = @p2`

	var fks []fkRow
	if err := e.db.SelectContext(ctx, &fks, fkQuery, e.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("introspect foreign keys for %q: %w", tableName, err)
	}

	fkByColumn := make(map[string]*meta.ForeignKeyRef, len(fks))
	for _, fk := range fks {
		fkByColumn[fk.ColumnName] = &meta.ForeignKeyRef{
			Table:    fk.ReferencedTable,
			Column:   fk.ReferencedColumn,
			OnDelete: meta.ParseReferentialAction(strings.ReplaceAll(fk.DeleteRule, "_", " ")),
			OnUpdate: meta.ParseReferentialAction(strings.ReplaceAll(fk.UpdateRule, "_", " ")),
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
		colType := mapMSSQLType(col.DataType)
		isPK := pkSet[col.ColumnName]

		var length *int
		// NVARCHAR(MAX) reports -1; treat it as unbounded.
		if col.MaxLength != nil && *col.MaxLength > 0 && (colType == meta.TypeVarchar || colType == meta.TypeText) {
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
		WHERE tc.CONSTRAINT_TYPE = 'UNIQUE'
			AND tc.TABLE_SCHEMA = @p1
			AND tc.TABLE_NAME = @p2
		ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

	var rows []uniqueRow
	if err := e.db.SelectContext(ctx, &rows, query, e.schemaName, tableName); err != nil {
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

// mapMSSQLType maps a SQL Server data type to the portable type set.
func mapMSSQLType(dataType string) meta.ColumnType {
	switch strings.ToLower(dataType) {
	case "tinyint", "smallint", "int", "bigint":
		return meta.TypeInt
	case "varchar", "nvarchar", "char", "nchar":
		return meta.TypeVarchar
	case "text", "ntext", "xml":
		return meta.TypeText
	case "date":
		return meta.TypeDate
	case "datetime", "datetime2", "smalldatetime", "datetimeoffset", "time":
		return meta.TypeDateTime
	case "bit":
		return meta.TypeBoolean
	case "decimal", "numeric", "money", "smallmoney", "float", "real":
		return meta.TypeDecimal
	default:
		return meta.TypeText
	}
}
