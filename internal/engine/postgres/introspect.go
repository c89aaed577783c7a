package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/meta"
)

// columnRow holds the result of querying information_schema.columns.
type columnRow struct {
	ColumnName string  `db:"column_name"`
	DataType   string  `db:"data_type"`
	IsNullable string  `db:"is_nullable"`
	Default    *string `db:"column_default"`
	MaxLength  *int64  `db:"character_maximum_length"`
	Position   int     `db:"ordinal_position"`
	UDTName    string  `db:"udt_name"`
}

// fkRow holds a foreign key relationship.
type fkRow struct {
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
	DeleteRule       string `db:"delete_rule"`
	UpdateRule       string `db:"update_rule"`
}

// uniqueRow holds one column of a unique constraint.
type uniqueRow struct {
	ConstraintName  string `db:"constraint_name"`
	ColumnName      string `db:"column_name"`
	OrdinalPosition int    `db:"ordinal_position"`
}

// TableNames returns all base table names in the configured schema.
func (e *Engine) TableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	var names []string
	if err := e.db.SelectContext(ctx, &names, query, e.schemaName); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// IntrospectTable returns the metadata for a single table in the configured
// schema.
func (e *Engine) IntrospectTable(ctx context.Context, tableName string) (*meta.TableInfo, error) {
	// Verify the table exists.
	const tableQuery = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2`

	var name string
	if err := e.db.GetContext(ctx, &name, tableQuery, e.schemaName, tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("table %q in schema %q: %w", tableName, e.schemaName, engine.ErrNoSuchTable)
		}
		return nil, fmt.Errorf("lookup table %q: %w", tableName, err)
	}

	const colQuery = `SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length,
			c.ordinal_position,
			c.udt_name
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`

	var columns []columnRow
	if err := e.db.SelectContext(ctx, &columns, colQuery, e.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("introspect columns for %q: %w", tableName, err)
	}

	const pkQuery = `SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2`

	var pkCols []string
	if err := e.db.SelectContext(ctx, &pkCols, pkQuery, e.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("introspect primary keys for %q: %w", tableName, err)
	}
	pkSet := make(map[string]bool, len(pkCols))
	for _, pk := range pkCols {
		pkSet[pk] = true
	}

	const fkQuery = `SELECT
			kcu.column_name,
			ccu.table_name AS referenced_table,
			ccu.column_name AS referenced_column,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
		JOIN information_schema.referential_constraints rc
			ON tc.constraint_name = rc.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2`

	var fks []fkRow
	if err := e.db.SelectContext(ctx, &fks, fkQuery, e.schemaName, tableName); err != nil {
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
		colType := mapPostgresType(col.UDTName)
		isPK := pkSet[col.ColumnName]

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
	const query = `SELECT tc.constraint_name, kcu.column_name, kcu.ordinal_position
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'UNIQUE'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position`

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

// mapPostgresType maps a PostgreSQL UDT name to the portable type set.
func mapPostgresType(udtName string) meta.ColumnType {
	switch strings.ToLower(udtName) {
	case "int2", "smallint", "int4", "integer", "serial", "int8", "bigint", "bigserial":
		return meta.TypeInt
	case "varchar", "character varying", "bpchar", "char", "character":
		return meta.TypeVarchar
	case "text", "name", "citext":
		return meta.TypeText
	case "date":
		return meta.TypeDate
	case "timestamp", "timestamptz", "timestamp without time zone", "timestamp with time zone":
		return meta.TypeDateTime
	case "bool", "boolean":
		return meta.TypeBoolean
	case "numeric", "decimal", "float4", "real", "float8", "double precision", "money":
		return meta.TypeDecimal
	default:
		return meta.TypeText
	}
}
