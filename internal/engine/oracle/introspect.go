package oracle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/meta"
)

// columnRow holds the result of querying ALL_TAB_COLUMNS.
type columnRow struct {
	ColumnName    string  `db:"COLUMN_NAME"`
	DataType      string  `db:"DATA_TYPE"`
	Nullable      string  `db:"NULLABLE"`
	Default       *string `db:"DATA_DEFAULT"`
	CharLength    *int64  `db:"CHAR_LENGTH"`
	DataPrecision *int64  `db:"DATA_PRECISION"`
	DataScale     *int64  `db:"DATA_SCALE"`
	ColumnID      int     `db:"COLUMN_ID"`
}

// consColumnRow holds one column of a constraint from ALL_CONS_COLUMNS
// joined with ALL_CONSTRAINTS.
type consColumnRow struct {
	ConstraintName string  `db:"CONSTRAINT_NAME"`
	ConstraintType string  `db:"CONSTRAINT_TYPE"`
	ColumnName     string  `db:"COLUMN_NAME"`
	DeleteRule     *string `db:"DELETE_RULE"`
	RefTable       *string `db:"REF_TABLE"`
	RefColumn      *string `db:"REF_COLUMN"`
}

// TableNames returns all table names in the introspection scope.
func (e *Engine) TableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM ALL_TABLES
		WHERE OWNER = NVL(:1, SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA'))
		ORDER BY TABLE_NAME`

	var names []string
	if err := e.db.SelectContext(ctx, &names, query, e.owner()); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// IntrospectTable returns the metadata for a single table.
func (e *Engine) IntrospectTable(ctx context.Context, tableName string) (*meta.TableInfo, error) {
	const tableQuery = `SELECT TABLE_NAME FROM ALL_TABLES
		WHERE OWNER = NVL(:1, SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA'))
		AND TABLE_NAME = :2`

	var name string
	if err := e.db.GetContext(ctx, &name, tableQuery, e.owner(), tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("table %q: %w", tableName, engine.ErrNoSuchTable)
		}
		return nil, fmt.Errorf("lookup table %q: %w", tableName, err)
	}

	const colQuery = `SELECT
			COLUMN_NAME, DATA_TYPE, NULLABLE, DATA_DEFAULT,
			CHAR_LENGTH, DATA_PRECISION, DATA_SCALE, COLUMN_ID
		FROM ALL_TAB_COLUMNS
		WHERE OWNER = NVL(:1, SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA'))
		AND TABLE_NAME = :2
		ORDER BY COLUMN_ID`

	var columns []columnRow
	if err := e.db.SelectContext(ctx, &columns, colQuery, e.owner(), tableName); err != nil {
		return nil, fmt.Errorf("introspect columns for %q: %w", tableName, err)
	}

	// One pass over ALL_CONSTRAINTS covers primary keys (P), foreign keys
	// (R, resolved to the referenced table/column), and uniques (U). Oracle
	// has no ON UPDATE referential rule.
	const consQuery = `SELECT
			ac.CONSTRAINT_NAME,
			ac.CONSTRAINT_TYPE,
			acc.COLUMN_NAME,
			ac.DELETE_RULE,
			rcc.TABLE_NAME AS REF_TABLE,
			rcc.COLUMN_NAME AS REF_COLUMN
		FROM ALL_CONSTRAINTS ac
		JOIN ALL_CONS_COLUMNS acc
			ON ac.CONSTRAINT_NAME = acc.CONSTRAINT_NAME
			AND ac.OWNER = acc.OWNER
		LEFT JOIN ALL_CONS_COLUMNS rcc
			ON ac.R_CONSTRAINT_NAME = rcc.CONSTRAINT_NAME
			AND ac.R_OWNER = rcc.OWNER
			AND acc.POSITION = rcc.POSITION
		WHERE ac.OWNER = NVL(:1, SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA'))
			AND ac.TABLE_NAME = :2
			AND ac.CONSTRAINT_TYPE IN ('P', 'R', 'U')
		ORDER BY ac.CONSTRAINT_NAME, acc.POSITION`

	var cons []consColumnRow
	if err := e.db.SelectContext(ctx, &cons, consQuery, e.owner(), tableName); err != nil {
		return nil, fmt.Errorf("introspect constraints for %q: %w", tableName, err)
	}

	pkSet := make(map[string]bool)
	fkByColumn := make(map[string]*meta.ForeignKeyRef)
	uniqueGroups := make(map[string][]string)
	uniqueOrder := []string{}

	for _, row := range cons {
		switch row.ConstraintType {
		case "P":
			pkSet[row.ColumnName] = true
		case "R":
			ref := &meta.ForeignKeyRef{
				OnDelete: meta.NoAction,
				OnUpdate: meta.NoAction,
			}
			if row.RefTable != nil {
				ref.Table = *row.RefTable
			}
			if row.RefColumn != nil {
				ref.Column = *row.RefColumn
			}
			if row.DeleteRule != nil {
				ref.OnDelete = meta.ParseReferentialAction(*row.DeleteRule)
			}
			fkByColumn[row.ColumnName] = ref
		case "U":
			if _, seen := uniqueGroups[row.ConstraintName]; !seen {
				uniqueOrder = append(uniqueOrder, row.ConstraintName)
			}
			uniqueGroups[row.ConstraintName] = append(uniqueGroups[row.ConstraintName], row.ColumnName)
		}
	}

	uniqueCols := make(map[string]bool)
	uniqueConstraints := []meta.UniqueColumns{}
	for _, name := range uniqueOrder {
		cols := uniqueGroups[name]
		if len(cols) == 1 {
			uniqueCols[cols[0]] = true
			continue
		}
		uniqueConstraints = append(uniqueConstraints, meta.UniqueColumns{Name: name, Columns: cols})
	}

	info := &meta.TableInfo{
		Name:              tableName,
		Columns:           make([]meta.Column, 0, len(columns)),
		UniqueConstraints: uniqueConstraints,
	}

	for _, col := range columns {
		colType := mapOracleType(col)
		isPK := pkSet[col.ColumnName]

		var length *int
		if col.CharLength != nil && *col.CharLength > 0 && (colType == meta.TypeVarchar || colType == meta.TypeText) {
			n := int(*col.CharLength)
			length = &n
		}

		var def *string
		if col.Default != nil {
			trimmed := strings.TrimSpace(*col.Default)
			def = &trimmed
		}

		info.Columns = append(info.Columns, meta.Column{
			Name:       col.ColumnName,
			Type:       colType,
			Length:     length,
			Nullable:   col.Nullable == "Y" && !isPK,
			PrimaryKey: isPK,
			Unique:     uniqueCols[col.ColumnName],
			Default:    def,
			ForeignKey: fkByColumn[col.ColumnName],
		})
	}

	return info, nil
}

// mapOracleType maps an Oracle data type to the portable type set. NUMBER
// columns with scale 0 are integers; NUMBER(1) is treated as boolean.
func mapOracleType(col columnRow) meta.ColumnType {
	switch strings.ToUpper(col.DataType) {
	case "NUMBER":
		scale := int64(0)
		if col.DataScale != nil {
			scale = *col.DataScale
		}
		if scale == 0 {
			if col.DataPrecision != nil && *col.DataPrecision == 1 {
				return meta.TypeBoolean
			}
			return meta.TypeInt
		}
		return meta.TypeDecimal
	case "FLOAT", "BINARY_FLOAT", "BINARY_DOUBLE":
		return meta.TypeDecimal
	case "VARCHAR2", "NVARCHAR2", "CHAR", "NCHAR":
		return meta.TypeVarchar
	case "CLOB", "NCLOB", "LONG":
		return meta.TypeText
	case "DATE":
		return meta.TypeDate
	default:
		if strings.HasPrefix(strings.ToUpper(col.DataType), "TIMESTAMP") {
			return meta.TypeDateTime
		}
		return meta.TypeText
	}
}
