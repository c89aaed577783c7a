// Package meta defines the engine-agnostic metadata records used to describe
// relational schemas: column types, referential actions, column and table
// descriptors, and the JSON document shape produced by the schema exporter.
package meta

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ColumnType is the portable column type set. Each engine package maps these
// to its native type names and back during introspection.
type ColumnType string

const (
	TypeInt      ColumnType = "INT"
	TypeVarchar  ColumnType = "VARCHAR"
	TypeText     ColumnType = "TEXT"
	TypeDate     ColumnType = "DATE"
	TypeDateTime ColumnType = "DATETIME"
	TypeBoolean  ColumnType = "BOOLEAN"
	TypeDecimal  ColumnType = "DECIMAL"
)

// Length limits per type. VARCHAR and TEXT are the only variable-width types.
const (
	MaxVarcharLength = 255
	MaxTextLength    = 65535
)

// Default keywords accepted for DATE and DATETIME columns. They resolve to
// the engine's current-date/current-timestamp expression.
const (
	DefaultCurrentDate      = "today"
	DefaultCurrentTimestamp = "now"
)

// ParseColumnType converts a portable type name to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch t := ColumnType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeInt, TypeVarchar, TypeText, TypeDate, TypeDateTime, TypeBoolean, TypeDecimal:
		return t, nil
	default:
		return "", fmt.Errorf("unknown column type %q", s)
	}
}

// ReferentialAction is the behavior applied to dependent rows when a
// referenced row is deleted or updated.
type ReferentialAction string

const (
	Cascade    ReferentialAction = "CASCADE"
	SetNull    ReferentialAction = "SET NULL"
	Restrict   ReferentialAction = "RESTRICT"
	NoAction   ReferentialAction = "NO ACTION"
	SetDefault ReferentialAction = "SET DEFAULT"
)

// ParseReferentialAction converts a catalog rule string to a
// ReferentialAction. The empty string means NO ACTION.
func ParseReferentialAction(s string) ReferentialAction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NO ACTION":
		return NoAction
	case "CASCADE":
		return Cascade
	case "SET NULL":
		return SetNull
	case "RESTRICT":
		return Restrict
	case "SET DEFAULT":
		return SetDefault
	default:
		return NoAction
	}
}

// OrNoAction returns the action with the zero value treated as NO ACTION,
// so callers building DDL never emit an empty rule.
func (a ReferentialAction) OrNoAction() ReferentialAction {
	if a == "" {
		return NoAction
	}
	return a
}

// ForeignKeyRef describes the referenced side of a foreign key column.
type ForeignKeyRef struct {
	Table    string
	Column   string
	OnDelete ReferentialAction
	OnUpdate ReferentialAction
}

// Column describes a single column. ForeignKey is nil for plain columns.
// Default, when set, carries the engine's native default literal exactly as
// the catalog reports it.
type Column struct {
	Name       string
	Type       ColumnType
	Length     *int
	Nullable   bool
	PrimaryKey bool
	Unique     bool
	Default    *string
	ForeignKey *ForeignKeyRef
}

var (
	dateDMYSlash = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
	dateDMYDash  = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)
	dateYMDSlash = regexp.MustCompile(`^(\d{4})/(\d{2})/(\d{2})$`)
	dateYMDDash  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	timeSuffix   = regexp.MustCompile(` (\d{2}:\d{2}:\d{2})$`)
)

// Validate checks the descriptor's internal consistency: length rules per
// type, default-value typing, and the primary-key nullability invariant.
func (c Column) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("column name is required")
	}
	if _, err := ParseColumnType(string(c.Type)); err != nil {
		return err
	}

	if c.PrimaryKey && c.Nullable {
		return fmt.Errorf("column %q: a primary key column cannot be nullable", c.Name)
	}

	if c.Length != nil {
		if c.Type != TypeVarchar && c.Type != TypeText {
			return fmt.Errorf("column %q: length is not supported for type %s", c.Name, c.Type)
		}
		if *c.Length <= 0 {
			return fmt.Errorf("column %q: length must be positive", c.Name)
		}
		if c.Type == TypeText && *c.Length > MaxTextLength {
			return fmt.Errorf("column %q: maximum length for a TEXT column is %d", c.Name, MaxTextLength)
		}
		if c.Type == TypeVarchar && *c.Length > MaxVarcharLength {
			return fmt.Errorf("column %q: maximum length for a VARCHAR column is %d", c.Name, MaxVarcharLength)
		}
	}

	if c.Default != nil {
		if err := validateDefault(c.Type, *c.Default); err != nil {
			return fmt.Errorf("column %q: %w", c.Name, err)
		}
	}

	if c.ForeignKey != nil {
		if c.ForeignKey.Table == "" || c.ForeignKey.Column == "" {
			return fmt.Errorf("column %q: foreign key reference requires a table and column", c.Name)
		}
	}

	return nil
}

func validateDefault(t ColumnType, def string) error {
	switch t {
	case TypeInt:
		if _, err := strconv.ParseInt(def, 10, 64); err != nil {
			return fmt.Errorf("default %q is not an integer", def)
		}
	case TypeDecimal:
		if _, err := strconv.ParseFloat(def, 64); err != nil {
			return fmt.Errorf("default %q is not a decimal", def)
		}
	case TypeBoolean:
		switch strings.ToLower(def) {
		case "true", "false", "0", "1":
		default:
			return fmt.Errorf("default %q is not a boolean", def)
		}
	case TypeDate:
		if _, err := NormalizeDateDefault(def); err != nil {
			return err
		}
	case TypeDateTime:
		if _, err := NormalizeDateTimeDefault(def); err != nil {
			return err
		}
	}
	// VARCHAR and TEXT accept any string default.
	return nil
}

// NormalizeDateDefault converts an accepted date default to ISO yyyy-mm-dd
// form. Accepted inputs: dd/mm/yyyy, dd-mm-yyyy, yyyy/mm/dd, yyyy-mm-dd, and
// the keyword "today" (returned unchanged for the engine to resolve).
func NormalizeDateDefault(v string) (string, error) {
	if v == DefaultCurrentDate {
		return v, nil
	}
	if m := dateDMYSlash.FindStringSubmatch(v); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1], nil
	}
	if m := dateDMYDash.FindStringSubmatch(v); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1], nil
	}
	if m := dateYMDSlash.FindStringSubmatch(v); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3], nil
	}
	if dateYMDDash.MatchString(v) {
		return v, nil
	}
	return "", fmt.Errorf("default %q is not a supported DATE value", v)
}

// NormalizeDateTimeDefault converts an accepted datetime default to ISO
// "yyyy-mm-dd hh:mm:ss" form. Accepts the date forms of
// NormalizeDateDefault with an " hh:mm:ss" suffix, plus the keyword "now".
func NormalizeDateTimeDefault(v string) (string, error) {
	if v == DefaultCurrentTimestamp {
		return v, nil
	}
	m := timeSuffix.FindStringSubmatch(v)
	if m == nil {
		return "", fmt.Errorf("default %q is not a supported DATETIME value", v)
	}
	datePart := strings.TrimSuffix(v, m[0])
	normalized, err := NormalizeDateDefault(datePart)
	if err != nil {
		return "", fmt.Errorf("default %q is not a supported DATETIME value", v)
	}
	return normalized + " " + m[1], nil
}

// UniqueColumns is a named set of column names jointly constrained to unique
// combinations.
type UniqueColumns struct {
	Name    string
	Columns []string
}

// TableInfo is the engine-agnostic description of a table: its columns in
// ordinal position order and its multi-column unique constraints.
type TableInfo struct {
	Name              string
	Columns           []Column
	UniqueConstraints []UniqueColumns
}

// Column returns the column with the given name, if present.
func (t *TableInfo) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Validate checks the table descriptor: non-empty name, valid columns,
// unique column names, and unique-constraint references to real columns.
func (t *TableInfo) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table name is required")
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if err := col.Validate(); err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
		if seen[col.Name] {
			return fmt.Errorf("table %q: duplicate column %q", t.Name, col.Name)
		}
		seen[col.Name] = true
	}
	for _, uc := range t.UniqueConstraints {
		for _, name := range uc.Columns {
			if !seen[name] {
				return fmt.Errorf("table %q: unique constraint %q references unknown column %q", t.Name, uc.Name, name)
			}
		}
	}
	return nil
}
