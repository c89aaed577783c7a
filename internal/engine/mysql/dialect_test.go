package mysql

import (
	"testing"

	"github.com/tablekit/tablekit/internal/meta"
)

func intPtr(v int) *int { return &v }

func TestQuoteIdentifier(t *testing.T) {
	e := &Engine{}
	if got := e.QuoteIdentifier("we`ird"); got != "`we``ird`" {
		t.Errorf("QuoteIdentifier = %s", got)
	}
}

func TestColumnTypeSQL(t *testing.T) {
	e := &Engine{}
	tests := []struct {
		col  meta.Column
		want string
	}{
		{meta.Column{Type: meta.TypeInt}, "INT"},
		{meta.Column{Type: meta.TypeVarchar, Length: intPtr(80)}, "VARCHAR(80)"},
		{meta.Column{Type: meta.TypeVarchar}, "VARCHAR(255)"},
		{meta.Column{Type: meta.TypeText}, "TEXT"},
		{meta.Column{Type: meta.TypeText, Length: intPtr(500)}, "TEXT(500)"},
		{meta.Column{Type: meta.TypeDate}, "DATE"},
		{meta.Column{Type: meta.TypeDateTime}, "DATETIME"},
		{meta.Column{Type: meta.TypeBoolean}, "BOOLEAN"},
		{meta.Column{Type: meta.TypeDecimal}, "DECIMAL(10,2)"},
	}

	for _, tt := range tests {
		if got := e.ColumnTypeSQL(tt.col); got != tt.want {
			t.Errorf("ColumnTypeSQL(%s) = %q, want %q", tt.col.Type, got, tt.want)
		}
	}
}

func TestMapMySQLType(t *testing.T) {
	tests := []struct {
		in   string
		want meta.ColumnType
	}{
		{"int", meta.TypeInt},
		{"bigint", meta.TypeInt},
		{"varchar", meta.TypeVarchar},
		{"longtext", meta.TypeText},
		{"date", meta.TypeDate},
		{"timestamp", meta.TypeDateTime},
		{"bit", meta.TypeBoolean},
		{"double", meta.TypeDecimal},
		{"json", meta.TypeText},
	}

	for _, tt := range tests {
		if got := mapMySQLType(tt.in); got != tt.want {
			t.Errorf("mapMySQLType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
