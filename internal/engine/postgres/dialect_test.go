package postgres

import (
	"testing"

	"github.com/tablekit/tablekit/internal/meta"
)

func intPtr(v int) *int { return &v }

func TestQuoteIdentifier(t *testing.T) {
	e := &Engine{}
	if got := e.QuoteIdentifier(`we"ird`); got != `"we""ird"` {
		t.Errorf("QuoteIdentifier = %s", got)
	}
}

func TestQualified(t *testing.T) {
	e := &Engine{schemaName: "public"}
	if got := e.qualified("Students"); got != `"public"."Students"` {
		t.Errorf("qualified = %s", got)
	}
}

func TestColumnTypeSQL(t *testing.T) {
	e := &Engine{}
	tests := []struct {
		col  meta.Column
		want string
	}{
		{meta.Column{Type: meta.TypeInt}, "INTEGER"},
		{meta.Column{Type: meta.TypeVarchar, Length: intPtr(80)}, "VARCHAR(80)"},
		{meta.Column{Type: meta.TypeVarchar}, "VARCHAR(255)"},
		{meta.Column{Type: meta.TypeText, Length: intPtr(500)}, "VARCHAR(500)"},
		{meta.Column{Type: meta.TypeText}, "TEXT"},
		{meta.Column{Type: meta.TypeDate}, "DATE"},
		{meta.Column{Type: meta.TypeDateTime}, "TIMESTAMP"},
		{meta.Column{Type: meta.TypeBoolean}, "BOOLEAN"},
		{meta.Column{Type: meta.TypeDecimal}, "NUMERIC"},
	}

	for _, tt := range tests {
		if got := e.ColumnTypeSQL(tt.col); got != tt.want {
			t.Errorf("ColumnTypeSQL(%s) = %q, want %q", tt.col.Type, got, tt.want)
		}
	}
}

func TestMapPostgresType(t *testing.T) {
	tests := []struct {
		in   string
		want meta.ColumnType
	}{
		{"int4", meta.TypeInt},
		{"bigserial", meta.TypeInt},
		{"varchar", meta.TypeVarchar},
		{"bpchar", meta.TypeVarchar},
		{"text", meta.TypeText},
		{"date", meta.TypeDate},
		{"timestamptz", meta.TypeDateTime},
		{"bool", meta.TypeBoolean},
		{"numeric", meta.TypeDecimal},
		{"jsonb", meta.TypeText},
	}

	for _, tt := range tests {
		if got := mapPostgresType(tt.in); got != tt.want {
			t.Errorf("mapPostgresType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
