package oracle

import (
	"testing"

	"github.com/tablekit/tablekit/internal/meta"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestQuoteIdentifier(t *testing.T) {
	e := &Engine{}
	if got := e.QuoteIdentifier(`we"ird`); got != `"we""ird"` {
		t.Errorf("QuoteIdentifier = %s", got)
	}
}

func TestColumnTypeSQL(t *testing.T) {
	e := &Engine{}
	tests := []struct {
		col  meta.Column
		want string
	}{
		{meta.Column{Type: meta.TypeInt}, "NUMBER(10)"},
		{meta.Column{Type: meta.TypeVarchar, Length: intPtr(80)}, "VARCHAR2(80 CHAR)"},
		{meta.Column{Type: meta.TypeVarchar}, "VARCHAR2(255 CHAR)"},
		{meta.Column{Type: meta.TypeText}, "CLOB"},
		{meta.Column{Type: meta.TypeText, Length: intPtr(500)}, "VARCHAR2(500 CHAR)"},
		{meta.Column{Type: meta.TypeDate}, "DATE"},
		{meta.Column{Type: meta.TypeDateTime}, "TIMESTAMP"},
		{meta.Column{Type: meta.TypeBoolean}, "NUMBER(1)"},
		{meta.Column{Type: meta.TypeDecimal}, "NUMBER(18,2)"},
	}

	for _, tt := range tests {
		if got := e.ColumnTypeSQL(tt.col); got != tt.want {
			t.Errorf("ColumnTypeSQL(%s) = %q, want %q", tt.col.Type, got, tt.want)
		}
	}
}

func TestMapOracleType(t *testing.T) {
	tests := []struct {
		name string
		col  columnRow
		want meta.ColumnType
	}{
		{"number scale zero is int", columnRow{DataType: "NUMBER", DataScale: int64Ptr(0)}, meta.TypeInt},
		{"number nil scale is int", columnRow{DataType: "NUMBER"}, meta.TypeInt},
		{"number(1) is boolean", columnRow{DataType: "NUMBER", DataPrecision: int64Ptr(1)}, meta.TypeBoolean},
		{"number with scale is decimal", columnRow{DataType: "NUMBER", DataPrecision: int64Ptr(18), DataScale: int64Ptr(2)}, meta.TypeDecimal},
		{"varchar2", columnRow{DataType: "VARCHAR2"}, meta.TypeVarchar},
		{"clob", columnRow{DataType: "CLOB"}, meta.TypeText},
		{"date", columnRow{DataType: "DATE"}, meta.TypeDate},
		{"timestamp variants", columnRow{DataType: "TIMESTAMP(6) WITH TIME ZONE"}, meta.TypeDateTime},
		{"binary_double", columnRow{DataType: "BINARY_DOUBLE"}, meta.TypeDecimal},
		{"raw falls back to text", columnRow{DataType: "RAW"}, meta.TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapOracleType(tt.col); got != tt.want {
				t.Errorf("mapOracleType(%+v) = %q, want %q", tt.col, got, tt.want)
			}
		})
	}
}
