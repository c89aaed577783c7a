package engine

import (
	"testing"

	"github.com/tablekit/tablekit/internal/meta"
)

func TestDefaultLiteral(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name   string
		col    meta.Column
		want   string
		wantOK bool
	}{
		{
			name: "no default",
			col:  meta.Column{Name: "n", Type: meta.TypeInt},
		},
		{
			name:   "int bare",
			col:    meta.Column{Name: "n", Type: meta.TypeInt, Default: strPtr("42")},
			want:   "42",
			wantOK: true,
		},
		{
			name:   "decimal bare",
			col:    meta.Column{Name: "n", Type: meta.TypeDecimal, Default: strPtr("9.99")},
			want:   "9.99",
			wantOK: true,
		},
		{
			name:   "boolean bare",
			col:    meta.Column{Name: "b", Type: meta.TypeBoolean, Default: strPtr("1")},
			want:   "1",
			wantOK: true,
		},
		{
			name:   "varchar quoted",
			col:    meta.Column{Name: "s", Type: meta.TypeVarchar, Default: strPtr("ENSP Yaounde")},
			want:   "'ENSP Yaounde'",
			wantOK: true,
		},
		{
			name:   "embedded quote doubled",
			col:    meta.Column{Name: "s", Type: meta.TypeText, Default: strPtr("O'Brien")},
			want:   "'O''Brien'",
			wantOK: true,
		},
		{
			name:   "date keyword",
			col:    meta.Column{Name: "d", Type: meta.TypeDate, Default: strPtr("today")},
			want:   "CURRENT_DATE",
			wantOK: true,
		},
		{
			name:   "date normalized and quoted",
			col:    meta.Column{Name: "d", Type: meta.TypeDate, Default: strPtr("25/12/2024")},
			want:   "'2024-12-25'",
			wantOK: true,
		},
		{
			name:   "datetime keyword",
			col:    meta.Column{Name: "dt", Type: meta.TypeDateTime, Default: strPtr("now")},
			want:   "CURRENT_TIMESTAMP",
			wantOK: true,
		},
		{
			name:   "datetime normalized and quoted",
			col:    meta.Column{Name: "dt", Type: meta.TypeDateTime, Default: strPtr("25/12/2024 08:30:00")},
			want:   "'2024-12-25 08:30:00'",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DefaultLiteral(tt.col)
			if ok != tt.wantOK {
				t.Fatalf("DefaultLiteral() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("DefaultLiteral() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuoteStringLiteral(t *testing.T) {
	if got := QuoteStringLiteral("a'b"); got != "'a''b'" {
		t.Errorf("QuoteStringLiteral(\"a'b\") = %q", got)
	}
}
