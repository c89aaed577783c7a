package engine

import (
	"strings"

	"github.com/tablekit/tablekit/internal/meta"
)

// DefaultLiteral renders a column's default value as a SQL literal for DDL
// statements. Numeric and boolean defaults pass through bare; string-ish
// defaults are single-quoted; the date keywords resolve to the engine's
// current-date/current-timestamp expressions. Returns false when the column
// has no default.
func DefaultLiteral(col meta.Column) (string, bool) {
	if col.Default == nil {
		return "", false
	}
	v := *col.Default

	switch col.Type {
	case meta.TypeInt, meta.TypeDecimal, meta.TypeBoolean:
		return v, true
	case meta.TypeDate:
		if v == meta.DefaultCurrentDate {
			return "CURRENT_DATE", true
		}
		if n, err := meta.NormalizeDateDefault(v); err == nil {
			v = n
		}
		return QuoteStringLiteral(v), true
	case meta.TypeDateTime:
		if v == meta.DefaultCurrentTimestamp {
			return "CURRENT_TIMESTAMP", true
		}
		if n, err := meta.NormalizeDateTimeDefault(v); err == nil {
			v = n
		}
		return QuoteStringLiteral(v), true
	default:
		return QuoteStringLiteral(v), true
	}
}

// QuoteStringLiteral wraps a value in single quotes, doubling any embedded
// single quotes.
func QuoteStringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
