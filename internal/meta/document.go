package meta

// DatabaseDoc is the exported schema document for a whole database.
type DatabaseDoc struct {
	Name   string              `json:"name"`
	Type   string              `json:"type"`
	Tables map[string]TableDoc `json:"tables"`
}

// TableDoc is the schema document entry for a single table.
type TableDoc struct {
	Name          string               `json:"name"`
	Columns       map[string]ColumnDoc `json:"columns"`
	UniqueColumns map[string][]string  `json:"unique_columns"`
}

// ColumnDoc is the schema document entry for a single column. The foreign
// key fields are present only for foreign key columns. Default carries the
// engine's native default literal.
type ColumnDoc struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Length        *int    `json:"length"`
	Nullable      bool    `json:"nullable"`
	PrimaryKey    bool    `json:"primary_key"`
	Unique        bool    `json:"unique"`
	Default       *string `json:"default"`
	ForeignTable  string  `json:"foreign_table,omitempty"`
	ForeignColumn string  `json:"foreign_column,omitempty"`
	OnDelete      string  `json:"on_delete,omitempty"`
	OnUpdate      string  `json:"on_update,omitempty"`
}

// Doc converts a column descriptor into its document form.
func (c Column) Doc() ColumnDoc {
	doc := ColumnDoc{
		Name:       c.Name,
		Type:       string(c.Type),
		Length:     c.Length,
		Nullable:   c.Nullable,
		PrimaryKey: c.PrimaryKey,
		Unique:     c.Unique,
		Default:    c.Default,
	}
	if fk := c.ForeignKey; fk != nil {
		doc.ForeignTable = fk.Table
		doc.ForeignColumn = fk.Column
		doc.OnDelete = string(fk.OnDelete)
		doc.OnUpdate = string(fk.OnUpdate)
	}
	return doc
}

// Doc converts a table descriptor into its document form.
func (t *TableInfo) Doc() TableDoc {
	doc := TableDoc{
		Name:          t.Name,
		Columns:       make(map[string]ColumnDoc, len(t.Columns)),
		UniqueColumns: make(map[string][]string, len(t.UniqueConstraints)),
	}
	for _, col := range t.Columns {
		doc.Columns[col.Name] = col.Doc()
	}
	for _, uc := range t.UniqueConstraints {
		cols := make([]string, len(uc.Columns))
		copy(cols, uc.Columns)
		doc.UniqueColumns[uc.Name] = cols
	}
	return doc
}
