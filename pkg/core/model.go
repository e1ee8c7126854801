package core

// Table is one resolved table of the storage model.
type Table struct {
	// Name is the output name (the alias for copy directives).
	Name string `json:"name" yaml:"name"`
	// SourceName is the live table the columns were read from.
	SourceName      string   `json:"source_name" yaml:"source_name"`
	Columns         []Column `json:"columns" yaml:"columns"`
	Indexes         []Index  `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	PrimaryKeyNames []string `json:"primary_key_names,omitempty" yaml:"primary_key_names,omitempty"`
}

// Column is one resolved column.
type Column struct {
	Name         string   `json:"name" yaml:"name"`
	Datatype     Datatype `json:"datatype" yaml:"datatype"`
	Nullable     bool     `json:"nullable" yaml:"nullable"`
	MaxLength    *int     `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	IsPrimaryKey bool     `json:"is_primary_key" yaml:"is_primary_key"`
}

// Index is carried verbatim from the mapping document.
type Index struct {
	Name        string   `json:"name" yaml:"name"`
	ColumnNames []string `json:"column_names" yaml:"column_names"`
	Unique      bool     `json:"unique" yaml:"unique"`
	Condition   string   `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// ColumnNames returns the names of the table's columns in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
