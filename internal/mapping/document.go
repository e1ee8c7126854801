// Package mapping holds the schema-mapping document: its typed form, the
// loader that reads it from YAML, and the global overrides derived from it.
package mapping

// DirectiveMode tells how a table's real columns are selected.
type DirectiveMode int

// Directive modes.
const (
	// ModeInclude selects only the listed columns. It is the default when a
	// directive names neither include nor exclude.
	ModeInclude DirectiveMode = iota
	// ModeExclude selects every column except the listed ones.
	ModeExclude
)

func (m DirectiveMode) String() string {
	if m == ModeExclude {
		return "exclude"
	}
	return "include"
}

// Document is the typed form of a schema-mapping document.
type Document struct {
	Output     Output   `mapstructure:"output"`
	Schema     Schema   `mapstructure:"schema"`
	Components []string `mapstructure:"components"`
}

// Output describes where generated artifacts are written.
type Output struct {
	SchemaFile      string `mapstructure:"schema_file"`
	ModelsDirectory string `mapstructure:"models_directory"`
	ModelsNamespace string `mapstructure:"models_namespace"`
}

// Schema holds the global section and the per-table directives.
type Schema struct {
	Global GlobalConfig           `mapstructure:"global"`
	Tables map[string]TableConfig `mapstructure:"tables"`
}

// GlobalConfig is the schema.global section.
type GlobalConfig struct {
	Tables  GlobalTables  `mapstructure:"tables"`
	Columns GlobalColumns `mapstructure:"columns"`
}

// GlobalTables lists tables excluded everywhere.
type GlobalTables struct {
	Exclude []string `mapstructure:"exclude"`
}

// GlobalColumns lists columns excluded from every table and datatype
// overrides applied by column name.
type GlobalColumns struct {
	Exclude []string      `mapstructure:"exclude"`
	Modify  []GlobalModify `mapstructure:"modify"`
}

// GlobalModify overrides the datatype of every column matching Name or
// NameRegex. Exactly one of the two is set.
type GlobalModify struct {
	Name      string `mapstructure:"name"`
	NameRegex string `mapstructure:"name_regex"`
	Datatype  string `mapstructure:"datatype"`
}

// TableConfig is one entry of schema.tables. CopyOf and Columns are
// mutually exclusive.
type TableConfig struct {
	CopyOf  string            `mapstructure:"copy_of"`
	Columns *ColumnDirectives `mapstructure:"columns"`
	Indexes []IndexSpec       `mapstructure:"indexes"`
}

// IsCopy reports whether the entry aliases another table.
func (t TableConfig) IsCopy() bool {
	return t.CopyOf != ""
}

// ColumnDirectives classifies the columns of one table.
type ColumnDirectives struct {
	// Mode is derived from which of include/exclude the document names.
	Mode    DirectiveMode `mapstructure:"-"`
	Include []string      `mapstructure:"include"`
	Exclude []string      `mapstructure:"exclude"`
	Modify  []ColumnSpec  `mapstructure:"modify"`
	Add     []ColumnSpec  `mapstructure:"add"`
}

// ModifiedNames returns the names of modified columns in document order.
func (d *ColumnDirectives) ModifiedNames() []string {
	return specNames(d.Modify)
}

// AddedNames returns the names of added columns in document order.
func (d *ColumnDirectives) AddedNames() []string {
	return specNames(d.Add)
}

// ModifyFor returns the table-level datatype override of a column.
func (d *ColumnDirectives) ModifyFor(name string) (string, bool) {
	for _, spec := range d.Modify {
		if spec.Name == name {
			return spec.Datatype, true
		}
	}
	return "", false
}

// ColumnSpec names a column and its datatype. Nullable and MaxLength only
// apply to added columns.
type ColumnSpec struct {
	Name      string `mapstructure:"name"`
	Datatype  string `mapstructure:"datatype"`
	Nullable  *bool  `mapstructure:"nullable"`
	MaxLength *int   `mapstructure:"max_length"`
}

// IndexSpec is an index to create on the resolved table.
type IndexSpec struct {
	Name      string   `mapstructure:"name"`
	Columns   []string `mapstructure:"columns"`
	Unique    bool     `mapstructure:"unique"`
	Condition string   `mapstructure:"condition"`
}

// SortedTableNames returns the configured table names in lexical order.
func (d *Document) SortedTableNames() []string {
	return sortedKeys(d.Schema.Tables)
}

func specNames(specs []ColumnSpec) []string {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}
	return names
}
