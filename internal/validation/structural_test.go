package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

func TestStructuralValidator_Valid(t *testing.T) {
	v, err := NewStructuralValidator()
	require.NoError(t, err)

	ds, err := v.Check(newSource(t, minimalDocument).Raw)
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestStructuralValidator_Violations(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected []string
		code     Code
	}{
		{
			name: "missing required properties",
			doc:  "{}",
			expected: []string{
				"object at root is missing required properties: output, schema, components",
			},
			code: CodeStructural,
		},
		{
			name: "nested missing required properties",
			doc: `
output: {schema_file: a.sql, models_directory: models, models_namespace: models}
schema:
  tables:
    users: {columns: {include: [id]}}
`,
			expected: []string{
				"object at root is missing required properties: components",
				"object at `/schema` is missing required properties: global",
			},
			code: CodeStructural,
		},
		{
			name: "datatype mismatch",
			doc:  strings.Replace(minimalDocument, "models_namespace: intermediate", "models_namespace: 123", 1),
			expected: []string{
				"value at `/output/models_namespace` is not a string",
			},
			code: CodeStructural,
		},
		{
			name: "include and exclude together",
			doc:  strings.Replace(minimalDocument, "include: [id, username]", "{include: [id], exclude: [username]}", 1),
			expected: []string{
				"`include` and `exclude` can't be used together at `/schema/tables/users/columns`",
			},
			code: CodeIncludeExcludeNotAllowed,
		},
		{
			name: "copy and columns together",
			doc: strings.Replace(minimalDocument, "    users:\n", "    drafts:\n      copy_of: users\n      columns: {include: [id]}\n    users:\n", 1),
			expected: []string{
				"table at `/schema/tables/drafts` must define exactly one of `copy_of` or `columns`",
			},
			code: CodeStructural,
		},
		{
			name: "empty table entry",
			doc:  strings.Replace(minimalDocument, "components: []", "    topics: {}\ncomponents: []", 1),
			expected: []string{
				"table at `/schema/tables/topics` must define exactly one of `copy_of` or `columns`",
			},
			code: CodeStructural,
		},
	}

	v, err := NewStructuralValidator()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := v.Check(newSource(t, tt.doc).Raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Messages(ds))
			for _, d := range ds {
				assert.Equal(t, tt.code, d.Code)
			}
		})
	}
}

func TestStructuralValidator_UnknownDatatype(t *testing.T) {
	doc := strings.Replace(minimalDocument, "include: [id, username]", "{include: [id], modify: [{name: username, datatype: varchar}]}", 1)

	v, err := NewStructuralValidator()
	require.NoError(t, err)

	ds, err := v.Check(newSource(t, doc).Raw)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, CodeStructural, ds[0].Code)
	assert.Equal(t, "/schema/tables/users/columns/modify/0/datatype", ds[0].Path)
}

func TestStructuralValidator_DatatypeEnumMatchesCore(t *testing.T) {
	for _, name := range core.KnownDatatypeNames() {
		t.Run(name, func(t *testing.T) {
			doc := strings.Replace(minimalDocument, "include: [id, username]",
				"{include: [id], modify: [{name: username, datatype: "+name+"}]}", 1)

			v, err := NewStructuralValidator()
			require.NoError(t, err)

			ds, err := v.Check(newSource(t, doc).Raw)
			require.NoError(t, err)
			assert.Empty(t, ds)
		})
	}
}

func TestPointer(t *testing.T) {
	assert.Equal(t, "", pointer(nil))
	assert.Equal(t, "/schema/tables", pointer([]string{"schema", "tables"}))
	assert.Equal(t, "/a~1b/c~0d", pointer([]string{"a/b", "c~d"}))
}
