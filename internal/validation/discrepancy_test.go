package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscrepancy_Message(t *testing.T) {
	tests := []struct {
		name     string
		d        Discrepancy
		expected string
	}{
		{
			name:     "names only",
			d:        Discrepancy{Code: CodeTablesNotConfigured, Names: []string{"posts", "tags"}},
			expected: "table not configured: posts, tags",
		},
		{
			name:     "table scoped",
			d:        Discrepancy{Code: CodeModifiedColumnsIncluded, Table: "users", Names: []string{"username"}},
			expected: "modified column also included in table users: username",
		},
		{
			name:     "table without names",
			d:        Discrepancy{Code: CodeNoColumnsConfigured, Table: "users"},
			expected: "no columns configured in table users",
		},
		{
			name:     "path",
			d:        Discrepancy{Code: CodeModelsDirectoryNotFound, Path: "lib/models"},
			expected: "models directory not found: lib/models",
		},
		{
			name:     "detail",
			d:        Discrepancy{Code: CodeInvalidNameRegex, Names: []string{"("}, Detail: "missing closing )"},
			expected: "invalid name_regex: ( (missing closing ))",
		},
		{
			name:     "structural",
			d:        Discrepancy{Code: CodeStructural, Path: "/schema", Detail: "object at `/schema` is missing required properties: global"},
			expected: "object at `/schema` is missing required properties: global",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.d.Message())
			assert.Equal(t, tt.expected, tt.d.String())
		})
	}
}

func TestEveryCodeHasALabel(t *testing.T) {
	codes := []Code{
		CodeInvalidNameRegex, CodeGlobalExcludedColumnsMissing, CodeGlobalModifiedColumnsMissing,
		CodeExcludedTablesMissing, CodeExcludedTablesConfigured, CodeTablesNotConfigured,
		CodeConfiguredTablesMissing, CodeCopySourceMissing, CodeAddedColumnsExist,
		CodeIncludedColumnsMissing, CodeExcludedColumnsMissing, CodeModifiedColumnsMissing,
		CodeModifiedColumnsIncluded, CodeModifiedColumnsExcluded, CodeModifiedColumnsGloballyExcluded,
		CodeIncludedColumnsGloballyExcluded,
		CodeNoColumnsConfigured, CodeNotAllColumnsConfigured, CodeAdditionalComponentsActive,
		CodeComponentsNotActive, CodeSchemaFileDirectoryNotFound, CodeModelsDirectoryNotFound,
		CodeModelsNamespaceInvalid,
	}
	for _, c := range codes {
		assert.NotEmpty(t, labels[c], "code %s", c)
	}
}

func TestCode_Label(t *testing.T) {
	assert.Equal(t, "structural violation", CodeStructural.Label())
	assert.Equal(t, "include and exclude both set", CodeIncludeExcludeNotAllowed.Label())
	assert.Equal(t, "table not configured", CodeTablesNotConfigured.Label())
	assert.Equal(t, "made_up", Code("made_up").Label())
}
