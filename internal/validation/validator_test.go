package validation

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/internal/testutil"
)

func TestValidate_MinimalDocument(t *testing.T) {
	report := validate(t, minimalDocument, snapshotOf(map[string][]string{"users": {"id", "username"}}), nil)

	assert.True(t, report.OK())
	assert.False(t, report.Structural)
	require.NotNil(t, report.Document)
	require.NotNil(t, report.Globals)
}

func TestValidate_StructuralGate(t *testing.T) {
	// Both a structural violation and a component mismatch; only the
	// structural one is reported.
	doc := strings.Replace(minimalDocument, "include: [id, username]", "{include: [id], exclude: [username]}", 1)

	report := validate(t, doc, defaultSnapshot(), []string{"chat"})

	assert.True(t, report.Structural)
	assert.Nil(t, report.Document)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, CodeIncludeExcludeNotAllowed, report.Discrepancies[0].Code)
}

func TestValidate_Tables(t *testing.T) {
	tests := []struct {
		name     string
		tables   string
		global   string
		expected []string
	}{
		{
			name:   "every table configured or excluded",
			tables: "users: {columns: {include: [id, username]}}\n    topics: {columns: {include: [id, title]}}",
			global: "tables: {exclude: [categories]}",
		},
		{
			name:     "table not configured",
			tables:   "users: {columns: {include: [id, username]}}",
			global:   "tables: {exclude: [categories]}",
			expected: []string{"table not configured: topics"},
		},
		{
			name:   "excluded table configured",
			tables: "users: {columns: {include: [id, username]}}\n    topics: {columns: {include: [id, title]}}\n    categories: {columns: {include: [id, name]}}",
			global: "tables: {exclude: [users]}",
			expected: []string{
				"excluded table configured: users",
			},
		},
		{
			name:   "excluded tables missing",
			tables: "users: {columns: {include: [id, username]}}\n    topics: {columns: {include: [id, title]}}",
			global: "tables: {exclude: [categories, foo, bar]}",
			expected: []string{
				"excluded table missing: bar, foo",
			},
		},
		{
			name:   "configured table missing",
			tables: "users: {columns: {include: [id, username]}}\n    topics: {columns: {include: [id, title]}}\n    posts: {columns: {include: [id]}}",
			global: "tables: {exclude: [categories]}",
			expected: []string{
				"configured table missing: posts",
			},
		},
		{
			name:   "copy source missing",
			tables: "users: {columns: {include: [id, username]}}\n    topics: {columns: {include: [id, title]}}\n    drafts: {copy_of: posts}",
			global: "tables: {exclude: [categories]}",
			expected: []string{
				"copy source missing in table drafts: posts",
			},
		},
		{
			name:   "copy of an excluded table",
			tables: "users: {columns: {include: [id, username]}}\n    topics: {columns: {include: [id, title]}}\n    groups: {copy_of: categories}",
			global: "tables: {exclude: [categories]}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `
output: {schema_file: db/schema/base.sql, models_directory: models, models_namespace: intermediate}
schema:
  global:
    ` + tt.global + `
  tables:
    ` + tt.tables + `
components: []
`
			report := validate(t, doc, defaultSnapshot(), nil)
			assert.Equal(t, tt.expected, nilIfEmpty(Messages(report.Discrepancies)))
		})
	}
}

func TestValidate_Columns(t *testing.T) {
	meta := snapshotOf(map[string][]string{"users": {"id", "username", "created_at", "updated_at"}})

	tests := []struct {
		name     string
		columns  string
		global   string
		expected []string
	}{
		{
			name:    "all columns included",
			columns: "include: [id, username, created_at, updated_at]",
		},
		{
			name:     "not all columns configured",
			columns:  "include: [id, username]",
			expected: []string{"not all columns configured in table users: created_at, updated_at"},
		},
		{
			name:    "global exclusions cover the rest",
			columns: "include: [id, username]",
			global:  "columns: {exclude: [created_at, updated_at]}",
		},
		{
			name:    "modified column also included",
			columns: "include: [id, username, created_at, updated_at]\n        modify: [{name: username, datatype: integer}]",
			expected: []string{
				"modified column also included in table users: username",
			},
		},
		{
			name:    "modify completes coverage",
			columns: "include: [id, created_at, updated_at]\n        modify: [{name: username, datatype: integer}]",
		},
		{
			name:    "modified column also excluded",
			columns: "exclude: [username]\n        modify: [{name: username, datatype: text}]",
			expected: []string{
				"modified column also excluded in table users: username",
			},
		},
		{
			name:    "modified column globally excluded",
			columns: "exclude: []\n        modify: [{name: updated_at, datatype: text}]",
			global:  "columns: {exclude: [updated_at]}",
			expected: []string{
				"modified column globally excluded in table users: updated_at",
			},
		},
		{
			name:    "included column globally excluded",
			columns: "include: [id, username, created_at, updated_at]",
			global:  "columns: {exclude: [created_at]}",
			expected: []string{
				"included column globally excluded in table users: created_at",
			},
		},
		{
			name:    "excluded column also globally excluded",
			columns: "exclude: [created_at]",
			global:  "columns: {exclude: [created_at]}",
		},
		{
			name:    "missing columns",
			columns: "include: [id, username, created_at, updated_at, foo, bar]\n        modify: [{name: baz, datatype: text}]",
			expected: []string{
				"included column missing in table users: bar, foo",
				"modified column missing in table users: baz",
			},
		},
		{
			name:    "excluded column missing",
			columns: "exclude: [foo]",
			expected: []string{
				"excluded column missing in table users: foo",
			},
		},
		{
			name:    "added column already exists",
			columns: "exclude: []\n        add: [{name: username, datatype: text}, {name: legacy_id, datatype: integer}]",
			expected: []string{
				"added column already exists in table users: username",
			},
		},
		{
			name:     "everything excluded",
			columns:  "exclude: [id, username, created_at, updated_at]",
			expected: []string{"no columns configured in table users"},
		},
		{
			name:     "everything globally excluded",
			columns:  "exclude: [id, username]",
			global:   "columns: {exclude: [created_at, updated_at]}",
			expected: []string{"no columns configured in table users"},
		},
		{
			name:    "everything excluded but columns added",
			columns: "exclude: [id, username, created_at, updated_at]\n        add: [{name: legacy_id, datatype: integer}]",
		},
		{
			name:     "empty include list",
			columns:  "include: []",
			expected: []string{"no columns configured in table users"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			global := tt.global
			if global == "" {
				global = "tables: {}"
			}
			doc := `
output: {schema_file: db/schema/base.sql, models_directory: models, models_namespace: intermediate}
schema:
  global:
    ` + global + `
  tables:
    users:
      columns:
        ` + tt.columns + `
components: []
`
			report := validate(t, doc, meta, nil)
			assert.Equal(t, tt.expected, nilIfEmpty(Messages(report.Discrepancies)))
		})
	}
}

func TestValidate_TableWithoutColumns(t *testing.T) {
	meta := snapshotOf(map[string][]string{
		"users":    {"id", "username"},
		"settings": {},
	})

	tests := []struct {
		name     string
		columns  string
		expected []string
	}{
		{
			name:    "only added columns",
			columns: "exclude: []\n        add: [{name: key, datatype: text}, {name: value, datatype: text}]",
		},
		{
			name:     "nothing configured",
			columns:  "exclude: []",
			expected: []string{"no columns configured in table settings"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `
output: {schema_file: db/schema/base.sql, models_directory: models, models_namespace: intermediate}
schema:
  global:
    tables: {}
  tables:
    users:
      columns:
        include: [id, username]
    settings:
      columns:
        ` + tt.columns + `
components: []
`
			report := validate(t, doc, meta, nil)
			assert.Equal(t, tt.expected, nilIfEmpty(Messages(report.Discrepancies)))
		})
	}
}

func TestValidate_GlobalColumns(t *testing.T) {
	doc := `
output: {schema_file: db/schema/base.sql, models_directory: models, models_namespace: intermediate}
schema:
  global:
    columns:
      exclude: [foo, username, bar]
      modify:
        - {name: foo, datatype: text}
        - {name: id, datatype: text}
        - {name_regex: "bar.*", datatype: text}
        - {name_regex: "user.*", datatype: integer}
        - {name_regex: "(", datatype: integer}
  tables:
    users:
      columns:
        include: [id]
components: []
`
	report := validate(t, doc, snapshotOf(map[string][]string{"users": {"id", "username"}}), nil)

	codes := make([]Code, len(report.Discrepancies))
	for i, d := range report.Discrepancies {
		codes[i] = d.Code
	}
	assert.Equal(t, []Code{CodeInvalidNameRegex, CodeGlobalExcludedColumnsMissing, CodeGlobalModifiedColumnsMissing}, codes)
	assert.Equal(t, []string{"("}, report.Discrepancies[0].Names)
	assert.Equal(t, "globally excluded column missing: bar, foo", report.Discrepancies[1].Message())
	assert.Equal(t, "globally modified column matches no column: /bar.*/, foo", report.Discrepancies[2].Message())
}

func TestValidate_Components(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		active     []string
		expected   []string
	}{
		{
			name:       "matching",
			configured: "[poll]",
			active:     []string{"poll"},
		},
		{
			name:       "additional active",
			configured: "[poll]",
			active:     []string{"poll", "footnote", "chat"},
			expected:   []string{"additional components active: chat, footnote"},
		},
		{
			name:       "configured not active",
			configured: "[poll, chat, footnote, foo]",
			active:     []string{"poll", "chat", "footnote"},
			expected:   []string{"configured components not active: foo"},
		},
		{
			name:       "both directions",
			configured: "[poll, foo, bar]",
			active:     []string{"poll", "footnote"},
			expected: []string{
				"additional components active: footnote",
				"configured components not active: bar, foo",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(minimalDocument, "components: []", "components: "+tt.configured, 1)
			report := validate(t, doc, snapshotOf(map[string][]string{"users": {"id", "username"}}), tt.active)
			assert.Equal(t, tt.expected, nilIfEmpty(Messages(report.Discrepancies)))
		})
	}
}

func TestValidate_AccumulatesAcrossValidators(t *testing.T) {
	doc := `
output: {schema_file: nowhere/base.sql, models_directory: models, models_namespace: intermediate}
schema:
  global:
    tables: {exclude: [categories]}
  tables:
    users:
      columns:
        include: [id]
components: [poll]
`
	report := validate(t, doc, defaultSnapshot(), nil)

	assert.Equal(t, []string{
		"schema file directory not found: nowhere",
		"table not configured: topics",
		"not all columns configured in table users: username",
		"configured components not active: poll",
	}, Messages(report.Discrepancies))
}

func TestValidate_Idempotent(t *testing.T) {
	doc := `
output: {schema_file: db/schema/base.sql, models_directory: missing, models_namespace: Intermediate}
schema:
  global:
    tables: {exclude: [foo, bar]}
    columns: {exclude: [zip, zap]}
  tables:
    users: {columns: {include: [id]}}
    topics: {columns: {exclude: [nope, title], modify: [{name: title, datatype: text}]}}
components: [b, a]
`
	v := newValidator(t)
	src := newSource(t, doc)
	meta := defaultSnapshot()
	active := []string{"d", "c"}

	first, err := v.Validate(src, meta, active)
	require.NoError(t, err)
	second, err := v.Validate(src, meta, active)
	require.NoError(t, err)

	require.NotEmpty(t, first.Discrepancies)
	assert.Equal(t, first.Discrepancies, second.Discrepancies)
}

func TestValidate_StatFailureIsSetupError(t *testing.T) {
	v, err := New(
		WithLogger(testutil.NewTestLogger(t)),
		WithStat(func(string) (fs.FileInfo, error) { return nil, fs.ErrPermission }),
	)
	require.NoError(t, err)

	_, err = v.Validate(newSource(t, minimalDocument), defaultSnapshot(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrPermission))
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
