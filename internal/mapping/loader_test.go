package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	src, err := Load(filepath.Join("testdata", "forum.yml"))
	require.NoError(t, err)

	abs, err := filepath.Abs("testdata")
	require.NoError(t, err)
	assert.Equal(t, abs, src.Dir)
	assert.Contains(t, src.Raw, "schema")

	doc, err := src.Decode()
	require.NoError(t, err)

	assert.Equal(t, "intermediate", doc.Output.ModelsNamespace)
	assert.Equal(t, []string{"poll", "chat"}, doc.Components)
	assert.Equal(t, []string{"goose_db_version", "user_auth_tokens"}, doc.Schema.Global.Tables.Exclude)
	assert.Equal(t, []string{"post_drafts", "posts", "topic_users", "topics", "users"}, doc.SortedTableNames())

	users := doc.Schema.Tables["users"]
	require.NotNil(t, users.Columns)
	assert.Equal(t, ModeInclude, users.Columns.Mode)
	assert.Equal(t, []string{"trust_level"}, users.Columns.ModifiedNames())
	require.Len(t, users.Indexes, 1)
	assert.Equal(t, []string{"username"}, users.Indexes[0].Columns, "single column name is wrapped in a list")
	assert.True(t, users.Indexes[0].Unique)

	topics := doc.Schema.Tables["topics"]
	assert.Equal(t, ModeExclude, topics.Columns.Mode)
	require.Len(t, topics.Columns.Add, 1)
	require.NotNil(t, topics.Columns.Add[0].Nullable)
	assert.False(t, *topics.Columns.Add[0].Nullable)

	posts := doc.Schema.Tables["posts"]
	assert.Equal(t, ModeExclude, posts.Columns.Mode, "an empty exclude list still selects exclude mode")
	assert.Empty(t, posts.Columns.Exclude)

	drafts := doc.Schema.Tables["post_drafts"]
	assert.True(t, drafts.IsCopy())
	assert.Equal(t, "posts", drafts.CopyOf)
	assert.Nil(t, drafts.Columns)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load mapping document")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantMode DirectiveMode
	}{
		{
			name:     "include",
			yaml:     "schema:\n  tables:\n    users:\n      columns:\n        include: [id]\n",
			wantMode: ModeInclude,
		},
		{
			name:     "exclude",
			yaml:     "schema:\n  tables:\n    users:\n      columns:\n        exclude: [id]\n",
			wantMode: ModeExclude,
		},
		{
			name:     "neither defaults to include",
			yaml:     "schema:\n  tables:\n    users:\n      columns:\n        add: [{name: x, datatype: text}]\n",
			wantMode: ModeInclude,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse([]byte(tt.yaml), ".")
			require.NoError(t, err)

			doc, err := src.Decode()
			require.NoError(t, err)

			users := doc.Schema.Tables["users"]
			require.NotNil(t, users.Columns)
			assert.Equal(t, tt.wantMode, users.Columns.Mode)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("schema: [unterminated"), ".")
	require.Error(t, err)
}

func TestLoad_RelativeDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yml")
	require.NoError(t, os.WriteFile(path, []byte("components: []\n"), 0o600))

	src, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, src.Dir)
	assert.Equal(t, path, src.Path)
}

func TestColumnDirectives_ModifyFor(t *testing.T) {
	d := &ColumnDirectives{
		Modify: []ColumnSpec{{Name: "username", Datatype: "integer"}},
		Add:    []ColumnSpec{{Name: "legacy_id", Datatype: "text"}},
	}

	dt, ok := d.ModifyFor("username")
	assert.True(t, ok)
	assert.Equal(t, "integer", dt)

	_, ok = d.ModifyFor("id")
	assert.False(t, ok)

	assert.Equal(t, []string{"legacy_id"}, d.AddedNames())
	assert.Equal(t, "exclude", ModeExclude.String())
	assert.Equal(t, "include", ModeInclude.String())
}
