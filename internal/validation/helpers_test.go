package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/internal/catalog"
	"github.com/leapstack-labs/leapschema/internal/mapping"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

const minimalDocument = `
output:
  schema_file: db/schema/100-base-schema.sql
  models_directory: models
  models_namespace: intermediate
schema:
  global:
    columns: {}
    tables: {}
  tables:
    users:
      columns:
        include: [id, username]
components: []
`

// newSource parses doc with a base directory that holds the output
// directories the minimal document refers to.
func newSource(t *testing.T, doc string) *mapping.Source {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "db", "schema"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0o755))

	src, err := mapping.Parse([]byte(doc), dir)
	require.NoError(t, err)
	return src
}

// snapshotOf builds metadata from table name to column names.
func snapshotOf(tables map[string][]string) *catalog.Snapshot {
	md := make(map[string]catalog.TableMetadata, len(tables))
	for name, cols := range tables {
		infos := make([]core.ColumnInfo, len(cols))
		for i, c := range cols {
			infos[i] = core.ColumnInfo{Name: c, NativeType: core.NativeText, Nullable: true, Position: i + 1}
		}
		md[name] = catalog.TableMetadata{Columns: infos}
	}
	return catalog.New(md)
}

func defaultSnapshot() *catalog.Snapshot {
	return snapshotOf(map[string][]string{
		"users":      {"id", "username"},
		"categories": {"id", "name"},
		"topics":     {"id", "title"},
	})
}

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func validate(t *testing.T, doc string, meta Metadata, active []string) *Report {
	t.Helper()
	report, err := newValidator(t).Validate(newSource(t, doc), meta, active)
	require.NoError(t, err)
	return report
}
