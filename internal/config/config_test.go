package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/pkg/adapter"
	"github.com/leapstack-labs/leapschema/pkg/core"

	_ "github.com/leapstack-labs/leapschema/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapschema/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapschema/pkg/adapters/sqlite"
)

func TestDefaultSchemaForType(t *testing.T) {
	tests := []struct {
		dbType string
		want   string
	}{
		{"postgres", "public"},
		{"duckdb", "main"},
		{"sqlite", "main"},
		{"DuckDB", "main"},
		{"unknown", "public"},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultSchemaForType(tt.dbType))
		})
	}
}

func TestApplyTargetDefaults(t *testing.T) {
	pg := &core.TargetConfig{Type: "Postgres", Host: "db"}
	ApplyTargetDefaults(pg)
	assert.Equal(t, "postgres", pg.Type)
	assert.Equal(t, "public", pg.Schema)
	assert.Equal(t, DefaultPostgresPort, pg.Port)

	duck := &core.TargetConfig{Type: "duckdb", Schema: "analytics"}
	ApplyTargetDefaults(duck)
	assert.Equal(t, "analytics", duck.Schema)
	assert.Zero(t, duck.Port)

	ApplyTargetDefaults(nil)
}

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  *core.TargetConfig
		wantErr string
	}{
		{name: "nil", target: nil, wantErr: "target is required"},
		{name: "missing type", target: &core.TargetConfig{}, wantErr: "target type is required"},
		{name: "unknown type", target: &core.TargetConfig{Type: "oracle"}, wantErr: "unknown adapter type"},
		{name: "postgres without host", target: &core.TargetConfig{Type: "postgres"}, wantErr: "host is required"},
		{name: "postgres", target: &core.TargetConfig{Type: "postgres", Host: "localhost"}},
		{name: "sqlite", target: &core.TargetConfig{Type: "sqlite", Database: "app.db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTarget(tt.target)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, ValidateTarget(&core.TargetConfig{Type: "oracle"}), &unknown)
	assert.Contains(t, unknown.Available, "sqlite")
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "db", "mappings")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Empty(t, FindProjectRoot(nested))
	assert.Empty(t, FindConfigFile(root))

	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileNameAlt), []byte("target: {}\n"), 0o600))

	assert.Equal(t, root, FindProjectRoot(nested))
	assert.Equal(t, filepath.Join(root, ConfigFileNameAlt), FindConfigFile(root))

	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("target: {}\n"), 0o600))
	assert.Equal(t, filepath.Join(root, ConfigFileName), FindConfigFile(root))
}
