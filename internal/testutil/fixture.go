package testutil

import (
	"database/sql"
	"embed"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite" // pure Go sqlite driver
)

//go:embed fixtures/migrations/*.sql
var fixtureMigrations embed.FS

// FixtureTables lists the tables NewFixtureDatabase creates, sorted,
// including goose's own version table.
var FixtureTables = []string{
	"goose_db_version",
	"posts",
	"topic_users",
	"topics",
	"user_auth_tokens",
	"users",
}

// NewFixtureDatabase creates a SQLite database file in a temporary directory,
// migrates the forum fixture schema into it, and returns its path.
func NewFixtureDatabase(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(fixtureMigrations)
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	require.NoError(t, goose.SetDialect("sqlite"))
	require.NoError(t, goose.Up(db, "fixtures/migrations"))

	return path
}
