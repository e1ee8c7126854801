// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapschema/internal/cli/output"
	"github.com/leapstack-labs/leapschema/internal/testutil"
)

// ForumDocument is a mapping document that validates cleanly against the
// fixture database when the chat and poll components are active.
const ForumDocument = `output:
  schema_file: db/schema/100-base-schema.sql
  models_directory: models
  models_namespace: intermediate

schema:
  global:
    tables:
      exclude: [goose_db_version, user_auth_tokens]
    columns:
      exclude: [created_at]
      modify:
        - name_regex: "_id$"
          datatype: integer
  tables:
    users:
      columns:
        include: [id, username, email, name, admin, trust_level]
      indexes:
        - name: users_username
          columns: username
          unique: true
    topics:
      columns:
        exclude: [views]
    posts:
      columns:
        exclude: []
    topic_users:
      columns:
        exclude: []

components: [chat, poll]
`

// Project is a temporary leapschema project backed by the fixture database.
type Project struct {
	Dir        string
	ConfigPath string
	Document   string
	Database   string
}

// SetupTestProject creates a temporary project: leapschema.yaml with a
// sqlite target, the given mapping document and its output directories.
func SetupTestProject(t *testing.T, document string) *Project {
	t.Helper()

	tmpDir := t.TempDir()
	p := &Project{
		Dir:        tmpDir,
		ConfigPath: filepath.Join(tmpDir, "leapschema.yaml"),
		Document:   filepath.Join(tmpDir, "mapping.yml"),
		Database:   testutil.NewFixtureDatabase(t),
	}

	for _, dir := range []string{filepath.Join(tmpDir, "db", "schema"), filepath.Join(tmpDir, "models")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	config := fmt.Sprintf(`document: mapping.yml
target:
  type: sqlite
  database: %s
components:
  active: [chat, poll]
`, p.Database)
	if err := os.WriteFile(p.ConfigPath, []byte(config), 0644); err != nil {
		t.Fatalf("failed to create leapschema.yaml: %v", err)
	}
	if err := os.WriteFile(p.Document, []byte(document), 0644); err != nil {
		t.Fatalf("failed to create mapping.yml: %v", err)
	}

	return p
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the combined stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	// Check for balanced code fences
	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	// Check that headers have content
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
