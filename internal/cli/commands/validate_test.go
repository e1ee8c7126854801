package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/internal/cli/config"
	clitestutil "github.com/leapstack-labs/leapschema/internal/cli/testutil"
	"github.com/leapstack-labs/leapschema/internal/engine"
	"github.com/leapstack-labs/leapschema/internal/validation"

	_ "github.com/leapstack-labs/leapschema/pkg/adapters/sqlite"
)

// loadProject loads the project's configuration the way the root command
// does and switches the output format.
func loadProject(t *testing.T, p *clitestutil.Project, format string) {
	t.Helper()
	t.Cleanup(config.ResetConfig)

	cfg, err := config.LoadConfig(p.ConfigPath, nil)
	require.NoError(t, err)
	cfg.OutputFormat = format
}

// execute runs cmd the way the root command does, with errors and usage
// silenced, and returns what it wrote to standard output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_Clean(t *testing.T) {
	p := clitestutil.SetupTestProject(t, clitestutil.ForumDocument)
	loadProject(t, p, "markdown")

	out, err := execute(t, NewValidateCommand())
	require.NoError(t, err)

	assert.Contains(t, out, "# Validation of mapping.yml")
	assert.Contains(t, out, "No discrepancies found.")
	clitestutil.AssertNoANSI(t, out)
	clitestutil.AssertValidMarkdown(t, out)
}

func TestValidate_Discrepancies(t *testing.T) {
	doc := strings.Replace(clitestutil.ForumDocument,
		"include: [id, username, email, name, admin, trust_level]",
		"include: [id, username, nickname]", 1)
	p := clitestutil.SetupTestProject(t, doc)
	loadProject(t, p, "json")

	out, err := execute(t, NewValidateCommand())
	require.Error(t, err)
	var failed *engine.ValidationFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 2, failed.Count)

	assert.NotContains(t, out, "Usage:")
	var got ValidateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Valid)
	assert.False(t, got.Structural)
	assert.Equal(t, p.Document, got.Document)
	require.Len(t, got.Discrepancies, 2)
	assert.Equal(t, validation.CodeIncludedColumnsMissing, got.Discrepancies[0].Code)
	assert.Equal(t, []string{"nickname"}, got.Discrepancies[0].Names)
	assert.Equal(t, validation.CodeNotAllColumnsConfigured, got.Discrepancies[1].Code)
	assert.Equal(t, []string{"admin", "email", "name", "trust_level"}, got.Discrepancies[1].Names)
	assert.Equal(t, "not all columns configured in table users: admin, email, name, trust_level", got.Messages[1])
}

func TestValidate_DocumentArgument(t *testing.T) {
	p := clitestutil.SetupTestProject(t, clitestutil.ForumDocument)
	loadProject(t, p, "markdown")

	out, err := execute(t, NewValidateCommand(), p.Document)
	require.NoError(t, err)
	assert.Contains(t, out, "No discrepancies found.")
}

func TestValidate_TextGroupsByCode(t *testing.T) {
	doc := strings.Replace(clitestutil.ForumDocument, "components: [chat, poll]", "components: [chat]", 1)
	p := clitestutil.SetupTestProject(t, doc)
	loadProject(t, p, "text")

	out, err := execute(t, NewValidateCommand())
	require.Error(t, err)

	assert.Contains(t, out, "mapping.yml: 1 discrepancies")
	assert.Contains(t, out, "Additional Components Active")
	assert.Contains(t, out, "✗ additional components active: poll")
}

func TestResolve_JSON(t *testing.T) {
	p := clitestutil.SetupTestProject(t, clitestutil.ForumDocument)
	loadProject(t, p, "json")

	out, err := execute(t, NewResolveCommand())
	require.NoError(t, err)

	var got ResolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	names := make([]string, len(got.Tables))
	for i, table := range got.Tables {
		names[i] = table.Name
	}
	assert.Equal(t, []string{"posts", "topic_users", "topics", "users"}, names)

	users := got.Tables[3]
	assert.Equal(t, []string{"id", "username", "email", "name", "admin", "trust_level"}, users.ColumnNames())
	require.Len(t, users.Indexes, 1)
	assert.Equal(t, []string{"username"}, users.Indexes[0].ColumnNames)
}

func TestResolve_Markdown(t *testing.T) {
	p := clitestutil.SetupTestProject(t, clitestutil.ForumDocument)
	loadProject(t, p, "markdown")

	out, err := execute(t, NewResolveCommand())
	require.NoError(t, err)

	assert.Contains(t, out, "# Tables (4 total)")
	assert.Contains(t, out, "## users")
	assert.Contains(t, out, "| username | text | no | 60 | no |")
	assert.Contains(t, out, "- **Index**: unique index users_username on (username)")
	clitestutil.AssertValidMarkdown(t, out)
}

func TestResolve_RefusesInvalidDocument(t *testing.T) {
	doc := strings.Replace(clitestutil.ForumDocument, "exclude: [views]", "exclude: [views, missing]", 1)
	p := clitestutil.SetupTestProject(t, doc)
	loadProject(t, p, "markdown")

	out, err := execute(t, NewResolveCommand())
	require.Error(t, err)
	var failed *engine.ValidationFailedError
	assert.True(t, errors.As(err, &failed))
	assert.Contains(t, out, "excluded column missing in table topics: missing")
	assert.NotContains(t, out, "# Tables")
}

func TestTables_JSON(t *testing.T) {
	p := clitestutil.SetupTestProject(t, clitestutil.ForumDocument)
	loadProject(t, p, "json")

	out, err := execute(t, NewTablesCommand())
	require.NoError(t, err)

	var got TablesOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "sqlite", got.Target)
	assert.Equal(t, "main", got.Schema)
	require.Len(t, got.Tables, 6)

	byName := map[string]TableInfo{}
	for _, ti := range got.Tables {
		byName[ti.Name] = ti
	}
	assert.Equal(t, 7, byName["users"].Columns)
	assert.Equal(t, []string{"id"}, byName["users"].PrimaryKeys)
	assert.Equal(t, []string{"user_id", "topic_id"}, byName["topic_users"].PrimaryKeys)
}

func TestDoctor_Healthy(t *testing.T) {
	p := clitestutil.SetupTestProject(t, clitestutil.ForumDocument)
	loadProject(t, p, "json")

	out, err := execute(t, NewDoctorCommand())
	require.NoError(t, err)

	var got DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 100, got.Score)
	assert.Zero(t, got.IssueCount)
	assert.Empty(t, got.Recommendations)
	for _, check := range got.HealthChecks {
		assert.Equal(t, "pass", check.Status, "check %s", check.RuleID)
	}
}

func TestDoctor_ReportsByCategory(t *testing.T) {
	doc := strings.Replace(clitestutil.ForumDocument, "components: [chat, poll]", "components: []", 1)
	p := clitestutil.SetupTestProject(t, doc)
	loadProject(t, p, "json")

	out, err := execute(t, NewDoctorCommand())
	require.NoError(t, err, "doctor reports problems without failing")

	var got DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	statuses := map[string]string{}
	for _, check := range got.HealthChecks {
		statuses[check.RuleID] = check.Status
	}
	assert.Equal(t, "warn", statuses["MP07"])
	assert.Equal(t, "pass", statuses["MP06"])
	assert.Equal(t, 95, got.Score)
	assert.Equal(t, []string{getRecommendation("MP07")}, got.Recommendations)
}

func TestDoctor_FormatFlag(t *testing.T) {
	p := clitestutil.SetupTestProject(t, clitestutil.ForumDocument)
	loadProject(t, p, "json")

	out, err := execute(t, NewDoctorCommand(), "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "# LeapSchema Health Report")
	assert.Contains(t, out, "- **[PASS]** DB01: Connection and metadata")
	clitestutil.AssertValidMarkdown(t, out)
}

func TestGroupByCode(t *testing.T) {
	ds := []validation.Discrepancy{
		{Code: validation.CodeTablesNotConfigured, Names: []string{"a"}},
		{Code: validation.CodeIncludedColumnsMissing, Table: "users", Names: []string{"x"}},
		{Code: validation.CodeIncludedColumnsMissing, Table: "topics", Names: []string{"y"}},
	}

	groups := groupByCode(ds)
	require.Len(t, groups, 2)
	assert.Equal(t, "Table Not Configured", groups[0].title)
	assert.Len(t, groups[1].items, 2)
}
