package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapschema/internal/cli/config"
	"github.com/leapstack-labs/leapschema/internal/cli/output"
	"github.com/leapstack-labs/leapschema/internal/engine"
	"github.com/leapstack-labs/leapschema/internal/validation"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, markdown, json, yaml
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project setup end to end",
		Long: `Check every piece a validation run depends on and summarize the result:
- Configuration (config file, target)
- Database (connection, metadata)
- Mapping document (presence, structure, discrepancies by category)

Unlike validate, doctor keeps going after a failed step and always exits
with status 0.`,
		Example: `  # Run health check
  leapschema doctor

  # Output as JSON
  leapschema doctor --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json, yaml")

	return cmd
}

// DoctorOutput is the structured output for the doctor command.
type DoctorOutput struct {
	Document        string        `json:"document" yaml:"document"`
	HealthChecks    []HealthCheck `json:"health_checks" yaml:"health_checks"`
	Score           int           `json:"score" yaml:"score"`
	Recommendations []string      `json:"recommendations" yaml:"recommendations"`
	IssueCount      int           `json:"issue_count" yaml:"issue_count"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id" yaml:"rule_id"`
	Name       string   `json:"name" yaml:"name"`
	Group      string   `json:"group" yaml:"group"`
	Status     string   `json:"status" yaml:"status"` // "pass", "warn", "error", "skip"
	IssueCount int      `json:"issue_count" yaml:"issue_count"`
	Details    []string `json:"details,omitempty" yaml:"details,omitempty"`
}

// discrepancyCategories assigns every semantic code to one doctor check.
var discrepancyCategories = []struct {
	id, name string
	codes    []validation.Code
}{
	{"MP03", "Global rules", []validation.Code{
		validation.CodeInvalidNameRegex, validation.CodeGlobalExcludedColumnsMissing, validation.CodeGlobalModifiedColumnsMissing,
	}},
	{"MP04", "Output settings", []validation.Code{
		validation.CodeSchemaFileDirectoryNotFound, validation.CodeModelsDirectoryNotFound, validation.CodeModelsNamespaceInvalid,
	}},
	{"MP05", "Table coverage", []validation.Code{
		validation.CodeExcludedTablesMissing, validation.CodeExcludedTablesConfigured, validation.CodeTablesNotConfigured,
		validation.CodeConfiguredTablesMissing, validation.CodeCopySourceMissing,
	}},
	{"MP06", "Column directives", []validation.Code{
		validation.CodeAddedColumnsExist, validation.CodeIncludedColumnsMissing, validation.CodeExcludedColumnsMissing,
		validation.CodeModifiedColumnsMissing, validation.CodeModifiedColumnsIncluded, validation.CodeModifiedColumnsExcluded,
		validation.CodeModifiedColumnsGloballyExcluded, validation.CodeIncludedColumnsGloballyExcluded,
		validation.CodeNoColumnsConfigured, validation.CodeNotAllColumnsConfigured,
	}},
	{"MP07", "Components", []validation.Code{
		validation.CodeAdditionalComponentsActive, validation.CodeComponentsNotActive,
	}},
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	var checks []HealthCheck
	add := func(id, name, group, status string, details ...string) {
		issues := 0
		if status == "warn" || status == "error" {
			issues = max(1, len(details))
		}
		checks = append(checks, HealthCheck{RuleID: id, Name: name, Group: group, Status: status, IssueCount: issues, Details: details})
	}

	// Configuration
	if used := config.GetConfigFileUsed(); used != "" {
		add("CF01", "Config file", "configuration", "pass", used)
	} else {
		add("CF01", "Config file", "configuration", "warn", "no leapschema.yaml found, using defaults")
	}

	var eng *engine.Engine
	if cfg.Target == nil {
		add("CF02", "Target", "configuration", "error", "no target configured")
	} else if e, err := createEngine(cfg, cmdCtx.Logger); err != nil {
		add("CF02", "Target", "configuration", "error", err.Error())
	} else {
		eng = e
		defer func() { _ = eng.Close() }()
		add("CF02", "Target", "configuration", "pass", cfg.Target.Type+" ("+cfg.Target.Schema+")")
	}

	// Database
	dbOK := false
	if eng == nil {
		add("DB01", "Connection and metadata", "database", "skip")
	} else if snap, err := eng.Snapshot(cmd.Context()); err != nil {
		add("DB01", "Connection and metadata", "database", "error", err.Error())
	} else {
		dbOK = true
		add("DB01", "Connection and metadata", "database", "pass", fmt.Sprintf("%d tables", len(snap.Tables())))
	}

	// Mapping document
	docOK := false
	if _, err := os.Stat(cfg.Document); err != nil {
		add("MP01", "Document", "mapping", "error", err.Error())
	} else {
		docOK = true
		add("MP01", "Document", "mapping", "pass", cfg.Document)
	}

	var report *validation.Report
	if dbOK && docOK {
		run, err := eng.Validate(cmd.Context(), cfg.Document)
		switch {
		case err != nil:
			add("MP02", "Structure", "mapping", "error", err.Error())
		case run.Report.Structural:
			report = run.Report
			add("MP02", "Structure", "mapping", "error", validation.Messages(report.Discrepancies)...)
		default:
			report = run.Report
			add("MP02", "Structure", "mapping", "pass")
		}
	} else {
		add("MP02", "Structure", "mapping", "skip")
	}

	for _, cat := range discrepancyCategories {
		if report == nil || report.Structural {
			add(cat.id, cat.name, "mapping", "skip")
			continue
		}
		var details []string
		for _, d := range report.Discrepancies {
			for _, c := range cat.codes {
				if d.Code == c {
					details = append(details, d.Message())
				}
			}
		}
		if len(details) == 0 {
			add(cat.id, cat.name, "mapping", "pass")
		} else {
			add(cat.id, cat.name, "mapping", "warn", details...)
		}
	}

	out := &DoctorOutput{
		Document:        cfg.Document,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
	}
	for _, c := range checks {
		out.IssueCount += c.IssueCount
	}

	// Render based on mode
	if wrote, err := r.Structured(out); wrote || err != nil {
		return err
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		return renderDoctorMarkdown(r, out)
	}
	return renderDoctorText(r, out)
}

// calculateHealthScore computes a health score from 0-100.
// Each warning costs 5 points per issue, each error 20.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= 20 * check.IssueCount
		case "warn":
			score -= 5 * check.IssueCount
		}
	}
	return max(0, min(100, score))
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}
		rec := getRecommendation(check.RuleID)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	// Limit to top 5 recommendations
	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}
	return recommendations
}

// getRecommendation returns a recommendation for a specific check.
func getRecommendation(ruleID string) string {
	switch ruleID {
	case "CF01":
		return "Run 'leapschema init' to create leapschema.yaml"
	case "CF02":
		return "Add a target section (type, database or host) to leapschema.yaml"
	case "DB01":
		return "Check that the target database is reachable with the configured credentials"
	case "MP01":
		return "Point 'document' in leapschema.yaml (or --document) at the mapping file"
	case "MP02":
		return "Fix the structural errors first; semantic checks only run on a well-formed document"
	case "MP03":
		return "Remove global rules that no longer match any table"
	case "MP04":
		return "Create the output directories or correct their paths"
	case "MP05":
		return "Configure or globally exclude every live table"
	case "MP06":
		return "Bring column directives in line with the live columns"
	case "MP07":
		return "Align the components list with the installed components"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	// Header
	r.Println("")
	r.Println(styles.Header1.Render("LeapSchema Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.StatusFailed.String()
		case "skip":
			icon = styles.Muted.Render("-")
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		// Show first 3 details
		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	// Health Score
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# LeapSchema Health Report")
	r.Println("")
	r.Println(output.FormatKeyValue("Document", out.Document))
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s: %s", strings.ToUpper(check.Status), check.RuleID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
