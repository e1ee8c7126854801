// Package output renders command results for terminals, markdown readers
// and machines.
package output

import "strings"

// OutputMode selects how results are written.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
	ModeYAML     OutputMode = "yaml"
)

// Mode parses a configured output format. Unknown values mean auto.
func Mode(s string) OutputMode {
	switch m := OutputMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeText, ModeMarkdown, ModeJSON, ModeYAML:
		return m
	case "md":
		return ModeMarkdown
	default:
		return ModeAuto
	}
}
