// Package validation checks a mapping document against live database
// metadata and the active component list.
//
// A run has two tiers. The structural check is a gate: when it reports
// anything, no semantic validator runs. The semantic validators then all
// run and accumulate into one list; none of them short-circuits another.
package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Code identifies the kind of a discrepancy.
type Code string

// Structural codes.
const (
	CodeStructural               Code = "structural"
	CodeIncludeExcludeNotAllowed Code = "include_exclude_not_allowed"
)

// Global and table-set codes.
const (
	CodeInvalidNameRegex             Code = "invalid_name_regex"
	CodeGlobalExcludedColumnsMissing Code = "global_excluded_columns_missing"
	CodeGlobalModifiedColumnsMissing Code = "global_modified_columns_missing"
	CodeExcludedTablesMissing        Code = "excluded_tables_missing"
	CodeExcludedTablesConfigured     Code = "excluded_tables_configured"
	CodeTablesNotConfigured          Code = "tables_not_configured"
	CodeConfiguredTablesMissing      Code = "configured_tables_missing"
	CodeCopySourceMissing            Code = "copy_source_missing"
)

// Column codes.
const (
	CodeAddedColumnsExist               Code = "added_columns_exist"
	CodeIncludedColumnsMissing          Code = "included_columns_missing"
	CodeExcludedColumnsMissing          Code = "excluded_columns_missing"
	CodeModifiedColumnsMissing          Code = "modified_columns_missing"
	CodeModifiedColumnsIncluded         Code = "modified_columns_included"
	CodeModifiedColumnsExcluded         Code = "modified_columns_excluded"
	CodeModifiedColumnsGloballyExcluded Code = "modified_columns_globally_excluded"
	CodeIncludedColumnsGloballyExcluded Code = "included_columns_globally_excluded"
	CodeNoColumnsConfigured             Code = "no_columns_configured"
	CodeNotAllColumnsConfigured         Code = "not_all_columns_configured"
)

// Component and output codes.
const (
	CodeAdditionalComponentsActive  Code = "additional_components_active"
	CodeComponentsNotActive         Code = "components_not_active"
	CodeSchemaFileDirectoryNotFound Code = "schema_file_directory_not_found"
	CodeModelsDirectoryNotFound     Code = "models_directory_not_found"
	CodeModelsNamespaceInvalid      Code = "models_namespace_invalid"
)

var labels = map[Code]string{
	CodeInvalidNameRegex:                "invalid name_regex",
	CodeGlobalExcludedColumnsMissing:    "globally excluded column missing",
	CodeGlobalModifiedColumnsMissing:    "globally modified column matches no column",
	CodeExcludedTablesMissing:           "excluded table missing",
	CodeExcludedTablesConfigured:        "excluded table configured",
	CodeTablesNotConfigured:             "table not configured",
	CodeConfiguredTablesMissing:         "configured table missing",
	CodeCopySourceMissing:               "copy source missing",
	CodeAddedColumnsExist:               "added column already exists",
	CodeIncludedColumnsMissing:          "included column missing",
	CodeExcludedColumnsMissing:          "excluded column missing",
	CodeModifiedColumnsMissing:          "modified column missing",
	CodeModifiedColumnsIncluded:         "modified column also included",
	CodeModifiedColumnsExcluded:         "modified column also excluded",
	CodeModifiedColumnsGloballyExcluded: "modified column globally excluded",
	CodeIncludedColumnsGloballyExcluded: "included column globally excluded",
	CodeNoColumnsConfigured:             "no columns configured",
	CodeNotAllColumnsConfigured:         "not all columns configured",
	CodeAdditionalComponentsActive:      "additional components active",
	CodeComponentsNotActive:             "configured components not active",
	CodeSchemaFileDirectoryNotFound:     "schema file directory not found",
	CodeModelsDirectoryNotFound:         "models directory not found",
	CodeModelsNamespaceInvalid:          "models namespace invalid",
}

// Label returns the human description of the code.
func (c Code) Label() string {
	switch c {
	case CodeStructural:
		return "structural violation"
	case CodeIncludeExcludeNotAllowed:
		return "include and exclude both set"
	}
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}

// Discrepancy is one reported validation failure.
type Discrepancy struct {
	Code Code `json:"code" yaml:"code"`
	// Table is set for discrepancies scoped to one configured table.
	Table string `json:"table,omitempty" yaml:"table,omitempty"`
	// Path is the JSON pointer of a structural violation, or the
	// filesystem path of an output check.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Names are the offending table, column, component or pattern names,
	// sorted.
	Names []string `json:"names,omitempty" yaml:"names,omitempty"`
	// Detail carries a pre-rendered message for structural violations and
	// the compiler error of an invalid pattern.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Message renders the discrepancy for humans.
func (d Discrepancy) Message() string {
	if d.Code == CodeStructural || d.Code == CodeIncludeExcludeNotAllowed {
		return d.Detail
	}

	var b strings.Builder
	b.WriteString(labels[d.Code])
	if d.Table != "" {
		fmt.Fprintf(&b, " in table %s", d.Table)
	}

	switch {
	case len(d.Names) > 0:
		b.WriteString(": ")
		b.WriteString(strings.Join(d.Names, ", "))
	case d.Path != "":
		b.WriteString(": ")
		b.WriteString(d.Path)
	}

	if d.Detail != "" {
		fmt.Fprintf(&b, " (%s)", d.Detail)
	}
	return b.String()
}

func (d Discrepancy) String() string {
	return d.Message()
}

// Messages renders a list of discrepancies in order.
func Messages(ds []Discrepancy) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Message()
	}
	return out
}

// sortedDifference returns the names of a that are not in b, sorted and
// deduplicated.
func sortedDifference(a []string, b map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(a))
	var out []string
	for _, n := range a {
		if _, skip := b[n]; skip {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// sortedIntersection returns the names of a that are also in b, sorted and
// deduplicated.
func sortedIntersection(a []string, b map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(a))
	var out []string
	for _, n := range a {
		if _, ok := b[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func setOf(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
