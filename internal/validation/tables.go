package validation

import (
	"sort"

	"github.com/leapstack-labs/leapschema/internal/mapping"
)

// TableSetValidator reconciles the live table set against configured and
// globally excluded tables.
type TableSetValidator struct{}

// Check reports excluded tables that do not exist, excluded tables that are
// also configured, live tables nobody accounts for, configured tables that
// do not exist, and copy directives whose source does not exist.
//
// Copy aliases are not configured tables for these purposes; only their
// source has to exist.
func (TableSetValidator) Check(doc *mapping.Document, g *mapping.Globals, realTables []string) []Discrepancy {
	live := setOf(realTables)
	excluded := g.ExcludedTables()

	var configured, aliases []string
	for _, name := range doc.SortedTableNames() {
		if doc.Schema.Tables[name].IsCopy() {
			aliases = append(aliases, name)
			continue
		}
		configured = append(configured, name)
	}

	var out []Discrepancy

	if names := sortedDifference(excluded, live); len(names) > 0 {
		out = append(out, Discrepancy{Code: CodeExcludedTablesMissing, Names: names})
	}

	if names := sortedIntersection(configured, setOf(excluded)); len(names) > 0 {
		out = append(out, Discrepancy{Code: CodeExcludedTablesConfigured, Names: names})
	}

	accounted := setOf(append(append([]string{}, configured...), excluded...))
	if names := sortedDifference(realTables, accounted); len(names) > 0 {
		out = append(out, Discrepancy{Code: CodeTablesNotConfigured, Names: names})
	}

	if names := sortedDifference(configured, live); len(names) > 0 {
		out = append(out, Discrepancy{Code: CodeConfiguredTablesMissing, Names: names})
	}

	sort.Strings(aliases)
	for _, alias := range aliases {
		source := doc.Schema.Tables[alias].CopyOf
		if _, ok := live[source]; !ok {
			out = append(out, Discrepancy{Code: CodeCopySourceMissing, Table: alias, Names: []string{source}})
		}
	}

	return out
}
