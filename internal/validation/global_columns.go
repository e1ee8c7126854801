package validation

import "github.com/leapstack-labs/leapschema/internal/mapping"

// GlobalColumnsValidator checks that global column rules refer to columns
// that exist in at least one configured, existing, non-excluded table.
type GlobalColumnsValidator struct{}

// Check reports globally excluded column names and global modify rules that
// match no such column. Rules with an invalid pattern are skipped; they are
// already reported when the globals are built.
func (GlobalColumnsValidator) Check(doc *mapping.Document, g *mapping.Globals, meta Metadata) []Discrepancy {
	known := make(map[string]struct{})
	for _, name := range doc.SortedTableNames() {
		if doc.Schema.Tables[name].IsCopy() || g.IsTableExcluded(name) || !meta.HasTable(name) {
			continue
		}
		for _, c := range meta.Columns(name) {
			known[c.Name] = struct{}{}
		}
	}

	var out []Discrepancy
	if names := sortedDifference(g.ExcludedColumns(), known); len(names) > 0 {
		out = append(out, Discrepancy{Code: CodeGlobalExcludedColumnsMissing, Names: names})
	}

	var unmatched []string
	for _, rule := range g.Rules() {
		if p, ok := rule.(mapping.Pattern); ok && p.Regexp == nil {
			continue
		}
		if !matchesAny(rule, known) {
			unmatched = append(unmatched, rule.String())
		}
	}
	if len(unmatched) > 0 {
		out = append(out, Discrepancy{Code: CodeGlobalModifiedColumnsMissing, Names: mapping.SortedUnique(unmatched)})
	}

	return out
}

func matchesAny(rule mapping.ModifyRule, columns map[string]struct{}) bool {
	for name := range columns {
		if rule.Matches(name) {
			return true
		}
	}
	return false
}
