package validation

import (
	"github.com/leapstack-labs/leapschema/internal/mapping"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// ColumnSetValidator reconciles one table's live columns against its
// directives and the global column exclusions.
type ColumnSetValidator struct{}

// Check runs every column check for table and collects all offending names
// before reporting. The modify checks are independent, so one name can
// appear in several discrepancies.
func (ColumnSetValidator) Check(table string, d *mapping.ColumnDirectives, g *mapping.Globals, realColumns []core.ColumnInfo) []Discrepancy {
	if d == nil {
		d = &mapping.ColumnDirectives{}
	}

	realNames := make([]string, len(realColumns))
	for i, c := range realColumns {
		realNames[i] = c.Name
	}
	live := setOf(realNames)

	modified := d.ModifiedNames()
	added := d.AddedNames()

	var out []Discrepancy
	report := func(code Code, names []string) {
		if len(names) > 0 {
			out = append(out, Discrepancy{Code: code, Table: table, Names: names})
		}
	}

	report(CodeAddedColumnsExist, sortedIntersection(added, live))
	report(CodeIncludedColumnsMissing, sortedDifference(d.Include, live))
	report(CodeExcludedColumnsMissing, sortedDifference(d.Exclude, live))
	report(CodeModifiedColumnsMissing, sortedDifference(modified, live))
	report(CodeModifiedColumnsIncluded, sortedIntersection(modified, setOf(d.Include)))
	report(CodeModifiedColumnsExcluded, sortedIntersection(modified, setOf(d.Exclude)))
	report(CodeModifiedColumnsGloballyExcluded, sortedIntersection(modified, setOf(g.ExcludedColumns())))
	if d.Mode == mapping.ModeInclude {
		report(CodeIncludedColumnsGloballyExcluded, sortedIntersection(d.Include, setOf(g.ExcludedColumns())))
	}

	if len(configuredColumns(d, g, realNames)) == 0 {
		out = append(out, Discrepancy{Code: CodeNoColumnsConfigured, Table: table})
		return out
	}

	if d.Mode == mapping.ModeInclude {
		covered := setOf(append(append([]string{}, d.Include...), modified...))
		for _, name := range g.ExcludedColumns() {
			covered[name] = struct{}{}
		}
		report(CodeNotAllColumnsConfigured, sortedDifference(realNames, covered))
	}

	return out
}

// configuredColumns computes the names a table ends up with: the selected
// live columns plus modified ones, minus global exclusions, plus added ones.
func configuredColumns(d *mapping.ColumnDirectives, g *mapping.Globals, realNames []string) []string {
	var selected []string
	if d.Mode == mapping.ModeExclude {
		excluded := setOf(d.Exclude)
		for _, name := range realNames {
			if _, ok := excluded[name]; !ok {
				selected = append(selected, name)
			}
		}
	} else {
		selected = append(selected, d.Include...)
	}
	selected = append(selected, d.ModifiedNames()...)

	names := sortedDifference(selected, setOf(g.ExcludedColumns()))
	return append(names, d.AddedNames()...)
}
