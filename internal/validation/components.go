package validation

// ComponentValidator compares the configured component list with the
// components that are actually active.
type ComponentValidator struct{}

// Check reports the symmetric difference as two independent discrepancies.
func (ComponentValidator) Check(configured, active []string) []Discrepancy {
	var out []Discrepancy
	if names := sortedDifference(active, setOf(configured)); len(names) > 0 {
		out = append(out, Discrepancy{Code: CodeAdditionalComponentsActive, Names: names})
	}
	if names := sortedDifference(configured, setOf(active)); len(names) > 0 {
		out = append(out, Discrepancy{Code: CodeComponentsNotActive, Names: names})
	}
	return out
}
