package mapping

import (
	"fmt"
	"regexp"
)

// ModifyRule is one global datatype override. It is either an ExactName or
// a Pattern; no other implementations exist.
type ModifyRule interface {
	// Matches reports whether the rule applies to a column name.
	Matches(column string) bool
	// Datatype is the type the rule assigns.
	Datatype() string
	// String renders the matcher the way it is reported in messages.
	String() string

	modifyRule()
}

// ExactName matches one column name.
type ExactName struct {
	Name string
	Type string
}

// Matches implements ModifyRule.
func (r ExactName) Matches(column string) bool { return r.Name == column }

// Datatype implements ModifyRule.
func (r ExactName) Datatype() string { return r.Type }

func (r ExactName) String() string { return r.Name }

func (ExactName) modifyRule() {}

// Pattern matches column names against a regular expression. The match is
// unanchored. A pattern that failed to compile has a nil Regexp and never
// matches.
type Pattern struct {
	Source string
	Regexp *regexp.Regexp
	Type   string
}

// Matches implements ModifyRule.
func (r Pattern) Matches(column string) bool {
	return r.Regexp != nil && r.Regexp.MatchString(column)
}

// Datatype implements ModifyRule.
func (r Pattern) Datatype() string { return r.Type }

func (r Pattern) String() string { return "/" + r.Source + "/" }

func (Pattern) modifyRule() {}

// PatternError reports a name_regex that does not compile.
type PatternError struct {
	Index   int
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("global column modification %d: invalid name_regex %q: %v", e.Index, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Globals is the immutable, indexed form of schema.global. It is built once
// per run and shared by every validator and the resolver.
type Globals struct {
	excludedTables  map[string]struct{}
	excludedColumns map[string]struct{}
	rules           []ModifyRule
}

// BuildGlobals indexes the global section. Invalid patterns are returned
// alongside a usable Globals in which those rules never match.
func BuildGlobals(cfg GlobalConfig) (*Globals, []*PatternError) {
	g := &Globals{
		excludedTables:  toSet(cfg.Tables.Exclude),
		excludedColumns: toSet(cfg.Columns.Exclude),
		rules:           make([]ModifyRule, 0, len(cfg.Columns.Modify)),
	}

	var errs []*PatternError
	for i, m := range cfg.Columns.Modify {
		if m.NameRegex == "" {
			g.rules = append(g.rules, ExactName{Name: m.Name, Type: m.Datatype})
			continue
		}

		re, err := regexp.Compile(m.NameRegex)
		if err != nil {
			errs = append(errs, &PatternError{Index: i, Pattern: m.NameRegex, Err: err})
		}
		g.rules = append(g.rules, Pattern{Source: m.NameRegex, Regexp: re, Type: m.Datatype})
	}

	return g, errs
}

// IsTableExcluded reports whether a table is globally excluded.
func (g *Globals) IsTableExcluded(name string) bool {
	_, ok := g.excludedTables[name]
	return ok
}

// IsColumnExcluded reports whether a column name is excluded from every table.
func (g *Globals) IsColumnExcluded(name string) bool {
	_, ok := g.excludedColumns[name]
	return ok
}

// OverrideFor returns the datatype of the first rule matching a column name.
func (g *Globals) OverrideFor(column string) (string, bool) {
	for _, r := range g.rules {
		if r.Matches(column) {
			return r.Datatype(), true
		}
	}
	return "", false
}

// ExcludedTables returns the globally excluded table names, sorted.
func (g *Globals) ExcludedTables() []string {
	return sortedKeys(g.excludedTables)
}

// ExcludedColumns returns the globally excluded column names, sorted.
func (g *Globals) ExcludedColumns() []string {
	return sortedKeys(g.excludedColumns)
}

// Rules returns the modify rules in declaration order.
func (g *Globals) Rules() []ModifyRule {
	out := make([]ModifyRule, len(g.rules))
	copy(out, g.rules)
	return out
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// SortedUnique returns names sorted with duplicates removed.
func SortedUnique(names []string) []string {
	return sortedKeys(toSet(names))
}
