package depspec

import "fmt"

// Declaration is one parsed dependency declaration: a dependent test's
// statement that it depends on sibling tests matching Pattern, with a count
// expectation and a result filter. A test may hold zero or more declarations;
// each is evaluated independently and all must be satisfied for the
// dependent's setup to be considered met.
type Declaration struct {
	// Owner is the name of the dependent test holding this declaration.
	Owner string

	// Pattern is the selection pattern: a literal sibling name or a glob
	// containing `*`. A declaration never matches its own owner.
	Pattern string

	// Expect is the parsed cardinality rule applied to the match count.
	Expect Expect

	// Filter is the parsed set of terminal statuses a matched dependency
	// must finish with to count as admissible.
	Filter ResultFilter
}

// NewDeclaration parses the textual expect and result-filter specs and
// returns the assembled Declaration. Parse failures identify the owner and
// pattern so a configuration error can be traced back to its manifest entry.
func NewDeclaration(owner, pattern, expect, result string) (Declaration, error) {
	e, err := ParseExpect(expect)
	if err != nil {
		return Declaration{}, fmt.Errorf("test %q dependency %q: %w", owner, pattern, err)
	}
	f, err := ParseResultFilter(result)
	if err != nil {
		return Declaration{}, fmt.Errorf("test %q dependency %q: %w", owner, pattern, err)
	}
	return Declaration{Owner: owner, Pattern: pattern, Expect: e, Filter: f}, nil
}

// String renders the declaration in manifest form, e.g. `foo_* (expect +, result pass or diff)`.
func (d Declaration) String() string {
	return fmt.Sprintf("%s (expect %s, result %s)", d.Pattern, d.Expect, d.Filter)
}
