package graph

import (
	"fmt"
	"strings"
)

// Issue code constants classify each configuration problem found while
// building a dependency graph. Codes are stable strings so callers can
// switch on them without importing numeric iota values.
const (
	// IssueEmptyTestName is reported when a test spec has an empty name.
	IssueEmptyTestName = "EMPTY_TEST_NAME"

	// IssueDuplicateTest is reported when two or more tests share a name.
	// Names identify tests within a run, so duplicates are unresolvable.
	IssueDuplicateTest = "DUPLICATE_TEST_NAME"

	// IssueBadExpect is reported when a declaration's expectation operator
	// is not `+`, `?`, `*`, or a non-negative integer. Unknown operators are
	// never silently treated as `*`.
	IssueBadExpect = "UNKNOWN_EXPECT_OPERATOR"

	// IssueBadFilter is reported when a declaration's result filter names a
	// status outside the canonical terminal set.
	IssueBadFilter = "UNKNOWN_STATUS_NAME"

	// IssueBadPattern is reported when a declaration's glob pattern is
	// syntactically malformed.
	IssueBadPattern = "MALFORMED_PATTERN"

	// IssueSelfDependency is reported when a declaration's literal pattern
	// names its own owner. A wildcard that happens to cover the owner is not
	// an error; the owner is simply excluded from the candidate pool.
	IssueSelfDependency = "SELF_DEPENDENCY"

	// IssueCycle is reported when the static name-only edge set contains a
	// directed cycle. Unlike wildcard overlap, a cycle can never resolve:
	// neither test could ever become ready.
	IssueCycle = "DEPENDENCY_CYCLE"
)

// Issue describes a single configuration problem found at graph-build time.
// Issues carry the offending declaration's owner and pattern so the problem
// can be traced back to its manifest entry.
type Issue struct {
	// Code is one of the Issue* constants identifying the problem category.
	Code string

	// Test is the name of the test owning the offending declaration, or the
	// offending test itself for name-level issues.
	Test string

	// Pattern is the declaration's selection pattern, when applicable.
	Pattern string

	// Message is a human-readable description of the problem.
	Message string
}

// BuildResult holds every configuration issue found while building a graph.
// All issues are fatal: a graph with build errors must not execute, because
// a mis-parsed declaration cannot be degraded to a permissive default.
type BuildResult struct {
	Errors []Issue
}

// IsValid reports whether the build produced no errors.
func (r *BuildResult) IsValid() bool {
	return len(r.Errors) == 0
}

// String returns a multi-line human-readable summary of all issues.
func (r *BuildResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Errors (%d):\n", len(r.Errors))
	for _, issue := range r.Errors {
		switch {
		case issue.Pattern != "":
			fmt.Fprintf(&b, "  [%s] test %q dependency %q: %s\n", issue.Code, issue.Test, issue.Pattern, issue.Message)
		case issue.Test != "":
			fmt.Fprintf(&b, "  [%s] test %q: %s\n", issue.Code, issue.Test, issue.Message)
		default:
			fmt.Fprintf(&b, "  [%s] %s\n", issue.Code, issue.Message)
		}
	}
	return b.String()
}
