package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/kestrel/internal/depspec"
	"github.com/kestrelhq/kestrel/internal/resolve"
	"github.com/kestrelhq/kestrel/internal/sched"
	"github.com/kestrelhq/kestrel/internal/status"
)

func violatedRecord(t *testing.T, owner, pattern string) resolve.Record {
	t.Helper()
	decl, err := depspec.NewDeclaration(owner, pattern, "+", "pass")
	require.NoError(t, err)
	return resolve.Record{
		Decl:            decl,
		MatchedNames:    []string{pattern},
		MatchedStatuses: map[string]status.Status{pattern: status.Fail},
		CountSatisfied:  true,
		FilterSatisfied: false,
		Final:           true,
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	summary := &sched.Summary{
		Counts: map[status.Status]int{
			status.Pass: 2,
			status.Fail: 1,
			status.Skip: 1,
		},
		Violations: []resolve.Record{violatedRecord(t, "bar_analyze", "foo_fail")},
		Duration:   1500 * time.Millisecond,
	}
	statuses := map[string]status.Status{
		"foo_pass":    status.Pass,
		"foo_fail":    status.Fail,
		"bar_analyze": status.Skip,
		"baz_pass":    status.Pass,
	}

	out := NewRenderer(DefaultStyles()).Render("smoke", 0xdeadbeef, statuses, summary)

	assert.Contains(t, out, "suite smoke")
	assert.Contains(t, out, "00000000deadbeef")
	assert.Contains(t, out, "foo_pass")
	assert.Contains(t, out, "bar_analyze")
	assert.Contains(t, out, "Violated dependencies (1):")
	assert.Contains(t, out, "foo_fail")
	assert.Contains(t, out, "2 pass")
	assert.Contains(t, out, "1 fail")
	assert.Contains(t, out, "(1.50s)")

	// Tests are listed in name order.
	assert.Less(t, strings.Index(out, "bar_analyze"), strings.Index(out, "foo_fail"))
}

func TestRender_NoViolations(t *testing.T) {
	t.Parallel()

	summary := &sched.Summary{
		Counts:   map[status.Status]int{status.Pass: 1},
		Duration: time.Second,
	}
	out := NewRenderer(DefaultStyles()).Render("ok", 1, map[string]status.Status{"a": status.Pass}, summary)
	assert.NotContains(t, out, "Violated")
}

func TestViolationLines_StableOrder(t *testing.T) {
	t.Parallel()

	violations := []resolve.Record{
		violatedRecord(t, "z_test", "dep_b"),
		violatedRecord(t, "a_test", "dep_a"),
	}
	lines := ViolationLines(violations)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "a_test")
	assert.Contains(t, lines[1], "z_test")
}
