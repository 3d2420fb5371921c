package depspec

import (
	"fmt"
	"strings"

	"github.com/kestrelhq/kestrel/internal/status"
)

// ResultFilter is a parsed result-filter specification: either "any terminal
// status" or an explicit set of accepted terminal statuses.
type ResultFilter struct {
	any      bool
	accepted map[status.Status]bool
	raw      string
}

// ParseResultFilter parses the textual result-filter grammar: the literal
// `*`, a single status name, or an "or"-separated list such as
// "pass or diff". Status names are case-insensitive. An unrecognized status
// name is a configuration error.
func ParseResultFilter(text string) (ResultFilter, error) {
	s := strings.TrimSpace(text)
	if s == "*" {
		return ResultFilter{any: true, raw: s}, nil
	}
	if s == "" {
		return ResultFilter{}, fmt.Errorf("empty result filter (want * or a status list such as %q)", "pass or diff")
	}

	accepted := make(map[status.Status]bool)
	for _, part := range strings.Split(strings.ToLower(s), " or ") {
		st, err := status.Parse(part)
		if err != nil {
			return ResultFilter{}, fmt.Errorf("result filter %q: %w", text, err)
		}
		accepted[st] = true
	}
	return ResultFilter{accepted: accepted, raw: s}, nil
}

// Admits reports whether a matched dependency that finished with st counts as
// admissible. Only terminal statuses are ever admitted: a pending test is
// neither admitted nor rejected, it simply has no result yet.
func (f ResultFilter) Admits(st status.Status) bool {
	if !st.IsTerminal() {
		return false
	}
	if f.any {
		return true
	}
	return f.accepted[st]
}

// Any reports whether the filter admits every terminal status.
func (f ResultFilter) Any() bool {
	return f.any
}

// String returns the filter's original textual form.
func (f ResultFilter) String() string {
	if f.raw == "" {
		return "*"
	}
	return f.raw
}
