// Package resolve evaluates dependency declarations against current graph
// state. A Record is the computed outcome of checking one declaration: the
// statically matched names, the statuses of those that have completed, and
// the satisfied/violated flags. Records are derived state -- a pure function
// of the graph -- and are always safe to recompute; they are never a source
// of truth.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kestrelhq/kestrel/internal/depspec"
	"github.com/kestrelhq/kestrel/internal/graph"
	"github.com/kestrelhq/kestrel/internal/status"
)

// Record is the resolution outcome for a single dependency declaration.
type Record struct {
	// Decl is the declaration this record was computed for.
	Decl depspec.Declaration

	// MatchedNames is the declaration's static candidate set: every test
	// whose name matches the pattern, fixed at graph-build time. Sorted.
	MatchedNames []string

	// MatchedStatuses maps matched names to terminal statuses, populated
	// only for tests that have completed. Pending tests appear in
	// MatchedNames but not here.
	MatchedStatuses map[string]status.Status

	// CountSatisfied reports whether |MatchedNames| meets the declaration's
	// expectation operator.
	CountSatisfied bool

	// FilterSatisfied reports whether every completed matched test's status
	// is admitted by the declaration's result filter. Pending tests do not
	// falsify this flag.
	FilterSatisfied bool

	// Final reports whether every matched test has reached a terminal
	// status. Satisfied is only authoritative once Final is true.
	Final bool
}

// Satisfied reports whether the declaration is currently satisfied: the
// match count meets the expectation and no completed match is disqualified
// by the result filter.
func (r Record) Satisfied() bool {
	return r.CountSatisfied && r.FilterSatisfied
}

// Pending returns the matched names that have not yet reached a terminal
// status, sorted.
func (r Record) Pending() []string {
	var out []string
	for _, name := range r.MatchedNames {
		if _, done := r.MatchedStatuses[name]; !done {
			out = append(out, name)
		}
	}
	return out
}

// Diagnostic renders a human-readable violation description: the pattern,
// the expected operator and filter, and the actual count and statuses. Only
// meaningful for a violated record.
func (r Record) Diagnostic() string {
	var b strings.Builder
	fmt.Fprintf(&b, "test %q dependency %q: expected count %s with result %s, matched %d",
		r.Decl.Owner, r.Decl.Pattern, r.Decl.Expect, r.Decl.Filter, len(r.MatchedNames))

	if len(r.MatchedStatuses) > 0 {
		pairs := make([]string, 0, len(r.MatchedStatuses))
		for _, name := range r.MatchedNames {
			if st, done := r.MatchedStatuses[name]; done {
				pairs = append(pairs, fmt.Sprintf("%s=%s", name, st))
			}
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(pairs, ", "))
	}
	if !r.CountSatisfied {
		b.WriteString("; count violated")
	}
	if !r.FilterSatisfied {
		b.WriteString("; result violated")
	}
	return b.String()
}

// Resolver computes Records against a dependency graph. It holds no state of
// its own beyond the graph reference and an optional logger, so concurrent
// Resolve calls over different tests never contend.
type Resolver struct {
	g      *graph.Graph
	logger *log.Logger
}

// Option is a functional option for configuring a Resolver.
type Option func(*Resolver)

// WithLogger attaches a structured logger. When nil the resolver is silent.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a Resolver over the given graph.
func New(g *graph.Graph, opts ...Option) *Resolver {
	r := &Resolver{g: g}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the Record for the named test's i-th declaration.
//
// The candidate set was fixed at graph-build time; Resolve reads each
// candidate's current status, evaluates the count expectation over the full
// static match count, and screens every completed candidate through the
// result filter.
func (r *Resolver) Resolve(name string, i int) Record {
	decls := r.g.Declarations(name)
	decl := decls[i]
	matched := r.g.Candidates(name, i)

	rec := Record{
		Decl:            decl,
		MatchedNames:    matched,
		MatchedStatuses: make(map[string]status.Status, len(matched)),
		CountSatisfied:  decl.Expect.Satisfied(len(matched)),
		FilterSatisfied: true,
		Final:           true,
	}

	for _, candidate := range matched {
		st := r.g.Status(candidate)
		if !st.IsTerminal() {
			rec.Final = false
			continue
		}
		rec.MatchedStatuses[candidate] = st
		if !decl.Filter.Admits(st) {
			rec.FilterSatisfied = false
		}
	}

	if r.logger != nil {
		r.logger.Debug("resolved declaration",
			"test", name,
			"pattern", decl.Pattern,
			"matched", len(matched),
			"completed", len(rec.MatchedStatuses),
			"satisfied", rec.Satisfied(),
			"final", rec.Final,
		)
	}
	return rec
}

// ResolveAll computes Records for every declaration of the named test, in
// manifest order. Returns nil for a test with no declarations.
func (r *Resolver) ResolveAll(name string) []Record {
	decls := r.g.Declarations(name)
	if len(decls) == 0 {
		return nil
	}
	out := make([]Record, len(decls))
	for i := range decls {
		out[i] = r.Resolve(name, i)
	}
	return out
}

// Violations filters records down to those that are both final and violated,
// the set worth surfacing in a report.
func Violations(records []Record) []Record {
	var out []Record
	for _, rec := range records {
		if rec.Final && !rec.Satisfied() {
			out = append(out, rec)
		}
	}
	return out
}

// Context is the observable dependency view handed to a runnable test: for
// each declaration, the matched dependency names with their terminal
// statuses, ordered by name.
type Context struct {
	// Records holds one entry per declaration, in manifest order.
	Records []Record
}

// Satisfied reports whether every declaration in the context is satisfied.
func (c Context) Satisfied() bool {
	for _, rec := range c.Records {
		if !rec.Satisfied() {
			return false
		}
	}
	return true
}

// Pairs flattens the context into "name=status" strings across all
// declarations, deduplicated and ordered by name. This is the enumerable
// form a test script can introspect.
func (c Context) Pairs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range c.Records {
		for _, name := range rec.MatchedNames {
			st, done := rec.MatchedStatuses[name]
			if !done || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, fmt.Sprintf("%s=%s", name, st))
		}
	}
	sort.Strings(out)
	return out
}
