// Package graph builds and holds the dependency graph of a run: tests as
// nodes, dependency declarations as edges. Edges are discovered from glob
// patterns in two phases. Name matching happens once at build time and
// produces a fixed candidate set per declaration; status matching happens
// incrementally as candidates complete. The static candidate sets make cycle
// detection decidable before any test runs and keep re-evaluation after a
// completion bounded by fan-out rather than graph size.
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kestrelhq/kestrel/internal/depspec"
	"github.com/kestrelhq/kestrel/internal/match"
	"github.com/kestrelhq/kestrel/internal/status"
)

// DepSpec is one dependency declaration in raw manifest form. The expect and
// result grammars are parsed during Build; parse failures are configuration
// errors reported with the owning test and pattern text.
type DepSpec struct {
	// Pattern is the selection pattern: a literal sibling name or a glob.
	Pattern string

	// Expect is the textual expectation operator. Empty defaults to "+".
	Expect string

	// Result is the textual result filter. Empty defaults to "pass".
	Result string
}

// TestSpec declares one test and its dependencies, as handed to Build by the
// manifest layer before any execution begins.
type TestSpec struct {
	Name string
	Deps []DepSpec
}

// node is a single test in the graph. The status field is the only mutable
// state in the entire graph; it is guarded by the node's own mutex so that
// resolution over different nodes never serializes globally.
type node struct {
	name       string
	decls      []depspec.Declaration
	candidates [][]string // static candidate set per declaration, sorted

	mu sync.RWMutex
	st status.Status
}

// Graph is the dependency graph for one run. Topology (nodes, declarations,
// candidate sets, reverse edges) is immutable after Build; only per-node
// status changes afterwards.
type Graph struct {
	nodes      map[string]*node
	names      []string            // all test names, sorted
	dependents map[string][]string // reverse edges: name -> tests whose candidates include it
}

// Build constructs the graph from the declared test specs. It parses every
// declaration's grammar, resolves each pattern against the full name pool
// (minus the owner) to fix the static candidate sets, and runs a cycle check
// over the resulting name-only edge set.
//
// Build collects every configuration error it finds rather than stopping at
// the first, so a manifest author sees all problems in one pass. When the
// returned BuildResult has errors the graph is nil: a run must never start
// from a partially valid declaration set.
func Build(specs []TestSpec) (*Graph, *BuildResult) {
	result := &BuildResult{}

	// Pass 1: collect names, rejecting empties and duplicates.
	names := make([]string, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		if spec.Name == "" {
			result.Errors = append(result.Errors, Issue{
				Code:    IssueEmptyTestName,
				Message: fmt.Sprintf("test at index %d has an empty name", i),
			})
			continue
		}
		if seen[spec.Name] {
			result.Errors = append(result.Errors, Issue{
				Code:    IssueDuplicateTest,
				Test:    spec.Name,
				Message: fmt.Sprintf("test name %q appears more than once", spec.Name),
			})
			continue
		}
		seen[spec.Name] = true
		names = append(names, spec.Name)
	}
	sort.Strings(names)

	// Pass 2: parse declarations and fix static candidate sets.
	nodes := make(map[string]*node, len(names))
	for _, spec := range specs {
		if spec.Name == "" || nodes[spec.Name] != nil {
			continue // already flagged above
		}
		n := &node{name: spec.Name, st: status.NotRun}
		for _, ds := range spec.Deps {
			decl, issue := buildDeclaration(spec.Name, ds, names)
			if issue != nil {
				result.Errors = append(result.Errors, *issue)
				continue
			}
			n.decls = append(n.decls, decl.decl)
			n.candidates = append(n.candidates, decl.candidates)
		}
		nodes[spec.Name] = n
	}

	// Pass 3: reverse edges, one entry per (candidate, dependent) pair.
	dependents := make(map[string][]string, len(names))
	for _, n := range nodes {
		deduped := make(map[string]bool)
		for _, cands := range n.candidates {
			for _, c := range cands {
				if !deduped[c] {
					deduped[c] = true
					dependents[c] = append(dependents[c], n.name)
				}
			}
		}
	}
	for name := range dependents {
		sort.Strings(dependents[name])
	}

	g := &Graph{nodes: nodes, names: names, dependents: dependents}

	// Pass 4: cycle detection over the static edge set.
	g.detectCycles(result)

	if !result.IsValid() {
		return nil, result
	}
	return g, result
}

// parsedDecl pairs a parsed declaration with its static candidate set.
type parsedDecl struct {
	decl       depspec.Declaration
	candidates []string
}

// buildDeclaration parses one raw DepSpec and resolves its candidate set.
// Returns a non-nil Issue on any configuration error.
func buildDeclaration(owner string, ds DepSpec, names []string) (parsedDecl, *Issue) {
	expect := ds.Expect
	if expect == "" {
		expect = "+"
	}
	filter := ds.Result
	if filter == "" {
		filter = "pass"
	}

	if _, err := depspec.ParseExpect(expect); err != nil {
		return parsedDecl{}, &Issue{
			Code:    IssueBadExpect,
			Test:    owner,
			Pattern: ds.Pattern,
			Message: err.Error(),
		}
	}
	if _, err := depspec.ParseResultFilter(filter); err != nil {
		return parsedDecl{}, &Issue{
			Code:    IssueBadFilter,
			Test:    owner,
			Pattern: ds.Pattern,
			Message: err.Error(),
		}
	}
	if err := match.Validate(ds.Pattern); err != nil {
		return parsedDecl{}, &Issue{
			Code:    IssueBadPattern,
			Test:    owner,
			Pattern: ds.Pattern,
			Message: err.Error(),
		}
	}
	if match.IsLiteral(ds.Pattern) && ds.Pattern == owner {
		return parsedDecl{}, &Issue{
			Code:    IssueSelfDependency,
			Test:    owner,
			Pattern: ds.Pattern,
			Message: "declaration names its own test as a dependency",
		}
	}

	decl, err := depspec.NewDeclaration(owner, ds.Pattern, expect, filter)
	if err != nil {
		// Both grammars parsed above; reaching here is a programming bug.
		panic(fmt.Sprintf("graph: declaration re-parse failed: %v", err))
	}

	// A dependency never matches its own owner, so the owner is removed
	// from the pool before matching.
	pool := make([]string, 0, len(names))
	for _, name := range names {
		if name != owner {
			pool = append(pool, name)
		}
	}
	candidates, err := match.Match(ds.Pattern, pool)
	if err != nil {
		return parsedDecl{}, &Issue{
			Code:    IssueBadPattern,
			Test:    owner,
			Pattern: ds.Pattern,
			Message: err.Error(),
		}
	}
	return parsedDecl{decl: decl, candidates: candidates}, nil
}

// detectCycles runs a three-color DFS over the static name-only edge set
// (dependent -> candidate). A back-edge indicates a cycle; every distinct
// cycle is reported as a fatal issue, since neither member could ever become
// ready.
func (g *Graph) detectCycles(result *BuildResult) {
	const (
		colorWhite = 0
		colorGray  = 1
		colorBlack = 2
	)

	color := make(map[string]int, len(g.names))
	cyclesReported := make(map[string]bool)

	var dfs func(name string, path []string)
	dfs = func(name string, path []string) {
		color[name] = colorGray
		path = append(path, name)

		n := g.nodes[name]
		for _, cands := range n.candidates {
			for _, neighbor := range cands {
				switch color[neighbor] {
				case colorGray:
					// Back-edge: neighbor is on the current path.
					if cyclesReported[neighbor] {
						continue
					}
					cyclesReported[neighbor] = true
					cycleStart := -1
					for i, p := range path {
						if p == neighbor {
							cycleStart = i
							break
						}
					}
					var cycleNodes []string
					if cycleStart >= 0 {
						cycleNodes = append(cycleNodes, path[cycleStart:]...)
					}
					cycleNodes = append(cycleNodes, neighbor) // close the loop
					result.Errors = append(result.Errors, Issue{
						Code: IssueCycle,
						Test: neighbor,
						Message: fmt.Sprintf("dependency cycle involving tests: %s",
							joinArrow(cycleNodes)),
					})
				case colorWhite:
					dfs(neighbor, path)
				}
			}
		}

		color[name] = colorBlack
	}

	// Start from every unvisited node to cover disconnected sub-graphs.
	for _, name := range g.names {
		if color[name] == colorWhite {
			dfs(name, nil)
		}
	}
}

// joinArrow renders a cycle path as "a -> b -> a".
func joinArrow(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " -> "
		}
		out += n
	}
	return out
}

// Names returns all test names in the graph, sorted. The returned slice is a
// copy.
func (g *Graph) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Len returns the number of tests in the graph.
func (g *Graph) Len() int {
	return len(g.names)
}

// Has reports whether a test with the given name exists in the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Declarations returns the parsed dependency declarations of the named test,
// in manifest order. Returns nil for an unknown test.
func (g *Graph) Declarations(name string) []depspec.Declaration {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return n.decls
}

// Candidates returns the static candidate set of the named test's i-th
// declaration, sorted by name. The returned slice must not be modified.
func (g *Graph) Candidates(name string, i int) []string {
	n, ok := g.nodes[name]
	if !ok || i < 0 || i >= len(n.candidates) {
		return nil
	}
	return n.candidates[i]
}

// Dependents returns the names of tests holding at least one declaration
// whose static candidate set includes the named test, sorted. This is the
// fan-out set to re-evaluate when the named test completes.
func (g *Graph) Dependents(name string) []string {
	return g.dependents[name]
}

// Status returns the current status of the named test, or NotRun for an
// unknown name.
func (g *Graph) Status(name string) status.Status {
	n, ok := g.nodes[name]
	if !ok {
		return status.NotRun
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.st
}

// Start transitions the named test from NotRun to Running. Returns false if
// the test is unknown or has already left NotRun.
func (g *Graph) Start(name string) bool {
	n, ok := g.nodes[name]
	if !ok {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.st != status.NotRun {
		return false
	}
	n.st = status.Running
	return true
}

// Complete records the terminal status of the named test. A test transitions
// to a terminal status exactly once; completing an already terminal test is
// a no-op and returns false. Non-terminal statuses are rejected.
func (g *Graph) Complete(name string, st status.Status) bool {
	if !st.IsTerminal() {
		return false
	}
	n, ok := g.nodes[name]
	if !ok {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.st.IsTerminal() {
		return false
	}
	n.st = st
	return true
}

// Cancel transitions the named test directly to Skip if it has not started.
// Returns true when the transition applied. A cancelled test's dependents
// must still be re-evaluated by the caller, since Skip is a status some
// filters admit.
func (g *Graph) Cancel(name string) bool {
	n, ok := g.nodes[name]
	if !ok {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.st != status.NotRun {
		return false
	}
	n.st = status.Skip
	return true
}

// IsReady reports whether every matched test in every one of the named
// test's declarations has reached a terminal status. A test with no
// declarations is always ready. Readiness is the sole cross-test ordering
// constraint: a dependent never leaves Pending before IsReady holds.
func (g *Graph) IsReady(name string) bool {
	n, ok := g.nodes[name]
	if !ok {
		return false
	}
	for _, cands := range n.candidates {
		for _, c := range cands {
			if !g.Status(c).IsTerminal() {
				return false
			}
		}
	}
	return true
}

// Snapshot returns a copy of the node-status table.
func (g *Graph) Snapshot() map[string]status.Status {
	out := make(map[string]status.Status, len(g.names))
	for _, name := range g.names {
		out[name] = g.Status(name)
	}
	return out
}
