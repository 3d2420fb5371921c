// Package manifest loads the test-suite manifest: the finite, statically
// known set of test names, their commands, and their dependency declarations,
// all fixed before any execution begins. The manifest is the one externally
// visible format the harness owns; its expect and result fields must parse
// exactly the declaration grammar, which happens at graph-build time.
package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cespare/xxhash/v2"

	"github.com/kestrelhq/kestrel/internal/graph"
)

// Manifest is the top-level structure of a suite file.
type Manifest struct {
	Suite SuiteConfig `toml:"suite"`
	Tests []TestDef   `toml:"test"`
}

// SuiteConfig maps to the [suite] section.
type SuiteConfig struct {
	Name string `toml:"name"`
}

// TestDef maps to one [[test]] table: a test's name, the argv used to
// execute it, and zero or more dependency declarations.
type TestDef struct {
	Name    string       `toml:"name"`
	Cmd     []string     `toml:"cmd"`
	Depends []DependsDef `toml:"depends"`
}

// DependsDef maps to one [[test.depends]] table. Expect defaults to "+" and
// Result to "pass" when omitted; the defaults are applied at graph build.
type DependsDef struct {
	Pattern string `toml:"pattern"`
	Expect  string `toml:"expect"`
	Result  string `toml:"result"`
}

// Load parses the TOML suite file at the given path. The returned metadata
// can be used to detect unknown keys via MetaData.Undecoded().
func Load(path string) (*Manifest, toml.MetaData, error) {
	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, md, fmt.Errorf("loading manifest %s: %w", path, err)
	}
	return &m, md, nil
}

// Specs converts the manifest into the raw test specs the graph builder
// consumes.
func (m *Manifest) Specs() []graph.TestSpec {
	specs := make([]graph.TestSpec, 0, len(m.Tests))
	for _, td := range m.Tests {
		spec := graph.TestSpec{Name: td.Name}
		for _, d := range td.Depends {
			spec.Deps = append(spec.Deps, graph.DepSpec{
				Pattern: d.Pattern,
				Expect:  d.Expect,
				Result:  d.Result,
			})
		}
		specs = append(specs, spec)
	}
	return specs
}

// Commands returns the test-name-to-argv mapping for the execution layer.
func (m *Manifest) Commands() map[string][]string {
	out := make(map[string][]string, len(m.Tests))
	for _, td := range m.Tests {
		out[td.Name] = td.Cmd
	}
	return out
}

// Fingerprint returns a stable 64-bit hash identifying the declared suite.
// It covers test names, commands, and declarations in name order, so two
// manifests declaring the same suite hash identically regardless of entry
// order or file formatting.
func (m *Manifest) Fingerprint() uint64 {
	tests := make([]TestDef, len(m.Tests))
	copy(tests, m.Tests)
	sort.Slice(tests, func(i, j int) bool { return tests[i].Name < tests[j].Name })

	h := xxhash.New()
	writeField := func(parts ...string) {
		// The hash input is length-framed by separator bytes; Write on
		// xxhash never returns an error.
		_, _ = h.WriteString(strings.Join(parts, "\x1f"))
		_, _ = h.Write([]byte{0})
	}

	writeField("suite", m.Suite.Name)
	for _, td := range tests {
		writeField("test", td.Name)
		writeField(td.Cmd...)
		for _, d := range td.Depends {
			writeField("dep", d.Pattern, d.Expect, d.Result)
		}
	}
	return h.Sum64()
}
