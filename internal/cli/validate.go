package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestrelhq/kestrel/internal/config"
	"github.com/kestrelhq/kestrel/internal/graph"
	"github.com/kestrelhq/kestrel/internal/logging"
	"github.com/kestrelhq/kestrel/internal/resolve"
)

var validateFlagSuite string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the suite manifest without running any tests",
	Long: `Load the configuration and suite manifest, build the dependency
graph, and report every configuration error: malformed patterns, unknown
expectation or result strings, duplicate test names, self-dependencies,
and dependency cycles.

Declarations that are already decidable as violated before any test runs
(an at-least-one expectation whose pattern matches nothing) are reported
as warnings.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateFlagSuite, "suite", "s", "", "Path to the suite manifest (env: KESTREL_SUITE)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger := logging.New("validate")

	ov := &config.CLIOverrides{}
	if cmd.Flags().Changed("suite") {
		ov.Suite = &validateFlagSuite
	}

	resolved, meta, err := loadAndResolveConfig(ov)
	if err != nil {
		return err
	}

	result := config.Validate(resolved.Config, metaOrZero(meta))
	for _, w := range result.Warnings() {
		logger.Warn("config warning", "field", w.Field, "message", w.Message)
	}
	if result.HasErrors() {
		for _, e := range result.Errors() {
			logger.Error("config error", "field", e.Field, "message", e.Message)
		}
		return fmt.Errorf("configuration has %d error(s)", len(result.Errors()))
	}

	m, suiteName, err := loadManifest(resolved.Config, resolved.Path, logger)
	if err != nil {
		return err
	}

	g, buildRes := graph.Build(m.Specs())
	if !buildRes.IsValid() {
		fmt.Fprint(os.Stderr, buildRes.String())
		return fmt.Errorf("suite configuration has %d error(s)", len(buildRes.Errors))
	}

	// With no test run yet, any final violated record can only become more
	// wrong as results arrive. Surface those now.
	decided := decidedViolations(g)
	for _, rec := range decided {
		logger.Warn("dependency decidable as violated before any test runs",
			"declaration", rec.Decl.String(), "detail", rec.Diagnostic())
	}

	fmt.Printf("suite %s: %d test(s), %016x\n", suiteName, g.Len(), m.Fingerprint())
	if flagVerbose {
		printCandidates(g)
	}
	fmt.Println("configuration valid")
	return nil
}

// decidedViolations resolves every declaration against the pristine graph
// and returns the records that are already final and violated.
func decidedViolations(g *graph.Graph) []resolve.Record {
	r := resolve.New(g)
	var out []resolve.Record
	for _, name := range g.Names() {
		out = append(out, resolve.Violations(r.ResolveAll(name))...)
	}
	return out
}

// printCandidates dumps each declaration's static candidate set.
func printCandidates(g *graph.Graph) {
	for _, name := range g.Names() {
		decls := g.Declarations(name)
		if len(decls) == 0 {
			continue
		}
		fmt.Printf("  %s\n", name)
		for i, d := range decls {
			candidates := g.Candidates(name, i)
			if len(candidates) == 0 {
				fmt.Printf("    %s -> no matches\n", d.String())
				continue
			}
			fmt.Printf("    %s -> %s\n", d.String(), strings.Join(candidates, ", "))
		}
	}
}
