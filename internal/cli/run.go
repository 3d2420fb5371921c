package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/BurntSushi/toml"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kestrelhq/kestrel/internal/config"
	"github.com/kestrelhq/kestrel/internal/graph"
	"github.com/kestrelhq/kestrel/internal/logging"
	"github.com/kestrelhq/kestrel/internal/manifest"
	"github.com/kestrelhq/kestrel/internal/report"
	"github.com/kestrelhq/kestrel/internal/sched"
	"github.com/kestrelhq/kestrel/internal/status"
	"github.com/kestrelhq/kestrel/internal/tui"
)

// Run subcommand flag values.
var (
	runFlagSuite   string
	runFlagWorkers int
	runFlagPolicy  string
	runFlagWorkDir string
	runFlagShuffle bool
	runFlagWatch   bool
)

// eventBuffer sizes the event channel feeding the progress view. The
// scheduler drops events on a full channel rather than blocking, so the
// buffer only needs to absorb bursts.
const eventBuffer = 256

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the test suite",
	Long: `Execute every test in the suite, ordering and gating them by their
declared dependencies. Tests with no pending dependencies run concurrently
up to the worker limit. The exit status is non-zero when any test fails or
any dependency declaration ends violated.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	addRunFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

// addRunFlags registers the run command's flags on the given flag set so the
// completion generator can mirror them on a fresh command tree.
func addRunFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&runFlagSuite, "suite", "s", "", "Path to the suite manifest (env: KESTREL_SUITE)")
	fs.IntVarP(&runFlagWorkers, "workers", "w", 0, "Maximum number of tests running concurrently (env: KESTREL_WORKERS)")
	fs.StringVar(&runFlagPolicy, "on-unsatisfied", "", "Gate policy for tests with violated dependencies: run, skip, or fail (env: KESTREL_ON_UNSATISFIED)")
	fs.StringVar(&runFlagWorkDir, "work-dir", "", "Working directory test processes run in (env: KESTREL_WORK_DIR)")
	fs.BoolVar(&runFlagShuffle, "shuffle", false, "Randomize the order of initially-ready tests (env: KESTREL_SHUFFLE)")
	fs.BoolVar(&runFlagWatch, "watch", false, "Show a live progress view while the suite runs")
}

// runOverrides builds the CLI override set from flags the user actually set.
func runOverrides(fs *pflag.FlagSet) *config.CLIOverrides {
	ov := &config.CLIOverrides{}
	if fs.Changed("suite") {
		ov.Suite = &runFlagSuite
	}
	if fs.Changed("workers") {
		ov.Workers = &runFlagWorkers
	}
	if fs.Changed("on-unsatisfied") {
		ov.OnUnsatisfied = &runFlagPolicy
	}
	if fs.Changed("work-dir") {
		ov.WorkDir = &runFlagWorkDir
	}
	if fs.Changed("shuffle") {
		ov.Shuffle = &runFlagShuffle
	}
	return ov
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := logging.New("run")

	resolved, meta, err := loadAndResolveConfig(runOverrides(cmd.Flags()))
	if err != nil {
		return err
	}
	cfg := resolved.Config

	// The config file may select the JSON log format; env still wins.
	if os.Getenv(config.EnvLogFormat) == "" {
		logging.Setup(flagVerbose, flagQuiet, cfg.Log.Format)
	}
	applyColorMode(cfg.Report.Color)

	result := config.Validate(cfg, metaOrZero(meta))
	for _, w := range result.Warnings() {
		logger.Warn("config warning", "field", w.Field, "message", w.Message)
	}
	if result.HasErrors() {
		for _, e := range result.Errors() {
			logger.Error("config error", "field", e.Field, "message", e.Message)
		}
		return fmt.Errorf("configuration has %d error(s)", len(result.Errors()))
	}

	m, suiteName, err := loadManifest(cfg, resolved.Path, logger)
	if err != nil {
		return err
	}

	g, buildRes := graph.Build(m.Specs())
	if !buildRes.IsValid() {
		fmt.Fprint(os.Stderr, buildRes.String())
		return fmt.Errorf("suite configuration has %d error(s)", len(buildRes.Errors))
	}

	policy, err := sched.ParsePolicy(cfg.Run.OnUnsatisfied)
	if err != nil {
		return fmt.Errorf("run.on_unsatisfied: %w", err)
	}

	runner := sched.NewExecRunner(m.Commands(),
		sched.WithWorkDir(cfg.Run.WorkDir),
		sched.WithExecLogger(logging.New("exec")),
	)

	opts := []sched.Option{
		sched.WithWorkers(cfg.Run.Workers),
		sched.WithPolicy(policy),
		sched.WithShuffle(cfg.Run.Shuffle),
		sched.WithLogger(logging.New("sched")),
	}

	var events chan sched.Event
	if runFlagWatch {
		events = make(chan sched.Event, eventBuffer)
		opts = append(opts, sched.WithEvents(events))
	}

	scheduler := sched.New(g, runner, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting run",
		"suite", suiteName,
		"tests", g.Len(),
		"workers", cfg.Run.Workers,
		"policy", policy.String(),
	)

	summary, runErr := executeRun(ctx, scheduler, suiteName, g.Names(), events)

	renderer := report.NewRenderer(report.DefaultStyles())
	fmt.Print(renderer.Render(suiteName, m.Fingerprint(), g.Snapshot(), summary))

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	if summary.Failed() {
		return fmt.Errorf("run failed: %d failed, %d violated dependency declaration(s)",
			summary.Counts[status.Fail], len(summary.Violations))
	}
	return nil
}

// executeRun drives the scheduler, optionally behind the live progress view.
// The events channel is non-nil only in watch mode; it is closed once the
// scheduler returns so the progress view knows to quit.
func executeRun(ctx context.Context, scheduler *sched.Scheduler, suite string, names []string, events chan sched.Event) (*sched.Summary, error) {
	if events == nil {
		return scheduler.Run(ctx)
	}

	type runResult struct {
		summary *sched.Summary
		err     error
	}
	resCh := make(chan runResult, 1)

	go func() {
		summary, err := scheduler.Run(ctx)
		close(events)
		resCh <- runResult{summary, err}
	}()

	prog := tea.NewProgram(tui.NewProgress(suite, names, events))
	if _, err := prog.Run(); err != nil {
		// The progress view is cosmetic; the run itself continues.
		res := <-resCh
		if res.err == nil {
			res.err = fmt.Errorf("progress view: %w", err)
		}
		return res.summary, res.err
	}

	res := <-resCh
	return res.summary, res.err
}

// loadManifest resolves the suite path relative to the config file, loads
// the manifest, and warns about unknown keys. It returns the manifest and
// the display name for the suite.
func loadManifest(cfg *config.Config, cfgPath string, logger *log.Logger) (*manifest.Manifest, string, error) {
	suitePath := cfg.Run.Suite
	if !filepath.IsAbs(suitePath) && cfgPath != "" {
		suitePath = filepath.Join(filepath.Dir(cfgPath), suitePath)
	}

	m, md, err := manifest.Load(suitePath)
	if err != nil {
		return nil, "", err
	}
	for _, key := range md.Undecoded() {
		logger.Warn("unknown key in suite manifest", "file", suitePath, "key", key.String())
	}

	name := m.Suite.Name
	if name == "" {
		name = filepath.Base(suitePath)
	}
	return m, name, nil
}

// applyColorMode maps report.color onto the lipgloss color profile. "auto"
// leaves terminal detection alone.
func applyColorMode(mode string) {
	switch mode {
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	case "always":
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// metaOrZero unwraps the optional TOML metadata from config loading.
func metaOrZero(meta *toml.MetaData) toml.MetaData {
	if meta == nil {
		return toml.MetaData{}
	}
	return *meta
}
