package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/kestrelhq/kestrel/internal/config"
	"github.com/kestrelhq/kestrel/internal/logging"
)

// ErrInitCancelled is returned when the user cancels the init wizard.
var ErrInitCancelled = errors.New("init cancelled by user")

// wizardWidth is the fixed form width used by the wizard.
const wizardWidth = 80

var (
	initFlagName    string
	initFlagForce   bool
	initFlagNoInput bool
)

// initCmd implements "kestrel init". It scaffolds a kestrel.toml and a
// starter suite manifest in the current directory.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new Kestrel suite in the current directory",
	Long: `Create a kestrel.toml configuration file and a starter suite manifest.
An interactive wizard prompts for the suite name, worker count, and gate
policy; pass --no-input to accept defaults without prompting.

Existing files are preserved unless --force is supplied.`,
	Args: cobra.NoArgs,

	// Override PersistentPreRunE so the init command never attempts to load
	// a kestrel.toml. We still replicate the env-var checks, logging setup,
	// color disable, and --dir handling from the root PersistentPreRunE.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Root().PersistentFlags().Changed("verbose") && os.Getenv("KESTREL_VERBOSE") != "" {
			flagVerbose = true
		}
		if !cmd.Root().PersistentFlags().Changed("quiet") && os.Getenv("KESTREL_QUIET") != "" {
			flagQuiet = true
		}
		if !cmd.Root().PersistentFlags().Changed("no-color") &&
			(os.Getenv("NO_COLOR") != "" || os.Getenv("KESTREL_NO_COLOR") != "") {
			flagNoColor = true
		}

		logging.Setup(flagVerbose, flagQuiet, os.Getenv(config.EnvLogFormat))

		if flagNoColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}

		if flagDir != "" {
			if err := os.Chdir(flagDir); err != nil {
				return fmt.Errorf("changing directory to %s: %w", flagDir, err)
			}
		}

		return nil
	},

	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initFlagName, "name", "n", "", "Suite name (defaults to current directory name)")
	initCmd.Flags().BoolVar(&initFlagForce, "force", false, "Overwrite existing files")
	initCmd.Flags().BoolVar(&initFlagNoInput, "no-input", false, "Accept defaults without prompting")
	rootCmd.AddCommand(initCmd)
}

// initChoices holds the wizard's answers.
type initChoices struct {
	Name    string
	Workers int
	Policy  string
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := logging.New("init")

	choices := initChoices{
		Name:    initFlagName,
		Workers: 4,
		Policy:  "skip",
	}
	if choices.Name == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining current directory: %w", err)
		}
		choices.Name = filepath.Base(cwd)
	}

	if !initFlagNoInput {
		if err := runInitWizard(&choices); err != nil {
			return err
		}
	}

	files := map[string]string{
		config.ConfigFileName: renderConfigFile(choices),
		"suite.toml":          renderSuiteFile(choices),
	}

	for name, content := range files {
		if !initFlagForce {
			if _, err := os.Stat(name); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", name)
			}
		}
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		logger.Info("wrote file", "path", name)
	}

	fmt.Printf("Initialized suite %q. Edit suite.toml, then run: kestrel run\n", choices.Name)
	return nil
}

// runInitWizard prompts for the suite name, worker count, and gate policy,
// ending with a confirmation page.
func runInitWizard(choices *initChoices) error {
	workersStr := strconv.Itoa(choices.Workers)
	confirmed := false

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Suite name:").
				Value(&choices.Name).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("name must not be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Concurrent workers:").
				Value(&workersStr).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 {
						return errors.New("must be a positive integer")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("When a test's dependencies are violated:").
				Options(
					huh.NewOption("Skip the test", "skip"),
					huh.NewOption("Fail the test", "fail"),
					huh.NewOption("Run it anyway", "run"),
				).
				Value(&choices.Policy),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write kestrel.toml and suite.toml here?").
				Value(&confirmed),
		),
	).
		WithTheme(huh.ThemeCharm()).
		WithWidth(wizardWidth)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrInitCancelled
		}
		return err
	}
	if !confirmed {
		return ErrInitCancelled
	}

	choices.Workers, _ = strconv.Atoi(workersStr)
	return nil
}

// renderConfigFile produces the kestrel.toml scaffold.
func renderConfigFile(c initChoices) string {
	return fmt.Sprintf(`[run]
suite = "suite.toml"
workers = %d
on_unsatisfied = %q

[log]
format = "text"

[report]
color = "auto"
`, c.Workers, c.Policy)
}

// renderSuiteFile produces a starter suite manifest with one dependency
// chain as a worked example.
func renderSuiteFile(c initChoices) string {
	return fmt.Sprintf(`[suite]
name = %q

[[test]]
name = "build"
cmd = ["true"]

[[test]]
name = "unit"
cmd = ["true"]

  [[test.depends]]
  pattern = "build"

[[test]]
name = "integration"
cmd = ["true"]

  [[test.depends]]
  pattern = "unit"
  expect = "+"
  result = "pass or diff"
`, c.Name)
}
