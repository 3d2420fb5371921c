package sched

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kestrelhq/kestrel/internal/resolve"
	"github.com/kestrelhq/kestrel/internal/status"
)

// Exit codes a test process uses to report a non-pass terminal status.
// Any other non-zero exit is Fail.
const (
	// ExitPass is the conventional zero exit for a passing test.
	ExitPass = 0

	// ExitDiff signals the test ran to completion but its output differed
	// from the baseline.
	ExitDiff = 10

	// ExitSkip signals the test declined to run.
	ExitSkip = 63
)

// ExecRunner executes tests as external processes. Each test name maps to an
// argv; the test's dependency context is exposed through the environment so
// the script can introspect which dependencies ran and how they finished.
type ExecRunner struct {
	commands map[string][]string
	workDir  string
	logger   *log.Logger
}

// ExecOption is a functional option for configuring an ExecRunner.
type ExecOption func(*ExecRunner)

// WithWorkDir sets the working directory test processes run in.
func WithWorkDir(dir string) ExecOption {
	return func(r *ExecRunner) { r.workDir = dir }
}

// WithExecLogger attaches a structured logger to the runner.
func WithExecLogger(l *log.Logger) ExecOption {
	return func(r *ExecRunner) { r.logger = l }
}

// NewExecRunner creates an ExecRunner from a test-name-to-argv mapping.
func NewExecRunner(commands map[string][]string, opts ...ExecOption) *ExecRunner {
	r := &ExecRunner{commands: commands}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the named test's command and maps its exit code to a terminal
// status: 0 is Pass, ExitDiff is Diff, ExitSkip is Skip, anything else is
// Fail. A test with no command is an error.
//
// The process environment carries the dependency context:
//
//	KESTREL_TEST     the test's own name
//	KESTREL_DEPS     space-separated name=status pairs, ordered by name
//	KESTREL_DEPS_OK  "1" if every declaration is satisfied, "0" otherwise
func (r *ExecRunner) Run(ctx context.Context, test string, deps resolve.Context) (status.Status, error) {
	argv, ok := r.commands[test]
	if !ok || len(argv) == 0 {
		return status.Fail, fmt.Errorf("test %q has no command", test)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.workDir
	cmd.Env = append(os.Environ(),
		"KESTREL_TEST="+test,
		"KESTREL_DEPS="+strings.Join(deps.Pairs(), " "),
		"KESTREL_DEPS_OK="+boolEnv(deps.Satisfied()),
	)

	err := cmd.Run()
	if err == nil {
		return status.Pass, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if r.logger != nil {
			r.logger.Debug("test process exited", "test", test, "code", code)
		}
		switch code {
		case ExitDiff:
			return status.Diff, nil
		case ExitSkip:
			return status.Skip, nil
		default:
			return status.Fail, nil
		}
	}

	// The process could not be started at all.
	return status.Fail, fmt.Errorf("running test %q: %w", test, err)
}

func boolEnv(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
