package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// testSuite is an isolated suite directory with kestrel.toml, suite.toml,
// and the built kestrel binary.
type testSuite struct {
	Dir        string
	BinaryPath string
	t          *testing.T
}

var (
	buildOnce   sync.Once
	builtBinary string
	buildErr    error
)

// kestrelBinary builds the kestrel binary once per test run and returns its
// path. Subsequent calls reuse the same binary.
func kestrelBinary(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("E2E tests use sh commands and are not supported on Windows")
	}

	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "kestrel-e2e-*")
		if err != nil {
			buildErr = err
			return
		}
		builtBinary = filepath.Join(dir, "kestrel")

		build := exec.Command("go", "build", "-o", builtBinary, "./cmd/kestrel")
		build.Dir = projectRoot()
		out, err := build.CombinedOutput()
		if err != nil {
			buildErr = err
			builtBinary = string(out)
		}
	})
	require.NoError(t, buildErr, "building kestrel: %s", builtBinary)
	return builtBinary
}

// projectRoot returns the absolute path to the root of the repository.
// It uses runtime.Caller(0) to find this source file's location and navigates
// two directories up (tests/e2e/ -> tests/ -> repo root).
func projectRoot() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..")
}

// newTestSuite creates a fresh suite directory with the given config and
// manifest content.
func newTestSuite(t *testing.T, configTOML, suiteTOML string) *testSuite {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kestrel.toml"), []byte(configTOML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "suite.toml"), []byte(suiteTOML), 0o644))

	return &testSuite{Dir: dir, BinaryPath: kestrelBinary(t), t: t}
}

// run executes the binary with args inside the suite directory, returning
// combined output and exit code.
func (p *testSuite) run(args ...string) (string, int) {
	p.t.Helper()

	cmd := exec.Command(p.BinaryPath, args...)
	cmd.Dir = p.Dir
	cmd.Env = append(os.Environ(), "NO_COLOR=1")

	out, err := cmd.CombinedOutput()
	if err == nil {
		return string(out), 0
	}
	exitErr, ok := err.(*exec.ExitError)
	require.True(p.t, ok, "unexpected error running kestrel: %v (output: %s)", err, out)
	return string(out), exitErr.ExitCode()
}

// defaultConfig is a minimal kestrel.toml used by most scenarios.
const defaultConfig = `[run]
suite = "suite.toml"
workers = 4
`
