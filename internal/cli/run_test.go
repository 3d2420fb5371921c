package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/kestrel/internal/config"
)

// resetRunFlags resets the run command's local flag state between tests.
func resetRunFlags(t *testing.T) {
	t.Helper()
	resetRootCmd(t)
	runFlagSuite = ""
	runFlagWorkers = 0
	runFlagPolicy = ""
	runFlagWorkDir = ""
	runFlagWatch = false
	runCmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
	})
}

// writeSuite creates a kestrel.toml and suite.toml pair in a temp dir and
// returns the config path.
func writeSuite(t *testing.T, suiteTOML string) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte("[run]\nsuite = \"suite.toml\"\nworkers = 2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "suite.toml"), []byte(suiteTOML), 0o644))
	return cfgPath
}

func TestRunCmd_AllPass(t *testing.T) {
	resetRunFlags(t)

	cfgPath := writeSuite(t, `
[suite]
name = "demo"

[[test]]
name = "build"
cmd = ["true"]

[[test]]
name = "unit"
cmd = ["true"]

  [[test.depends]]
  pattern = "build"
`)

	rootCmd.SetArgs([]string{"run", "--config", cfgPath})
	var code int
	output := captureStdout(t, func() {
		code = Execute()
	})

	assert.Equal(t, 0, code)
	assert.Contains(t, output, "suite demo")
	assert.Contains(t, output, "build")
	assert.Contains(t, output, "unit")
	assert.Contains(t, output, "2 pass")
}

func TestRunCmd_FailurePropagates(t *testing.T) {
	resetRunFlags(t)

	cfgPath := writeSuite(t, `
[[test]]
name = "broken"
cmd = ["sh", "-c", "exit 1"]
`)

	rootCmd.SetArgs([]string{"run", "--config", cfgPath})
	var code int
	output := captureStdout(t, func() {
		code = Execute()
	})

	assert.Equal(t, 1, code)
	assert.Contains(t, output, "1 fail")
}

func TestRunCmd_DependentOfFailureIsSkipped(t *testing.T) {
	resetRunFlags(t)

	cfgPath := writeSuite(t, `
[[test]]
name = "broken"
cmd = ["sh", "-c", "exit 1"]

[[test]]
name = "gated"
cmd = ["true"]

  [[test.depends]]
  pattern = "broken"
`)

	rootCmd.SetArgs([]string{"run", "--config", cfgPath})
	var code int
	output := captureStdout(t, func() {
		code = Execute()
	})

	assert.Equal(t, 1, code)
	assert.Contains(t, output, "1 fail")
	assert.Contains(t, output, "1 skip")
	assert.Contains(t, output, "Violated dependencies")
}

func TestRunCmd_BuildErrorsReported(t *testing.T) {
	resetRunFlags(t)

	cfgPath := writeSuite(t, `
[[test]]
name = "a"
cmd = ["true"]

  [[test.depends]]
  pattern = "b"

[[test]]
name = "b"
cmd = ["true"]

  [[test.depends]]
  pattern = "a"
`)

	rootCmd.SetArgs([]string{"run", "--config", cfgPath})
	code := Execute()

	assert.Equal(t, 1, code)
}

func TestRunCmd_WorkersFlagOverridesConfig(t *testing.T) {
	resetRunFlags(t)

	cfgPath := writeSuite(t, `
[[test]]
name = "only"
cmd = ["true"]
`)

	rootCmd.SetArgs([]string{"run", "--config", cfgPath, "--workers", "1"})
	var code int
	captureStdout(t, func() {
		code = Execute()
	})

	assert.Equal(t, 0, code)
}

func TestRunOverrides_OnlyChangedFlags(t *testing.T) {
	resetRunFlags(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addRunFlags(fs)
	require.NoError(t, fs.Parse([]string{"--workers", "9"}))

	ov := runOverrides(fs)
	require.NotNil(t, ov.Workers)
	assert.Equal(t, 9, *ov.Workers)
	assert.Nil(t, ov.Suite)
	assert.Nil(t, ov.OnUnsatisfied)
	assert.Nil(t, ov.WorkDir)
}
