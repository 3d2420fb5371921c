package cli

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func resetValidateFlags(t *testing.T) {
	t.Helper()
	resetRootCmd(t)
	validateFlagSuite = ""
	validateCmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
	})
}

func TestValidateCmd_ValidSuite(t *testing.T) {
	resetValidateFlags(t)

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
  result = "pass or diff"
`)

	rootCmd.SetArgs([]string{"validate", "--config", cfgPath})
	var code int
	output := captureStdout(t, func() {
		code = Execute()
	})

	assert.Equal(t, 0, code)
	assert.Contains(t, output, "suite demo: 2 test(s)")
	assert.Contains(t, output, "configuration valid")
}

func TestValidateCmd_CycleRejected(t *testing.T) {
	resetValidateFlags(t)

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

	rootCmd.SetArgs([]string{"validate", "--config", cfgPath})
	code := Execute()

	assert.Equal(t, 1, code)
}

func TestValidateCmd_BadExpectRejected(t *testing.T) {
	resetValidateFlags(t)

	cfgPath := writeSuite(t, `
[[test]]
name = "a"
cmd = ["true"]

  [[test.depends]]
  pattern = "b"
  expect = "sometimes"
`)

	rootCmd.SetArgs([]string{"validate", "--config", cfgPath})
	code := Execute()

	assert.Equal(t, 1, code)
}

func TestValidateCmd_ZeroMatchWarnsButPasses(t *testing.T) {
	resetValidateFlags(t)

	// An at-least-one expectation over a pattern matching nothing is a
	// warning at validate time, not an error.
	cfgPath := writeSuite(t, `
[[test]]
name = "a"
cmd = ["true"]

  [[test.depends]]
  pattern = "ghost_*"
`)

	rootCmd.SetArgs([]string{"validate", "--config", cfgPath})
	var code int
	captureStdout(t, func() {
		code = Execute()
	})

	assert.Equal(t, 0, code)
}
