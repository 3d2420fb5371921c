package e2e_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_CleanSuite(t *testing.T) {
	t.Parallel()

	p := newTestSuite(t, defaultConfig, `
[suite]
name = "clean"

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

	out, code := p.run("validate")

	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "suite clean: 2 test(s)")
	assert.Contains(t, out, "configuration valid")
}

func TestValidate_ReportsEveryError(t *testing.T) {
	t.Parallel()

	p := newTestSuite(t, defaultConfig, `
[[test]]
name = "a"
cmd = ["true"]

  [[test.depends]]
  pattern = "a"

  [[test.depends]]
  pattern = "b"
  expect = "sometimes"

  [[test.depends]]
  pattern = "b"
  result = "pass and diff"
`)

	out, code := p.run("validate")

	assert.Equal(t, 1, code)
	// All findings surface in one pass, not just the first.
	assert.Contains(t, out, "names its own test as a dependency")
	assert.Contains(t, out, "sometimes")
	assert.Contains(t, out, "pass and diff")
}

func TestValidate_VerboseShowsCandidates(t *testing.T) {
	t.Parallel()

	p := newTestSuite(t, defaultConfig, `
[[test]]
name = "foo_one"
cmd = ["true"]

[[test]]
name = "foo_two"
cmd = ["true"]

[[test]]
name = "gate"
cmd = ["true"]

  [[test.depends]]
  pattern = "foo_*"
  expect = "2"
`)

	out, code := p.run("validate", "--verbose")

	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "foo_one, foo_two")
}

func TestConfigDebug_ShowsSources(t *testing.T) {
	t.Parallel()

	p := newTestSuite(t, `[run]
workers = 9
`, `
[[test]]
name = "only"
cmd = ["true"]
`)

	out, code := p.run("config", "debug")

	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "workers")
	assert.Contains(t, out, "(source: file)")
	assert.Contains(t, out, "(source: default)")
}

func TestConfigValidate_UnknownKeyWarns(t *testing.T) {
	t.Parallel()

	p := newTestSuite(t, `[run]
workres = 9
`, `
[[test]]
name = "only"
cmd = ["true"]
`)

	out, code := p.run("config", "validate")

	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "workres")
}
