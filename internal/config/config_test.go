package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	want := writeConfig(t, root, "")

	got, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindConfigFile_NotFound(t *testing.T) {
	t.Parallel()

	got, err := FindConfigFile(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `
[run]
suite = "tests/suite.toml"
workers = 8
on_unsatisfied = "fail"

[log]
format = "json"
`)

	cfg, md, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, md.Undecoded())

	assert.Equal(t, "tests/suite.toml", cfg.Run.Suite)
	assert.Equal(t, 8, cfg.Run.Workers)
	assert.Equal(t, "fail", cfg.Run.OnUnsatisfied)
	assert.Equal(t, "json", cfg.Log.Format)
	// Unset sections keep their defaults.
	assert.Equal(t, "auto", cfg.Report.Color)
}

func TestLoadFromFile_DefaultsWhenEmpty(t *testing.T) {
	t.Parallel()

	cfg, _, err := LoadFromFile(writeConfig(t, t.TempDir(), ""))
	require.NoError(t, err)
	assert.Equal(t, NewDefaults(), cfg)
}

func TestLoadFromFile_Malformed(t *testing.T) {
	t.Parallel()

	_, _, err := LoadFromFile(writeConfig(t, t.TempDir(), "[run\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		wantField string
	}{
		{
			name:      "zero workers",
			content:   "[run]\nsuite = \"s.toml\"\nworkers = 0\n",
			wantField: "run.workers",
		},
		{
			name:      "unknown policy",
			content:   "[run]\non_unsatisfied = \"explode\"\n",
			wantField: "run.on_unsatisfied",
		},
		{
			name:      "unknown log format",
			content:   "[log]\nformat = \"xml\"\n",
			wantField: "log.format",
		},
		{
			name:      "unknown color mode",
			content:   "[report]\ncolor = \"sometimes\"\n",
			wantField: "report.color",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, md, err := LoadFromFile(writeConfig(t, t.TempDir(), tt.content))
			require.NoError(t, err)

			result := Validate(cfg, md)
			require.True(t, result.HasErrors())
			fields := make([]string, 0, len(result.Errors()))
			for _, issue := range result.Errors() {
				fields = append(fields, issue.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidate_UnknownKeyWarns(t *testing.T) {
	t.Parallel()

	cfg, md, err := LoadFromFile(writeConfig(t, t.TempDir(), "[run]\nworkerz = 3\n"))
	require.NoError(t, err)

	result := Validate(cfg, md)
	assert.False(t, result.HasErrors())
	require.NotEmpty(t, result.Warnings())
	assert.Equal(t, "run.workerz", result.Warnings()[0].Field)
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	t.Parallel()

	cfg, md, err := LoadFromFile(writeConfig(t, t.TempDir(), ""))
	require.NoError(t, err)
	result := Validate(cfg, md)
	assert.False(t, result.HasErrors())
	assert.Empty(t, result.Warnings())
}
