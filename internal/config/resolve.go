package config

import (
	"strconv"
	"strings"
)

// ConfigSource identifies where a configuration value came from.
type ConfigSource string

const (
	// SourceDefault indicates the value came from built-in defaults.
	SourceDefault ConfigSource = "default"
	// SourceFile indicates the value came from the kestrel.toml config file.
	SourceFile ConfigSource = "file"
	// SourceEnv indicates the value came from an environment variable.
	SourceEnv ConfigSource = "env"
	// SourceCLI indicates the value came from a CLI flag.
	SourceCLI ConfigSource = "cli"
)

// ResolvedConfig holds the fully-resolved configuration with source tracking.
// The Config field contains the merged values; Sources tracks where each came from.
type ResolvedConfig struct {
	Config  *Config
	Sources map[string]ConfigSource // key is dotted path, e.g., "run.workers"
	Path    string                  // path to the config file used (empty if none)
}

// CLIOverrides captures flag values that can override configuration.
// Nil fields mean "not set" (do not override). A *string that is nil means
// "not overridden"; a *string pointing to "" means "override to empty string."
type CLIOverrides struct {
	Suite         *string
	Workers       *int
	OnUnsatisfied *string
	WorkDir       *string
	Shuffle       *bool
	LogFormat     *string
	ReportColor   *string
}

// EnvFunc is a function that looks up environment variables.
// Default implementation is os.LookupEnv. Injected for testability.
type EnvFunc func(key string) (string, bool)

// Environment variables recognized by Resolve.
const (
	EnvSuite         = "KESTREL_SUITE"
	EnvWorkers       = "KESTREL_WORKERS"
	EnvOnUnsatisfied = "KESTREL_ON_UNSATISFIED"
	EnvWorkDir       = "KESTREL_WORK_DIR"
	EnvShuffle       = "KESTREL_SHUFFLE"
	EnvLogFormat     = "KESTREL_LOG_FORMAT"
	EnvReportColor   = "KESTREL_REPORT_COLOR"
)

// Resolve merges configuration from all sources in priority order:
// CLI flags > environment variables > config file > defaults.
//
// fileConfig is the parsed kestrel.toml (nil if no file was found). envFn
// looks up environment variables; overrides carries CLI flag values with nil
// fields meaning "not set".
func Resolve(defaults *Config, fileConfig *Config, envFn EnvFunc, overrides *CLIOverrides) *ResolvedConfig {
	rc := &ResolvedConfig{
		Config:  &Config{},
		Sources: make(map[string]ConfigSource),
	}

	if defaults == nil {
		defaults = &Config{}
	}
	if envFn == nil {
		envFn = func(string) (string, bool) { return "", false }
	}
	if overrides == nil {
		overrides = &CLIOverrides{}
	}

	// Layer 1: defaults as the base.
	setString(&rc.Config.Run.Suite, defaults.Run.Suite, "run.suite", SourceDefault, rc.Sources)
	setInt(&rc.Config.Run.Workers, defaults.Run.Workers, "run.workers", SourceDefault, rc.Sources)
	setString(&rc.Config.Run.OnUnsatisfied, defaults.Run.OnUnsatisfied, "run.on_unsatisfied", SourceDefault, rc.Sources)
	setString(&rc.Config.Run.WorkDir, defaults.Run.WorkDir, "run.work_dir", SourceDefault, rc.Sources)
	setBool(&rc.Config.Run.Shuffle, defaults.Run.Shuffle, "run.shuffle", SourceDefault, rc.Sources)
	setString(&rc.Config.Log.Format, defaults.Log.Format, "log.format", SourceDefault, rc.Sources)
	setString(&rc.Config.Report.Color, defaults.Report.Color, "report.color", SourceDefault, rc.Sources)

	// Layer 2: config file (non-zero values override).
	if fileConfig != nil {
		mergeString(&rc.Config.Run.Suite, fileConfig.Run.Suite, "run.suite", SourceFile, rc.Sources)
		mergeInt(&rc.Config.Run.Workers, fileConfig.Run.Workers, "run.workers", SourceFile, rc.Sources)
		mergeString(&rc.Config.Run.OnUnsatisfied, fileConfig.Run.OnUnsatisfied, "run.on_unsatisfied", SourceFile, rc.Sources)
		mergeString(&rc.Config.Run.WorkDir, fileConfig.Run.WorkDir, "run.work_dir", SourceFile, rc.Sources)
		// A bool can only merge in one direction.
		if fileConfig.Run.Shuffle {
			setBool(&rc.Config.Run.Shuffle, true, "run.shuffle", SourceFile, rc.Sources)
		}
		mergeString(&rc.Config.Log.Format, fileConfig.Log.Format, "log.format", SourceFile, rc.Sources)
		mergeString(&rc.Config.Report.Color, fileConfig.Report.Color, "report.color", SourceFile, rc.Sources)
	}

	// Layer 3: environment variables.
	if v, ok := envFn(EnvSuite); ok && v != "" {
		setString(&rc.Config.Run.Suite, v, "run.suite", SourceEnv, rc.Sources)
	}
	if v, ok := envFn(EnvWorkers); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			setInt(&rc.Config.Run.Workers, n, "run.workers", SourceEnv, rc.Sources)
		}
	}
	if v, ok := envFn(EnvOnUnsatisfied); ok && v != "" {
		setString(&rc.Config.Run.OnUnsatisfied, v, "run.on_unsatisfied", SourceEnv, rc.Sources)
	}
	if v, ok := envFn(EnvWorkDir); ok && v != "" {
		setString(&rc.Config.Run.WorkDir, v, "run.work_dir", SourceEnv, rc.Sources)
	}
	if v, ok := envFn(EnvShuffle); ok && v != "" {
		setBool(&rc.Config.Run.Shuffle, v != "0" && !strings.EqualFold(v, "false"), "run.shuffle", SourceEnv, rc.Sources)
	}
	if v, ok := envFn(EnvLogFormat); ok && v != "" {
		setString(&rc.Config.Log.Format, v, "log.format", SourceEnv, rc.Sources)
	}
	if v, ok := envFn(EnvReportColor); ok && v != "" {
		setString(&rc.Config.Report.Color, v, "report.color", SourceEnv, rc.Sources)
	}

	// Layer 4: CLI overrides.
	if overrides.Suite != nil {
		setString(&rc.Config.Run.Suite, *overrides.Suite, "run.suite", SourceCLI, rc.Sources)
	}
	if overrides.Workers != nil {
		setInt(&rc.Config.Run.Workers, *overrides.Workers, "run.workers", SourceCLI, rc.Sources)
	}
	if overrides.OnUnsatisfied != nil {
		setString(&rc.Config.Run.OnUnsatisfied, *overrides.OnUnsatisfied, "run.on_unsatisfied", SourceCLI, rc.Sources)
	}
	if overrides.WorkDir != nil {
		setString(&rc.Config.Run.WorkDir, *overrides.WorkDir, "run.work_dir", SourceCLI, rc.Sources)
	}
	if overrides.Shuffle != nil {
		setBool(&rc.Config.Run.Shuffle, *overrides.Shuffle, "run.shuffle", SourceCLI, rc.Sources)
	}
	if overrides.LogFormat != nil {
		setString(&rc.Config.Log.Format, *overrides.LogFormat, "log.format", SourceCLI, rc.Sources)
	}
	if overrides.ReportColor != nil {
		setString(&rc.Config.Report.Color, *overrides.ReportColor, "report.color", SourceCLI, rc.Sources)
	}

	return rc
}

// setString assigns val unconditionally and records the source.
func setString(dst *string, val, key string, src ConfigSource, sources map[string]ConfigSource) {
	*dst = val
	sources[key] = src
}

// mergeString assigns val only when it is non-empty, recording the source.
func mergeString(dst *string, val, key string, src ConfigSource, sources map[string]ConfigSource) {
	if val != "" {
		*dst = val
		sources[key] = src
	}
}

func setBool(dst *bool, val bool, key string, src ConfigSource, sources map[string]ConfigSource) {
	*dst = val
	sources[key] = src
}

func setInt(dst *int, val int, key string, src ConfigSource, sources map[string]ConfigSource) {
	*dst = val
	sources[key] = src
}

func mergeInt(dst *int, val int, key string, src ConfigSource, sources map[string]ConfigSource) {
	if val != 0 {
		*dst = val
		sources[key] = src
	}
}
