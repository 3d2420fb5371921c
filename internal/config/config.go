package config

// Config is the top-level configuration structure mapping to kestrel.toml.
type Config struct {
	Run    RunConfig    `toml:"run"`
	Log    LogConfig    `toml:"log"`
	Report ReportConfig `toml:"report"`
}

// RunConfig maps to the [run] section in kestrel.toml.
type RunConfig struct {
	// Suite is the path to the suite manifest, relative to the config file.
	Suite string `toml:"suite"`

	// Workers is the maximum number of tests executing concurrently.
	Workers int `toml:"workers"`

	// OnUnsatisfied is the gate policy applied to a test whose dependency
	// declarations are violated: "run", "skip", or "fail".
	OnUnsatisfied string `toml:"on_unsatisfied"`

	// WorkDir is the working directory test processes run in. Empty means
	// the current directory.
	WorkDir string `toml:"work_dir"`

	// Shuffle randomizes the seeding order of initially-ready tests.
	Shuffle bool `toml:"shuffle"`
}

// LogConfig maps to the [log] section in kestrel.toml.
type LogConfig struct {
	// Format selects the log formatter: "text" (default) or "json".
	Format string `toml:"format"`
}

// ReportConfig maps to the [report] section in kestrel.toml.
type ReportConfig struct {
	// Color controls colored report output: "auto" (default), "always",
	// or "never".
	Color string `toml:"color"`
}
