package config

// NewDefaults returns a Config populated with all default values.
func NewDefaults() *Config {
	return &Config{
		Run: RunConfig{
			Suite:         "suite.toml",
			Workers:       4,
			OnUnsatisfied: "skip",
		},
		Log: LogConfig{
			Format: "text",
		},
		Report: ReportConfig{
			Color: "auto",
		},
	}
}
