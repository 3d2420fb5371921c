package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ValidationSeverity indicates whether a validation issue is an error or warning.
type ValidationSeverity string

const (
	// SeverityError indicates a fatal validation issue; the configuration is unusable.
	SeverityError ValidationSeverity = "error"
	// SeverityWarning indicates an informational validation issue; the
	// configuration works but may have problems.
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue represents a single validation finding.
type ValidationIssue struct {
	Severity ValidationSeverity
	Field    string // dotted path, e.g., "run.workers"
	Message  string
}

// ValidationResult holds all validation findings.
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasErrors returns true if any issue has error severity.
func (vr *ValidationResult) HasErrors() bool {
	for _, issue := range vr.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (vr *ValidationResult) Errors() []ValidationIssue {
	var errs []ValidationIssue
	for _, issue := range vr.Issues {
		if issue.Severity == SeverityError {
			errs = append(errs, issue)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (vr *ValidationResult) Warnings() []ValidationIssue {
	var warns []ValidationIssue
	for _, issue := range vr.Issues {
		if issue.Severity == SeverityWarning {
			warns = append(warns, issue)
		}
	}
	return warns
}

// validPolicies is the set of accepted run.on_unsatisfied values.
var validPolicies = map[string]bool{"": true, "run": true, "skip": true, "fail": true}

// validLogFormats is the set of accepted log.format values.
var validLogFormats = map[string]bool{"": true, "text": true, "json": true}

// validColorModes is the set of accepted report.color values.
var validColorModes = map[string]bool{"": true, "auto": true, "always": true, "never": true}

// Validate checks the configuration for problems, collecting every finding
// rather than stopping at the first. Unknown keys from the TOML metadata are
// reported as warnings so a typo never silently disables a setting.
func Validate(cfg *Config, md toml.MetaData) *ValidationResult {
	result := &ValidationResult{}

	addError := func(field, message string) {
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: SeverityError, Field: field, Message: message,
		})
	}
	addWarning := func(field, message string) {
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: SeverityWarning, Field: field, Message: message,
		})
	}

	if cfg.Run.Suite == "" {
		addError("run.suite", "suite manifest path must not be empty")
	}
	if cfg.Run.Workers < 1 {
		addError("run.workers", fmt.Sprintf("workers must be at least 1, got %d", cfg.Run.Workers))
	}
	if !validPolicies[cfg.Run.OnUnsatisfied] {
		addError("run.on_unsatisfied", fmt.Sprintf("unknown gate policy %q (want run, skip, or fail)", cfg.Run.OnUnsatisfied))
	}
	if !validLogFormats[cfg.Log.Format] {
		addError("log.format", fmt.Sprintf("unknown log format %q (want text or json)", cfg.Log.Format))
	}
	if !validColorModes[cfg.Report.Color] {
		addError("report.color", fmt.Sprintf("unknown color mode %q (want auto, always, or never)", cfg.Report.Color))
	}

	for _, key := range md.Undecoded() {
		addWarning(key.String(), "unknown configuration key")
	}

	return result
}
