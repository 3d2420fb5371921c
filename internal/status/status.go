// Package status defines the lifecycle states a test passes through during a
// run. A test starts as NotRun, may transiently be Running, and settles into
// exactly one terminal status (Pass, Diff, Fail, or Skip) which is immutable
// for the remainder of the run.
package status

import (
	"fmt"
	"strings"
)

// Status represents the current state of a test.
type Status string

const (
	// NotRun indicates the test has not begun execution.
	NotRun Status = "not_run"

	// Running indicates the test is currently executing.
	Running Status = "running"

	// Pass indicates the test finished and its result matched expectations.
	Pass Status = "pass"

	// Diff indicates the test finished but its output differed from the
	// baseline. Diff is a terminal status distinct from Fail: the test ran
	// to completion.
	Diff Status = "diff"

	// Fail indicates the test finished unsuccessfully.
	Fail Status = "fail"

	// Skip indicates the test was not executed, either by cancellation or
	// because its dependency gate decided against running it.
	Skip Status = "skip"
)

// terminalStatuses is the set of statuses a test can settle into. Once a test
// reaches one of these it never transitions again.
var terminalStatuses = map[Status]bool{
	Pass: true,
	Diff: true,
	Fail: true,
	Skip: true,
}

// IsTerminal returns true if the status is one of the four terminal values.
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status is a recognized value, terminal or not.
func (s Status) IsValid() bool {
	return s == NotRun || s == Running || terminalStatuses[s]
}

// Terminal returns all terminal status values in display order.
func Terminal() []Status {
	return []Status{Pass, Diff, Fail, Skip}
}

// Parse converts a status name into a terminal Status. Matching is
// case-insensitive. Only terminal statuses parse: NotRun and Running are
// internal lifecycle states, not results a declaration may name.
func Parse(name string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pass":
		return Pass, nil
	case "diff":
		return Diff, nil
	case "fail":
		return Fail, nil
	case "skip":
		return Skip, nil
	default:
		return "", fmt.Errorf("unknown status name %q (want one of: pass, diff, fail, skip)", name)
	}
}
