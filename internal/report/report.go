// Package report renders the human-readable outcome of a run: a per-status
// summary line, the final status of every test, and a diagnostic for each
// violated dependency declaration (pattern, expected operator and filter,
// actual count and statuses).
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kestrelhq/kestrel/internal/resolve"
	"github.com/kestrelhq/kestrel/internal/sched"
	"github.com/kestrelhq/kestrel/internal/status"
)

// Styles holds the lipgloss styles used by the report renderer.
type Styles struct {
	Header    lipgloss.Style
	Pass      lipgloss.Style
	Diff      lipgloss.Style
	Fail      lipgloss.Style
	Skip      lipgloss.Style
	Muted     lipgloss.Style
	Violation lipgloss.Style
}

// DefaultStyles returns the standard report color scheme.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true),
		Pass:      lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}),
		Diff:      lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}),
		Fail:      lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}),
		Skip:      lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}),
		Violation: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}),
	}
}

// Renderer renders run reports with a fixed style set.
type Renderer struct {
	styles Styles
}

// NewRenderer creates a Renderer with the given styles.
func NewRenderer(styles Styles) *Renderer {
	return &Renderer{styles: styles}
}

// statusStyle picks the style for a terminal status.
func (r *Renderer) statusStyle(st status.Status) lipgloss.Style {
	switch st {
	case status.Pass:
		return r.styles.Pass
	case status.Diff:
		return r.styles.Diff
	case status.Fail:
		return r.styles.Fail
	case status.Skip:
		return r.styles.Skip
	default:
		return r.styles.Muted
	}
}

// Render produces the complete post-run report: suite header, per-test
// results sorted by name, violation diagnostics, and the summary counts.
func (r *Renderer) Render(suite string, fingerprint uint64, statuses map[string]status.Status, summary *sched.Summary) string {
	var b strings.Builder

	header := fmt.Sprintf("suite %s", suite)
	if suite == "" {
		header = "suite"
	}
	b.WriteString(r.styles.Header.Render(header))
	b.WriteString(r.styles.Muted.Render(fmt.Sprintf("  (run %016x)", fingerprint)))
	b.WriteString("\n\n")

	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		st := statuses[name]
		b.WriteString(fmt.Sprintf("  %s  %s\n", r.statusStyle(st).Render(pad(string(st), 7)), name))
	}

	if len(summary.Violations) > 0 {
		b.WriteString("\n")
		b.WriteString(r.styles.Header.Render(fmt.Sprintf("Violated dependencies (%d):", len(summary.Violations))))
		b.WriteString("\n")
		for _, line := range ViolationLines(summary.Violations) {
			b.WriteString("  ")
			b.WriteString(r.styles.Violation.Render(line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(r.renderCounts(summary))
	b.WriteString("\n")
	return b.String()
}

// renderCounts renders the one-line per-status tally, e.g.
// "4 pass, 1 diff, 1 fail, 0 skip (0.52s)".
func (r *Renderer) renderCounts(summary *sched.Summary) string {
	parts := make([]string, 0, 4)
	for _, st := range status.Terminal() {
		part := fmt.Sprintf("%d %s", summary.Counts[st], st)
		if summary.Counts[st] > 0 {
			part = r.statusStyle(st).Render(part)
		} else {
			part = r.styles.Muted.Render(part)
		}
		parts = append(parts, part)
	}
	return fmt.Sprintf("%s %s", strings.Join(parts, ", "),
		r.styles.Muted.Render(fmt.Sprintf("(%.2fs)", summary.Duration.Seconds())))
}

// ViolationLines renders one diagnostic line per violated record, in a
// stable order. Exposed separately so plain-text consumers (logs, the
// validate command) can reuse the wording without styling.
func ViolationLines(violations []resolve.Record) []string {
	lines := make([]string, 0, len(violations))
	for _, rec := range violations {
		lines = append(lines, rec.Diagnostic())
	}
	sort.Strings(lines)
	return lines
}

// pad right-pads s with spaces to width w.
func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
