// Package tui provides the live progress view for a run: one line per test
// showing its current status, updated from the scheduler's event stream.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrelhq/kestrel/internal/sched"
	"github.com/kestrelhq/kestrel/internal/status"
)

// Palette for per-status rendering.
var (
	colorPass = lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}
	colorDiff = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
	colorFail = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	colorSkip = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

	styleTitle  = lipgloss.NewStyle().Bold(true)
	stylePass   = lipgloss.NewStyle().Foreground(colorPass)
	styleDiff   = lipgloss.NewStyle().Foreground(colorDiff)
	styleFail   = lipgloss.NewStyle().Foreground(colorFail)
	styleSkip   = lipgloss.NewStyle().Foreground(colorSkip)
	styleGated  = lipgloss.NewStyle().Foreground(colorFail).Bold(true)
	stylePlain  = lipgloss.NewStyle()
	styleNotRun = lipgloss.NewStyle().Foreground(colorSkip).Faint(true)
)

// eventMsg wraps a scheduler event for the bubbletea runtime.
type eventMsg sched.Event

// runDoneMsg signals that the event channel was closed: the run finished.
type runDoneMsg struct{}

// Progress is the bubbletea model for the live run view. It implements
// tea.Model (Init, Update, View).
type Progress struct {
	suite    string
	events   <-chan sched.Event
	spinner  spinner.Model
	statuses map[string]status.Status
	gated    map[string]bool
	names    []string
	done     bool
	quitting bool
}

// NewProgress creates a Progress view over the given test names and the
// scheduler's event channel. The channel must be closed when the run ends.
func NewProgress(suite string, names []string, events <-chan sched.Event) Progress {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	statuses := make(map[string]status.Status, len(names))
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	for _, name := range sorted {
		statuses[name] = status.NotRun
	}
	return Progress{
		suite:    suite,
		events:   events,
		spinner:  sp,
		statuses: statuses,
		gated:    make(map[string]bool),
		names:    sorted,
	}
}

// waitForEvent returns a command that blocks on the next scheduler event.
func (p Progress) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-p.events
		if !ok {
			return runDoneMsg{}
		}
		return eventMsg(evt)
	}
}

// Init starts the spinner tick and the event pump.
func (p Progress) Init() tea.Cmd {
	return tea.Batch(p.spinner.Tick, p.waitForEvent())
}

// Update dispatches incoming messages: scheduler events update the status
// table, spinner ticks animate the running indicator, and q/ctrl+c quits.
func (p Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case eventMsg:
		evt := sched.Event(m)
		switch evt.Type {
		case sched.EventStarted:
			p.statuses[evt.Test] = status.Running
		case sched.EventGated:
			p.gated[evt.Test] = true
		case sched.EventCompleted, sched.EventCancelled:
			p.statuses[evt.Test] = evt.Status
		}
		return p, p.waitForEvent()

	case runDoneMsg:
		p.done = true
		return p, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(m)
		return p, cmd

	case tea.KeyMsg:
		switch m.String() {
		case "q", "ctrl+c":
			p.quitting = true
			return p, tea.Quit
		}
	}

	return p, nil
}

// View renders the test table with one status-colored line per test.
func (p Progress) View() string {
	if p.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf("kestrel run: %s", p.suite)))
	b.WriteString("\n\n")

	for _, name := range p.names {
		b.WriteString("  ")
		b.WriteString(p.renderLine(name))
		b.WriteString("\n")
	}

	if p.done {
		b.WriteString("\nrun complete\n")
	} else {
		b.WriteString("\npress q to detach\n")
	}
	return b.String()
}

// renderLine renders a single test's status cell and name.
func (p Progress) renderLine(name string) string {
	st := p.statuses[name]
	marker := ""
	if p.gated[name] {
		marker = styleGated.Render(" [deps violated]")
	}
	switch st {
	case status.Running:
		return fmt.Sprintf("%s %s", p.spinner.View(), stylePlain.Render(name))
	case status.Pass:
		return fmt.Sprintf("%s %s", stylePass.Render("pass   "), name) + marker
	case status.Diff:
		return fmt.Sprintf("%s %s", styleDiff.Render("diff   "), name) + marker
	case status.Fail:
		return fmt.Sprintf("%s %s", styleFail.Render("fail   "), name) + marker
	case status.Skip:
		return fmt.Sprintf("%s %s", styleSkip.Render("skip   "), name) + marker
	default:
		return styleNotRun.Render(fmt.Sprintf("waiting %s", name))
	}
}
