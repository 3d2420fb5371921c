// Package sched gates and dispatches test execution over the dependency
// graph. Tests with no unsatisfied dependency run concurrently on a bounded
// worker pool; as each test completes, only its direct dependents are
// re-evaluated, so the cost of a completion is proportional to fan-out, not
// graph size. The scheduler computes each test's dependency context before
// it starts and applies the configured policy when the gate finds a violated
// declaration.
package sched

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/kestrelhq/kestrel/internal/graph"
	"github.com/kestrelhq/kestrel/internal/resolve"
	"github.com/kestrelhq/kestrel/internal/status"
)

// Policy decides the consequence for a test whose dependency gate found at
// least one violated declaration.
type Policy int

const (
	// PolicySkip marks the dependent Skip without running it. Default.
	PolicySkip Policy = iota

	// PolicyFail marks the dependent Fail without running it.
	PolicyFail

	// PolicyRun runs the dependent anyway; the violated context is exposed
	// to the test so it can assert on its own dependencies.
	PolicyRun
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "skip", "":
		return PolicySkip, nil
	case "fail":
		return PolicyFail, nil
	case "run":
		return PolicyRun, nil
	default:
		return PolicySkip, fmt.Errorf("unknown gate policy %q (want run, skip, or fail)", s)
	}
}

// String returns the policy's configuration name.
func (p Policy) String() string {
	switch p {
	case PolicyFail:
		return "fail"
	case PolicyRun:
		return "run"
	default:
		return "skip"
	}
}

// Runner executes a single test. The execution layer is external to the
// scheduler: it receives the test's dependency context and returns the
// terminal status the test finished with.
type Runner interface {
	Run(ctx context.Context, test string, deps resolve.Context) (status.Status, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, test string, deps resolve.Context) (status.Status, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, test string, deps resolve.Context) (status.Status, error) {
	return f(ctx, test, deps)
}

// Summary contains the aggregated outcome of a run.
type Summary struct {
	// Counts holds the number of tests that finished with each terminal
	// status.
	Counts map[status.Status]int

	// Violations holds every final, violated resolution record observed
	// across the run, suitable for a human-readable report.
	Violations []resolve.Record

	// Duration is the total wall-clock time spent in Run.
	Duration time.Duration
}

// Failed reports whether the run should be considered unsuccessful: any
// test failed, or any dependency declaration ended violated.
func (s *Summary) Failed() bool {
	return s.Counts[status.Fail] > 0 || len(s.Violations) > 0
}

// Scheduler drives a run over a dependency graph: it seeds the ready queue,
// executes runnable tests on a bounded worker pool, and unblocks dependents
// as completions arrive.
type Scheduler struct {
	g        *graph.Graph
	resolver *resolve.Resolver
	runner   Runner
	workers  int
	policy   Policy
	shuffle  bool
	events   chan<- Event
	logger   *log.Logger
}

// Option is a functional option for configuring a Scheduler.
type Option func(*Scheduler)

// WithWorkers sets the maximum number of tests executing concurrently.
// Values below 1 are clamped to 1.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// WithPolicy sets the consequence applied to a test whose gate is violated.
func WithPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

// WithEvents sets the event channel for progress tracking. Events are sent
// non-blocking; if the channel is full the event is dropped.
func WithEvents(ch chan<- Event) Option {
	return func(s *Scheduler) { s.events = ch }
}

// WithLogger attaches a structured logger. When nil the scheduler is silent.
func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithShuffle randomizes the order in which initially-ready tests are seeded
// onto the queue. Dependency ordering still holds; shuffling only perturbs
// the order among tests that are already runnable, to flush out hidden
// ordering assumptions between supposedly independent tests.
func WithShuffle(on bool) Option {
	return func(s *Scheduler) { s.shuffle = on }
}

// New creates a Scheduler over the given graph and runner.
// Defaults: workers=4, policy=skip.
func New(g *graph.Graph, runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		g:        g,
		resolver: resolve.New(g),
		runner:   runner,
		workers:  4,
		policy:   PolicySkip,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// completion is a worker's report that one test reached a terminal status.
type completion struct {
	name    string
	status  status.Status
	records []resolve.Record
}

// Run executes every test in the graph, honoring dependency readiness, and
// returns the aggregated summary. On context cancellation all not-yet-started
// tests transition to Skip and Run returns the partial summary alongside the
// context error.
func (s *Scheduler) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	total := s.g.Len()

	summary := &Summary{Counts: make(map[status.Status]int, 4)}
	if total == 0 {
		summary.Duration = time.Since(start)
		return summary, nil
	}

	// Both channels are buffered to the graph size so neither the
	// coordinator nor a worker can ever block on a send.
	readyCh := make(chan string, total)
	doneCh := make(chan completion, total)

	// dispatched is touched only by the coordinator goroutine.
	dispatched := make(map[string]bool, total)
	dispatch := func(name string) {
		if dispatched[name] {
			return
		}
		dispatched[name] = true
		records := s.resolver.ResolveAll(name)
		s.emit(Event{
			Type:      EventRunnable,
			Test:      name,
			Status:    s.g.Status(name),
			Records:   records,
			Message:   fmt.Sprintf("test %s is runnable", name),
			Timestamp: time.Now(),
		})
		s.logDebug("test runnable", "test", name)
		readyCh <- name
	}

	// Seed the ready queue with every test whose declarations are already
	// decidable (no declarations, or all candidates terminal at build).
	seed := s.g.Names()
	if s.shuffle {
		seed = append([]string(nil), seed...)
		rand.Shuffle(len(seed), func(i, j int) { seed[i], seed[j] = seed[j], seed[i] })
	}
	for _, name := range seed {
		if s.g.IsReady(name) {
			dispatch(name)
		}
	}

	eg, gctx := errgroup.WithContext(ctx)
	for w := 0; w < s.workers; w++ {
		eg.Go(func() error {
			for name := range readyCh {
				doneCh <- s.runOne(gctx, name)
			}
			return nil
		})
	}

	completed := 0
	cancelDone := gctx.Done()
	for completed < total {
		select {
		case c := <-doneCh:
			completed++
			summary.Counts[c.status]++
			summary.Violations = append(summary.Violations, resolve.Violations(c.records)...)
			s.emit(Event{
				Type:      EventCompleted,
				Test:      c.name,
				Status:    c.status,
				Records:   c.records,
				Message:   fmt.Sprintf("test %s completed: %s", c.name, c.status),
				Timestamp: time.Now(),
			})
			s.logInfo("test completed", "test", c.name, "status", c.status)

			// Completion of a test re-evaluates only its direct dependents.
			for _, dep := range s.g.Dependents(c.name) {
				if !dispatched[dep] && s.g.IsReady(dep) {
					dispatch(dep)
				}
			}

		case <-cancelDone:
			// Sweep once; a nil channel blocks forever, so subsequent
			// iterations only drain in-flight completions.
			cancelDone = nil
			s.logWarn("run cancelled; skipping pending tests", "pending", total-completed)

			// Every test not yet handed to the pool transitions straight
			// to Skip. Dispatched tests are reported by their workers,
			// which observe the cancelled context.
			for _, name := range s.g.Names() {
				if dispatched[name] {
					continue
				}
				dispatched[name] = true
				if s.g.Cancel(name) {
					completed++
					summary.Counts[status.Skip]++
					s.emit(Event{
						Type:      EventCancelled,
						Test:      name,
						Status:    status.Skip,
						Message:   fmt.Sprintf("test %s cancelled", name),
						Timestamp: time.Now(),
					})
				}
			}
		}
	}

	close(readyCh)
	_ = eg.Wait() // workers only return nil

	summary.Duration = time.Since(start)
	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

// runOne gates and executes a single test, returning its completion record.
// The dependency context is computed here, after every matched test is
// terminal, so the satisfied flags the test observes are authoritative.
func (s *Scheduler) runOne(ctx context.Context, name string) completion {
	records := s.resolver.ResolveAll(name)
	depCtx := resolve.Context{Records: records}

	if !depCtx.Satisfied() {
		s.emit(Event{
			Type:      EventGated,
			Test:      name,
			Status:    s.g.Status(name),
			Records:   records,
			Message:   fmt.Sprintf("test %s has violated dependencies (policy %s)", name, s.policy),
			Timestamp: time.Now(),
		})
		s.logWarn("dependency gate violated", "test", name, "policy", s.policy.String())

		switch s.policy {
		case PolicySkip:
			s.g.Complete(name, status.Skip)
			return completion{name: name, status: status.Skip, records: records}
		case PolicyFail:
			s.g.Complete(name, status.Fail)
			return completion{name: name, status: status.Fail, records: records}
		case PolicyRun:
			// Run anyway; the test can introspect its context and assert.
		}
	}

	// A cancelled context skips the test before it starts.
	if ctx.Err() != nil {
		if s.g.Cancel(name) {
			return completion{name: name, status: status.Skip, records: records}
		}
		return completion{name: name, status: s.g.Status(name), records: records}
	}

	s.g.Start(name)
	s.emit(Event{
		Type:      EventStarted,
		Test:      name,
		Status:    status.Running,
		Message:   fmt.Sprintf("test %s started", name),
		Timestamp: time.Now(),
	})
	s.logDebug("test started", "test", name)

	st, err := s.runner.Run(ctx, name, depCtx)
	if err != nil {
		s.logWarn("runner error", "test", name, "error", err)
		st = status.Fail
	}
	if !st.IsTerminal() {
		st = status.Fail
	}
	s.g.Complete(name, st)
	return completion{name: name, status: st, records: records}
}

// emit sends an Event to the events channel in a non-blocking manner. If
// events is nil or the channel is full, the event is silently dropped.
func (s *Scheduler) emit(evt Event) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- evt:
	default:
	}
}

func (s *Scheduler) logDebug(msg string, keyvals ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, keyvals...)
	}
}

func (s *Scheduler) logInfo(msg string, keyvals ...any) {
	if s.logger != nil {
		s.logger.Info(msg, keyvals...)
	}
}

func (s *Scheduler) logWarn(msg string, keyvals ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, keyvals...)
	}
}
