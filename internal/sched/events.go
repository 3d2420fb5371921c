package sched

import (
	"time"

	"github.com/kestrelhq/kestrel/internal/resolve"
	"github.com/kestrelhq/kestrel/internal/status"
)

// EventType identifies the kind of scheduler event emitted during a run.
type EventType string

const (
	// EventRunnable is emitted when a test's full dependency context is
	// known and it is dispatched to the worker pool.
	EventRunnable EventType = "runnable"

	// EventStarted is emitted when a worker begins executing a test.
	EventStarted EventType = "started"

	// EventGated is emitted when a test's dependency gate found at least
	// one violated declaration, before the policy consequence is applied.
	EventGated EventType = "gated"

	// EventCompleted is emitted when a test reaches a terminal status.
	EventCompleted EventType = "completed"

	// EventCancelled is emitted when a test is cancelled before starting
	// and transitions directly to Skip.
	EventCancelled EventType = "cancelled"
)

// Event is emitted on the scheduler's event channel for progress tracking.
// Sends are non-blocking; a slow consumer drops events rather than stalling
// the run.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// Test is the test name this event concerns.
	Test string

	// Status is the test's status at emission time.
	Status status.Status

	// Records holds the test's dependency resolution records, populated on
	// EventRunnable, EventGated, and EventCompleted.
	Records []resolve.Record

	// Message is a human-readable description of the event.
	Message string

	// Timestamp records when the event was emitted.
	Timestamp time.Time
}
