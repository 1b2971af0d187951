// Package events defines the tagged event carried on the one-way channel
// every Pipeline opens to the Dispatcher (SPEC_FULL.md §4.8). A Pipeline
// only ever sends; the Dispatcher is the bus's single consumer.
package events

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind tags which field of Event is meaningful.
type Kind int

const (
	Info Kind = iota
	Error
	Progress
	Finished
)

// Event is the single value type flowing over a Pipeline's event channel.
// Exactly one of Text, Percent, or Finished's fields is meaningful,
// selected by Kind.
type Event struct {
	JobID uuid.UUID
	Kind  Kind

	Text    string // Info, Error
	Percent int    // Progress: 0..100

	// Finished fields.
	Cancelled bool
	Skipped   bool
	Err       error
}

// NewInfo builds an Info event.
func NewInfo(jobID uuid.UUID, text string) Event {
	return Event{JobID: jobID, Kind: Info, Text: text}
}

// NewError builds an Error event.
func NewError(jobID uuid.UUID, text string) Event {
	return Event{JobID: jobID, Kind: Error, Text: text}
}

// NewProgress builds a Progress event carrying a 0..100 percentage.
func NewProgress(jobID uuid.UUID, percent int) Event {
	return Event{JobID: jobID, Kind: Progress, Percent: percent}
}

// NewFinished builds a Finished event. err is non-nil iff the pipeline
// failed rather than completing or being cancelled cleanly.
func NewFinished(jobID uuid.UUID, cancelled, skipped bool, err error) Event {
	return Event{JobID: jobID, Kind: Finished, Cancelled: cancelled, Skipped: skipped, Err: err}
}

// Bus is the send side of a Pipeline's event channel: a thin wrapper so
// pipeline code reads as "bus.Info(...)" rather than constructing Event
// values and channel-sending them inline at every call site.
type Bus struct {
	jobID uuid.UUID
	ch    chan Event
}

// NewBus creates a Bus that sends on ch, buffered by the caller (the
// Dispatcher sizes the channel when it creates a WorkerSlot).
func NewBus(jobID uuid.UUID, ch chan Event) *Bus {
	return &Bus{jobID: jobID, ch: ch}
}

// Info emits an informational event, e.g. "already in correct format".
func (b *Bus) Info(format string, args ...interface{}) {
	b.ch <- NewInfo(b.jobID, sprintfOrSame(format, args))
}

// Error emits an error event; the Pipeline keeps running its own error
// handling logic independently, this only notifies the Dispatcher.
func (b *Bus) Error(format string, args ...interface{}) {
	b.ch <- NewError(b.jobID, sprintfOrSame(format, args))
}

// Progress emits a progress event. Callers are expected to only call this
// when the integer percent has actually changed, per §4.5's loop contract;
// Bus does not de-duplicate on the sender's behalf.
func (b *Bus) Progress(percent int) {
	b.ch <- NewProgress(b.jobID, percent)
}

// Finished emits the terminal event for this job's channel. Callers must
// not send on the Bus again afterward.
func (b *Bus) Finished(cancelled, skipped bool, err error) {
	b.ch <- NewFinished(b.jobID, cancelled, skipped, err)
}

func sprintfOrSame(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
