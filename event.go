package maskbrush

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// EventKind identifies the canvas mutation an Event reports.
type EventKind int

const (
	// Changed is sent after every mutation of the current image or the history.
	Changed EventKind = iota
	// StrokeStarted is sent once a new stroke has recorded its snapshot.
	StrokeStarted
	// StrokeFinished is sent when the stroke gesture ends.
	StrokeFinished
)

func (k EventKind) String() string {
	switch k {
	case Changed:
		return "changed"
	case StrokeStarted:
		return "stroke-started"
	case StrokeFinished:
		return "stroke-finished"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event carries the availability flags of the history stacks in the settled
// state after a mutation. Stroke is the identifier of the stroke in progress,
// or the zero ULID outside of a stroke.
type Event struct {
	Kind          EventKind
	Stroke        ulid.ULID
	UndoAvailable bool
	RedoAvailable bool
}

// Notifier receives canvas events. Notify is called synchronously on the
// goroutine that owns the canvas, so it must not call back into the canvas.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts an ordinary function to the Notifier interface.
type NotifierFunc func(Event)

// Notify calls f(e).
func (f NotifierFunc) Notify(e Event) { f(e) }

// ChanNotifier forwards events to a channel. Events are dropped when the
// channel buffer is full so a slow reader never blocks the canvas.
type ChanNotifier chan Event

// Notify implements Notifier.
func (c ChanNotifier) Notify(e Event) {
	select {
	case c <- e:
	default:
	}
}
