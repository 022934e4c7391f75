package maskbrush

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvent_Notifiers(t *testing.T) {
	assert := assert.New(t)

	var got []Event
	var n Notifier = NotifierFunc(func(e Event) { got = append(got, e) })
	n.Notify(Event{Kind: StrokeStarted, UndoAvailable: true})
	assert.Equal([]Event{{Kind: StrokeStarted, UndoAvailable: true}}, got)

	ch := make(ChanNotifier, 1)
	ch.Notify(Event{Kind: Changed})
	// A full channel drops the event instead of blocking.
	ch.Notify(Event{Kind: StrokeFinished})
	assert.Len(ch, 1)
	assert.Equal(Changed, (<-ch).Kind)

	assert.Equal("stroke-finished", StrokeFinished.String())
	assert.Equal("EventKind(9)", EventKind(9).String())
}
