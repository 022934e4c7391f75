package maskbrush

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestLogger_CanvasEvents(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	SetLogger(logger)
	defer SetLogger(nil)

	c := newTestCanvas(20, 20, 1)
	drawLine(c, Pt(0, 10), Pt(20, 10))
	drawLine(c, Pt(10, 0), Pt(10, 20))

	var msgs []string
	for _, e := range hook.AllEntries() {
		msgs = append(msgs, e.Message)
	}
	assert.Contains(t, msgs, "maskbrush: stroke started")
	assert.Contains(t, msgs, "maskbrush: oldest undo snapshot evicted")

	c.SetBaseImage(nil)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLogger_Reset(t *testing.T) {
	logger, hook := test.NewNullLogger()
	SetLogger(logger)
	assert.Same(t, logger, Logger())

	SetLogger(nil)
	assert.NotSame(t, logger, Logger())

	Logger().Warn("discarded")
	assert.Empty(t, hook.AllEntries())
}
