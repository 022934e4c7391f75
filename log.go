package maskbrush

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// loggerHolder boxes the interface so it can be stored in an atomic.Value
// regardless of the concrete logger type.
type loggerHolder struct {
	l logrus.FieldLogger
}

var loggerValue atomic.Value

func init() {
	loggerValue.Store(loggerHolder{newNopLogger()})
}

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// SetLogger configures the logger used by the package.
// By default maskbrush produces no log output. Pass nil to restore the
// default silent behavior. SetLogger is safe for concurrent use.
//
// Log levels used:
//   - debug: canvas mutations, history evictions and worker jobs
//   - warn: decode failures and rejected inputs
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerValue.Store(loggerHolder{l})
}

// Logger returns the logger currently used by the package.
func Logger() logrus.FieldLogger {
	return loggerValue.Load().(loggerHolder).l
}
