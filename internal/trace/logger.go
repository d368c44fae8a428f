package trace

import (
	"io"

	"github.com/charmbracelet/log"
)

// Setup returns a logger writing to w at the given level. Timestamps are
// reported only at debug level, where they help to line up compiles with
// editor requests.
func Setup(w io.Writer, level Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level.logLevel(),
		ReportTimestamp: level == LevelDebug,
		Prefix:          "surgelsp",
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: LevelOff.logLevel()})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
