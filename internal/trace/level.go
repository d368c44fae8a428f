package trace

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"
)

// Level controls logging verbosity.
type Level uint8

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid log level: %q (expected: off|error|warn|info|debug)", s)
	}
}

// logLevel maps l to the charmbracelet level. Off is a level above fatal so
// that nothing passes the filter.
func (l Level) logLevel() log.Level {
	switch l {
	case LevelError:
		return log.ErrorLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelInfo:
		return log.InfoLevel
	case LevelDebug:
		return log.DebugLevel
	default:
		return log.Level(math.MaxInt32)
	}
}
