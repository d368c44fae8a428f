package diag

import "github.com/fatih/color"

// Severity orders diagnostics. Only SevError fails a compile.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

// String is the label used by the text renderers.
func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	}
	return "info"
}

func (s Severity) color(enabled bool) *color.Color {
	var c *color.Color
	switch s {
	case SevError:
		c = color.New(color.FgRed, color.Bold)
	case SevWarning:
		c = color.New(color.FgYellow, color.Bold)
	default:
		c = color.New(color.FgCyan)
	}
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
