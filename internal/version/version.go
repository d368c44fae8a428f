package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the surgelsp binary.
// These variables can be overridden at build time via -ldflags.
var (
	// Number is the plain semantic version. It is written into the build
	// directory, so caches made by another version are detected.
	Number = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Number with each component colored, for the banner.
func Colored() string {
	core, suffix, _ := strings.Cut(Number, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Number
	}
	out := versionMajorColor.Sprint(parts[0]) + "." + versionMinorColor.Sprint(parts[1]) + "." + versionPatchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Banner is the one-line description printed by `surgelsp version`.
func Banner() string {
	b := "surgelsp " + Colored()
	if GitCommit != "" {
		b += " (" + GitCommit + ")"
	}
	if BuildDate != "" {
		b += " built " + BuildDate
	}
	return b
}
