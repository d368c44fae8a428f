package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"surgelsp/internal/project"
	"surgelsp/internal/trace"
)

const defaultDebounce = 300 * time.Millisecond

// settings are the tool options shared by every command. Each can come from
// a flag or from a SURGELSP_* environment variable; flags win.
type settings struct {
	Project        string
	Target         string
	LogLevel       trace.Level
	Debounce       time.Duration
	Color          string
	MaxDiagnostics int
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	v := viper.New()
	v.SetEnvPrefix("SURGELSP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("log-level", "warn")
	v.SetDefault("debounce", defaultDebounce)
	v.SetDefault("color", "auto")
	v.SetDefault("max-diagnostics", 100)
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return settings{}, fmt.Errorf("bind flags: %w", err)
	}

	level, err := trace.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return settings{}, err
	}
	color := strings.ToLower(v.GetString("color"))
	switch color {
	case "auto", "on", "off":
	default:
		return settings{}, fmt.Errorf("invalid color mode %q (must be auto, on or off)", color)
	}
	target := v.GetString("target")
	if target != "" {
		if _, err := project.ParseTarget(target); err != nil {
			return settings{}, err
		}
	}
	return settings{
		Project:        v.GetString("project"),
		Target:         target,
		LogLevel:       level,
		Debounce:       v.GetDuration("debounce"),
		Color:          color,
		MaxDiagnostics: v.GetInt("max-diagnostics"),
	}, nil
}

func (s settings) logger() *log.Logger {
	return trace.Setup(os.Stderr, s.LogLevel)
}

// useColor decides whether output written to f is colored.
func (s settings) useColor(f *os.File) bool {
	switch s.Color {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(f)
	}
}

// openProject loads the project containing the configured directory and
// applies the target override.
func (s settings) openProject() (project.Project, error) {
	start := s.Project
	if start == "" {
		start = "."
	}
	if info, err := os.Stat(start); err == nil && !info.IsDir() {
		start = filepath.Dir(start)
	}
	root, ok, err := project.FindProjectRoot(start)
	if err != nil {
		return project.Project{}, err
	}
	if !ok {
		return project.Project{}, fmt.Errorf("no %s found in %s or any parent directory", project.ConfigFileName, start)
	}
	proj, err := project.Load(root)
	if err != nil {
		return project.Project{}, err
	}
	if s.Target != "" {
		t, err := project.ParseTarget(s.Target)
		if err != nil {
			return project.Project{}, err
		}
		proj.Config.Target = t
	}
	return proj, nil
}
