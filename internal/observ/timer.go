package observ

import (
	"fmt"
	"strings"
	"time"
)

// Phase records the duration and metadata of one compile phase.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer tracks the phases of one package compile. A nil *Timer is valid
// and records nothing.
type Timer struct {
	phases []Phase
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return len(t.phases) - 1
}

// End finishes a phase by its index.
func (t *Timer) End(idx int, note string) {
	if t == nil || idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
}

// Phases returns a copy of the recorded phases.
func (t *Timer) Phases() []Phase {
	if t == nil {
		return nil
	}
	return append([]Phase(nil), t.phases...)
}

// Total is the sum of all phase durations.
func (t *Timer) Total() time.Duration {
	var total time.Duration
	for _, p := range t.Phases() {
		total += p.Dur
	}
	return total
}

// KeyVals renders the phases as structured logging pairs:
// "parse", "1.20ms", "check", "0.31ms", ...
func (t *Timer) KeyVals() []any {
	phases := t.Phases()
	out := make([]any, 0, 2*len(phases))
	for _, p := range phases {
		out = append(out, p.Name, fmt.Sprintf("%.2fms", durationToMillis(p.Dur)))
	}
	return out
}

// Summary returns a human-readable table of all tracked phases.
func (t *Timer) Summary() string {
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range t.Phases() {
		fmt.Fprintf(&b, "  %-20s %7.2f ms", p.Name, durationToMillis(p.Dur))
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-20s %7.2f ms\n", "total", durationToMillis(t.Total()))
	return b.String()
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
