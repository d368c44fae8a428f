package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"surgelsp/internal/build"
)

type progressModel struct {
	title   string
	events  <-chan build.Event
	spinner spinner.Model
	prog    progress.Model
	items   []packageItem
	index   map[string]int
	width   int
	done    bool
}

type packageItem struct {
	name    string
	status  string
	elapsed time.Duration
}

type eventMsg build.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders package
// progress until events is closed. Packages appear in the order they are
// first reported.
func NewProgressModel(title string, events <-chan build.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(build.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 12
	nameWidth := max(m.width-statusWidth-16, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		line := fmt.Sprintf("  %s %s", status, truncate(item.name, nameWidth))
		if item.elapsed > 0 {
			line += lipgloss.NewStyle().Faint(true).Render(" " + item.elapsed.Round(time.Millisecond).String())
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev build.Event) tea.Cmd {
	if ev.Package == "" {
		return nil
	}
	idx, ok := m.index[ev.Package]
	if !ok {
		idx = len(m.items)
		m.index[ev.Package] = idx
		m.items = append(m.items, packageItem{name: ev.Package})
	}
	if label := statusLabel(ev.Stage, ev.Status); label != "" {
		m.items[idx].status = label
	}
	if ev.Elapsed > 0 {
		m.items[idx].elapsed = ev.Elapsed
	}
	return m.prog.SetPercent(m.fraction())
}

// fraction is the share of finished packages, counting a compiling one as
// half done.
func (m *progressModel) fraction() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		switch item.status {
		case "done", "cached", "error":
			total += 1.0
		case "compiling":
			total += 0.5
		case "preparing":
			total += 0.2
		}
	}
	return total / float64(len(m.items))
}

func statusLabel(stage build.Stage, status build.Status) string {
	switch status {
	case build.StatusDone:
		return "done"
	case build.StatusCached:
		return "cached"
	case build.StatusError:
		return "error"
	case build.StatusWorking:
		return stageLabel(stage)
	default:
		return ""
	}
}

func stageLabel(stage build.Stage) string {
	switch stage {
	case build.StageQueued:
		return "queued"
	case build.StagePrepare:
		return "preparing"
	case build.StageCompile:
		return "compiling"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "compiling", "preparing":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
