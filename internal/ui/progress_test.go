package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surgelsp/internal/build"
)

func TestProgressModelTracksPackages(t *testing.T) {
	m := NewProgressModel("check app", make(chan build.Event)).(*progressModel)
	assert.Empty(t, m.View())

	for _, ev := range []build.Event{
		{Package: "util", Stage: build.StageQueued, Status: build.StatusWorking},
		{Package: "app", Stage: build.StageQueued, Status: build.StatusWorking},
		{Package: "util", Stage: build.StageCompile, Status: build.StatusCached},
		{Package: "app", Stage: build.StageCompile, Status: build.StatusWorking},
	} {
		m.Update(eventMsg(ev))
	}
	require.Len(t, m.items, 2)
	assert.Equal(t, "util", m.items[0].name)
	assert.Equal(t, "cached", m.items[0].status)
	assert.Equal(t, "compiling", m.items[1].status)
	assert.InDelta(t, 0.75, m.fraction(), 1e-9)

	m.Update(eventMsg(build.Event{Package: "app", Stage: build.StageCompile, Status: build.StatusDone, Elapsed: 3 * time.Millisecond}))
	assert.InDelta(t, 1.0, m.fraction(), 1e-9)
	view := m.View()
	assert.Contains(t, view, "check app")
	assert.Contains(t, view, "app")
	assert.Contains(t, view, "3ms")
}

func TestProgressModelQuitsWhenEventsEnd(t *testing.T) {
	m := NewProgressModel("check", make(chan build.Event)).(*progressModel)
	m.Update(eventMsg(build.Event{Package: "app", Stage: build.StageCompile, Status: build.StatusError, Err: errors.New("boom")}))
	_, cmd := m.Update(doneMsg{})
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
	assert.Contains(t, m.View(), "done: check")
	assert.Contains(t, m.View(), "error")
}

func TestListenForEventReportsClosedChannel(t *testing.T) {
	ch := make(chan build.Event, 1)
	ch <- build.Event{Package: "app"}
	close(ch)
	m := NewProgressModel("check", ch).(*progressModel)
	assert.Equal(t, eventMsg(build.Event{Package: "app"}), m.listenForEvent()())
	assert.Equal(t, doneMsg{}, m.listenForEvent()())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "very-lo...", truncate("very-long-package-name", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
