package build

import "time"

// Stage describes a phase of a package compile.
type Stage string

const (
	StageQueued  Stage = "queued"
	StagePrepare Stage = "prepare"
	StageCompile Stage = "compile"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusWorking Status = "working"
	StatusCached  Status = "cached"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for one package.
type Event struct {
	Package string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// Telemetry is notified as packages move through a build.
type Telemetry interface {
	PackageQueued(name string)
	PackageCompiling(name string)
	// PackagePreparing is reported while prepare hooks run.
	PackagePreparing(name string)
	PackageCached(name string)
	PackageDone(name string, elapsed time.Duration)
	PackageFailed(name string, err error)
}

// NullTelemetry ignores everything. The language server uses it.
type NullTelemetry struct{}

func (NullTelemetry) PackageQueued(string)              {}
func (NullTelemetry) PackageCompiling(string)           {}
func (NullTelemetry) PackagePreparing(string)           {}
func (NullTelemetry) PackageCached(string)              {}
func (NullTelemetry) PackageDone(string, time.Duration) {}
func (NullTelemetry) PackageFailed(string, error)       {}

// EventTelemetry turns telemetry calls into Events for a ProgressSink.
type EventTelemetry struct {
	Sink ProgressSink
}

func (t EventTelemetry) emit(evt Event) {
	if t.Sink != nil {
		t.Sink.OnEvent(evt)
	}
}

func (t EventTelemetry) PackageQueued(name string) {
	t.emit(Event{Package: name, Stage: StageQueued, Status: StatusWorking})
}

func (t EventTelemetry) PackageCompiling(name string) {
	t.emit(Event{Package: name, Stage: StageCompile, Status: StatusWorking})
}

func (t EventTelemetry) PackagePreparing(name string) {
	t.emit(Event{Package: name, Stage: StagePrepare, Status: StatusWorking})
}

func (t EventTelemetry) PackageCached(name string) {
	t.emit(Event{Package: name, Stage: StageCompile, Status: StatusCached})
}

func (t EventTelemetry) PackageDone(name string, elapsed time.Duration) {
	t.emit(Event{Package: name, Stage: StageCompile, Status: StatusDone, Elapsed: elapsed})
}

func (t EventTelemetry) PackageFailed(name string, err error) {
	t.emit(Event{Package: name, Stage: StageCompile, Status: StatusError, Err: err})
}
