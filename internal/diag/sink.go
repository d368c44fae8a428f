package diag

import "sync"

// Emitter receives warnings that outlive a single module check.
type Emitter interface {
	Emit(d Diagnostic)
}

// NullEmitter discards everything.
type NullEmitter struct{}

func (NullEmitter) Emit(Diagnostic) {}

// Sink is an append-only warning buffer shared between a compiler and its
// consumer. Take drains it atomically, so concurrent emitters and a reader
// never lose or duplicate an entry.
type Sink struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Emit appends d.
func (s *Sink) Emit(d Diagnostic) {
	s.mu.Lock()
	s.items = append(s.items, d)
	s.mu.Unlock()
}

// Take returns everything emitted since the previous Take and clears the
// buffer. The result is nil when nothing was emitted.
func (s *Sink) Take() []Diagnostic {
	s.mu.Lock()
	items := s.items
	s.items = nil
	s.mu.Unlock()
	return items
}

// Len returns the number of buffered diagnostics.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
