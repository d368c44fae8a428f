package lsp

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"surgelsp/internal/build"
	"surgelsp/internal/diag"
	"surgelsp/internal/fsio"
	"surgelsp/internal/project"
	"surgelsp/internal/source"
)

func (s *Server) scheduleCompile() {
	seq := s.compileSeq.Add(1)
	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.debounce, func() {
		s.runCompile(seq)
	})
	s.mu.Unlock()
}

func (s *Server) stopTimer() {
	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	s.mu.Unlock()
}

func (s *Server) isLatest(seq uint64) bool {
	return seq != 0 && seq == s.compileSeq.Load()
}

// runCompile compiles the project unless a newer edit has been scheduled
// in the meantime, then publishes diagnostics.
func (s *Server) runCompile(seq uint64) {
	if !s.isLatest(seq) {
		return
	}
	s.compileMu.Lock()
	defer s.compileMu.Unlock()
	if !s.isLatest(seq) {
		return
	}
	s.mu.Lock()
	done := s.ctx.Err() != nil || s.shutdownRequested
	s.mu.Unlock()
	if done {
		return
	}

	c, err := s.ensureCompiler()
	if err != nil {
		s.logger.Warn("cannot load project", "err", err)
		return
	}
	if c == nil {
		s.logger.Debug("no project for open documents")
		return
	}
	diags, ok := s.compile(c)
	if !ok {
		return
	}
	s.publishDiagnostics(c, diags)
}

// ensureCompiler creates the compiler on first use. It returns nil without
// an error when no project can be found.
func (s *Server) ensureCompiler() (*Compiler, error) {
	s.mu.Lock()
	if s.compiler != nil {
		c := s.compiler
		s.mu.Unlock()
		return c, nil
	}
	root := s.opts.Root
	if root == "" {
		var first string
		for _, doc := range s.docs {
			if first == "" || doc.path < first {
				first = doc.path
			}
		}
		root, _ = detectProjectRoot(s.workspaceRoot, first)
	}
	s.mu.Unlock()
	if root == "" {
		return nil, nil
	}

	proj, err := project.Load(root)
	if err != nil {
		return nil, err
	}
	if s.opts.Target != nil {
		proj.Config.Target = *s.opts.Target
	}
	overlay := fsio.NewOverlay(fsio.NewProjectIO(root))
	locker := s.opts.Locker(proj.Paths, proj.Config.Target)
	opts := append([]CompilerOption{WithLogger(s.logger)}, s.opts.CompilerOptions...)
	c, err := NewCompiler(proj.Manifest, proj.Config, proj.Paths, overlay, locker, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, doc := range s.docs {
		overlay.Set(doc.path, []byte(doc.text))
	}
	s.compiler = c
	s.overlay = overlay
	s.locker = locker
	s.mu.Unlock()
	s.logger.Info("project loaded", "root", root, "package", proj.Config.Name, "target", proj.Config.Target)
	return c, nil
}

// compile runs one compile and collects what should be shown: the errors
// of a failed package and every warning. ok is false when the compile
// failed for a reason diagnostics cannot express.
func (s *Server) compile(c *Compiler) (diags []diag.Diagnostic, ok bool) {
	_, err := c.Compile()
	if errors.Is(err, build.ErrVersionMismatch) {
		s.logger.Info("build directory belongs to another compiler version, rebuilding", "err", err)
		if err = s.resetBuildDirectory(c); err == nil {
			_, err = c.Compile()
		}
	}
	warnings := c.TakeWarnings()

	var ce *build.CompileError
	switch {
	case err == nil:
		return warnings, true
	case errors.As(err, &ce):
		s.logger.Debug("compile reported errors", "package", ce.Package, "count", len(ce.Diagnostics))
		return slices.Concat(ce.Diagnostics, warnings), true
	default:
		s.logger.Warn("compile failed", "err", err)
		return nil, false
	}
}

func (s *Server) resetBuildDirectory(c *Compiler) error {
	s.mu.Lock()
	locker, overlay := s.locker, s.overlay
	s.mu.Unlock()
	guard, err := locker.LockForBuild()
	if err != nil {
		return fmt.Errorf("lock build directory: %w", err)
	}
	defer guard.Unlock()
	return build.ResetBuildDirectory(overlay, c.Paths())
}

// publishDiagnostics replaces everything published before: files that had
// diagnostics and have none now get an empty list.
func (s *Server) publishDiagnostics(c *Compiler, diags []diag.Diagnostic) {
	s.mu.Lock()
	limit := s.maxDiagnostics
	s.mu.Unlock()

	sorted := slices.Clone(diags)
	diag.SortDiagnostics(sorted)

	root := c.Paths().Root
	grouped := make(map[string][]lspDiagnostic)
	lines := make(map[string]*source.LineIndex)
	for _, d := range sorted {
		if d.Path == "" {
			s.logger.Debug("diagnostic without a file", "code", d.Code.ID(), "msg", d.Message)
			continue
		}
		abs := filepath.Join(root, filepath.FromSlash(d.Path))
		uri := pathToURI(abs)
		idx, seen := lines[uri]
		if !seen {
			idx = s.linesFor(c, d, abs)
			lines[uri] = idx
		}
		if idx == nil || len(grouped[uri]) >= limit {
			continue
		}
		grouped[uri] = append(grouped[uri], toLSPDiagnostic(d, idx, uri))
	}

	targets := make([]string, 0, len(grouped))
	for uri := range grouped {
		targets = append(targets, uri)
	}
	sort.Strings(targets)

	s.mu.Lock()
	prev := s.published
	s.published = make(map[string]struct{}, len(targets))
	for _, uri := range targets {
		s.published[uri] = struct{}{}
	}
	s.mu.Unlock()

	for _, uri := range targets {
		if err := s.sendPublish(uri, grouped[uri]); err != nil {
			s.logger.Warn("failed to publish diagnostics", "err", err)
		}
	}
	stale := make([]string, 0, len(prev))
	for uri := range prev {
		if _, ok := grouped[uri]; !ok {
			stale = append(stale, uri)
		}
	}
	sort.Strings(stale)
	for _, uri := range stale {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logger.Warn("failed to clear diagnostics", "err", err)
		}
	}
	s.logger.Debug("diagnostics published", "files", len(targets), "cleared", len(stale))
}

// linesFor picks the line index a diagnostic's offsets refer to. Modules
// of the latest successful compile have theirs in the snapshot; anything
// else is indexed from the current buffer or file.
func (s *Server) linesFor(c *Compiler, d diag.Diagnostic, abs string) *source.LineIndex {
	if m, ok := c.GetModule(d.Module); ok && m.InputPath == d.Path {
		if text, ok := s.documentText(abs); ok && text == m.Code {
			if info, ok := c.GetSource(d.Module); ok {
				return info.LineNumbers
			}
		}
	}
	idx, ok := s.documentLines(abs)
	if !ok {
		return nil
	}
	return idx
}

func toLSPDiagnostic(d diag.Diagnostic, idx *source.LineIndex, uri string) lspDiagnostic {
	out := lspDiagnostic{
		Range:    rangeForSpan(idx, d.Primary),
		Severity: lspSeverity(d.Severity),
		Code:     d.Code.ID(),
		Source:   "surge",
		Message:  d.Message,
	}
	for _, note := range d.Notes {
		out.RelatedInformation = append(out.RelatedInformation, diagnosticRelatedInformation{
			Location: location{URI: uri, Range: rangeForSpan(idx, note.Span)},
			Message:  note.Msg,
		})
	}
	return out
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return severityError
	case diag.SevWarning:
		return severityWarning
	default:
		return severityInformation
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	if len(s.published) == 0 {
		s.mu.Unlock()
		return
	}
	prev := s.published
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	uris := make([]string, 0, len(prev))
	for uri := range prev {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logger.Warn("failed to clear diagnostics", "err", err)
		}
	}
}
