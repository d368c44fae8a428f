package lsp

import (
	"os"

	"surgelsp/internal/source"
)

// document is an editor buffer the client has opened.
type document struct {
	path    string
	text    string
	version int
}

// openDocument returns the buffer for uri.
func (s *Server) openDocument(uri string) (document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	if !ok {
		return document{}, false
	}
	return *doc, true
}

// documentText returns the current text of a file: the open buffer when
// there is one, the file on disk otherwise.
func (s *Server) documentText(path string) (string, bool) {
	if doc, ok := s.openDocument(pathToURI(path)); ok {
		return doc.text, true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// documentLines indexes the current text of path.
func (s *Server) documentLines(path string) (*source.LineIndex, bool) {
	text, ok := s.documentText(path)
	if !ok {
		return nil, false
	}
	return source.NewLineIndexString(text), true
}

func (s *Server) currentCompiler() *Compiler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compiler
}

func (s *Server) openVersion(uri string) *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[uri]; ok {
		v := doc.version
		return &v
	}
	return nil
}
