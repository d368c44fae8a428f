package lsp

import (
	"encoding/json"
	"path/filepath"

	"surgelsp/internal/frontend"
	"surgelsp/internal/fsio"
	"surgelsp/internal/source"
)

func (s *Server) handleDefinition(msg *rpcMessage) error {
	var params definitionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	s.mu.Lock()
	c, files := s.compiler, s.overlay
	s.mu.Unlock()
	if c == nil {
		return s.sendResponse(msg.ID, []location{})
	}
	path := uriToPath(params.TextDocument.URI)
	text, ok := s.documentText(path)
	if !ok {
		return s.sendResponse(msg.ID, []location{})
	}
	return s.sendResponse(msg.ID, buildDefinition(c, files, path, text, params.Position))
}

func buildDefinition(c *Compiler, files fsio.FileSystemReader, path, text string, pos position) []location {
	idx := source.NewLineIndexString(text)
	id, ok := frontend.IdentAt([]byte(text), offsetForPosition(idx, pos))
	if !ok {
		return []location{}
	}
	sym, ok := resolveIdent(c, path, id)
	if !ok {
		return []location{}
	}
	loc, ok := definitionLocation(c, files, sym)
	if !ok {
		return []location{}
	}
	return []location{loc}
}

// definitionLocation places a symbol in its module's source. Offsets are
// mapped with the line index of the compile that produced the span.
// A module whose file was deleted after it was compiled has no location.
func definitionLocation(c *Compiler, files fsio.FileSystemReader, sym symbol) (location, bool) {
	rel := sym.module.Path
	var idx *source.LineIndex
	if info, ok := c.GetSource(sym.module.Name); ok {
		rel, idx = info.Path, info.LineNumbers
	}
	if rel == "" {
		return location{}, false
	}
	abs := filepath.Join(c.Paths().Root, filepath.FromSlash(rel))
	if !files.Exists(abs) {
		return location{}, false
	}
	if idx == nil {
		// модуль из кэша: исходник в снапшот не попадал
		data, err := files.ReadFile(abs)
		if err != nil {
			return location{}, false
		}
		idx = source.NewLineIndex(data)
	}
	return location{URI: pathToURI(abs), Range: rangeForSpan(idx, sym.span)}, true
}
