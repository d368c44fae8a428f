package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"surgelsp/internal/build"
	"surgelsp/internal/diag"
	"surgelsp/internal/source"
)

// fileLines returns a LineIndexFunc reading project-relative paths under
// root. Indexes are cached for the lifetime of the function.
func fileLines(root string) diag.LineIndexFunc {
	cache := make(map[string]*source.LineIndex)
	return func(path string) *source.LineIndex {
		if idx, ok := cache[path]; ok {
			return idx
		}
		full := path
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, filepath.FromSlash(path))
		}
		// #nosec G304 -- paths come from diagnostics of this project
		data, err := os.ReadFile(full)
		var idx *source.LineIndex
		if err == nil {
			idx = source.NewLineIndex(data)
		}
		cache[path] = idx
		return idx
	}
}

// compileDiagnostics extracts source errors from a compile failure.
func compileDiagnostics(err error) ([]diag.Diagnostic, bool) {
	var ce *build.CompileError
	if errors.As(err, &ce) {
		return ce.Diagnostics, true
	}
	return nil, false
}

// diagnosticPrinter renders diagnostics in the format picked by --format.
type diagnosticPrinter struct {
	w      io.Writer
	root   string
	format string
	color  bool
}

func newDiagnosticPrinter(w io.Writer, root, format string, useColor bool) (diagnosticPrinter, error) {
	switch format {
	case "pretty", "short":
	default:
		return diagnosticPrinter{}, fmt.Errorf("unsupported format %q (must be pretty or short)", format)
	}
	return diagnosticPrinter{w: w, root: root, format: format, color: useColor}, nil
}

func (p diagnosticPrinter) print(diags []diag.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	lines := fileLines(p.root)
	if p.format == "short" {
		_, err := fmt.Fprintln(p.w, diag.FormatShort(diags, lines, true))
		return err
	}
	return diag.Pretty(p.w, diags, lines, diag.PrettyOpts{Color: p.color})
}
