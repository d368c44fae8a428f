package diag

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"surgelsp/internal/source"
)

// LineIndexFunc resolves the line index for a diagnostic's module path.
// It may return nil when the source is not known.
type LineIndexFunc func(path string) *source.LineIndex

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShort renders diagnostics into a stable, single-line-per-entry
// representation: "<severity> <CODE> <path>:<line>:<col> <message>".
// Entries are sorted by position; an entry whose source cannot be resolved
// is printed at 0:0.
func FormatShort(diags []Diagnostic, lines LineIndexFunc, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	rendered := make([]shortDiagnostic, 0, len(diags))
	for _, d := range diags {
		rendered = appendShort(rendered, d, lines, includeNotes)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendShort(out []shortDiagnostic, d Diagnostic, lines LineIndexFunc, includeNotes bool) []shortDiagnostic {
	pos := resolve(lines, d.Path, d.Primary.Start)
	out = append(out, shortDiagnostic{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Path:     normalizePath(d.Path),
		Line:     pos.Line,
		Column:   pos.Col,
		Message:  sanitizeMessage(d.Message),
	})
	if includeNotes {
		for _, note := range d.Notes {
			npos := resolve(lines, d.Path, note.Span.Start)
			out = append(out, shortDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Path:     normalizePath(d.Path),
				Line:     npos.Line,
				Column:   npos.Col,
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}
	return out
}

func resolve(lines LineIndexFunc, path string, off uint32) source.LineCol {
	if lines == nil {
		return source.LineCol{}
	}
	idx := lines(normalizePath(path))
	if idx == nil {
		return source.LineCol{}
	}
	return idx.LineCol(off)
}

// PrettyOpts controls Pretty output.
type PrettyOpts struct {
	Color bool
}

// Pretty форматирует диагностики в человекочитаемый вид:
// <path>:<line>:<col>: <severity>[<CODE>]: <message>
// затем строка исходника с подчёркиванием ^~~~ по Span.
func Pretty(w io.Writer, diags []Diagnostic, lines LineIndexFunc, opts PrettyOpts) error {
	sorted := make([]Diagnostic, len(diags))
	copy(sorted, diags)
	SortDiagnostics(sorted)

	for _, d := range sorted {
		sev := d.Severity.color(opts.Color).Sprint(d.Severity.String())
		pos := resolve(lines, d.Path, d.Primary.Start)
		if _, err := fmt.Fprintf(w, "%s:%d:%d: %s[%s]: %s\n", normalizePath(d.Path), pos.Line, pos.Col, sev, d.Code.ID(), sanitizeMessage(d.Message)); err != nil {
			return err
		}
		if lines == nil {
			continue
		}
		idx := lines(normalizePath(d.Path))
		if idx == nil || pos.Line == 0 {
			continue
		}
		text := idx.Line(pos.Line)
		if _, err := fmt.Fprintf(w, "  %s\n  %s\n", text, underline(idx, text, d.Primary, pos, opts.Color)); err != nil {
			return err
		}
		for _, note := range d.Notes {
			npos := resolve(lines, d.Path, note.Span.Start)
			if _, err := fmt.Fprintf(w, "  note %d:%d: %s\n", npos.Line, npos.Col, sanitizeMessage(note.Msg)); err != nil {
				return err
			}
		}
	}
	return nil
}

// underline builds the caret line for span; display widths come from
// runewidth so that wide characters keep the caret aligned.
func underline(idx *source.LineIndex, text string, span source.Span, start source.LineCol, useColor bool) string {
	runes := []rune(text)
	col := int(start.Col) - 1
	if col > len(runes) {
		col = len(runes)
	}
	pad := runewidth.StringWidth(string(runes[:col]))

	end := idx.LineCol(span.End)
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		stop := int(end.Col) - 1
		if stop > len(runes) {
			stop = len(runes)
		}
		width = max(runewidth.StringWidth(string(runes[col:stop])), 1)
	}
	marker := "^" + strings.Repeat("~", width-1)
	c := color.New(color.FgGreen, color.Bold)
	if !useColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return strings.Repeat(" ", pad) + c.Sprint(marker)
}

func normalizePath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
