package source

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf8"

	"fortio.org/safecast"
)

// LineIndex converts between byte offsets and line/column positions of one
// immutable source text. It is built once per compile and never patched.
type LineIndex struct {
	content    []byte
	lineStarts []uint32 // lineStarts[i] — смещение первого байта строки i (0-based)
}

// NewLineIndex indexes content. The bytes are copied, so the caller may reuse
// its buffer afterwards.
func NewLineIndex(content []byte) *LineIndex {
	buf := make([]byte, len(content))
	copy(buf, content)
	starts := make([]uint32, 1, 1+bytes.Count(buf, []byte{'\n'}))
	for i, b := range buf {
		if b == '\n' {
			starts = append(starts, toUint32(i+1))
		}
	}
	return &LineIndex{content: buf, lineStarts: starts}
}

// NewLineIndexString is NewLineIndex for string sources.
func NewLineIndexString(src string) *LineIndex {
	return NewLineIndex([]byte(src))
}

func toUint32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("source offset overflow: %w", err))
	}
	return v
}

// Len returns the size of the indexed text in bytes.
func (idx *LineIndex) Len() uint32 {
	return toUint32(len(idx.content))
}

// LineCount returns the number of lines. An empty text has one (empty) line,
// and a trailing newline opens a final empty line.
func (idx *LineIndex) LineCount() int {
	return len(idx.lineStarts)
}

// LineStart returns the byte offset where the 1-based line begins.
func (idx *LineIndex) LineStart(line uint32) (uint32, bool) {
	if line == 0 || int(line) > len(idx.lineStarts) {
		return 0, false
	}
	return idx.lineStarts[line-1], true
}

// Line returns the text of the 1-based line without its terminating newline.
func (idx *LineIndex) Line(line uint32) string {
	start, ok := idx.LineStart(line)
	if !ok {
		return ""
	}
	return string(idx.content[start:idx.lineEnd(int(line-1))])
}

// lineEnd returns the offset of the newline ending line i (0-based), or the
// end of the text for the last line.
func (idx *LineIndex) lineEnd(i int) uint32 {
	if i+1 < len(idx.lineStarts) {
		return idx.lineStarts[i+1] - 1
	}
	return idx.Len()
}

// lineOf returns the 0-based line containing off.
func (idx *LineIndex) lineOf(off uint32) int {
	// бинпоиск: первая строка, начинающаяся после off, минус один
	return sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > off
	}) - 1
}

func (idx *LineIndex) clamp(off uint32) uint32 {
	if n := idx.Len(); off > n {
		return n
	}
	return off
}

// LineCol maps a byte offset to a 1-based line and a 1-based character
// column. Offsets past the end clamp to the end of the text; an offset inside
// a multi-byte character maps to that character's column.
func (idx *LineIndex) LineCol(off uint32) LineCol {
	off = idx.clamp(off)
	line := idx.lineOf(off)
	col := uint32(1)
	for p := idx.lineStarts[line]; p < off; {
		_, size := utf8.DecodeRune(idx.content[p:])
		if p+toUint32(size) > off {
			break
		}
		p += toUint32(size)
		col++
	}
	return LineCol{Line: toUint32(line + 1), Col: col}
}

// Offset maps a line/column back to a byte offset. Columns past the end of
// the line clamp to the line end; lines past the last one clamp to the end
// of the text.
func (idx *LineIndex) Offset(pos LineCol) uint32 {
	line := pos.Line
	if line == 0 {
		line = 1
	}
	if int(line) > len(idx.lineStarts) {
		return idx.Len()
	}
	i := int(line - 1)
	off := idx.lineStarts[i]
	end := idx.lineEnd(i)
	for col := uint32(1); col < pos.Col && off < end; col++ {
		_, size := utf8.DecodeRune(idx.content[off:end])
		off += toUint32(size)
	}
	return off
}

// UTF16Position maps a byte offset to a 0-based line and a 0-based UTF-16
// code unit column, the form editors speak.
func (idx *LineIndex) UTF16Position(off uint32) (line, character int) {
	off = idx.clamp(off)
	line = idx.lineOf(off)
	for p := idx.lineStarts[line]; p < off; {
		r, size := utf8.DecodeRune(idx.content[p:])
		if p+toUint32(size) > off {
			break
		}
		if r > 0xFFFF {
			character += 2
		} else {
			character++
		}
		p += toUint32(size)
	}
	return line, character
}

// OffsetForUTF16 is the inverse of UTF16Position. Positions that split a
// surrogate pair resolve to the start of the character.
func (idx *LineIndex) OffsetForUTF16(line, character int) uint32 {
	if line < 0 || character < 0 {
		return 0
	}
	if line >= len(idx.lineStarts) {
		return idx.Len()
	}
	off := idx.lineStarts[line]
	end := idx.lineEnd(line)
	units := 0
	for off < end {
		r, size := utf8.DecodeRune(idx.content[off:end])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > character {
			break
		}
		units += need
		off += toUint32(size)
	}
	return off
}
