package source

import "fmt"

// Span is a half-open byte range within one module's source text.
type Span struct {
	Start uint32 // включительно
	End   uint32 // не включительно
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Contains reports whether off falls inside the span. The end offset
// counts, so a cursor right after an identifier still hits it.
func (s Span) Contains(off uint32) bool {
	return s.Start <= off && off <= s.End
}

// Cover returns the smallest span holding both s and other.
func (s Span) Cover(other Span) Span {
	return Span{Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}
