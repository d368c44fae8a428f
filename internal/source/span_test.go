package source

import "testing"

func TestSpanCover(t *testing.T) {
	a := Span{Start: 10, End: 20}
	b := Span{Start: 5, End: 12}
	if got := a.Cover(b); got != (Span{Start: 5, End: 20}) {
		t.Fatalf("Cover = %v", got)
	}
}

func TestSpanContainsIncludesEnd(t *testing.T) {
	s := Span{Start: 3, End: 6}
	for _, off := range []uint32{3, 4, 6} {
		if !s.Contains(off) {
			t.Errorf("expected %d inside %v", off, s)
		}
	}
	if s.Contains(7) || s.Contains(2) {
		t.Errorf("offsets outside %v reported as contained", s)
	}
}
