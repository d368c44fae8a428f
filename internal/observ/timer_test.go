package observ

import (
	"strings"
	"testing"
)

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("parse")
	tm.End(idx, "3 files")
	tm.End(42, "ignored")
	tm.Begin("check")

	phases := tm.Phases()
	if len(phases) != 2 || phases[0].Note != "3 files" {
		t.Fatalf("unexpected phases: %+v", phases)
	}
	kv := tm.KeyVals()
	if len(kv) != 4 || kv[0] != "parse" || kv[2] != "check" {
		t.Fatalf("unexpected key/vals: %v", kv)
	}
	sum := tm.Summary()
	if !strings.Contains(sum, "parse") || !strings.Contains(sum, "// 3 files") || !strings.Contains(sum, "total") {
		t.Fatalf("unexpected summary:\n%s", sum)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if tm.Total() != 0 || len(tm.KeyVals()) != 0 {
		t.Fatalf("nil timer recorded something")
	}
}
