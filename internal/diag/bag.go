package diag

import (
	"sort"
)

// Bag collects the diagnostics of one module check.
type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag returns a bag holding at most max diagnostics; max <= 0 means no limit.
func NewBag(max int) *Bag {
	capHint := max
	if capHint <= 0 {
		capHint = 8
	}
	return &Bag{
		items: make([]Diagnostic, 0, capHint),
		max:   max,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// HasErrors возвращает true, если есть хотя бы одна диагностика с Severity >= Error
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// длина
func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез! (он указывает на внутренний массив Bag)
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Errors returns a copy of the error diagnostics.
func (b *Bag) Errors() []Diagnostic {
	return b.filter(func(d Diagnostic) bool { return d.IsError() })
}

// Warnings returns a copy of the non-error diagnostics.
func (b *Bag) Warnings() []Diagnostic {
	return b.filter(func(d Diagnostic) bool { return !d.IsError() })
}

func (b *Bag) filter(keep func(Diagnostic) bool) []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Sort сортирует диагностики по: path, start, end, severity (desc), code (asc)
// для стабильного и детерминированного порядка вывода.
func (b *Bag) Sort() {
	SortDiagnostics(b.items)
}

// SortDiagnostics orders diagnostics the way Bag.Sort does.
func SortDiagnostics(items []Diagnostic) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i], items[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		// затем по severity (по убыванию: Error > Warning > Info)
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}
