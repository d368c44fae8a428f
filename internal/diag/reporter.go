package diag

import "surgelsp/internal/source"

// Reporter — минимальный контракт получения диагностик от фаз.
type Reporter interface {
	Report(code Code, sev Severity, primary source.Span, msg string, notes []Note)
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code Code, primary source.Span, msg string) {
	r.Report(code, SevError, primary, msg, nil)
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code Code, primary source.Span, msg string) {
	r.Report(code, SevWarning, primary, msg, nil)
}

// BagReporter — адаптер, который пишет в *Bag от имени одного модуля.
type BagReporter struct {
	Bag    *Bag
	Module string
	Path   string
}

func (r BagReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{
		Severity: sev, Code: code, Message: msg,
		Module: r.Module, Path: r.Path,
		Primary: primary, Notes: notes,
	})
}
