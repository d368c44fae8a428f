package diag

import (
	"surgelsp/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Module   string // имя модуля, например "app/util"
	Path     string // путь к файлу относительно корня проекта
	Primary  source.Span
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

// InModule returns a copy of d attributed to the given module and file.
func (d Diagnostic) InModule(module, path string) Diagnostic {
	d.Module = module
	d.Path = path
	return d
}

// IsError reports whether d blocks compilation.
func (d Diagnostic) IsError() bool {
	return d.Severity >= SevError
}
