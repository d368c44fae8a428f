package build

import (
	"surgelsp/internal/diag"
	"surgelsp/internal/frontend"
	"surgelsp/internal/types"
)

// Frontend parses and checks single modules for the ProjectCompiler.
type Frontend interface {
	Parse(path string, src []byte) (*frontend.File, []diag.Diagnostic)
	Check(file *frontend.File, env frontend.Env) (*types.ModuleInterface, []diag.Diagnostic)
}

// BuiltinFrontend is the frontend shipped with surgelsp.
type BuiltinFrontend struct{}

func (BuiltinFrontend) Parse(path string, src []byte) (*frontend.File, []diag.Diagnostic) {
	return frontend.Parse(path, src)
}

func (BuiltinFrontend) Check(file *frontend.File, env frontend.Env) (*types.ModuleInterface, []diag.Diagnostic) {
	return frontend.Check(file, env)
}
