package build

import "surgelsp/internal/project"

// Codegen selects which packages get artifacts written.
type Codegen uint8

const (
	// CodegenNone only type checks; the language server uses it.
	CodegenNone Codegen = iota
	// CodegenDepsOnly writes artifacts for dependencies but not the root.
	CodegenDepsOnly
	// CodegenAll writes artifacts for every package.
	CodegenAll
)

// ShouldCodegen reports whether the package should produce artifacts.
func (c Codegen) ShouldCodegen(isRoot bool) bool {
	switch c {
	case CodegenAll:
		return true
	case CodegenDepsOnly:
		return !isRoot
	}
	return false
}

func (c Codegen) String() string {
	switch c {
	case CodegenDepsOnly:
		return "deps-only"
	case CodegenAll:
		return "all"
	}
	return "none"
}

// TargetSupport decides whether using a function that is not implemented
// for the compile target is an error.
type TargetSupport uint8

const (
	TargetSupportNotEnforced TargetSupport = iota
	TargetSupportEnforced
)

// Options configure a ProjectCompiler.
type Options struct {
	// WarningsAsErrors fails the root package when it has warnings.
	WarningsAsErrors bool
	Mode             project.Mode
	// Target overrides the package configuration; nil keeps it.
	Target  *project.Target
	Codegen Codegen
	// RootTargetSupport applies to the root package only. Dependencies are
	// always compiled without enforcement: unreachable target-specific code
	// in a dependency must not block the root.
	RootTargetSupport TargetSupport
}
