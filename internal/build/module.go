package build

import (
	"surgelsp/internal/project"
	"surgelsp/internal/types"
)

// Origin tells where in a package a module lives.
type Origin uint8

const (
	OriginSrc Origin = iota
	// OriginTest modules are compiled for the root package outside prod mode.
	OriginTest
)

func (o Origin) String() string {
	if o == OriginTest {
		return "test"
	}
	return "src"
}

// Module is one compiled module. A new value is produced by every compile;
// modules are never updated in place.
type Module struct {
	Name      string
	Package   string
	InputPath string // относительно корня проекта
	Code      string
	Interface *types.ModuleInterface
	Origin    Origin
}

// Package is the result of compiling the root package.
type Package struct {
	Config  project.PackageConfig
	Modules []Module
	// Cached is set when nothing changed since the previous build and the
	// package was loaded from its cache instead of being compiled.
	Cached bool
}
