package build

import (
	"errors"
	"fmt"
	"strings"

	"surgelsp/internal/diag"
)

// ErrVersionMismatch is reported when the build directory was written by a
// different compiler version. The cure is to delete it and compile again.
var ErrVersionMismatch = errors.New("build directory was created by a different compiler version")

// ErrPackageSourceMissing is reported when the source directory of a
// manifest package does not exist.
var ErrPackageSourceMissing = errors.New("package source directory not found")

// VersionMismatchError carries the details of ErrVersionMismatch.
type VersionMismatchError struct {
	Expected string
	Found    string
	Dir      string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("%s is from surgelsp %s, this is %s; delete it to rebuild", e.Dir, e.Found, e.Expected)
}

func (e *VersionMismatchError) Unwrap() error {
	return ErrVersionMismatch
}

// PackageError is a failure to compile a dependency package.
type PackageError struct {
	Package string
	Err     error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("dependency %s: %v", e.Package, e.Err)
}

func (e *PackageError) Unwrap() error {
	return e.Err
}

// CompileError reports source errors in a package. Diagnostics holds every
// error (and, with WarningsAsErrors, every warning) found.
type CompileError struct {
	Package     string
	Diagnostics []diag.Diagnostic
}

func (e *CompileError) Error() string {
	n := len(e.Diagnostics)
	if n == 0 {
		return fmt.Sprintf("package %s failed to compile", e.Package)
	}
	first := e.Diagnostics[0]
	var b strings.Builder
	fmt.Fprintf(&b, "package %s: %s: %s", e.Package, first.Path, first.Message)
	if n > 1 {
		fmt.Fprintf(&b, " (and %d more)", n-1)
	}
	return b.String()
}
