package project

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
)

// SourceExt is the extension of Surge source files.
const SourceExt = ".sg"

// IsValidModuleIdent reports whether name is a valid package name or module
// path segment: ASCII letter or '_' first, then letters, digits or '_'.
func IsValidModuleIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var errInvalidModulePath = errors.New("invalid module path")

// NormalizeModulePath приводит путь модуля к каноническому виду "a/b".
// Удаляет расширение .sg, переводит слэши к '/', запрещает пустые сегменты, ".", "..".
func NormalizeModulePath(path string) (string, error) {
	path = strings.TrimSuffix(path, SourceExt)
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return "", errInvalidModulePath
	}
	segments := strings.Split(path, "/")
	for _, seg := range segments {
		// пустой сегмент, например "a//b"
		if seg == "" || seg == "." || seg == ".." || !IsValidModuleIdent(seg) {
			return "", errInvalidModulePath
		}
	}
	return strings.Join(segments, "/"), nil
}

// ModuleNameFromPath derives the module name of a source file from its path
// relative to the package source directory: "src/app/util.sg" with srcDir
// "src" is module "app/util".
func ModuleNameFromPath(srcDir, file string) (string, error) {
	rel, err := filepath.Rel(srcDir, file)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return "", errInvalidModulePath
	}
	return NormalizeModulePath(rel)
}
