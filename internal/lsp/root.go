package lsp

import (
	"os"
	"path/filepath"

	"surgelsp/internal/project"
)

// detectProjectRoot finds the project to compile: the one containing the
// workspace root, otherwise the one containing the first opened file.
func detectProjectRoot(workspaceRoot, firstFile string) (string, bool) {
	for _, start := range []string{workspaceRoot, firstFile} {
		dir := resolveStartDir(start)
		if dir == "" {
			continue
		}
		if found, ok, err := project.FindProjectRoot(dir); err == nil && ok {
			return found, true
		}
	}
	return "", false
}

func resolveStartDir(path string) string {
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}
