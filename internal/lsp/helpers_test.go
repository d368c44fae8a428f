package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"surgelsp/internal/buildlock"
	"surgelsp/internal/fsio"
	"surgelsp/internal/project"
)

const testVersion = "test-1"

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)
	return root
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func loadProject(t *testing.T, root string) *project.Project {
	t.Helper()
	proj, err := project.Load(root)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	return &proj
}

// newTestCompiler builds a Compiler over the real file system. A nil locker
// selects the file lock of the project's language server build directory.
func newTestCompiler(t *testing.T, root string, locker buildlock.Locker) *Compiler {
	t.Helper()
	proj := loadProject(t, root)
	if locker == nil {
		locker = buildlock.NewFileLocker(proj.Paths, project.ModeLSP, proj.Config.Target)
	}
	c, err := NewCompiler(proj.Manifest, proj.Config, proj.Paths, fsio.NewProjectIO(root), locker, WithVersion(testVersion))
	if err != nil {
		t.Fatalf("new compiler: %v", err)
	}
	return c
}

const utilSource = "pub type Text\npub fn join(a: Text) -> Text\nfn unused()\n"

// projectWithDep is a root package "app" using a local dependency "util".
// util has an unused private function, so compiling it warns; app is clean.
func projectWithDep() map[string]string {
	return map[string]string{
		"surge.toml": "[package]\nname = \"app\"\n\n[dependencies]\nutil = \"1.0.0\"\n",
		"manifest.toml": `[[packages]]
name = "util"
version = "1.0.0"
source = "local"
path = "deps/util"
`,
		"deps/util/surge.toml":  "[package]\nname = \"util\"\nversion = \"1.0.0\"\n",
		"deps/util/src/util.sg": utilSource,
		"src/app.sg":            "import util\npub fn main(t: util.Text) = util.join\n",
	}
}
