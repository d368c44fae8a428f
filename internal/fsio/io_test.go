package fsio

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func TestGlobSourcesHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":         "src/gen/\n",
		"src/app.sg":         "",
		"src/app/util.sg":    "",
		"src/gen/skipped.sg": "",
		"src/notes.txt":      "",
	})
	pio := NewProjectIO(root)
	got, err := pio.GlobSources(filepath.Join(root, "src"), "**/*.sg")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "src", "app.sg"),
		filepath.Join(root, "src", "app", "util.sg"),
	}, got)
}

func TestGlobSourcesMissingDir(t *testing.T) {
	got, err := NewProjectIO(t.TempDir()).GlobSources(filepath.Join(t.TempDir(), "nope"), "**/*.sg")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteDirectoryIsIdempotent(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "build", "lsp")
	writeTree(t, root, map[string]string{"build/lsp/vm/app/package.cache": "x"})
	pio := NewProjectIO(root)

	require.NoError(t, pio.DeleteDirectory(dir))
	assert.NoDirExists(t, dir)
	require.NoError(t, pio.DeleteDirectory(dir))
}

func TestClearDirectoryKeepsNamedEntries(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "build", "lsp", "vm")
	writeTree(t, root, map[string]string{
		"build/lsp/vm/app/package.cache":  "x",
		"build/lsp/vm/stale.tmp":          "x",
		"build/lsp/vm/surge-compile.lock": "",
	})
	pio := NewProjectIO(root)

	require.NoError(t, pio.ClearDirectory(dir, "surge-compile.lock"))
	assert.NoDirExists(t, filepath.Join(dir, "app"))
	assert.NoFileExists(t, filepath.Join(dir, "stale.tmp"))
	assert.FileExists(t, filepath.Join(dir, "surge-compile.lock"))

	require.NoError(t, pio.ClearDirectory(filepath.Join(root, "nope")))
}

func TestWriteFileCreatesParents(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a", "b", "c.bin")
	pio := NewProjectIO(root)
	require.NoError(t, pio.WriteFile(path, []byte("data")))
	got, err := pio.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
	assert.True(t, pio.Exists(path))
	assert.NoFileExists(t, path+".tmp")
}

func TestExecStdio(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	var out bytes.Buffer
	pio := &ProjectIO{Root: t.TempDir(), Stdout: &out}

	require.NoError(t, pio.Exec(Command{Name: "sh", Args: []string{"-c", "echo visible"}, Stdio: StdioInherit}))
	require.NoError(t, pio.Exec(Command{Name: "sh", Args: []string{"-c", "echo hidden"}, Stdio: StdioNull}))
	assert.Equal(t, "visible\n", out.String())

	err := pio.Exec(Command{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestOverlay(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/app.sg": "disk"})
	src := filepath.Join(root, "src")
	ov := NewOverlay(NewProjectIO(root))

	ov.Set(filepath.Join(src, "app.sg"), []byte("buffer"))
	ov.Set(filepath.Join(src, "new.sg"), []byte("unsaved"))
	ov.Set(filepath.Join(root, "elsewhere.sg"), []byte("outside"))

	got, err := ov.ReadFile(filepath.Join(src, "app.sg"))
	require.NoError(t, err)
	assert.Equal(t, "buffer", string(got))
	assert.True(t, ov.Exists(filepath.Join(src, "new.sg")))

	files, err := ov.GlobSources(src, "**/*.sg")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(src, "app.sg"), filepath.Join(src, "new.sg")}, files)

	ov.Delete(filepath.Join(src, "app.sg"))
	got, err = ov.ReadFile(filepath.Join(src, "app.sg"))
	require.NoError(t, err)
	assert.Equal(t, "disk", string(got))
}
