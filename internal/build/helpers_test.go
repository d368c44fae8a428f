package build

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"surgelsp/internal/diag"
	"surgelsp/internal/fsio"
	"surgelsp/internal/project"
)

// writeProject lays files out under a fresh temporary root.
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
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

// recordingIO captures hook commands instead of running them. Writes to
// files named failWrites are rejected.
type recordingIO struct {
	*fsio.ProjectIO

	mu         sync.Mutex
	cmds       []fsio.Command
	failWrites string
}

var errWriteRejected = errors.New("write rejected")

func (r *recordingIO) WriteFile(path string, data []byte) error {
	r.mu.Lock()
	fail := r.failWrites != "" && filepath.Base(path) == r.failWrites
	r.mu.Unlock()
	if fail {
		return errWriteRejected
	}
	return r.ProjectIO.WriteFile(path, data)
}

func (r *recordingIO) rejectWrites(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWrites = name
}

func (r *recordingIO) Exec(cmd fsio.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	return nil
}

func (r *recordingIO) commands() []fsio.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]fsio.Command(nil), r.cmds...)
}

type fixture struct {
	root     string
	io       *recordingIO
	warnings *diag.Sink
	compiler *ProjectCompiler
}

func newFixture(t *testing.T, root string, opts Options) *fixture {
	t.Helper()
	proj, err := project.Load(root)
	require.NoError(t, err)
	rio := &recordingIO{ProjectIO: fsio.NewProjectIO(root)}
	sink := diag.NewSink()
	pc := New(proj.Config, opts, proj.Manifest, nil, sink, proj.Paths, rio)
	pc.Version = "test-1"
	return &fixture{root: root, io: rio, warnings: sink, compiler: pc}
}

func lspOptions() Options {
	return Options{Mode: project.ModeLSP, Codegen: CodegenNone, RootTargetSupport: TargetSupportEnforced}
}

func moduleNames(mods []Module) []string {
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		out = append(out, m.Name)
	}
	return out
}

func diagCodes(diags []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

const utilDep = `[package]
name = "util"
version = "1.0.0"
`

// projectWithDep is a root package "app" depending on a local package
// "util" whose private helper triggers a warning.
func projectWithDep() map[string]string {
	return map[string]string{
		"surge.toml": "[package]\nname = \"app\"\n\n[dependencies]\nutil = \"1.0.0\"\n",
		"manifest.toml": `[[packages]]
name = "util"
version = "1.0.0"
source = "local"
path = "deps/util"
`,
		"deps/util/surge.toml":  utilDep,
		"deps/util/src/util.sg": "pub type Text\npub fn join(a: Text) -> Text\nfn unused()\n@target(llvm) pub fn fast()\n",
		"src/app.sg":            "import app/strings\nimport util\npub fn main() = strings.shout util.join\n",
		"src/app/strings.sg":    "import util\npub fn shout(s: util.Text) -> util.Text\n",
	}
}
