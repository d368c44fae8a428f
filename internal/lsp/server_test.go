package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"surgelsp/internal/buildlock"
	"surgelsp/internal/project"
)

func newTestServer(t *testing.T, root string, out io.Writer) *Server {
	t.Helper()
	return NewServer(bytes.NewReader(nil), out, ServerOptions{
		Debounce:        time.Hour,
		Root:            root,
		CompilerOptions: []CompilerOption{WithVersion(testVersion)},
		Locker: func(paths project.Paths, target project.Target) buildlock.Locker {
			return buildlock.NewMemoryLocker(paths.BuildLockFile(project.ModeLSP, target))
		},
	})
}

func call(t *testing.T, s *Server, method string, params any) {
	t.Helper()
	payload, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("encode %s: %v", method, err)
	}
	if err := s.handleMessage(&rpcMessage{JSONRPC: "2.0", Method: method, Params: payload}); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

func request(t *testing.T, s *Server, out *bytes.Buffer, method string, params any) rpcMessage {
	t.Helper()
	out.Reset()
	payload, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("encode %s: %v", method, err)
	}
	if err := s.handleMessage(&rpcMessage{JSONRPC: "2.0", ID: json.RawMessage("7"), Method: method, Params: payload}); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
	msgs := readAll(t, out)
	if len(msgs) != 1 {
		t.Fatalf("expected one response to %s, got %d", method, len(msgs))
	}
	return msgs[0]
}

// compileNow runs the pending compile without waiting for the debounce.
func compileNow(t *testing.T, s *Server, out *bytes.Buffer) map[string][]lspDiagnostic {
	t.Helper()
	s.stopTimer()
	out.Reset()
	s.runCompile(s.compileSeq.Load())
	published := make(map[string][]lspDiagnostic)
	for _, msg := range readAll(t, out) {
		if msg.Method != "textDocument/publishDiagnostics" {
			t.Fatalf("unexpected message %q", msg.Method)
		}
		var params publishDiagnosticsParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			t.Fatalf("decode params: %v", err)
		}
		published[params.URI] = params.Diagnostics
	}
	return published
}

func readAll(t *testing.T, out *bytes.Buffer) []rpcMessage {
	t.Helper()
	reader := bufio.NewReader(bytes.NewReader(out.Bytes()))
	var msgs []rpcMessage
	for {
		payload, err := readMessage(reader)
		if errors.Is(err, io.EOF) {
			return msgs
		}
		if err != nil {
			t.Fatalf("read message: %v", err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		msgs = append(msgs, msg)
	}
}

func openDoc(t *testing.T, s *Server, path, text string) string {
	t.Helper()
	uri := pathToURI(path)
	call(t, s, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "surge", Version: 1, Text: text},
	})
	return uri
}

func TestRunInitializeShutdownExit(t *testing.T) {
	var in bytes.Buffer
	for _, msg := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"rootUri":"file:///tmp/none"}}`,
		`{"jsonrpc":"2.0","method":"initialized","params":{}}`,
		`{"jsonrpc":"2.0","id":2,"method":"textDocument/rename","params":{}}`,
		`{"jsonrpc":"2.0","id":3,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	} {
		if err := writeMessage(&in, []byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	var out bytes.Buffer
	s := NewServer(&in, &out, ServerOptions{})
	if err := s.Run(t.Context()); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}

	msgs := readAll(t, &out)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(msgs))
	}
	var init initializeResult
	if err := json.Unmarshal(msgs[0].Result, &init); err != nil {
		t.Fatalf("decode initialize: %v", err)
	}
	if !init.Capabilities.HoverProvider || !init.Capabilities.DefinitionProvider {
		t.Fatalf("unexpected capabilities: %+v", init.Capabilities)
	}
	if msgs[1].Error == nil || msgs[1].Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", msgs[1])
	}
	if msgs[2].Error != nil {
		t.Fatalf("shutdown failed: %+v", msgs[2].Error)
	}
}

func TestExitWithoutShutdown(t *testing.T) {
	var in bytes.Buffer
	if err := writeMessage(&in, []byte(`{"jsonrpc":"2.0","method":"exit"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewServer(&in, io.Discard, ServerOptions{})
	if err := s.Run(t.Context()); !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("expected ErrExitWithoutShutdown, got %v", err)
	}
}

func TestPublishDiagnosticsFromUnsavedBuffer(t *testing.T) {
	root := writeProject(t, projectWithDep())
	var out bytes.Buffer
	s := newTestServer(t, root, &out)
	appPath := filepath.Join(root, "src", "app.sg")

	// на диске файл корректный, ошибка только в буфере редактора
	uri := openDoc(t, s, appPath, "import util\npub fn main() = util.missing\n")
	published := compileNow(t, s, &out)
	if len(published) != 1 {
		t.Fatalf("expected diagnostics for one file, got %v", published)
	}
	list := published[uri]
	if len(list) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", list)
	}
	got := list[0]
	if got.Code != "SEM3003" || got.Severity != severityError {
		t.Fatalf("unexpected diagnostic: %+v", got)
	}
	if got.Range.Start != (position{Line: 1, Character: 16}) || got.Range.End != (position{Line: 1, Character: 28}) {
		t.Fatalf("unexpected range: %+v", got.Range)
	}

	call(t, s, "textDocument/didChange", didChangeTextDocumentParams{
		TextDocument: versionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{
			Range: &lspRange{Start: position{Line: 1, Character: 21}, End: position{Line: 1, Character: 28}},
			Text:  "join",
		}},
	})
	published = compileNow(t, s, &out)
	list, ok := published[uri]
	if !ok || len(list) != 0 {
		t.Fatalf("expected diagnostics of %s to be cleared, got %v", uri, published)
	}
}

func TestPublishesRootWarningsOnly(t *testing.T) {
	root := writeProject(t, projectWithDep())
	var out bytes.Buffer
	s := newTestServer(t, root, &out)
	appPath := filepath.Join(root, "src", "app.sg")
	uri := openDoc(t, s, appPath, "import util\npub fn main(t: util.Text) = util.join\nfn helper()\n")

	published := compileNow(t, s, &out)
	if len(published) != 1 {
		t.Fatalf("dependency warnings must not be published: %v", published)
	}
	list := published[uri]
	if len(list) != 1 || list[0].Code != "SEM3102" || list[0].Severity != severityWarning {
		t.Fatalf("unexpected diagnostics: %+v", list)
	}
	if list[0].Range.Start != (position{Line: 2, Character: 3}) {
		t.Fatalf("unexpected range: %+v", list[0].Range)
	}

	// a second compile reports the same warning again
	s.scheduleCompile()
	published = compileNow(t, s, &out)
	if len(published[uri]) != 1 {
		t.Fatalf("expected the warning again, got %v", published)
	}
}

func TestMaxDiagnosticsSetting(t *testing.T) {
	root := writeProject(t, projectWithDep())
	var out bytes.Buffer
	s := newTestServer(t, root, &out)
	call(t, s, "workspace/didChangeConfiguration", didChangeConfigurationParams{
		Settings: json.RawMessage(`{"surge":{"maxDiagnostics":1}}`),
	})
	uri := openDoc(t, s, filepath.Join(root, "src", "app.sg"), "import util\nfn a()\nfn b()\n")

	published := compileNow(t, s, &out)
	if len(published[uri]) != 1 {
		t.Fatalf("expected diagnostics to be capped at 1, got %+v", published[uri])
	}
}

func TestHoverAndDefinitionAcrossModules(t *testing.T) {
	root := writeProject(t, projectWithDep())
	var out bytes.Buffer
	s := newTestServer(t, root, &out)
	appPath := filepath.Join(root, "src", "app.sg")
	uri := openDoc(t, s, appPath, "import util\npub fn main(t: util.Text) = util.join\n")
	compileNow(t, s, &out)

	pos := textDocumentPositionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Position:     position{Line: 1, Character: 35},
	}
	resp := request(t, s, &out, "textDocument/hover", pos)
	var h hover
	if err := json.Unmarshal(resp.Result, &h); err != nil {
		t.Fatalf("decode hover: %v", err)
	}
	if !strings.Contains(h.Contents.Value, "pub fn join(a: util.Text) -> util.Text") {
		t.Fatalf("unexpected hover: %q", h.Contents.Value)
	}
	if h.Range == nil || h.Range.Start != (position{Line: 1, Character: 33}) {
		t.Fatalf("unexpected hover range: %+v", h.Range)
	}

	resp = request(t, s, &out, "textDocument/definition", pos)
	var locs []location
	if err := json.Unmarshal(resp.Result, &locs); err != nil {
		t.Fatalf("decode definition: %v", err)
	}
	utilPath := filepath.Join(root, "deps", "util", "src", "util.sg")
	if len(locs) != 1 || locs[0].URI != pathToURI(utilPath) {
		t.Fatalf("unexpected definition: %+v", locs)
	}
	want := lspRange{Start: position{Line: 1, Character: 7}, End: position{Line: 1, Character: 11}}
	if locs[0].Range != want {
		t.Fatalf("unexpected definition range: %+v", locs[0].Range)
	}

	// hover over the import alias names the module
	resp = request(t, s, &out, "textDocument/hover", textDocumentPositionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Position:     position{Line: 0, Character: 8},
	})
	if err := json.Unmarshal(resp.Result, &h); err != nil {
		t.Fatalf("decode hover: %v", err)
	}
	if !strings.Contains(h.Contents.Value, "import util") {
		t.Fatalf("unexpected hover: %q", h.Contents.Value)
	}

	// the target file is gone: no location
	if err := os.Remove(utilPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	resp = request(t, s, &out, "textDocument/definition", pos)
	locs = nil
	if err := json.Unmarshal(resp.Result, &locs); err != nil {
		t.Fatalf("decode definition: %v", err)
	}
	if len(locs) != 0 {
		t.Fatalf("expected no location for a deleted file, got %+v", locs)
	}
}

func TestHoverUsesLastGoodCompile(t *testing.T) {
	root := writeProject(t, projectWithDep())
	var out bytes.Buffer
	s := newTestServer(t, root, &out)
	appPath := filepath.Join(root, "src", "app.sg")
	uri := openDoc(t, s, appPath, "import util\npub fn main(t: util.Text) = util.join\n")
	compileNow(t, s, &out)

	call(t, s, "textDocument/didChange", didChangeTextDocumentParams{
		TextDocument:   versionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{Text: "import util\npub fn main(t: util.Text) = util.join\npub fn (\n"}},
	})
	if published := compileNow(t, s, &out); len(published[uri]) == 0 {
		t.Fatalf("expected a syntax error, got %v", published)
	}

	resp := request(t, s, &out, "textDocument/hover", textDocumentPositionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Position:     position{Line: 1, Character: 35},
	})
	var h hover
	if err := json.Unmarshal(resp.Result, &h); err != nil {
		t.Fatalf("decode hover: %v", err)
	}
	if !strings.Contains(h.Contents.Value, "fn join(") {
		t.Fatalf("unexpected hover: %q", h.Contents.Value)
	}
}

func TestVersionMismatchRebuilds(t *testing.T) {
	root := writeProject(t, projectWithDep())
	writeFiles(t, root, map[string]string{"build/surge-version": "0.0.0-other\n"})
	var out bytes.Buffer
	s := newTestServer(t, root, &out)
	openDoc(t, s, filepath.Join(root, "src", "app.sg"), "import util\npub fn main(t: util.Text) = util.join\n")

	compileNow(t, s, &out)
	c := s.currentCompiler()
	if c == nil {
		t.Fatal("expected a compiler")
	}
	if got := c.Modules(); len(got) != 2 {
		t.Fatalf("expected app and util after the rebuild, got %v", got)
	}
	data, err := os.ReadFile(filepath.Join(root, "build", "surge-version"))
	if err != nil {
		t.Fatalf("read version: %v", err)
	}
	if strings.TrimSpace(string(data)) != testVersion {
		t.Fatalf("version file not rewritten: %q", data)
	}
}

func TestVersionMismatchKeepsPackageSources(t *testing.T) {
	root := writeProject(t, map[string]string{
		"surge.toml":    "[package]\nname = \"app\"\n\n[dependencies]\nutil = \"1.0.0\"\n",
		"manifest.toml": "[[packages]]\nname = \"util\"\nversion = \"1.0.0\"\nsource = \"packages\"\n",
		"src/app.sg":    "import util\npub fn main(t: util.Text) = util.join\n",

		"build/packages/util/surge.toml":  "[package]\nname = \"util\"\nversion = \"1.0.0\"\n",
		"build/packages/util/src/util.sg": utilSource,
		"build/surge-version":             "old\n",
		"build/dev/vm/app/package.cache":  "stale",
		"build/lsp/vm/surge-compile.lock": "",
	})
	var out bytes.Buffer
	s := newTestServer(t, root, &out)
	openDoc(t, s, filepath.Join(root, "src", "app.sg"), "import util\npub fn main(t: util.Text) = util.join\n")

	for uri, diags := range compileNow(t, s, &out) {
		if len(diags) > 0 {
			t.Fatalf("unexpected diagnostics for %s: %+v", uri, diags)
		}
	}
	c := s.currentCompiler()
	if c == nil {
		t.Fatal("expected a compiler")
	}
	if got := c.Modules(); len(got) != 2 {
		t.Fatalf("expected app and util after the rebuild, got %v", got)
	}

	build := filepath.Join(root, "build")
	for _, kept := range []string{
		filepath.Join(build, "packages", "util", "src", "util.sg"),
		filepath.Join(build, "lsp", "vm", "surge-compile.lock"),
	} {
		if _, err := os.Stat(kept); err != nil {
			t.Fatalf("%s must survive the rebuild: %v", kept, err)
		}
	}
	if _, err := os.Stat(filepath.Join(build, "dev", "vm", "app")); !os.IsNotExist(err) {
		t.Fatalf("stale dev cache must be removed, stat err = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(build, "surge-version"))
	if err != nil {
		t.Fatalf("read version: %v", err)
	}
	if strings.TrimSpace(string(data)) != testVersion {
		t.Fatalf("version file not rewritten: %q", data)
	}
}
