package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"surgelsp/internal/buildlock"
	"surgelsp/internal/fsio"
	"surgelsp/internal/project"
	"surgelsp/internal/trace"
	"surgelsp/internal/version"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// LockerFunc returns the build lock guarding a project's language server
// build directory.
type LockerFunc func(paths project.Paths, target project.Target) buildlock.Locker

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce       time.Duration
	MaxDiagnostics int
	Logger         *log.Logger
	// Root pins the project root. By default it is detected from the
	// workspace the client reports, or from the first opened file.
	Root string
	// Target overrides the target of the project's surge.toml.
	Target *project.Target
	// Locker defaults to a file lock inside the build directory.
	Locker          LockerFunc
	CompilerOptions []CompilerOption
}

// Server handles stdio JSON-RPC for the Surge language server. Every edit
// schedules a debounced compile of the whole project; results are
// published as diagnostics.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	logger *log.Logger
	opts   ServerOptions

	mu                sync.Mutex
	ctx               context.Context
	docs              map[string]*document
	published         map[string]struct{}
	workspaceRoot     string
	shutdownRequested bool
	debounce          time.Duration
	debounceTimer     *time.Timer
	maxDiagnostics    int
	compiler          *Compiler
	overlay           *fsio.Overlay
	locker            buildlock.Locker

	// compileMu serializes compiles; Compiler.Compile is not reentrant.
	compileMu  sync.Mutex
	compileSeq atomic.Uint64
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	maxDiagnostics := opts.MaxDiagnostics
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}
	if opts.Locker == nil {
		opts.Locker = func(paths project.Paths, target project.Target) buildlock.Locker {
			return buildlock.NewFileLocker(paths, project.ModeLSP, target)
		}
	}
	return &Server{
		in:             bufio.NewReader(in),
		out:            bufio.NewWriter(out),
		logger:         trace.OrDiscard(opts.Logger),
		opts:           opts,
		ctx:            context.Background(),
		docs:           make(map[string]*document),
		published:      make(map[string]struct{}),
		debounce:       debounce,
		maxDiagnostics: maxDiagnostics,
	}
}

// Run serves LSP requests until the input ends or the client exits.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	defer s.stopTimer()
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("failed to parse message", "err", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	s.mu.Lock()
	shuttingDown := s.shutdownRequested
	s.mu.Unlock()
	if shuttingDown && msg.Method != "exit" {
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
		}
		return nil
	}

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if shuttingDown {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()
	s.logger.Info("initialize", "root", root)

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			HoverProvider:      true,
			DefinitionProvider: true,
		},
		ServerInfo: &serverInfo{Name: "surgelsp", Version: version.Number},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.stopTimer()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.setDocument(uri, params.TextDocument.Text, params.TextDocument.Version)
	s.scheduleCompile()
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	text := ""
	if doc, ok := s.docs[uri]; ok {
		text = doc.text
	}
	s.mu.Unlock()
	s.setDocument(uri, applyChanges(text, params.ContentChanges), params.TextDocument.Version)
	s.scheduleCompile()
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	if params.Text != nil {
		s.mu.Lock()
		version := 0
		if doc, ok := s.docs[uri]; ok {
			version = doc.version
		}
		s.mu.Unlock()
		s.setDocument(uri, *params.Text, version)
	}
	s.scheduleCompile()
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	doc, ok := s.docs[uri]
	delete(s.docs, uri)
	overlay := s.overlay
	s.mu.Unlock()
	if ok && overlay != nil {
		// дальше компилятор читает файл с диска
		overlay.Delete(doc.path)
	}
	s.scheduleCompile()
	return nil
}

// setDocument records an editor buffer and mirrors it into the compiler's
// overlay.
func (s *Server) setDocument(uri, text string, version int) {
	path := uriToPath(uri)
	s.mu.Lock()
	s.docs[uri] = &document{path: path, text: text, version: version}
	overlay := s.overlay
	s.mu.Unlock()
	if overlay != nil {
		overlay.Set(path, []byte(text))
	}
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Version:     s.openVersion(uri),
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
