// Package fsio is the I/O capability handed to the compiler: file reads and
// writes, source discovery and external command execution.
package fsio

// FileSystemReader reads project files.
type FileSystemReader interface {
	ReadFile(path string) ([]byte, error)
	Exists(path string) bool
	// GlobSources returns files under dir matching a doublestar pattern
	// ("**/*.sg"), sorted.
	GlobSources(dir, pattern string) ([]string, error)
}

// FileSystemWriter writes build outputs.
type FileSystemWriter interface {
	WriteFile(path string, data []byte) error
	MkdirAll(path string) error
	// DeleteDirectory removes path recursively. A missing path is not an error.
	DeleteDirectory(path string) error
	// ClearDirectory removes the entries of dir except those named in keep.
	// A missing dir is not an error.
	ClearDirectory(dir string, keep ...string) error
}

// CommandExecutor runs external commands.
type CommandExecutor interface {
	Exec(cmd Command) error
}

// IO bundles every capability the compiler needs.
type IO interface {
	FileSystemReader
	FileSystemWriter
	CommandExecutor
}

// Stdio selects what happens to a subprocess's standard output.
type Stdio uint8

const (
	// StdioInherit forwards output to this process's stdout.
	StdioInherit Stdio = iota
	// StdioNull discards output. The language server uses it: its stdout
	// carries the editor protocol.
	StdioNull
)

func (s Stdio) String() string {
	if s == StdioNull {
		return "null"
	}
	return "inherit"
}

// Command describes one subprocess invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string // дополнительно к окружению процесса
	Stdio Stdio
}
