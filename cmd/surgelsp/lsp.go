package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"surgelsp/internal/lsp"
	"surgelsp/internal/project"
	"surgelsp/internal/trace"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the Surge language server over stdio",
	Long: `Run the language server over stdin/stdout. Logs go to stderr.
The project is taken from --project, otherwise from the workspace the
editor opens.`,
	Args: cobra.NoArgs,
	RunE: runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	opts := lsp.ServerOptions{
		Debounce:       s.Debounce,
		MaxDiagnostics: s.MaxDiagnostics,
		Logger:         trace.FromContext(cmd.Context()),
	}
	if s.Project != "" {
		proj, err := s.openProject()
		if err != nil {
			return err
		}
		opts.Root = proj.Paths.Root
	}
	if s.Target != "" {
		t, err := project.ParseTarget(s.Target)
		if err != nil {
			return err
		}
		opts.Target = &t
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, opts)
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
