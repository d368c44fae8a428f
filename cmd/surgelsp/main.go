package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"surgelsp/internal/trace"
	"surgelsp/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "surgelsp",
	Short: "Surge language server and incremental project checker",
	Long: `surgelsp keeps a Surge project compiled while it is edited.
It serves the language server protocol over stdio and can check or watch
a project from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(trace.WithLogger(cmd.Context(), s.logger()))
		return nil
	},
}

func init() {
	rootCmd.Version = version.Number

	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	registerGlobalFlags(rootCmd)
}

// registerGlobalFlags объявляет флаги, общие для всех команд
func registerGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("project", "", "project directory or a path inside it (default: current directory)")
	flags.String("target", "", "override the target of surge.toml (vm|llvm)")
	flags.String("log-level", "warn", "log verbosity on stderr (off|error|warn|info|debug)")
	flags.Duration("debounce", defaultDebounce, "delay between an edit and the recompile it triggers")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics to show per file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		trace.Setup(os.Stderr, trace.LevelError).Error(err)
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
