package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"surgelsp/internal/build"
	"surgelsp/internal/buildlock"
	"surgelsp/internal/diag"
	"surgelsp/internal/fsio"
	"surgelsp/internal/observ"
	"surgelsp/internal/project"
	"surgelsp/internal/trace"
	"surgelsp/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compile the project once and report diagnostics",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings of the root package as errors")
	checkCmd.Flags().String("mode", "dev", "build profile (dev|prod)")
	checkCmd.Flags().String("codegen", "none", "packages that write artifacts (none|deps|all)")
	checkCmd.Flags().Bool("timings", false, "print phase timings")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().String("format", "pretty", "diagnostic format (pretty|short)")
}

func parseMode(s string) (project.Mode, error) {
	switch strings.ToLower(s) {
	case "dev":
		return project.ModeDev, nil
	case "prod":
		return project.ModeProd, nil
	}
	return 0, fmt.Errorf("unsupported mode %q (must be dev or prod)", s)
}

func parseCodegen(s string) (build.Codegen, error) {
	switch strings.ToLower(s) {
	case "none":
		return build.CodegenNone, nil
	case "deps", "deps-only":
		return build.CodegenDepsOnly, nil
	case "all":
		return build.CodegenAll, nil
	}
	return 0, fmt.Errorf("unsupported codegen %q (must be none, deps or all)", s)
}

type checkOutcome struct {
	warnings []diag.Diagnostic
	err      error
}

func runCheck(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	modeFlag, _ := flags.GetString("mode")
	codegenFlag, _ := flags.GetString("codegen")
	uiFlag, _ := flags.GetString("ui")
	formatFlag, _ := flags.GetString("format")
	warnAsErr, _ := flags.GetBool("warnings-as-errors")
	showTimings, _ := flags.GetBool("timings")

	mode, err := parseMode(modeFlag)
	if err != nil {
		return err
	}
	codegen, err := parseCodegen(codegenFlag)
	if err != nil {
		return err
	}
	logger := trace.FromContext(cmd.Context())
	timer := observ.NewTimer()

	phase := timer.Begin("load")
	proj, err := s.openProject()
	timer.End(phase, "")
	if err != nil {
		return err
	}
	printer, err := newDiagnosticPrinter(os.Stderr, proj.Paths.Root, strings.ToLower(formatFlag), s.useColor(os.Stderr))
	if err != nil {
		return err
	}

	options := build.Options{
		WarningsAsErrors:  warnAsErr,
		Mode:              mode,
		Codegen:           codegen,
		RootTargetSupport: build.TargetSupportEnforced,
	}
	sink := diag.NewSink()
	compiler := build.New(proj.Config, options, proj.Manifest, nil, sink, proj.Paths, fsio.NewProjectIO(proj.Paths.Root))
	compiler.Logger = logger

	run := func(telemetry build.Telemetry) checkOutcome {
		compiler.Telemetry = telemetry
		guard, err := buildlock.NewFileLocker(proj.Paths, mode, proj.Config.Target).LockForBuild()
		if err != nil {
			return checkOutcome{err: err}
		}
		defer guard.Unlock()

		phase := timer.Begin("version")
		err = compiler.CheckVersion()
		timer.End(phase, "")
		if err != nil {
			return checkOutcome{err: err}
		}
		phase = timer.Begin("dependencies")
		deps, err := compiler.CompileDependencies()
		timer.End(phase, fmt.Sprintf("%d modules", len(deps)))
		if err != nil {
			return checkOutcome{warnings: sink.Take(), err: err}
		}
		phase = timer.Begin("root")
		pkg, err := compiler.CompileRootPackage()
		note := "cached"
		if !pkg.Cached {
			note = fmt.Sprintf("%d modules", len(pkg.Modules))
		}
		timer.End(phase, note)
		return checkOutcome{warnings: sink.Take(), err: err}
	}

	var outcome checkOutcome
	if useProgressUI(uiFlag) {
		outcome, err = runCheckWithUI("check "+proj.Config.Name, run)
		if err != nil {
			return err
		}
	} else {
		outcome = run(build.NullTelemetry{})
	}

	if err := printer.print(outcome.warnings); err != nil {
		return err
	}
	if showTimings {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	logger.Debug("check finished", timer.KeyVals()...)

	if outcome.err != nil {
		if diags, ok := compileDiagnostics(outcome.err); ok && len(diags) > 0 {
			if err := printer.print(diags); err != nil {
				return err
			}
			return fmt.Errorf("%s: %d error(s)", proj.Config.Name, len(diags))
		}
		return outcome.err
	}
	fmt.Fprintf(os.Stdout, "%s: ok (%d warning(s))\n", proj.Config.Name, len(outcome.warnings))
	return nil
}

func useProgressUI(mode string) bool {
	switch strings.ToLower(mode) {
	case "on":
		return true
	case "off":
		return false
	}
	return isTerminal(os.Stderr)
}

// runCheckWithUI runs the check in the background while the progress view
// renders its events on stderr.
func runCheckWithUI(title string, run func(build.Telemetry) checkOutcome) (checkOutcome, error) {
	events := make(chan build.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		outcomeCh <- run(build.EventTelemetry{Sink: build.ChannelSink{Ch: events}})
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, events), tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		// окно упало раньше, чем сборка закончилась
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	return outcome, uiErr
}
