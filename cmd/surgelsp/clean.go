package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"surgelsp/internal/build"
	"surgelsp/internal/buildlock"
	"surgelsp/internal/fsio"
	"surgelsp/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the build caches of the project",
	Long: `Remove the caches of every mode and the version file from the build
directory. Dependency sources under build/packages are kept. Running
compilers of the project are waited for first.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func runClean(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	proj, err := s.openProject()
	if err != nil {
		return err
	}
	dir := proj.Paths.BuildDirectory()
	if _, err := os.Stat(dir); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "build directory not found")
		return nil
	}

	// Берём блокировки всех режимов, чтобы не удалить кэш из-под компилятора.
	for _, mode := range []project.Mode{project.ModeDev, project.ModeProd, project.ModeLSP} {
		guard, err := buildlock.NewFileLocker(proj.Paths, mode, proj.Config.Target).LockForBuild()
		if err != nil {
			return fmt.Errorf("lock %s build: %w", mode, err)
		}
		defer guard.Unlock()
	}
	if err := build.ResetBuildDirectory(fsio.NewProjectIO(proj.Paths.Root), proj.Paths); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleaned %s\n", proj.Paths.Rel(dir))
	return nil
}
