package build

import (
	"path/filepath"

	"surgelsp/internal/fsio"
	"surgelsp/internal/project"
)

var (
	buildModes   = []project.Mode{project.ModeDev, project.ModeProd, project.ModeLSP}
	buildTargets = []project.Target{project.TargetVM, project.TargetLLVM}
)

// ResetBuildDirectory drops the caches of every mode and the version file,
// so that the next CheckVersion passes and every package is recompiled.
// Dependency sources under PackagesDirectory and the lock files stay: the
// caller usually holds one of them.
func ResetBuildDirectory(w fsio.FileSystemWriter, paths project.Paths) error {
	for _, mode := range buildModes {
		for _, target := range buildTargets {
			lock := filepath.Base(paths.BuildLockFile(mode, target))
			if err := w.ClearDirectory(paths.BuildDirectoryForTarget(mode, target), lock); err != nil {
				return err
			}
		}
	}
	return w.DeleteDirectory(paths.VersionFile())
}
