package build

import (
	"fmt"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"surgelsp/internal/project"
	"surgelsp/internal/types"
)

// Current schema version - increment when packageCache format changes.
const cacheSchemaVersion uint16 = 1

const cacheFileName = "package.cache"

// packageCache is the metadata written after a package compiles. When the
// digest still matches, the package's interfaces are loaded from it instead
// of compiling the package again.
type packageCache struct {
	Schema     uint16
	Compiler   string
	Package    string
	Target     string
	Digest     project.Digest
	Entrypoint string // модуль-точка входа, только у корневого пакета
	Modules    []cachedModule
}

type cachedModule struct {
	Name      string
	InputPath string
	Origin    Origin
	Interface *types.ModuleInterface
}

func cachePath(outDir string) string {
	return filepath.Join(outDir, cacheFileName)
}

// readCache returns the cache in outDir when it is readable and was written
// with the current schema by this compiler version.
func (c *ProjectCompiler) readCache(outDir string) (*packageCache, bool) {
	path := cachePath(outDir)
	if !c.IO.Exists(path) {
		return nil, false
	}
	data, err := c.IO.ReadFile(path)
	if err != nil {
		c.logger().Debug("cache unreadable", "path", path, "err", err)
		return nil, false
	}
	var pc packageCache
	if err := msgpack.Unmarshal(data, &pc); err != nil {
		c.logger().Debug("cache corrupt", "path", path, "err", err)
		return nil, false
	}
	if pc.Schema != cacheSchemaVersion || pc.Compiler != c.Version {
		return nil, false
	}
	return &pc, true
}

func (c *ProjectCompiler) writeCache(outDir string, pc *packageCache) error {
	pc.Schema = cacheSchemaVersion
	pc.Compiler = c.Version
	data, err := msgpack.Marshal(pc)
	if err != nil {
		return fmt.Errorf("encode cache for %s: %w", pc.Package, err)
	}
	if err := c.IO.WriteFile(cachePath(outDir), data); err != nil {
		return fmt.Errorf("write cache for %s: %w", pc.Package, err)
	}
	return nil
}

// writeArtifacts stores every module interface as <module>.sgi in outDir.
func (c *ProjectCompiler) writeArtifacts(outDir string, mods []Module) error {
	for _, m := range mods {
		data, err := msgpack.Marshal(m.Interface)
		if err != nil {
			return fmt.Errorf("encode %s: %w", m.Name, err)
		}
		path := filepath.Join(outDir, filepath.FromSlash(m.Name)+".sgi")
		if err := c.IO.WriteFile(path, data); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
