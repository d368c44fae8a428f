package project

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the per-package configuration file.
const ConfigFileName = "surge.toml"

var (
	// ErrPackageSectionMissing indicates that [package] is missing in surge.toml.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameInvalid indicates that [package].name is missing or malformed.
	ErrPackageNameInvalid = errors.New("invalid [package].name")
)

// PackageConfig is the parsed surge.toml of one package.
type PackageConfig struct {
	Name         string
	Version      string
	Target       Target
	Src          string // каталог исходников относительно корня пакета
	VM           VMOptions
	LLVM         LLVMOptions
	Dependencies map[string]string
	Hooks        Hooks
}

// VMOptions are target-specific settings for the interpreter backend.
type VMOptions struct {
	StackSize int `toml:"stack_size"`
}

// LLVMOptions are target-specific settings for the LLVM backend.
type LLVMOptions struct {
	OptLevel int    `toml:"opt_level"`
	Triple   string `toml:"triple"`
}

// Hooks are external commands run while compiling a package.
type Hooks struct {
	// Prepare runs before a package is compiled from scratch (not when its
	// cache is reused). Each entry is argv.
	Prepare [][]string `toml:"prepare"`
}

type packageFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Target  Target `toml:"target"`
		Src     string `toml:"src"`
	} `toml:"package"`
	VM           VMOptions         `toml:"vm"`
	LLVM         LLVMOptions       `toml:"llvm"`
	Dependencies map[string]string `toml:"dependencies"`
	Hooks        Hooks             `toml:"hooks"`
}

// DefaultPackageConfig returns the configuration assumed for a package that
// ships without surge.toml.
func DefaultPackageConfig(name string) PackageConfig {
	return PackageConfig{
		Name:         name,
		Target:       TargetVM,
		Src:          "src",
		Dependencies: map[string]string{},
	}
}

// LoadPackageConfig parses a surge.toml file.
func LoadPackageConfig(path string) (PackageConfig, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return PackageConfig{}, err
	}
	cfg, err := ParsePackageConfig(data)
	if err != nil {
		return PackageConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParsePackageConfig parses surge.toml contents.
func ParsePackageConfig(data []byte) (PackageConfig, error) {
	var raw packageFile
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return PackageConfig{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if !meta.IsDefined("package") {
		return PackageConfig{}, ErrPackageSectionMissing
	}
	name := strings.TrimSpace(raw.Package.Name)
	if !IsValidModuleIdent(name) {
		return PackageConfig{}, fmt.Errorf("%w: %q", ErrPackageNameInvalid, name)
	}
	cfg := DefaultPackageConfig(name)
	cfg.Version = strings.TrimSpace(raw.Package.Version)
	cfg.Target = raw.Package.Target
	if src := strings.TrimSpace(raw.Package.Src); src != "" {
		cfg.Src = src
	}
	cfg.VM = raw.VM
	cfg.LLVM = raw.LLVM
	cfg.Hooks = raw.Hooks
	for dep, req := range raw.Dependencies {
		if !IsValidModuleIdent(dep) {
			return PackageConfig{}, fmt.Errorf("invalid dependency name %q", dep)
		}
		cfg.Dependencies[dep] = req
	}
	for i, argv := range cfg.Hooks.Prepare {
		if len(argv) == 0 {
			return PackageConfig{}, fmt.Errorf("hooks.prepare[%d] is empty", i)
		}
	}
	return cfg, nil
}
