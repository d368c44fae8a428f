package project

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathsLayout(t *testing.T) {
	root := filepath.FromSlash("/work/app")
	p := NewPaths(root)

	assert.Equal(t, filepath.Join(root, "surge.toml"), p.RootConfig())
	assert.Equal(t, filepath.Join(root, "manifest.toml"), p.ManifestFile())
	assert.Equal(t, filepath.Join(root, "build", "surge-version"), p.VersionFile())
	assert.Equal(t, filepath.Join(root, "build", "lsp", "vm", "app"), p.BuildDirectoryForPackage(ModeLSP, TargetVM, "app"))
	assert.Equal(t, filepath.Join(root, "build", "dev", "llvm", "surge-compile.lock"), p.BuildLockFile(ModeDev, TargetLLVM))
	assert.Equal(t, filepath.Join(root, "build", "packages", "util"), p.PackageSourceDirectory(ManifestPackage{Name: "util", Source: "packages"}))
	assert.Equal(t, filepath.Join(root, "vendor", "util"), p.PackageSourceDirectory(ManifestPackage{Name: "util", Source: "local", Path: "vendor/util"}))
}

func TestPathsRel(t *testing.T) {
	root := filepath.FromSlash("/work/app")
	p := NewPaths(root)
	assert.Equal(t, "src/main.sg", p.Rel(filepath.Join(root, "src", "main.sg")))
	assert.Equal(t, "/work/other/x.sg", p.Rel(filepath.FromSlash("/work/other/x.sg")))
}

func TestModuleNameFromPath(t *testing.T) {
	tests := []struct {
		file string
		want string
		ok   bool
	}{
		{"src/app.sg", "app", true},
		{"src/app/util.sg", "app/util", true},
		{"src/app/9bad.sg", "", false},
		{"other/app.sg", "", false},
	}
	for _, tt := range tests {
		got, err := ModuleNameFromPath("src", filepath.FromSlash(tt.file))
		if !tt.ok {
			assert.Error(t, err, tt.file)
			continue
		}
		assert.NoError(t, err, tt.file)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseTarget(t *testing.T) {
	got, err := ParseTarget(" LLVM ")
	assert.NoError(t, err)
	assert.Equal(t, TargetLLVM, got)
	_, err = ParseTarget("wasm")
	assert.Error(t, err)
	assert.Equal(t, "lsp", ModeLSP.String())
}

func TestCombineIsOrderSensitive(t *testing.T) {
	a, b, c := DigestString("a"), DigestString("b"), DigestString("c")
	assert.NotEqual(t, Combine(a, b, c), Combine(a, c, b))
	assert.Equal(t, Combine(a, b, c), Combine(a, b, c))
	assert.True(t, Digest{}.IsZero())
	assert.False(t, a.IsZero())
}
