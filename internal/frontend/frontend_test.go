package frontend

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surgelsp/internal/diag"
	"surgelsp/internal/types"
)

func codes(diags []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestParseDeclarations(t *testing.T) {
	src := `// header
import app/util

pub type Name
pub const limit: Int
@target(llvm)
pub fn fast(x: Int, y: util.Size) -> Int
fn helper() = util.join limit
`
	file, diags := Parse("src/app.sg", []byte(src))
	require.Empty(t, diags)
	require.Len(t, file.Imports, 1)
	assert.Equal(t, Import{Path: "app/util", Alias: "util", Span: file.Imports[0].Span}, file.Imports[0])
	assert.Equal(t, "app/util", src[file.Imports[0].Span.Start:file.Imports[0].Span.End])

	require.Len(t, file.Decls, 4)
	fast := file.Decls[2]
	assert.Equal(t, DeclFn, fast.Kind)
	assert.True(t, fast.Public)
	assert.Equal(t, []string{"llvm"}, fast.Targets)
	require.Len(t, fast.Params, 2)
	assert.Equal(t, "util.Size", fast.Params[1].Type.String())
	assert.Equal(t, "Int", fast.Type.Name)
	assert.Equal(t, "fast", src[fast.NameSpan.Start:fast.NameSpan.End])

	helper := file.Decls[3]
	assert.False(t, helper.Public)
	assert.Empty(t, helper.Targets)
	require.Len(t, helper.Body, 2)
	assert.Equal(t, "util.join", helper.Body[0].String())
	assert.Equal(t, "limit", helper.Body[1].String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diag.Code
	}{
		{"garbage", "let x = 1\n", diag.SynUnexpectedLine},
		{"bad char", "pub fn f() = a#b\n", diag.SynUnexpectedLine},
		{"missing name", "pub fn (x: Int)\n", diag.SynExpectIdentifier},
		{"missing type", "const x:\n", diag.SynExpectType},
		{"unclosed", "fn f(x: Int\n", diag.SynUnclosedParen},
		{"unknown target", "@target(js) fn f()\n", diag.SynBadAttribute},
		{"unknown attribute", "@inline fn f()\n", diag.SynBadAttribute},
		{"dangling attribute", "@target(vm)\n", diag.SynAttributeNotFound},
		{"attribute on type", "@target(vm) type T\n", diag.SynAttributeNotFound},
		{"bad import", "import\n", diag.SynExpectModulePath},
		{"duplicate import", "import a/util\nimport b/util\n", diag.SynDuplicateImport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := Parse("x.sg", []byte(tt.src))
			require.NotEmpty(t, diags)
			assert.Equal(t, tt.want, diags[0].Code)
			assert.Equal(t, "x.sg", diags[0].Path)
			assert.True(t, diags[0].IsError())
		})
	}
}

func TestParseRecoversAfterBadLine(t *testing.T) {
	file, diags := Parse("x.sg", []byte("???\npub type Ok\n"))
	require.Len(t, diags, 1)
	require.Len(t, file.Decls, 1)
	assert.Equal(t, "Ok", file.Decls[0].Name)
}

func TestParseNormalizesIdentifiers(t *testing.T) {
	// "é" в виде e + combining acute
	file, diags := Parse("x.sg", []byte("pub type Caf\u0065\u0301\n"))
	require.Empty(t, diags)
	assert.Equal(t, "Caf\u00e9", file.Decls[0].Name)
}

func utilInterface() *types.ModuleInterface {
	m := types.NewModuleInterface("app/util", "app", "src/app/util.sg")
	str, _ := types.Builtin("String")
	m.Values["join"] = types.Value{Name: "join", Kind: types.ValueFn, Public: true, Type: str}
	m.Values["fast"] = types.Value{Name: "fast", Kind: types.ValueFn, Public: true, Type: types.Unit(), Targets: []string{"llvm"}}
	m.Values["secret"] = types.Value{Name: "secret", Kind: types.ValueFn, Type: types.Unit()}
	m.Types["Size"] = types.TypeDecl{Name: "Size", Public: true}
	m.Types["Hidden"] = types.TypeDecl{Name: "Hidden"}
	return m
}

func check(t *testing.T, src string, enforce bool) (*types.ModuleInterface, []diag.Diagnostic) {
	t.Helper()
	file, diags := Parse("src/app.sg", []byte(src))
	require.Empty(t, diags)
	util := utilInterface()
	return Check(file, Env{
		Module: "app", Package: "app", Target: "vm", EnforceTarget: enforce,
		Resolve: func(name string) (*types.ModuleInterface, bool) {
			if name == util.Name {
				return util, true
			}
			return nil, false
		},
	})
}

func TestCheckBuildsInterface(t *testing.T) {
	iface, diags := check(t, `import app/util
pub type Name
pub const size: util.Size
pub fn greet(name: Name) -> String = util.join helper
fn helper()
`, true)
	require.Empty(t, diags)
	assert.Equal(t, []string{"app/util"}, iface.Imports)
	assert.Equal(t, "pub fn greet(name: app.Name) -> String", iface.Values["greet"].Signature())
	assert.Equal(t, types.Nominal("app/util", "Size"), iface.Values["size"].Type)
	_, ok := iface.PublicValue("helper")
	assert.False(t, ok)
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []diag.Code
	}{
		{"unknown module", "import app/nope\n", []diag.Code{diag.ProjMissingModule}},
		{"self import", "import app\n", []diag.Code{diag.ProjSelfImport}},
		{"duplicate", "pub fn a()\npub fn a()\n", []diag.Code{diag.SemaDuplicateDecl}},
		{"unknown type", "pub const x: Nope\n", []diag.Code{diag.SemaUnknownType}},
		{"private type", "import app/util\npub const x: util.Hidden\n", []diag.Code{diag.SemaPrivateReference}},
		{"unknown name", "pub fn a() = missing\n", []diag.Code{diag.SemaUnknownReference}},
		{"not imported", "pub fn a() = util.join\n", []diag.Code{diag.SemaUnknownReference}},
		{"private value", "import app/util\npub fn a() = util.secret\n", []diag.Code{diag.SemaPrivateReference}},
		{"no such value", "import app/util\npub fn a() = util.gone\n", []diag.Code{diag.SemaUnknownReference}},
		{"target", "import app/util\npub fn a() = util.fast\n", []diag.Code{diag.SemaUnsupportedTarget}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := check(t, tt.src, true)
			assert.Equal(t, tt.want, codes(diags))
		})
	}
}

func TestCheckTargetNotEnforced(t *testing.T) {
	_, diags := check(t, "import app/util\npub fn a() = util.fast\n", false)
	assert.Empty(t, diags)
}

func TestCheckTargetRestrictedCaller(t *testing.T) {
	_, diags := check(t, "import app/util\n@target(llvm) pub fn a() = util.fast\n", true)
	assert.Empty(t, diags)
}

func TestCheckWarnings(t *testing.T) {
	_, diags := check(t, "import app/util\nfn lonely()\nfn rec() = rec\n", true)
	assert.Equal(t, []diag.Code{diag.SemaUnusedImport, diag.SemaUnusedFunction, diag.SemaUnusedFunction}, codes(diags))
	for _, d := range diags {
		assert.False(t, d.IsError())
		assert.Equal(t, "app", d.Module)
	}
}

func TestIdentAt(t *testing.T) {
	src := []byte("pub fn a() = util.join x")
	id, ok := IdentAt(src, 19) // внутри join
	require.True(t, ok)
	assert.Equal(t, Ident{Qualifier: "util", Name: "join", Span: id.Span}, id)
	assert.Equal(t, "join", string(src[id.Span.Start:id.Span.End]))

	id, ok = IdentAt(src, 14) // внутри util
	require.True(t, ok)
	assert.Equal(t, "util", id.Name)
	assert.Empty(t, id.Qualifier)

	id, ok = IdentAt(src, uint32(len(src)))
	require.True(t, ok)
	assert.Equal(t, "x", id.Name)

	_, ok = IdentAt(src, 11) // '='
	assert.False(t, ok)

	_, ok = IdentAt([]byte("x = 12ab"), 5) // цифры перед именем
	assert.False(t, ok)
}
