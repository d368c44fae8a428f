package frontend

import (
	"fmt"
	"sort"

	"surgelsp/internal/diag"
	"surgelsp/internal/source"
	"surgelsp/internal/types"
)

// Env is what the checker knows about the world outside the file.
type Env struct {
	Module  string
	Package string
	// Target is the compile target name ("vm", "llvm"). With EnforceTarget
	// set, referencing a function that does not support it is an error.
	Target        string
	EnforceTarget bool
	// Resolve returns the interface of an already compiled module.
	Resolve func(module string) (*types.ModuleInterface, bool)
}

type checker struct {
	env  Env
	file *File
	rep  diag.Reporter
	out  *types.ModuleInterface

	imports    map[string]*types.ModuleInterface // alias -> interface
	importDecl map[string]Import
	usedAlias  map[string]bool
	usedLocal  map[string]bool
	localDecls map[string]*Decl // значения модуля
}

// Check resolves names in file and builds its module interface. The
// interface is returned even when errors were reported.
func Check(file *File, env Env) (*types.ModuleInterface, []diag.Diagnostic) {
	bag := diag.NewBag(0)
	c := &checker{
		env:        env,
		file:       file,
		rep:        diag.BagReporter{Bag: bag, Module: env.Module, Path: file.Path},
		out:        types.NewModuleInterface(env.Module, env.Package, file.Path),
		imports:    make(map[string]*types.ModuleInterface),
		importDecl: make(map[string]Import),
		usedAlias:  make(map[string]bool),
		usedLocal:  make(map[string]bool),
		localDecls: make(map[string]*Decl),
	}
	c.resolveImports()
	c.collect()
	c.checkDecls()
	c.reportUnused()
	return c.out, bag.Items()
}

func (c *checker) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(c.rep, code, sp, fmt.Sprintf(format, args...))
}

func (c *checker) resolveImports() {
	for _, imp := range c.file.Imports {
		if imp.Path == c.env.Module {
			c.errorf(diag.ProjSelfImport, imp.Span, "module %s imports itself", imp.Path)
			continue
		}
		var iface *types.ModuleInterface
		ok := false
		if c.env.Resolve != nil {
			iface, ok = c.env.Resolve(imp.Path)
		}
		if !ok {
			c.errorf(diag.ProjMissingModule, imp.Span, "unknown module %s", imp.Path)
			continue
		}
		c.imports[imp.Alias] = iface
		c.importDecl[imp.Alias] = imp
		c.out.Imports = append(c.out.Imports, imp.Path)
	}
	sort.Strings(c.out.Imports)
}

// collect регистрирует объявления до проверки тел, чтобы порядок строк
// в файле не имел значения.
func (c *checker) collect() {
	typeDecls := make(map[string]*Decl)
	for i := range c.file.Decls {
		d := &c.file.Decls[i]
		seen := c.localDecls
		if d.Kind == DeclType {
			seen = typeDecls
		}
		if prev, dup := seen[d.Name]; dup {
			c.rep.Report(diag.SemaDuplicateDecl, diag.SevError, d.NameSpan,
				fmt.Sprintf("%s %s is already declared", d.Kind, d.Name),
				[]diag.Note{{Span: prev.NameSpan, Msg: "previous declaration here"}})
			continue
		}
		seen[d.Name] = d
		if d.Kind == DeclType {
			c.out.Types[d.Name] = types.TypeDecl{Name: d.Name, Public: d.Public, Span: d.NameSpan}
		}
	}
}

func (c *checker) checkDecls() {
	for i := range c.file.Decls {
		d := &c.file.Decls[i]
		switch d.Kind {
		case DeclConst:
			if c.localDecls[d.Name] != d {
				continue
			}
			typ := c.resolveType(*d.Type)
			c.out.Values[d.Name] = types.Value{
				Name: d.Name, Kind: types.ValueConst, Public: d.Public, Type: typ, Span: d.NameSpan,
			}
		case DeclFn:
			if c.localDecls[d.Name] != d {
				continue
			}
			c.out.Values[d.Name] = c.checkFn(d)
		}
	}
}

func (c *checker) checkFn(d *Decl) types.Value {
	v := types.Value{
		Name: d.Name, Kind: types.ValueFn, Public: d.Public,
		Targets: append([]string(nil), d.Targets...), Span: d.NameSpan, Type: types.Unit(),
	}
	for _, prm := range d.Params {
		v.Params = append(v.Params, types.Param{Name: prm.Name, Type: c.resolveType(prm.Type)})
	}
	if d.Type != nil {
		v.Type = c.resolveType(*d.Type)
	}
	callerSupports := len(d.Targets) == 0 || contains(d.Targets, c.env.Target)
	for _, ref := range d.Body {
		callee, ok := c.resolveRef(d, ref)
		if !ok || callee.Kind != types.ValueFn {
			continue
		}
		if c.env.EnforceTarget && c.env.Target != "" && callerSupports && !callee.SupportsTarget(c.env.Target) {
			c.errorf(diag.SemaUnsupportedTarget, ref.Span, "%s is not supported on the %s target", ref, c.env.Target)
		}
	}
	return v
}

func (c *checker) resolveType(ref TypeRef) types.Type {
	if ref.Qualifier == "" {
		if t, ok := types.Builtin(ref.Name); ok {
			return t
		}
		if _, ok := c.out.Types[ref.Name]; ok {
			return types.Nominal(c.env.Module, ref.Name)
		}
		c.errorf(diag.SemaUnknownType, ref.Span, "unknown type %s", ref)
		return types.Type{}
	}
	iface, ok := c.imports[ref.Qualifier]
	if !ok {
		c.errorf(diag.SemaUnknownType, ref.Span, "unknown type %s: module %s is not imported", ref, ref.Qualifier)
		return types.Type{}
	}
	c.usedAlias[ref.Qualifier] = true
	if _, ok := iface.PublicType(ref.Name); ok {
		return types.Nominal(iface.Name, ref.Name)
	}
	if _, private := iface.Types[ref.Name]; private {
		c.errorf(diag.SemaPrivateReference, ref.Span, "type %s is private to module %s", ref.Name, iface.Name)
	} else {
		c.errorf(diag.SemaUnknownType, ref.Span, "module %s has no type %s", iface.Name, ref.Name)
	}
	return types.Type{}
}

// resolveRef returns the referenced value's declaration in interface form.
func (c *checker) resolveRef(from *Decl, ref Ref) (types.Value, bool) {
	if ref.Qualifier == "" {
		local, ok := c.localDecls[ref.Name]
		if !ok {
			c.errorf(diag.SemaUnknownReference, ref.Span, "unknown name %s", ref.Name)
			return types.Value{}, false
		}
		if local != from {
			c.usedLocal[ref.Name] = true
		}
		kind := types.ValueConst
		if local.Kind == DeclFn {
			kind = types.ValueFn
		}
		return types.Value{Name: local.Name, Kind: kind, Targets: local.Targets}, true
	}
	iface, ok := c.imports[ref.Qualifier]
	if !ok {
		c.errorf(diag.SemaUnknownReference, ref.Span, "unknown name %s: module %s is not imported", ref, ref.Qualifier)
		return types.Value{}, false
	}
	c.usedAlias[ref.Qualifier] = true
	if v, ok := iface.PublicValue(ref.Name); ok {
		return v, true
	}
	if _, private := iface.Values[ref.Name]; private {
		c.errorf(diag.SemaPrivateReference, ref.Span, "%s is private to module %s", ref.Name, iface.Name)
	} else {
		c.errorf(diag.SemaUnknownReference, ref.Span, "module %s has no value %s", iface.Name, ref.Name)
	}
	return types.Value{}, false
}

func (c *checker) reportUnused() {
	for alias, imp := range c.importDecl {
		if !c.usedAlias[alias] {
			diag.ReportWarning(c.rep, diag.SemaUnusedImport, imp.Span, fmt.Sprintf("imported module %s is never used", imp.Path))
		}
	}
	for name, d := range c.localDecls {
		if d.Kind == DeclFn && !d.Public && !c.usedLocal[name] {
			diag.ReportWarning(c.rep, diag.SemaUnusedFunction, d.NameSpan, fmt.Sprintf("private function %s is never used", name))
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
