package types

import (
	"sort"
	"strings"

	"surgelsp/internal/source"
)

// ValueKind distinguishes constants from functions.
type ValueKind uint8

const (
	ValueConst ValueKind = iota + 1
	ValueFn
)

// Param is a function parameter.
type Param struct {
	Name string `msgpack:"name"`
	Type Type   `msgpack:"type"`
}

// Value is a constant or function declared at module level.
type Value struct {
	Name    string      `msgpack:"name"`
	Kind    ValueKind   `msgpack:"kind"`
	Public  bool        `msgpack:"public"`
	Params  []Param     `msgpack:"params,omitempty"`
	Type    Type        `msgpack:"type"` // тип константы или результат функции
	Targets []string    `msgpack:"targets,omitempty"`
	Span    source.Span `msgpack:"span"`
}

// Signature renders v as a declaration line, e.g.
// "pub fn greet(name: String) -> String".
func (v Value) Signature() string {
	var b strings.Builder
	if v.Public {
		b.WriteString("pub ")
	}
	switch v.Kind {
	case ValueConst:
		b.WriteString("const ")
		b.WriteString(v.Name)
		b.WriteString(": ")
		b.WriteString(v.Type.String())
	case ValueFn:
		b.WriteString("fn ")
		b.WriteString(v.Name)
		b.WriteByte('(')
		for i, p := range v.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
			b.WriteString(": ")
			b.WriteString(p.Type.String())
		}
		b.WriteByte(')')
		if v.Type.Kind != KindUnit {
			b.WriteString(" -> ")
			b.WriteString(v.Type.String())
		}
	}
	return b.String()
}

// SupportsTarget reports whether v may be used when compiling for target.
// Values without @target annotations support every target.
func (v Value) SupportsTarget(target string) bool {
	if len(v.Targets) == 0 {
		return true
	}
	for _, t := range v.Targets {
		if t == target {
			return true
		}
	}
	return false
}

// TypeDecl is a nominal type declared at module level.
type TypeDecl struct {
	Name   string      `msgpack:"name"`
	Public bool        `msgpack:"public"`
	Span   source.Span `msgpack:"span"`
}

func (d TypeDecl) Signature() string {
	if d.Public {
		return "pub type " + d.Name
	}
	return "type " + d.Name
}

// ModuleInterface is everything other modules, and the editor, can know
// about a compiled module without reading its source again.
type ModuleInterface struct {
	Name    string              `msgpack:"name"`
	Package string              `msgpack:"package"`
	Path    string              `msgpack:"path"`
	Imports []string            `msgpack:"imports,omitempty"`
	Values  map[string]Value    `msgpack:"values"`
	Types   map[string]TypeDecl `msgpack:"types"`
	Digest  string              `msgpack:"digest"`
}

// NewModuleInterface returns an empty interface for module name.
func NewModuleInterface(name, pkg, path string) *ModuleInterface {
	return &ModuleInterface{
		Name:    name,
		Package: pkg,
		Path:    path,
		Values:  make(map[string]Value),
		Types:   make(map[string]TypeDecl),
	}
}

// PublicValue returns the exported value called name.
func (m *ModuleInterface) PublicValue(name string) (Value, bool) {
	v, ok := m.Values[name]
	if !ok || !v.Public {
		return Value{}, false
	}
	return v, true
}

// PublicType returns the exported type called name.
func (m *ModuleInterface) PublicType(name string) (TypeDecl, bool) {
	d, ok := m.Types[name]
	if !ok || !d.Public {
		return TypeDecl{}, false
	}
	return d, true
}

// Lookup finds a value or type declared in the module, public or not, and
// returns its signature and declaration span.
func (m *ModuleInterface) Lookup(name string) (signature string, span source.Span, ok bool) {
	if v, found := m.Values[name]; found {
		return v.Signature(), v.Span, true
	}
	if d, found := m.Types[name]; found {
		return d.Signature(), d.Span, true
	}
	return "", source.Span{}, false
}

// ValueNames returns declared value names in sorted order.
func (m *ModuleInterface) ValueNames() []string {
	names := make([]string, 0, len(m.Values))
	for name := range m.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
