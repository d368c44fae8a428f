package frontend

import "surgelsp/internal/source"

// File is a parsed source file.
type File struct {
	Path    string
	Imports []Import
	Decls   []Decl
}

// Import is `import a/b`; Alias is the last path segment.
type Import struct {
	Path  string
	Alias string
	Span  source.Span
}

type DeclKind uint8

const (
	DeclType DeclKind = iota + 1
	DeclConst
	DeclFn
)

func (k DeclKind) String() string {
	switch k {
	case DeclType:
		return "type"
	case DeclConst:
		return "const"
	case DeclFn:
		return "fn"
	}
	return "decl"
}

// Decl is one module-level declaration.
type Decl struct {
	Kind     DeclKind
	Name     string
	NameSpan source.Span
	Public   bool
	Targets  []string // из @target(...); пусто — все таргеты
	Params   []Param
	Type     *TypeRef // тип константы или результат функции; nil — Unit
	Body     []Ref
	Span     source.Span
}

// Param is `name: Type`.
type Param struct {
	Name string
	Span source.Span
	Type TypeRef
}

// TypeRef is `Name` or `alias.Name`.
type TypeRef struct {
	Qualifier string
	Name      string
	Span      source.Span
}

func (t TypeRef) String() string {
	if t.Qualifier == "" {
		return t.Name
	}
	return t.Qualifier + "." + t.Name
}

// Ref is a value reference in a function body: `name` or `alias.name`.
type Ref struct {
	Qualifier string
	Name      string
	Span      source.Span
}

func (r Ref) String() string {
	if r.Qualifier == "" {
		return r.Name
	}
	return r.Qualifier + "." + r.Name
}
