package types

import "fmt"

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindString
	// KindNominal is a type declared with `type Name` in some module.
	KindNominal
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindNominal:
		return "nominal"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a resolved type reference. Nominal types carry the module that
// declares them.
type Type struct {
	Kind   Kind   `msgpack:"kind"`
	Module string `msgpack:"module,omitempty"`
	Name   string `msgpack:"name,omitempty"`
}

var builtins = map[string]Kind{
	"Unit":   KindUnit,
	"Bool":   KindBool,
	"Int":    KindInt,
	"Float":  KindFloat,
	"String": KindString,
}

// Builtin resolves a builtin type name such as "Int".
func Builtin(name string) (Type, bool) {
	k, ok := builtins[name]
	if !ok {
		return Type{}, false
	}
	return Type{Kind: k, Name: name}, true
}

// Nominal returns the nominal type name declared in module.
func Nominal(module, name string) Type {
	return Type{Kind: KindNominal, Module: module, Name: name}
}

// Unit is the result type of functions without `-> T`.
func Unit() Type {
	return Type{Kind: KindUnit, Name: "Unit"}
}

// String renders the type the way it is written in source. Nominal types
// are qualified with the last segment of their module path.
func (t Type) String() string {
	if t.Kind != KindNominal {
		if t.Name == "" {
			return t.Kind.String()
		}
		return t.Name
	}
	return ModuleAlias(t.Module) + "." + t.Name
}

// ModuleAlias is the name a module is referred to by after `import a/b`: b.
func ModuleAlias(module string) string {
	for i := len(module) - 1; i >= 0; i-- {
		if module[i] == '/' {
			return module[i+1:]
		}
	}
	return module
}
