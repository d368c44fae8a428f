package project

import (
	"fmt"
	"strings"
)

// Mode is a named compilation profile. Each mode owns its own build
// directory so that caches of different profiles never mix.
type Mode uint8

const (
	ModeDev Mode = iota
	ModeProd
	// ModeLSP is the profile used by the language server.
	ModeLSP
)

func (m Mode) String() string {
	switch m {
	case ModeDev:
		return "dev"
	case ModeProd:
		return "prod"
	case ModeLSP:
		return "lsp"
	}
	return "unknown"
}

// Target selects the compilation backend.
type Target uint8

const (
	// TargetVM selects the interpreter backend.
	TargetVM Target = iota
	// TargetLLVM selects the LLVM backend.
	TargetLLVM
)

func (t Target) String() string {
	switch t {
	case TargetVM:
		return "vm"
	case TargetLLVM:
		return "llvm"
	}
	return "unknown"
}

// ParseTarget converts a target name into a Target.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vm":
		return TargetVM, nil
	case "llvm":
		return TargetLLVM, nil
	}
	return TargetVM, fmt.Errorf("unknown target %q (want vm or llvm)", s)
}

// UnmarshalText lets targets be decoded from surge.toml.
func (t *Target) UnmarshalText(text []byte) error {
	parsed, err := ParseTarget(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText is the inverse of UnmarshalText.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
