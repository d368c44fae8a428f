package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Синтаксис
	SynInfo              Code = 2000
	SynUnexpectedLine    Code = 2001
	SynExpectIdentifier  Code = 2002
	SynExpectType        Code = 2003
	SynUnclosedParen     Code = 2004
	SynBadAttribute      Code = 2005
	SynExpectModulePath  Code = 2006
	SynDuplicateImport   Code = 2007
	SynAttributeNotFound Code = 2008

	// Семантика
	SemaInfo              Code = 3000
	SemaDuplicateDecl     Code = 3001
	SemaUnknownType       Code = 3002
	SemaUnknownReference  Code = 3003
	SemaPrivateReference  Code = 3004
	SemaUnsupportedTarget Code = 3005
	SemaUnusedImport      Code = 3101
	SemaUnusedFunction    Code = 3102

	// Ввод-вывод
	IOReadFailed Code = 4001

	// Проект
	ProjInfo              Code = 5000
	ProjDuplicateModule   Code = 5001
	ProjMissingModule     Code = 5002
	ProjSelfImport        Code = 5003
	ProjImportCycle       Code = 5004
	ProjInvalidModulePath Code = 5005
	ProjDependencyFailed  Code = 5007
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	SynInfo:               "Syntax information",
	SynUnexpectedLine:     "Unexpected line",
	SynExpectIdentifier:   "Expected identifier",
	SynExpectType:         "Expected type",
	SynUnclosedParen:      "Unclosed parenthesis",
	SynBadAttribute:       "Malformed attribute",
	SynExpectModulePath:   "Expected module path",
	SynDuplicateImport:    "Duplicate import",
	SynAttributeNotFound:  "Attribute without declaration",
	SemaInfo:              "Semantic information",
	SemaDuplicateDecl:     "Duplicate declaration",
	SemaUnknownType:       "Unknown type",
	SemaUnknownReference:  "Unknown reference",
	SemaPrivateReference:  "Reference to private declaration",
	SemaUnsupportedTarget: "Function not supported on target",
	SemaUnusedImport:      "Unused import",
	SemaUnusedFunction:    "Unused private function",
	IOReadFailed:          "Failed to read source file",
	ProjInfo:              "Project information",
	ProjDuplicateModule:   "Duplicate module definition",
	ProjMissingModule:     "Missing module",
	ProjSelfImport:        "Module imports itself",
	ProjImportCycle:       "Import cycle detected",
	ProjInvalidModulePath: "Invalid module path",
	ProjDependencyFailed:  "Dependency module has errors",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
