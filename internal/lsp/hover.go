package lsp

import (
	"encoding/json"
	"fmt"
	"strings"

	"surgelsp/internal/frontend"
	"surgelsp/internal/source"
	"surgelsp/internal/types"
)

// symbol is what an identifier in a document refers to.
type symbol struct {
	module    *types.ModuleInterface
	name      string // пусто, если идентификатор — сам модуль
	signature string
	span      source.Span
}

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	c := s.currentCompiler()
	if c == nil {
		return s.sendResponse(msg.ID, nil)
	}
	path := uriToPath(params.TextDocument.URI)
	text, ok := s.documentText(path)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	result := buildHover(c, path, text, params.Position)
	if result == nil {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, result)
}

func buildHover(c *Compiler, path, text string, pos position) *hover {
	idx := source.NewLineIndexString(text)
	id, ok := frontend.IdentAt([]byte(text), offsetForPosition(idx, pos))
	if !ok {
		return nil
	}
	sym, ok := resolveIdent(c, path, id)
	if !ok {
		return nil
	}
	var b strings.Builder
	b.WriteString("```surge\n")
	b.WriteString(sym.signature)
	b.WriteString("\n```")
	if sym.name != "" {
		fmt.Fprintf(&b, "\n\nmodule `%s`", sym.module.Name)
	}
	if sym.module.Package != "" {
		fmt.Fprintf(&b, "\n\npackage `%s`", sym.module.Package)
	}
	r := rangeForSpan(idx, id.Span)
	return &hover{
		Contents: markupContent{Kind: "markdown", Value: b.String()},
		Range:    &r,
	}
}

// resolveIdent looks an identifier of the file at path up in the last
// successful compile. Qualified names resolve through the file's imports;
// a bare name is an import alias or a declaration of the file's own module.
func resolveIdent(c *Compiler, path string, id frontend.Ident) (symbol, bool) {
	mod, ok := c.ModuleForPath(path)
	if !ok || mod.Interface == nil {
		return symbol{}, false
	}
	self := mod.Interface

	if id.Qualifier != "" {
		iface, ok := importedModule(c, self, id.Qualifier)
		if !ok {
			return symbol{}, false
		}
		return lookupIn(iface, id.Name, true)
	}
	if iface, ok := importedModule(c, self, id.Name); ok {
		return symbol{module: iface, signature: "import " + iface.Name}, true
	}
	return lookupIn(self, id.Name, false)
}

func importedModule(c *Compiler, from *types.ModuleInterface, alias string) (*types.ModuleInterface, bool) {
	for _, imp := range from.Imports {
		if types.ModuleAlias(imp) == alias {
			return c.GetModuleInterface(imp)
		}
	}
	return nil, false
}

func lookupIn(iface *types.ModuleInterface, name string, publicOnly bool) (symbol, bool) {
	if publicOnly {
		if _, ok := iface.PublicValue(name); !ok {
			if _, ok := iface.PublicType(name); !ok {
				return symbol{}, false
			}
		}
	}
	sig, span, ok := iface.Lookup(name)
	if !ok {
		return symbol{}, false
	}
	return symbol{module: iface, name: name, signature: sig, span: span}, true
}
