package frontend

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"

	"surgelsp/internal/diag"
	"surgelsp/internal/source"
)

func toUint32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("source offset overflow: %w", err))
	}
	return v
}

var knownTargets = map[string]struct{}{"vm": {}, "llvm": {}}

type parser struct {
	file *File
	rep  diag.Reporter

	toks []token
	pos  int

	// атрибуты, ожидающие объявления функции
	pendingTargets []string
	pendingSpan    source.Span
	hasPending     bool
}

// Parse parses src. Diagnostics carry Path but no Module; the caller
// attributes them. Parsing never stops at the first error: a bad line is
// reported and skipped.
func Parse(path string, src []byte) (*File, []diag.Diagnostic) {
	bag := diag.NewBag(0)
	p := &parser{
		file: &File{Path: path},
		rep:  diag.BagReporter{Bag: bag, Path: path},
	}
	base := 0
	for base <= len(src) {
		end := bytes.IndexByte(src[base:], '\n')
		if end < 0 {
			end = len(src) - base
		}
		p.parseLine(src[base:base+end], toUint32(base))
		base += end + 1
	}
	if p.hasPending {
		diag.ReportError(p.rep, diag.SynAttributeNotFound, p.pendingSpan, "attribute is not followed by a function")
	}
	return p.file, bag.Items()
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.Kind != tokEOL {
		p.pos++
	}
	return tok
}

func (p *parser) at(kind tokKind, text string) bool {
	tok := p.peek()
	return tok.Kind == kind && (text == "" || tok.Text == text)
}

func (p *parser) accept(text string) bool {
	if tok := p.peek(); (tok.Kind == tokPunct || tok.Kind == tokIdent) && tok.Text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(p.rep, code, sp, fmt.Sprintf(format, args...))
}

func (p *parser) parseLine(line []byte, base uint32) {
	p.toks = scanLine(line, base)
	p.pos = 0
	if p.at(tokEOL, "") {
		return
	}
	for _, tok := range p.toks {
		if tok.Kind == tokInvalid {
			p.errorf(diag.SynUnexpectedLine, tok.Span, "unexpected character %q", tok.Text)
			return
		}
	}
	lineSpan := p.peek().Span.Cover(p.toks[len(p.toks)-1].Span)

	for p.at(tokPunct, "@") {
		if !p.parseAttribute() {
			return
		}
	}
	if p.at(tokEOL, "") {
		return
	}
	if p.accept("import") {
		p.takePendingFor(lineSpan, "import")
		p.parseImport()
		return
	}
	public := p.accept("pub")
	switch {
	case p.accept("type"):
		p.takePendingFor(lineSpan, "type")
		p.parseTypeDecl(public, lineSpan)
	case p.accept("const"):
		p.takePendingFor(lineSpan, "const")
		p.parseConst(public, lineSpan)
	case p.accept("fn"):
		p.parseFn(public, lineSpan)
	default:
		p.takePendingFor(lineSpan, "")
		p.errorf(diag.SynUnexpectedLine, p.peek().Span, "expected import, type, const or fn declaration")
	}
}

// takePendingFor reports attributes that precede something other than fn.
func (p *parser) takePendingFor(sp source.Span, what string) {
	if !p.hasPending {
		return
	}
	p.hasPending = false
	p.pendingTargets = nil
	if what == "" {
		return
	}
	p.errorf(diag.SynAttributeNotFound, p.pendingSpan, "@target cannot be applied to %s", what)
}

// parseAttribute разбирает @target(a, b).
func (p *parser) parseAttribute() bool {
	at := p.next()
	name := p.next()
	if name.Kind != tokIdent || name.Text != "target" {
		p.errorf(diag.SynBadAttribute, at.Span.Cover(name.Span), "unknown attribute; only @target is supported")
		return false
	}
	if !p.accept("(") {
		p.errorf(diag.SynBadAttribute, name.Span, "expected '(' after @target")
		return false
	}
	var targets []string
	for {
		tok := p.next()
		if tok.Kind != tokIdent {
			p.errorf(diag.SynBadAttribute, tok.Span, "expected target name")
			return false
		}
		if _, ok := knownTargets[tok.Text]; !ok {
			p.errorf(diag.SynBadAttribute, tok.Span, "unknown target %q", tok.Text)
			return false
		}
		targets = append(targets, tok.Text)
		if p.accept(",") {
			continue
		}
		closeTok := p.peek()
		if !p.accept(")") {
			p.errorf(diag.SynUnclosedParen, closeTok.Span, "expected ')' to close @target")
			return false
		}
		p.pendingTargets = append(p.pendingTargets, targets...)
		if p.hasPending {
			p.pendingSpan = p.pendingSpan.Cover(at.Span.Cover(closeTok.Span))
		} else {
			p.pendingSpan = at.Span.Cover(closeTok.Span)
		}
		p.hasPending = true
		return true
	}
}

func (p *parser) expectEOL() bool {
	if tok := p.peek(); tok.Kind != tokEOL {
		p.errorf(diag.SynUnexpectedLine, tok.Span, "unexpected %q", tok.Text)
		return false
	}
	return true
}

func (p *parser) ident(what string) (token, bool) {
	tok := p.peek()
	if tok.Kind != tokIdent || isKeyword(tok.Text) {
		p.errorf(diag.SynExpectIdentifier, tok.Span, "expected %s", what)
		return tok, false
	}
	p.pos++
	return tok, true
}

func isKeyword(s string) bool {
	switch s {
	case "import", "pub", "type", "const", "fn":
		return true
	}
	return false
}

func (p *parser) parseImport() {
	first := p.peek()
	if first.Kind != tokIdent {
		p.errorf(diag.SynExpectModulePath, first.Span, "expected module path after import")
		return
	}
	path := ""
	last := first
	for {
		tok := p.next()
		if tok.Kind != tokIdent {
			p.errorf(diag.SynExpectModulePath, tok.Span, "expected module path segment")
			return
		}
		path += tok.Text
		last = tok
		if !p.accept("/") {
			break
		}
		path += "/"
	}
	if !p.expectEOL() {
		return
	}
	sp := first.Span.Cover(last.Span)
	imp := Import{Path: path, Alias: last.Text, Span: sp}
	for _, prev := range p.file.Imports {
		if prev.Alias == imp.Alias {
			p.rep.Report(diag.SynDuplicateImport, diag.SevError, sp,
				fmt.Sprintf("module %s imported more than once as %q", path, imp.Alias),
				[]diag.Note{{Span: prev.Span, Msg: "previous import here"}})
			return
		}
	}
	p.file.Imports = append(p.file.Imports, imp)
}

func (p *parser) parseTypeDecl(public bool, lineSpan source.Span) {
	name, ok := p.ident("type name")
	if !ok || !p.expectEOL() {
		return
	}
	p.file.Decls = append(p.file.Decls, Decl{
		Kind: DeclType, Name: name.Text, NameSpan: name.Span, Public: public, Span: lineSpan,
	})
}

func (p *parser) parseConst(public bool, lineSpan source.Span) {
	name, ok := p.ident("constant name")
	if !ok {
		return
	}
	if !p.accept(":") {
		p.errorf(diag.SynExpectType, p.peek().Span, "expected ':' and a type after constant name")
		return
	}
	typ, ok := p.parseType()
	if !ok || !p.expectEOL() {
		return
	}
	p.file.Decls = append(p.file.Decls, Decl{
		Kind: DeclConst, Name: name.Text, NameSpan: name.Span, Public: public, Type: &typ, Span: lineSpan,
	})
}

func (p *parser) parseFn(public bool, lineSpan source.Span) {
	targets := p.pendingTargets
	p.pendingTargets = nil
	p.hasPending = false

	name, ok := p.ident("function name")
	if !ok {
		return
	}
	open := p.peek()
	if !p.accept("(") {
		p.errorf(diag.SynUnexpectedLine, open.Span, "expected '(' after function name")
		return
	}
	var params []Param
	if !p.accept(")") {
		for {
			pname, ok := p.ident("parameter name")
			if !ok {
				return
			}
			if !p.accept(":") {
				p.errorf(diag.SynExpectType, p.peek().Span, "expected ':' after parameter %s", pname.Text)
				return
			}
			ptype, ok := p.parseType()
			if !ok {
				return
			}
			params = append(params, Param{Name: pname.Text, Span: pname.Span, Type: ptype})
			if p.accept(",") {
				continue
			}
			if !p.accept(")") {
				p.rep.Report(diag.SynUnclosedParen, diag.SevError, p.peek().Span, "expected ')' to close parameter list",
					[]diag.Note{{Span: open.Span, Msg: "opened here"}})
				return
			}
			break
		}
	}
	decl := Decl{
		Kind: DeclFn, Name: name.Text, NameSpan: name.Span, Public: public,
		Targets: targets, Params: params, Span: lineSpan,
	}
	if p.accept("->") {
		res, ok := p.parseType()
		if !ok {
			return
		}
		decl.Type = &res
	}
	if p.accept("=") {
		for !p.at(tokEOL, "") {
			ref, ok := p.parseRef()
			if !ok {
				return
			}
			decl.Body = append(decl.Body, ref)
		}
	}
	if !p.expectEOL() {
		return
	}
	p.file.Decls = append(p.file.Decls, decl)
}

func (p *parser) parseType() (TypeRef, bool) {
	first := p.peek()
	if first.Kind != tokIdent || isKeyword(first.Text) {
		p.errorf(diag.SynExpectType, first.Span, "expected type")
		return TypeRef{}, false
	}
	p.pos++
	if !p.accept(".") {
		return TypeRef{Name: first.Text, Span: first.Span}, true
	}
	second := p.peek()
	if second.Kind != tokIdent {
		p.errorf(diag.SynExpectType, second.Span, "expected type name after %s.", first.Text)
		return TypeRef{}, false
	}
	p.pos++
	return TypeRef{Qualifier: first.Text, Name: second.Text, Span: first.Span.Cover(second.Span)}, true
}

func (p *parser) parseRef() (Ref, bool) {
	first, ok := p.ident("reference")
	if !ok {
		return Ref{}, false
	}
	if !p.accept(".") {
		return Ref{Name: first.Text, Span: first.Span}, true
	}
	second, ok := p.ident("name after " + first.Text + ".")
	if !ok {
		return Ref{}, false
	}
	return Ref{Qualifier: first.Text, Name: second.Text, Span: first.Span.Cover(second.Span)}, true
}
