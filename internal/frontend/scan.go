package frontend

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"surgelsp/internal/source"
)

type tokKind uint8

const (
	tokEOL tokKind = iota
	tokIdent
	tokPunct
	tokInvalid
)

type token struct {
	Kind tokKind
	Text string
	Span source.Span
}

// scanLine разбивает одну строку на токены. base — смещение строки в файле.
func scanLine(line []byte, base uint32) []token {
	var toks []token
	pos := 0
	for pos < len(line) {
		r, size := utf8.DecodeRune(line[pos:])
		start := pos
		switch {
		case r == ' ' || r == '\t' || r == '\r':
			pos += size
			continue
		case r == '/' && pos+1 < len(line) && line[pos+1] == '/':
			// комментарий до конца строки
			pos = len(line)
			continue
		case isIdentStart(r):
			pos += size
			for pos < len(line) {
				r, size = utf8.DecodeRune(line[pos:])
				if !isIdentContinue(r) {
					break
				}
				pos += size
			}
			toks = append(toks, token{
				Kind: tokIdent,
				Text: norm.NFC.String(string(line[start:pos])),
				Span: span(base, start, pos),
			})
			continue
		case r == '-' && pos+1 < len(line) && line[pos+1] == '>':
			pos += 2
			toks = append(toks, token{Kind: tokPunct, Text: "->", Span: span(base, start, pos)})
			continue
		case r < utf8.RuneSelf && isPunct(byte(r)):
			pos++
			toks = append(toks, token{Kind: tokPunct, Text: string(line[start:pos]), Span: span(base, start, pos)})
			continue
		}
		pos += size
		toks = append(toks, token{Kind: tokInvalid, Text: string(line[start:pos]), Span: span(base, start, pos)})
	}
	end := base + toUint32(len(line))
	return append(toks, token{Kind: tokEOL, Span: source.Span{Start: end, End: end}})
}

func span(base uint32, start, end int) source.Span {
	return source.Span{Start: base + toUint32(start), End: base + toUint32(end)}
}

func isPunct(b byte) bool {
	switch b {
	case '(', ')', ',', ':', '@', '=', '.', '/':
		return true
	}
	return false
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
