package frontend

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"surgelsp/internal/source"
)

// Ident is the identifier under a cursor, possibly qualified.
type Ident struct {
	Qualifier string
	Name      string
	Span      source.Span // только имя, без квалификатора
}

// IdentAt returns the identifier touching off. For `util.join` with the
// cursor on either part the result is {util, join}; on the qualifier alone
// the result names the module alias with an empty Qualifier.
func IdentAt(src []byte, off uint32) (Ident, bool) {
	if int(off) > len(src) {
		return Ident{}, false
	}
	start, end := wordBounds(src, int(off))
	if start == end {
		return Ident{}, false
	}
	id := Ident{
		Name: norm.NFC.String(string(src[start:end])),
		Span: source.Span{Start: toUint32(start), End: toUint32(end)},
	}
	// курсор на цифрах перед именем
	if !id.Span.Contains(off) {
		return Ident{}, false
	}
	if start > 0 && src[start-1] == '.' {
		qs, qe := wordBounds(src, start-1)
		if qs < qe {
			id.Qualifier = norm.NFC.String(string(src[qs:qe]))
		}
	}
	return id, true
}

// wordBounds находит идентификатор, содержащий off или заканчивающийся на off.
func wordBounds(src []byte, off int) (int, int) {
	start := off
	for start > 0 {
		r, size := utf8.DecodeLastRune(src[:start])
		if !isIdentContinue(r) {
			break
		}
		start -= size
	}
	end := off
	for end < len(src) {
		r, size := utf8.DecodeRune(src[end:])
		if !isIdentContinue(r) {
			break
		}
		end += size
	}
	for start < end {
		r, size := utf8.DecodeRune(src[start:end])
		if isIdentStart(r) {
			break
		}
		start += size
	}
	return start, end
}
