package lsp

import "surgelsp/internal/source"

// applyChanges applies incremental edits in order. A change without a
// range replaces the whole text. Positions are in UTF-16 code units.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		idx := source.NewLineIndexString(text)
		start := int(offsetForPosition(idx, change.Range.Start))
		end := int(offsetForPosition(idx, change.Range.End))
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

func offsetForPosition(idx *source.LineIndex, pos position) uint32 {
	return idx.OffsetForUTF16(pos.Line, pos.Character)
}

func positionForOffset(idx *source.LineIndex, off uint32) position {
	line, character := idx.UTF16Position(off)
	return position{Line: line, Character: character}
}

func rangeForSpan(idx *source.LineIndex, span source.Span) lspRange {
	return lspRange{
		Start: positionForOffset(idx, span.Start),
		End:   positionForOffset(idx, span.End),
	}
}
