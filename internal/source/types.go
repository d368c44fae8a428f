package source

// LineCol is a 1-based line and column. Columns count runes.
type LineCol struct {
	Line uint32
	Col  uint32
}
