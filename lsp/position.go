package lsp

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/ardnew/klisp/lang"
)

// lineIndex converts between byte offsets and LSP positions, whose
// characters count UTF-16 code units.
type lineIndex struct {
	text   string
	starts []int // byte offset of each line
}

func newLineIndex(text string) *lineIndex {
	starts := []int{0}

	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &lineIndex{text: text, starts: starts}
}

// offset returns the byte offset of pos, clamped to the text.
func (x *lineIndex) offset(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(x.starts) {
		return len(x.text)
	}

	i, end := x.starts[line], len(x.text)
	if line+1 < len(x.starts) {
		end = x.starts[line+1] - 1
	}

	for units := int(pos.Character); units > 0 && i < end; {
		r, n := utf8.DecodeRuneInString(x.text[i:end])
		units -= utf16.RuneLen(r)
		i += n
	}

	return i
}

// position returns the LSP position of a byte offset.
func (x *lineIndex) position(offset int) protocol.Position {
	offset = max(0, min(offset, len(x.text)))
	line := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > offset }) - 1

	units := 0
	for _, r := range x.text[x.starts[line]:offset] {
		units += utf16.RuneLen(r)
	}

	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(units)}
}

func (x *lineIndex) span(s lang.Span) protocol.Range {
	return protocol.Range{Start: x.position(s.Start.Offset), End: x.position(s.End.Offset)}
}
