package lsp

import (
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// offset converts a position, counted in UTF-16 code units, to a byte
// offset into text. Positions past the end of a line clamp to the line
// end.
func offset(text string, pos protocol.Position) int {
	start := 0
	for line := protocol.UInteger(0); line < pos.Line; line++ {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			return len(text)
		}
		start += i + 1
	}
	units := protocol.UInteger(0)
	i := start
	for i < len(text) && text[i] != '\n' && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[i:])
		units += utf16Len(r)
		i += size
	}
	return i
}

// position converts a 1-based line and byte column to a position.
func position(text string, line, col int) protocol.Position {
	line, col = max(line, 1), max(col, 1)
	start := 0
	for l := 1; l < line; l++ {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			break
		}
		start += i + 1
	}
	end := start + col - 1
	if end > len(text) {
		end = len(text)
	}
	if nl := strings.IndexByte(text[start:end], '\n'); nl >= 0 {
		end = start + nl
	}
	units := protocol.UInteger(0)
	for _, r := range text[start:end] {
		units += utf16Len(r)
	}
	return protocol.Position{Line: protocol.UInteger(line - 1), Character: units}
}

func utf16Len(r rune) protocol.UInteger {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
