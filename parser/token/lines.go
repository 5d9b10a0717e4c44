// Copyright © 2024 The ELPS authors

package token

import (
	"sort"
	"unicode/utf8"
)

// LineIndex converts byte offsets in a document into line and column
// positions.
type LineIndex struct {
	text   string
	starts []int // offset of the first byte of each line
}

// NewLineIndex indexes the line starts of text.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// Lines returns the number of lines in the document.
func (idx *LineIndex) Lines() int {
	return len(idx.starts)
}

func (idx *LineIndex) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(idx.text) {
		return len(idx.text)
	}
	return offset
}

func (idx *LineIndex) line(offset int) int {
	return sort.Search(len(idx.starts), func(i int) bool {
		return idx.starts[i] > offset
	}) - 1
}

// Location returns a 1-based line and column Location for offset.  Columns
// count runes.
func (idx *LineIndex) Location(file string, offset int) *Location {
	offset = idx.clamp(offset)
	line := idx.line(offset)
	col := utf8.RuneCountInString(idx.text[idx.starts[line]:offset])
	return &Location{
		File: file,
		Pos:  offset,
		Line: line + 1,
		Col:  col + 1,
	}
}

// Position returns the 0-based line and UTF-16 code unit character for
// offset, as used by the language server protocol.
func (idx *LineIndex) Position(offset int) (line, character int) {
	offset = idx.clamp(offset)
	line = idx.line(offset)
	for _, c := range idx.text[idx.starts[line]:offset] {
		if c >= 0x10000 {
			character += 2
		} else {
			character++
		}
	}
	return line, character
}

// Offset converts a 0-based line and UTF-16 character back into a byte
// offset.  Out of range positions are clamped to the document.
func (idx *LineIndex) Offset(line, character int) int {
	if line < 0 {
		return 0
	}
	if line >= len(idx.starts) {
		return len(idx.text)
	}
	end := len(idx.text)
	if line+1 < len(idx.starts) {
		end = idx.starts[line+1]
	}
	offset := idx.starts[line]
	units := 0
	for offset < end && units < character {
		c, n := utf8.DecodeRuneInString(idx.text[offset:])
		if c == '\n' {
			break
		}
		if c >= 0x10000 {
			units += 2
		} else {
			units++
		}
		offset += n
	}
	return offset
}
