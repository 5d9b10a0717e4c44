// Copyright © 2018 The ELPS authors

package token

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	used := make(map[string]bool)
	for tok := Type(0); tok < numTokenTypes; tok++ {
		str := tok.String()
		t.Log(str)
		if str == "" {
			t.Errorf("token type %x has empty string value", tok)
			continue
		}
		if used[str] {
			t.Errorf("token type string used twice: %v", tok)
		}
		used[str] = true
	}
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "a.tw", (&Location{File: "a.tw", Pos: -1}).String())
	assert.Equal(t, "a.tw[4]", (&Location{File: "a.tw", Pos: 4}).String())
	assert.Equal(t, "a.tw:2", (&Location{File: "a.tw", Pos: 4, Line: 2}).String())
	assert.Equal(t, "a.tw:2:3", (&Location{File: "a.tw", Pos: 4, Line: 2, Col: 3}).String())
}

func TestLocationErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := &LocationError{Err: base, Source: &Location{File: "x", Pos: 1, Line: 1, Col: 2}}
	assert.Equal(t, "x:1:2: boom", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestLineIndex(t *testing.T) {
	text := "ab\ncd😀e\n"
	idx := NewLineIndex(text)
	assert.Equal(t, 3, idx.Lines())

	loc := idx.Location("f", 4)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 2, loc.Col)

	line, char := idx.Position(0)
	assert.Equal(t, 0, line)
	assert.Equal(t, 0, char)

	// The emoji is four bytes and two UTF-16 code units.
	line, char = idx.Position(9)
	assert.Equal(t, 1, line)
	assert.Equal(t, 4, char)
	assert.Equal(t, 9, idx.Offset(1, 4))

	line, char = idx.Position(100)
	assert.Equal(t, 2, line)
	assert.Equal(t, 0, char)
	assert.Equal(t, len(text), idx.Offset(5, 0))
	assert.Equal(t, 2, idx.Offset(0, 99), "character is clamped to the line")
}
