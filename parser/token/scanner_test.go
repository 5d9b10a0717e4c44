// Copyright © 2024 The ELPS authors

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerNextPeekBackup(t *testing.T) {
	s := NewScanner("aé", 0, nil)
	assert.Equal(t, 'a', s.Peek())
	assert.Equal(t, 'a', s.Next())
	assert.Equal(t, 'é', s.Next())
	assert.Equal(t, EndOfInput, s.Next())
	assert.Equal(t, EndOfInput, s.Peek())
	assert.Equal(t, 3, s.Cursor())

	s.Backup()
	assert.Equal(t, 1, s.Cursor())
	s.Backup()
	s.Backup()
	assert.Equal(t, 0, s.Cursor(), "backup never moves before the input")

	s.Forward(10)
	assert.Equal(t, 3, s.Cursor(), "forward is clamped to the input")
}

func TestScannerAccept(t *testing.T) {
	s := NewScanner("123abc  x", 0, nil)
	assert.False(t, s.Accept("abc"))
	assert.Equal(t, 3, s.AcceptRun("0123456789"))
	assert.True(t, s.AcceptString("abc"))
	assert.False(t, s.AcceptString("zz"))
	assert.Equal(t, 2, s.AcceptSeq(func(c rune) bool { return c == ' ' }))
	assert.True(t, s.AcceptFunc(func(c rune) bool { return c == 'x' }))
	assert.False(t, s.AcceptFunc(func(c rune) bool { return true }))
}

func TestScannerEmit(t *testing.T) {
	s := NewScanner("abc def", 10, nil)
	s.AcceptRun("abcdef")
	tok := s.Emit(BAREWORD)
	assert.Equal(t, "abc", tok.Text)
	assert.Equal(t, 10, tok.Pos)
	assert.Equal(t, 13, tok.End())

	s.Next()
	s.Ignore()
	assert.Equal(t, 14, s.Start())
	s.AcceptRun("abcdef")
	assert.Equal(t, "def", s.Text())
	s.Emit(BAREWORD)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 14, items[1].Pos)
}

func TestScannerRunAndErrorf(t *testing.T) {
	var words StateFn
	words = func(s *Scanner) StateFn {
		s.AcceptRun(" ")
		s.Ignore()
		switch c := s.Peek(); {
		case c == EndOfInput:
			return nil
		case c == '!':
			s.Next()
			return s.Errorf("bang at %d", s.Start())
		}
		s.AcceptSeq(func(c rune) bool { return c != ' ' && c != '!' })
		s.Emit(BAREWORD)
		return words
	}
	items := NewScanner("one two !three", 5, words).Run()
	require.Len(t, items, 3)
	assert.Equal(t, "one", items[0].Text)
	assert.Equal(t, "two", items[1].Text)
	assert.Equal(t, ERROR, items[2].Type)
	assert.Equal(t, "bang at 13", items[2].Text)
	assert.Equal(t, 13, items[2].Pos)
}

func TestScannerDepth(t *testing.T) {
	s := NewScanner("", 0, nil)
	assert.Equal(t, 0, s.Depth())
	s.SetDepth(2)
	assert.Equal(t, 2, s.Depth())
}

func TestScannerSlurpQuote(t *testing.T) {
	s := NewScanner(`a\"b" rest`, 0, nil)
	assert.True(t, s.SlurpQuote('"', false))
	assert.Equal(t, `a\"b"`, s.Text())

	s = NewScanner("a\nb'", 0, nil)
	assert.False(t, s.SlurpQuote('\'', false))

	s = NewScanner("a\nb`", 0, nil)
	assert.True(t, s.SlurpQuote('`', true))

	s = NewScanner(`abc\`, 0, nil)
	assert.False(t, s.SlurpQuote('"', true))
}
