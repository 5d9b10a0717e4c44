// Copyright © 2024 The ELPS authors

package token

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// EndOfInput is returned by Next and Peek once the scanner has consumed all
// of its input.  It is never a valid character.
const EndOfInput rune = -1

// StateFn is one state of a scanner grammar.  It returns the next state, or
// nil when the grammar instance is finished.
type StateFn func(*Scanner) StateFn

// Scanner facilitates construction of tokens from an immutable string.  A
// grammar is expressed as a chain of StateFn values driven by Run.
type Scanner struct {
	input string
	base  int // absolute offset of input[0]
	start int // start of the current item
	pos   int // index of the next rune to read
	depth int // bracket depth, for grammars that need one

	state StateFn
	items []*Token
}

// NewScanner initializes and returns a new Scanner over input.  Emitted
// tokens have positions relative to base.
func NewScanner(input string, base int, state StateFn) *Scanner {
	return &Scanner{
		input: input,
		base:  base,
		state: state,
	}
}

// Run drives state transitions until a state returns nil and then returns
// the emitted items.
func (s *Scanner) Run() []*Token {
	for s.state != nil {
		s.state = s.state(s)
	}
	return s.items
}

// Items returns the tokens emitted so far.
func (s *Scanner) Items() []*Token {
	return s.items
}

// Input returns the full source text.
func (s *Scanner) Input() string {
	return s.input
}

// Next consumes and returns the next rune, or EndOfInput.
func (s *Scanner) Next() rune {
	if s.pos >= len(s.input) {
		return EndOfInput
	}
	c, n := utf8.DecodeRuneInString(s.input[s.pos:])
	s.pos += n
	return c
}

// Peek returns the next rune without consuming it.
func (s *Scanner) Peek() rune {
	if s.pos >= len(s.input) {
		return EndOfInput
	}
	c, _ := utf8.DecodeRuneInString(s.input[s.pos:])
	return c
}

// PeekAt returns the rune n bytes beyond the cursor without consuming
// anything.
func (s *Scanner) PeekAt(n int) rune {
	if s.pos+n >= len(s.input) || s.pos+n < 0 {
		return EndOfInput
	}
	c, _ := utf8.DecodeRuneInString(s.input[s.pos+n:])
	return c
}

// Backup steps the cursor back over one rune.  It may be called
// repeatedly but never moves the cursor before the start of the input.
func (s *Scanner) Backup() {
	if s.pos <= 0 {
		return
	}
	_, n := utf8.DecodeLastRuneInString(s.input[:s.pos])
	s.pos -= n
}

// Forward advances the cursor n bytes without inspecting them.
func (s *Scanner) Forward(n int) {
	s.pos += n
	if s.pos > len(s.input) {
		s.pos = len(s.input)
	}
}

// Accept consumes the next rune if it is in charset.
func (s *Scanner) Accept(charset string) bool {
	c := s.Peek()
	if c != EndOfInput && strings.ContainsRune(charset, c) {
		s.Next()
		return true
	}
	return false
}

// AcceptRun consumes a run of runes from charset and returns its length.
func (s *Scanner) AcceptRun(charset string) int {
	var n int
	for s.Accept(charset) {
		n++
	}
	return n
}

// AcceptFunc consumes the next rune if fn reports true for it.
func (s *Scanner) AcceptFunc(fn func(rune) bool) bool {
	c := s.Peek()
	if c != EndOfInput && fn(c) {
		s.Next()
		return true
	}
	return false
}

// AcceptSeq consumes runes as long as fn reports true and returns the
// number consumed.
func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.AcceptFunc(fn) {
		n++
	}
	return n
}

// AcceptString consumes literal if the input continues with it.
func (s *Scanner) AcceptString(literal string) bool {
	if strings.HasPrefix(s.input[s.pos:], literal) {
		s.pos += len(literal)
		return true
	}
	return false
}

// Text returns the text scanned since the last call to Emit or Ignore.
func (s *Scanner) Text() string {
	return s.input[s.start:s.pos]
}

// Start returns the absolute offset of the current item.
func (s *Scanner) Start() int {
	return s.base + s.start
}

// Offset returns the absolute offset of the cursor.
func (s *Scanner) Offset() int {
	return s.base + s.pos
}

// Cursor returns the cursor as an index into the input.
func (s *Scanner) Cursor() int {
	return s.pos
}

// Depth returns the grammar's current nesting depth.
func (s *Scanner) Depth() int {
	return s.depth
}

// SetDepth replaces the grammar's current nesting depth.
func (s *Scanner) SetDepth(depth int) {
	s.depth = depth
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either Emit or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.pos
}

// Emit closes out the current item as [start, cursor) and returns it.
func (s *Scanner) Emit(typ Type) *Token {
	tok := &Token{
		Type: typ,
		Text: s.input[s.start:s.pos],
		Pos:  s.base + s.start,
	}
	s.items = append(s.items, tok)
	s.start = s.pos
	return tok
}

// Errorf closes out the current item as an ERROR token carrying the
// formatted message and ends the grammar by returning a nil state.
func (s *Scanner) Errorf(format string, v ...interface{}) StateFn {
	s.items = append(s.items, &Token{
		Type: ERROR,
		Text: fmt.Sprintf(format, v...),
		Pos:  s.base + s.start,
	})
	s.start = s.pos
	return nil
}

// SlurpQuote consumes runes through endQuote, honoring backslash escapes.
// The opening quote must already have been consumed.  SlurpQuote reports
// false if the input ends, or a raw newline appears while allowNewline is
// false, before the quote is closed.
func (s *Scanner) SlurpQuote(endQuote rune, allowNewline bool) bool {
	for {
		switch c := s.Next(); c {
		case '\\':
			c = s.Next()
			if c == EndOfInput || (c == '\n' && !allowNewline) {
				return false
			}
		case EndOfInput:
			return false
		case '\n':
			if !allowNewline {
				return false
			}
		case endQuote:
			return true
		}
	}
}
