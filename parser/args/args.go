// Copyright © 2024 The ELPS authors

// Package args splits the argument text of a SugarCube macro into typed
// items: barewords, quoted strings, backquoted expressions, link and image
// markup, and array or object literals.
//
// An unterminated item produces a single ERROR token which ends the lexer.
// Items lexed before the error are still returned.
package args

import (
	"unicode"

	"github.com/sgranade/twine-twee-language-sub001/parser/token"
)

// Lex splits text into argument items.  Item positions are offset by
// offset so that they are absolute in the enclosing document.
func Lex(text string, offset int) []*token.Token {
	return token.NewScanner(text, offset, lexSpace).Run()
}

func isSpace(c rune) bool {
	return c != token.EndOfInput && unicode.IsSpace(c)
}

func lexSpace(s *token.Scanner) token.StateFn {
	s.AcceptSeq(isSpace)
	s.Ignore()
	switch s.Next() {
	case token.EndOfInput:
		return nil
	case '`':
		return lexExpression
	case '"':
		return lexDoubleQuote
	case '\'':
		return lexSingleQuote
	case '[':
		return lexSquareBracket
	case '{':
		return lexObjectLiteral
	default:
		return lexBareword
	}
}

func lexExpression(s *token.Scanner) token.StateFn {
	if !s.SlurpQuote('`', true) {
		return s.Errorf("unterminated backquote expression")
	}
	s.Emit(token.EXPRESSION)
	return lexSpace
}

func lexDoubleQuote(s *token.Scanner) token.StateFn {
	if !s.SlurpQuote('"', false) {
		return s.Errorf("unterminated double quoted string")
	}
	s.Emit(token.STRING)
	return lexSpace
}

func lexSingleQuote(s *token.Scanner) token.StateFn {
	if !s.SlurpQuote('\'', false) {
		return s.Errorf("unterminated single quoted string")
	}
	s.Emit(token.STRING)
	return lexSpace
}

func lexBareword(s *token.Scanner) token.StateFn {
	s.AcceptSeq(func(c rune) bool { return !unicode.IsSpace(c) })
	s.Emit(token.BAREWORD)
	return lexSpace
}

// isImagePrefix reports whether the text following an opening '[' begins
// image markup: an optional alignment marker, "img" in any case, and '['.
func isImagePrefix(s *token.Scanner) bool {
	i := 0
	if c := s.PeekAt(0); c == '<' || c == '>' {
		i++
	}
	for _, want := range "img" {
		if unicode.ToLower(s.PeekAt(i)) != want {
			return false
		}
		i++
	}
	return s.PeekAt(i) == '['
}

func lexSquareBracket(s *token.Scanner) token.StateFn {
	if s.Peek() != '[' && !isImagePrefix(s) {
		return lexArrayLiteral
	}
	what := "link"
	if s.Peek() != '[' {
		what = "image"
		s.Accept("<>")
		if !s.Accept("Ii") || !s.Accept("Mm") || !s.Accept("Gg") {
			return s.Errorf("malformed %s markup", what)
		}
	}
	if !s.Accept("[") {
		return s.Errorf("malformed %s markup", what)
	}
	s.SetDepth(2) // both opening brackets
	for {
		switch s.Next() {
		case '\\':
			if c := s.Next(); c != token.EndOfInput && c != '\n' {
				break
			}
			return s.Errorf("unterminated %s markup", what)
		case token.EndOfInput, '\n':
			return s.Errorf("unterminated %s markup", what)
		case '[':
			s.SetDepth(s.Depth() + 1)
		case ']':
			s.SetDepth(s.Depth() - 1)
			if s.Depth() == 0 {
				s.Emit(token.SQUARE_BRACKET)
				return lexSpace
			}
		}
	}
}

func lexArrayLiteral(s *token.Scanner) token.StateFn {
	return lexBalanced(s, '[', ']', "array literal")
}

func lexObjectLiteral(s *token.Scanner) token.StateFn {
	return lexBalanced(s, '{', '}', "object literal")
}

// lexBalanced consumes a bracketed literal whose opening rune has already
// been read.  Quoted strings are skipped so that brackets inside them do
// not affect the depth.
func lexBalanced(s *token.Scanner, open, close rune, what string) token.StateFn {
	s.SetDepth(1)
	for {
		switch c := s.Next(); c {
		case token.EndOfInput:
			return s.Errorf("unterminated %s", what)
		case '"', '\'', '`':
			if !s.SlurpQuote(c, c == '`') {
				return s.Errorf("unterminated %s", what)
			}
		case open:
			s.SetDepth(s.Depth() + 1)
		case close:
			s.SetDepth(s.Depth() - 1)
			if s.Depth() == 0 {
				s.Emit(token.CONTAINER)
				return lexSpace
			}
		}
	}
}
