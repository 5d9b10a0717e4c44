// Copyright © 2018 The ELPS authors

// Package lexer tokenizes plain JavaScript-style expressions.  It knows
// nothing of SugarCube sigils or word operators; callers are expected to
// rewrite those before calling Tokenize.
//
// Lexing is lenient.  Malformed input ends the token stream early but the
// tokens found before the problem are still classified.
package lexer

import (
	"unicode"

	"github.com/sgranade/twine-twee-language-sub001/parser/token"
)

// punctuators are ordered so that longer operators are tried first.
var punctuators = []string{
	">>>=", "...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<", ">>",
}

// regexpKeywords may be directly followed by a regular expression literal.
var regexpKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true,
}

// Lex splits text into raw tokens whose positions are offset by offset.
// A malformed literal produces a trailing ERROR token.
func Lex(text string, offset int) []*token.Token {
	l := &lexer{}
	return token.NewScanner(text, offset, l.lexCode).Run()
}

type lexer struct {
	prev   *token.Token // last token which was not a comment
	braces []bool       // open braces; true for a template substitution
}

func (l *lexer) emit(s *token.Scanner, typ token.Type) {
	tok := s.Emit(typ)
	if typ != token.COMMENT {
		l.prev = tok
	}
}

func (l *lexer) regexpAllowed() bool {
	switch {
	case l.prev == nil:
		return true
	case l.prev.Type == token.PUNCT:
		switch l.prev.Text {
		case ")", "]", "}", "++", "--":
			return false
		}
		return true
	case l.prev.Type == token.IDENT:
		return regexpKeywords[l.prev.Text]
	}
	return false
}

func (l *lexer) lexCode(s *token.Scanner) token.StateFn {
	s.AcceptSeq(unicode.IsSpace)
	s.Ignore()
	c := s.Next()
	switch {
	case c == token.EndOfInput:
		return nil
	case isIdentStart(c):
		s.AcceptSeq(isIdentPart)
		l.emit(s, token.IDENT)
		return l.lexCode
	case isDigit(c), c == '.' && isDigit(s.Peek()):
		s.Backup()
		return l.lexNumber
	case c == '"' || c == '\'':
		if !s.SlurpQuote(c, false) {
			return s.Errorf("unterminated string literal")
		}
		l.emit(s, token.STRING)
		return l.lexCode
	case c == '`':
		return l.lexTemplate
	case c == '/' && s.Peek() == '/':
		s.AcceptSeq(func(c rune) bool { return c != '\n' })
		l.emit(s, token.COMMENT)
		return l.lexCode
	case c == '/' && s.Peek() == '*':
		s.Next()
		for !s.AcceptString("*/") {
			if s.Next() == token.EndOfInput {
				return s.Errorf("unterminated comment")
			}
		}
		l.emit(s, token.COMMENT)
		return l.lexCode
	case c == '/' && l.regexpAllowed():
		if n := regexpLength(s.Input()[s.Cursor():]); n > 0 {
			s.Forward(n)
			l.emit(s, token.REGEXP)
			return l.lexCode
		}
	case c == '{':
		l.braces = append(l.braces, false)
	case c == '}':
		if n := len(l.braces); n > 0 {
			template := l.braces[n-1]
			l.braces = l.braces[:n-1]
			if template {
				l.emit(s, token.PUNCT)
				return l.lexTemplate
			}
		}
	}
	s.Backup()
	for _, p := range punctuators {
		if s.AcceptString(p) {
			l.emit(s, token.PUNCT)
			return l.lexCode
		}
	}
	s.Next()
	l.emit(s, token.PUNCT)
	return l.lexCode
}

// regexpLength returns the length of the regular expression literal body,
// closing slash and flags at the start of rest, or zero if rest does not
// hold a complete literal.  The opening slash has already been consumed.
func regexpLength(rest string) int {
	var inClass bool
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '\\':
			i++
		case '\n':
			return 0
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if inClass {
				continue
			}
			j := i + 1
			for j < len(rest) && isIdentPart(rune(rest[j])) {
				j++
			}
			return j
		}
	}
	return 0
}

func (l *lexer) lexTemplate(s *token.Scanner) token.StateFn {
	for {
		switch s.Next() {
		case token.EndOfInput:
			return s.Errorf("unterminated template literal")
		case '\\':
			s.Next()
		case '`':
			l.emit(s, token.TEMPLATE)
			return l.lexCode
		case '$':
			if s.Accept("{") {
				l.emit(s, token.TEMPLATE)
				l.braces = append(l.braces, true)
				return l.lexCode
			}
		}
	}
}

func (l *lexer) lexNumber(s *token.Scanner) token.StateFn {
	digits := "0123456789_"
	decimal := true
	if s.Accept("0") && s.Accept("xXoObB") {
		digits = "0123456789abcdefABCDEF_"
		decimal = false
	}
	s.AcceptRun(digits)
	if decimal {
		if s.Accept(".") {
			s.AcceptRun(digits)
		}
		if s.Accept("eE") {
			s.Accept("+-")
			if s.AcceptRun(digits) == 0 {
				return s.Errorf("invalid number literal %q", s.Text())
			}
		}
	}
	s.Accept("n")
	if isIdentStart(s.Peek()) {
		return s.Errorf("invalid number literal %q", s.Text())
	}
	l.emit(s, token.NUMBER)
	return l.lexCode
}

func isIdentStart(c rune) bool {
	return c == '$' || c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || unicode.IsDigit(c)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}
