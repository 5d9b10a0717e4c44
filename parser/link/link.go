// Copyright © 2024 The ELPS authors

// Package link parses SugarCube square bracketed markup: links such as
// [[Text|Target][$x to 1]] and images such as [<img[Title|pic.png][Target]].
package link

import (
	"regexp"

	"github.com/sgranade/twine-twee-language-sub001/parser/token"
)

// Delim identifies the separator between a link's text and its target.
type Delim int

const (
	NoDelim  Delim = iota
	DelimLTR       // "|" or "->": text comes first
	DelimRTL       // "<-": target comes first
)

// Component is one piece of parsed markup together with its offset.
type Component struct {
	Text string
	At   int
}

// End returns the offset just past the component.
func (c *Component) End() int {
	return c.At + len(c.Text)
}

// Markup is the result of parsing one bracketed construct.  When Err is
// non-empty every content field is unset.  End is always set, so that
// callers can continue scanning after the construct.
type Markup struct {
	IsImage bool
	IsLink  bool
	Align   string // "left" or "right" for aligned images
	Text    *Component
	Link    *Component // passage or URL the markup navigates to
	Source  *Component // image source
	Setter  *Component
	Delim   Delim

	// ForceInternal is set when a leading '~' marked the link (or image
	// source) as internal.  The '~' is not part of the component.
	ForceInternal bool

	End int
	Err string
	// ErrAt is the offset of the item that caused Err.
	ErrAt int
}

// Parse parses the markup construct beginning at text[start].  Offsets in
// the result are indexes into text.
func Parse(text string, start int) *Markup {
	l := &lexer{}
	s := token.NewScanner(text[start:], start, l.lexLeftMeta)
	items := s.Run()
	m := &Markup{End: start + s.Cursor()}
	for _, item := range items {
		switch item.Type {
		case token.ERROR:
			return &Markup{End: m.End, Err: item.Text, ErrAt: item.Pos}
		case token.IMAGE_META:
			m.IsImage = true
			switch item.Text[1] {
			case '<':
				m.Align = "left"
			case '>':
				m.Align = "right"
			}
		case token.LINK_LEFT_META:
			m.IsLink = true
		case token.LINK_DELIM_LTR:
			m.Delim = DelimLTR
		case token.LINK_DELIM_RTL:
			m.Delim = DelimRTL
		case token.LINK_TEXT:
			m.Text = &Component{Text: item.Text, At: item.Pos}
		case token.LINK_TARGET:
			m.IsLink = true
			m.Link = m.internal(item)
		case token.LINK_SOURCE:
			m.Source = m.internal(item)
		case token.LINK_SETTER:
			m.Setter = &Component{Text: item.Text, At: item.Pos}
		}
	}
	return m
}

func (m *Markup) internal(item *token.Token) *Component {
	if len(item.Text) > 0 && item.Text[0] == '~' {
		m.ForceInternal = true
		return &Component{Text: item.Text[1:], At: item.Pos + 1}
	}
	return &Component{Text: item.Text, At: item.Pos}
}

var externalPattern = regexp.MustCompile(`^(?:[A-Za-z][A-Za-z0-9+.\-]*://|//|(?i:mailto|tel|data|javascript):)`)

// IsExternal reports whether target looks like a URL rather than the name
// of a passage.
func IsExternal(target string) bool {
	return externalPattern.MatchString(target)
}

type lexer struct {
	kind  string // "link" or "image"
	what  token.Type
	delim Delim
}

func (l *lexer) lexLeftMeta(s *token.Scanner) token.StateFn {
	if !s.Accept("[") {
		return s.Errorf("malformed square-bracketed markup")
	}
	if s.Accept("[") {
		l.kind = "link"
		l.what = token.LINK_TARGET
		s.Emit(token.LINK_LEFT_META)
	} else {
		l.kind = "image"
		l.what = token.LINK_SOURCE
		s.Accept("<>")
		if !s.Accept("Ii") || !s.Accept("Mm") || !s.Accept("Gg") || !s.Accept("[") {
			return s.Errorf("malformed square-bracketed markup")
		}
		s.Emit(token.IMAGE_META)
	}
	s.SetDepth(2)
	return l.lexCoreComponents
}

// closeComponent handles a ']' which has brought the depth back to one.
// The component text ends before that bracket.
func closeComponent(s *token.Scanner, typ token.Type) (inner bool, ok bool) {
	switch s.Peek() {
	case '[':
		inner = true
	case ']':
	default:
		return false, false
	}
	s.Backup()
	s.Emit(typ)
	s.Forward(2)
	if inner {
		s.SetDepth(s.Depth() + 1)
		s.Emit(token.LINK_INNER_META)
	} else {
		s.SetDepth(s.Depth() - 1)
		s.Emit(token.LINK_RIGHT_META)
	}
	return inner, true
}

func (l *lexer) lexCoreComponents(s *token.Scanner) token.StateFn {
	for {
		switch s.Next() {
		case token.EndOfInput, '\n':
			return s.Errorf("unterminated %s markup", l.kind)
		case '"':
			if !s.SlurpQuote('"', false) {
				return s.Errorf("unterminated double quoted string in %s markup %s component", l.kind, l.component())
			}
		case '|':
			if l.delim == NoDelim {
				l.delim = DelimLTR
				s.Backup()
				s.Emit(token.LINK_TEXT)
				s.Forward(1)
				s.Emit(token.LINK_DELIM_LTR)
			}
		case '-':
			if l.delim == NoDelim && s.Peek() == '>' {
				l.delim = DelimLTR
				s.Backup()
				s.Emit(token.LINK_TEXT)
				s.Forward(2)
				s.Emit(token.LINK_DELIM_LTR)
			}
		case '<':
			if l.delim == NoDelim && s.Peek() == '-' {
				l.delim = DelimRTL
				s.Backup()
				s.Emit(l.what)
				s.Forward(2)
				s.Emit(token.LINK_DELIM_RTL)
			}
		case '[':
			s.SetDepth(s.Depth() + 1)
		case ']':
			s.SetDepth(s.Depth() - 1)
			if s.Depth() != 1 {
				continue
			}
			typ := l.what
			if l.delim == DelimRTL {
				typ = token.LINK_TEXT
			}
			inner, ok := closeComponent(s, typ)
			switch {
			case !ok:
				return s.Errorf("malformed %s markup", l.kind)
			case !inner:
				return nil
			case l.kind == "link":
				return l.lexSetter
			default:
				return l.lexImageLink
			}
		}
	}
}

func (l *lexer) component() string {
	if l.what == token.LINK_SOURCE {
		return "source"
	}
	return "link"
}

func (l *lexer) lexImageLink(s *token.Scanner) token.StateFn {
	for {
		switch s.Next() {
		case token.EndOfInput, '\n':
			return s.Errorf("unterminated %s markup", l.kind)
		case '"':
			if !s.SlurpQuote('"', false) {
				return s.Errorf("unterminated double quoted string in %s markup link component", l.kind)
			}
		case '[':
			s.SetDepth(s.Depth() + 1)
		case ']':
			s.SetDepth(s.Depth() - 1)
			if s.Depth() != 1 {
				continue
			}
			inner, ok := closeComponent(s, token.LINK_TARGET)
			switch {
			case !ok:
				return s.Errorf("malformed %s markup", l.kind)
			case inner:
				return l.lexSetter
			default:
				return nil
			}
		}
	}
}

func (l *lexer) lexSetter(s *token.Scanner) token.StateFn {
	for {
		switch s.Next() {
		case token.EndOfInput, '\n':
			return s.Errorf("unterminated %s markup", l.kind)
		case '"':
			if !s.SlurpQuote('"', false) {
				return s.Errorf("unterminated double quoted string in %s markup setter component", l.kind)
			}
		case '[':
			s.SetDepth(s.Depth() + 1)
		case ']':
			s.SetDepth(s.Depth() - 1)
			if s.Depth() != 1 {
				continue
			}
			inner, ok := closeComponent(s, token.LINK_SETTER)
			if !ok || inner {
				return s.Errorf("malformed %s markup", l.kind)
			}
			return nil
		}
	}
}
