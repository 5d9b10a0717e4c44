// Copyright © 2024 The ELPS authors

package token

import "fmt"

// Token is an immutable lexical unit.  Pos is a byte offset which is
// absolute in the full document once the token has been handed to a host.
// For ERROR tokens Text holds the error message instead of source text.
type Token struct {
	Type Type
	Text string
	Pos  int
}

// End returns the offset just past the token's text.  It is meaningless for
// ERROR tokens.
func (tok *Token) End() int {
	return tok.Pos + len(tok.Text)
}

func (tok *Token) String() string {
	return fmt.Sprintf("%v[%d]%q", tok.Type, tok.Pos, tok.Text)
}

type Type uint

// Type constants used by the argument lexer, the link markup parser and the
// expression lexer.
const (
	INVALID Type = iota
	ERROR
	EOF

	// Macro argument items
	BAREWORD
	EXPRESSION
	STRING
	SQUARE_BRACKET
	CONTAINER

	// Link markup components
	LINK_LEFT_META
	IMAGE_META
	LINK_TEXT
	LINK_DELIM_LTR
	LINK_DELIM_RTL
	LINK_TARGET
	LINK_SOURCE
	LINK_INNER_META
	LINK_SETTER
	LINK_RIGHT_META

	// Expression tokens
	IDENT
	NUMBER
	TEMPLATE
	REGEXP
	COMMENT
	PUNCT

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:         "invalid",
		ERROR:           "error",
		EOF:             "EOF",
		BAREWORD:        "bareword",
		EXPRESSION:      "expression",
		STRING:          "string",
		SQUARE_BRACKET:  "square-bracket",
		CONTAINER:       "container",
		LINK_LEFT_META:  "[[",
		IMAGE_META:      "[img[",
		LINK_TEXT:       "link-text",
		LINK_DELIM_LTR:  "->",
		LINK_DELIM_RTL:  "<-",
		LINK_TARGET:     "link",
		LINK_SOURCE:     "source",
		LINK_INNER_META: "][",
		LINK_SETTER:     "setter",
		LINK_RIGHT_META: "]]",
		IDENT:           "ident",
		NUMBER:          "number",
		TEMPLATE:        "template",
		REGEXP:          "regexp",
		COMMENT:         "comment",
		PUNCT:           "punct",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

type Location struct {
	File string // a name representing the source stream
	Pos  int
	Line int // line number (starting at 1 when tracked)
	Col  int // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
