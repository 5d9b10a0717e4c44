// Copyright © 2024 The ELPS authors

package lexer

import (
	"strings"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/token"
)

var keywords = map[string]bool{
	"async": true, "await": true, "break": true, "case": true, "catch": true,
	"class": true, "const": true, "continue": true, "debugger": true,
	"default": true, "delete": true, "do": true, "else": true, "export": true,
	"extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "let": true, "new": true, "null": true, "of": true,
	"return": true, "super": true, "switch": true, "this": true,
	"throw": true, "true": true, "try": true, "typeof": true,
	"undefined": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true,
}

// IsKeyword reports whether word is a reserved word or literal keyword.
func IsKeyword(word string) bool {
	return keywords[word]
}

// Label is a variable or property named in an expression.  For
// properties, Scope holds the text of the chain that owns the property,
// such as "hero.stats" for the label "str" in hero.stats.str.  Scope is
// empty for variables and for properties whose owner is not a plain
// chain of names.
type Label struct {
	Text  string
	At    int
	Scope string
}

// End returns the offset just past the label.
func (lab Label) End() int {
	return lab.At + len(lab.Text)
}

// Result holds what Tokenize found in an expression.
type Result struct {
	Variables  []Label
	Properties []Label
	Tokens     []events.SemanticToken
}

// Tokenize lexes an expression and classifies its tokens.  Positions are
// offset by offset.
func Tokenize(text string, offset int) *Result {
	return Classify(Lex(text, offset))
}

// Classify derives semantic tokens and variable and property labels from
// raw tokens produced by Lex.
func Classify(toks []*token.Token) *Result {
	c := &classifier{res: &Result{}}
	for i, tok := range toks {
		c.next = nil
		for _, t := range toks[i+1:] {
			if t.Type != token.COMMENT {
				c.next = t
				break
			}
		}
		c.classify(tok)
		if tok.Type != token.COMMENT {
			c.prev = tok
		}
	}
	return c.res
}

type classifier struct {
	res    *Result
	prev   *token.Token
	next   *token.Token
	chain  string // member chain ending at prev, if any
	braces []byte
}

func (c *classifier) add(tok *token.Token, typ events.TokenType) {
	c.res.Tokens = append(c.res.Tokens, events.SemanticToken{
		Text: tok.Text,
		At:   tok.Pos,
		Type: typ,
	})
}

func (c *classifier) prevIs(texts ...string) bool {
	if c.prev == nil || c.prev.Type != token.PUNCT {
		return false
	}
	for _, text := range texts {
		if c.prev.Text == text {
			return true
		}
	}
	return false
}

func (c *classifier) nextIs(text string) bool {
	return c.next != nil && c.next.Type == token.PUNCT && c.next.Text == text
}

// objectKey reports whether the current token names a key in an object
// literal.
func (c *classifier) objectKey() bool {
	n := len(c.braces)
	return n > 0 && c.braces[n-1] == '{' && c.nextIs(":") && (c.prevIs("{", ","))
}

func (c *classifier) classify(tok *token.Token) {
	switch tok.Type {
	case token.COMMENT:
		c.add(tok, events.TokenComment)
		return
	case token.NUMBER:
		c.add(tok, events.TokenNumber)
	case token.STRING:
		if c.objectKey() {
			c.add(tok, events.TokenProperty)
		} else {
			c.add(tok, events.TokenString)
		}
	case token.TEMPLATE:
		c.add(tok, events.TokenString)
		if strings.HasSuffix(tok.Text, "${") {
			c.braces = append(c.braces, '$')
		}
	case token.REGEXP:
		c.add(tok, events.TokenRegexp)
	case token.IDENT:
		c.classifyIdent(tok)
		return
	case token.PUNCT:
		c.classifyPunct(tok)
		return
	}
	c.chain = ""
}

func (c *classifier) classifyIdent(tok *token.Token) {
	member := c.prevIs(".", "?.")
	switch {
	case member:
		scope := c.chain
		c.res.Properties = append(c.res.Properties, Label{Text: tok.Text, At: tok.Pos, Scope: scope})
		if c.nextIs("(") {
			c.add(tok, events.TokenFunction)
		} else {
			c.add(tok, events.TokenProperty)
		}
		if scope != "" {
			c.chain = scope + "." + tok.Text
		}
	case keywords[tok.Text]:
		c.add(tok, events.TokenKeyword)
		c.chain = ""
	case c.objectKey():
		c.add(tok, events.TokenProperty)
		c.chain = ""
	default:
		c.res.Variables = append(c.res.Variables, Label{Text: tok.Text, At: tok.Pos})
		if c.nextIs("(") {
			c.add(tok, events.TokenFunction)
		} else {
			c.add(tok, events.TokenVariable)
		}
		c.chain = tok.Text
	}
}

func (c *classifier) classifyPunct(tok *token.Token) {
	switch tok.Text {
	case ".", "?.":
		// Keep the chain for the following property.
		return
	case "{", "(", "[":
		c.braces = append(c.braces, tok.Text[0])
	case "}", ")", "]":
		if n := len(c.braces); n > 0 {
			c.braces = c.braces[:n-1]
		}
	case ",", ";", ":":
	default:
		c.add(tok, events.TokenOperator)
	}
	c.chain = ""
}
