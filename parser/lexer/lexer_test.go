// Copyright © 2018 The ELPS authors

package lexer

import (
	"testing"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/token"
	"github.com/stretchr/testify/assert"
)

type testTok struct {
	typ  token.Type
	text string
}

func lexTypes(input string) []testTok {
	var out []testTok
	for _, tok := range Lex(input, 0) {
		out = append(out, testTok{tok.Type, tok.Text})
	}
	return out
}

func TestLexer(t *testing.T) {
	tests := []struct {
		input  string
		tokens []testTok
	}{
		{``, nil},
		{`abc $d _e`, []testTok{
			{token.IDENT, "abc"},
			{token.IDENT, "$d"},
			{token.IDENT, "_e"},
		}},
		{`a === b !== c >>>= d`, []testTok{
			{token.IDENT, "a"},
			{token.PUNCT, "==="},
			{token.IDENT, "b"},
			{token.PUNCT, "!=="},
			{token.IDENT, "c"},
			{token.PUNCT, ">>>="},
			{token.IDENT, "d"},
		}},
		{`10 0.5 .5 1e10 2.5E-3 0xFF 10n`, []testTok{
			{token.NUMBER, "10"},
			{token.NUMBER, "0.5"},
			{token.NUMBER, ".5"},
			{token.NUMBER, "1e10"},
			{token.NUMBER, "2.5E-3"},
			{token.NUMBER, "0xFF"},
			{token.NUMBER, "10n"},
		}},
		{`"a\"b" 'c'`, []testTok{
			{token.STRING, `"a\"b"`},
			{token.STRING, `'c'`},
		}},
		{"a // rest\nb /* c */ d", []testTok{
			{token.IDENT, "a"},
			{token.COMMENT, "// rest"},
			{token.IDENT, "b"},
			{token.COMMENT, "/* c */"},
			{token.IDENT, "d"},
		}},
		{`a / b / c`, []testTok{
			{token.IDENT, "a"},
			{token.PUNCT, "/"},
			{token.IDENT, "b"},
			{token.PUNCT, "/"},
			{token.IDENT, "c"},
		}},
		{`x = /a[/]b/gi.test(y)`, []testTok{
			{token.IDENT, "x"},
			{token.PUNCT, "="},
			{token.REGEXP, "/a[/]b/gi"},
			{token.PUNCT, "."},
			{token.IDENT, "test"},
			{token.PUNCT, "("},
			{token.IDENT, "y"},
			{token.PUNCT, ")"},
		}},
		{"`a${b + {c: 1}.c}d`", []testTok{
			{token.TEMPLATE, "`a${"},
			{token.IDENT, "b"},
			{token.PUNCT, "+"},
			{token.PUNCT, "{"},
			{token.IDENT, "c"},
			{token.PUNCT, ":"},
			{token.NUMBER, "1"},
			{token.PUNCT, "}"},
			{token.PUNCT, "."},
			{token.IDENT, "c"},
			{token.PUNCT, "}"},
			{token.TEMPLATE, "d`"},
		}},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.tokens, lexTypes(test.input))
		})
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{`a + "b`, "unterminated string literal"},
		{"`abc", "unterminated template literal"},
		{`/* abc`, "unterminated comment"},
		{`1e+`, `invalid number literal "1e+"`},
		{`10px`, `invalid number literal "10"`},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			toks := Lex(test.input, 0)
			if assert.NotEmpty(t, toks) {
				last := toks[len(toks)-1]
				assert.Equal(t, token.ERROR, last.Type)
				assert.Equal(t, test.msg, last.Text)
			}
		})
	}
}

func TestTokenizeLabels(t *testing.T) {
	res := Tokenize("hero.stats.str = Math.max(a, b[0].c)", 100)
	assert.Equal(t, []Label{
		{Text: "hero", At: 100},
		{Text: "Math", At: 117},
		{Text: "a", At: 126},
		{Text: "b", At: 129},
	}, res.Variables)
	assert.Equal(t, []Label{
		{Text: "stats", At: 105, Scope: "hero"},
		{Text: "str", At: 111, Scope: "hero.stats"},
		{Text: "max", At: 122, Scope: "Math"},
		{Text: "c", At: 134},
	}, res.Properties)
}

func TestTokenizeSemanticTokens(t *testing.T) {
	res := Tokenize(`x = {key: "v", n: 1} && typeof y // note`, 0)
	assert.Equal(t, []events.SemanticToken{
		{Text: "x", At: 0, Type: events.TokenVariable},
		{Text: "=", At: 2, Type: events.TokenOperator},
		{Text: "key", At: 5, Type: events.TokenProperty},
		{Text: `"v"`, At: 10, Type: events.TokenString},
		{Text: "n", At: 15, Type: events.TokenProperty},
		{Text: "1", At: 18, Type: events.TokenNumber},
		{Text: "&&", At: 21, Type: events.TokenOperator},
		{Text: "typeof", At: 24, Type: events.TokenKeyword},
		{Text: "y", At: 31, Type: events.TokenVariable},
		{Text: "// note", At: 33, Type: events.TokenComment},
	}, res.Tokens)
	assert.Len(t, res.Variables, 2, "object keys are not variables")
}

func TestTokenizePartialOnError(t *testing.T) {
	res := Tokenize(`a + 'oops`, 0)
	assert.Equal(t, []Label{{Text: "a", At: 0}}, res.Variables)
	assert.Len(t, res.Tokens, 2)
}
