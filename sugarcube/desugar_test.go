// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/lexer"
	"github.com/stretchr/testify/assert"
)

func TestDesugar(t *testing.T) {
	tests := []struct {
		input    string
		output   string
		mappings []Mapping
	}{
		{`$hero.hp to 10`, `hero.hp = 10`, []Mapping{
			{OriginalStart: 0, OriginalText: "$hero", NewStart: 0, NewEnd: 4},
			{OriginalStart: 9, OriginalText: "to", NewStart: 8, NewEnd: 9},
		}},
		{`_i lte $max`, `i <= max`, []Mapping{
			{OriginalStart: 0, OriginalText: "_i", NewStart: 0, NewEnd: 1},
			{OriginalStart: 3, OriginalText: "lte", NewStart: 2, NewEnd: 4},
			{OriginalStart: 7, OriginalText: "$max", NewStart: 5, NewEnd: 8},
		}},
		{`"to" + 'is $x'`, `"to" + 'is $x'`, nil},
		{`$a.to isnot total`, `a.to !== total`, []Mapping{
			{OriginalStart: 0, OriginalText: "$a", NewStart: 0, NewEnd: 1},
			{OriginalStart: 6, OriginalText: "isnot", NewStart: 5, NewEnd: 8},
		}},
		{`def $x`, `"undefined" !== typeof x`, []Mapping{
			{OriginalStart: 0, OriginalText: "def", NewStart: 0, NewEnd: 22},
			{OriginalStart: 4, OriginalText: "$x", NewStart: 23, NewEnd: 24},
		}},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			output, mappings := Desugar(test.input)
			assert.Equal(t, test.output, output)
			if d := cmp.Diff(test.mappings, mappings); d != "" {
				t.Errorf("mappings (-want +got):\n%s", d)
			}
		})
	}
}

func TestTokenizeExpressionRoundTrip(t *testing.T) {
	res := TokenizeExpression(`$hero.hp to 10`, 0, nil)
	assert.Equal(t, []lexer.Label{{Text: "$hero", At: 0}}, res.Variables)
	assert.Equal(t, []lexer.Label{{Text: "hp", At: 6, Scope: "$hero"}}, res.Properties)
	assert.Equal(t, []events.SemanticToken{
		{Text: "$hero", At: 0, Type: events.TokenVariable},
		{Text: "hp", At: 6, Type: events.TokenProperty},
		{Text: "to", At: 9, Type: events.TokenOperator},
		{Text: "10", At: 12, Type: events.TokenNumber},
	}, res.Tokens)
}

func TestTokenizeExpressionOffset(t *testing.T) {
	res := TokenizeExpression(`_a.b.c gt $d`, 50, nil)
	assert.Equal(t, []lexer.Label{
		{Text: "_a", At: 50},
		{Text: "$d", At: 60},
	}, res.Variables)
	assert.Equal(t, []lexer.Label{
		{Text: "b", At: 53, Scope: "_a"},
		{Text: "c", At: 55, Scope: "_a.b"},
	}, res.Properties)
}

func TestTokenizeExpressionDropsInventedTokens(t *testing.T) {
	res := TokenizeExpression(`def $x`, 0, nil)
	assert.Equal(t, []events.SemanticToken{
		{Text: "def", At: 0, Type: events.TokenOperator},
		{Text: "$x", At: 4, Type: events.TokenVariable},
	}, res.Tokens)
	assert.Equal(t, []lexer.Label{{Text: "$x", At: 4}}, res.Variables)
}

func TestTokenizeExpressionCustomTokenizer(t *testing.T) {
	var seen string
	tokenize := func(text string, offset int) *lexer.Result {
		seen = text
		return &lexer.Result{Variables: []lexer.Label{{Text: "x", At: offset + 4}}}
	}
	res := TokenizeExpression(`1 + $x`, 10, tokenize)
	assert.Equal(t, "1 + x", seen)
	assert.Equal(t, []lexer.Label{{Text: "$x", At: 14}}, res.Variables)
}

func TestContextReportsPropertyContents(t *testing.T) {
	c := &events.Collector{}
	ctx := newContext("", 0, NewState(NewRegistry()), c)
	ctx.Expression(`$hero.hp to Math.max(1, 2)`, 0)
	assert.Equal(t, []events.SymbolRef{
		{Contents: "$hero", At: 0, Kind: events.KindVariable},
		{Contents: "$hero.hp", At: 6, Kind: events.KindProperty},
		{Contents: "Math", At: 12, Kind: events.KindVariable},
		{Contents: "Math.max", At: 17, Kind: events.KindProperty},
	}, c.References)

	c = &events.Collector{}
	ctx = newContext("", 0, NewState(NewRegistry()), c)
	ctx.Variables(`$hero.hp to Math.max(1, 2)`, 0)
	assert.Equal(t, []events.SymbolRef{
		{Contents: "$hero", At: 0, Kind: events.KindVariable},
		{Contents: "$hero.hp", At: 6, Kind: events.KindProperty},
	}, c.References)
}
