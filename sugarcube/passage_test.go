// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"strings"
	"testing"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/stretchr/testify/assert"
	"kr.dev/diff"
)

func parsePassage(text string) (*events.Collector, string) {
	c := &events.Collector{}
	out := ParsePassageText(text, 0, NewState(BuiltinMacros()), c)
	return c, out
}

func TestParsePassageText(t *testing.T) {
	text := "/* note */<<set $x to 1>>[[Go|Home]] $y.z\n<script>var a;</script>"
	c, out := parsePassage(text)
	assert.Empty(t, c.Diagnostics)
	assert.Equal(t, []events.SymbolRef{
		{Contents: "set", At: 12, Kind: events.KindMacro},
		{Contents: "$x", At: 16, Kind: events.KindVariable},
		{Contents: "Home", At: 30, Kind: events.KindPassage},
		{Contents: "$y", At: 37, Kind: events.KindVariable},
		{Contents: "$y.z", At: 40, Kind: events.KindProperty},
	}, c.References)
	assert.Equal(t, []events.SemanticToken{
		{Text: "/* note */", At: 0, Type: events.TokenComment},
		{Text: "set", At: 12, Type: events.TokenMacro},
		{Text: "$x", At: 16, Type: events.TokenVariable},
		{Text: "to", At: 19, Type: events.TokenOperator},
		{Text: "1", At: 22, Type: events.TokenNumber},
		{Text: "$y", At: 37, Type: events.TokenVariable},
		{Text: "z", At: 40, Type: events.TokenProperty},
	}, c.Tokens)
	assert.Equal(t, []events.EmbeddedDocument{{Language: "javascript", Text: "var a;", At: 50}}, c.Embedded)

	want := strings.Repeat(" ", 36) + " $y.z\n<script>" + strings.Repeat(" ", 6) + "</script>"
	diff.Test(t, t.Errorf, out, want)
}

func TestParsePassageTextRawRegions(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"verbatim", `"""$x [[a]] <<set $y to 1>>"""`},
		{"nowiki", `<nowiki>$x [[a]]</nowiki>`},
		{"code", `{{{$x <<if>>}}}`},
		{"html comment", `<!-- $x [[a]] -->`},
		{"percent comment", `/% <<if>> %/`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, out := parsePassage(test.input)
			assert.Empty(t, c.References)
			assert.Empty(t, c.Diagnostics)
			assert.Equal(t, strings.Repeat(" ", len(test.input)), out)
		})
	}
}

func TestParsePassageTextStyle(t *testing.T) {
	c, _ := parsePassage("<style type=\"text/css\">\n.a { color: red; }\n</style>")
	assert.Equal(t, []events.EmbeddedDocument{
		{Language: "css", Text: "\n.a { color: red; }\n", At: 23},
	}, c.Embedded)
}

func TestParsePassageTextNakedVariables(t *testing.T) {
	c, _ := parsePassage("a $$b c_d _e __u__ $f.g[0]")
	assert.Equal(t, []events.SymbolRef{
		{Contents: "_e", At: 10, Kind: events.KindVariable},
		{Contents: "$f", At: 19, Kind: events.KindVariable},
		{Contents: "$f.g", At: 22, Kind: events.KindProperty},
	}, c.References)
}

func TestParsePassageTextLinks(t *testing.T) {
	c, _ := parsePassage("[[Out|https://example.com]] [[x->$dest]] [img[pic.png][Room]] [[Bad")
	assert.Equal(t, []events.SymbolRef{
		{Contents: "$dest", At: 33, Kind: events.KindVariable},
		{Contents: "Room", At: 55, Kind: events.KindPassage},
	}, c.References)
	if assert.Len(t, c.Diagnostics, 1) {
		d := c.Diagnostics[0]
		assert.Equal(t, events.SeverityError, d.Severity)
		assert.Contains(t, d.Message, "unterminated")
		assert.GreaterOrEqual(t, d.Range.Start, 62)
		assert.Equal(t, 67, d.Range.End)
	}
}

func TestParsePassageTextMacroInLink(t *testing.T) {
	c, _ := parsePassage("<<link [[Next]]>><<set $n to 2>><</link>>")
	assert.Empty(t, c.Diagnostics)
	assert.Equal(t, []events.SymbolRef{
		{Contents: "link", At: 2, Kind: events.KindMacro},
		{Contents: "Next", At: 9, Kind: events.KindPassage},
		{Contents: "set", At: 19, Kind: events.KindMacro},
		{Contents: "$n", At: 23, Kind: events.KindVariable},
		{Contents: "link", At: 35, Kind: events.KindMacro},
	}, c.References)
}
