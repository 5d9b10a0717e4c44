// Copyright © 2024 The ELPS authors

package twee

import (
	"testing"

	parsec "github.com/prataprc/goparsec"
	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	text := "preamble\n:: Start [tag1 tag2] {\"position\":\"100,200\"}\nHello\n\n:: Next\\[1\\]\r\nBye\n"
	doc := Parse(text)
	assert.Empty(t, doc.Diagnostics)
	require.Len(t, doc.Passages, 2)

	start := doc.Passages[0]
	assert.Equal(t, "Start", start.Name)
	assert.Equal(t, 12, start.NameAt)
	assert.Equal(t, 17, start.NameEnd)
	assert.Equal(t, []string{"tag1", "tag2"}, start.Tags)
	assert.Equal(t, map[string]interface{}{"position": "100,200"}, start.Metadata)
	assert.Equal(t, 9, start.HeaderAt)
	assert.Equal(t, 53, start.TextAt)
	assert.Equal(t, "Hello\n\n", start.Text)
	assert.Equal(t, 60, start.End())
	assert.True(t, start.HasTag("tag2"))
	assert.False(t, start.HasTag("script"))

	next := doc.Passages[1]
	assert.Equal(t, "Next[1]", next.Name)
	assert.Equal(t, 63, next.NameAt)
	assert.Equal(t, 72, next.NameEnd)
	assert.Equal(t, `:: Next\[1\]`, next.Header)
	assert.Equal(t, 74, next.TextAt)
	assert.Equal(t, "Bye\n", next.Text)

	assert.Same(t, next, doc.Passage("Next[1]"))
	assert.Nil(t, doc.Passage("Nowhere"))
}

func TestHeaderGrammarNodes(t *testing.T) {
	root, _ := headerGrammar(parsec.NewScanner([]byte(" Start [a b]")))
	nodes, ok := root.([]parsec.ParsecNode)
	require.True(t, ok)
	require.Len(t, nodes, 3)
	name, ok := nodes[0].(*parsec.Terminal)
	require.True(t, ok)
	assert.Equal(t, nodeName, name.Name)
	tags, ok := nodes[1].(*parsec.Terminal)
	require.True(t, ok)
	assert.Equal(t, "[a b]", tags.Value)
	assert.IsType(t, parsec.MaybeNone(""), nodes[2])

	doc := Parse(":: Start [a b]\nHi\n")
	assert.Empty(t, doc.Diagnostics)
	require.Len(t, doc.Passages, 1)
	assert.Equal(t, "Start", doc.Passages[0].Name)
	assert.Equal(t, []string{"a", "b"}, doc.Passages[0].Tags)
}

func TestParseNoPassages(t *testing.T) {
	doc := Parse("just some text\n")
	assert.Empty(t, doc.Passages)
	assert.Empty(t, doc.Diagnostics)
}

func TestParseLastPassageWithoutNewline(t *testing.T) {
	doc := Parse(":: Only")
	require.Len(t, doc.Passages, 1)
	assert.Equal(t, "Only", doc.Passages[0].Name)
	assert.Equal(t, "", doc.Passages[0].Text)
	assert.Equal(t, 7, doc.Passages[0].TextAt)
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		diag  events.Diagnostic
	}{
		{"missing name", ":: [a]\n", events.Diagnostic{
			Severity: events.SeverityError, Range: events.Range{Start: 0, End: 6}, Message: "Passage name is missing",
		}},
		{"unterminated tags", ":: A [b\n", events.Diagnostic{
			Severity: events.SeverityError, Range: events.Range{Start: 5, End: 7}, Message: "Passage tags are missing a closing ']'",
		}},
		{"duplicate", ":: A\n:: A\n", events.Diagnostic{
			Severity: events.SeverityWarning, Range: events.Range{Start: 8, End: 9}, Message: `Duplicate passage name "A"`,
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := Parse(test.input)
			assert.Equal(t, []events.Diagnostic{test.diag}, doc.Diagnostics)
		})
	}
}

func TestParseMalformedMetadata(t *testing.T) {
	doc := Parse(":: A {bad}\n")
	require.Len(t, doc.Diagnostics, 1)
	d := doc.Diagnostics[0]
	assert.Equal(t, events.Range{Start: 5, End: 10}, d.Range)
	assert.Contains(t, d.Message, "Malformed passage metadata")
	assert.Equal(t, "A", doc.Passages[0].Name)
}

func TestParseStoryData(t *testing.T) {
	info, err := ParseStoryData(`{"ifid": "D674C58C", "format": "SugarCube", "format-version": "2.36.1", "start": "Start"}`)
	require.NoError(t, err)
	assert.Equal(t, &StoryInfo{IFID: "D674C58C", Format: "SugarCube", FormatVersion: "2.36.1", Start: "Start"}, info)

	_, err = ParseStoryData(`{"format": `)
	assert.Error(t, err)
}
