// Copyright © 2024 The ELPS authors

package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const testStory = ":: StoryData\n" +
	`{"format": "SugarCube", "format-version": "2.36.1", "start": "Start"}` + "\n\n" +
	":: Start\n<<set $x to 1>>[[Next]]\n\n" +
	":: Widgets [widget]\n<<widget \"greet\">>Hi<</widget>>\n\n" +
	":: Next\n<<greet $x>>\n"

func refsOf(res *Result, kind events.SymbolKind) []events.SymbolRef {
	var refs []events.SymbolRef
	for _, ref := range res.References {
		if ref.Kind == kind {
			refs = append(refs, ref)
		}
	}
	return refs
}

func TestAnalyze(t *testing.T) {
	res, err := Analyze(context.Background(), "file:///story.twee", testStory, &Config{WarnUnknownMacros: true})
	require.NoError(t, err)

	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, "SugarCube", res.Format)
	assert.Equal(t, "2.36.1", res.FormatVersion)
	assert.True(t, res.IsSugarCube())
	require.Len(t, res.Passages, 4)

	require.Len(t, res.Widgets, 1)
	assert.Equal(t, "greet", res.Widgets[0].Name)

	passages := refsOf(res, events.KindPassage)
	assert.Contains(t, passages, events.SymbolRef{
		Contents: "Start", At: strings.Index(testStory, `"Start"`) + 1, Kind: events.KindPassage,
	})
	assert.Contains(t, passages, events.SymbolRef{
		Contents: "Next", At: strings.Index(testStory, "[[Next]]") + 2, Kind: events.KindPassage,
	})
	assert.Contains(t, refsOf(res, events.KindMacro), events.SymbolRef{
		Contents: "greet", At: strings.Index(testStory, "<<greet") + 2, Kind: events.KindMacro,
	})
	assert.Len(t, refsOf(res, events.KindVariable), 2)

	require.NotEmpty(t, res.Embedded)
	assert.Equal(t, "json", res.Embedded[0].Language)

	start := res.Passages[1]
	assert.Same(t, start, res.Passage(start.TextAt+3))
	assert.Nil(t, res.Passage(-1))
}

func TestAnalyzeNilConfig(t *testing.T) {
	text := testStory + ":: Typed\n<<type 40ms start 1s>>Hi<</type>><<goto \"Next\">>\n"
	var res *Result
	var err error
	require.NotPanics(t, func() {
		res, err = Analyze(context.Background(), "file:///story.twee", text, nil)
	})
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)

	var names []string
	for _, p := range res.Passages {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"StoryData", "Start", "Widgets", "Next", "Typed"}, names)
	assert.True(t, res.Passages[2].HasTag(WidgetTag))
	require.Len(t, res.Widgets, 1)
	assert.Equal(t, "greet", res.Widgets[0].Name)
	assert.Equal(t, "2.36.1", res.FormatVersion)

	assert.Contains(t, refsOf(res, events.KindPassage), events.SymbolRef{
		Contents: "Next", At: strings.Index(text, `"Next"`) + 1, Kind: events.KindPassage,
	})
}

func TestAnalyzeFormat(t *testing.T) {
	text := ":: Start\n<<set $x to 1>>\n"

	res, err := Analyze(context.Background(), "file:///a.twee", text, &Config{Format: "Harlowe"})
	require.NoError(t, err)
	assert.False(t, res.IsSugarCube())
	assert.Empty(t, res.References)

	res, err = Analyze(context.Background(), "file:///a.twee", text, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultFormat, res.Format)
	assert.NotEmpty(t, res.References)

	override := ":: StoryData\n{\"format\": \"sugarcube\", \"format-version\": \"2.37.0\"}\n" + text
	res, err = Analyze(context.Background(), "file:///a.twee", override, &Config{Format: "Harlowe", FormatVersion: "1.0.0"})
	require.NoError(t, err)
	assert.True(t, res.IsSugarCube())
	assert.Equal(t, "2.37.0", res.FormatVersion)
}

func TestAnalyzeMalformedStoryData(t *testing.T) {
	text := ":: StoryData\n{\"format\": \n"
	res, err := Analyze(context.Background(), "file:///a.twee", text, nil)
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, events.SeverityError, d.Severity)
	assert.Equal(t, events.Range{Start: 13, End: len(text)}, d.Range)
	assert.Contains(t, d.Message, "malformed StoryData")
}

func TestAnalyzeSpecialPassages(t *testing.T) {
	text := ":: Code [script]\nvar a;\n:: Look [stylesheet]\nbody {}\n:: StoryTitle\n<<nope>>\n"
	res, err := Analyze(context.Background(), "file:///a.twee", text, &Config{WarnUnknownMacros: true})
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.Empty(t, res.References)
	assert.Equal(t, []events.EmbeddedDocument{
		{Language: "javascript", Text: "var a;\n", At: 17},
		{Language: "css", Text: "body {}\n", At: 45},
	}, res.Embedded)
}

func TestAnalyzeDeterministic(t *testing.T) {
	var text strings.Builder
	for i := 0; i < 50; i++ {
		text.WriteString(":: P")
		text.WriteByte(byte('a' + i%26))
		text.WriteString(strings.Repeat("x", i))
		text.WriteString("\n<<if $a is 1>>[[Next]]<<else>>$b.c<</if>> <<unknown>>\n")
	}
	cfg := &Config{WarnUnknownMacros: true, Parallelism: 4}
	first, err := Analyze(context.Background(), "file:///a.twee", text.String(), cfg)
	require.NoError(t, err)
	second, err := Analyze(context.Background(), "file:///a.twee", text.String(), cfg)
	require.NoError(t, err)
	assert.Equal(t, first.References, second.References)
	assert.Equal(t, first.Tokens, second.Tokens)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
	assert.Len(t, first.Diagnostics, 50)
}

func TestAnalyzeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Analyze(ctx, "file:///a.twee", testStory, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
		trace.WithSampler(trace.AlwaysSample()),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	_, err := Analyze(context.Background(), "file:///story.twee", testStory, nil)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "analysis.Analyze", span.Name)
	assert.Contains(t, span.Attributes, attribute.Int("twee.passages", 4))
	assert.Contains(t, span.Attributes, attribute.String("twee.format", "SugarCube"))
	assert.Contains(t, span.Attributes, attribute.String("code.filepath", "file:///story.twee"))
}
