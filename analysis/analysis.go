// Copyright © 2024 The ELPS authors

// Package analysis runs the Twee and SugarCube scanners over whole
// documents and indexes the results across a workspace.
//
// A document is split into passages, the story format is chosen, and every
// SugarCube passage is scanned in its own goroutine.  Results are merged
// back in document order so that analyzing the same text twice gives the
// same result.
package analysis

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/twee"
	"github.com/sgranade/twine-twee-language-sub001/sugarcube"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// TracerName names the tracer used for analysis spans.
const TracerName = "tweels/analysis"

// DefaultFormat is the story format assumed when neither the configuration
// nor the StoryData passage names one.
const DefaultFormat = "SugarCube"

// WidgetTag marks passages which define widget macros.
const WidgetTag = "widget"

// Config controls analysis.
type Config struct {
	// Registry holds the known macros.  BuiltinMacros is used when nil.
	Registry *sugarcube.Registry

	// Format and FormatVersion are used unless the document's StoryData
	// passage names a format.
	Format        string
	FormatVersion string

	// WarnUnknownMacros reports macros missing from the registry.
	WarnUnknownMacros bool

	// Tokenizer replaces the default expression tokenizer when set.
	Tokenizer sugarcube.Tokenizer

	// Parallelism bounds the number of passages scanned at once.  When
	// zero GOMAXPROCS is used.
	Parallelism int
}

func (cfg *Config) registry() *sugarcube.Registry {
	if cfg.Registry == nil {
		return sugarcube.BuiltinMacros()
	}
	return cfg.Registry
}

// Result holds everything found in one document.
type Result struct {
	URI           string
	Text          string
	Passages      []*twee.Passage
	Format        string
	FormatVersion string

	References  []events.SymbolRef
	Tokens      []events.SemanticToken
	Diagnostics []events.Diagnostic
	Embedded    []events.EmbeddedDocument

	// Widgets are the widget macros defined by the document.
	Widgets []*sugarcube.MacroInfo
}

// IsSugarCube reports whether the document is written for SugarCube.
func (r *Result) IsSugarCube() bool {
	return strings.EqualFold(r.Format, DefaultFormat)
}

// Passage returns the passage containing offset, or nil.
func (r *Result) Passage(offset int) *twee.Passage {
	for _, p := range r.Passages {
		if offset >= p.HeaderAt && offset <= p.End() {
			return p
		}
	}
	return nil
}

// Analyze analyzes the Twee document text, identified by uri.  It returns
// an error only when ctx ends before the analysis is complete.
func Analyze(ctx context.Context, uri, text string, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	ctx, span := otel.Tracer(TracerName).Start(ctx, "analysis.Analyze",
		trace.WithAttributes(semconv.CodeFilepath(uri)))
	defer span.End()

	doc := twee.Parse(text)
	res := &Result{
		URI:           uri,
		Text:          text,
		Passages:      doc.Passages,
		Format:        cfg.Format,
		FormatVersion: cfg.FormatVersion,
		Diagnostics:   doc.Diagnostics,
	}
	if res.Format == "" {
		res.Format = DefaultFormat
	}
	res.storyData(doc)
	span.SetAttributes(
		attribute.Int("twee.passages", len(doc.Passages)),
		attribute.String("twee.format", res.Format),
		attribute.String("twee.format_version", res.FormatVersion),
	)

	reg := cfg.registry()
	if res.IsSugarCube() {
		res.Widgets = findWidgets(doc)
		if len(res.Widgets) > 0 {
			reg = reg.Merge(sugarcube.NewRegistry(res.Widgets...))
		}
	}
	st := sugarcube.NewState(reg)
	st.FormatVersion = res.FormatVersion
	st.WarnUnknownMacros = cfg.WarnUnknownMacros
	if cfg.Tokenizer != nil {
		st.Tokenizer = cfg.Tokenizer
	}

	collected := make([]*events.Collector, len(doc.Passages))
	g, gctx := errgroup.WithContext(ctx)
	limit := cfg.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, p := range doc.Passages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := &events.Collector{}
			res.passage(p, st, c)
			collected[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for _, c := range collected {
		c.Replay(res)
	}
	span.SetAttributes(
		attribute.Int("twee.references", len(res.References)),
		attribute.Int("twee.diagnostics", len(res.Diagnostics)),
	)
	return res, nil
}

// Result receives merged events.
var _ events.Listener = (*Result)(nil)

func (r *Result) OnSymbolReference(ref events.SymbolRef)   { r.References = append(r.References, ref) }
func (r *Result) OnParseError(d events.Diagnostic)         { r.Diagnostics = append(r.Diagnostics, d) }
func (r *Result) OnSemanticToken(tok events.SemanticToken) { r.Tokens = append(r.Tokens, tok) }
func (r *Result) OnEmbeddedDocument(doc events.EmbeddedDocument) {
	r.Embedded = append(r.Embedded, doc)
}

// storyData applies the StoryData passage, if the document has one.
func (r *Result) storyData(doc *twee.Document) {
	p := doc.Passage(twee.StoryData)
	if p == nil {
		return
	}
	info, err := twee.ParseStoryData(p.Text)
	if err != nil {
		r.Diagnostics = append(r.Diagnostics, events.Diagnostic{
			Severity: events.SeverityError,
			Range:    events.Range{Start: p.TextAt, End: p.End()},
			Message:  err.Error(),
		})
		return
	}
	if info.Format != "" {
		r.Format = info.Format
		r.FormatVersion = info.FormatVersion
	}
}

// passage reports the contents of p to l.
func (r *Result) passage(p *twee.Passage, st *sugarcube.State, l events.Listener) {
	switch {
	case p.Name == twee.StoryData:
		l.OnEmbeddedDocument(events.EmbeddedDocument{Language: "json", Text: p.Text, At: p.TextAt})
		r.startPassage(p, l)
	case p.Name == twee.StoryTitle:
	case p.HasTag(twee.ScriptTag):
		l.OnEmbeddedDocument(events.EmbeddedDocument{Language: "javascript", Text: p.Text, At: p.TextAt})
	case p.HasTag(twee.StylesheetTag):
		l.OnEmbeddedDocument(events.EmbeddedDocument{Language: "css", Text: p.Text, At: p.TextAt})
	case r.IsSugarCube():
		sugarcube.ParsePassageText(p.Text, p.TextAt, st, l)
	}
}

var startPattern = regexp.MustCompile(`"start"\s*:\s*"((?:\\.|[^"\\])*)"`)

// startPassage reports the StoryData start passage as a reference.
func (r *Result) startPassage(p *twee.Passage, l events.Listener) {
	loc := startPattern.FindStringSubmatchIndex(p.Text)
	if loc == nil || loc[2] == loc[3] {
		return
	}
	l.OnSymbolReference(events.SymbolRef{
		Contents: p.Text[loc[2]:loc[3]],
		At:       p.TextAt + loc[2],
		Kind:     events.KindPassage,
	})
}

var widgetPattern = regexp.MustCompile(`<<widget\s+(?:"([^"]+)"|'([^']+)')(\s+(?:"container"|'container'|container))?\s*>>`)

// widgetArguments reports the variables passed to a widget.  Widgets
// accept any arguments.
func widgetArguments(ctx *sugarcube.Context, args string, at int) bool {
	ctx.Variables(args, at)
	return true
}

// findWidgets returns the macros defined by widget passages.
func findWidgets(doc *twee.Document) []*sugarcube.MacroInfo {
	var widgets []*sugarcube.MacroInfo
	for _, p := range doc.Passages {
		if !p.HasTag(WidgetTag) {
			continue
		}
		for _, m := range widgetPattern.FindAllStringSubmatch(p.Text, -1) {
			name := m[1]
			if name == "" {
				name = m[2]
			}
			widgets = append(widgets, &sugarcube.MacroInfo{
				Name:        name,
				Container:   m[3] != "",
				Parse:       widgetArguments,
				Description: fmt.Sprintf("Widget defined in passage %q.", p.Name),
			})
		}
	}
	return widgets
}
