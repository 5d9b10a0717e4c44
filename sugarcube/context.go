// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"sort"
	"strings"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/params"
	"github.com/sgranade/twine-twee-language-sub001/parser/lexer"
	"github.com/sgranade/twine-twee-language-sub001/parser/link"
	"github.com/sgranade/twine-twee-language-sub001/parser/token"
)

// ParamValidator checks lexed macro arguments against a signature.
type ParamValidator interface {
	Validate(spec *params.Spec, toks []*token.Token) *params.Result
}

// State is the configuration shared by every scan.  It is read only
// during a scan, so one State may serve concurrent scans.
type State struct {
	Registry      *Registry
	FormatVersion string // SugarCube version such as "2.36.1"; empty if unknown
	Tokenizer     Tokenizer
	Validator     ParamValidator

	// WarnUnknownMacros enables a warning for every macro missing from
	// Registry.
	WarnUnknownMacros bool
}

// NewState returns a State using reg and the default expression tokenizer
// and parameter validator.
func NewState(reg *Registry) *State {
	return &State{
		Registry:  reg,
		Tokenizer: lexer.Tokenize,
		Validator: params.Validator{},
	}
}

func (st *State) validator() ParamValidator {
	if st.Validator == nil {
		return params.Validator{}
	}
	return st.Validator
}

// Context carries a scan's output to its Listener.  It is handed to
// macro argument and child parsers so that they report results the same
// way the scanner does.
type Context struct {
	State    *State
	Listener events.Listener

	base int    // absolute offset of work[0]
	work []byte // working copy of the passage text
}

func newContext(text string, base int, st *State, l events.Listener) *Context {
	return &Context{State: st, Listener: l, base: base, work: []byte(text)}
}

// Text returns the working copy of the scanned text.
func (ctx *Context) Text() string {
	return string(ctx.work)
}

// Source returns the working text in [start, end), given as absolute
// offsets.
func (ctx *Context) Source(start, end int) string {
	return string(ctx.work[start-ctx.base : end-ctx.base])
}

// Blank replaces [start, end) in the working copy with spaces.  Newlines
// are kept so that line structure is preserved.
func (ctx *Context) Blank(start, end int) {
	for i := start - ctx.base; i < end-ctx.base; i++ {
		if ctx.work[i] != '\n' && ctx.work[i] != '\r' {
			ctx.work[i] = ' '
		}
	}
}

// Error reports an error over [start, end).
func (ctx *Context) Error(start, end int, msg string) {
	ctx.diagnostic(events.SeverityError, start, end, msg)
}

// Warning reports a warning over [start, end).
func (ctx *Context) Warning(start, end int, msg string) {
	ctx.diagnostic(events.SeverityWarning, start, end, msg)
}

func (ctx *Context) diagnostic(sev events.Severity, start, end int, msg string) {
	ctx.Listener.OnParseError(events.Diagnostic{
		Severity: sev,
		Range:    events.Range{Start: start, End: end},
		Message:  msg,
	})
}

// Token reports a semantic token.
func (ctx *Context) Token(text string, at int, typ events.TokenType, mods events.Modifier) {
	ctx.Listener.OnSemanticToken(events.SemanticToken{Text: text, At: at, Type: typ, Modifiers: mods})
}

// Reference reports a symbol reference.
func (ctx *Context) Reference(contents string, at int, kind events.SymbolKind) {
	ctx.Listener.OnSymbolReference(events.SymbolRef{Contents: contents, At: at, Kind: kind})
}

// Embedded reports a region written in another language.
func (ctx *Context) Embedded(language, text string, at int) {
	ctx.Listener.OnEmbeddedDocument(events.EmbeddedDocument{Language: language, Text: text, At: at})
}

// Expression tokenizes a SugarCube expression at absolute offset at and
// reports its variables, properties and tokens.
func (ctx *Context) Expression(text string, at int) {
	ctx.report(TokenizeExpression(text, at, ctx.State.Tokenizer), false)
}

// Variables is like Expression but only reports story and temporary
// variables and their properties.  Other names in the expression are
// taken to be plain text.
func (ctx *Context) Variables(text string, at int) {
	ctx.report(TokenizeExpression(text, at, ctx.State.Tokenizer), true)
}

func isSigil(name string) bool {
	return strings.HasPrefix(name, "$") || strings.HasPrefix(name, "_")
}

func (ctx *Context) report(res *lexer.Result, sigilOnly bool) {
	kept := make(map[int]bool)
	var refs []events.SymbolRef
	for _, v := range res.Variables {
		if sigilOnly && !isSigil(v.Text) {
			continue
		}
		kept[v.At] = true
		refs = append(refs, events.SymbolRef{Contents: v.Text, At: v.At, Kind: events.KindVariable})
	}
	for _, p := range res.Properties {
		if sigilOnly && !isSigil(p.Scope) {
			continue
		}
		kept[p.At] = true
		contents := p.Text
		if p.Scope != "" {
			contents = p.Scope + "." + p.Text
		}
		refs = append(refs, events.SymbolRef{Contents: contents, At: p.At, Kind: events.KindProperty})
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].At < refs[j].At })
	for _, r := range refs {
		ctx.Listener.OnSymbolReference(r)
	}
	for _, tok := range res.Tokens {
		if sigilOnly && !kept[tok.At] {
			continue
		}
		ctx.Listener.OnSemanticToken(tok)
	}
}

// Passage reports a reference to the passage name at absolute offset at.
func (ctx *Context) Passage(name string, at int) {
	ctx.Reference(name, at, events.KindPassage)
}

// Link parses square bracketed markup text found at absolute offset at and
// reports the passages it refers to and the expressions it contains.  It
// returns the parsed markup, whose offsets are relative to text.
func (ctx *Context) Link(text string, at int) *link.Markup {
	m := link.Parse(text, 0)
	ctx.markup(m, at)
	return m
}

// markup reports parsed markup whose offsets are relative to at.
func (ctx *Context) markup(m *link.Markup, at int) {
	if m.Err != "" {
		ctx.Error(at+m.ErrAt, at+m.End, m.Err)
		return
	}
	if m.Source != nil && params.IsVariable(strings.TrimSpace(m.Source.Text)) {
		ctx.Expression(m.Source.Text, at+m.Source.At)
	}
	if m.Link != nil {
		ctx.target(m.Link, at, m.ForceInternal)
	}
	if m.Setter != nil {
		ctx.Expression(m.Setter.Text, at+m.Setter.At)
	}
}

func (ctx *Context) target(c *link.Component, at int, internal bool) {
	switch {
	case params.IsVariable(strings.TrimSpace(c.Text)):
		ctx.Expression(c.Text, at+c.At)
	case !internal && link.IsExternal(c.Text):
	case c.Text != "":
		ctx.Passage(c.Text, at+c.At)
	}
}
