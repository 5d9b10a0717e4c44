// Copyright © 2024 The ELPS authors

// Package events defines the records a passage scan produces and the
// Listener interface through which it delivers them.  All offsets are
// absolute byte offsets into the scanned document.
package events

import "fmt"

// SymbolKind classifies a symbol reference.
type SymbolKind int

const (
	KindPassage SymbolKind = iota
	KindMacro
	KindVariable
	KindProperty
)

func (k SymbolKind) String() string {
	switch k {
	case KindPassage:
		return "passage"
	case KindMacro:
		return "macro"
	case KindVariable:
		return "variable"
	case KindProperty:
		return "property"
	default:
		return "unknown"
	}
}

// SymbolRef is one occurrence of a named entity.
type SymbolRef struct {
	Contents string
	At       int
	Kind     SymbolKind
}

// End returns the offset just past the reference.
func (ref SymbolRef) End() int {
	return ref.At + len(ref.Contents)
}

func (ref SymbolRef) String() string {
	return fmt.Sprintf("%v[%d]%q", ref.Kind, ref.At, ref.Contents)
}

// TokenType is the semantic classification of a lexical span.
type TokenType int

const (
	TokenComment TokenType = iota
	TokenString
	TokenNumber
	TokenRegexp
	TokenKeyword
	TokenOperator
	TokenVariable
	TokenProperty
	TokenFunction
	TokenMacro
	TokenParameter
	numTokenTypes
)

// TokenTypeNames returns the names of all token types in TokenType order.
// The names are the standard language server semantic token types.
func TokenTypeNames() []string {
	return []string{
		TokenComment:   "comment",
		TokenString:    "string",
		TokenNumber:    "number",
		TokenRegexp:    "regexp",
		TokenKeyword:   "keyword",
		TokenOperator:  "operator",
		TokenVariable:  "variable",
		TokenProperty:  "property",
		TokenFunction:  "function",
		TokenMacro:     "macro",
		TokenParameter: "parameter",
	}
}

func (typ TokenType) String() string {
	if typ < 0 || typ >= numTokenTypes {
		return "unknown"
	}
	return TokenTypeNames()[typ]
}

// Modifier is a bit set of semantic token modifiers.
type Modifier uint

const (
	ModDeprecated Modifier = 1 << iota
	ModDeclaration
)

// ModifierNames returns modifier names in bit order.
func ModifierNames() []string {
	return []string{"deprecated", "declaration"}
}

// SemanticToken is a classified lexical span.
type SemanticToken struct {
	Text      string
	At        int
	Type      TokenType
	Modifiers Modifier
}

// End returns the offset just past the token.
func (tok SemanticToken) End() int {
	return tok.At + len(tok.Text)
}

// Severity indicates the severity level of a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Range is a half-open span of document offsets.
type Range struct {
	Start int
	End   int
}

// Diagnostic is an error, warning or advisory found while scanning.
type Diagnostic struct {
	Severity Severity
	Range    Range
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%v[%d:%d] %s", d.Severity, d.Range.Start, d.Range.End, d.Message)
}

// EmbeddedDocument is a region of a passage written in another language,
// such as a script body.
type EmbeddedDocument struct {
	Language string // "javascript", "css", "json" or "html"
	Text     string
	At       int
}

// Listener receives scan results in document order.
type Listener interface {
	OnSymbolReference(ref SymbolRef)
	OnParseError(d Diagnostic)
	OnSemanticToken(tok SemanticToken)
	OnEmbeddedDocument(doc EmbeddedDocument)
}

// Collector is a Listener which records everything it receives.
type Collector struct {
	References  []SymbolRef
	Diagnostics []Diagnostic
	Tokens      []SemanticToken
	Embedded    []EmbeddedDocument
}

var _ Listener = (*Collector)(nil)

func (c *Collector) OnSymbolReference(ref SymbolRef)         { c.References = append(c.References, ref) }
func (c *Collector) OnParseError(d Diagnostic)               { c.Diagnostics = append(c.Diagnostics, d) }
func (c *Collector) OnSemanticToken(tok SemanticToken)       { c.Tokens = append(c.Tokens, tok) }
func (c *Collector) OnEmbeddedDocument(doc EmbeddedDocument) { c.Embedded = append(c.Embedded, doc) }

// Count returns the number of diagnostics with the given severity.
func (c *Collector) Count(sev Severity) int {
	var n int
	for _, d := range c.Diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// Replay delivers everything recorded by c to l, in the order each kind
// was received.
func (c *Collector) Replay(l Listener) {
	for _, ref := range c.References {
		l.OnSymbolReference(ref)
	}
	for _, tok := range c.Tokens {
		l.OnSemanticToken(tok)
	}
	for _, d := range c.Diagnostics {
		l.OnParseError(d)
	}
	for _, doc := range c.Embedded {
		l.OnEmbeddedDocument(doc)
	}
}
