// Copyright © 2024 The ELPS authors

// Package twee splits Twee 3 source into passages.
//
//	passage  := header '\n' text
//	header   := '::' <name>? <tags>? <metadata>?
//	name     := ( '\' any | [^\[{] )+
//	tags     := '[' ( '\' any | [^\]] )* ']'
//	metadata := '{' any* '}'
package twee

import (
	"encoding/json"
	"fmt"
	"strings"

	parsec "github.com/prataprc/goparsec"
	"github.com/sgranade/twine-twee-language-sub001/events"
)

// Special passage names and tags.
const (
	StoryData       = "StoryData"
	StoryTitle      = "StoryTitle"
	ScriptTag       = "script"
	StylesheetTag   = "stylesheet"
	headerMarker    = "::"
	nodeName        = "NAME"
	nodeTags        = "TAGS"
	nodeMetadata    = "METADATA"
	maxHeaderLength = 1 << 16
)

// Passage is one passage of a Twee document.  Offsets are byte offsets in
// the document.
type Passage struct {
	Name     string
	NameAt   int
	NameEnd  int // end of the name as written, including escapes
	Tags     []string
	Metadata map[string]interface{}
	Header   string // the header line, without its line ending
	HeaderAt int
	Text     string
	TextAt   int
}

// End returns the offset just past the passage text.
func (p *Passage) End() int {
	return p.TextAt + len(p.Text)
}

// HasTag reports whether the passage has the given tag.
func (p *Passage) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Document is a parsed Twee document.
type Document struct {
	Passages    []*Passage
	Diagnostics []events.Diagnostic
}

// Passage returns the first passage named name, or nil.
func (doc *Document) Passage(name string) *Passage {
	for _, p := range doc.Passages {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (doc *Document) errorf(start, end int, format string, v ...interface{}) {
	doc.diagnostic(events.SeverityError, start, end, fmt.Sprintf(format, v...))
}

func (doc *Document) diagnostic(sev events.Severity, start, end int, msg string) {
	doc.Diagnostics = append(doc.Diagnostics, events.Diagnostic{
		Severity: sev,
		Range:    events.Range{Start: start, End: end},
		Message:  msg,
	})
}

// Parse splits text into passages.  Text before the first header is
// ignored.  Problems with headers are reported as diagnostics on the
// returned document.
func Parse(text string) *Document {
	doc := &Document{}
	seen := make(map[string]bool)
	var cur *Passage
	for pos := 0; pos < len(text); {
		end := strings.IndexByte(text[pos:], '\n')
		next := len(text)
		if end < 0 {
			end = len(text)
		} else {
			end += pos
			next = end + 1
		}
		line := strings.TrimSuffix(text[pos:end], "\r")
		if strings.HasPrefix(line, headerMarker) {
			if cur != nil {
				cur.Text = text[cur.TextAt:pos]
			}
			cur = doc.header(line, pos)
			cur.TextAt = next
			doc.Passages = append(doc.Passages, cur)
			if cur.Name != "" {
				if seen[cur.Name] {
					doc.diagnostic(events.SeverityWarning, cur.NameAt, cur.NameEnd,
						fmt.Sprintf("Duplicate passage name %q", cur.Name))
				}
				seen[cur.Name] = true
			}
		}
		pos = next
	}
	if cur != nil {
		cur.Text = text[cur.TextAt:]
	}
	return doc
}

var headerGrammar = newHeaderParser()

func newHeaderParser() parsec.Parser {
	name := parsec.Token(`(?:\\.|[^\\\[{])+`, nodeName)
	tags := parsec.Token(`[ \t]*\[(?:\\.|[^\\\]])*\]`, nodeTags)
	metadata := parsec.Token(`[ \t]*\{.*\}`, nodeMetadata)
	return parsec.And(nil,
		parsec.Maybe(single, name),
		parsec.Maybe(single, tags),
		parsec.Maybe(single, metadata),
	)
}

// single unwraps the one node matched by a Maybe, which would otherwise
// arrive wrapped in a slice.
func single(ns []parsec.ParsecNode) parsec.ParsecNode {
	if len(ns) == 1 {
		return ns[0]
	}
	return ns
}

// header parses the header line found at offset at.
func (doc *Document) header(line string, at int) *Passage {
	p := &Passage{Header: line, HeaderAt: at}
	body := line[len(headerMarker):]
	base := at + len(headerMarker)
	if len(body) > maxHeaderLength {
		doc.errorf(at, at+len(line), "Passage header is too long")
		return p
	}

	s := parsec.NewScanner([]byte(body))
	root, s := headerGrammar(s)
	nodes, _ := root.([]parsec.ParsecNode)
	for _, node := range nodes {
		term, ok := node.(*parsec.Terminal)
		if !ok {
			continue
		}
		value := strings.TrimLeft(term.Value, " \t")
		start := base + term.Position + len(term.Value) - len(value)
		switch term.Name {
		case nodeName:
			raw := strings.TrimRight(value, " \t")
			p.Name = unescape(raw)
			p.NameAt = start
			p.NameEnd = start + len(raw)
		case nodeTags:
			p.Tags = strings.Fields(unescape(value[1 : len(value)-1]))
		case nodeMetadata:
			if err := json.Unmarshal([]byte(value), &p.Metadata); err != nil {
				doc.errorf(start, start+len(value), "Malformed passage metadata: %v", err)
			}
		}
	}
	if p.Name == "" {
		p.NameAt, p.NameEnd = base, base
		doc.errorf(at, at+len(line), "Passage name is missing")
	}
	if _, s = s.SkipWS(); !s.Endof() {
		cursor := s.GetCursor()
		rest := body[cursor:]
		msg := "Malformed passage header"
		switch rest[0] {
		case '[':
			msg = "Passage tags are missing a closing ']'"
		case '{':
			msg = "Passage metadata is missing a closing '}'"
		}
		doc.errorf(base+cursor, at+len(line), "%s", msg)
	}
	return p
}

// unescape removes the backslashes that escape characters in names and
// tags.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// StoryInfo is the content of the StoryData passage.
type StoryInfo struct {
	IFID          string `json:"ifid"`
	Format        string `json:"format"`
	FormatVersion string `json:"format-version"`
	Start         string `json:"start"`
}

// ParseStoryData decodes the JSON text of a StoryData passage.
func ParseStoryData(text string) (*StoryInfo, error) {
	var info StoryInfo
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		return nil, fmt.Errorf("malformed StoryData: %w", err)
	}
	return &info, nil
}
