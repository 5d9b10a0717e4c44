// Copyright © 2024 The ELPS authors

// Package diagnostic renders Twee diagnostics as annotated source snippets
// for command line output.
package diagnostic

import (
	"sort"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/token"
	"github.com/sgranade/twine-twee-language-sub001/parser/twee"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight in the diagnostic.
// A span may cover several lines, as an unclosed container or a malformed
// StoryData passage does.
type Span struct {
	File    string // path for reading source; display name if unreadable
	Passage string // name of the enclosing passage, if any
	Line    int    // 1-based line number
	Col     int    // 1-based start column, in runes
	EndLine int    // 1-based last line (0 = Line)
	EndCol  int    // 1-based end column on the last line (0 = auto-detect from source)
	Label   string // text shown under the underline
}

// lastLine returns the last line the span covers.
func (s Span) lastLine() int {
	if s.EndLine > s.Line {
		return s.EndLine
	}
	return s.Line
}

// Diagnostic represents a single error, warning, or note with optional
// source annotations and trailing notes.
type Diagnostic struct {
	Severity Severity
	Message  string
	Spans    []Span
	Notes    []string
}

// FromEvents converts scanner diagnostics for the document text, read from
// file, into renderable diagnostics ordered by position.  Each span names
// the passage its range starts in.
func FromEvents(file, text string, ds []events.Diagnostic) []Diagnostic {
	sorted := make([]events.Diagnostic, len(ds))
	copy(sorted, ds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start < sorted[j].Range.Start
	})

	idx := token.NewLineIndex(text)
	passages := twee.Parse(text).Passages
	out := make([]Diagnostic, 0, len(sorted))
	for _, d := range sorted {
		start := idx.Location(file, d.Range.Start)
		span := Span{
			File:    file,
			Passage: passageAt(passages, d.Range.Start),
			Line:    start.Line,
			Col:     start.Col,
			EndCol:  start.Col,
		}
		if end := trimEnd(text, d.Range); end > start.Pos {
			loc := idx.Location(file, end)
			span.EndCol = loc.Col - 1
			if loc.Line > start.Line {
				span.EndLine = loc.Line
			}
		}
		out = append(out, Diagnostic{
			Severity: severity(d.Severity),
			Message:  d.Message,
			Spans:    []Span{span},
		})
	}
	return out
}

// trimEnd returns the end of r within text, less any trailing line breaks.
func trimEnd(text string, r events.Range) int {
	end := r.End
	if end > len(text) {
		end = len(text)
	}
	for end > r.Start && end > 0 && (text[end-1] == '\n' || text[end-1] == '\r') {
		end--
	}
	return end
}

// passageAt returns the name of the passage whose header precedes offset.
func passageAt(passages []*twee.Passage, offset int) string {
	name := ""
	for _, p := range passages {
		if p.HeaderAt > offset {
			break
		}
		name = p.Name
	}
	return name
}

func severity(s events.Severity) Severity {
	switch s {
	case events.SeverityError:
		return SeverityError
	case events.SeverityWarning:
		return SeverityWarning
	default:
		return SeverityNote
	}
}

// Count returns the number of diagnostics with each severity.
func Count(ds []Diagnostic) map[Severity]int {
	counts := make(map[Severity]int)
	for _, d := range ds {
		counts[d.Severity]++
	}
	return counts
}
