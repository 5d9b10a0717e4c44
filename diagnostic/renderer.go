// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Renderer formats diagnostics as Rust-style annotated source snippets.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	p := choosePalette(r.Color, w)
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}

	// Header: "error: message" or "warning: message"
	r.writeHeader(ew, d, p)

	// Source spans
	for _, span := range d.Spans {
		r.writeSpan(ew, span, p)
	}

	// Notes
	for _, note := range d.Notes {
		ew.printf("   %s note: %s\n", p.boldCyan.Sprint("="), note)
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// errWriter wraps a writer and captures the first error, short-circuiting
// subsequent writes. This avoids checking every fmt.Fprintf return value.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (r *Renderer) writeHeader(ew *errWriter, d Diagnostic, p palette) {
	sev := p.boldRed
	switch d.Severity {
	case SeverityWarning:
		sev = p.yellow
	case SeverityNote:
		sev = p.boldCyan
	}
	ew.printf("%s: %s\n", sev.Sprint(d.Severity.String()), p.bold.Sprint(d.Message))
}

// maxSpanLines is the most source lines shown for one span; longer spans
// elide their middle.
const maxSpanLines = 4

func (r *Renderer) writeSpan(ew *errWriter, span Span, p palette) {
	ew.printf("  %s %s\n", p.boldBlue.Sprint("-->"), span.location())

	lines := r.readSource(span.File)
	if span.Line <= 0 || span.Line > len(lines) {
		ew.printf("   %s\n", p.boldBlue.Sprint("|"))
		return
	}
	last := span.lastLine()
	if last > len(lines) {
		last = len(lines)
	}
	width := len(strconv.Itoa(last))
	gutter := p.boldBlue.Sprint(strings.Repeat(" ", width) + " |")

	ew.printf(" %s\n", gutter)
	for n := span.Line; n <= last; n++ {
		if last-span.Line >= maxSpanLines && n == span.Line+maxSpanLines-2 {
			ew.printf(" %s\n", p.boldBlue.Sprint(fmt.Sprintf("%*s", width+2, "...")))
			n = last - 1
			continue
		}
		source := lines[n-1]
		ew.printf(" %s  %s\n", p.boldBlue.Sprint(fmt.Sprintf("%*d |", width, n)), strings.ReplaceAll(source, "\t", "    "))

		from, to := r.markedColumns(span, n, source)
		if to < from {
			continue
		}
		runes := []rune(source)
		prefix := ""
		if from-1 <= len(runes) {
			prefix = string(runes[:from-1])
		}
		ew.printf(" %s  %s%s", gutter, strings.Repeat(" ", displayWidth(prefix)), p.boldRed.Sprint(strings.Repeat("^", to-from+1)))
		if n == last && span.Label != "" {
			ew.printf(" %s", p.boldRed.Sprint(span.Label))
		}
		ew.print("\n")
	}
	ew.printf(" %s\n", gutter)
}

// location formats "file:line:col", naming the passage when known.
func (s Span) location() string {
	loc := s.File
	if s.Line > 0 {
		loc = fmt.Sprintf("%s:%d", s.File, s.Line)
		if s.Col > 0 {
			loc = fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
		}
	}
	if s.Passage != "" {
		loc = fmt.Sprintf("%s in passage %q", loc, s.Passage)
	}
	return loc
}

// markedColumns returns the 1-based rune columns of source, line n of the
// span, to underline.  Inner lines of a multi-line span are marked whole.
func (r *Renderer) markedColumns(span Span, n int, source string) (from, to int) {
	from, to = 1, utf8.RuneCountInString(source)
	last := span.lastLine()
	if n == span.Line {
		from = span.Col
		if from <= 0 {
			from = 1
		}
	}
	if n == last {
		to = span.EndCol
		if to <= 0 {
			to = r.detectEndCol(source, from)
		}
	}
	if last == span.Line && to < from {
		to = from
	}
	return from, to
}

// readSource returns the lines of file, or nil when it cannot be read.
func (r *Renderer) readSource(file string) []string {
	if file == "" {
		return nil
	}
	reader := r.SourceReader
	if reader == nil {
		reader = func(name string) ([]byte, error) {
			return os.ReadFile(name) //nolint:gosec // reads user-specified source files for display
		}
	}
	data, err := reader(file)
	if err != nil {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// detectEndCol finds the end of the word starting at the 1-based rune
// column col.
func (r *Renderer) detectEndCol(source string, col int) int {
	runes := []rune(source)
	if col <= 0 || col > len(runes) {
		return col
	}
	end := col - 1
	for end < len(runes) && !strings.ContainsRune(" \t<>[]|", runes[end]) {
		end++
	}
	if end == col-1 {
		return col
	}
	return end
}

// displayWidth returns the display width of a string, expanding tabs to 4 spaces.
func displayWidth(s string) int {
	w := 0
	for _, ch := range s {
		if ch == '\t' {
			w += 4
		} else {
			w++
		}
	}
	return w
}
