// Copyright © 2024 The ELPS authors

package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/sgranade/twine-twee-language-sub001/diagnostic"
	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/spf13/viper"
)

func colorMode() diagnostic.ColorMode {
	mode, _ := diagnostic.ParseColorMode(viper.GetString(keyColor))
	return mode
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// fileReport holds the diagnostics found in one file.
type fileReport struct {
	Path        string
	Text        string
	Diagnostics []events.Diagnostic
}

// jsonDiagnostic is the --json form of a diagnostic.  Lines and columns
// are 1-based; columns count runes.
type jsonDiagnostic struct {
	File     string `json:"file"`
	Passage  string `json:"passage,omitempty"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	EndLine  int    `json:"end_line,omitempty"`
	EndCol   int    `json:"end_col,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// renderDiagnostics writes the reports as annotated source snippets.
func renderDiagnostics(w io.Writer, reports []fileReport) error {
	var ds []diagnostic.Diagnostic
	texts := make(map[string]string, len(reports))
	for _, rep := range reports {
		texts[rep.Path] = rep.Text
		ds = append(ds, diagnostic.FromEvents(rep.Path, rep.Text, rep.Diagnostics)...)
	}
	r := newRenderer()
	r.SourceReader = func(path string) ([]byte, error) {
		if text, ok := texts[path]; ok {
			return []byte(text), nil
		}
		return os.ReadFile(path) //nolint:gosec // paths come from the command line
	}
	return r.RenderAll(w, ds)
}

// formatJSON writes the reports as a JSON array.
func formatJSON(w io.Writer, reports []fileReport) error {
	out := []jsonDiagnostic{}
	for _, rep := range reports {
		for _, d := range diagnostic.FromEvents(rep.Path, rep.Text, rep.Diagnostics) {
			jd := jsonDiagnostic{
				File:     rep.Path,
				Severity: d.Severity.String(),
				Message:  d.Message,
			}
			if len(d.Spans) > 0 {
				span := d.Spans[0]
				jd.Passage = span.Passage
				jd.Line, jd.Col = span.Line, span.Col
				jd.EndLine, jd.EndCol = span.EndLine, span.EndCol
			}
			out = append(out, jd)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
