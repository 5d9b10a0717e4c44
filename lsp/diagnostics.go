// Copyright © 2024 The ELPS authors

package lsp

import (
	"context"
	"os"
	"time"

	"github.com/sgranade/twine-twee-language-sub001/analysis"
	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/token"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const (
	debounceDelay    = 300 * time.Millisecond
	diagnosticSource = "tweels"
)

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version), // #nosec G115 -- versions are small
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version), // #nosec G115 -- versions are small
		content,
	)

	// Debounce: delay analysis to avoid thrashing during rapid edits.
	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(debounceDelay, func() {
		defer func() { _ = recover() }() // don't crash the server on analysis panic
		d := s.docs.Get(doc.URI)
		if d != nil {
			s.analyzeAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	// Cancel any pending debounce and publish immediately.
	s.cancelDebounce(params.TextDocument.URI)

	doc := s.docs.Get(params.TextDocument.URI)
	if doc != nil {
		s.analyzeAndPublish(doc)
	}
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.cancelDebounce(uri)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(uri)

	// The index falls back to the file on disk, if there is one.
	go func() {
		defer func() { _ = recover() }() // don't crash on update panic
		s.indexFile(uriToPath(uri))
	}()
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// indexFile re-analyzes a Twee file from disk unless it is open.  Files
// which no longer exist are removed from the index.
func (s *Server) indexFile(path string) {
	uri := analysis.PathURI(path)
	if s.docs.Get(uri) != nil {
		return
	}
	src, err := os.ReadFile(path) //nolint:gosec // paths come from the workspace
	if err != nil {
		s.workspace.Remove(uri)
		return
	}
	res, err := analysis.Analyze(context.Background(), uri, string(src), s.analysisConfig())
	if err == nil {
		s.workspace.Update(res)
	}
}

// analyzeAndPublish analyzes a document and publishes the resulting
// diagnostics to the client.
func (s *Server) analyzeAndPublish(doc *Document) {
	res := s.ensureAnalysis(doc)
	lines, _ := doc.snapshot()
	if res == nil || lines == nil {
		return
	}

	diags := make([]protocol.Diagnostic, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		diags = append(diags, convertDiagnostic(lines, d))
	}
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Diagnostics: diags,
	})
}

// convertDiagnostic converts an analysis diagnostic to an LSP Diagnostic.
func convertDiagnostic(lines *token.LineIndex, d events.Diagnostic) protocol.Diagnostic {
	sev := mapSeverity(d.Severity)
	return protocol.Diagnostic{
		Range:    lspRange(lines, d.Range.Start, d.Range.End),
		Severity: &sev,
		Source:   strPtr(diagnosticSource),
		Message:  d.Message,
	}
}

// mapSeverity converts an events.Severity to a protocol.DiagnosticSeverity.
func mapSeverity(sev events.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case events.SeverityError:
		return protocol.DiagnosticSeverityError
	case events.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case events.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}

func strPtr(s string) *string {
	return &s
}
