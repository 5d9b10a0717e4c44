// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol
// request.  Each passage is a symbol spanning its header and text.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)
	lines, res := doc.snapshot()
	if res == nil {
		return nil, nil
	}

	symbols := make([]protocol.DocumentSymbol, 0, len(res.Passages))
	for _, p := range res.Passages {
		if p.Name == "" {
			continue
		}
		var detail *string
		if len(p.Tags) > 0 {
			detail = strPtr(strings.Join(p.Tags, " "))
		}
		end := trimmedEnd(p.Text, p.TextAt)
		if end < p.NameEnd {
			end = p.NameEnd
		}
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           p.Name,
			Detail:         detail,
			Kind:           protocol.SymbolKindClass,
			Range:          lspRange(lines, p.HeaderAt, end),
			SelectionRange: lspRange(lines, p.NameAt, p.NameEnd),
		})
	}
	return symbols, nil
}

// trimmedEnd returns the offset just past the last non-blank character of
// text, which starts at offset at.
func trimmedEnd(text string, at int) int {
	return at + len(strings.TrimRight(text, " \t\r\n"))
}
