// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/sgranade/twine-twee-language-sub001/analysis"
	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/token"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDefinition handles the textDocument/definition request.  A
// passage reference resolves to the headers of the passages it names.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)
	lines, res := doc.snapshot()
	sym, ok := symbolAt(res, byteOffset(lines, params.Position))
	if !ok || sym.Kind != events.KindPassage {
		return nil, nil
	}
	locs := s.locations(s.workspace.PassageDefinitions(sym.Name))
	if len(locs) == 0 {
		return nil, nil
	}
	return locs, nil
}

// locations converts workspace locations to LSP locations.
func (s *Server) locations(locs []analysis.Location) []protocol.Location {
	indexes := make(map[string]*token.LineIndex)
	out := make([]protocol.Location, 0, len(locs))
	for _, loc := range locs {
		idx, ok := indexes[loc.URI]
		if !ok {
			idx = s.lineIndex(loc.URI)
			indexes[loc.URI] = idx
		}
		if idx == nil {
			continue
		}
		out = append(out, protocol.Location{URI: loc.URI, Range: lspRange(idx, loc.Start, loc.End)})
	}
	return out
}

// lineIndex returns the line index of an indexed document, preferring the
// open document's content.
func (s *Server) lineIndex(uri string) *token.LineIndex {
	if doc := s.docs.Get(uri); doc != nil {
		lines, _ := doc.snapshot()
		return lines
	}
	if res := s.workspace.Get(uri); res != nil {
		return token.NewLineIndex(res.Text)
	}
	return nil
}
