// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentReferences handles the textDocument/references request.  It
// finds references of the same kind and name across the workspace.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)
	lines, res := doc.snapshot()
	sym, ok := symbolAt(res, byteOffset(lines, params.Position))
	if !ok {
		return nil, nil
	}
	locs := s.workspace.References(sym.Kind, sym.Name)
	if sym.Kind == events.KindPassage && params.Context.IncludeDeclaration {
		locs = append(s.workspace.PassageDefinitions(sym.Name), locs...)
	}
	return s.locations(locs), nil
}
