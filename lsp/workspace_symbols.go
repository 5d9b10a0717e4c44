// Copyright © 2024 The ELPS authors

package lsp

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// workspaceSymbol handles the workspace/symbol request.  It returns the
// passages across the workspace whose names fuzzily match the query,
// closest first.  An empty query returns every passage.
func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	s.ensureWorkspaceIndex()

	type match struct {
		info     protocol.SymbolInformation
		distance int
	}
	var matches []match
	for _, uri := range s.workspace.URIs() {
		res := s.workspace.Get(uri)
		if res == nil {
			continue
		}
		lines := s.lineIndex(uri)
		for _, p := range res.Passages {
			if p.Name == "" {
				continue
			}
			distance := 0
			if params.Query != "" {
				distance = fuzzy.RankMatchFold(params.Query, p.Name)
				if distance < 0 {
					continue
				}
			}
			matches = append(matches, match{
				info: protocol.SymbolInformation{
					Name: p.Name,
					Kind: protocol.SymbolKindClass,
					Location: protocol.Location{
						URI:   uri,
						Range: lspRange(lines, p.NameAt, p.NameEnd),
					},
				},
				distance: distance,
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})
	results := make([]protocol.SymbolInformation, len(matches))
	for i, m := range matches {
		results[i] = m.info
	}
	return results, nil
}
