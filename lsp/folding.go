// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/sgranade/twine-twee-language-sub001/analysis"
	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/token"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// Passages and multi-line comments fold.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)
	lines, res := doc.snapshot()
	if res == nil {
		return nil, nil
	}
	return foldingRanges(lines, res), nil
}

func foldingRanges(lines *token.LineIndex, res *analysis.Result) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange
	add := func(start, end int, kind string) {
		startLine, _ := lines.Position(start)
		endLine, _ := lines.Position(end)
		if endLine <= startLine {
			return
		}
		ranges = append(ranges, protocol.FoldingRange{
			StartLine: safeUint(startLine),
			EndLine:   safeUint(endLine),
			Kind:      strPtr(kind),
		})
	}
	for _, p := range res.Passages {
		add(p.HeaderAt, trimmedEnd(p.Text, p.TextAt), string(protocol.FoldingRangeKindRegion))
	}
	for _, tok := range res.Tokens {
		if tok.Type == events.TokenComment {
			add(tok.At, tok.End(), string(protocol.FoldingRangeKindComment))
		}
	}
	return ranges
}
