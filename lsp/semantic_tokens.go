// Copyright © 2024 The ELPS authors

package lsp

import (
	"sort"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/token"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// semanticTokenLegend returns the legend that the client uses to decode
// tokens.  Indices follow events.TokenType and the modifier bits follow
// events.Modifier.
func semanticTokenLegend() protocol.SemanticTokensLegend {
	return protocol.SemanticTokensLegend{
		TokenTypes:     events.TokenTypeNames(),
		TokenModifiers: events.ModifierNames(),
	}
}

// rawToken is an intermediate representation before delta encoding.
type rawToken struct {
	line      int // 0-based
	startChar int // 0-based, in UTF-16 code units
	length    int
	tokenType int
	modifiers int
}

// textDocumentSemanticTokensFull handles the textDocument/semanticTokens/full request.
func (s *Server) textDocumentSemanticTokensFull(_ *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)
	lines, res := doc.snapshot()
	if res == nil {
		return nil, nil
	}
	return &protocol.SemanticTokens{Data: deltaEncode(rawTokens(lines, res.Tokens))}, nil
}

// rawTokens orders tokens by position and splits those spanning several
// lines, since clients do not support multi-line tokens.  Tokens which
// overlap an earlier token are dropped.
func rawTokens(lines *token.LineIndex, toks []events.SemanticToken) []rawToken {
	sorted := make([]events.SemanticToken, len(toks))
	copy(sorted, toks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At < sorted[j].At
	})

	var out []rawToken
	prevEnd := 0
	for _, tok := range sorted {
		if tok.At < prevEnd || tok.Text == "" {
			continue
		}
		prevEnd = tok.End()
		startLine, startChar := lines.Position(tok.At)
		endLine, endChar := lines.Position(tok.End())
		for line := startLine; line <= endLine; line++ {
			from := 0
			if line == startLine {
				from = startChar
			}
			to := endChar
			if line < endLine {
				// Up to the end of the line, excluding the line break.
				_, to = lines.Position(lines.Offset(line+1, 0) - 1)
			}
			if to <= from {
				continue
			}
			out = append(out, rawToken{
				line:      line,
				startChar: from,
				length:    to - from,
				tokenType: int(tok.Type),
				modifiers: int(tok.Modifiers),
			})
		}
	}
	return out
}

// deltaEncode converts sorted tokens to the LSP relative encoding.
func deltaEncode(tokens []rawToken) []protocol.UInteger {
	data := make([]protocol.UInteger, 0, len(tokens)*5)
	prevLine := 0
	prevChar := 0
	for _, tok := range tokens {
		deltaLine := tok.line - prevLine
		deltaChar := tok.startChar
		if deltaLine == 0 {
			deltaChar = tok.startChar - prevChar
		}
		data = append(data,
			safeUint(deltaLine),
			safeUint(deltaChar),
			safeUint(tok.length),
			safeUint(tok.tokenType),
			safeUint(tok.modifiers),
		)
		prevLine = tok.line
		prevChar = tok.startChar
	}
	return data
}
