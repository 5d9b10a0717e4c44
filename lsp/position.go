// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/sgranade/twine-twee-language-sub001/analysis"
	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/token"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// lspPosition converts a byte offset to an LSP position.
func lspPosition(idx *token.LineIndex, offset int) protocol.Position {
	line, char := idx.Position(offset)
	return protocol.Position{Line: safeUint(line), Character: safeUint(char)}
}

// lspRange converts a span of byte offsets to an LSP range.
func lspRange(idx *token.LineIndex, start, end int) protocol.Range {
	return protocol.Range{Start: lspPosition(idx, start), End: lspPosition(idx, end)}
}

// byteOffset converts an LSP position to a byte offset.
func byteOffset(idx *token.LineIndex, pos protocol.Position) int {
	return idx.Offset(int(pos.Line), int(pos.Character))
}

// symbol is a named entity found at a position.
type symbol struct {
	Kind  events.SymbolKind
	Name  string
	Start int
	End   int
}

// symbolAt returns the reference or passage header name at offset.  The
// cursor can be inside or at the end of the name.
func symbolAt(res *analysis.Result, offset int) (symbol, bool) {
	if res == nil {
		return symbol{}, false
	}
	for _, ref := range res.References {
		end := analysis.RefEnd(ref)
		if offset >= ref.At && offset <= end {
			return symbol{Kind: ref.Kind, Name: ref.Contents, Start: ref.At, End: end}, true
		}
	}
	for _, p := range res.Passages {
		if p.Name != "" && offset >= p.NameAt && offset <= p.NameEnd {
			return symbol{Kind: events.KindPassage, Name: p.Name, Start: p.NameAt, End: p.NameEnd}, true
		}
	}
	return symbol{}, false
}

// propertyName returns the last component of a property's contents.
func propertyName(contents string) string {
	if i := strings.LastIndexByte(contents, '.'); i >= 0 {
		return contents[i+1:]
	}
	return contents
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	return analysis.URIPath(uri)
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
