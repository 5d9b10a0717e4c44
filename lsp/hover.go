// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/twee"
	"github.com/sgranade/twine-twee-language-sub001/sugarcube"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// hoverPreviewLines limits the passage text shown when hovering a link.
const hoverPreviewLines = 5

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
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

	var content string
	switch sym.Kind {
	case events.KindMacro:
		content = macroHover(s.macros().Get(sym.Name), sym.Name)
	case events.KindPassage:
		content = s.passageHover(sym.Name)
	case events.KindVariable:
		content = variableHover(sym.Name)
	case events.KindProperty:
		content = fmt.Sprintf("property `%s` of `%s`", propertyName(sym.Name),
			strings.TrimSuffix(sym.Name, "."+propertyName(sym.Name)))
	}
	if content == "" {
		return nil, nil
	}
	r := lspRange(lines, sym.Start, sym.End)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: content,
		},
		Range: &r,
	}, nil
}

// macroHover describes a macro in markdown.
func macroHover(info *sugarcube.MacroInfo, name string) string {
	if info == nil {
		return fmt.Sprintf("`<<%s>>`\n\nUnrecognized macro.", name)
	}
	var b strings.Builder
	if info.Arguments != nil && info.Arguments.Schema != nil {
		b.WriteString("```\n")
		for _, v := range info.Arguments.Schema.Variants {
			fmt.Fprintf(&b, "<<%s %s>>\n", info.Name, v.Text)
		}
		b.WriteString("```\n")
	} else {
		fmt.Fprintf(&b, "`<<%s>>`\n", info.Name)
	}
	if info.Container {
		fmt.Fprintf(&b, "\nContainer, closed by `<</%s>>`.\n", info.Name)
	}
	if len(info.Parents) > 0 {
		names := make([]string, len(info.Parents))
		for i, p := range info.Parents {
			names[i] = "`<<" + p.Name + ">>`"
		}
		fmt.Fprintf(&b, "\nMust be inside %s.\n", strings.Join(names, " or "))
	}
	if info.Description != "" {
		b.WriteString("\n" + info.Description + "\n")
	}
	for _, v := range []struct{ label, version string }{
		{"Since", info.Since},
		{"Deprecated in", info.Deprecated},
		{"Removed in", info.Removed},
	} {
		if v.version != "" {
			fmt.Fprintf(&b, "\n*%s SugarCube %s*\n", v.label, v.version)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// passageHover shows the tags and opening lines of the passages named
// name.
func (s *Server) passageHover(name string) string {
	var p *twee.Passage
	for _, uri := range s.workspace.URIs() {
		if res := s.workspace.Get(uri); res != nil {
			for _, candidate := range res.Passages {
				if candidate.Name == name {
					p = candidate
					break
				}
			}
		}
		if p != nil {
			break
		}
	}
	if p == nil {
		return fmt.Sprintf("Passage **%s**\n\nNo passage with this name exists.", name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Passage **%s**", p.Name)
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(p.Tags, " "))
	}
	text := strings.TrimSpace(p.Text)
	if text != "" {
		preview := strings.SplitN(text, "\n", hoverPreviewLines+1)
		if len(preview) > hoverPreviewLines {
			preview = append(preview[:hoverPreviewLines], "…")
		}
		b.WriteString("\n\n```\n" + strings.Join(preview, "\n") + "\n```")
	}
	return b.String()
}

func variableHover(name string) string {
	if strings.HasPrefix(name, "_") {
		return fmt.Sprintf("temporary variable `%s`", name)
	}
	return fmt.Sprintf("story variable `%s`", name)
}
