// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"regexp"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var (
	suggestionMessage = regexp.MustCompile(`did you mean <<([^>]+)>>\?$`)
	endMacroMessage   = regexp.MustCompile(`^<<end([\w-]+)>> is deprecated; use <</([\w-]+)>> instead$`)
)

// textDocumentCodeAction handles the textDocument/codeAction request.
// It returns quick-fix actions for diagnostics in the requested range.
func (s *Server) textDocumentCodeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	// If the client only wants specific kinds, check we support them.
	if len(params.Context.Only) > 0 {
		if !slicesContains(params.Context.Only, protocol.CodeActionKindQuickFix) {
			return nil, nil
		}
	}

	var actions []protocol.CodeAction
	for _, diag := range params.Context.Diagnostics {
		if diag.Source == nil || *diag.Source != diagnosticSource {
			continue
		}
		if m := suggestionMessage.FindStringSubmatch(diag.Message); m != nil {
			actions = append(actions, replaceAction(params.TextDocument.URI, diag,
				fmt.Sprintf("Change to <<%s>>", m[1]), m[1]))
		}
		if m := endMacroMessage.FindStringSubmatch(diag.Message); m != nil {
			closing := "<</" + m[2] + ">>"
			actions = append(actions, replaceAction(params.TextDocument.URI, diag,
				"Replace with "+closing, closing))
		}
	}

	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

// replaceAction returns a quick fix replacing the range of diag.
func replaceAction(uri string, diag protocol.Diagnostic, title, text string) protocol.CodeAction {
	kind := protocol.CodeActionKindQuickFix
	return protocol.CodeAction{
		Title:       title,
		Kind:        &kind,
		Diagnostics: []protocol.Diagnostic{diag},
		IsPreferred: boolPtr(true),
		Edit: &protocol.WorkspaceEdit{
			Changes: map[string][]protocol.TextEdit{
				uri: {{Range: diag.Range, NewText: text}},
			},
		},
	}
}

func slicesContains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
