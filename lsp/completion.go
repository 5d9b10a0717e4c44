// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type completionKind int

const (
	completeNothing completionKind = iota
	completeMacro
	completePassage
	completeVariable
)

var (
	macroPrefix    = regexp.MustCompile(`<<\/?([A-Za-z][\w-]*)?$`)
	variablePrefix = regexp.MustCompile(`(?:^|[^\w$])([$_][\w$]*)$`)
)

// completionContext classifies the text before the cursor and returns the
// partial name being typed.
func completionContext(before string) (completionKind, string) {
	if m := macroPrefix.FindStringSubmatch(before); m != nil {
		return completeMacro, m[1]
	}
	if i := strings.LastIndex(before, "[["); i >= 0 && !strings.Contains(before[i:], "]]") {
		inner := before[i+2:]
		switch {
		case strings.Contains(inner, "|"):
			return completePassage, inner[strings.LastIndex(inner, "|")+1:]
		case strings.Contains(inner, "->"):
			return completePassage, inner[strings.LastIndex(inner, "->")+2:]
		case strings.Contains(inner, "<-"):
			return completeNothing, ""
		}
		return completePassage, inner
	}
	if m := variablePrefix.FindStringSubmatch(before); m != nil {
		return completeVariable, m[1]
	}
	return completeNothing, ""
}

// textDocumentCompletion handles the textDocument/completion request for
// macro names after "<<", passage names inside links and variables.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)
	doc.mu.Lock()
	content := doc.Content
	offset := byteOffset(doc.lines, params.Position)
	doc.mu.Unlock()

	lineStart := strings.LastIndexByte(content[:offset], '\n') + 1
	kind, prefix := completionContext(content[lineStart:offset])

	var items []protocol.CompletionItem
	switch kind {
	case completeMacro:
		reg := s.macros()
		for i, name := range fuzzyFilter(prefix, reg.Names()) {
			info := reg.Get(name)
			item := completionItem(name, protocol.CompletionItemKindFunction, i)
			if info.Description != "" {
				item.Detail = strPtr(firstSentence(info.Description))
			}
			item.Documentation = protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: macroHover(info, name),
			}
			items = append(items, item)
		}
	case completePassage:
		for i, name := range fuzzyFilter(prefix, s.workspace.PassageNames()) {
			items = append(items, completionItem(name, protocol.CompletionItemKindFile, i))
		}
	case completeVariable:
		for i, name := range fuzzyFilter(prefix, s.workspace.SymbolNames(events.KindVariable)) {
			items = append(items, completionItem(name, protocol.CompletionItemKindVariable, i))
		}
	}
	return items, nil
}

func completionItem(label string, kind protocol.CompletionItemKind, rank int) protocol.CompletionItem {
	return protocol.CompletionItem{
		Label:    label,
		Kind:     &kind,
		SortText: strPtr(fmt.Sprintf("%04d", rank)),
	}
}

// fuzzyFilter returns the candidates which fuzzily match prefix, closest
// first.
func fuzzyFilter(prefix string, candidates []string) []string {
	if prefix == "" {
		return candidates
	}
	ranks := fuzzy.RankFindFold(prefix, candidates)
	sort.Stable(ranks)
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}

func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return strings.TrimSpace(s)
}
