// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/lexer"
)

// Mapping records one substitution made by Desugar.  The original text
// OriginalText at OriginalStart was replaced by the text at
// [NewStart, NewEnd) of the desugared expression.
type Mapping struct {
	OriginalStart int
	OriginalText  string
	NewStart      int
	NewEnd        int
}

var wordOperators = map[string]string{
	"to":    "=",
	"eq":    "==",
	"neq":   "!=",
	"is":    "===",
	"isnot": "!==",
	"gt":    ">",
	"gte":   ">=",
	"lt":    "<",
	"lte":   "<=",
	"and":   "&&",
	"or":    "||",
	"not":   "!",
	"def":   `"undefined" !== typeof`,
	"ndef":  `"undefined" === typeof`,
}

// sugarPattern matches, in order of preference: quoted strings, which are
// copied untouched; sigil variables; word operators; and plain
// identifiers, which are consumed whole so that operator words inside
// them are not matched.
var sugarPattern = regexp.MustCompile(
	`"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'|` + "`(?:\\\\.|[^`\\\\])*`" +
		`|([$_][$A-Za-z_][$\w]*)` +
		`|\b(isnot|is|neq|eq|gte|gt|lte|lt|to|and|or|not|ndef|def)\b` +
		`|[A-Za-z_$][$\w]*`)

// Desugar rewrites SugarCube expression sugar into plain JavaScript.
// Sigil variables lose their sigil and word operators become their
// JavaScript equivalents.  Text inside quotes and names following a '.'
// are left alone.  The returned mappings are in ascending order.
func Desugar(text string) (string, []Mapping) {
	var b strings.Builder
	var mappings []Mapping
	last := 0
	for _, loc := range sugarPattern.FindAllStringSubmatchIndex(text, -1) {
		var replacement string
		switch {
		case loc[2] >= 0:
			replacement = text[loc[2]+1 : loc[3]]
		case loc[4] >= 0:
			replacement = wordOperators[text[loc[4]:loc[5]]]
		default:
			continue
		}
		if loc[0] > 0 && text[loc[0]-1] == '.' {
			continue
		}
		b.WriteString(text[last:loc[0]])
		start := b.Len()
		b.WriteString(replacement)
		mappings = append(mappings, Mapping{
			OriginalStart: loc[0],
			OriginalText:  text[loc[0]:loc[1]],
			NewStart:      start,
			NewEnd:        b.Len(),
		})
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String(), mappings
}

// restorer maps desugared offsets back onto the original text.
type restorer []Mapping

// restore returns the original offset for desugared offset d.  When d is
// the start of a substitution, m is that substitution.  ok is false when d
// falls inside text invented by a substitution.
func (r restorer) restore(d int) (pos int, m *Mapping, ok bool) {
	i := sort.Search(len(r), func(i int) bool { return r[i].NewStart > d }) - 1
	if i < 0 {
		return d, nil, true
	}
	m = &r[i]
	switch {
	case d == m.NewStart:
		return m.OriginalStart, m, true
	case d < m.NewEnd:
		return 0, nil, false
	}
	return d + m.OriginalStart + len(m.OriginalText) - m.NewEnd, nil, true
}

// Tokenizer lexes a plain expression.
type Tokenizer func(text string, offset int) *lexer.Result

// TokenizeExpression desugars text, tokenizes it and reports the results
// at their positions in text, offset by offset.  Tokens which stand for a
// substitution are reported with their original spelling; word operators
// are reported as operators.
func TokenizeExpression(text string, offset int, tokenize Tokenizer) *lexer.Result {
	if tokenize == nil {
		tokenize = lexer.Tokenize
	}
	plain, mappings := Desugar(text)
	raw := tokenize(plain, 0)
	r := restorer(mappings)
	res := &lexer.Result{}

	// Restored variables, by desugared position, for scope rewriting.
	restored := make(map[int]lexer.Label)
	for _, lab := range raw.Variables {
		pos, m, ok := r.restore(lab.At)
		if !ok {
			continue
		}
		out := lexer.Label{Text: lab.Text, At: pos + offset}
		if m != nil {
			out.Text = m.OriginalText
		}
		restored[lab.At] = out
		res.Variables = append(res.Variables, out)
	}
	for _, lab := range raw.Properties {
		pos, m, ok := r.restore(lab.At)
		if !ok {
			continue
		}
		out := lexer.Label{Text: lab.Text, At: pos + offset, Scope: lab.Scope}
		if m != nil {
			out.Text = m.OriginalText
		}
		out.Scope = rewriteScope(lab, raw.Variables, restored)
		res.Properties = append(res.Properties, out)
	}
	for _, tok := range raw.Tokens {
		pos, m, ok := r.restore(tok.At)
		if !ok {
			continue
		}
		out := events.SemanticToken{Text: tok.Text, At: pos + offset, Type: tok.Type, Modifiers: tok.Modifiers}
		if m != nil {
			out.Text = m.OriginalText
			if _, isOp := wordOperators[m.OriginalText]; isOp {
				out.Type = events.TokenOperator
			}
		}
		res.Tokens = append(res.Tokens, out)
	}
	return res
}

// rewriteScope replaces the root of a property's scope with the spelling
// of the variable it was derived from.  The root is the nearest preceding
// variable whose desugared text matches.
func rewriteScope(prop lexer.Label, vars []lexer.Label, restored map[int]lexer.Label) string {
	if prop.Scope == "" {
		return ""
	}
	root, rest := prop.Scope, ""
	if i := strings.IndexByte(root, '.'); i >= 0 {
		root, rest = root[:i], root[i:]
	}
	for i := len(vars) - 1; i >= 0; i-- {
		v := vars[i]
		if v.At >= prop.At || v.Text != root {
			continue
		}
		if orig, ok := restored[v.At]; ok {
			return orig.Text + rest
		}
		break
	}
	return prop.Scope
}
