// Copyright © 2024 The ELPS authors

package params

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sgranade/twine-twee-language-sub001/parser/link"
	"github.com/sgranade/twine-twee-language-sub001/parser/token"
)

// Format says how a matched argument should be treated for highlighting
// and for symbol references.
type Format int

const (
	FormatUnknown Format = iota
	FormatKeyword
	FormatNumber
	FormatString
	FormatVariable
	FormatLink
	FormatReceiver
	FormatPassage
	FormatExpression
)

func (f Format) String() string {
	switch f {
	case FormatKeyword:
		return "keyword"
	case FormatNumber:
		return "number"
	case FormatString:
		return "string"
	case FormatVariable:
		return "variable"
	case FormatLink:
		return "link"
	case FormatReceiver:
		return "receiver"
	case FormatPassage:
		return "passage"
	case FormatExpression:
		return "expression"
	default:
		return "unknown"
	}
}

// Issue is a problem with one argument.  Index is the index of the
// offending token, or the number of tokens when an argument is missing.
type Issue struct {
	Index   int
	Message string
}

// Result is the outcome of validating arguments against a Spec.
type Result struct {
	// Formats has one entry per token.  Tokens that could not be matched
	// have FormatUnknown.
	Formats  []Format
	Errors   []Issue
	Warnings []Issue
	// Variant is the index of the matching variant, or of the variant
	// that came closest to matching.
	Variant int
}

// Validator checks argument tokens against a Spec.  The zero value is
// ready to use.
type Validator struct{}

var (
	variablePattern = regexp.MustCompile(`^[$_][$A-Za-z_][$\w]*(?:\.[$A-Za-z_][$\w]*|\[[^\]]*\])*$`)
	settingsPattern = regexp.MustCompile(`^(?:setup|settings)\.[$A-Za-z_]`)
)

// IsVariable reports whether a bareword names a story or temporary
// variable, possibly followed by property accesses.
func IsVariable(word string) bool {
	return variablePattern.MatchString(word)
}

// Validate matches toks against each variant of spec and returns the
// result for the first variant which matches completely.  When no variant
// matches, the result for the variant which matched the most arguments is
// returned.
func (Validator) Validate(spec *Spec, toks []*token.Token) *Result {
	var best *matcher
	for i, v := range spec.Variants {
		m := &matcher{toks: toks, formats: make([]Format, len(toks)), variant: i, failAt: -1}
		if m.match(v.Params, 0) {
			return m.result()
		}
		if best == nil || m.failAt > best.failAt {
			best = m
		}
	}
	if best == nil {
		res := &Result{Formats: make([]Format, len(toks))}
		if len(toks) > 0 {
			res.Errors = []Issue{{Index: 0, Message: "Too many arguments"}}
		}
		return res
	}
	return best.result()
}

type matcher struct {
	toks     []*token.Token
	formats  []Format
	warnings []Issue
	variant  int
	failAt   int
	failMsg  string
}

func (m *matcher) result() *Result {
	res := &Result{Formats: m.formats, Warnings: m.warnings, Variant: m.variant}
	if m.failMsg != "" {
		res.Errors = []Issue{{Index: m.failAt, Message: m.failMsg}}
		for i := m.failAt; i < len(res.Formats); i++ {
			res.Formats[i] = FormatUnknown
		}
	}
	return res
}

func (m *matcher) fail(at int, msg string) {
	if at > m.failAt {
		m.failAt = at
		m.failMsg = msg
	}
}

func (m *matcher) match(params []*Param, ti int) bool {
	if len(params) == 0 {
		if ti == len(m.toks) {
			m.failMsg = ""
			return true
		}
		m.fail(ti, "Too many arguments")
		return false
	}
	p := params[0]
	if len(p.Group) > 0 {
		seq := make([]*Param, 0, len(p.Group)+len(params)-1)
		seq = append(seq, p.Group...)
		seq = append(seq, params[1:]...)
		if m.match(seq, ti) {
			return true
		}
		if p.Optional {
			return m.match(params[1:], ti)
		}
		return false
	}
	if p.Variadic {
		j := ti
		for ; j < len(m.toks); j++ {
			f, ok := m.accept(p, j)
			if !ok {
				break
			}
			m.formats[j] = f
		}
		lowest := ti + 1
		if p.Optional {
			lowest = ti
		}
		for k := j; k >= lowest; k-- {
			if m.match(params[1:], k) {
				return true
			}
		}
		if j < lowest {
			m.fail(ti, "Missing required argument: expected "+p.describe())
		}
		return false
	}
	if ti < len(m.toks) {
		if f, ok := m.accept(p, ti); ok {
			m.formats[ti] = f
			if m.match(params[1:], ti+1) {
				return true
			}
		}
	}
	if p.Optional {
		return m.match(params[1:], ti)
	}
	if ti >= len(m.toks) {
		m.fail(ti, "Missing required argument: expected "+p.describe())
	}
	return false
}

// accept tries each alternative of p against toks[i].
func (m *matcher) accept(p *Param, i int) (Format, bool) {
	tok := m.toks[i]
	var msg string
	for _, alt := range p.Alts {
		f, err := check(alt, tok)
		if err == "" {
			if alt.Type == TypeBool && tok.Type == token.STRING {
				m.warnings = append(m.warnings, Issue{Index: i, Message: "Boolean given as a string; remove the quotes"})
			}
			return f, true
		}
		if msg == "" {
			msg = err
		}
	}
	if len(p.Alts) > 1 {
		msg = "Expected " + p.describe()
	}
	m.fail(i, msg)
	return FormatUnknown, false
}

// evaluated reports the format of an argument which SugarCube evaluates
// rather than reading literally, if tok is one.
func evaluated(tok *token.Token) (Format, bool) {
	switch tok.Type {
	case token.EXPRESSION:
		return FormatExpression, true
	case token.BAREWORD:
		if IsVariable(tok.Text) {
			return FormatVariable, true
		}
		if settingsPattern.MatchString(tok.Text) {
			return FormatExpression, true
		}
	}
	return FormatUnknown, false
}

func unquote(tok *token.Token) string {
	if tok.Type == token.STRING && len(tok.Text) >= 2 {
		return tok.Text[1 : len(tok.Text)-1]
	}
	return tok.Text
}

// check matches one token against one alternative.  It returns an error
// message when the token does not match.
func check(alt Alt, tok *token.Token) (Format, string) {
	if tok.Type == token.ERROR {
		return FormatUnknown, tok.Text
	}
	switch alt.Type {
	case TypeExpression:
		return FormatExpression, ""
	case TypeReceiver:
		return FormatReceiver, ""
	case TypeLiteral:
		if (tok.Type == token.BAREWORD || tok.Type == token.STRING) && unquote(tok) == alt.Literal {
			return FormatKeyword, ""
		}
		return FormatUnknown, "Expected '" + alt.Literal + "'"
	case TypeVar:
		if tok.Type == token.BAREWORD && IsVariable(tok.Text) {
			return FormatVariable, ""
		}
		return FormatUnknown, "Argument is not a variable"
	}
	if f, ok := evaluated(tok); ok {
		return f, ""
	}
	switch alt.Type {
	case TypeText:
		switch tok.Type {
		case token.STRING:
			return FormatString, ""
		case token.BAREWORD:
			if _, err := strconv.ParseFloat(tok.Text, 64); err == nil {
				return FormatNumber, ""
			}
			return FormatString, ""
		}
		return FormatExpression, ""
	case TypeNumber:
		if tok.Type == token.BAREWORD {
			if _, err := strconv.ParseFloat(tok.Text, 64); err == nil {
				return FormatNumber, ""
			}
		}
		return FormatUnknown, "Argument is not a number"
	case TypeBool:
		if w := unquote(tok); (tok.Type == token.BAREWORD || tok.Type == token.STRING) && (w == "true" || w == "false") {
			return FormatKeyword, ""
		}
		return FormatUnknown, "Argument is not a boolean"
	case TypeNull:
		if tok.Type == token.BAREWORD && tok.Text == "null" {
			return FormatKeyword, ""
		}
		return FormatUnknown, "Argument is not null"
	case TypeUndefined:
		if tok.Type == token.BAREWORD && tok.Text == "undefined" {
			return FormatKeyword, ""
		}
		return FormatUnknown, "Argument is not undefined"
	case TypePassage:
		if tok.Type == token.STRING || tok.Type == token.BAREWORD {
			if unquote(tok) == "" {
				return FormatUnknown, "Passage name is empty"
			}
			return FormatPassage, ""
		}
		return FormatUnknown, "Argument is not a passage name"
	case TypeLink, TypeLinkNoSetter:
		if tok.Type != token.SQUARE_BRACKET || !strings.HasPrefix(tok.Text, "[[") {
			return FormatUnknown, "Argument is not link markup"
		}
		m := link.Parse(tok.Text, 0)
		if m.Err != "" {
			return FormatUnknown, m.Err
		}
		if alt.Type == TypeLinkNoSetter && m.Setter != nil {
			return FormatUnknown, "Argument must not contain a setter component"
		}
		return FormatLink, ""
	}
	return FormatUnknown, "Unsupported argument"
}
