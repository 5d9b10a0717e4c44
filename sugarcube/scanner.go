// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/params"
	"github.com/sgranade/twine-twee-language-sub001/parser/args"
	"github.com/sgranade/twine-twee-language-sub001/parser/token"
	"golang.org/x/mod/semver"
)

// macroArgs matches the argument text of a macro: comments, quoted text and
// link markup may contain ">>" without ending the macro.
const macroArgs = `(?:/\*[^*]*\*+(?:[^/*][^*]*\*+)*/` +
	`|//.*\n` +
	"|`(?:\\\\.|[^`\\\\])*`" +
	`|"(?:\\.|[^"\\\n])*"` +
	`|'(?:\\.|[^'\\\n])*'` +
	`|\[(?:[<>]?[Ii][Mm][Gg])?\[[^\r\n]*?\]\]+` +
	`|[^>]|>[^>])*?`

// macroPattern finds macro tags.  The groups are the close prefix, the
// name, the arguments and the self-closing slash.
var macroPattern = regexp.MustCompile(`<<(/|end)?([A-Za-z][\w-]*|[=-])\s*(` + macroArgs + `)(/)?>>`)

// frame is an open container macro.
type frame struct {
	name     string
	offset   int    // offset of the opening "<<"
	fullText string // the opening tag
	id       int
	children []Child
}

// childKey identifies a count of one child macro name inside one frame.
type childKey struct {
	frame int
	name  string
}

// tag is one macro tag found by macroPattern.  Offsets are absolute.
type tag struct {
	at, end  int
	fullText string
	prefix   string
	name     string
	nameAt   int
	nameEnd  int // end of the name as written, including an "end" prefix
	args     string
	argsAt   int
	slash    bool

	closing         bool
	deprecatedClose bool
}

type scanner struct {
	ctx      *Context
	stack    []*frame
	children map[childKey]int
	nextID   int
}

// ParseMacros scans text, found at offset in its document, for SugarCube
// macros.  It reports macro references, argument contents and structural
// problems to l, and returns text with every macro tag blanked.
func ParseMacros(text string, offset int, st *State, l events.Listener) string {
	ctx := newContext(text, offset, st, l)
	scanMacros(ctx, text)
	return ctx.Text()
}

func scanMacros(ctx *Context, text string) {
	sc := &scanner{ctx: ctx, children: make(map[childKey]int)}
	for _, loc := range macroPattern.FindAllStringSubmatchIndex(text, -1) {
		sc.scan(sc.newTag(text, loc))
	}
	for _, f := range sc.stack {
		ctx.Error(f.offset, f.offset+len(f.fullText), "Closing macro not found")
		sc.forget(f)
	}
	sc.stack = nil
}

func (sc *scanner) newTag(text string, loc []int) *tag {
	base := sc.ctx.base
	t := &tag{
		at:       base + loc[0],
		end:      base + loc[1],
		fullText: text[loc[0]:loc[1]],
		name:     text[loc[4]:loc[5]],
		nameAt:   base + loc[4],
		nameEnd:  base + loc[5],
		args:     text[loc[6]:loc[7]],
		argsAt:   base + loc[6],
		slash:    loc[8] >= 0,
	}
	if loc[2] >= 0 {
		t.prefix = text[loc[2]:loc[3]]
	}
	reg := sc.ctx.State.Registry
	switch t.prefix {
	case "/":
		t.closing = true
	case "end":
		if info := reg.Get(t.name); info != nil && info.Container {
			t.closing = true
			t.deprecatedClose = true
		} else if reg.Get("end"+t.name) != nil {
			t.name = "end" + t.name
			t.nameAt = base + loc[2]
		} else {
			t.closing = true
		}
	}
	return t
}

func (sc *scanner) scan(t *tag) {
	ctx := sc.ctx
	info := ctx.State.Registry.Get(t.name)

	var mods events.Modifier
	if info != nil && !t.closing {
		mods = sc.checkVersion(t, info)
	}
	ctx.Reference(t.name, t.nameAt, events.KindMacro)
	ctx.Token(ctx.Source(t.nameAt, t.nameEnd), t.nameAt, events.TokenMacro, mods)

	if t.closing {
		sc.close(t, info)
		ctx.Blank(t.at, t.end)
		return
	}
	if info == nil && ctx.State.WarnUnknownMacros {
		ctx.Warning(t.nameAt, t.nameEnd, unknownMacroMessage(t.name, ctx.State.Registry))
	}
	if info != nil {
		sc.checkParents(t, info)
	}
	sc.arguments(t, info)
	if info != nil && info.Container && !t.slash {
		sc.stack = append(sc.stack, &frame{
			name:     t.name,
			offset:   t.at,
			fullText: t.fullText,
			id:       sc.nextID,
		})
		sc.nextID++
	}
	ctx.Blank(t.at, t.end)
}

// compareVersion compares SugarCube versions, which lack semver's "v".
func compareVersion(a, b string) (int, bool) {
	va, vb := "v"+strings.TrimPrefix(a, "v"), "v"+strings.TrimPrefix(b, "v")
	if !semver.IsValid(va) || !semver.IsValid(vb) {
		return 0, false
	}
	return semver.Compare(va, vb), true
}

func (sc *scanner) checkVersion(t *tag, info *MacroInfo) events.Modifier {
	var mods events.Modifier
	version := sc.ctx.State.FormatVersion
	if info.Deprecated != "" {
		if c, ok := compareVersion(version, info.Deprecated); !ok || c >= 0 {
			mods |= events.ModDeprecated
		}
	}
	if version == "" {
		return mods
	}
	if info.Since != "" {
		if c, ok := compareVersion(version, info.Since); ok && c < 0 {
			sc.ctx.Error(t.at, t.end, fmt.Sprintf("<<%s>> isn't available until SugarCube version %s", t.name, info.Since))
		}
	}
	if info.Removed != "" {
		if c, ok := compareVersion(version, info.Removed); ok && c >= 0 {
			sc.ctx.Error(t.at, t.end, fmt.Sprintf("<<%s>> was removed in SugarCube version %s", t.name, info.Removed))
		}
	}
	return mods
}

func (sc *scanner) close(t *tag, info *MacroInfo) {
	ctx := sc.ctx
	if t.deprecatedClose {
		ctx.Warning(t.at, t.end, fmt.Sprintf("<<end%s>> is deprecated; use <</%s>> instead", t.name, t.name))
	}
	i := len(sc.stack) - 1
	for ; i >= 0; i-- {
		if sc.stack[i].name == t.name {
			break
		}
	}
	if i < 0 {
		if info != nil {
			ctx.Error(t.at, t.end, "Opening macro not found")
		}
		return
	}
	f := sc.stack[i]
	sc.stack = append(sc.stack[:i], sc.stack[i+1:]...)
	sc.forget(f)
	if info != nil && info.ParseChildren != nil {
		info.ParseChildren(ctx, &Container{
			Name:     f.name,
			At:       f.offset,
			OpenEnd:  f.offset + len(f.fullText),
			CloseAt:  t.at,
			CloseEnd: t.end,
			Children: f.children,
		})
	}
}

// forget drops the child counters of a frame leaving the stack.
func (sc *scanner) forget(f *frame) {
	for key := range sc.children {
		if key.frame == f.id {
			delete(sc.children, key)
		}
	}
}

func (sc *scanner) checkParents(t *tag, info *MacroInfo) {
	if len(info.Parents) == 0 {
		return
	}
	for i := len(sc.stack) - 1; i >= 0; i-- {
		f := sc.stack[i]
		ref, ok := info.parent(f.name)
		if !ok {
			continue
		}
		f.children = append(f.children, Child{Name: t.name, At: t.at, End: t.end})
		key := childKey{frame: f.id, name: t.name}
		sc.children[key]++
		if ref.Max > 0 && sc.children[key] > ref.Max {
			times := "times"
			if ref.Max == 1 {
				times = "time"
			}
			sc.ctx.Error(t.at, t.end, fmt.Sprintf("Child macro <<%s>> can be used at most %d %s", t.name, ref.Max, times))
		}
		return
	}
	if len(info.Parents) == 1 {
		sc.ctx.Error(t.at, t.end, fmt.Sprintf("Must be inside <<%s>> macro", info.Parents[0].Name))
		return
	}
	names := make([]string, len(info.Parents))
	for i, p := range info.Parents {
		names[i] = "<<" + p.Name + ">>"
	}
	sc.ctx.Error(t.at, t.end, "Must be inside one of the following macros: "+strings.Join(names, ", "))
}

// arguments dispatches a macro's arguments to its own parser, its
// signature, or the heuristic classifier.
func (sc *scanner) arguments(t *tag, info *MacroInfo) {
	ctx := sc.ctx
	if info != nil && info.Parse != nil && info.Parse(ctx, t.args, t.argsAt) {
		return
	}
	if info != nil && info.Arguments == nil {
		return
	}
	toks := args.Lex(t.args, t.argsAt)
	if n := len(toks); n > 0 && toks[n-1].Type == token.ERROR {
		bad := toks[n-1]
		ctx.Error(bad.Pos, t.argsAt+len(t.args), bad.Text)
		toks = toks[:n-1]
		for _, tok := range toks {
			sc.heuristic(tok)
		}
		return
	}
	if info != nil && info.Arguments.Schema != nil {
		sc.validate(t, info.Arguments.Schema, toks)
		return
	}
	for _, tok := range toks {
		sc.heuristic(tok)
	}
	if info == nil {
		return
	}
	switch {
	case info.Arguments.Expected && len(toks) == 0:
		ctx.Warning(t.nameAt, t.nameEnd, "Expected arguments")
	case !info.Arguments.Expected && len(toks) > 0:
		trimmed := strings.TrimRight(t.args, " \t\r\n")
		ctx.Warning(t.argsAt, t.argsAt+len(trimmed), "Expected no arguments")
	}
}

// heuristic classifies an argument without a signature.
func (sc *scanner) heuristic(tok *token.Token) {
	ctx := sc.ctx
	switch tok.Type {
	case token.BAREWORD:
		ctx.Variables(tok.Text, tok.Pos)
	case token.STRING:
		ctx.Token(tok.Text, tok.Pos, events.TokenString, 0)
	case token.EXPRESSION:
		ctx.Expression(tok.Text[1:len(tok.Text)-1], tok.Pos+1)
	case token.SQUARE_BRACKET:
		ctx.Link(tok.Text, tok.Pos)
	case token.CONTAINER:
		ctx.Expression(tok.Text, tok.Pos)
	}
}

func (sc *scanner) validate(t *tag, spec *params.Spec, toks []*token.Token) {
	ctx := sc.ctx
	res := ctx.State.validator().Validate(spec, toks)
	span := func(i int) (int, int) {
		if i < len(toks) {
			return toks[i].Pos, toks[i].End()
		}
		if len(toks) == 0 {
			return t.nameAt, t.nameEnd
		}
		return toks[0].Pos, toks[len(toks)-1].End()
	}
	for i, tok := range toks {
		var f params.Format
		if i < len(res.Formats) {
			f = res.Formats[i]
		}
		sc.format(tok, f)
	}
	for _, issue := range res.Errors {
		start, end := span(issue.Index)
		ctx.Error(start, end, issue.Message)
	}
	for _, issue := range res.Warnings {
		start, end := span(issue.Index)
		ctx.Warning(start, end, issue.Message)
	}
}

// format reports an argument as classified by a signature.
func (sc *scanner) format(tok *token.Token, f params.Format) {
	ctx := sc.ctx
	switch f {
	case params.FormatKeyword:
		ctx.Token(tok.Text, tok.Pos, events.TokenKeyword, 0)
	case params.FormatNumber:
		ctx.Token(tok.Text, tok.Pos, events.TokenNumber, 0)
	case params.FormatString:
		ctx.Token(tok.Text, tok.Pos, events.TokenString, 0)
	case params.FormatPassage:
		name, at := tok.Text, tok.Pos
		if tok.Type == token.STRING {
			name, at = tok.Text[1:len(tok.Text)-1], tok.Pos+1
		}
		ctx.Passage(name, at)
		ctx.Token(tok.Text, tok.Pos, events.TokenString, 0)
	case params.FormatLink:
		ctx.Link(tok.Text, tok.Pos)
	case params.FormatReceiver:
		sc.receiver(tok)
	case params.FormatVariable, params.FormatExpression:
		switch tok.Type {
		case token.STRING:
			ctx.Token(tok.Text, tok.Pos, events.TokenString, 0)
		case token.EXPRESSION:
			ctx.Expression(tok.Text[1:len(tok.Text)-1], tok.Pos+1)
		case token.SQUARE_BRACKET:
			ctx.Link(tok.Text, tok.Pos)
		default:
			ctx.Expression(tok.Text, tok.Pos)
		}
	default:
		sc.heuristic(tok)
	}
}

// receiver reports an argument naming the variable a macro stores into.
// Only a quoted variable name or a backquoted expression names a
// variable; anything else is evaluated as an expression.
func (sc *scanner) receiver(tok *token.Token) {
	ctx := sc.ctx
	switch {
	case tok.Type == token.STRING && params.IsVariable(tok.Text[1:len(tok.Text)-1]):
		ctx.Token(tok.Text[0:1], tok.Pos, events.TokenString, 0)
		ctx.Expression(tok.Text[1:len(tok.Text)-1], tok.Pos+1)
		ctx.Token(tok.Text[len(tok.Text)-1:], tok.End()-1, events.TokenString, 0)
	case tok.Type == token.EXPRESSION:
		ctx.Expression(tok.Text[1:len(tok.Text)-1], tok.Pos+1)
	default:
		ctx.Expression(tok.Text, tok.Pos)
		ctx.Warning(tok.Pos, tok.End(), `Receiver should be a quoted variable name, such as "$var"`)
	}
}
