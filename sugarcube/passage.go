// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"regexp"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/parser/link"
)

// rawPattern finds regions whose contents are not SugarCube markup.  The
// groups are a comment, a verbatim region, a script element body and a
// style element body.
var rawPattern = regexp.MustCompile(
	`(/\*(?s:.*?)\*/|/%(?s:.*?)%/|<!--(?s:.*?)-->)` +
		`|("""(?s:.*?)"""|(?i:<nowiki>)(?s:.*?)(?i:</nowiki>)|\{\{\{(?s:.*?)\}\}\})` +
		`|(?i:<script\b[^>]*>)((?s:.*?))(?i:</script>)` +
		`|(?i:<style\b[^>]*>)((?s:.*?))(?i:</style>)`)

var linkStart = regexp.MustCompile(`\[(?:\[|[<>]?[Ii][Mm][Gg]\[)`)

// nakedVariable finds variables written directly in passage prose.
var nakedVariable = regexp.MustCompile(`(?:\$[A-Za-z_]|_[A-Za-z])[$\w]*(?:\.[$A-Za-z_][$\w]*|\[[^\]\n]*\])*`)

// ParsePassageText analyzes the text of one SugarCube passage, found at
// offset in its document, and reports its contents to l.  Passes run in
// order over text erased by the passes before them: comments and raw
// regions, macros, link markup and finally naked variables.  It returns
// the erased text.
func ParsePassageText(text string, offset int, st *State, l events.Listener) string {
	ctx := newContext(text, offset, st, l)
	scanRaw(ctx)
	scanMacros(ctx, ctx.Text())
	scanLinks(ctx)
	scanVariables(ctx)
	return ctx.Text()
}

func scanRaw(ctx *Context) {
	text := ctx.Text()
	for _, loc := range rawPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := ctx.base+loc[0], ctx.base+loc[1]
		switch {
		case loc[2] >= 0:
			ctx.Token(text[loc[0]:loc[1]], start, events.TokenComment, 0)
			ctx.Blank(start, end)
		case loc[4] >= 0:
			ctx.Blank(start, end)
		case loc[6] >= 0:
			ctx.body("javascript", text, loc[6], loc[7])
		case loc[8] >= 0:
			ctx.body("css", text, loc[8], loc[9])
		}
	}
}

// body reports text[start:end] as an embedded document and erases it.
func (ctx *Context) body(language, text string, start, end int) {
	if start == end {
		return
	}
	ctx.Embedded(language, text[start:end], ctx.base+start)
	ctx.Blank(ctx.base+start, ctx.base+end)
}

func scanLinks(ctx *Context) {
	text := ctx.Text()
	for pos := 0; pos < len(text); {
		loc := linkStart.FindStringIndex(text[pos:])
		if loc == nil {
			return
		}
		start := pos + loc[0]
		m := link.Parse(text, start)
		end := m.End
		if end <= start {
			end = start + 1
		}
		ctx.markup(m, ctx.base)
		if m.Err == "" {
			ctx.Blank(ctx.base+start, ctx.base+end)
		}
		pos = end
	}
}

func scanVariables(ctx *Context) {
	text := ctx.Text()
	for _, loc := range nakedVariable.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isNameByte(text[loc[0]-1]) {
			continue
		}
		ctx.Variables(text[loc[0]:loc[1]], ctx.base+loc[0])
	}
}

func isNameByte(c byte) bool {
	return c == '$' || c == '_' || c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}
