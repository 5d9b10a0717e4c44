// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"strings"
	"testing"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kr.dev/diff"
)

func testRegistry() *Registry {
	return NewRegistry(
		&MacroInfo{Name: "a", Container: true, Arguments: Unvalidated(false)},
		&MacroInfo{Name: "d", Container: true, Arguments: Unvalidated(false)},
		&MacroInfo{Name: "b", Parents: []ParentRef{{Name: "a", Max: 1}}, Arguments: Unvalidated(false)},
		&MacroInfo{Name: "p", Arguments: Unvalidated(true)},
		&MacroInfo{Name: "q", Arguments: Unvalidated(false)},
		&MacroInfo{Name: "print", Arguments: Unvalidated(true)},
	)
}

func scan(reg *Registry, version, text string) (*events.Collector, string) {
	st := NewState(reg)
	st.FormatVersion = version
	c := &events.Collector{}
	out := ParseMacros(text, 0, st, c)
	return c, out
}

func errorAt(start, end int, msg string) events.Diagnostic {
	return events.Diagnostic{Severity: events.SeverityError, Range: events.Range{Start: start, End: end}, Message: msg}
}

func warningAt(start, end int, msg string) events.Diagnostic {
	return events.Diagnostic{Severity: events.SeverityWarning, Range: events.Range{Start: start, End: end}, Message: msg}
}

func TestParseMacrosBalanced(t *testing.T) {
	c, out := scan(testRegistry(), "", "<<a>>x<</a>>")
	assert.Empty(t, c.Diagnostics)
	assert.Equal(t, []events.SymbolRef{
		{Contents: "a", At: 2, Kind: events.KindMacro},
		{Contents: "a", At: 9, Kind: events.KindMacro},
	}, c.References)
	assert.Equal(t, []events.SemanticToken{
		{Text: "a", At: 2, Type: events.TokenMacro},
		{Text: "a", At: 9, Type: events.TokenMacro},
	}, c.Tokens)
	diff.Test(t, t.Errorf, out, strings.Repeat(" ", 5)+"x"+strings.Repeat(" ", 6))
}

func TestParseMacrosErasure(t *testing.T) {
	text := "one <<p $x>>\ntwo <<q>>\n"
	_, out := scan(testRegistry(), "", text)
	require.Len(t, out, len(text))
	diff.Test(t, t.Errorf, out, "one"+strings.Repeat(" ", 9)+"\ntwo"+strings.Repeat(" ", 6)+"\n")
}

func TestParseMacrosOffset(t *testing.T) {
	st := NewState(testRegistry())
	c := &events.Collector{}
	ParseMacros("<<a>>", 100, st, c)
	assert.Equal(t, []events.SymbolRef{{Contents: "a", At: 102, Kind: events.KindMacro}}, c.References)
	assert.Equal(t, []events.Diagnostic{errorAt(100, 105, "Closing macro not found")}, c.Diagnostics)
}

func TestParseMacrosStructure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		diags []events.Diagnostic
	}{
		{"unclosed", "<<a>>x", []events.Diagnostic{errorAt(0, 5, "Closing macro not found")}},
		{"stray close", "x<</a>>", []events.Diagnostic{errorAt(1, 7, "Opening macro not found")}},
		{"self closing", "<<a/>>", nil},
		{"nested", "<<a>><<d>><</d>><</a>>", nil},
		{"child limit", "<<a>><<b>><<b>><</a>>", []events.Diagnostic{
			errorAt(10, 15, "Child macro <<b>> can be used at most 1 time"),
		}},
		{"child limit per instance", "<<a>><<b>><</a>><<a>><<b>><</a>>", nil},
		{"skip level parent", "<<a>><<d>><<b>><</d>><</a>>", nil},
		{"missing parent", "<<d>><<b>><</d>>", []events.Diagnostic{
			errorAt(5, 10, "Must be inside <<a>> macro"),
		}},
		{"unknown close", "<</nope>>", nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, _ := scan(testRegistry(), "", test.input)
			assert.Equal(t, test.diags, c.Diagnostics)
		})
	}
}

func TestParseMacrosArgumentPresence(t *testing.T) {
	c, _ := scan(testRegistry(), "", "<<p>><<q x >><<p y>><<q>>")
	assert.Equal(t, []events.Diagnostic{
		warningAt(2, 3, "Expected arguments"),
		warningAt(9, 10, "Expected no arguments"),
	}, c.Diagnostics)
}

func TestParseMacrosLexFailure(t *testing.T) {
	c, _ := scan(testRegistry(), "", "<<p 'oops>>")
	assert.Equal(t, []events.Diagnostic{
		errorAt(4, 9, "unterminated single quoted string"),
	}, c.Diagnostics)
	assert.Equal(t, []events.SymbolRef{{Contents: "p", At: 2, Kind: events.KindMacro}}, c.References)

	c, _ = scan(testRegistry(), "", "<<p $x 'oops>>")
	assert.Equal(t, []events.Diagnostic{
		errorAt(7, 12, "unterminated single quoted string"),
	}, c.Diagnostics)
	assert.Equal(t, []events.SymbolRef{
		{Contents: "p", At: 2, Kind: events.KindMacro},
		{Contents: "$x", At: 4, Kind: events.KindVariable},
	}, c.References)
}

func TestParseMacrosEndPrefix(t *testing.T) {
	t.Run("nothing registered", func(t *testing.T) {
		c, out := scan(NewRegistry(), "", "<<endfoo>>")
		assert.Empty(t, c.Diagnostics)
		assert.Equal(t, []events.SymbolRef{{Contents: "foo", At: 5, Kind: events.KindMacro}}, c.References)
		assert.Equal(t, strings.Repeat(" ", 10), out)
	})
	t.Run("known non-container", func(t *testing.T) {
		c, _ := scan(testRegistry(), "", "<<endprint>>")
		assert.Equal(t, []events.Diagnostic{errorAt(0, 12, "Opening macro not found")}, c.Diagnostics)
		assert.Equal(t, []events.SymbolRef{{Contents: "print", At: 5, Kind: events.KindMacro}}, c.References)
	})
	t.Run("macro named with end", func(t *testing.T) {
		reg := NewRegistry(&MacroInfo{Name: "endfoo"})
		c, _ := scan(reg, "", "<<endfoo>>")
		assert.Empty(t, c.Diagnostics)
		assert.Equal(t, []events.SymbolRef{{Contents: "endfoo", At: 2, Kind: events.KindMacro}}, c.References)
	})
	t.Run("deprecated close", func(t *testing.T) {
		c, _ := scan(testRegistry(), "", "<<a>><<enda>>")
		assert.Equal(t, []events.Diagnostic{
			warningAt(5, 13, "<<enda>> is deprecated; use <</a>> instead"),
		}, c.Diagnostics)
	})
	t.Run("deprecated close without opener", func(t *testing.T) {
		c, _ := scan(testRegistry(), "", "<<enda>>")
		assert.Equal(t, []events.Diagnostic{
			warningAt(0, 8, "<<enda>> is deprecated; use <</a>> instead"),
			errorAt(0, 8, "Opening macro not found"),
		}, c.Diagnostics)
	})
}

func TestParseMacrosVersions(t *testing.T) {
	reg := NewRegistry(
		&MacroInfo{Name: "fresh", Since: "2.37.0"},
		&MacroInfo{Name: "gone", Removed: "2.37.0"},
		&MacroInfo{Name: "old", Deprecated: "2.29.0"},
	)
	tests := []struct {
		version string
		input   string
		diags   []events.Diagnostic
		mods    events.Modifier
	}{
		{"2.36.1", "<<fresh>>", []events.Diagnostic{
			errorAt(0, 9, "<<fresh>> isn't available until SugarCube version 2.37.0"),
		}, 0},
		{"2.37.0", "<<fresh>>", nil, 0},
		{"2.37.0", "<<gone>>", []events.Diagnostic{
			errorAt(0, 8, "<<gone>> was removed in SugarCube version 2.37.0"),
		}, 0},
		{"2.36.1", "<<gone>>", nil, 0},
		{"", "<<fresh>>", nil, 0},
		{"", "<<gone>>", nil, 0},
		{"bogus", "<<fresh>>", nil, 0},
		{"", "<<old>>", nil, events.ModDeprecated},
		{"2.29.0", "<<old>>", nil, events.ModDeprecated},
		{"2.28.0", "<<old>>", nil, 0},
	}
	for _, test := range tests {
		t.Run(test.version+test.input, func(t *testing.T) {
			c, _ := scan(reg, test.version, test.input)
			assert.Equal(t, test.diags, c.Diagnostics)
			if assert.Len(t, c.Tokens, 1) {
				assert.Equal(t, test.mods, c.Tokens[0].Modifiers)
			}
		})
	}
}

func TestParseMacrosUnknown(t *testing.T) {
	st := NewState(BuiltinMacros())
	c := &events.Collector{}
	ParseMacros("<<prnt $x>>", 0, st, c)
	assert.Empty(t, c.Diagnostics)
	assert.Equal(t, []events.SymbolRef{
		{Contents: "prnt", At: 2, Kind: events.KindMacro},
		{Contents: "$x", At: 7, Kind: events.KindVariable},
	}, c.References)

	st.WarnUnknownMacros = true
	c = &events.Collector{}
	ParseMacros("<<prnt $x>>", 0, st, c)
	assert.Equal(t, []events.Diagnostic{
		warningAt(2, 6, "Unrecognized macro <<prnt>>; did you mean <<print>>?"),
	}, c.Diagnostics)
}

func TestParseMacrosBuiltins(t *testing.T) {
	tests := []struct {
		name  string
		input string
		diags []events.Diagnostic
		refs  []events.SymbolRef
	}{
		{
			name:  "else must be last",
			input: "<<if $a>>x<<else>>y<<elseif $b>>z<</if>>",
			diags: []events.Diagnostic{errorAt(19, 32, "<<elseif>> cannot follow <<else>>")},
		},
		{
			name:  "one else",
			input: "<<if $a>><<else>><<else>><</if>>",
			diags: []events.Diagnostic{errorAt(17, 25, "Child macro <<else>> can be used at most 1 time")},
		},
		{
			name:  "several parents",
			input: `<<option "x">>`,
			diags: []events.Diagnostic{errorAt(0, 14, "Must be inside one of the following macros: <<cycle>>, <<listbox>>")},
		},
		{
			name:  "passage argument",
			input: `<<goto "Home">>`,
			refs: []events.SymbolRef{
				{Contents: "goto", At: 2, Kind: events.KindMacro},
				{Contents: "Home", At: 8, Kind: events.KindPassage},
			},
		},
		{
			name:  "link argument",
			input: `<<goto [[Home]]>>`,
			refs: []events.SymbolRef{
				{Contents: "goto", At: 2, Kind: events.KindMacro},
				{Contents: "Home", At: 9, Kind: events.KindPassage},
			},
		},
		{
			name:  "quoted receiver",
			input: `<<textbox "$name" "Your name">>`,
			refs: []events.SymbolRef{
				{Contents: "textbox", At: 2, Kind: events.KindMacro},
				{Contents: "$name", At: 11, Kind: events.KindVariable},
			},
		},
		{
			name:  "bare receiver",
			input: `<<textbox $name "Your name">>`,
			diags: []events.Diagnostic{warningAt(10, 15, `Receiver should be a quoted variable name, such as "$var"`)},
		},
		{
			name:  "range loop",
			input: "<<for _i range $list>><</for>>",
			refs: []events.SymbolRef{
				{Contents: "for", At: 2, Kind: events.KindMacro},
				{Contents: "_i", At: 6, Kind: events.KindVariable},
				{Contents: "$list", At: 15, Kind: events.KindVariable},
				{Contents: "for", At: 25, Kind: events.KindMacro},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, _ := scan(BuiltinMacros(), "", test.input)
			assert.Equal(t, test.diags, c.Diagnostics)
			if test.refs != nil {
				assert.Equal(t, test.refs, c.References)
			}
		})
	}
}

func TestParseMacrosLinkWithoutSetter(t *testing.T) {
	reg := NewRegistry(&MacroInfo{Name: "go", Arguments: Schema("linkNoSetter")})
	c, _ := scan(reg, "", "<<go [[Home][$x to 1]]>>")
	assert.Equal(t, []events.Diagnostic{
		errorAt(5, 22, "Argument must not contain a setter component"),
	}, c.Diagnostics)
}

func TestParseMacrosMissingArgument(t *testing.T) {
	c, _ := scan(BuiltinMacros(), "", "<<goto>>")
	if assert.Len(t, c.Diagnostics, 1) {
		d := c.Diagnostics[0]
		assert.Equal(t, events.Range{Start: 2, End: 6}, d.Range)
		assert.Contains(t, d.Message, "Missing required argument")
	}
}

func TestParseMacrosScriptBody(t *testing.T) {
	c, out := scan(BuiltinMacros(), "", "<<script>>var x;<</script>>")
	assert.Empty(t, c.Diagnostics)
	assert.Equal(t, []events.EmbeddedDocument{{Language: "javascript", Text: "var x;", At: 10}}, c.Embedded)
	assert.Equal(t, strings.Repeat(" ", 27), out)
}

func TestParseMacrosDeterministic(t *testing.T) {
	text := "<<if $a is 1>><<set $b to [[x]]>><<else>><<print $c.d>><</if>><<a>>"
	c1, out1 := scan(BuiltinMacros(), "2.36.1", text)
	c2, out2 := scan(BuiltinMacros(), "2.36.1", text)
	assert.Equal(t, c1, c2)
	assert.Equal(t, out1, out2)
}
