// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"regexp"
	"testing"

	"github.com/sgranade/twine-twee-language-sub001/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinMacros(t *testing.T) {
	reg := BuiltinMacros()
	name := regexp.MustCompile(`^(?:[A-Za-z][\w-]*|[=-])$`)
	for _, n := range reg.Names() {
		info := reg.Get(n)
		assert.Regexp(t, name, n)
		assert.NotEmpty(t, info.Description, n)
		for _, p := range info.Parents {
			parent := reg.Get(p.Name)
			if assert.NotNil(t, parent, "%s: parent %s", n, p.Name) {
				assert.True(t, parent.Container, "%s: parent %s", n, p.Name)
			}
		}
		for _, v := range []string{info.Since, info.Deprecated, info.Removed} {
			if v != "" {
				_, ok := compareVersion(v, "2.0.0")
				assert.True(t, ok, "%s: version %q", n, v)
			}
		}
	}
}

func TestBuiltinMacroSchemas(t *testing.T) {
	var reg *Registry
	require.NotPanics(t, func() { reg = BuiltinMacros() })
	for _, n := range reg.Names() {
		args := reg.Get(n).Arguments
		if args == nil || args.Schema == nil {
			continue
		}
		for _, v := range args.Schema.Variants {
			_, err := params.Parse(v.Text)
			assert.NoError(t, err, n)
		}
	}
}

func TestBuiltinGroupedArguments(t *testing.T) {
	c, _ := scan(BuiltinMacros(), "", "<<type 40ms start 2s keep>>Hi<</type>><<do tag 'x' element 'p'>><</do>>")
	assert.Empty(t, c.Diagnostics)

	c, _ = scan(BuiltinMacros(), "", "<<type 40ms start>>Hi<</type>>")
	require.Len(t, c.Diagnostics, 1)
	assert.Equal(t, "Missing required argument: expected text", c.Diagnostics[0].Message)
}

func TestParseForForms(t *testing.T) {
	tests := []struct {
		input string
		refs  []string
	}{
		{"<<for $i lt 3>><</for>>", []string{"for", "$i", "for"}},
		{"<<for _i to 0; _i lt 3; _i++>><</for>>", []string{"for", "_i", "_i", "_i", "for"}},
		{"<<for _k, _v range $obj>><</for>>", []string{"for", "_k", "_v", "$obj", "for"}},
		{"<<for>><</for>>", []string{"for", "for"}},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			c, _ := scan(BuiltinMacros(), "", test.input)
			assert.Empty(t, c.Diagnostics)
			var got []string
			for _, ref := range c.References {
				got = append(got, ref.Contents)
			}
			assert.Equal(t, test.refs, got)
		})
	}
}
