// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDefinitions = `
sugarcube-2:
  macros:
    mywidget:
      container: true
      arguments: ["text [number]"]
      since: "2.30.0"
      description: Does things.
    mychild:
      parents:
        - mywidget
        - name: other
          max: 2
      arguments: false
`

func TestLoadDefinitions(t *testing.T) {
	reg, err := LoadDefinitions(strings.NewReader(testDefinitions), "test.twee-config.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"mychild", "mywidget"}, reg.Names())

	w := reg.Get("mywidget")
	require.NotNil(t, w)
	assert.True(t, w.Container)
	assert.Equal(t, "2.30.0", w.Since)
	assert.Equal(t, "Does things.", w.Description)
	require.NotNil(t, w.Arguments)
	require.NotNil(t, w.Arguments.Schema)
	assert.Equal(t, "text [number]", w.Arguments.Schema.String())

	child := reg.Get("mychild")
	require.NotNil(t, child)
	assert.Equal(t, []ParentRef{{Name: "mywidget"}, {Name: "other", Max: 2}}, child.Parents)
	assert.Equal(t, &Arguments{Expected: false}, child.Arguments)
}

func TestLoadDefinitionsEmpty(t *testing.T) {
	reg, err := LoadDefinitions(strings.NewReader(""), "empty.twee-config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestLoadDefinitionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"bad version", "sugarcube-2:\n  macros:\n    m:\n      since: banana\n", ""},
		{"unknown key", "sugarcube-2:\n  macros:\n    m:\n      contaner: true\n", ""},
		{"bad name", "sugarcube-2:\n  macros:\n    \"9lives\": {}\n", ""},
		{"zero max", "sugarcube-2:\n  macros:\n    m:\n      parents: [{name: p, max: 0}]\n", ""},
		{"empty arguments", "sugarcube-2:\n  macros:\n    m:\n      arguments: []\n", ""},
		{"bad signature", "sugarcube-2:\n  macros:\n    m:\n      arguments: [\"wat\"]\n", "unknown parameter type"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadDefinitions(strings.NewReader(test.yaml), "bad.twee-config.yaml")
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "%v", err)
			assert.Equal(t, "bad.twee-config.yaml", verr.File)
			assert.Contains(t, err.Error(), "bad.twee-config.yaml")
			if test.msg != "" {
				assert.Contains(t, err.Error(), test.msg)
			}
		})
	}
}

func TestLoadDefinitionFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a"+DefinitionsSuffix)
	second := filepath.Join(dir, "b"+DefinitionsSuffix)
	require.NoError(t, os.WriteFile(first, []byte("sugarcube-2:\n  macros:\n    m:\n      description: first\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("sugarcube-2:\n  macros:\n    m:\n      description: second\n    n: {}\n"), 0o600))

	reg, err := LoadDefinitionFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, []string{"m", "n"}, reg.Names())
	assert.Equal(t, "second", reg.Get("m").Description)

	reg, err = LoadDefinitionFiles(first, filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, []string{"m"}, reg.Names())
}

func TestDefinitionsOverrideBuiltins(t *testing.T) {
	defs, err := LoadDefinitions(strings.NewReader("sugarcube-2:\n  macros:\n    goto:\n      arguments: true\n"), "x")
	require.NoError(t, err)
	reg := BuiltinMacros().Merge(defs)
	assert.Nil(t, reg.Get("goto").Arguments.Schema)
	assert.NotNil(t, reg.Get("if"))
}
