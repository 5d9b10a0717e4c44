// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	reg := BuiltinMacros()
	tests := []struct {
		name string
		want string
	}{
		{"prnt", "print"},
		{"priint", "print"},
		{"zzzz", ""},
		{"", ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, Suggest(test.name, reg))
		})
	}
	assert.Equal(t, "", Suggest("print", nil))
}

func TestUnknownMacroMessage(t *testing.T) {
	reg := NewRegistry(&MacroInfo{Name: "widget"})
	assert.Equal(t, "Unrecognized macro <<wdget>>; did you mean <<widget>>?", unknownMacroMessage("wdget", reg))
	assert.Equal(t, "Unrecognized macro <<zzz>>", unknownMacroMessage("zzz", reg))
}
