// Copyright © 2024 The ELPS authors

// Package params describes the arguments a macro accepts and checks lexed
// macro arguments against that description.
//
// A signature is a space separated list of parameters.  Each parameter is
// a type, or several types separated by '|'.  A parameter in square
// brackets is optional and a parameter prefixed with "..." may repeat.
// Square brackets around several parameters make an optional group which
// matches all of its parameters or none of them.  For example:
//
//	passage|linkNoSetter [text]
//	'to' number ...text
//	text ['start' text] ['keep'|'none']
package params

import (
	"fmt"
	"strings"
)

// Type is a parameter type.
type Type int

const (
	TypeText Type = iota
	TypeNumber
	TypeBool
	TypeNull
	TypeUndefined
	TypePassage
	TypeLink
	TypeLinkNoSetter
	TypeVar
	TypeReceiver
	TypeExpression
	TypeLiteral
)

var typeNames = map[string]Type{
	"text":         TypeText,
	"number":       TypeNumber,
	"bool":         TypeBool,
	"null":         TypeNull,
	"undefined":    TypeUndefined,
	"passage":      TypePassage,
	"link":         TypeLink,
	"linkNoSetter": TypeLinkNoSetter,
	"var":          TypeVar,
	"receiver":     TypeReceiver,
	"expression":   TypeExpression,
}

// Alt is one alternative type for a parameter.
type Alt struct {
	Type    Type
	Literal string // the expected word for TypeLiteral
}

func (a Alt) describe() string {
	switch a.Type {
	case TypeText:
		return "text"
	case TypeNumber:
		return "a number"
	case TypeBool:
		return "a boolean"
	case TypeNull:
		return "null"
	case TypeUndefined:
		return "undefined"
	case TypePassage:
		return "a passage name"
	case TypeLink:
		return "link markup"
	case TypeLinkNoSetter:
		return "link markup without a setter"
	case TypeVar:
		return "a variable"
	case TypeReceiver:
		return "a receiver variable name"
	case TypeExpression:
		return "an expression"
	default:
		return fmt.Sprintf("'%s'", a.Literal)
	}
}

// Param is one parameter of a signature.  A group parameter has no
// alternatives of its own; it stands for the parameters in Group.
type Param struct {
	Alts     []Alt
	Group    []*Param
	Optional bool
	Variadic bool
}

func (p *Param) describe() string {
	if len(p.Group) > 0 {
		return p.Group[0].describe()
	}
	descs := make([]string, len(p.Alts))
	for i, alt := range p.Alts {
		descs[i] = alt.describe()
	}
	return strings.Join(descs, " or ")
}

// Variant is one accepted signature.
type Variant struct {
	Text   string
	Params []*Param
}

// Spec holds every signature a macro accepts.
type Spec struct {
	Variants []*Variant
}

func (spec *Spec) String() string {
	texts := make([]string, len(spec.Variants))
	for i, v := range spec.Variants {
		texts[i] = v.Text
	}
	return strings.Join(texts, "\n")
}

// Parse compiles signature strings into a Spec.
func Parse(variants ...string) (*Spec, error) {
	spec := &Spec{}
	for _, text := range variants {
		v, err := parseVariant(text)
		if err != nil {
			return nil, err
		}
		spec.Variants = append(spec.Variants, v)
	}
	return spec, nil
}

// MustParse is like Parse but panics on error.  It is intended for
// signatures known at compile time.
func MustParse(variants ...string) *Spec {
	spec, err := Parse(variants...)
	if err != nil {
		panic(err)
	}
	return spec
}

func parseVariant(text string) (*Variant, error) {
	fields, err := splitParams(text)
	if err != nil {
		return nil, fmt.Errorf("signature %q: %w", text, err)
	}
	v := &Variant{Text: text}
	if v.Params, err = parseParams(fields); err != nil {
		return nil, fmt.Errorf("signature %q: %w", text, err)
	}
	return v, nil
}

// splitParams splits text on whitespace outside square brackets.
func splitParams(text string) ([]string, error) {
	var fields []string
	depth, start := 0, -1
	for i, c := range text {
		switch {
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unexpected ']' at %d", i)
			}
		case depth == 0 && (c == ' ' || c == '\t'):
			if start >= 0 {
				fields = append(fields, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if depth > 0 {
		return nil, fmt.Errorf("unterminated optional parameter %q", text[start:])
	}
	if start >= 0 {
		fields = append(fields, text[start:])
	}
	return fields, nil
}

func parseParams(fields []string) ([]*Param, error) {
	params := make([]*Param, 0, len(fields))
	for _, field := range fields {
		p, err := parseParam(field)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func parseParam(field string) (*Param, error) {
	if strings.HasPrefix(field, "[") {
		if !strings.HasSuffix(field, "]") {
			return nil, fmt.Errorf("malformed optional parameter %q", field)
		}
		inner, err := splitParams(field[1 : len(field)-1])
		if err != nil {
			return nil, err
		}
		switch len(inner) {
		case 0:
			return nil, fmt.Errorf("empty optional parameter %q", field)
		case 1:
			p, err := parseParam(inner[0])
			if err != nil {
				return nil, err
			}
			p.Optional = true
			return p, nil
		}
		group, err := parseParams(inner)
		if err != nil {
			return nil, err
		}
		return &Param{Group: group, Optional: true}, nil
	}
	p := &Param{}
	if rest, ok := strings.CutPrefix(field, "..."); ok {
		if strings.HasPrefix(rest, "[") {
			return nil, fmt.Errorf("a group cannot repeat: %q", field)
		}
		p.Variadic = true
		field = rest
	}
	for _, name := range strings.Split(field, "|") {
		alt, err := parseAlt(name)
		if err != nil {
			return nil, err
		}
		p.Alts = append(p.Alts, alt)
	}
	return p, nil
}

func parseAlt(name string) (Alt, error) {
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		return Alt{Type: TypeLiteral, Literal: name[1 : len(name)-1]}, nil
	}
	typ, ok := typeNames[name]
	if !ok {
		return Alt{}, fmt.Errorf("unknown parameter type %q", name)
	}
	return Alt{Type: typ}, nil
}
