// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"sort"

	"github.com/sgranade/twine-twee-language-sub001/params"
)

// ParentRef names a macro which must enclose another.  When Max is
// positive the child may appear at most Max times inside each instance of
// the parent.
type ParentRef struct {
	Name string
	Max  int
}

// Arguments declares how a macro's arguments are checked.  A nil
// *Arguments means the arguments are not examined at all.
type Arguments struct {
	// Expected is consulted only when Schema is nil.  It says whether the
	// macro takes arguments, without saying what they are.
	Expected bool
	Schema   *params.Spec
}

// Unvalidated declares that a macro does, or does not, take arguments.
func Unvalidated(expected bool) *Arguments {
	return &Arguments{Expected: expected}
}

// Schema declares the signatures a macro accepts.  It panics if a
// signature is malformed.
func Schema(variants ...string) *Arguments {
	return &Arguments{Expected: true, Schema: params.MustParse(variants...)}
}

// Child is a macro recorded inside an open container.
type Child struct {
	Name string
	At   int // offset of the child's "<<"
	End  int // offset just past the child's ">>"
}

// Container describes a closed container macro instance.
type Container struct {
	Name     string
	At       int // offset of the opening "<<"
	OpenEnd  int // offset just past the opening ">>"
	CloseAt  int // offset of the closing "<<"
	CloseEnd int
	Children []Child
}

// ArgParser handles a macro's arguments itself.  It reports whether the
// arguments were handled; if not, they are checked as declared by
// MacroInfo.Arguments.
type ArgParser func(ctx *Context, args string, at int) bool

// ChildParser is called when a container closes with the children which
// were recorded inside it.
type ChildParser func(ctx *Context, c *Container)

// MacroInfo describes one macro.
type MacroInfo struct {
	Name        string
	Container   bool
	Parents     []ParentRef
	Arguments   *Arguments
	Since       string
	Deprecated  string
	Removed     string
	Description string

	Parse         ArgParser
	ParseChildren ChildParser
}

// parent returns the declared parent reference named name.
func (info *MacroInfo) parent(name string) (ParentRef, bool) {
	for _, p := range info.Parents {
		if p.Name == name {
			return p, true
		}
	}
	return ParentRef{}, false
}

// Registry maps macro names to their descriptions.  A Registry must not be
// modified while a scan is using it.
type Registry struct {
	macros map[string]*MacroInfo
}

// NewRegistry returns a registry holding macros.
func NewRegistry(macros ...*MacroInfo) *Registry {
	r := &Registry{macros: make(map[string]*MacroInfo, len(macros))}
	for _, info := range macros {
		r.Add(info)
	}
	return r
}

// Add registers info, replacing any macro of the same name.
func (r *Registry) Add(info *MacroInfo) {
	r.macros[info.Name] = info
}

// Get returns the macro named name or nil.
func (r *Registry) Get(name string) *MacroInfo {
	if r == nil {
		return nil
	}
	return r.macros[name]
}

// Len returns the number of registered macros.
func (r *Registry) Len() int {
	return len(r.macros)
}

// Names returns the sorted names of all registered macros.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.macros))
	for name := range r.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new registry holding the macros of r overlaid with those
// of other.
func (r *Registry) Merge(other *Registry) *Registry {
	merged := NewRegistry()
	for _, info := range r.macros {
		merged.Add(info)
	}
	if other != nil {
		for _, info := range other.macros {
			merged.Add(info)
		}
	}
	return merged
}
