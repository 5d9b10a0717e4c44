// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sgranade/twine-twee-language-sub001/params"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// DefinitionsSuffix is the file name suffix of macro definition files.
const DefinitionsSuffix = ".twee-config.yaml"

//go:embed definitions.schema.json
var definitionsSchema string

const definitionsSchemaURL = "schema://twee-config.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if compiler.Formats == nil {
		compiler.Formats = make(map[string]func(interface{}) bool)
	}
	compiler.Formats["semver"] = func(v interface{}) bool {
		s, ok := v.(string)
		if !ok {
			return true
		}
		return semver.IsValid("v" + strings.TrimPrefix(s, "v"))
	}
	if err := compiler.AddResource(definitionsSchemaURL, strings.NewReader(definitionsSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(definitionsSchemaURL)
})

type definitionFile struct {
	SugarCube struct {
		Macros map[string]macroDefinition `yaml:"macros"`
	} `yaml:"sugarcube-2"`
}

type macroDefinition struct {
	Container   bool                 `yaml:"container"`
	Parents     []parentDefinition   `yaml:"parents"`
	Arguments   *argumentsDefinition `yaml:"arguments"`
	Since       string               `yaml:"since"`
	Deprecated  string               `yaml:"deprecated"`
	Removed     string               `yaml:"removed"`
	Description string               `yaml:"description"`
}

// parentDefinition is either a bare macro name or a mapping with a name
// and a child limit.
type parentDefinition ParentRef

func (p *parentDefinition) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&p.Name)
	}
	var ref struct {
		Name string `yaml:"name"`
		Max  int    `yaml:"max"`
	}
	if err := value.Decode(&ref); err != nil {
		return err
	}
	p.Name, p.Max = ref.Name, ref.Max
	return nil
}

// argumentsDefinition is either a boolean or a list of signatures.
type argumentsDefinition struct {
	expected bool
	variants []string
}

func (a *argumentsDefinition) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&a.expected)
	}
	a.expected = true
	return value.Decode(&a.variants)
}

// ValidationError reports a definitions file which does not follow the
// definitions schema.
type ValidationError struct {
	File string
	Err  error
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid macro definitions: %v", err.File, err.Err)
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}

// LoadDefinitions reads macro definitions in YAML from r.  The name
// identifies r in errors.
func LoadDefinitions(r io.Reader, name string) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := validateDefinitions(data); err != nil {
		return nil, &ValidationError{File: name, Err: err}
	}
	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	reg := NewRegistry()
	for macro, def := range file.SugarCube.Macros {
		info := &MacroInfo{
			Name:        macro,
			Container:   def.Container,
			Since:       def.Since,
			Deprecated:  def.Deprecated,
			Removed:     def.Removed,
			Description: def.Description,
		}
		for _, p := range def.Parents {
			info.Parents = append(info.Parents, ParentRef(p))
		}
		if a := def.Arguments; a != nil {
			info.Arguments = &Arguments{Expected: a.expected}
			if len(a.variants) > 0 {
				spec, err := params.Parse(a.variants...)
				if err != nil {
					return nil, &ValidationError{File: name, Err: fmt.Errorf("macro %q: %w", macro, err)}
				}
				info.Arguments.Schema = spec
			}
		}
		reg.Add(info)
	}
	return reg, nil
}

func validateDefinitions(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("definitions schema: %w", err)
	}
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	// Round trip through JSON so that the validator sees JSON types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return schema.Validate(v)
}

// LoadDefinitionFiles reads and merges the macro definitions in paths.
// Later files take precedence.  Every file is read; the returned error
// joins the errors of all files which could not be loaded.
func LoadDefinitionFiles(paths ...string) (*Registry, error) {
	reg := NewRegistry()
	var errs []error
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs, err := LoadDefinitions(f, path)
		_ = f.Close()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reg = reg.Merge(defs)
	}
	return reg, errors.Join(errs...)
}
