// Copyright 2025 NeIC System Developers
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package schema validates decoded pipeline messages against the
// orchestrator's packaged JSON Schema documents, materialising any declared
// `default` values into the instance before validation -- matching the
// distilled spec's explicit Draft-07-plus-defaults requirement, which the
// underlying santhosh-tekuri/jsonschema/v5 library does not do on its own.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/neicnordic/sda-orchestrator-go/internal/errs"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Validator validates instances against named, embedded JSON Schema
// documents, compiling and caching each schema on first use.
type Validator struct {
	compiler *jsonschema.Compiler
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
	raw      map[string]map[string]any
}

// New builds a Validator over the packaged schema documents.
func New() *Validator {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	return &Validator{
		compiler: compiler,
		compiled: make(map[string]*jsonschema.Schema),
		raw:      make(map[string]map[string]any),
	}
}

// Preload compiles every named schema up front, so a startup-fatal
// SchemaError surfaces before the consumer loop starts rather than on the
// first matching message.
func (v *Validator) Preload(names ...string) error {
	for _, name := range names {
		if _, err := v.schemaFor(name); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) schemaFor(name string) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.compiled[name]; ok {
		return s, nil
	}

	path := "schemas/" + name + ".json"
	data, err := schemaFS.ReadFile(path)
	if err != nil {
		return nil, &errs.SchemaError{SchemaName: name, Underlying: fmt.Errorf("schema not found: %w", err)}
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &errs.SchemaError{SchemaName: name, Underlying: fmt.Errorf("malformed schema: %w", err)}
	}

	url := "mem://" + name + ".json"
	if err := v.compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, &errs.SchemaError{SchemaName: name, Underlying: fmt.Errorf("add schema resource: %w", err)}
	}

	compiled, err := v.compiler.Compile(url)
	if err != nil {
		return nil, &errs.SchemaError{SchemaName: name, Underlying: fmt.Errorf("compile schema: %w", err)}
	}

	v.compiled[name] = compiled
	v.raw[name] = raw
	return compiled, nil
}

// Validate validates instance against the named schema, first materialising
// any declared `default` value for a property absent from instance
// (recursively, for nested object properties). It returns the (possibly
// defaulted) instance.
func (v *Validator) Validate(name string, instance map[string]any) (map[string]any, error) {
	compiled, err := v.schemaFor(name)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	raw := v.raw[name]
	v.mu.Unlock()

	applyDefaults(raw, instance)

	if err := compiled.ValidateInterface(instance); err != nil {
		return nil, &errs.ValidationError{SchemaName: name, Underlying: err}
	}

	return instance, nil
}

// applyDefaults walks schema's "properties" map and, for each property that
// declares a "default" and is absent from instance, sets it. It recurses
// into nested object schemas for properties whose value is itself an object.
func applyDefaults(schemaDoc map[string]any, instance map[string]any) {
	if schemaDoc == nil || instance == nil {
		return
	}
	props, ok := schemaDoc["properties"].(map[string]any)
	if !ok {
		return
	}

	for propName, rawPropSchema := range props {
		propSchema, ok := rawPropSchema.(map[string]any)
		if !ok {
			continue
		}

		if _, present := instance[propName]; !present {
			if def, hasDefault := propSchema["default"]; hasDefault {
				instance[propName] = cloneValue(def)
			}
		}

		if nested, ok := instance[propName].(map[string]any); ok {
			applyDefaults(propSchema, nested)
		}
	}
}

// cloneValue deep-copies a decoded-JSON default value so repeated
// validations never share mutable state through the cached schema document.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return val
	}
}
