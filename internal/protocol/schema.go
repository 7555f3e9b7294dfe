package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Validator checks inbound payloads against the embedded JSON schemas, one
// per inbound message type.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		p := path.Join("schemas", e.Name())
		raw, err := schemaFS.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", p, err)
		}
		if err := c.AddResource(schemaURL(e.Name()), bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", p, err)
		}
		names = append(names, e.Name())
	}
	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		s, err := c.Compile(schemaURL(name))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[strings.TrimSuffix(name, ".schema.json")] = s
	}
	return v, nil
}

func schemaURL(name string) string {
	return "wildhold://schemas/" + name
}

// Validate checks payload against the schema registered for msgType. Types
// without a schema are rejected.
func (v *Validator) Validate(msgType string, payload json.RawMessage) error {
	s, ok := v.schemas[msgType]
	if !ok {
		return fmt.Errorf("unknown message type %q", msgType)
	}
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("%s payload: %w", msgType, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s payload: %w", msgType, err)
	}
	return nil
}

// Known reports whether msgType has a schema.
func (v *Validator) Known(msgType string) bool {
	_, ok := v.schemas[msgType]
	return ok
}
