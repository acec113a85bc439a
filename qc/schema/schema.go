// Package schema defines the record schemas that outputs are canonicalized
// against and the read-only registry that serves them.
package schema

import (
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/paw-chain/qc/qc/types"
)

// FieldType is the semantic type of a schema field.
type FieldType string

const (
	FieldString    FieldType = "string"
	FieldFloat     FieldType = "float"
	FieldInteger   FieldType = "integer"
	FieldTimestamp FieldType = "timestamp"
	FieldVector    FieldType = "vector"
)

// Input encodings a schema may accept.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// Field declares one named field of a schema.
type Field struct {
	Name     string    `yaml:"name"`
	Type     FieldType `yaml:"type"`
	Optional bool      `yaml:"optional"`
	// Aliases are alternative input names, consulted only when Name is absent.
	Aliases []string `yaml:"aliases"`
}

// Schema is a named, versioned record layout. Schemas are immutable once
// registered and shared by every component.
type Schema struct {
	ID                 string   `yaml:"schema_id"`
	Formats            []string `yaml:"formats"`
	AllowSpecialFloats bool     `yaml:"allow_special_floats"`
	Fields             []Field  `yaml:"fields"`
	PrimaryKey         []string `yaml:"primary_key"`
}

// Parse decodes and validates a YAML schema document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, types.ErrInvalidSchema.Wrapf("decode: %s", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks structural consistency of the schema.
func (s *Schema) Validate() error {
	if s.ID == "" {
		return types.ErrInvalidSchema.Wrap("schema_id is empty")
	}
	if len(s.Fields) == 0 {
		return types.ErrInvalidSchema.Wrapf("%s declares no fields", s.ID)
	}
	if len(s.Formats) == 0 {
		return types.ErrInvalidSchema.Wrapf("%s declares no input formats", s.ID)
	}
	for _, f := range s.Formats {
		if f != FormatCSV && f != FormatJSONL {
			return types.ErrInvalidSchema.Wrapf("%s: unknown format %q", s.ID, f)
		}
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return types.ErrInvalidSchema.Wrapf("%s: field with empty name", s.ID)
		}
		if _, dup := seen[f.Name]; dup {
			return types.ErrInvalidSchema.Wrapf("%s: duplicate field %q", s.ID, f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Type {
		case FieldString, FieldFloat, FieldInteger, FieldTimestamp, FieldVector:
		default:
			return types.ErrInvalidSchema.Wrapf("%s: field %q has unknown type %q", s.ID, f.Name, f.Type)
		}
		if f.Type == FieldVector && slices.Contains(s.Formats, FormatCSV) {
			return types.ErrInvalidSchema.Wrapf("%s: vector field %q cannot be read from csv", s.ID, f.Name)
		}
	}

	if len(s.PrimaryKey) == 0 {
		return types.ErrInvalidSchema.Wrapf("%s declares no primary key", s.ID)
	}
	for _, k := range s.PrimaryKey {
		f, ok := s.Field(k)
		if !ok {
			return types.ErrInvalidSchema.Wrapf("%s: primary key %q is not a declared field", s.ID, k)
		}
		if f.Type == FieldVector {
			return types.ErrInvalidSchema.Wrapf("%s: primary key %q cannot be a vector", s.ID, k)
		}
	}
	return nil
}

// Field looks up a declared field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SupportsFormat reports whether format is one of the schema's encodings.
func (s *Schema) SupportsFormat(format string) bool {
	return slices.Contains(s.Formats, format)
}
