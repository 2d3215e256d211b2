package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldType is the closed set of configuration field kinds.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeInteger  FieldType = "integer"
	TypeBoolean  FieldType = "boolean"
	TypeEnum     FieldType = "enum"
	TypePassword FieldType = "password"
	TypePath     FieldType = "path"
)

// FieldTypes lists every supported field type in display order.
var FieldTypes = []FieldType{TypeString, TypeInteger, TypeBoolean, TypeEnum, TypePassword, TypePath}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Option is a single enum choice.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// UnmarshalJSON accepts either {"value":..,"label":..} or a bare string.
func (o *Option) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*o = Option{Value: s, Label: s}
		return nil
	}
	type plain Option
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*o = Option(p)
	if o.Label == "" {
		o.Label = o.Value
	}
	return nil
}

// UnmarshalYAML accepts either a mapping or a bare scalar.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*o = Option{Value: node.Value, Label: node.Value}
		return nil
	}
	type plain Option
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*o = Option(p)
	if o.Label == "" {
		o.Label = o.Value
	}
	return nil
}

// Field describes one user-editable setting. ID is the environment variable name.
type Field struct {
	ID          string    `json:"id" yaml:"id"`
	Type        FieldType `json:"type" yaml:"type"`
	Label       string    `json:"label" yaml:"label"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Default     string    `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Min         *int      `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *int      `json:"max,omitempty" yaml:"max,omitempty"`
	Options     []Option  `json:"options,omitempty" yaml:"options,omitempty"`
}

// UnmarshalJSON tolerates non-string defaults (numbers, booleans) the
// backend passes through from YAML.
func (f *Field) UnmarshalJSON(data []byte) error {
	type plain Field
	var raw struct {
		plain
		Default json.RawMessage `json:"default,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Field(raw.plain)
	f.Default = scalarString(raw.Default)
	return nil
}

func scalarString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}

// HasOption reports whether value is one of the field's option values.
func (f Field) HasOption(value string) bool {
	for _, opt := range f.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Group partitions fields for display. Order is display order.
type Group struct {
	ID          string  `json:"id" yaml:"id"`
	Label       string  `json:"label" yaml:"label"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`
}

// Schema is the declarative description of an app's settings. It is read-only
// once loaded.
type Schema struct {
	Version string  `json:"version" yaml:"version"`
	Groups  []Group `json:"groups" yaml:"groups"`
}

// UnmarshalJSON accepts a numeric version, as an unquoted "version: 1.0"
// arrives after the backend's YAML to JSON pass-through.
func (s *Schema) UnmarshalJSON(data []byte) error {
	type plain Schema
	var raw struct {
		plain
		Version json.RawMessage `json:"version"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Schema(raw.plain)
	s.Version = scalarString(raw.Version)
	return nil
}

// Fields returns every field in schema order.
func (s Schema) Fields() []Field {
	var out []Field
	for _, g := range s.Groups {
		out = append(out, g.Fields...)
	}
	return out
}

// Field looks up a field by id.
func (s Schema) Field(id string) (Field, bool) {
	for _, g := range s.Groups {
		for _, f := range g.Fields {
			if f.ID == id {
				return f, true
			}
		}
	}
	return Field{}, false
}

// Empty reports whether the schema has no fields at all.
func (s Schema) Empty() bool {
	for _, g := range s.Groups {
		if len(g.Fields) > 0 {
			return false
		}
	}
	return true
}

// Check reports every structural invariant the schema violates.
func (s Schema) Check() error {
	var errs []error
	if strings.TrimSpace(s.Version) == "" {
		errs = append(errs, errors.New("missing 'version' field"))
	}
	if s.Groups == nil {
		errs = append(errs, errors.New("missing 'groups' field"))
	}
	seen := make(map[string]string)
	for gi, g := range s.Groups {
		if strings.TrimSpace(g.ID) == "" {
			errs = append(errs, fmt.Errorf("group %d: missing id", gi))
		}
		for _, f := range g.Fields {
			if f.ID == "" {
				errs = append(errs, fmt.Errorf("group %q: field without id", g.ID))
				continue
			}
			if prev, dup := seen[f.ID]; dup {
				errs = append(errs, fmt.Errorf("field %q: duplicate id (also in group %q)", f.ID, prev))
			}
			seen[f.ID] = g.ID
			errs = append(errs, checkField(f)...)
		}
	}
	return errors.Join(errs...)
}

func checkField(f Field) []error {
	var errs []error
	if !f.Type.Valid() {
		return []error{fmt.Errorf("field %q: unknown type %q", f.ID, f.Type)}
	}
	if f.Type == TypeEnum && len(f.Options) == 0 {
		errs = append(errs, fmt.Errorf("field %q: enum without options", f.ID))
	}
	if f.Type != TypeEnum && len(f.Options) > 0 {
		errs = append(errs, fmt.Errorf("field %q: options only allowed on enum fields", f.ID))
	}
	if f.Type != TypeInteger && (f.Min != nil || f.Max != nil) {
		errs = append(errs, fmt.Errorf("field %q: min/max only allowed on integer fields", f.ID))
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		errs = append(errs, fmt.Errorf("field %q: min %d greater than max %d", f.ID, *f.Min, *f.Max))
	}
	return errs
}
