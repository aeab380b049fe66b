package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldDefinition is one named, typed field of a schema.
type FieldDefinition struct {
	Name        FieldName         `json:"name"`
	Type        FieldType         `json:"field_type"`
	Modifiers   []FieldModifier   `json:"modifiers,omitempty"`
	Annotations []FieldAnnotation `json:"annotations,omitempty"`
}

// NewField builds a field definition.
func NewField(name FieldName, t FieldType, modifiers ...FieldModifier) FieldDefinition {
	return FieldDefinition{Name: name, Type: t, Modifiers: modifiers}
}

// IsRequired reports whether the field carries the Required modifier.
func (f FieldDefinition) IsRequired() bool {
	for _, m := range f.Modifiers {
		if _, ok := m.(Required); ok {
			return true
		}
	}
	return false
}

// IsIndexed reports whether the field carries the Indexed modifier.
func (f FieldDefinition) IsIndexed() bool {
	for _, m := range f.Modifiers {
		if _, ok := m.(Indexed); ok {
			return true
		}
	}
	return false
}

// DefaultValue returns the field's default, if any.
func (f FieldDefinition) DefaultValue() (DefaultValue, bool) {
	for _, m := range f.Modifiers {
		if d, ok := m.(Default); ok && d.Value != nil {
			return d.Value, true
		}
	}
	return nil, false
}

// IsRelation reports whether the field is a Relation.
func (f FieldDefinition) IsRelation() bool {
	_, ok := f.Type.(Relation)
	return ok
}

func (f FieldDefinition) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", f.Name, f.Type)
	for _, m := range f.Modifiers {
		b.WriteString(" @")
		b.WriteString(m.String())
	}
	for _, a := range f.Annotations {
		b.WriteString(" ")
		b.WriteString(a.String())
	}
	return b.String()
}

// UnmarshalJSON decodes the interface-typed field type and modifiers.
func (f *FieldDefinition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        FieldName         `json:"name"`
		Type        json.RawMessage   `json:"field_type"`
		Modifiers   []json.RawMessage `json:"modifiers"`
		Annotations []FieldAnnotation `json:"annotations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Name.IsZero() {
		return newSchemaError(ErrCodeInvalidFieldName, "", "field definition is missing a name")
	}

	t, err := UnmarshalFieldType(raw.Type)
	if err != nil {
		return fmt.Errorf("field %s: %w", raw.Name, err)
	}

	var mods []FieldModifier
	for i, m := range raw.Modifiers {
		mod, err := UnmarshalFieldModifier(m)
		if err != nil {
			return fmt.Errorf("field %s: modifiers[%d]: %w", raw.Name, i, err)
		}
		mods = append(mods, mod)
	}

	*f = FieldDefinition{
		Name:        raw.Name,
		Type:        t,
		Modifiers:   mods,
		Annotations: raw.Annotations,
	}
	return nil
}

// validateFields checks field names are unique and every type is valid.
func validateFields(fields []FieldDefinition) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name.IsZero() {
			return newSchemaError(ErrCodeInvalidFieldName, "", "field definition is missing a name")
		}
		if seen[f.Name.String()] {
			return newSchemaError(ErrCodeDuplicateFieldName, f.Name.String(), "duplicate field name '%s'", f.Name)
		}
		seen[f.Name.String()] = true

		if err := validateFieldType(f.Type); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return nil
}
