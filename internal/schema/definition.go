package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/schemaforge/internal/ir"
)

// Definition is a complete, validated schema: an identity, a PascalCase
// name, an ordered non-empty list of uniquely named fields and at most one
// annotation of each kind.
type Definition struct {
	ID          SchemaID          `json:"id"`
	Name        SchemaName        `json:"name"`
	Fields      []FieldDefinition `json:"fields"`
	Annotations []Annotation      `json:"annotations,omitempty"`
}

// NewDefinition builds and validates a schema definition.
func NewDefinition(id SchemaID, name SchemaName, fields []FieldDefinition, annotations ...Annotation) (*Definition, error) {
	d := &Definition{ID: id, Name: name, Fields: fields, Annotations: annotations}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// MustDefinition is like NewDefinition but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDefinition(id SchemaID, name SchemaName, fields []FieldDefinition, annotations ...Annotation) *Definition {
	d, err := NewDefinition(id, name, fields, annotations...)
	if err != nil {
		panic(err)
	}
	return d
}

// Validate checks the definition's structural invariants.
func (d *Definition) Validate() error {
	if d.ID.IsZero() {
		return newSchemaError(ErrCodeInvalidSchemaID, "", "schema %s has no id", d.Name)
	}
	if d.Name.IsZero() {
		return newSchemaError(ErrCodeInvalidSchemaName, "", "invalid schema name '': must be PascalCase [A-Z][a-zA-Z0-9]*")
	}
	if len(d.Fields) == 0 {
		return newSchemaError(ErrCodeEmptyFields, d.Name.String(), "schema must have at least one field")
	}
	if err := validateFields(d.Fields); err != nil {
		return fmt.Errorf("schema %s: %w", d.Name, err)
	}

	seen := make(map[AnnotationKind]bool, len(d.Annotations))
	for _, a := range d.Annotations {
		if seen[a.Kind] {
			return newSchemaError(ErrCodeDuplicateAnnotation, string(a.Kind), "duplicate annotation '%s'", strings.ToLower(string(a.Kind)))
		}
		seen[a.Kind] = true
	}
	return nil
}

// Field looks up a top-level field by name.
func (d *Definition) Field(name string) (FieldDefinition, bool) {
	for _, f := range d.Fields {
		if f.Name.String() == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// Version returns the @version annotation, or 1 when absent.
func (d *Definition) Version() SchemaVersion {
	for _, a := range d.Annotations {
		if a.Kind == VersionAnnotation && a.Version != nil {
			return *a.Version
		}
	}
	return FirstVersion
}

// DisplayField returns the field named by @display, if any.
func (d *Definition) DisplayField() (FieldName, bool) {
	for _, a := range d.Annotations {
		if a.Kind == DisplayAnnotation && a.Field != nil {
			return *a.Field, true
		}
	}
	return FieldName{}, false
}

// IsSystem reports whether the schema is marked @system.
func (d *Definition) IsSystem() bool {
	for _, a := range d.Annotations {
		if a.Kind == SystemAnnotation {
			return true
		}
	}
	return false
}

// WithID returns a copy of d carrying a different identity.
func (d *Definition) WithID(id SchemaID) *Definition {
	cp := *d
	cp.ID = id
	return &cp
}

// Fingerprint hashes the schema's content. The ID is excluded, so two
// definitions with the same shape share a fingerprint.
func (d *Definition) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.DomainSchema, struct {
		Name        SchemaName        `json:"name"`
		Fields      []FieldDefinition `json:"fields"`
		Annotations []Annotation      `json:"annotations,omitempty"`
	}{d.Name, d.Fields, d.Annotations})
}

func (d *Definition) String() string {
	var b strings.Builder
	for _, a := range d.Annotations {
		b.WriteString(a.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "schema %s {\n", d.Name)
	for _, f := range d.Fields {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	b.WriteString("}")
	return b.String()
}

// UnmarshalJSON decodes and validates a definition.
func (d *Definition) UnmarshalJSON(data []byte) error {
	type plain Definition
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	def := Definition(p)
	if err := def.Validate(); err != nil {
		return err
	}
	*d = def
	return nil
}
