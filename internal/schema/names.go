package schema

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/schemaforge/internal/ir"
)

// SchemaName is a PascalCase schema name matching [A-Z][a-zA-Z0-9]*.
type SchemaName struct {
	s string
}

// NewSchemaName validates s as a schema name.
func NewSchemaName(s string) (SchemaName, error) {
	if !isPascalCase(s) {
		return SchemaName{}, newSchemaError(ErrCodeInvalidSchemaName, s,
			"invalid schema name '%s': must be PascalCase [A-Z][a-zA-Z0-9]*", s)
	}
	return SchemaName{s: s}, nil
}

// MustSchemaName is like NewSchemaName but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSchemaName(s string) SchemaName {
	n, err := NewSchemaName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func isPascalCase(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func (n SchemaName) String() string { return n.s }

// IsZero reports whether n was never assigned.
func (n SchemaName) IsZero() bool { return n.s == "" }

func (n SchemaName) MarshalJSON() ([]byte, error) { return json.Marshal(n.s) }

func (n *SchemaName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewSchemaName(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// FieldName is a snake_case field name matching [a-z][a-z0-9_]*.
type FieldName struct {
	s string
}

// NewFieldName validates s as a field name.
func NewFieldName(s string) (FieldName, error) {
	if !isSnakeCase(s) {
		return FieldName{}, newSchemaError(ErrCodeInvalidFieldName, s,
			"invalid field name '%s': must be snake_case [a-z][a-z0-9_]*", s)
	}
	return FieldName{s: s}, nil
}

// MustFieldName is like NewFieldName but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFieldName(s string) FieldName {
	n, err := NewFieldName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func isSnakeCase(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

func (n FieldName) String() string { return n.s }

// IsZero reports whether n was never assigned.
func (n FieldName) IsZero() bool { return n.s == "" }

func (n FieldName) MarshalJSON() ([]byte, error) { return json.Marshal(n.s) }

func (n *FieldName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewFieldName(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// SchemaVersion is a schema revision number, always >= 1.
type SchemaVersion struct {
	v uint32
}

// FirstVersion is the version of a schema with no @version annotation.
var FirstVersion = SchemaVersion{v: 1}

// NewSchemaVersion validates v as a schema version.
func NewSchemaVersion(v uint32) (SchemaVersion, error) {
	if v < 1 {
		return SchemaVersion{}, newSchemaError(ErrCodeInvalidSchemaVersion, strconv.FormatUint(uint64(v), 10),
			"invalid schema version %d: must be >= 1", v)
	}
	return SchemaVersion{v: v}, nil
}

// Uint32 returns the numeric version.
func (v SchemaVersion) Uint32() uint32 { return v.v }

// Next returns the following version.
func (v SchemaVersion) Next() SchemaVersion { return SchemaVersion{v: v.v + 1} }

func (v SchemaVersion) String() string { return strconv.FormatUint(uint64(v.v), 10) }

func (v SchemaVersion) MarshalJSON() ([]byte, error) { return json.Marshal(v.v) }

func (v *SchemaVersion) UnmarshalJSON(data []byte) error {
	var n uint32
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	parsed, err := NewSchemaVersion(n)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// SchemaID identifies a schema across renames and versions ("schema_...").
type SchemaID struct {
	s string
}

// NewSchemaID generates a fresh schema ID.
func NewSchemaID() SchemaID {
	return SchemaID{s: ir.NewTypeID(ir.PrefixSchema)}
}

// ParseSchemaID validates s as a schema ID.
func ParseSchemaID(s string) (SchemaID, error) {
	if _, err := ir.ParseTypeID(ir.PrefixSchema, s); err != nil {
		return SchemaID{}, newSchemaError(ErrCodeInvalidSchemaID, s, "invalid schema id: %v", err)
	}
	return SchemaID{s: s}, nil
}

// MustSchemaID is like ParseSchemaID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSchemaID(s string) SchemaID {
	id, err := ParseSchemaID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id SchemaID) String() string { return id.s }

// IsZero reports whether id was never assigned.
func (id SchemaID) IsZero() bool { return id.s == "" }

func (id SchemaID) MarshalJSON() ([]byte, error) { return json.Marshal(id.s) }

func (id *SchemaID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSchemaID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Cardinality is the arity of a relation.
type Cardinality int

const (
	One Cardinality = iota
	Many
)

func (c Cardinality) String() string {
	switch c {
	case One:
		return "One"
	case Many:
		return "Many"
	default:
		return fmt.Sprintf("Cardinality(%d)", int(c))
	}
}

// ParseCardinality accepts "One" and "Many" or their lowercase forms.
func ParseCardinality(s string) (Cardinality, error) {
	switch s {
	case "One", "one":
		return One, nil
	case "Many", "many":
		return Many, nil
	default:
		return 0, fmt.Errorf("invalid cardinality %q: must be One or Many", s)
	}
}

func (c Cardinality) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *Cardinality) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCardinality(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
