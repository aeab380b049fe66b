package migration

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/schema"
)

// Step is one atomic structural change. It is a sealed interface; every
// variant carries the names, types and values it needs so it can be lowered
// without consulting the schema again.
type Step interface {
	fmt.Stringer
	json.Marshaler

	// Kind returns the variant name used as the JSON discriminator.
	Kind() string

	// Safety classifies the step by variant alone, never by payload.
	Safety() Safety

	step() // Sealed
}

// CreateSchema creates a new table with its full field list.
type CreateSchema struct {
	Name   schema.SchemaName        `json:"name"`
	Fields []schema.FieldDefinition `json:"fields"`
}

// DropSchema removes a table and all of its data.
type DropSchema struct {
	Name schema.SchemaName `json:"name"`
}

// AddField defines a new non-relation field.
type AddField struct {
	Field schema.FieldDefinition `json:"field"`
}

// RemoveField drops a non-relation field and its data.
type RemoveField struct {
	Name schema.FieldName `json:"name"`
}

// RenameField moves a field's data to a new name.
type RenameField struct {
	OldName schema.FieldName `json:"old_name"`
	NewName schema.FieldName `json:"new_name"`
}

// ChangeType redefines a field with a new type.
type ChangeType struct {
	Name      schema.FieldName `json:"name"`
	OldType   schema.FieldType `json:"old_type"`
	NewType   schema.FieldType `json:"new_type"`
	Transform ValueTransform   `json:"transform"`
}

// AddIndex creates a secondary index on a field.
type AddIndex struct {
	Field schema.FieldName `json:"field"`
}

// RemoveIndex drops a field's secondary index.
type RemoveIndex struct {
	Field schema.FieldName `json:"field"`
}

// AddRelation defines a reference field to another schema.
type AddRelation struct {
	Name        schema.FieldName   `json:"name"`
	Target      schema.SchemaName  `json:"target"`
	Cardinality schema.Cardinality `json:"cardinality"`
}

// RemoveRelation drops a reference field.
type RemoveRelation struct {
	Name schema.FieldName `json:"name"`
}

// BackfillRequired fills absent values of a field with a default.
type BackfillRequired struct {
	Field        schema.FieldName `json:"field"`
	DefaultValue ir.Value         `json:"default_value"`
}

// AddRequired adds a not-absent constraint to a field.
type AddRequired struct {
	Field schema.FieldName `json:"field"`
}

// RemoveRequired drops a field's not-absent constraint.
type RemoveRequired struct {
	Field schema.FieldName `json:"field"`
}

// SetDefault sets or changes a field's default value.
type SetDefault struct {
	Field schema.FieldName    `json:"field"`
	Value schema.DefaultValue `json:"value"`
}

// RemoveDefault drops a field's default value.
type RemoveDefault struct {
	Field schema.FieldName `json:"field"`
}

func (CreateSchema) step()     {}
func (DropSchema) step()       {}
func (AddField) step()         {}
func (RemoveField) step()      {}
func (RenameField) step()      {}
func (ChangeType) step()       {}
func (AddIndex) step()         {}
func (RemoveIndex) step()      {}
func (AddRelation) step()      {}
func (RemoveRelation) step()   {}
func (BackfillRequired) step() {}
func (AddRequired) step()      {}
func (RemoveRequired) step()   {}
func (SetDefault) step()       {}
func (RemoveDefault) step()    {}

func (CreateSchema) Kind() string     { return "CreateSchema" }
func (DropSchema) Kind() string       { return "DropSchema" }
func (AddField) Kind() string         { return "AddField" }
func (RemoveField) Kind() string      { return "RemoveField" }
func (RenameField) Kind() string      { return "RenameField" }
func (ChangeType) Kind() string       { return "ChangeType" }
func (AddIndex) Kind() string         { return "AddIndex" }
func (RemoveIndex) Kind() string      { return "RemoveIndex" }
func (AddRelation) Kind() string      { return "AddRelation" }
func (RemoveRelation) Kind() string   { return "RemoveRelation" }
func (BackfillRequired) Kind() string { return "BackfillRequired" }
func (AddRequired) Kind() string      { return "AddRequired" }
func (RemoveRequired) Kind() string   { return "RemoveRequired" }
func (SetDefault) Kind() string       { return "SetDefault" }
func (RemoveDefault) Kind() string    { return "RemoveDefault" }

func (CreateSchema) Safety() Safety   { return Safe }
func (AddField) Safety() Safety       { return Safe }
func (AddIndex) Safety() Safety       { return Safe }
func (AddRelation) Safety() Safety    { return Safe }
func (RemoveIndex) Safety() Safety    { return Safe }
func (RemoveRequired) Safety() Safety { return Safe }
func (SetDefault) Safety() Safety     { return Safe }
func (RemoveDefault) Safety() Safety  { return Safe }

func (RenameField) Safety() Safety      { return RequiresConfirmation }
func (ChangeType) Safety() Safety       { return RequiresConfirmation }
func (BackfillRequired) Safety() Safety { return RequiresConfirmation }
func (AddRequired) Safety() Safety      { return RequiresConfirmation }

func (DropSchema) Safety() Safety     { return Destructive }
func (RemoveField) Safety() Safety    { return Destructive }
func (RemoveRelation) Safety() Safety { return Destructive }

func (s CreateSchema) String() string {
	return fmt.Sprintf("CREATE schema '%s' with %d fields", s.Name, len(s.Fields))
}
func (s DropSchema) String() string  { return fmt.Sprintf("DROP schema '%s'", s.Name) }
func (s AddField) String() string    { return fmt.Sprintf("ADD field '%s'", s.Field.Name) }
func (s RemoveField) String() string { return fmt.Sprintf("REMOVE field '%s'", s.Name) }
func (s RenameField) String() string {
	return fmt.Sprintf("RENAME field '%s' to '%s'", s.OldName, s.NewName)
}
func (s ChangeType) String() string {
	return fmt.Sprintf("CHANGE TYPE of '%s' from %s to %s via %s", s.Name, s.OldType, s.NewType, s.Transform)
}
func (s AddIndex) String() string    { return fmt.Sprintf("ADD INDEX on '%s'", s.Field) }
func (s RemoveIndex) String() string { return fmt.Sprintf("REMOVE INDEX on '%s'", s.Field) }
func (s AddRelation) String() string {
	return fmt.Sprintf("ADD RELATION '%s' -> %s (%s)", s.Name, s.Target, s.Cardinality)
}
func (s RemoveRelation) String() string { return fmt.Sprintf("REMOVE RELATION '%s'", s.Name) }
func (s BackfillRequired) String() string {
	return fmt.Sprintf("BACKFILL '%s' with %s", s.Field, s.DefaultValue)
}
func (s AddRequired) String() string    { return fmt.Sprintf("ADD REQUIRED on '%s'", s.Field) }
func (s RemoveRequired) String() string { return fmt.Sprintf("REMOVE REQUIRED on '%s'", s.Field) }
func (s SetDefault) String() string {
	return fmt.Sprintf("SET DEFAULT on '%s' to %s", s.Field, s.Value)
}
func (s RemoveDefault) String() string { return fmt.Sprintf("REMOVE DEFAULT on '%s'", s.Field) }

// marshalStep prepends the "step" discriminator to the payload object.
func marshalStep(kind string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", kind, err)
	}
	head := []byte(`{"step":"` + kind + `"`)
	if len(data) <= 2 {
		return append(head, '}'), nil
	}
	head = append(head, ',')
	return append(head, data[1:]...), nil
}

func (s CreateSchema) MarshalJSON() ([]byte, error) {
	type plain CreateSchema
	if s.Fields == nil {
		s.Fields = []schema.FieldDefinition{}
	}
	return marshalStep(s.Kind(), plain(s))
}

func (s DropSchema) MarshalJSON() ([]byte, error) {
	type plain DropSchema
	return marshalStep(s.Kind(), plain(s))
}

func (s AddField) MarshalJSON() ([]byte, error) {
	type plain AddField
	return marshalStep(s.Kind(), plain(s))
}

func (s RemoveField) MarshalJSON() ([]byte, error) {
	type plain RemoveField
	return marshalStep(s.Kind(), plain(s))
}

func (s RenameField) MarshalJSON() ([]byte, error) {
	type plain RenameField
	return marshalStep(s.Kind(), plain(s))
}

func (s ChangeType) MarshalJSON() ([]byte, error) {
	type plain ChangeType
	return marshalStep(s.Kind(), plain(s))
}

func (s AddIndex) MarshalJSON() ([]byte, error) {
	type plain AddIndex
	return marshalStep(s.Kind(), plain(s))
}

func (s RemoveIndex) MarshalJSON() ([]byte, error) {
	type plain RemoveIndex
	return marshalStep(s.Kind(), plain(s))
}

func (s AddRelation) MarshalJSON() ([]byte, error) {
	type plain AddRelation
	return marshalStep(s.Kind(), plain(s))
}

func (s RemoveRelation) MarshalJSON() ([]byte, error) {
	type plain RemoveRelation
	return marshalStep(s.Kind(), plain(s))
}

func (s BackfillRequired) MarshalJSON() ([]byte, error) {
	type plain BackfillRequired
	return marshalStep(s.Kind(), plain(s))
}

func (s AddRequired) MarshalJSON() ([]byte, error) {
	type plain AddRequired
	return marshalStep(s.Kind(), plain(s))
}

func (s RemoveRequired) MarshalJSON() ([]byte, error) {
	type plain RemoveRequired
	return marshalStep(s.Kind(), plain(s))
}

func (s SetDefault) MarshalJSON() ([]byte, error) {
	type plain SetDefault
	return marshalStep(s.Kind(), plain(s))
}

func (s RemoveDefault) MarshalJSON() ([]byte, error) {
	type plain RemoveDefault
	return marshalStep(s.Kind(), plain(s))
}

func decodeStep[T Step](data []byte) (Step, error) {
	var s T
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Kind(), err)
	}
	return s, nil
}

// UnmarshalStep decodes the tagged JSON form of a step.
func UnmarshalStep(data []byte) (Step, error) {
	var env struct {
		Step string `json:"step"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode step: %w", err)
	}

	decode := func(v any) error {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode %s: %w", env.Step, err)
		}
		return nil
	}

	switch env.Step {
	case "CreateSchema":
		return decodeStep[CreateSchema](data)
	case "DropSchema":
		return decodeStep[DropSchema](data)
	case "AddField":
		return decodeStep[AddField](data)
	case "RemoveField":
		return decodeStep[RemoveField](data)
	case "RenameField":
		return decodeStep[RenameField](data)
	case "ChangeType":
		var raw struct {
			Name      schema.FieldName `json:"name"`
			OldType   json.RawMessage  `json:"old_type"`
			NewType   json.RawMessage  `json:"new_type"`
			Transform json.RawMessage  `json:"transform"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		oldType, err := schema.UnmarshalFieldType(raw.OldType)
		if err != nil {
			return nil, fmt.Errorf("decode ChangeType old_type: %w", err)
		}
		newType, err := schema.UnmarshalFieldType(raw.NewType)
		if err != nil {
			return nil, fmt.Errorf("decode ChangeType new_type: %w", err)
		}
		transform, err := UnmarshalTransform(raw.Transform)
		if err != nil {
			return nil, fmt.Errorf("decode ChangeType transform: %w", err)
		}
		return ChangeType{Name: raw.Name, OldType: oldType, NewType: newType, Transform: transform}, nil
	case "AddIndex":
		return decodeStep[AddIndex](data)
	case "RemoveIndex":
		return decodeStep[RemoveIndex](data)
	case "AddRelation":
		return decodeStep[AddRelation](data)
	case "RemoveRelation":
		return decodeStep[RemoveRelation](data)
	case "BackfillRequired":
		var raw struct {
			Field        schema.FieldName `json:"field"`
			DefaultValue json.RawMessage  `json:"default_value"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		v, err := ir.UnmarshalValue(raw.DefaultValue)
		if err != nil {
			return nil, fmt.Errorf("decode BackfillRequired default_value: %w", err)
		}
		return BackfillRequired{Field: raw.Field, DefaultValue: v}, nil
	case "AddRequired":
		return decodeStep[AddRequired](data)
	case "RemoveRequired":
		return decodeStep[RemoveRequired](data)
	case "SetDefault":
		var raw struct {
			Field schema.FieldName `json:"field"`
			Value json.RawMessage  `json:"value"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		v, err := schema.UnmarshalDefaultValue(raw.Value)
		if err != nil {
			return nil, fmt.Errorf("decode SetDefault value: %w", err)
		}
		return SetDefault{Field: raw.Field, Value: v}, nil
	case "RemoveDefault":
		return decodeStep[RemoveDefault](data)
	case "":
		return nil, fmt.Errorf("decode step: missing step tag")
	default:
		return nil, fmt.Errorf("decode step: unknown step %q", env.Step)
	}
}
