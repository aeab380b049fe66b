package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/schema"
)

// CompileSource compiles every schema declared under the top-level
// "schema" struct of a CUE source, in declaration order:
//
//	schema: Contact: {
//		version: 2
//		display: "name"
//		fields: {
//			name:   {type: "text", max_length: 255, required: true}
//			status: {type: "enum", values: ["Lead", "Customer"], default: "Lead"}
//		}
//	}
//
// A source without a "schema" struct compiles to no definitions.
func CompileSource(filename string, src []byte) ([]*schema.Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schemasVal := v.LookupPath(cue.ParsePath("schema"))
	if !schemasVal.Exists() {
		return []*schema.Definition{}, nil
	}

	iter, err := schemasVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	defs := []*schema.Definition{}
	for iter.Next() {
		def, err := CompileSchema(iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// CompileSchema parses a CUE value into a schema.Definition.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The schema name is the value's last path selector, so the value should
// be looked up from its parent:
//
//	def, err := CompileSchema(v.LookupPath(cue.ParsePath("schema.Contact")))
//
// Without an "id" attribute the definition gets a fresh SchemaID; callers
// evolving a stored schema carry the stored ID over with WithID.
func CompileSchema(v cue.Value) (*schema.Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return nil, &CompileError{Field: "schema", Message: "schema value has no name", Pos: v.Pos()}
	}
	label := labels[len(labels)-1].String()
	name, err := schema.NewSchemaName(label)
	if err != nil {
		return nil, &CompileError{Field: label, Message: err.Error(), Pos: v.Pos()}
	}

	if err := checkAttributes(v, label, schemaAttributes); err != nil {
		return nil, err
	}

	id := schema.NewSchemaID()
	if idVal := v.LookupPath(cue.ParsePath("id")); idVal.Exists() {
		s, err := idVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if id, err = schema.ParseSchemaID(s); err != nil {
			return nil, &CompileError{Field: label + ".id", Message: err.Error(), Pos: idVal.Pos()}
		}
	}

	annotations, err := parseAnnotations(v, label)
	if err != nil {
		return nil, err
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   label + ".fields",
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}
	fields, err := parseFields(fieldsVal, label+".fields")
	if err != nil {
		return nil, err
	}

	def, err := schema.NewDefinition(id, name, fields, annotations...)
	if err != nil {
		return nil, &CompileError{Field: label, Message: err.Error(), Pos: v.Pos()}
	}
	return def, nil
}

var schemaAttributes = map[string]bool{
	"id": true, "version": true, "display": true, "system": true, "fields": true,
}

var fieldAttributes = map[string]bool{
	"type": true, "required": true, "indexed": true, "default": true,
	"max_length": true, "min": true, "max": true, "precision": true,
	"values": true, "target": true, "cardinality": true, "items": true, "fields": true,
	"widget": true, "owner": true, "kanban_column": true, "access": true,
}

// checkAttributes rejects labels outside allowed so typos are not
// silently ignored.
func checkAttributes(v cue.Value, path string, allowed map[string]bool) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if !allowed[iter.Label()] {
			return &CompileError{
				Field:   path + "." + iter.Label(),
				Message: "unknown attribute",
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

// parseAnnotations reads version, display and system.
func parseAnnotations(v cue.Value, path string) ([]schema.Annotation, error) {
	var annotations []schema.Annotation

	if versionVal := v.LookupPath(cue.ParsePath("version")); versionVal.Exists() {
		n, err := versionVal.Uint64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		version, err := schema.NewSchemaVersion(uint32(n))
		if err != nil || n > uint64(^uint32(0)) {
			return nil, &CompileError{Field: path + ".version", Message: fmt.Sprintf("invalid version %d", n), Pos: versionVal.Pos()}
		}
		annotations = append(annotations, schema.WithVersion(version))
	}

	if displayVal := v.LookupPath(cue.ParsePath("display")); displayVal.Exists() {
		s, err := displayVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		field, err := schema.NewFieldName(s)
		if err != nil {
			return nil, &CompileError{Field: path + ".display", Message: err.Error(), Pos: displayVal.Pos()}
		}
		annotations = append(annotations, schema.WithDisplay(field))
	}

	if systemVal := v.LookupPath(cue.ParsePath("system")); systemVal.Exists() {
		system, err := systemVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if system {
			annotations = append(annotations, schema.AsSystem())
		}
	}

	return annotations, nil
}

// parseFields extracts field definitions in declaration order.
func parseFields(v cue.Value, path string) ([]schema.FieldDefinition, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []schema.FieldDefinition
	for iter.Next() {
		f, err := parseField(iter.Label(), iter.Value(), path+"."+iter.Label())
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func parseField(label string, v cue.Value, path string) (schema.FieldDefinition, error) {
	name, err := schema.NewFieldName(label)
	if err != nil {
		return schema.FieldDefinition{}, &CompileError{Field: path, Message: err.Error(), Pos: v.Pos()}
	}
	if err := checkAttributes(v, path, fieldAttributes); err != nil {
		return schema.FieldDefinition{}, err
	}

	t, err := parseFieldType(v, path)
	if err != nil {
		return schema.FieldDefinition{}, err
	}

	var modifiers []schema.FieldModifier
	required, err := optionalBool(v, "required")
	if err != nil {
		return schema.FieldDefinition{}, err
	}
	if required {
		modifiers = append(modifiers, schema.Required{})
	}
	indexed, err := optionalBool(v, "indexed")
	if err != nil {
		return schema.FieldDefinition{}, err
	}
	if indexed {
		modifiers = append(modifiers, schema.Indexed{})
	}
	if defaultVal := v.LookupPath(cue.ParsePath("default")); defaultVal.Exists() {
		d, err := parseDefault(defaultVal, path+".default")
		if err != nil {
			return schema.FieldDefinition{}, err
		}
		modifiers = append(modifiers, schema.Default{Value: d})
	}

	f := schema.NewField(name, t, modifiers...)
	if f.Annotations, err = parseFieldAnnotations(v, path); err != nil {
		return schema.FieldDefinition{}, err
	}
	return f, nil
}

// parseFieldType converts the "type" attribute and its constraints.
func parseFieldType(v cue.Value, path string) (schema.FieldType, error) {
	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return nil, &CompileError{Field: path + ".type", Message: "type is required", Pos: v.Pos()}
	}
	typeName, err := typeVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	switch typeName {
	case "text":
		var t schema.Text
		if n, ok, err := optionalInt(v, "max_length"); err != nil {
			return nil, err
		} else if ok {
			if n < 0 || n > int64(^uint32(0)) {
				return nil, &CompileError{Field: path + ".max_length", Message: fmt.Sprintf("max_length %d out of range", n), Pos: v.Pos()}
			}
			t.MaxLength = schema.Uint32Ptr(uint32(n))
		}
		return t, nil

	case "richtext":
		return schema.RichText{}, nil

	case "integer":
		var t schema.Integer
		if n, ok, err := optionalInt(v, "min"); err != nil {
			return nil, err
		} else if ok {
			t.Min = schema.Int64Ptr(n)
		}
		if n, ok, err := optionalInt(v, "max"); err != nil {
			return nil, err
		} else if ok {
			t.Max = schema.Int64Ptr(n)
		}
		return t, nil

	case "float":
		var t schema.Float
		if n, ok, err := optionalInt(v, "precision"); err != nil {
			return nil, err
		} else if ok {
			if n < 0 || n > 255 {
				return nil, &CompileError{Field: path + ".precision", Message: fmt.Sprintf("precision %d out of range", n), Pos: v.Pos()}
			}
			p := uint8(n)
			t.Precision = &p
		}
		return t, nil

	case "boolean":
		return schema.Boolean{}, nil

	case "datetime":
		return schema.DateTime{}, nil

	case "json":
		return schema.JSON{}, nil

	case "enum":
		values, err := stringList(v.LookupPath(cue.ParsePath("values")), path+".values")
		if err != nil {
			return nil, err
		}
		variants, err := schema.NewEnumVariants(values...)
		if err != nil {
			return nil, &CompileError{Field: path + ".values", Message: err.Error(), Pos: v.Pos()}
		}
		return schema.Enum{Variants: variants}, nil

	case "relation":
		targetVal := v.LookupPath(cue.ParsePath("target"))
		if !targetVal.Exists() {
			return nil, &CompileError{Field: path + ".target", Message: "relation target is required", Pos: v.Pos()}
		}
		s, err := targetVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		target, err := schema.NewSchemaName(s)
		if err != nil {
			return nil, &CompileError{Field: path + ".target", Message: err.Error(), Pos: targetVal.Pos()}
		}
		card := schema.One
		if cardVal := v.LookupPath(cue.ParsePath("cardinality")); cardVal.Exists() {
			s, err := cardVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			if card, err = schema.ParseCardinality(s); err != nil {
				return nil, &CompileError{Field: path + ".cardinality", Message: err.Error(), Pos: cardVal.Pos()}
			}
		}
		return schema.Relation{Target: target, Cardinality: card}, nil

	case "array":
		itemsVal := v.LookupPath(cue.ParsePath("items"))
		if !itemsVal.Exists() {
			return nil, &CompileError{Field: path + ".items", Message: "array items type is required", Pos: v.Pos()}
		}
		if err := checkAttributes(itemsVal, path+".items", fieldAttributes); err != nil {
			return nil, err
		}
		elem, err := parseFieldType(itemsVal, path+".items")
		if err != nil {
			return nil, err
		}
		return schema.Array{Element: elem}, nil

	case "composite":
		fieldsVal := v.LookupPath(cue.ParsePath("fields"))
		if !fieldsVal.Exists() {
			return nil, &CompileError{Field: path + ".fields", Message: "composite fields are required", Pos: v.Pos()}
		}
		fields, err := parseFields(fieldsVal, path+".fields")
		if err != nil {
			return nil, err
		}
		return schema.Composite{Fields: fields}, nil

	default:
		return nil, &CompileError{
			Field:   path + ".type",
			Message: fmt.Sprintf("unsupported field type %q", typeName),
			Pos:     typeVal.Pos(),
		}
	}
}

// parseDefault converts a concrete CUE scalar into a default value.
func parseDefault(v cue.Value, path string) (schema.DefaultValue, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return schema.DefaultString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return schema.DefaultInteger(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		d, err := schema.NewDefaultFloat(ir.FormatFloat(f))
		if err != nil {
			return nil, &CompileError{Field: path, Message: err.Error(), Pos: v.Pos()}
		}
		return d, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return schema.DefaultBoolean(b), nil
	default:
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("default must be a concrete string, number or bool, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// parseFieldAnnotations reads the presentation attributes of a field.
func parseFieldAnnotations(v cue.Value, path string) ([]schema.FieldAnnotation, error) {
	var annotations []schema.FieldAnnotation

	if accessVal := v.LookupPath(cue.ParsePath("access")); accessVal.Exists() {
		a := schema.FieldAnnotation{Kind: schema.FieldAccess}
		var err error
		if readVal := accessVal.LookupPath(cue.ParsePath("read")); readVal.Exists() {
			if a.Read, err = stringList(readVal, path+".access.read"); err != nil {
				return nil, err
			}
		}
		if writeVal := accessVal.LookupPath(cue.ParsePath("write")); writeVal.Exists() {
			if a.Write, err = stringList(writeVal, path+".access.write"); err != nil {
				return nil, err
			}
		}
		annotations = append(annotations, a)
	}

	if owner, err := optionalBool(v, "owner"); err != nil {
		return nil, err
	} else if owner {
		annotations = append(annotations, schema.FieldAnnotation{Kind: schema.Owner})
	}

	if widgetVal := v.LookupPath(cue.ParsePath("widget")); widgetVal.Exists() {
		s, err := widgetVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		annotations = append(annotations, schema.FieldAnnotation{Kind: schema.Widget, WidgetType: s})
	}

	if kanban, err := optionalBool(v, "kanban_column"); err != nil {
		return nil, err
	} else if kanban {
		annotations = append(annotations, schema.FieldAnnotation{Kind: schema.KanbanColumn})
	}

	return annotations, nil
}

func optionalBool(v cue.Value, name string) (bool, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return false, nil
	}
	b, err := val.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func optionalInt(v cue.Value, name string) (int64, bool, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return 0, false, nil
	}
	n, err := val.Int64()
	if err != nil {
		return 0, false, formatCUEError(err)
	}
	return n, true, nil
}

func stringList(v cue.Value, path string) ([]string, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: path, Message: "list is required", Pos: v.Pos()}
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
