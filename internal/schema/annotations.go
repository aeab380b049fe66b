package schema

import (
	"fmt"
	"strings"
)

// FieldAnnotationKind names a field-level annotation.
type FieldAnnotationKind string

const (
	FieldAccess  FieldAnnotationKind = "FieldAccess"
	Owner        FieldAnnotationKind = "Owner"
	Widget       FieldAnnotationKind = "Widget"
	KanbanColumn FieldAnnotationKind = "KanbanColumn"
)

// FieldAnnotation is presentation or ownership metadata on a field.
// Annotations never produce migration steps.
type FieldAnnotation struct {
	Kind       FieldAnnotationKind `json:"annotation"`
	WidgetType string              `json:"widget_type,omitempty"`
	Read       []string            `json:"read,omitempty"`
	Write      []string            `json:"write,omitempty"`
}

func (a FieldAnnotation) String() string {
	switch a.Kind {
	case FieldAccess:
		return fmt.Sprintf("@field_access(read=[%s], write=[%s])", quoteList(a.Read), quoteList(a.Write))
	case Owner:
		return "@owner"
	case Widget:
		return fmt.Sprintf("@widget(%q)", a.WidgetType)
	case KanbanColumn:
		return "@kanban_column"
	default:
		return "@" + string(a.Kind)
	}
}

// AnnotationKind names a schema-level annotation.
type AnnotationKind string

const (
	VersionAnnotation AnnotationKind = "Version"
	DisplayAnnotation AnnotationKind = "Display"
	SystemAnnotation  AnnotationKind = "System"
)

// Annotation is schema-level metadata. A schema carries at most one
// annotation of each kind.
type Annotation struct {
	Kind    AnnotationKind `json:"annotation"`
	Version *SchemaVersion `json:"version,omitempty"`
	Field   *FieldName     `json:"field,omitempty"`
}

// WithVersion builds a @version annotation.
func WithVersion(v SchemaVersion) Annotation {
	return Annotation{Kind: VersionAnnotation, Version: &v}
}

// WithDisplay builds a @display annotation naming the display field.
func WithDisplay(f FieldName) Annotation {
	return Annotation{Kind: DisplayAnnotation, Field: &f}
}

// AsSystem builds a @system annotation.
func AsSystem() Annotation {
	return Annotation{Kind: SystemAnnotation}
}

func (a Annotation) String() string {
	switch a.Kind {
	case VersionAnnotation:
		if a.Version != nil {
			return "@version(" + a.Version.String() + ")"
		}
	case DisplayAnnotation:
		if a.Field != nil {
			return fmt.Sprintf("@display(%q)", a.Field.String())
		}
	case SystemAnnotation:
		return "@system"
	}
	return "@" + strings.ToLower(string(a.Kind))
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
