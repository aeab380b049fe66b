// Package schema defines the declarative model that migrations are computed
// from: named schemas made of typed, modified and annotated fields.
//
// Every name and constraint type validates on construction. Once a value
// exists it is valid, and downstream packages (migration, queryir, surql)
// rely on that instead of re-checking.
//
// JSON encodings follow the persisted schema format:
//   - FieldType:       {"type": "Text", "data": {...}}
//   - DefaultValue:    {"type": "String", "value": ...}
//   - FieldModifier:   {"modifier": "Default", "value": {...}}
//   - Annotations:     {"annotation": "Version", ...}
package schema
