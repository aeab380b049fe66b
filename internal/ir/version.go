package ir

// Version constants for the persisted formats.
const (
	// FormatVersion is the version of the JSON encodings for schemas, plans and values.
	FormatVersion = "1"

	// ToolVersion is the schemaforge release version.
	ToolVersion = "0.1.0"
)
