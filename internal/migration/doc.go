// Package migration computes ordered, safety-classified migration plans from
// two schema snapshots.
//
// The diff engine (Diff, DiffWithRenames, CreateNew) is total and pure: it
// always returns a plan, however destructive, and never performs I/O.
// Whether a plan may be applied is a policy decision made by the caller
// through Gate.
//
// Steps, transforms and plans round-trip through tagged JSON:
//   - Step:           {"step": "AddField", ...payload}
//   - ValueTransform: {"transform": "IntegerToFloat"}
//   - Plan:           {"id", "schema_id", "schema_name", "steps"}
package migration
