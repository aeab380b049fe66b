// Package harness runs migration scenarios end to end.
//
// A scenario pairs an old and a new CUE schema source, optional rename
// hints and an optional safety confirmation, and states what the plan must
// look like and how applying it must end. The harness compiles both
// sources, diffs them, gates the plan, lowers it to SurrealQL and applies it
// through a recording executor into a fresh in-memory store.
//
// # Scenario Format
//
//	name: rename_full_name
//	description: "Renaming name to full_name copies the data"
//	old: |
//	  schema: Contact: fields: name: {type: "text"}
//	new: |
//	  schema: Contact: fields: full_name: {type: "text"}
//	renames: ["name:full_name"]
//	confirm:
//	  allow_risky: true
//	fail_on: "DEFINE INDEX"
//	expect:
//	  steps: [RenameField]
//	  safety: requires_confirmation
//	  statements_contain: ["UPDATE Contact SET full_name = name;"]
//	  status: applied
//
// Without "old" the scenario plans the creation of the new schema. Without
// "confirm" the safety gate is skipped. "fail_on" makes every statement
// containing the substring fail at the executor.
//
// # Golden Files
//
// RunWithGolden compares the full planned statement sequence against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
