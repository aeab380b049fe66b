// Package surql lowers migration steps and queries to SurrealQL.
//
// Every function here is pure: it takes IR values and returns statement
// strings. Nothing is executed; statements are handed to an executor (see
// package apply) which must run them strictly in the order returned.
//
// # Migration steps
//
// StepStatements maps one step to one or more statements against a table.
// A few steps expand to several statements:
//
//   - CreateSchema: DEFINE TABLE, then the field definitions in field order
//   - AddField: DEFINE FIELD, then DEFINE INDEX when indexed, then one
//     DEFINE FIELD per composite sub-field
//   - RenameField: define the new field, copy the data, remove the old field
//
// The rename sequence is not atomic. A failure between its statements
// leaves both fields (or neither) populated.
//
// # Queries
//
// QueryStatement renders a Query as a SELECT with WHERE, ORDER BY, LIMIT
// and START clauses. CountStatement renders the filtered count. Values are
// embedded as literals; strings are escaped for single-quoted SurrealQL
// string syntax.
package surql
