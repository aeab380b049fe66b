// Package queryir provides a storage-agnostic query intermediate
// representation (IR): field paths, a boolean filter algebra and a query
// envelope with ordering and pagination.
//
// ARCHITECTURE:
//
// The Query IR is the boundary between callers that express queries and
// the backends that execute them:
//
//	[caller / CLI query file] → [Query IR] → [SurrealQL compiler]  (internal/surql)
//	                                       → [SQLite document store] (internal/querysql)
//
// Builders (Eq, Ne, Gt, ..., And, Or, Negate) are pure constructors with no
// validation beyond structural shape. Field existence and type
// compatibility are checked separately by ValidateFilter against a schema.
//
// SEALED INTERFACES:
//
// Filter is a sealed interface (marker method filterNode). Only the types in
// this package implement it, so backend compilers can switch exhaustively
// and report unknown nodes as errors.
//
// SERIALIZATION:
//
// Filters and queries round-trip through tagged JSON so they can cross
// process boundaries unchanged:
//
//	{"op": "And", "filters": [
//	  {"op": "Eq", "path": ["name"], "value": {"type": "Text", "value": "Jane"}},
//	  {"op": "Gt", "path": ["age"],  "value": {"type": "Integer", "value": 25}}
//	]}
package queryir
