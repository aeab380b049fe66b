// Package ir provides the dynamic value model and identity primitives shared
// by every other schemaforge package.
//
// ir imports nothing internal. Schema, migration and query packages build on
// top of it, so it stays the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Value is a sealed sum type; only the types in this package implement it
//   - Every Value encodes to JSON as {"type": ..., "value": ...}
//   - Typed IDs are "<prefix>_<base32 UUIDv7>" and are validated on parse
//   - Fingerprints use RFC 8785 canonical JSON with domain-separated SHA-256
//   - All JSON tags use snake_case
package ir
