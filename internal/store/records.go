package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/querysql"
	"github.com/roach88/schemaforge/internal/queryir"
	"github.com/roach88/schemaforge/internal/schema"
)

// Record is one stored document.
//
// Bodies are plain JSON objects so json_extract can address fields. Reading
// a body back yields JSON's types: DateTime and Enum values come back as
// Text, numbers as Integer or Float.
type Record struct {
	ID   ir.EntityID
	Body ir.Composite
	Seq  int64
}

// PlainBody returns the body in its stored JSON shape.
func (r Record) PlainBody() (map[string]any, error) {
	plain, err := toPlain(r.Body)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	return plain.(map[string]any), nil
}

// PutRecord inserts or replaces a document.
func (s *Store) PutRecord(ctx context.Context, schemaID schema.SchemaID, id ir.EntityID, body ir.Composite) error {
	plain, err := toPlain(body)
	if err != nil {
		return fmt.Errorf("put record %s: %w", id, err)
	}
	data, err := ir.MarshalCanonical(plain)
	if err != nil {
		return fmt.Errorf("put record %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (schema_id, id, body, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(schema_id, id) DO UPDATE SET
			body = excluded.body,
			seq = excluded.seq
	`, schemaID.String(), id.String(), string(data), s.clock.Next())
	if err != nil {
		return fmt.Errorf("put record %s: %w", id, err)
	}
	return nil
}

// QueryRecords runs a compiled query against the records table.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) QueryRecords(ctx context.Context, q queryir.Query) ([]Record, error) {
	sqlText, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := decodeRecord(id, body)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// CountRecords returns the number of records matching the query's filter.
func (s *Store) CountRecords(ctx context.Context, q queryir.Query) (int64, error) {
	sqlText, params, err := querysql.NewSQLCompiler().CompileCount(q)
	if err != nil {
		return 0, fmt.Errorf("compile count: %w", err)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, sqlText, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func decodeRecord(id, body string) (Record, error) {
	entityID, err := ir.ParseEntityID(id)
	if err != nil {
		return Record{}, fmt.Errorf("record %s: %w", id, err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber() // keep integers above 2^53 exact
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return Record{}, fmt.Errorf("record %s: decode body: %w", id, err)
	}
	v, err := ir.FromNative(raw)
	if err != nil {
		return Record{}, fmt.Errorf("record %s: %w", id, err)
	}
	return Record{ID: entityID, Body: v.(ir.Composite)}, nil
}

// toPlain converts a value to the plain JSON shape stored in record bodies.
func toPlain(v ir.Value) (any, error) {
	switch val := v.(type) {
	case ir.Composite:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			p, err := toPlain(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = p
		}
		return out, nil
	case ir.Array:
		out := make([]any, len(val))
		for i, elem := range val {
			p, err := toPlain(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = p
		}
		return out, nil
	case ir.RefArray:
		out := make([]any, len(val))
		for i, id := range val {
			out[i] = id.String()
		}
		return out, nil
	case ir.JSON:
		return json.RawMessage(val), nil
	default:
		return ir.ToNative(v)
	}
}
