package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/schema"
)

// Snapshot is the stored definition of one schema.
type Snapshot struct {
	Definition  *schema.Definition
	Fingerprint string
	Seq         int64
}

// SaveSnapshot stores def as the current definition for its name,
// replacing any previous snapshot. The definition is serialized to
// canonical JSON.
func (s *Store) SaveSnapshot(ctx context.Context, def *schema.Definition) (Snapshot, error) {
	data, err := ir.MarshalCanonical(def)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot %s: %w", def.Name, err)
	}
	fp, err := def.Fingerprint()
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot %s: %w", def.Name, err)
	}

	seq := s.clock.Next()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schema_snapshots (name, schema_id, version, definition, fingerprint, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			schema_id = excluded.schema_id,
			version = excluded.version,
			definition = excluded.definition,
			fingerprint = excluded.fingerprint,
			seq = excluded.seq
	`,
		def.Name.String(),
		def.ID.String(),
		def.Version().Uint32(),
		string(data),
		fp,
		seq,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot %s: %w", def.Name, err)
	}

	return Snapshot{Definition: def, Fingerprint: fp, Seq: seq}, nil
}

// ReadSnapshot returns the stored snapshot for a schema name.
// Returns sql.ErrNoRows if the schema has never been saved.
func (s *Store) ReadSnapshot(ctx context.Context, name string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT definition, fingerprint, seq
		FROM schema_snapshots
		WHERE name = ?
	`, name)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return Snapshot{}, err
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	return snap, nil
}

// ListSnapshots returns every stored snapshot ordered by schema name.
// Returns an empty slice (not nil) if nothing is stored.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT definition, fingerprint, seq
		FROM schema_snapshots
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// DeleteSnapshot removes a schema's snapshot. Deleting a missing schema is
// not an error.
func (s *Store) DeleteSnapshot(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM schema_snapshots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var (
		data string
		snap Snapshot
	)
	if err := row.Scan(&data, &snap.Fingerprint, &snap.Seq); err != nil {
		return Snapshot{}, err
	}
	var def schema.Definition
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		return Snapshot{}, fmt.Errorf("decode definition: %w", err)
	}
	snap.Definition = &def
	return snap, nil
}
