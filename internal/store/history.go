package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/schemaforge/internal/migration"
)

// Status is the outcome of an attempted plan.
type Status string

const (
	StatusApplied Status = "applied"
	StatusFailed  Status = "failed"
)

// HistoryEntry records one attempted plan. The plan itself is not stored:
// only its identity, checksum and rendered step descriptions.
type HistoryEntry struct {
	ID         migration.MigrationID
	SchemaName string
	Checksum   string
	Safety     migration.Safety
	Steps      []string
	Status     Status
	FailedStep int // 1-based; 0 unless Status is StatusFailed
	Error      string
	Seq        int64
}

// NewHistoryEntry describes plan with the given outcome. failedStep is the
// 1-based index of the failing step and is ignored when cause is nil.
func NewHistoryEntry(plan *migration.Plan, failedStep int, cause error) (HistoryEntry, error) {
	checksum, err := plan.Checksum()
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("history entry: %w", err)
	}
	steps := plan.Steps()
	descriptions := make([]string, len(steps))
	for i, step := range steps {
		descriptions[i] = step.String()
	}

	e := HistoryEntry{
		ID:         plan.ID(),
		SchemaName: plan.SchemaName().String(),
		Checksum:   checksum,
		Safety:     plan.OverallSafety(),
		Steps:      descriptions,
		Status:     StatusApplied,
	}
	if cause != nil {
		e.Status = StatusFailed
		e.FailedStep = failedStep
		e.Error = cause.Error()
	}
	return e, nil
}

// RecordMigration appends a history entry stamped with the next seq and
// returns it. Recording the same plan ID twice is an error.
func (s *Store) RecordMigration(ctx context.Context, e HistoryEntry) (HistoryEntry, error) {
	steps, err := json.Marshal(e.Steps)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("record migration: %w", err)
	}

	var failed sql.NullInt64
	if e.Status == StatusFailed {
		failed = sql.NullInt64{Int64: int64(e.FailedStep), Valid: true}
	}

	e.Seq = s.clock.Next()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO migration_history
		(id, schema_name, checksum, safety, step_count, steps, status, failed_step, error, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID.String(),
		e.SchemaName,
		e.Checksum,
		e.Safety.String(),
		len(e.Steps),
		string(steps),
		string(e.Status),
		failed,
		e.Error,
		e.Seq,
	)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("record migration %s: %w", e.ID, err)
	}
	return e, nil
}

// ReadMigration returns one history entry by plan ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadMigration(ctx context.Context, id string) (HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, schema_name, checksum, safety, steps, status, failed_step, error, seq
		FROM migration_history
		WHERE id = ?
	`, id)
	e, err := scanHistory(row)
	if err == sql.ErrNoRows {
		return HistoryEntry{}, err
	}
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("read migration %s: %w", id, err)
	}
	return e, nil
}

// ListHistory returns history entries in seq order. An empty schemaName
// lists every schema.
func (s *Store) ListHistory(ctx context.Context, schemaName string) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schema_name, checksum, safety, steps, status, failed_step, error, seq
		FROM migration_history
		WHERE ? = '' OR schema_name = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, schemaName, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func scanHistory(row rowScanner) (HistoryEntry, error) {
	var (
		e             HistoryEntry
		id, safety    string
		steps, status string
		failed        sql.NullInt64
	)
	if err := row.Scan(&id, &e.SchemaName, &e.Checksum, &safety, &steps, &status, &failed, &e.Error, &e.Seq); err != nil {
		return HistoryEntry{}, err
	}

	var err error
	if e.ID, err = migration.ParseMigrationID(id); err != nil {
		return HistoryEntry{}, err
	}
	if e.Safety, err = migration.ParseSafety(safety); err != nil {
		return HistoryEntry{}, err
	}
	if err := json.Unmarshal([]byte(steps), &e.Steps); err != nil {
		return HistoryEntry{}, fmt.Errorf("decode steps: %w", err)
	}
	e.Status = Status(status)
	if failed.Valid {
		e.FailedStep = int(failed.Int64)
	}
	return e, nil
}
