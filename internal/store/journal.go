package store

import (
	"context"
	"fmt"
)

// JournalEntry is one statement handed to a Journal.
type JournalEntry struct {
	ID         int64  `json:"id"`
	SchemaName string `json:"schema"`
	Statement  string `json:"statement"`
	Seq        int64  `json:"seq"`
}

// Journal is an offline statement executor: instead of running statements
// against a live engine it appends them, in order, to the statement
// journal. It satisfies apply.Executor.
type Journal struct {
	store      *Store
	schemaName string
}

// JournalFor returns a journal executor that files statements under
// schemaName.
func (s *Store) JournalFor(schemaName string) *Journal {
	return &Journal{store: s, schemaName: schemaName}
}

// Execute appends stmt to the journal.
func (j *Journal) Execute(ctx context.Context, stmt string) error {
	_, err := j.store.db.ExecContext(ctx, `
		INSERT INTO statement_journal (schema_name, statement, seq)
		VALUES (?, ?, ?)
	`, j.schemaName, stmt, j.store.clock.Next())
	if err != nil {
		return fmt.Errorf("journal statement: %w", err)
	}
	return nil
}

// ReadJournal returns journaled statements in execution order. An empty
// schemaName reads every schema.
func (s *Store) ReadJournal(ctx context.Context, schemaName string) ([]JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schema_name, statement, seq
		FROM statement_journal
		WHERE ? = '' OR schema_name = ?
		ORDER BY seq ASC
	`, schemaName, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []JournalEntry{}
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.SchemaName, &e.Statement, &e.Seq); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}
