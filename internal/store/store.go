package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaMigrations upgrade databases created by older builds. Entry i
// moves a database from user_version i to i+1; schema.sql always declares
// the latest layout, so each step must be idempotent.
var schemaMigrations = []func(*sql.DB) error{
	addHistoryIndex,
}

// currentSchemaVersion is the user_version of a fully migrated database.
var currentSchemaVersion = len(schemaMigrations)

// pragmas configure every connection: WAL for reads during writes, a busy
// timeout for lock contention and enforced foreign keys.
var pragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// Store provides durable storage for schema snapshots, migration history,
// the statement journal and document records.
type Store struct {
	db    *sql.DB
	clock *Clock
}

// Open creates or opens the SQLite database at path (":memory:" works),
// brings its tables up to date and resumes the logical clock after the
// highest seq already stored. Opening an existing database is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer, and an in-memory
	// database only lives as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply pragmas: %q: %w", stmt, err)
		}
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := s.upgrade(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	last, err := s.LastSeq(context.Background())
	if err != nil {
		return err
	}
	s.clock = NewClockAt(last)
	return nil
}

// upgrade runs the schemaMigrations a database has not seen yet.
func (s *Store) upgrade() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	for v := version; v < len(schemaMigrations); v++ {
		if err := schemaMigrations[v](s.db); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// addHistoryIndex indexes history by schema for databases created before
// schema.sql declared idx_history_schema.
func addHistoryIndex(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_schema ON migration_history(schema_name, seq)`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for tests and ad hoc inspection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Clock returns the store's logical clock.
func (s *Store) Clock() *Clock {
	return s.clock
}

// seqTables are the tables whose rows carry a seq from the clock.
var seqTables = []string{"schema_snapshots", "migration_history", "statement_journal", "records"}

// LastSeq returns the highest seq stamped on any row.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	parts := make([]string, len(seqTables))
	for i, table := range seqTables {
		parts[i] = "SELECT COALESCE(MAX(seq), 0) AS seq FROM " + table
	}
	query := "SELECT MAX(seq) FROM (" + strings.Join(parts, " UNION ALL ") + ")"

	var last int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&last); err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return last, nil
}

// verifyPragma reports whether pragma name currently reads as expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
