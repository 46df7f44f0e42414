package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrCounterBehind is returned by Open when a session's stored counter is
// below the end of one of its recorded runs. Resuming such a session would
// hand out __implN names that are already in use.
var ErrCounterBehind = errors.New("session counter behind recorded runs")

// migration is one step of the schema history. Steps run in order for every
// database whose user_version is below their version.
type migration struct {
	version int
	name    string
	stmt    string
}

var migrations = []migration{
	{
		version: 1,
		name:    "index diagnostics by code",
		stmt:    `CREATE INDEX IF NOT EXISTS idx_diagnostics_code ON diagnostics(code)`,
	},
	{
		version: 2,
		name:    "session counter never moves backwards",
		stmt: `CREATE TRIGGER IF NOT EXISTS sessions_next_impl_monotonic
			BEFORE UPDATE OF next_impl ON sessions
			WHEN NEW.next_impl < OLD.next_impl
			BEGIN
				SELECT RAISE(ABORT, 'next_impl never decreases');
			END`,
	},
	{
		version: 3,
		name:    "run ranges are ordered",
		stmt: `CREATE TRIGGER IF NOT EXISTS runs_range_ordered
			BEFORE INSERT ON runs
			WHEN NEW.end_impl < NEW.start_impl
			BEGIN
				SELECT RAISE(ABORT, 'run end_impl precedes start_impl');
			END`,
	},
}

// schemaVersion is the user_version of a fully migrated database.
var schemaVersion = migrations[len(migrations)-1].version

// pragma is a connection setting and the value PRAGMA reports once applied.
type pragma struct {
	name  string
	value string
	want  string
}

var pragmas = []pragma{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
}

// Store is the SQLite session log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the session log at path (":memory:" for a private
// in-memory log), migrates it and checks that every session counter covers
// its recorded runs.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: counter updates are serialized and an in-memory
	// database is not split across connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, step := range []func(*sql.DB) error{applyPragmas, applySchema, checkCounters} {
		if err := step(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	for _, p := range pragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("failed to set pragma %s: %w", p.name, err)
		}
	}
	return nil
}

// applySchema creates the base tables and runs the pending migrations in one
// transaction, so a failed step leaves user_version untouched.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin tx: %w", err)
	}
	defer tx.Rollback()
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := tx.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("migrate: set user_version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}

// checkCounters rejects a log in which some session's next_impl is below the
// end of a recorded run.
func checkCounters(db *sql.DB) error {
	var (
		id         string
		next, ends int64
	)
	err := db.QueryRow(`
		SELECT s.id, s.next_impl, MAX(r.end_impl)
		FROM sessions s JOIN runs r ON r.session_id = s.id
		GROUP BY s.id
		HAVING MAX(r.end_impl) > s.next_impl
		ORDER BY s.id
		LIMIT 1
	`).Scan(&id, &next, &ends)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check session counters: %w", err)
	}
	return fmt.Errorf("session %q: next_impl %d, runs end at %d: %w", id, next, ends, ErrCounterBehind)
}

// verifyPragma checks that a pragma reports the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
