// Package history records one row per VM run to a local SQLite database, so
// a sequence of `g0cvm` invocations can be reviewed later without the caller
// having to capture stdout/stderr itself.
package history

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"g0c/pkg/vm"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id             TEXT PRIMARY KEY,
	bytecode_path      TEXT NOT NULL,
	instruction_count  INTEGER NOT NULL,
	max_stack_depth    INTEGER NOT NULL,
	heap_words_in_use  INTEGER NOT NULL,
	halted_cleanly     INTEGER NOT NULL,
	error_message      TEXT,
	duration_ms        INTEGER NOT NULL,
	exit_code          INTEGER NOT NULL
);
`

// Store wraps a SQLite database holding run history.
type Store struct {
	db *sql.DB
}

// Open creates or reuses the database at path and ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening history database %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating history schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Run is one recorded VM execution.
type Run struct {
	ID            string
	BytecodePath  string
	Stats         vm.Stats
	HaltedCleanly bool
	ErrorMessage  string
	DurationMS    int64
	ExitCode      int
}

// Record inserts run, generating a fresh UUIDv4 run_id if one isn't already
// set, and returns the id used.
func (s *Store) Record(run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, bytecode_path, instruction_count, max_stack_depth, heap_words_in_use, halted_cleanly, error_message, duration_ms, exit_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.BytecodePath, run.Stats.InstructionsExecuted, run.Stats.MaxStackDepth,
		run.Stats.HeapWordsInUse, run.HaltedCleanly, run.ErrorMessage, run.DurationMS, run.ExitCode,
	)
	if err != nil {
		return "", errors.Wrap(err, "recording run history")
	}
	return run.ID, nil
}

// Recent returns the n most recently recorded runs, newest first.
func (s *Store) Recent(n int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT run_id, bytecode_path, instruction_count, max_stack_depth, heap_words_in_use, halted_cleanly, error_message, duration_ms, exit_code
		 FROM runs ORDER BY rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, errors.Wrap(err, "querying run history")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.BytecodePath, &r.Stats.InstructionsExecuted, &r.Stats.MaxStackDepth,
			&r.Stats.HeapWordsInUse, &r.HaltedCleanly, &errMsg, &r.DurationMS, &r.ExitCode); err != nil {
			return nil, errors.Wrap(err, "scanning run history row")
		}
		r.ErrorMessage = errMsg.String
		out = append(out, r)
	}
	return out, rows.Err()
}
