// Package history persists finished automation runs so the UI can show
// past results across restarts.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// Store is the SQLite-backed run history.
type Store struct {
	dbPath string
	db     *sql.DB
}

// NewStore opens (or creates) the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{dbPath: dbPath, db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS history_schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM history_schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}

	migrations := []string{migrationV1}
	for i, migration := range migrations {
		version := i + 1
		if version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration transaction: %w", err)
		}
		for _, stmt := range splitStatements(migration) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("executing migration v%d: %w", version, err)
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO history_schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", version, err)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var statements []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		lines := strings.Split(stmt, "\n")
		var sqlLines []string
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				sqlLines = append(sqlLines, line)
			}
		}
		if len(sqlLines) > 0 {
			statements = append(statements, strings.Join(sqlLines, "\n"))
		}
	}
	return statements
}

// Record inserts a finished run.
func (s *Store) Record(ctx context.Context, result core.RunResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, mode, started_at, finished_at, success, stopped, exit_code, message, script_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			success = excluded.success,
			stopped = excluded.stopped,
			exit_code = excluded.exit_code,
			message = excluded.message
	`,
		result.RunID,
		string(result.Mode),
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.FinishedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(result.Outcome.Success),
		boolToInt(result.Outcome.Stopped),
		result.Outcome.ExitCode,
		result.Outcome.Message,
		result.Outcome.ScriptPath,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]core.RunResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, started_at, finished_at, success, stopped, exit_code, message, script_path
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var results []core.RunResult
	for rows.Next() {
		var r core.RunResult
		var startedAt, finishedAt string
		var success, stopped int
		var message, scriptPath sql.NullString
		var mode string

		if err := rows.Scan(&r.RunID, &mode, &startedAt, &finishedAt, &success, &stopped, &r.Outcome.ExitCode, &message, &scriptPath); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		r.Mode = core.RunMode(mode)
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		r.Outcome.Success = success == 1
		r.Outcome.Stopped = stopped == 1
		r.Outcome.Message = message.String
		r.Outcome.ScriptPath = scriptPath.String

		results = append(results, r)
	}
	return results, rows.Err()
}

// Get returns one run by ID, or nil when unknown.
func (s *Store) Get(ctx context.Context, runID string) (*core.RunResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, mode, started_at, finished_at, success, stopped, exit_code, message, script_path
		FROM runs WHERE id = ?
	`, runID)

	var r core.RunResult
	var startedAt, finishedAt string
	var success, stopped int
	var message, scriptPath sql.NullString
	var mode string

	err := row.Scan(&r.RunID, &mode, &startedAt, &finishedAt, &success, &stopped, &r.Outcome.ExitCode, &message, &scriptPath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	r.Mode = core.RunMode(mode)
	r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
	r.Outcome.Success = success == 1
	r.Outcome.Stopped = stopped == 1
	r.Outcome.Message = message.String
	r.Outcome.ScriptPath = scriptPath.String

	return &r, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
