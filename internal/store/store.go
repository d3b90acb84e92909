package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/pyquiz/internal/model"

	_ "modernc.org/sqlite"
)

// Store keeps the history of finished quiz sessions in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		participant TEXT NOT NULL,
		attempted INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		correct INTEGER NOT NULL DEFAULT 0,
		wrong INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		average_score REAL NOT NULL DEFAULT 0,
		source TEXT NOT NULL DEFAULT '',
		finished_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_finished_at ON results(finished_at);

	CREATE TABLE IF NOT EXISTS quiz_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const resultColumns = `id, participant, attempted, total, correct, wrong, skipped, average_score, source, finished_at`

// SaveResult stores a finished session and returns its generated ID.
func (s *Store) SaveResult(r model.ResultSummary, source string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO results (`+resultColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, r.Participant, r.Attempted, r.Total, r.Correct, r.Wrong, r.Skipped, r.AverageScore, source, s.now().UTC(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (model.StoredResult, error) {
	var r model.StoredResult
	err := row.Scan(&r.ID, &r.Participant, &r.Attempted, &r.Total, &r.Correct, &r.Wrong,
		&r.Skipped, &r.AverageScore, &r.Source, &r.FinishedAt)
	return r, err
}

// GetResult returns a stored result by ID, or nil if it does not exist.
func (s *Store) GetResult(id string) (*model.StoredResult, error) {
	r, err := scanResult(s.db.QueryRow(`SELECT `+resultColumns+` FROM results WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListResults returns the most recent results first. A limit <= 0 returns all.
func (s *Store) ListResults(limit int) ([]model.StoredResult, error) {
	return s.queryResults(`SELECT `+resultColumns+` FROM results ORDER BY finished_at DESC, rowid DESC`, limit)
}

// Leaderboard returns results ordered by average score, then correct
// answers, then who finished first.
func (s *Store) Leaderboard(limit int) ([]model.StoredResult, error) {
	return s.queryResults(`SELECT `+resultColumns+` FROM results
		ORDER BY average_score DESC, correct DESC, finished_at ASC`, limit)
}

func (s *Store) queryResults(query string, limit int) ([]model.StoredResult, error) {
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.StoredResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ResultCount returns the number of stored results.
func (s *Store) ResultCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count)
	return count, err
}
