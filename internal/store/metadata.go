package store

import (
	"database/sql"
	"strconv"
	"time"
)

const (
	metaLastSource    = "last_source"
	metaLastPlayedAt  = "last_played_at"
	metaLastQuestions = "last_question_count"
)

// SetMetadata upserts a key-value pair in the quiz_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO quiz_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM quiz_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// LastPlay describes the most recent quiz run.
type LastPlay struct {
	Source    string
	Questions int
	PlayedAt  time.Time
}

// RecordPlay remembers where the last quiz took its questions from.
func (s *Store) RecordPlay(source string, questions int) error {
	pairs := []struct{ k, v string }{
		{metaLastSource, source},
		{metaLastQuestions, strconv.Itoa(questions)},
		{metaLastPlayedAt, s.now().UTC().Format(time.RFC3339)},
	}
	for _, p := range pairs {
		if err := s.SetMetadata(p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetLastPlay returns the last recorded run, or nil if nothing was played yet.
func (s *Store) GetLastPlay() (*LastPlay, error) {
	var lp LastPlay
	var err error

	if lp.Source, err = s.GetMetadata(metaLastSource); err != nil {
		return nil, err
	}
	nq, err := s.GetMetadata(metaLastQuestions)
	if err != nil {
		return nil, err
	}
	if nq != "" {
		if lp.Questions, err = strconv.Atoi(nq); err != nil {
			return nil, err
		}
	}
	at, err := s.GetMetadata(metaLastPlayedAt)
	if err != nil {
		return nil, err
	}
	if at == "" {
		return nil, nil
	}
	if lp.PlayedAt, err = time.Parse(time.RFC3339, at); err != nil {
		return nil, err
	}
	return &lp, nil
}
