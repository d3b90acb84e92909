package store

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/pavelanni/pyquiz/internal/model"
)

const questionsExt = ".json"

// SaveQuestions shuffles a copy of records and writes them as an indented
// JSON array. The .json extension is appended unless path already has it.
// It returns the path that was written.
func SaveQuestions(records []model.QuestionRecord, path string) (string, error) {
	if !strings.HasSuffix(path, questionsExt) {
		path += questionsExt
	}

	shuffled := make([]model.QuestionRecord, len(records))
	copy(shuffled, records)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	data, err := json.MarshalIndent(shuffled, "", "    ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal questions: %v", model.ErrPersistenceFailure, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", model.ErrPersistenceFailure, path, err)
	}
	return path, nil
}

// LoadQuestions reads a file written by SaveQuestions and validates every
// record in it.
func LoadQuestions(path string) ([]model.QuestionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", model.ErrPersistenceFailure, path, err)
	}
	var records []model.QuestionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", model.ErrPersistenceFailure, path, err)
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: question %d: %v", model.ErrPersistenceFailure, path, i+1, err)
		}
	}
	return records, nil
}
