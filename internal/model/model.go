package model

import (
	"fmt"
	"strings"
	"time"
)

// Letter identifies an option of a multiple-choice question.
type Letter string

const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
	LetterD Letter = "D"
)

// MaxOptions is the number of options a question can carry.
const MaxOptions = 4

var letters = []Letter{LetterA, LetterB, LetterC, LetterD}

// ParseLetter converts user or page text into a Letter, ignoring case and
// surrounding whitespace.
func ParseLetter(s string) (Letter, error) {
	l := Letter(strings.ToUpper(strings.TrimSpace(s)))
	if l.Index() < 0 {
		return "", fmt.Errorf("invalid option letter %q", s)
	}
	return l, nil
}

// LetterAt returns the letter for a zero-based option index.
func LetterAt(i int) (Letter, bool) {
	if i < 0 || i >= len(letters) {
		return "", false
	}
	return letters[i], true
}

// Index returns the zero-based option index, or -1 for an unknown letter.
func (l Letter) Index() int {
	for i, x := range letters {
		if x == l {
			return i
		}
	}
	return -1
}

// QuestionRecord is one quiz question. The JSON layout matches the files
// written by the save command.
type QuestionRecord struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      Letter   `json:"ans"`
	Explanation string   `json:"explanation"`
}

// Validate checks that the record has 1..4 options and that Answer points at
// one of them.
func (q QuestionRecord) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("empty question text")
	}
	if len(q.Options) == 0 || len(q.Options) > MaxOptions {
		return fmt.Errorf("question has %d options, want 1..%d", len(q.Options), MaxOptions)
	}
	idx := q.Answer.Index()
	if idx < 0 || idx >= len(q.Options) {
		return fmt.Errorf("answer %q does not match any of %d options", q.Answer, len(q.Options))
	}
	return nil
}

// Choices returns the letters that are valid answers for this question.
func (q QuestionRecord) Choices() []Letter {
	n := min(len(q.Options), MaxOptions)
	return letters[:n]
}

// SessionState tracks one participant's progress through the quiz.
type SessionState struct {
	Participant string
	Remaining   []QuestionRecord
	Total       int
	Correct     int
	Wrong       int
	Skipped     int
	Attempted   int
}

// NewSessionState starts a session over the given questions.
func NewSessionState(participant string, questions []QuestionRecord) *SessionState {
	remaining := make([]QuestionRecord, len(questions))
	copy(remaining, questions)
	return &SessionState{
		Participant: participant,
		Remaining:   remaining,
		Total:       len(questions),
	}
}

// Next pops the next question. It returns false once the sequence is
// exhausted.
func (s *SessionState) Next() (QuestionRecord, bool) {
	if len(s.Remaining) == 0 {
		return QuestionRecord{}, false
	}
	q := s.Remaining[0]
	s.Remaining = s.Remaining[1:]
	return q, true
}

// Position returns the 1-based number of the question last returned by Next.
func (s *SessionState) Position() int {
	return s.Total - len(s.Remaining)
}

// RecordSkip counts a skipped question.
func (s *SessionState) RecordSkip() {
	s.Skipped++
}

// RecordAnswer counts an attempted question.
func (s *SessionState) RecordAnswer(correct bool) {
	if correct {
		s.Correct++
	} else {
		s.Wrong++
	}
	s.Attempted++
}

// Summary derives the final result. The average is taken over the original
// question count, so skipped and abandoned questions lower it.
func (s *SessionState) Summary() ResultSummary {
	var avg float64
	if s.Total > 0 {
		avg = float64(s.Correct) / float64(s.Total) * 100
	}
	return ResultSummary{
		Participant:  s.Participant,
		Attempted:    s.Attempted,
		Total:        s.Total,
		Correct:      s.Correct,
		Wrong:        s.Wrong,
		Skipped:      s.Skipped,
		AverageScore: avg,
	}
}

// ResultSummary is the immutable outcome of a session.
type ResultSummary struct {
	Participant  string  `json:"participant" yaml:"participant"`
	Attempted    int     `json:"attempted" yaml:"attempted"`
	Total        int     `json:"total" yaml:"total"`
	Correct      int     `json:"correct" yaml:"correct"`
	Wrong        int     `json:"wrong" yaml:"wrong"`
	Skipped      int     `json:"skipped" yaml:"skipped"`
	AverageScore float64 `json:"average_score" yaml:"average_score"`
}

// Completed reports whether every question was attempted.
func (r ResultSummary) Completed() bool {
	return r.Total > 0 && r.Attempted == r.Total
}

// StoredResult is a summary saved in the results history.
type StoredResult struct {
	ID            string `json:"id" yaml:"id"`
	ResultSummary `yaml:",inline"`
	Source        string    `json:"source" yaml:"source"`
	FinishedAt    time.Time `json:"finished_at" yaml:"finished_at"`
}

// QuizConfig holds runtime parameters of the play command.
type QuizConfig struct {
	NumQuestions int  // 0 means all fetched questions
	Shuffle      bool
	SpeedBoost   int // added to every typewriter speed
}
