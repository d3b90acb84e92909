package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/pavelanni/pyquiz/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock makes the store hand out increasing timestamps one minute apart.
func fixedClock(s *Store) {
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
}

func saveTestResult(t *testing.T, s *Store, name string, correct, total int) string {
	t.Helper()
	st := model.NewSessionState(name, make([]model.QuestionRecord, total))
	for range correct {
		st.RecordAnswer(true)
	}
	id, err := s.SaveResult(st.Summary(), "test")
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	return id
}

func TestResultCRUD(t *testing.T) {
	s := newTestStore(t)
	fixedClock(s)

	count, err := s.ResultCount()
	if err != nil {
		t.Fatalf("ResultCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 results, got %d", count)
	}

	summary := model.ResultSummary{
		Participant: "Ann", Attempted: 3, Total: 4, Correct: 2, Wrong: 1, Skipped: 1, AverageScore: 50,
	}
	id, err := s.SaveResult(summary, "https://example.com/quiz")
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	got, err := s.GetResult(id)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored result")
	}
	if got.ResultSummary != summary {
		t.Errorf("round trip mismatch: got %+v, want %+v", got.ResultSummary, summary)
	}
	if got.Source != "https://example.com/quiz" {
		t.Errorf("source = %q", got.Source)
	}
	if got.FinishedAt.IsZero() {
		t.Error("expected finished_at to be set")
	}

	missing, err := s.GetResult("no-such-id")
	if err != nil {
		t.Fatalf("GetResult missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing id, got %+v", missing)
	}
}

func TestListResultsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	fixedClock(s)

	first := saveTestResult(t, s, "Ann", 1, 4)
	saveTestResult(t, s, "Bob", 2, 4)
	last := saveTestResult(t, s, "Cid", 3, 4)

	all, err := s.ListResults(0)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 results, got %d", len(all))
	}
	if all[0].ID != last || all[2].ID != first {
		t.Errorf("results not ordered newest first: %v", []string{all[0].ID, all[1].ID, all[2].ID})
	}

	limited, err := s.ListResults(2)
	if err != nil {
		t.Fatalf("ListResults(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 results, got %d", len(limited))
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	s := newTestStore(t)
	fixedClock(s)

	saveTestResult(t, s, "Low", 1, 4)
	saveTestResult(t, s, "HighEarly", 3, 4)
	saveTestResult(t, s, "HighLate", 3, 4)
	saveTestResult(t, s, "Mid", 2, 4)

	board, err := s.Leaderboard(3)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	var names []string
	for _, r := range board {
		names = append(names, r.Participant)
	}
	want := []string{"HighEarly", "HighLate", "Mid"}
	if !slices.Equal(names, want) {
		t.Errorf("leaderboard = %v, want %v", names, want)
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)
	fixedClock(s)

	v, err := s.GetMetadata("missing")
	if err != nil || v != "" {
		t.Fatalf("GetMetadata(missing) = %q, %v", v, err)
	}

	lp, err := s.GetLastPlay()
	if err != nil {
		t.Fatalf("GetLastPlay: %v", err)
	}
	if lp != nil {
		t.Fatalf("expected no last play, got %+v", lp)
	}

	if err := s.RecordPlay("saved.json", 25); err != nil {
		t.Fatalf("RecordPlay: %v", err)
	}
	if err := s.RecordPlay("https://example.com", 100); err != nil {
		t.Fatalf("RecordPlay again: %v", err)
	}
	lp, err = s.GetLastPlay()
	if err != nil {
		t.Fatalf("GetLastPlay: %v", err)
	}
	if lp == nil || lp.Source != "https://example.com" || lp.Questions != 100 {
		t.Errorf("last play = %+v", lp)
	}
}

func TestExportHistory(t *testing.T) {
	s := newTestStore(t)
	fixedClock(s)

	empty, err := s.ExportHistory(10)
	if err != nil {
		t.Fatalf("ExportHistory: %v", err)
	}
	if empty.Count != 0 || empty.Results == nil {
		t.Errorf("empty export = %+v, want zero count and non-nil results", empty)
	}

	saveTestResult(t, s, "Ann", 2, 4)
	saveTestResult(t, s, "Bob", 4, 4)

	exp, err := s.ExportHistory(0)
	if err != nil {
		t.Fatalf("ExportHistory: %v", err)
	}
	if exp.Count != 2 || len(exp.Results) != 2 {
		t.Fatalf("export count = %d, results = %d", exp.Count, len(exp.Results))
	}
	if exp.Results[0].Participant != "Bob" {
		t.Errorf("expected newest result first, got %q", exp.Results[0].Participant)
	}
}

func sampleRecords() []model.QuestionRecord {
	return []model.QuestionRecord{
		{Question: "Q1", Options: []string{"a", "b", "c", "d"}, Answer: model.LetterA, Explanation: "e1"},
		{Question: "Q2", Options: []string{"a", "b"}, Answer: model.LetterB, Explanation: "e2"},
		{Question: "Q3", Options: []string{"a", "b", "c"}, Answer: model.LetterC, Explanation: "e3"},
		{Question: "Q4", Options: []string{"a", "b", "c", "d"}, Answer: model.LetterD, Explanation: ""},
	}
}

func byQuestion(a, b model.QuestionRecord) int {
	switch {
	case a.Question < b.Question:
		return -1
	case a.Question > b.Question:
		return 1
	}
	return 0
}

func TestSaveQuestionsWritesPermutation(t *testing.T) {
	records := sampleRecords()
	base := filepath.Join(t.TempDir(), "out")

	path, err := SaveQuestions(records, base)
	if err != nil {
		t.Fatalf("SaveQuestions: %v", err)
	}
	if path != base+".json" {
		t.Errorf("path = %q, want %q", path, base+".json")
	}

	// Structural read, independent of LoadQuestions.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(raw) != len(records) {
		t.Fatalf("document has %d elements, want %d", len(raw), len(records))
	}
	for _, key := range []string{"question", "options", "ans", "explanation"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("element missing key %q", key)
		}
	}

	loaded, err := LoadQuestions(path)
	if err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	slices.SortFunc(loaded, byQuestion)
	for i := range records {
		if !recordsEqual(loaded[i], records[i]) {
			t.Errorf("record %d = %+v, want %+v", i, loaded[i], records[i])
		}
	}
	if records[0].Question != "Q1" || records[3].Question != "Q4" {
		t.Error("SaveQuestions reordered the caller's slice")
	}
}

func recordsEqual(a, b model.QuestionRecord) bool {
	return a.Question == b.Question && a.Answer == b.Answer &&
		a.Explanation == b.Explanation && slices.Equal(a.Options, b.Options)
}

func TestSaveQuestionsKeepsJSONExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "questions.json")
	got, err := SaveQuestions(sampleRecords(), p)
	if err != nil {
		t.Fatalf("SaveQuestions: %v", err)
	}
	if got != p {
		t.Errorf("path = %q, want %q", got, p)
	}
}

func TestSaveQuestionsWriteError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing-dir", "out")
	_, err := SaveQuestions(sampleRecords(), p)
	if !errors.Is(err, model.ErrPersistenceFailure) {
		t.Errorf("expected ErrPersistenceFailure, got %v", err)
	}
}

func TestLoadQuestionsRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{"},
		{"bad answer", `[{"question":"Q","options":["a"],"ans":"C","explanation":""}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(p, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadQuestions(p)
			if !errors.Is(err, model.ErrPersistenceFailure) {
				t.Errorf("expected ErrPersistenceFailure, got %v", err)
			}
		})
	}

	if _, err := LoadQuestions(filepath.Join(dir, "absent.json")); !errors.Is(err, model.ErrPersistenceFailure) {
		t.Errorf("expected ErrPersistenceFailure for missing file, got %v", err)
	}
}
