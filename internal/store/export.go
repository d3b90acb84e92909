package store

import (
	"fmt"

	"github.com/pavelanni/pyquiz/internal/model"
)

// ExportHistory builds the export document for the most recent results.
func (s *Store) ExportHistory(limit int) (model.HistoryExport, error) {
	results, err := s.ListResults(limit)
	if err != nil {
		return model.HistoryExport{}, fmt.Errorf("list results: %w", err)
	}
	if results == nil {
		results = []model.StoredResult{}
	}
	return model.HistoryExport{
		GeneratedAt: s.now().UTC(),
		Count:       len(results),
		Results:     results,
	}, nil
}
