package model

import "time"

// Quiz attribution shown in every results report.
const (
	Author  = "Albin Anthony"
	Credits = "Tutorials Point"
)

// HistoryExport is the top-level structure written by the history command.
type HistoryExport struct {
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Count       int            `json:"count" yaml:"count"`
	Results     []StoredResult `json:"results" yaml:"results"`
}
