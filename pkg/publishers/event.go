package publishers

import (
	"time"

	"github.com/samvad-hq/agnews-dataset-prep/internal/report"
)

// EventTypeDatasetPrepared marks a completed documents.json build.
const EventTypeDatasetPrepared = "dataset.prepared"

// Event represents the payload published downstream once a run has finished.
type Event struct {
	Type        string         `json:"type"`
	RunID       string         `json:"run_id"`
	Dataset     string         `json:"dataset"`
	SourceURL   string         `json:"source_url,omitempty"`
	OutputPath  string         `json:"output_path"`
	Documents   int            `json:"documents"`
	TotalChars  int            `json:"total_chars"`
	AverageSize int            `json:"average_size"`
	Categories  map[string]int `json:"categories"`
	CompletedAt time.Time      `json:"completed_at"`
}

// NewEvent constructs a dataset.prepared Event from run statistics.
func NewEvent(runID, dataset, sourceURL, outputPath string, stats report.Stats) Event {
	avg, _ := stats.Average()
	return Event{
		Type:        EventTypeDatasetPrepared,
		RunID:       runID,
		Dataset:     dataset,
		SourceURL:   sourceURL,
		OutputPath:  outputPath,
		Documents:   stats.Documents,
		TotalChars:  stats.TotalChars,
		AverageSize: avg,
		Categories:  stats.CategoryMap(),
		CompletedAt: time.Now().UTC(),
	}
}
