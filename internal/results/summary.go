package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SummaryFile is written into the report directory at the end of a run.
const SummaryFile = "summary.json"

// Summary aggregates the records of one run.
type Summary struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Total      int           `json:"total"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
	Failures   []Record      `json:"failures,omitempty"`
}

// OK reports whether the run had no failures.
func (s *Summary) OK() bool { return s.Failed == 0 }

func (s *Summary) String() string {
	return fmt.Sprintf("%d scenarios (%d passed, %d failed, %d skipped) in %s",
		s.Total, s.Passed, s.Failed, s.Skipped, s.Duration.Round(time.Millisecond))
}

// Summarize counts records by status.
func Summarize(runID string, startedAt time.Time, records []Record) *Summary {
	s := &Summary{RunID: runID, StartedAt: startedAt, FinishedAt: time.Now(), Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
			s.Failures = append(s.Failures, r)
		default:
			s.Skipped++
		}
	}
	s.Duration = s.FinishedAt.Sub(startedAt)
	return s
}

// WriteSummary writes s as indented JSON to dir/summary.json.
func WriteSummary(dir string, s *Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}
	path := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}

// Finalize summarizes the collector, writes the summary file into dir and, when store
// is non-nil, persists the records.
func Finalize(ctx context.Context, c *Collector, dir string, store Store) (*Summary, error) {
	records := c.Records()
	summary := Summarize(c.RunID(), c.startedAt, records)

	if _, err := WriteSummary(dir, summary); err != nil {
		return summary, err
	}
	if store == nil || len(records) == 0 {
		return summary, nil
	}
	if err := store.PersistRecords(ctx, records); err != nil {
		return summary, fmt.Errorf("error persisting results: %w", err)
	}
	return summary, nil
}
