// Package results collects per-scenario outcomes for a run and turns them into a summary.
package results

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Status is the canonical outcome of one scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusUnknown Status = "unknown"
)

// ParseStatus maps the spellings used by runners and report formats onto a Status.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "passed", "pass", "ok", "success":
		return StatusPassed
	case "failed", "fail", "failure", "error", "ambiguous":
		return StatusFailed
	case "skipped", "skip", "pending", "undefined":
		return StatusSkipped
	default:
		return StatusUnknown
	}
}

// Record is the outcome of one scenario execution.
type Record struct {
	RunID      string        `json:"run_id"`
	ScenarioID string        `json:"scenario_id"`
	Scenario   string        `json:"scenario"`
	Feature    string        `json:"feature"`
	Browser    string        `json:"browser"`
	Status     Status        `json:"status"`
	Error      string        `json:"error,omitempty"`
	Screenshot string        `json:"screenshot,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Store persists records beyond the process lifetime.
type Store interface {
	PersistRecords(ctx context.Context, records []Record) error
	GetRecordsByRunID(ctx context.Context, runID string) ([]Record, error)
}

// Collector accumulates records for one run. It is safe for concurrent use.
type Collector struct {
	runID     string
	startedAt time.Time

	mu      sync.Mutex
	records []Record
}

func NewCollector(runID string) *Collector {
	return &Collector{runID: runID, startedAt: time.Now()}
}

func (c *Collector) RunID() string { return c.runID }

// Add stamps r with the run id and stores it.
func (c *Collector) Add(r Record) {
	r.RunID = c.runID
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

// Records returns a copy of everything collected so far.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), c.records...)
}

// Failed reports whether any collected scenario failed.
func (c *Collector) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.Status == StatusFailed {
			return true
		}
	}
	return false
}
