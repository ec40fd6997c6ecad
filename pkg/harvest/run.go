package harvest

import (
	"errors"
	"time"

	"recipe-harvest/pkg/domain"

	"github.com/google/uuid"
)

// ErrRunActive is returned when a harvest is started while another run is
// still in progress. Runs are never queued or interleaved.
var ErrRunActive = errors.New("a harvest run is already active")

// Run statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is the record of one harvest: per-platform and per-stage counters
// plus timing. It is the orchestrator's sole external contract; raw errors
// never cross it.
type Run struct {
	RunID           string     `json:"run_id"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	DurationSeconds float64    `json:"duration_seconds"`

	Discovered map[domain.Platform]int      `json:"discovered"`
	Extracted  map[domain.Platform]int      `json:"extracted"`
	Errors     map[domain.Platform][]string `json:"errors,omitempty"`

	TotalDiscovered int `json:"total_discovered"`
	TotalExtracted  int `json:"total_extracted"`
	DuplicatesFound int `json:"duplicates_found"`
	QualityPassed   int `json:"quality_passed"`
	QualityFailed   int `json:"quality_failed"`
	Stored          int `json:"stored"`
}

func newRun() *Run {
	return &Run{
		RunID:      uuid.NewString()[:8],
		Status:     StatusPending,
		Discovered: make(map[domain.Platform]int),
		Extracted:  make(map[domain.Platform]int),
		Errors:     make(map[domain.Platform][]string),
	}
}

// snapshot returns a deep copy so callers can read a run while the
// orchestrator is still mutating it.
func (r *Run) snapshot() *Run {
	out := *r
	out.Discovered = make(map[domain.Platform]int, len(r.Discovered))
	for k, v := range r.Discovered {
		out.Discovered[k] = v
	}
	out.Extracted = make(map[domain.Platform]int, len(r.Extracted))
	for k, v := range r.Extracted {
		out.Extracted[k] = v
	}
	out.Errors = make(map[domain.Platform][]string, len(r.Errors))
	for k, v := range r.Errors {
		out.Errors[k] = append([]string(nil), v...)
	}
	return &out
}
