package harvest

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// RunLog appends finished runs to a JSON-lines file, one record per run,
// for offline inspection of harvest history.
type RunLog struct {
	mu   sync.Mutex
	path string
}

// NewRunLog creates a run log writing to the given file path. The file is
// created on first append.
func NewRunLog(path string) *RunLog {
	return &RunLog{path: path}
}

// Append writes the run as a single JSON line.
func (l *RunLog) Append(run *Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.RunID, err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write run log: %w", err)
	}
	return nil
}
