// Package memory is the in-process run history. It exists for replay,
// explain-previous and debugging; it is not persistence and does not survive
// the process.
package memory

import (
	"sync"
	"time"

	"github.com/finsightlab/finsight/internal/finance"
	"github.com/finsightlab/finsight/internal/tools"
)

// RunType labels what a recorded run analyzed.
type RunType string

const (
	RunBaseline RunType = "baseline"
	RunScenario RunType = "scenario"
)

// RunMemory captures one completed tool run.
type RunMemory struct {
	RunID     string          `json:"run_id"`
	Type      RunType         `json:"run_type"`
	Context   finance.Summary `json:"context_snapshot"`
	Findings  []tools.Finding `json:"findings"`
	CreatedAt time.Time       `json:"created_at"`
}

// History is a concurrency-safe in-memory run store, injected wherever run
// results must be fetched later.
type History struct {
	mu   sync.RWMutex
	runs map[string]RunMemory
}

// NewHistory creates an empty run history.
func NewHistory() *History {
	return &History{runs: make(map[string]RunMemory)}
}

// Add records a run.
func (h *History) Add(run RunMemory) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs[run.RunID] = run
}

// Get fetches a run by id.
func (h *History) Get(runID string) (RunMemory, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	run, ok := h.runs[runID]
	return run, ok
}

// Len returns the number of recorded runs.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.runs)
}
