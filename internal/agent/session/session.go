// Package session holds per-conversation state and the store that owns it.
// State lives for the process lifetime; there is no persistence.
package session

import (
	"github.com/finsightlab/finsight/internal/finance"
	"github.com/finsightlab/finsight/internal/memory"
)

// Turn is one message in the conversation log. The log is append-only.
type Turn struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	MessageType string `json:"message_type,omitempty"`
}

// Pending records an outstanding clarifying question and the schema the
// reply is expected to match.
type Pending struct {
	ExpectedSchema string `json:"expected_schema"`
	Question       string `json:"question"`
	RetryCount     int    `json:"retry_count"`
}

// State is the mutable per-conversation record. It is owned exclusively by
// the orchestrator: all reads and writes happen under the store's per-id
// lock.
//
// Baseline is write-once-per-analysis and read-many. It is set only when a
// run_analysis action executes successfully, never as a side effect of a
// scenario comparison.
type State struct {
	ConversationID string
	Turns          []Turn

	LastRunID   string
	LastRunType memory.RunType
	LastSummary string

	// Baseline is the snapshot of the most recent successful analysis.
	// LastSnapshot is the most recently supplied usable input, the fallback
	// baseline source before any analysis has run.
	Baseline     *finance.Snapshot
	LastSnapshot *finance.Snapshot

	Pending              *Pending
	ClarificationAttempt int
}

// EffectiveSnapshot returns the snapshot scenario work should start from:
// baseline first, then the last supplied input. The raw turn input is the
// final fallback and is resolved in the executor.
func (s *State) EffectiveSnapshot() *finance.Snapshot {
	if s.Baseline != nil {
		return s.Baseline
	}
	return s.LastSnapshot
}

// LastUserMessage returns the content of the most recent user turn.
func (s *State) LastUserMessage() string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == "user" {
			return s.Turns[i].Content
		}
	}
	return ""
}
