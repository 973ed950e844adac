// Package types defines the wire-level request and response shapes of the
// turn API.
package types

import (
	"github.com/finsightlab/finsight/internal/finance"
)

// Message display types on assistant turns.
const (
	MessageAssistant  = "assistant"
	MessageClarifying = "clarifying_question"
	MessageScenario   = "scenario_result"
	MessageError      = "error"
)

// Capabilities gate the optional behaviors of a turn. Missing flags default
// to false; the deterministic paths never depend on any of them.
type Capabilities struct {
	LLM      bool `json:"llm"`
	Agent    bool `json:"agent"`
	Retry    bool `json:"retry"`
	Fallback bool `json:"fallback"`
}

// TurnRequest is the body of POST /api/chat.
type TurnRequest struct {
	ConversationID string         `json:"conversation_id,omitempty"`
	Message        string         `json:"message"`
	Input          *finance.Input `json:"input,omitempty"`
	Capabilities   Capabilities   `json:"capabilities"`
}

// ScenarioImpact records a risk level change between baseline and scenario.
type ScenarioImpact struct {
	BaselineSeverity string `json:"baseline_severity"`
	ScenarioSeverity string `json:"scenario_severity"`
}

// AnalysisRow is one finding in a turn response, optionally annotated with
// the baseline-vs-scenario severity change.
type AnalysisRow struct {
	Dimension      string             `json:"dimension"`
	RiskLevel      string             `json:"risk_level"`
	Reason         string             `json:"reason"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
	ScenarioImpact *ScenarioImpact    `json:"scenario_impact,omitempty"`
}

// UIBlock kinds.
const (
	BlockChart  = "chart"
	BlockTable  = "table"
	BlockEditor = "editor"
)

// Editor types.
const (
	EditorFinancialInput    = "financial_input"
	EditorExpenseCategories = "expense_categories"
	EditorAssetAllocation   = "asset_allocation"
)

// UIBlock is a tagged descriptor the UI layer renders. Editors attached to
// clarification requests always carry an empty value: the executor never
// fabricates category names or amounts.
type UIBlock struct {
	Type string `json:"type"`

	// chart
	ChartType string         `json:"chartType,omitempty"`
	Data      map[string]any `json:"data,omitempty"`

	// table
	Schema string        `json:"schema,omitempty"`
	Rows   []AnalysisRow `json:"rows,omitempty"`

	// editor
	EditorType string `json:"editorType,omitempty"`
	Value      any    `json:"value,omitempty"`
}

// Trace carries the per-turn diagnostic fields. PlannerDecision and
// ActionTaken diverge only when the clarification limit overrides the
// planner, in which case PlannerDecision is "noop_due_to_clarification_limit"
// and ActionTaken is "noop".
type Trace struct {
	PlannerDecision      string           `json:"planner_decision"`
	ActionTaken          string           `json:"action_taken"`
	ClarificationAttempt int              `json:"clarification_attempt"`
	PlannerStatus        string           `json:"planner_status,omitempty"`
	PlannerUsed          bool             `json:"planner_used"`
	TurnIndex            int              `json:"turn_index"`
	ContextBefore        *finance.Summary `json:"context_before,omitempty"`
	ContextAfter         *finance.Summary `json:"context_after,omitempty"`
	CompareBaselineRunID string           `json:"compare_baseline_run_id,omitempty"`
	CompareScenarioRunID string           `json:"compare_scenario_run_id,omitempty"`
}

// TurnResponse is the body returned for every turn.
type TurnResponse struct {
	ConversationID   string            `json:"conversation_id"`
	AssistantMessage string            `json:"assistant_message"`
	RunID            string            `json:"run_id,omitempty"`
	Analysis         []AnalysisRow     `json:"analysis"`
	Education        map[string]string `json:"education,omitempty"`
	Trace            Trace             `json:"trace"`
	MessageType      string            `json:"message_type"`
	ExpectedSchema   string            `json:"expected_schema,omitempty"`
	UIBlocks         []UIBlock         `json:"ui_blocks"`
}

// ConversationTurn is one log entry in a conversation view.
type ConversationTurn struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	MessageType string `json:"message_type,omitempty"`
}

// GetConversationRequest fetches a conversation by id.
type GetConversationRequest struct {
	ConversationID string `path:"id"`
}

// GetConversationResponse is the body of GET /api/conversations/{id}.
type GetConversationResponse struct {
	ConversationID       string             `json:"conversation_id"`
	Turns                []ConversationTurn `json:"turns"`
	LastRunID            string             `json:"last_run_id,omitempty"`
	LastRunType          string             `json:"last_run_type,omitempty"`
	ClarificationAttempt int                `json:"clarification_attempt"`
	PendingSchema        string             `json:"pending_schema,omitempty"`
}

// GetRunRequest fetches a recorded run by id.
type GetRunRequest struct {
	RunID string `path:"id"`
}

// GetRunResponse is the body of GET /api/runs/{id}.
type GetRunResponse struct {
	RunID     string          `json:"run_id"`
	RunType   string          `json:"run_type"`
	Context   finance.Summary `json:"context_snapshot"`
	Analysis  []AnalysisRow   `json:"analysis"`
	CreatedAt string          `json:"created_at"`
}
