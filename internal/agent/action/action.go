// Package action defines the closed action vocabulary the planner may emit
// and the structured deltas extracted from user messages.
package action

// Type enumerates the five actions. The set is closed: the executor switches
// exhaustively over it and anything outside it is rejected at parse time.
type Type string

const (
	TypeRunAnalysis        Type = "run_analysis"
	TypeExplainPrevious    Type = "explain_previous"
	TypeCompareScenarios   Type = "compare_scenarios"
	TypeClarifyingQuestion Type = "clarifying_question"
	TypeNoop               Type = "noop"
)

// Valid reports whether t is one of the five allowed actions.
func (t Type) Valid() bool {
	switch t {
	case TypeRunAnalysis, TypeExplainPrevious, TypeCompareScenarios, TypeClarifyingQuestion, TypeNoop:
		return true
	}
	return false
}

// Expected schemas for clarifying questions.
const (
	SchemaExpenseCategories = "expense_categories"
	SchemaExpenseDelta      = "expense_delta"
	SchemaAssetChange       = "asset_change"
)

// ExpenseDelta is a structured change to one expense category.
type ExpenseDelta struct {
	Category     string  `json:"category"`
	MonthlyDelta float64 `json:"monthly_delta"`
}

// AssetDelta is a structured change to one asset class, in percentage points.
type AssetDelta struct {
	AssetClass string  `json:"asset_class"`
	DeltaPct   float64 `json:"allocation_delta_pct"`
}

// Action is the planner's decision for one turn. Exactly one is produced per
// turn; it is ephemeral and consumed within that turn.
type Action struct {
	Type      Type
	Reasoning string

	// Clarifying question payload.
	Question       string
	ExpectedSchema string

	// Scenario payload. ExpenseDeltas holds one or more category changes;
	// AssetDelta is the alternative single asset-class change.
	ExpenseDeltas []ExpenseDelta
	AssetDelta    *AssetDelta
}

// Noop builds a noop action with the given reasoning.
func Noop(reasoning string) Action {
	return Action{Type: TypeNoop, Reasoning: reasoning}
}

// Clarify builds a clarifying question action.
func Clarify(reasoning, question, schema string) Action {
	return Action{
		Type:           TypeClarifyingQuestion,
		Reasoning:      reasoning,
		Question:       question,
		ExpectedSchema: schema,
	}
}
