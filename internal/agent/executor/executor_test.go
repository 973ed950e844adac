package executor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/finsightlab/finsight/internal/agent/action"
	"github.com/finsightlab/finsight/internal/agent/ai"
	"github.com/finsightlab/finsight/internal/agent/session"
	"github.com/finsightlab/finsight/internal/finance"
	"github.com/finsightlab/finsight/internal/memory"
	"github.com/finsightlab/finsight/internal/tools"
	"github.com/finsightlab/finsight/internal/types"
)

type countingRunner struct {
	registry *tools.Registry
	calls    int
}

func (c *countingRunner) Run(s finance.Snapshot) []tools.Finding {
	c.calls++
	return c.registry.Run(s)
}

type scripted struct {
	text string
}

func (s scripted) ID() string { return "scripted" }

func (s scripted) Generate(ctx context.Context, prompt string) (string, error) {
	return s.text, nil
}

func newExecutor() (*Executor, *countingRunner, *memory.History) {
	runner := &countingRunner{registry: tools.NewRegistry()}
	history := memory.NewHistory()
	return New(runner, history, nil), runner, history
}

func testInput() *finance.Input {
	savings := 30000.0
	return &finance.Input{
		MonthlyIncome:  10000,
		CurrentSavings: &savings,
		ExpenseCategories: []finance.CategoryInput{
			{Category: "Housing", Amount: 2200},
			{Category: "Food", Amount: 2000},
			{Category: "Transport", Amount: 1800},
		},
	}
}

func TestExecute_RunAnalysis(t *testing.T) {
	exec, _, history := newExecutor()
	state := &session.State{ConversationID: "c1"}

	res := exec.Execute(context.Background(), state, action.Action{Type: action.TypeRunAnalysis}, testInput(), types.Capabilities{})
	if res.MessageType != types.MessageAssistant {
		t.Fatalf("message type = %q", res.MessageType)
	}
	if res.RunID == "" || res.RunType != memory.RunBaseline {
		t.Fatalf("run bookkeeping = %q/%q", res.RunID, res.RunType)
	}
	if res.Snapshot == nil {
		t.Fatal("analysis must produce a baseline candidate snapshot")
	}
	if res.Run == nil || res.Run.RunID != res.RunID {
		t.Fatalf("run not handed back for commit: %+v", res.Run)
	}
	if res.Run.Context.TotalExpenses != 6000 {
		t.Errorf("recorded expenses = %.0f", res.Run.Context.TotalExpenses)
	}
	if _, ok := history.Get(res.RunID); ok {
		t.Error("run must not reach history before the turn commits")
	}
	if !strings.Contains(res.Message, "40.0%") {
		t.Errorf("message should carry the savings rate: %q", res.Message)
	}
	if len(res.UIBlocks) != 2 || res.UIBlocks[0].Type != types.BlockTable || res.UIBlocks[1].ChartType != "pie" {
		t.Errorf("ui blocks = %+v", res.UIBlocks)
	}
}

func TestExecute_RunAnalysisWithoutFigures(t *testing.T) {
	exec, _, _ := newExecutor()
	res := exec.Execute(context.Background(), &session.State{}, action.Action{Type: action.TypeRunAnalysis}, nil, types.Capabilities{})
	if res.MessageType != types.MessageClarifying {
		t.Fatalf("message type = %q", res.MessageType)
	}
	if res.ExpectedSchema != action.SchemaExpenseCategories {
		t.Errorf("schema = %q", res.ExpectedSchema)
	}
	if len(res.UIBlocks) != 1 || res.UIBlocks[0].Type != types.BlockEditor {
		t.Fatalf("ui blocks = %+v", res.UIBlocks)
	}
	if res.UIBlocks[0].Value != nil {
		t.Error("clarification editor must be empty, never pre-filled")
	}
	if res.RunID != "" {
		t.Error("no run may be recorded for a clarification")
	}
}

func TestExecute_CompareScenarios(t *testing.T) {
	exec, _, _ := newExecutor()
	base, err := finance.FromInput(testInput())
	if err != nil {
		t.Fatal(err)
	}
	state := &session.State{Baseline: &base}

	act := action.Action{
		Type:          action.TypeCompareScenarios,
		ExpenseDeltas: []action.ExpenseDelta{{Category: "Transport", MonthlyDelta: 1500}},
	}
	res := exec.Execute(context.Background(), state, act, nil, types.Capabilities{})

	if res.MessageType != types.MessageScenario {
		t.Fatalf("message type = %q", res.MessageType)
	}
	if res.ContextBefore.TotalExpenses != 6000 || res.ContextAfter.TotalExpenses != 7500 {
		t.Errorf("summaries = %.0f -> %.0f", res.ContextBefore.TotalExpenses, res.ContextAfter.TotalExpenses)
	}
	if got, _ := state.Baseline.CategoryAmount("Transport"); got != 1800 {
		t.Errorf("baseline mutated: Transport = %.0f", got)
	}
	if res.Snapshot != nil {
		t.Error("a scenario must not offer a baseline candidate")
	}

	if res.Run == nil || res.Run.Type != memory.RunScenario {
		t.Fatalf("scenario run not handed back: %+v", res.Run)
	}

	// Transport 3300 of 7500 crosses the concentration threshold only under
	// the scenario.
	var found bool
	for _, row := range res.Analysis {
		if row.Dimension == "ExpenseConcentration" {
			found = true
			if row.ScenarioImpact == nil ||
				row.ScenarioImpact.BaselineSeverity != "none" ||
				row.ScenarioImpact.ScenarioSeverity != tools.RiskMedium {
				t.Errorf("impact = %+v", row.ScenarioImpact)
			}
		}
	}
	if !found {
		t.Errorf("no concentration row in %+v", res.Analysis)
	}
}

func TestExecute_CompareScenariosFromTurnInput(t *testing.T) {
	exec, _, _ := newExecutor()
	act := action.Action{
		Type:          action.TypeCompareScenarios,
		ExpenseDeltas: []action.ExpenseDelta{{Category: "Food", MonthlyDelta: -500}},
	}
	res := exec.Execute(context.Background(), &session.State{}, act, testInput(), types.Capabilities{})
	if res.MessageType != types.MessageScenario {
		t.Fatalf("message type = %q: %s", res.MessageType, res.Message)
	}
	if res.ContextAfter.TotalExpenses != 5500 {
		t.Errorf("scenario expenses = %.0f", res.ContextAfter.TotalExpenses)
	}
}

func TestExecute_CompareScenariosNoFigures(t *testing.T) {
	exec, _, _ := newExecutor()
	act := action.Action{
		Type:          action.TypeCompareScenarios,
		ExpenseDeltas: []action.ExpenseDelta{{Category: "Food", MonthlyDelta: 100}},
	}
	res := exec.Execute(context.Background(), &session.State{}, act, nil, types.Capabilities{})
	if res.MessageType != types.MessageClarifying {
		t.Fatalf("message type = %q", res.MessageType)
	}
}

func TestExecute_AssetDeltaRejected(t *testing.T) {
	exec, _, history := newExecutor()
	in := testInput()
	in.AssetAllocation = []finance.AllocationInput{
		{AssetClass: "Stocks", AllocationPct: 70},
		{AssetClass: "Bonds", AllocationPct: 30},
	}
	base, err := finance.FromInput(in)
	if err != nil {
		t.Fatal(err)
	}
	state := &session.State{Baseline: &base}

	act := action.Action{
		Type:       action.TypeCompareScenarios,
		AssetDelta: &action.AssetDelta{AssetClass: "Stocks", DeltaPct: -10},
	}
	res := exec.Execute(context.Background(), state, act, nil, types.Capabilities{})
	if res.MessageType != types.MessageClarifying {
		t.Fatalf("message type = %q", res.MessageType)
	}
	if res.ExpectedSchema != action.SchemaAssetChange {
		t.Errorf("schema = %q", res.ExpectedSchema)
	}
	if res.RunID != "" || res.Run != nil {
		t.Error("rejected delta must not produce a run")
	}
	if history.Len() != 0 {
		t.Error("history must stay empty")
	}
}

func TestExecute_ExplainPrevious(t *testing.T) {
	exec, runner, history := newExecutor()

	res := exec.Execute(context.Background(), &session.State{}, action.Action{Type: action.TypeExplainPrevious}, nil, types.Capabilities{})
	if res.Explained {
		t.Error("nothing to explain yet")
	}
	if !strings.Contains(res.Message, "previous result") {
		t.Errorf("guidance message = %q", res.Message)
	}

	history.Add(memory.RunMemory{
		RunID:   "run-1",
		Type:    memory.RunBaseline,
		Context: finance.Summary{Income: 8000, TotalExpenses: 7500, SavingsRate: 0.0625},
		Findings: []tools.Finding{
			{Dimension: "Savings", RiskLevel: tools.RiskHigh, Reason: "Savings rate is 6.2% of income."},
		},
		CreatedAt: time.Now().UTC(),
	})
	state := &session.State{LastRunID: "run-1", LastRunType: memory.RunBaseline}

	calls := runner.calls
	res = exec.Execute(context.Background(), state, action.Action{Type: action.TypeExplainPrevious}, nil, types.Capabilities{})
	if !res.Explained {
		t.Fatal("cached run should be explained")
	}
	if runner.calls != calls {
		t.Error("explain must not re-run tools")
	}
	if !strings.Contains(res.Message, "baseline analysis") || !strings.Contains(res.Message, "Savings") {
		t.Errorf("message = %q", res.Message)
	}
	if !strings.Contains(res.Message, "20%") {
		t.Errorf("education content missing from %q", res.Message)
	}
}

func TestExecute_NoopScrubsInternalReasoning(t *testing.T) {
	exec, _, _ := newExecutor()

	res := exec.Execute(context.Background(), &session.State{}, action.Noop("no analyzable request in this message"), nil, types.Capabilities{})
	if strings.Contains(res.Message, "analyzable request") {
		t.Errorf("internal reasoning leaked: %q", res.Message)
	}

	res = exec.Execute(context.Background(), &session.State{}, action.Noop("I couldn't get enough information to proceed with an analysis or scenario comparison."), nil, types.Capabilities{})
	if !strings.Contains(res.Message, "couldn't get enough information") {
		t.Errorf("user-facing reasoning dropped: %q", res.Message)
	}
}

func TestNarrate_RejectsAdviceLanguage(t *testing.T) {
	runner := &countingRunner{registry: tools.NewRegistry()}
	chain := ai.NewChain(time.Second, scripted{text: "You should sell your car to cut Transport."})
	exec := New(runner, memory.NewHistory(), chain)

	res := exec.Execute(context.Background(), &session.State{}, action.Action{Type: action.TypeRunAnalysis}, testInput(), types.Capabilities{LLM: true, Fallback: true})
	if strings.Contains(strings.ToLower(res.Message), "you should") {
		t.Fatalf("prohibited narrative reached the user: %q", res.Message)
	}
	if !strings.Contains(res.Message, "I analyzed your finances") {
		t.Errorf("deterministic fallback missing: %q", res.Message)
	}
}

func TestNarrate_FallbackCapability(t *testing.T) {
	runner := &countingRunner{registry: tools.NewRegistry()}
	chain := ai.NewChain(time.Second, scripted{text: "You should sell your car to cut Transport."})
	exec := New(runner, memory.NewHistory(), chain)

	// With the fallback capability a failed narrative is substituted
	// silently.
	res := exec.Execute(context.Background(), &session.State{}, action.Action{Type: action.TypeRunAnalysis}, testInput(), types.Capabilities{LLM: true, Fallback: true})
	if !strings.HasPrefix(res.Message, "I analyzed your finances") {
		t.Errorf("silent substitution expected: %q", res.Message)
	}

	// Without it the degradation is stated before the summary.
	res = exec.Execute(context.Background(), &session.State{}, action.Action{Type: action.TypeRunAnalysis}, testInput(), types.Capabilities{LLM: true})
	if !strings.Contains(res.Message, "computed summary") {
		t.Errorf("degradation notice missing: %q", res.Message)
	}
	if !strings.Contains(res.Message, "I analyzed your finances") {
		t.Errorf("summary missing: %q", res.Message)
	}
}

func TestNarrate_AcceptsCleanParaphrase(t *testing.T) {
	runner := &countingRunner{registry: tools.NewRegistry()}
	chain := ai.NewChain(time.Second, scripted{text: "<think>internal</think>Here is a friendly look at the numbers: income 10000, expenses 6000."})
	exec := New(runner, memory.NewHistory(), chain)

	res := exec.Execute(context.Background(), &session.State{}, action.Action{Type: action.TypeRunAnalysis}, testInput(), types.Capabilities{LLM: true})
	if strings.Contains(res.Message, "<think>") {
		t.Errorf("reasoning block leaked: %q", res.Message)
	}
	if !strings.Contains(res.Message, "friendly look") {
		t.Errorf("paraphrase dropped: %q", res.Message)
	}
}
