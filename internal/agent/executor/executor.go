// Package executor carries out the single action the planner chose. It owns
// tool execution and message assembly; it never mutates conversation state or
// the run history, both of which commit in the orchestrator.
package executor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/finsightlab/finsight/internal/agent/action"
	"github.com/finsightlab/finsight/internal/agent/ai"
	"github.com/finsightlab/finsight/internal/agent/session"
	"github.com/finsightlab/finsight/internal/finance"
	"github.com/finsightlab/finsight/internal/memory"
	"github.com/finsightlab/finsight/internal/tools"
	"github.com/finsightlab/finsight/internal/types"
)

// Runner evaluates the toolset against a snapshot.
type Runner interface {
	Run(s finance.Snapshot) []tools.Finding
}

// Executor executes planned actions against the tool registry and run
// history. The provider chain is used only to paraphrase deterministic
// results; every figure and risk level comes from the tools.
type Executor struct {
	runner  Runner
	history *memory.History
	chain   *ai.Chain
}

// New builds an executor. chain may be nil when no providers are configured.
func New(runner Runner, history *memory.History, chain *ai.Chain) *Executor {
	return &Executor{runner: runner, history: history, chain: chain}
}

// Result is the outcome of one executed action. The orchestrator commits
// state from it; nothing in here has touched the session yet.
type Result struct {
	Message        string
	MessageType    string
	Analysis       []types.AnalysisRow
	Education      map[string]string
	UIBlocks       []types.UIBlock
	Question       string
	ExpectedSchema string

	// Run bookkeeping. Run carries a completed analysis or comparison; the
	// orchestrator adds it to history at commit time, so a turn that never
	// commits leaves no run behind. RunID and RunType mirror it.
	Run     *memory.RunMemory
	RunID   string
	RunType memory.RunType

	// Snapshot is set only by a successful analysis; it becomes the new
	// baseline when committed.
	Snapshot *finance.Snapshot
	Summary  string

	// Explained is set when explain_previous found a cached run.
	Explained bool

	ContextBefore *finance.Summary
	ContextAfter  *finance.Summary

	BaselineRunID string
	ScenarioRunID string
}

// Execute runs the action. The state is read-only input here.
func (e *Executor) Execute(ctx context.Context, state *session.State, act action.Action, input *finance.Input, caps types.Capabilities) Result {
	switch act.Type {
	case action.TypeRunAnalysis:
		return e.runAnalysis(ctx, state, input, caps)
	case action.TypeCompareScenarios:
		return e.compareScenarios(ctx, state, act, input, caps)
	case action.TypeExplainPrevious:
		return e.explainPrevious(ctx, state, caps)
	case action.TypeClarifyingQuestion:
		return clarification(act.Question, act.ExpectedSchema)
	default:
		return e.noop(act)
	}
}

// resolveSnapshot picks the figures a scenario works from: the committed
// baseline first, then the last supplied input, then this turn's input.
func resolveSnapshot(state *session.State, input *finance.Input) (finance.Snapshot, bool) {
	if s := state.EffectiveSnapshot(); s != nil {
		return *s, true
	}
	if input != nil && input.Complete() {
		if s, err := finance.FromInput(input); err == nil {
			return s, true
		}
	}
	return finance.Snapshot{}, false
}

func (e *Executor) runAnalysis(ctx context.Context, state *session.State, input *finance.Input, caps types.Capabilities) Result {
	var snap finance.Snapshot
	switch {
	case input != nil && input.Complete():
		s, err := finance.FromInput(input)
		if err != nil {
			return clarification(
				fmt.Sprintf("I couldn't use those figures (%v). Could you correct them?", err),
				action.SchemaExpenseCategories,
			)
		}
		snap = s
	case state.EffectiveSnapshot() != nil:
		snap = *state.EffectiveSnapshot()
	case input != nil:
		_, err := finance.FromInput(input)
		return clarification(
			fmt.Sprintf("I couldn't use those figures (%v). Could you correct them?", err),
			action.SchemaExpenseCategories,
		)
	default:
		return clarification(
			"To analyze your finances I need your monthly income and a breakdown of monthly expenses by category. Could you fill those in?",
			action.SchemaExpenseCategories,
		)
	}

	findings := e.runner.Run(snap)
	for _, f := range findings {
		if f.RiskLevel == tools.RiskInvalid {
			return clarification(
				"Something in those figures doesn't add up: "+f.Reason+" Could you correct them?",
				action.SchemaExpenseCategories,
			)
		}
	}

	run := memory.RunMemory{
		RunID:     uuid.NewString(),
		Type:      memory.RunBaseline,
		Context:   snap.Summarize(),
		Findings:  findings,
		CreatedAt: time.Now().UTC(),
	}

	rows := rowsFromFindings(findings)
	summary := snap.Summarize()
	deterministic := analysisMessage(snap, findings)
	msg := e.narrate(ctx, caps, deterministic, analysisParaphrasePrompt(deterministic))

	return Result{
		Message:       msg,
		MessageType:   types.MessageAssistant,
		Analysis:      rows,
		Education:     tools.EducationFor(findings),
		UIBlocks:      analysisBlocks(snap, rows),
		Run:           &run,
		RunID:         run.RunID,
		RunType:       memory.RunBaseline,
		Snapshot:      &snap,
		Summary:       deterministic,
		ContextAfter:  &summary,
		BaselineRunID: run.RunID,
	}
}

func (e *Executor) compareScenarios(ctx context.Context, state *session.State, act action.Action, input *finance.Input, caps types.Capabilities) Result {
	base, ok := resolveSnapshot(state, input)
	if !ok {
		return clarification(
			"Before comparing a scenario I need your current numbers: monthly income and expenses by category.",
			action.SchemaExpenseCategories,
		)
	}

	// Deltas apply to a working copy; the baseline itself is never touched
	// and the scenario result is never promoted to baseline.
	scenario := base
	var described []string
	for _, d := range act.ExpenseDeltas {
		scenario = scenario.ApplyExpenseDelta(d.Category, d.MonthlyDelta)
		described = append(described, fmt.Sprintf("%s %+.0f/month", d.Category, d.MonthlyDelta))
	}
	if act.AssetDelta != nil {
		next, err := scenario.ApplyAssetDelta(act.AssetDelta.AssetClass, act.AssetDelta.DeltaPct)
		if err != nil {
			return clarification(
				fmt.Sprintf("That change can't be applied (%v). Allocations must stay non-negative and sum to 100%%. Could you restate the change?", err),
				action.SchemaAssetChange,
			)
		}
		scenario = next
		described = append(described, fmt.Sprintf("%s %+.1f%%", act.AssetDelta.AssetClass, act.AssetDelta.DeltaPct))
	}

	baseFindings := e.runner.Run(base)
	scenarioFindings := e.runner.Run(scenario)

	run := memory.RunMemory{
		RunID:     uuid.NewString(),
		Type:      memory.RunScenario,
		Context:   scenario.Summarize(),
		Findings:  scenarioFindings,
		CreatedAt: time.Now().UTC(),
	}

	rows := annotateImpact(scenarioFindings, baseFindings)
	before := base.Summarize()
	after := scenario.Summarize()
	deterministic := scenarioMessage(strings.Join(described, ", "), base, scenario, rows)
	msg := e.narrate(ctx, caps, deterministic, scenarioParaphrasePrompt(deterministic))

	return Result{
		Message:       msg,
		MessageType:   types.MessageScenario,
		Analysis:      rows,
		Education:     tools.EducationFor(scenarioFindings),
		UIBlocks:      scenarioBlocks(base, scenario, rows),
		Run:           &run,
		RunID:         run.RunID,
		RunType:       memory.RunScenario,
		Summary:       deterministic,
		ContextBefore: &before,
		ContextAfter:  &after,
		ScenarioRunID: run.RunID,
	}
}

func (e *Executor) explainPrevious(ctx context.Context, state *session.State, caps types.Capabilities) Result {
	noPrior := Result{
		Message:     "I don't have a previous result to explain yet. Ask me to analyze your finances first, or describe a scenario like \"what if Transport +300\".",
		MessageType: types.MessageAssistant,
		Analysis:    []types.AnalysisRow{},
		UIBlocks:    []types.UIBlock{},
	}
	if state.LastRunID == "" {
		return noPrior
	}
	run, ok := e.history.Get(state.LastRunID)
	if !ok {
		return noPrior
	}

	deterministic := explanationMessage(run)
	msg := e.narrate(ctx, caps, deterministic, explainParaphrasePrompt(deterministic))

	return Result{
		Message:     msg,
		MessageType: types.MessageAssistant,
		Analysis:    rowsFromFindings(run.Findings),
		Education:   tools.EducationFor(run.Findings),
		UIBlocks:    []types.UIBlock{},
		RunID:       run.RunID,
		RunType:     run.Type,
		Explained:   true,
	}
}

func (e *Executor) noop(act action.Action) Result {
	return Result{
		Message:     noopMessage(act.Reasoning),
		MessageType: types.MessageAssistant,
		Analysis:    []types.AnalysisRow{},
		UIBlocks:    []types.UIBlock{},
	}
}

// clarification builds a clarifying-question result. The attached editor is
// always empty: the user fills it in, the system never pre-fills guesses.
func clarification(question, schema string) Result {
	return Result{
		Message:        question,
		MessageType:    types.MessageClarifying,
		Analysis:       []types.AnalysisRow{},
		Question:       question,
		ExpectedSchema: schema,
		UIBlocks: []types.UIBlock{{
			Type:       types.BlockEditor,
			EditorType: editorForSchema(schema),
		}},
	}
}

func editorForSchema(schema string) string {
	switch schema {
	case action.SchemaExpenseDelta:
		return types.EditorExpenseCategories
	case action.SchemaAssetChange:
		return types.EditorAssetAllocation
	default:
		return types.EditorFinancialInput
	}
}

func rowsFromFindings(findings []tools.Finding) []types.AnalysisRow {
	rows := make([]types.AnalysisRow, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, types.AnalysisRow{
			Dimension: f.Dimension,
			RiskLevel: f.RiskLevel,
			Reason:    f.Reason,
			Metrics:   f.Metrics,
		})
	}
	return rows
}

// annotateImpact builds scenario rows annotated with the severity change per
// dimension. Dimensions present only in the baseline appear as resolved rows.
func annotateImpact(scenario, baseline []tools.Finding) []types.AnalysisRow {
	baseLevel := map[string]string{}
	for _, f := range baseline {
		if _, ok := baseLevel[f.Dimension]; !ok {
			baseLevel[f.Dimension] = f.RiskLevel
		}
	}

	rows := make([]types.AnalysisRow, 0, len(scenario))
	seen := map[string]bool{}
	for _, f := range scenario {
		seen[f.Dimension] = true
		row := types.AnalysisRow{
			Dimension: f.Dimension,
			RiskLevel: f.RiskLevel,
			Reason:    f.Reason,
			Metrics:   f.Metrics,
		}
		row.ScenarioImpact = &types.ScenarioImpact{
			BaselineSeverity: orNone(baseLevel[f.Dimension]),
			ScenarioSeverity: f.RiskLevel,
		}
		rows = append(rows, row)
	}
	for _, f := range baseline {
		if seen[f.Dimension] {
			continue
		}
		seen[f.Dimension] = true
		rows = append(rows, types.AnalysisRow{
			Dimension: f.Dimension,
			RiskLevel: "none",
			Reason:    "This risk from the baseline does not appear under the scenario.",
			ScenarioImpact: &types.ScenarioImpact{
				BaselineSeverity: f.RiskLevel,
				ScenarioSeverity: "none",
			},
		})
	}
	return rows
}

func orNone(level string) string {
	if level == "" {
		return "none"
	}
	return level
}

func analysisBlocks(snap finance.Snapshot, rows []types.AnalysisRow) []types.UIBlock {
	blocks := []types.UIBlock{{
		Type:   types.BlockTable,
		Schema: "analysis_findings",
		Rows:   rows,
	}}
	cats := snap.Categories()
	if len(cats) > 0 {
		labels := make([]string, 0, len(cats))
		values := make([]float64, 0, len(cats))
		for _, c := range cats {
			labels = append(labels, c.Name)
			values = append(values, c.Amount)
		}
		blocks = append(blocks, types.UIBlock{
			Type:      types.BlockChart,
			ChartType: "pie",
			Data:      map[string]any{"labels": labels, "values": values},
		})
	}
	return blocks
}

func scenarioBlocks(base, scenario finance.Snapshot, rows []types.AnalysisRow) []types.UIBlock {
	return []types.UIBlock{
		{
			Type:   types.BlockTable,
			Schema: "scenario_findings",
			Rows:   rows,
		},
		{
			Type:      types.BlockChart,
			ChartType: "bar",
			Data: map[string]any{
				"labels": []string{"baseline", "scenario"},
				"series": map[string][]float64{
					"total_expenses": {base.TotalExpenses(), scenario.TotalExpenses()},
					"savings_rate":   {base.DerivedMetrics().SavingsRate, scenario.DerivedMetrics().SavingsRate},
				},
			},
		},
	}
}

func analysisMessage(snap finance.Snapshot, findings []tools.Finding) string {
	m := snap.DerivedMetrics()
	var b strings.Builder
	fmt.Fprintf(&b, "I analyzed your finances. Monthly income %.0f, expenses %.0f, savings rate %.1f%%, expense ratio %.1f%%.",
		snap.Income(), snap.TotalExpenses(), m.SavingsRate*100, m.ExpenseRatio*100)
	if len(findings) == 0 {
		b.WriteString(" No risk signals came up on any dimension.")
		return b.String()
	}
	fmt.Fprintf(&b, " %d risk signal(s):", len(findings))
	for _, f := range findings {
		fmt.Fprintf(&b, "\n- [%s] %s: %s", f.RiskLevel, f.Dimension, f.Reason)
	}
	return b.String()
}

func scenarioMessage(change string, base, scenario finance.Snapshot, rows []types.AnalysisRow) string {
	bm := base.DerivedMetrics()
	sm := scenario.DerivedMetrics()
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario (%s) compared against your baseline:", change)
	fmt.Fprintf(&b, "\n- Total expenses: %.0f -> %.0f", base.TotalExpenses(), scenario.TotalExpenses())
	fmt.Fprintf(&b, "\n- Savings rate: %.1f%% -> %.1f%%", bm.SavingsRate*100, sm.SavingsRate*100)
	if scenario.Clamped() {
		b.WriteString("\nNote: the change would have pushed a category below zero, so it was held at zero.")
	}
	changed := 0
	for _, r := range rows {
		if r.ScenarioImpact != nil && r.ScenarioImpact.BaselineSeverity != r.ScenarioImpact.ScenarioSeverity {
			changed++
			fmt.Fprintf(&b, "\n- %s: %s -> %s", r.Dimension, r.ScenarioImpact.BaselineSeverity, r.ScenarioImpact.ScenarioSeverity)
		}
	}
	if changed == 0 {
		b.WriteString("\nNo risk level changes between baseline and scenario.")
	}
	b.WriteString("\nYour baseline is unchanged; this was a what-if comparison only.")
	return b.String()
}

func explanationMessage(run memory.RunMemory) string {
	var b strings.Builder
	switch run.Type {
	case memory.RunScenario:
		b.WriteString("Your last result was a scenario comparison. ")
	default:
		b.WriteString("Your last result was a baseline analysis. ")
	}
	fmt.Fprintf(&b, "It covered income %.0f against expenses %.0f (savings rate %.1f%%).",
		run.Context.Income, run.Context.TotalExpenses, run.Context.SavingsRate*100)
	if len(run.Findings) == 0 {
		b.WriteString(" No risk signals were found, so there were no flagged dimensions to explain.")
		return b.String()
	}
	b.WriteString(" Here is what each flagged dimension means:")
	for _, f := range run.Findings {
		fmt.Fprintf(&b, "\n- %s (%s): %s", f.Dimension, f.RiskLevel, f.Reason)
		if edu := tools.Education(f.Dimension); edu != "" {
			b.WriteString(" " + edu)
		}
	}
	return b.String()
}

// noopMessage keeps planner reasoning out of the user-facing reply unless it
// was written to be shown.
func noopMessage(reasoning string) string {
	if strings.HasPrefix(reasoning, "I ") || strings.HasPrefix(reasoning, "I'") {
		return reasoning
	}
	return "I can analyze your finances or compare a what-if scenario against them. Share your monthly income and expenses to get started."
}

var thinkBlocks = regexp.MustCompile(`(?s)<think>.*?</think>`)

// scrubNarrative removes provider reasoning blocks that some models wrap
// around their output.
func scrubNarrative(text string) string {
	return strings.TrimSpace(thinkBlocks.ReplaceAllString(text, ""))
}

// narrate optionally paraphrases a deterministic message through the provider
// chain. The paraphrase must pass narrative validation; on any failure the
// deterministic text is returned unchanged.
func (e *Executor) narrate(ctx context.Context, caps types.Capabilities, deterministic, prompt string) string {
	if !caps.LLM || e.chain.Empty() {
		return deterministic
	}

	attempt := func(ctx context.Context) (string, error) {
		text, err := e.chain.Generate(ctx, prompt)
		if err != nil {
			return "", err
		}
		text = scrubNarrative(text)
		if issues := ai.ValidateNarrative(text); len(issues) > 0 {
			return "", retry.RetryableError(fmt.Errorf("narrative rejected: %s", strings.Join(issues, "; ")))
		}
		return text, nil
	}

	var out string
	work := func(ctx context.Context) error {
		text, err := attempt(ctx)
		if err != nil {
			return err
		}
		out = text
		return nil
	}

	var err error
	if caps.Retry {
		err = retry.Do(ctx, retry.WithMaxRetries(2, retry.NewFibonacci(100*time.Millisecond)), work)
	} else {
		err = work(ctx)
	}
	if err != nil {
		logx.WithContext(ctx).Infof("narrative generation unavailable: %v", err)
		if caps.Fallback {
			return deterministic
		}
		// Without the fallback capability the degradation is surfaced
		// instead of silently substituted.
		return "I couldn't put that into a conversational reply just now, so here is the computed summary.\n" + deterministic
	}
	return out
}

func analysisParaphrasePrompt(deterministic string) string {
	return paraphrasePrompt("analysis result", deterministic)
}

func scenarioParaphrasePrompt(deterministic string) string {
	return paraphrasePrompt("scenario comparison", deterministic)
}

func explainParaphrasePrompt(deterministic string) string {
	return paraphrasePrompt("explanation of a previous result", deterministic)
}

// paraphrasePrompt constrains the model to restating computed facts. It may
// not add numbers, risk levels or advice of its own.
func paraphrasePrompt(kind, deterministic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the following %s in a warm, plain tone.\n", kind)
	b.WriteString("Rules: keep every number and risk level exactly as given, add no new facts,\n")
	b.WriteString("and give no advice or recommendations of any kind. Informational language only.\n\n")
	b.WriteString(deterministic)
	return b.String()
}
