// Package planner decides exactly one action per turn. The deterministic
// heuristics are the authoritative path; a language-model planner, when
// enabled and reachable, may pick the action instead but is constrained to
// the same closed vocabulary and falls back to the heuristics on any failure.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/finsightlab/finsight/internal/agent/action"
	"github.com/finsightlab/finsight/internal/agent/ai"
	"github.com/finsightlab/finsight/internal/agent/session"
	"github.com/finsightlab/finsight/internal/finance"
)

// Planner status trace values.
const (
	StatusHeuristic = "heuristic"
	StatusLLM       = "llm"
	StatusFallback  = "llm_unavailable_fallback"
)

// DecisionClarificationLimit is the trace tag recorded when the clarification
// budget forces a noop over a clarifying question.
const DecisionClarificationLimit = "noop_due_to_clarification_limit"

// DefaultClarificationLimit is the number of clarification attempts allowed
// before the planner gives up on a thread of questioning.
const DefaultClarificationLimit = 2

// LimitReasoning is the user-facing text of the limit noop. The orchestrator
// reuses it when an executed action degrades into one clarification too many.
const LimitReasoning = "I couldn't get enough information to proceed with an analysis or scenario comparison."

var explainKeywords = []string{"why", "explain", "mean", "what does"}

var analysisKeywords = []string{
	"analyze", "analysis", "review", "assess",
	"look at my finances", "check my finances",
}

var ambiguousIntentKeywords = []string{
	"what if", "change", "increase", "decrease", "reduce", "afford", "move", "shift",
}

var assetWords = []string{"stocks", "bonds", "equities", "allocation", "portfolio", "real estate"}

// Decision is the planner's output for one turn: the action plus the trace
// fields the orchestrator copies into the response.
type Decision struct {
	Action action.Action

	// PlannerDecision is what the planner chose, which differs from the
	// executed action only when the clarification limit overrides it.
	PlannerDecision string
	PlannerUsed     bool
	PlannerStatus   string
}

// Planner maps a turn to an action.
type Planner struct {
	chain *ai.Chain
	limit int
}

// New builds a planner. A nil chain disables the language-model path; a
// non-positive limit uses the default clarification limit.
func New(chain *ai.Chain, limit int) *Planner {
	if limit <= 0 {
		limit = DefaultClarificationLimit
	}
	return &Planner{chain: chain, limit: limit}
}

// Decide picks the single action for this turn. state is read-only here; all
// state mutation happens when the orchestrator commits the executed action.
func (p *Planner) Decide(ctx context.Context, state *session.State, message string, input *finance.Input, useLLM bool) Decision {
	// A reply to an outstanding clarifying question is matched against the
	// schema that question asked for before any other interpretation.
	if state.Pending != nil {
		if d, ok := p.resolvePending(state, message, input); ok {
			return d
		}
	}

	var dec Decision
	if useLLM && !p.chain.Empty() {
		dec = p.decideLLM(ctx, state, message, input)
	} else {
		dec = Decision{Action: p.decideHeuristic(state, message, input), PlannerStatus: StatusHeuristic}
	}
	dec.PlannerDecision = string(dec.Action.Type)

	// The clarification budget is enforced after the decision so the trace
	// can record both what the planner wanted and what actually ran.
	if dec.Action.Type == action.TypeClarifyingQuestion && state.ClarificationAttempt >= p.limit {
		dec.Action = action.Noop(LimitReasoning)
		dec.PlannerDecision = DecisionClarificationLimit
	}
	return dec
}

// Limit returns the configured clarification limit.
func (p *Planner) Limit() int { return p.limit }

// resolvePending interprets the turn as an answer to the pending clarifying
// question. It reports false when the reply does not satisfy the expected
// schema, in which case the normal decision flow runs.
func (p *Planner) resolvePending(state *session.State, message string, input *finance.Input) (Decision, bool) {
	pending := state.Pending
	if pending.ExpectedSchema == action.SchemaExpenseCategories {
		if input != nil && input.Complete() {
			return Decision{
				Action: action.Action{
					Type:      action.TypeRunAnalysis,
					Reasoning: "user supplied the requested financial details",
				},
				PlannerDecision: string(action.TypeRunAnalysis),
				PlannerStatus:   StatusHeuristic,
			}, true
		}
		return Decision{}, false
	}

	expenses, asset, ok := action.ParseConfirmation(message, pending.ExpectedSchema)
	if !ok {
		return Decision{}, false
	}
	return Decision{
		Action: action.Action{
			Type:          action.TypeCompareScenarios,
			Reasoning:     "user confirmed the scenario change",
			ExpenseDeltas: expenses,
			AssetDelta:    asset,
		},
		PlannerDecision: string(action.TypeCompareScenarios),
		PlannerStatus:   StatusHeuristic,
	}, true
}

// decideHeuristic is the deterministic keyword planner.
func (p *Planner) decideHeuristic(state *session.State, message string, input *finance.Input) action.Action {
	lower := strings.ToLower(message)

	// Explaining needs a cached result to point at; with nothing cached the
	// remaining rules interpret the message.
	if state.LastRunID != "" && containsAny(lower, explainKeywords) {
		return action.Action{
			Type:      action.TypeExplainPrevious,
			Reasoning: "user asked about the previous result",
		}
	}

	wantsAnalysis := containsAny(lower, analysisKeywords)
	if wantsAnalysis || (input != nil && input.Complete() && !action.HasStructuredDelta(message)) {
		if input != nil && input.Complete() {
			return action.Action{
				Type:      action.TypeRunAnalysis,
				Reasoning: "complete financial details are available",
			}
		}
		if state.EffectiveSnapshot() != nil && wantsAnalysis {
			return action.Action{
				Type:      action.TypeRunAnalysis,
				Reasoning: "re-running analysis on the established financial details",
			}
		}
		return action.Clarify(
			"analysis requested without usable financial details",
			"To analyze your finances I need your monthly income and a breakdown of monthly expenses by category. Could you fill those in?",
			action.SchemaExpenseCategories,
		)
	}

	if action.HasStructuredDelta(message) {
		if containsAny(lower, assetWords) {
			if d, ok := action.ParseAssetDelta(message); ok {
				return action.Action{
					Type:       action.TypeCompareScenarios,
					Reasoning:  "message carries a concrete allocation change",
					AssetDelta: &d,
				}
			}
		}
		if deltas := action.ParseExpenseDeltas(message); len(deltas) > 0 {
			return action.Action{
				Type:          action.TypeCompareScenarios,
				Reasoning:     "message carries a concrete expense change",
				ExpenseDeltas: deltas,
			}
		}
	}

	if containsAny(lower, ambiguousIntentKeywords) {
		return action.Clarify(
			"change of intent without a concrete amount",
			"Which category would change, and by how much per month? For example: Transport +300.",
			action.SchemaExpenseDelta,
		)
	}

	return action.Noop("no analyzable request in this message")
}

func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// plannerReply is the JSON shape the language model is asked to produce.
type plannerReply struct {
	Action         string `json:"action"`
	Reasoning      string `json:"reasoning"`
	Question       string `json:"question"`
	ExpectedSchema string `json:"expected_schema"`
}

// decideLLM asks the provider chain to pick an action. Anything short of a
// valid, parseable reply falls back to the heuristics; unavailability is a
// normal condition, not an error surfaced to the user.
func (p *Planner) decideLLM(ctx context.Context, state *session.State, message string, input *finance.Input) Decision {
	fallback := func() Decision {
		return Decision{Action: p.decideHeuristic(state, message, input), PlannerStatus: StatusFallback}
	}

	text, err := p.chain.Generate(ctx, p.buildPrompt(state, message, input))
	if err != nil {
		logx.WithContext(ctx).Infof("planner chain unavailable, using heuristics: %v", err)
		return fallback()
	}

	reply, err := extractReply(text)
	if err != nil {
		logx.WithContext(ctx).Infof("planner reply unusable, using heuristics: %v", err)
		return fallback()
	}
	t := action.Type(reply.Action)
	if !t.Valid() {
		logx.WithContext(ctx).Infof("planner picked unknown action %q, using heuristics", reply.Action)
		return fallback()
	}

	act := action.Action{Type: t, Reasoning: reply.Reasoning}
	switch t {
	case action.TypeClarifyingQuestion:
		if reply.Question == "" || !validSchema(reply.ExpectedSchema) {
			return fallback()
		}
		act.Question = reply.Question
		act.ExpectedSchema = reply.ExpectedSchema
	case action.TypeCompareScenarios:
		// Amounts always come from the user's own words, never from the
		// model.
		lower := strings.ToLower(message)
		if containsAny(lower, assetWords) {
			if d, ok := action.ParseAssetDelta(message); ok {
				act.AssetDelta = &d
				break
			}
		}
		deltas := action.ParseExpenseDeltas(message)
		if len(deltas) == 0 {
			return fallback()
		}
		act.ExpenseDeltas = deltas
	}
	return Decision{Action: act, PlannerUsed: true, PlannerStatus: StatusLLM}
}

func validSchema(schema string) bool {
	switch schema {
	case action.SchemaExpenseCategories, action.SchemaExpenseDelta, action.SchemaAssetChange:
		return true
	}
	return false
}

// buildPrompt assembles the planner prompt: conversation context, the closed
// action vocabulary and the required JSON shape.
func (p *Planner) buildPrompt(state *session.State, message string, input *finance.Input) string {
	var b strings.Builder
	b.WriteString("You are the decision layer of a financial analysis assistant.\n")
	b.WriteString("Pick exactly one action for the user's latest message.\n\n")
	b.WriteString("Actions:\n")
	b.WriteString("  run_analysis        - analyze the user's current financial details\n")
	b.WriteString("  explain_previous    - explain the most recent analysis or comparison\n")
	b.WriteString("  compare_scenarios   - compare a concrete hypothetical change against the baseline\n")
	b.WriteString("  clarifying_question - ask for missing details (expected_schema one of expense_categories, expense_delta, asset_change)\n")
	b.WriteString("  noop                - nothing actionable in the message\n\n")

	if input != nil && input.Complete() {
		b.WriteString("The user supplied complete financial details this turn.\n")
	} else if state.EffectiveSnapshot() != nil {
		b.WriteString("Financial details from earlier in the conversation are available.\n")
	} else {
		b.WriteString("No usable financial details are available yet.\n")
	}
	if state.LastRunID != "" {
		fmt.Fprintf(&b, "A previous %s run exists.\n", state.LastRunType)
	}
	fmt.Fprintf(&b, "Clarification attempts so far: %d of %d.\n\n", state.ClarificationAttempt, p.limit)

	fmt.Fprintf(&b, "User message: %q\n\n", message)
	b.WriteString("Reply with a single JSON object and nothing else:\n")
	b.WriteString(`{"action": "...", "reasoning": "...", "question": "...", "expected_schema": "..."}`)
	b.WriteString("\nOmit question and expected_schema unless the action is clarifying_question.\n")
	return b.String()
}

// extractReply pulls the first JSON object out of the model's text. Models
// routinely wrap JSON in prose or code fences.
func extractReply(text string) (plannerReply, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return plannerReply{}, fmt.Errorf("no JSON object in reply")
	}
	var reply plannerReply
	if err := json.Unmarshal([]byte(text[start:end+1]), &reply); err != nil {
		return plannerReply{}, fmt.Errorf("decode planner reply: %w", err)
	}
	return reply, nil
}
