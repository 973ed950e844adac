// Package orchestrator runs the turn loop: acquire the conversation, plan
// one action, execute it, then commit state and assemble the response. All
// session mutation lives here, after a successful execution, so a cancelled
// or failed turn leaves the conversation exactly as it was.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/finsightlab/finsight/internal/agent/action"
	"github.com/finsightlab/finsight/internal/agent/executor"
	"github.com/finsightlab/finsight/internal/agent/planner"
	"github.com/finsightlab/finsight/internal/agent/session"
	"github.com/finsightlab/finsight/internal/finance"
	"github.com/finsightlab/finsight/internal/memory"
	"github.com/finsightlab/finsight/internal/types"
)

// Orchestrator drives one conversation turn end to end.
type Orchestrator struct {
	store    *session.Store
	planner  *planner.Planner
	executor *executor.Executor
	history  *memory.History
}

// New builds an orchestrator over the given store, planner, executor and run
// history.
func New(store *session.Store, pl *planner.Planner, ex *executor.Executor, history *memory.History) *Orchestrator {
	return &Orchestrator{store: store, planner: pl, executor: ex, history: history}
}

// Turn processes one user message. Exactly one action is planned and
// executed; the conversation lock is held across the whole sequence so turns
// against the same conversation never interleave.
func (o *Orchestrator) Turn(ctx context.Context, req types.TurnRequest) (types.TurnResponse, error) {
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	state, release := o.store.Acquire(conversationID)
	defer release()

	dec := o.planner.Decide(ctx, state, req.Message, req.Input, req.Capabilities.Agent)
	res := o.executor.Execute(ctx, state, dec.Action, req.Input, req.Capabilities)

	// Clarifications raised during execution, such as figures that fail
	// validation, draw on the same budget as planner questions. The planner
	// converts its own over-budget questions; this catches the rest.
	if res.MessageType == types.MessageClarifying && state.ClarificationAttempt >= o.planner.Limit() {
		dec.PlannerDecision = planner.DecisionClarificationLimit
		dec.Action = action.Noop(planner.LimitReasoning)
		res = o.executor.Execute(ctx, state, dec.Action, req.Input, req.Capabilities)
	}

	// Nothing has been committed yet; a cancelled request leaves the
	// conversation and the run history untouched.
	if err := ctx.Err(); err != nil {
		return types.TurnResponse{}, fmt.Errorf("turn cancelled before commit: %w", err)
	}

	if res.Run != nil {
		o.history.Add(*res.Run)
	}
	o.commit(state, req, dec, res)

	logx.WithContext(ctx).Infow("turn committed",
		logx.Field("conversation_id", conversationID),
		logx.Field("planner_decision", dec.PlannerDecision),
		logx.Field("action", string(dec.Action.Type)),
		logx.Field("clarification_attempt", state.ClarificationAttempt),
		logx.Field("run_id", res.RunID),
	)

	trace := types.Trace{
		PlannerDecision:      dec.PlannerDecision,
		ActionTaken:          string(dec.Action.Type),
		ClarificationAttempt: state.ClarificationAttempt,
		PlannerStatus:        dec.PlannerStatus,
		PlannerUsed:          dec.PlannerUsed,
		TurnIndex:            userTurns(state),
		ContextBefore:        res.ContextBefore,
		ContextAfter:         res.ContextAfter,
		CompareBaselineRunID: res.BaselineRunID,
		CompareScenarioRunID: res.ScenarioRunID,
	}
	// The limit trace reports the attempt that was refused, one past the
	// budget, while the stored counter stays where it was.
	if dec.PlannerDecision == planner.DecisionClarificationLimit {
		trace.ClarificationAttempt = o.planner.Limit() + 1
	}

	return types.TurnResponse{
		ConversationID:   conversationID,
		AssistantMessage: res.Message,
		RunID:            res.RunID,
		Analysis:         res.Analysis,
		Education:        res.Education,
		Trace:            trace,
		MessageType:      res.MessageType,
		ExpectedSchema:   res.ExpectedSchema,
		UIBlocks:         res.UIBlocks,
	}, nil
}

// commit applies the turn's effects to the conversation. The rules per
// executed action are deliberately narrow: a scenario never becomes the
// baseline, failed work changes nothing beyond the log.
func (o *Orchestrator) commit(state *session.State, req types.TurnRequest, dec planner.Decision, res executor.Result) {
	state.Turns = append(state.Turns,
		session.Turn{Role: "user", Content: req.Message},
		session.Turn{Role: "assistant", Content: res.Message, MessageType: res.MessageType},
	)

	// Any usable input supplied this turn becomes the fallback snapshot,
	// regardless of which action ran.
	if req.Input != nil && req.Input.Complete() {
		if s, err := finance.FromInput(req.Input); err == nil {
			state.LastSnapshot = &s
		}
	}

	if res.MessageType == types.MessageClarifying {
		state.Pending = &session.Pending{
			ExpectedSchema: res.ExpectedSchema,
			Question:       res.Question,
			RetryCount:     state.ClarificationAttempt + 1,
		}
		state.ClarificationAttempt++
		return
	}

	switch dec.Action.Type {
	case action.TypeRunAnalysis:
		if res.Snapshot != nil {
			state.Baseline = res.Snapshot
			state.LastSnapshot = res.Snapshot
			state.LastRunID = res.RunID
			state.LastRunType = res.RunType
			state.LastSummary = res.Summary
			state.Pending = nil
			state.ClarificationAttempt = 0
		}
	case action.TypeCompareScenarios:
		if res.RunID != "" {
			state.LastRunID = res.RunID
			state.LastRunType = res.RunType
			state.LastSummary = res.Summary
			state.Pending = nil
			state.ClarificationAttempt = 0
		}
	case action.TypeExplainPrevious:
		if res.Explained {
			state.ClarificationAttempt = 0
		}
	case action.TypeNoop:
		if dec.PlannerDecision == planner.DecisionClarificationLimit {
			// Give up on this thread of questioning but keep the counter,
			// so the next vague message doesn't restart the budget.
			state.Pending = nil
		}
	}
}

func userTurns(state *session.State) int {
	n := 0
	for _, t := range state.Turns {
		if t.Role == "user" {
			n++
		}
	}
	return n
}
