package funnel

import (
	"context"
	"log/slog"

	"github.com/funnelbot/funnelbot/internal/models"
)

// TransitionTable records which stage transitions are legal. The funnel is
// deliberately permissive: the original design accepts classifier output
// unconditionally, so the default table marks every pair legal. Keeping the
// table explicit makes that policy visible and testable, and gives a single
// place to tighten it later.
type TransitionTable map[models.ConversationStage]map[models.ConversationStage]bool

// DefaultTransitionTable builds the fully permissive table.
func DefaultTransitionTable() TransitionTable {
	table := make(TransitionTable, len(models.Stages))
	for _, from := range models.Stages {
		table[from] = make(map[models.ConversationStage]bool, len(models.Stages))
		for _, to := range models.Stages {
			table[from][to] = true
		}
	}
	return table
}

// Allowed reports whether the table marks the transition legal.
func (t TransitionTable) Allowed(from, to models.ConversationStage) bool {
	targets, ok := t[from]
	if !ok {
		return false
	}
	return targets[to]
}

// StageTracker holds the transition policy and commits classifier output to
// the session.
type StageTracker struct {
	classifier  IntentClassifier
	transitions TransitionTable
}

// NewStageTracker creates a tracker with the given classifier strategy and
// the default permissive transition table.
func NewStageTracker(classifier IntentClassifier) *StageTracker {
	return &StageTracker{
		classifier:  classifier,
		transitions: DefaultTransitionTable(),
	}
}

// Advance classifies the utterance and commits the resulting stage to the
// session. Transitions the table rejects are logged and dropped, leaving the
// stage unchanged; with the default table that branch never fires.
func (t *StageTracker) Advance(ctx context.Context, session *models.Session, utterance string) models.ConversationStage {
	next := t.classifier.Classify(ctx, utterance, session.Stage)
	if next == session.Stage {
		return session.Stage
	}

	if !t.transitions.Allowed(session.Stage, next) {
		slog.Warn("StageTracker.Advance: transition rejected by table", "sessionID", session.ID, "from", session.Stage, "to", next)
		return session.Stage
	}

	slog.Info("StageTracker.Advance: stage transition", "sessionID", session.ID, "from", session.Stage, "to", next)
	session.Stage = next
	return next
}
