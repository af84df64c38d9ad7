package funnel

import (
	"context"
	"testing"

	"github.com/funnelbot/funnelbot/internal/models"
)

func TestDefaultTransitionTablePermissive(t *testing.T) {
	table := DefaultTransitionTable()
	for _, from := range models.Stages {
		for _, to := range models.Stages {
			if !table.Allowed(from, to) {
				t.Errorf("Allowed(%v, %v) = false, want true", from, to)
			}
		}
	}
}

func TestTransitionTableUnknownStage(t *testing.T) {
	table := DefaultTransitionTable()
	if table.Allowed("made_up", models.StageBasicInfo) {
		t.Error("Allowed from unknown stage = true, want false")
	}
}

func TestStageTrackerAdvance(t *testing.T) {
	tracker := NewStageTracker(NewKeywordClassifier())
	session := &models.Session{ID: "s_test", Stage: models.StageInitialGreeting}

	got := tracker.Advance(context.Background(), session, "what does the premium package cost?")
	if got != models.StagePackageOffer {
		t.Errorf("Advance = %v, want %v", got, models.StagePackageOffer)
	}
	if session.Stage != models.StagePackageOffer {
		t.Errorf("session.Stage = %v, want %v", session.Stage, models.StagePackageOffer)
	}
}

func TestStageTrackerNoMatchKeepsStage(t *testing.T) {
	tracker := NewStageTracker(NewKeywordClassifier())
	session := &models.Session{ID: "s_test", Stage: models.StageBasicInfo}

	got := tracker.Advance(context.Background(), session, "hmm, alright")
	if got != models.StageBasicInfo {
		t.Errorf("Advance = %v, want %v", got, models.StageBasicInfo)
	}
}

func TestStageTrackerRejectedTransition(t *testing.T) {
	tracker := NewStageTracker(NewKeywordClassifier())
	// Replace the permissive table with one that forbids everything.
	tracker.transitions = TransitionTable{}

	session := &models.Session{ID: "s_test", Stage: models.StageInitialGreeting}
	got := tracker.Advance(context.Background(), session, "how much is the package?")
	if got != models.StageInitialGreeting {
		t.Errorf("Advance = %v, want stage unchanged on rejected transition", got)
	}
}
