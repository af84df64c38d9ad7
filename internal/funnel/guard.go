package funnel

import (
	"log/slog"

	"github.com/funnelbot/funnelbot/internal/models"
)

// RecoveryMessage is the fixed reply sent when the assistant is caught
// looping on the same answer.
const RecoveryMessage = "Let me try a different approach. Could you tell me a bit more about what you're looking for, so I can actually help?"

// RepetitionGuard detects the completion service looping on an unproductive
// answer. It runs once per incoming utterance, before any completion call,
// and is the system's only defense against that failure mode.
type RepetitionGuard struct{}

// NewRepetitionGuard creates a repetition guard.
func NewRepetitionGuard() *RepetitionGuard {
	return &RepetitionGuard{}
}

// Observe compares the most recent assistant turn against the assistant turn
// two positions earlier, updating the session's repeat counter. It returns
// true when the counter reaches 2: the caller must then append
// RecoveryMessage and skip the completion call for this turn. The counter is
// reset both on mismatch and after firing.
func (g *RepetitionGuard) Observe(session *models.Session) bool {
	history := session.History
	if len(history) < 4 {
		return false
	}

	last := history[len(history)-1]
	prior := history[len(history)-3]
	if last.Role == models.RoleAssistant && prior.Role == models.RoleAssistant && last.Content == prior.Content {
		session.RepeatCount++
	} else {
		session.RepeatCount = 0
	}

	if session.RepeatCount >= 2 {
		slog.Info("RepetitionGuard.Observe: repeated reply detected twice, forcing recovery", "sessionID", session.ID)
		session.RepeatCount = 0
		return true
	}
	return false
}
