package funnel

import (
	"log/slog"
	"strings"

	"github.com/funnelbot/funnelbot/internal/models"
)

// PaymentConfirmedMessage is the fixed confirmation appended when the
// finalizer fires.
const PaymentConfirmedMessage = "Payment confirmed! Let's get your exam scheduled. Our team will follow up shortly with available test dates."

// paymentConfirmations are the phrases that signal the client has completed
// payment on their side.
var paymentConfirmations = []string{"sent", "paid", "done", "completed"}

// PaymentFinalizer force-transitions a session to the scheduling stage once
// payment is confirmed. It is a hard override: when it fires, the intent
// classifier and the completion call are bypassed for that turn.
type PaymentFinalizer struct{}

// NewPaymentFinalizer creates a payment finalizer.
func NewPaymentFinalizer() *PaymentFinalizer {
	return &PaymentFinalizer{}
}

// Finalize checks the utterance for a payment-confirmation phrase and, when
// name, dob, package and payment method are all on file, sets the stage to
// exam scheduling. Returns true when it fired; the caller appends
// PaymentConfirmedMessage and skips the rest of the turn pipeline.
func (f *PaymentFinalizer) Finalize(session *models.Session, utterance string) bool {
	if !containsAny(strings.ToLower(utterance), paymentConfirmations) {
		return false
	}
	if !session.Client.HasPaymentPrereqs() {
		slog.Debug("PaymentFinalizer.Finalize: confirmation phrase seen but required fields missing", "sessionID", session.ID)
		return false
	}

	slog.Info("PaymentFinalizer.Finalize: payment confirmed, forcing scheduling stage", "sessionID", session.ID, "from", session.Stage)
	session.Stage = models.StageExamScheduling
	return true
}
