package models

// APIResponse is the uniform JSON envelope returned by the HTTP API.
type APIResponse struct {
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Success wraps a result payload in a successful envelope.
func Success(result any) APIResponse {
	return APIResponse{Status: "ok", Result: result}
}

// Error wraps an error message in a failure envelope.
func Error(message string) APIResponse {
	return APIResponse{Status: "error", Error: message}
}

// SessionView is the read model returned to the front end. The widget uses
// PaymentStage to decide between free-text input and the structured payment
// form (free text must be suppressed while PaymentStage is true), and
// MeetingStage to offer the meeting scheduling form.
type SessionView struct {
	ID           string            `json:"id"`
	Variant      Variant           `json:"variant"`
	Brand        string            `json:"brand,omitempty"`
	Stage        ConversationStage `json:"stage"`
	PaymentStage bool              `json:"payment_stage"`
	MeetingStage bool              `json:"meeting_stage"`
	Client       ClientInfo        `json:"client"`
	History      []Turn            `json:"history"`
}

// View projects a session into its read model.
func (s *Session) View() SessionView {
	return SessionView{
		ID:           s.ID,
		Variant:      s.Variant,
		Brand:        s.Brand,
		Stage:        s.Stage,
		PaymentStage: s.IsPaymentStage(),
		MeetingStage: s.IsMeetingStage(),
		Client:       s.Client,
		History:      s.History,
	}
}
