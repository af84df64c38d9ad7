package funnel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/funnelbot/funnelbot/internal/genai"
	"github.com/funnelbot/funnelbot/internal/models"
	"github.com/funnelbot/funnelbot/internal/recordlog"
	"github.com/funnelbot/funnelbot/internal/retrieval"
	"github.com/funnelbot/funnelbot/internal/store"
	"github.com/funnelbot/funnelbot/internal/util"
	"github.com/openai/openai-go"
)

// Fixed user-facing messages.
const (
	// CompletionFallbackMessage is shown when the completion service fails
	// for a turn; session state is left unchanged.
	CompletionFallbackMessage = "I'm having trouble with that request. Could you try again?"
	// PaymentSavedMessage confirms a successful payment form submission.
	PaymentSavedMessage = "Payment details received successfully! We'll proceed with your registration."
	// PaymentSaveFailedMessage is the notice shown when the payment record
	// could not be persisted.
	PaymentSaveFailedMessage = "Couldn't save your payment details. Please try again."
	// MeetingSavedMessage confirms a successful meeting form submission.
	MeetingSavedMessage = "Meeting scheduled successfully!"
	// MeetingSaveFailedMessage is the notice shown when the meeting record
	// could not be persisted.
	MeetingSaveFailedMessage = "Couldn't save meeting details. Please try again."
)

// promptHistoryLimit is the number of recent turns serialized into the
// completion request.
const promptHistoryLimit = 6

// snippetCap bounds the product-info context passed to the completion call.
const snippetCap = 500

// TurnResult is what one processed utterance produces for the front end.
// MeetingStage mirrors the original behavior of offering the scheduling form
// whenever the retail assistant's reply suggests a call.
type TurnResult struct {
	Reply        string                   `json:"reply"`
	Stage        models.ConversationStage `json:"stage"`
	PaymentStage bool                     `json:"payment_stage"`
	MeetingStage bool                     `json:"meeting_stage"`
}

// Engine runs the per-turn pipeline: extraction, payment finalization,
// repetition guarding, completion, post-processing, and stage tracking.
// Each utterance is processed to completion before the next one for the
// same session is accepted.
type Engine struct {
	sessions   SessionManager
	store      store.Store
	client     genai.ClientInterface
	tracker    *StageTracker
	guard      *RepetitionGuard
	finalizer  *PaymentFinalizer
	retrieval  retrieval.Searcher
	profiles   map[models.Variant]*Profile
	paymentLog *recordlog.Log
	meetingLog *recordlog.Log
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithRetrieval attaches the product snippet store used by the retail
// variant.
func WithRetrieval(searcher retrieval.Searcher) EngineOption {
	return func(e *Engine) {
		e.retrieval = searcher
	}
}

// WithPaymentLog attaches the NDJSON payment log.
func WithPaymentLog(log *recordlog.Log) EngineOption {
	return func(e *Engine) {
		e.paymentLog = log
	}
}

// WithMeetingLog attaches the NDJSON meeting log.
func WithMeetingLog(log *recordlog.Log) EngineOption {
	return func(e *Engine) {
		e.meetingLog = log
	}
}

// NewEngine creates the conversation engine with the given classifier
// strategy and persistence backends.
func NewEngine(sessions SessionManager, st store.Store, client genai.ClientInterface, classifier IntentClassifier, opts ...EngineOption) *Engine {
	e := &Engine{
		sessions:  sessions,
		store:     st,
		client:    client,
		tracker:   NewStageTracker(classifier),
		guard:     NewRepetitionGuard(),
		finalizer: NewPaymentFinalizer(),
		profiles: map[models.Variant]*Profile{
			models.VariantGED:    GEDProfile(),
			models.VariantRetail: RetailProfile(),
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartSession creates a session for the given variant and returns it with
// the opening greeting already in history.
func (e *Engine) StartSession(ctx context.Context, variant models.Variant, brand string) (*models.Session, error) {
	profile, ok := e.profiles[variant]
	if !ok {
		return nil, models.ErrUnknownVariant
	}

	brand = strings.ToLower(strings.TrimSpace(brand))
	if !profile.SupportsBrand(brand) {
		return nil, fmt.Errorf("%w: we specialize in %s", models.ErrUnknownBrand, strings.Join(profile.Brands, " and "))
	}

	session := &models.Session{
		ID:      util.GenerateSessionID(),
		Variant: variant,
		Brand:   brand,
		Stage:   models.StageInitialGreeting,
	}
	if variant == models.VariantRetail {
		session.Client.Service = brand
	}
	session.AppendTurn(models.RoleAssistant, profile.Greeting())

	if err := e.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("Engine.StartSession: session started", "sessionID", session.ID, "variant", variant, "brand", brand)
	return session, nil
}

// GetSession returns the session with the given ID.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return e.sessions.GetSession(ctx, sessionID)
}

// ProcessMessage runs one utterance through the turn pipeline and returns
// the assistant reply.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, utterance string) (*TurnResult, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, models.ErrEmptyMessage
	}

	session, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	profile := e.profiles[session.Variant]

	// Extraction runs first so even short-circuited turns capture facts.
	ExtractClientInfo(utterance, &session.Client)

	// Payment finalization is a hard override: it outranks the classifier
	// and skips the completion call.
	if e.finalizer.Finalize(session, utterance) {
		return e.finishTurn(ctx, session, utterance, PaymentConfirmedMessage)
	}

	// The repetition guard also short-circuits: no completion call when the
	// assistant has been looping.
	if e.guard.Observe(session) {
		return e.finishTurn(ctx, session, utterance, RecoveryMessage)
	}

	reply, err := e.complete(ctx, session, profile, utterance)
	if err != nil {
		// Recovered locally: the user sees the fallback and the session is
		// left exactly as it was before this turn.
		slog.Error("Engine.ProcessMessage: completion failed, returning fallback", "error", err, "sessionID", session.ID)
		return &TurnResult{Reply: CompletionFallbackMessage, Stage: session.Stage, PaymentStage: session.IsPaymentStage(), MeetingStage: session.IsMeetingStage()}, nil
	}
	reply = Postprocess(reply)

	e.tracker.Advance(ctx, session, utterance)
	return e.finishTurn(ctx, session, utterance, reply)
}

// finishTurn appends the turn pair, persists the session, and builds the
// result.
func (e *Engine) finishTurn(ctx context.Context, session *models.Session, utterance, reply string) (*TurnResult, error) {
	session.AppendTurn(models.RoleUser, utterance)
	session.AppendTurn(models.RoleAssistant, reply)

	if err := e.sessions.SaveSession(ctx, session); err != nil {
		// The reply is still worth delivering; the session just won't
		// remember this turn.
		slog.Error("Engine.finishTurn: failed to save session", "error", err, "sessionID", session.ID)
	}

	return &TurnResult{Reply: reply, Stage: session.Stage, PaymentStage: session.IsPaymentStage(), MeetingStage: session.IsMeetingStage()}, nil
}

// complete builds the completion request from the persona prompt, the
// collected client details, the recent history, and the current utterance.
func (e *Engine) complete(ctx context.Context, session *models.Session, profile *Profile, utterance string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(profile.SystemPrompt(session.Brand)),
	}
	if summary := session.Client.Summary(); summary != "" {
		messages = append(messages, openai.SystemMessage("Known client details: "+summary))
	}
	messages = append(messages, openai.SystemMessage("Current conversation stage: "+session.Stage.Label()))

	if note := e.contextNote(ctx, session, profile, utterance); note != "" {
		messages = append(messages, openai.SystemMessage(note))
	}

	history := session.History
	if len(history) > promptHistoryLimit {
		history = history[len(history)-promptHistoryLimit:]
	}
	for _, turn := range history {
		switch turn.Role {
		case models.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(utterance))

	return e.client.GenerateWithMessages(ctx, messages)
}

// contextNote produces the retail variant's grounding context: a bargaining
// framing for price negotiation, otherwise retrieved product snippets.
// Retrieval failure is not fatal; it degrades to "no info found".
func (e *Engine) contextNote(ctx context.Context, session *models.Session, profile *Profile, utterance string) string {
	if session.Variant != models.VariantRetail {
		return ""
	}

	if profile.IsBargaining(utterance) {
		return "The customer is negotiating price. Stay polite but persuasive, and offer to schedule a call with a specialist when the customer is close to a decision."
	}

	if e.retrieval == nil {
		return "No product info available for this question."
	}
	snippets, err := e.retrieval.Search(ctx, session.Brand+" "+utterance, retrieval.DefaultTopK)
	if err != nil {
		slog.Warn("Engine.contextNote: retrieval failed, continuing without product info", "error", err, "sessionID", session.ID)
		return "No product info available for this question."
	}
	if len(snippets) == 0 {
		return "No product info available for this question."
	}

	return "Product info: " + truncate(strings.Join(snippets, "\n"), snippetCap)
}

// SubmitPayment handles the structured payment form. Unlike the extraction
// pass, the form may overwrite populated client fields; that is the explicit
// user edit path. The returned message is always user-facing; persistence
// failures surface as a could-not-save notice, not an error.
func (e *Engine) SubmitPayment(ctx context.Context, sessionID string, form models.PaymentForm) (string, error) {
	session, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	profile := e.profiles[session.Variant]
	if len(profile.Packages) == 0 {
		return "", fmt.Errorf("variant %s does not take payment submissions", session.Variant)
	}

	if err := form.Validate(profile.Packages); err != nil {
		return "", err
	}

	pkg := form.Package
	if pkg == "" {
		pkg = profile.InferPackage(lastAssistantReply(session))
	}
	if pkg == "" {
		return "", models.ErrInvalidPackage
	}

	session.Client.Name = form.Name
	session.Client.DOB = form.DOB
	session.Client.Email = form.Email
	session.Client.Address = form.Address
	session.Client.Package = pkg
	session.Client.PaymentMethod = form.PaymentMethod

	record := models.PaymentRecord{
		Name:          form.Name,
		Package:       pkg,
		PaymentMethod: form.PaymentMethod,
		Amount:        profile.Amount(pkg),
		Timestamp:     time.Now(),
	}
	if !e.persistPayment(record) {
		return PaymentSaveFailedMessage, nil
	}

	session.AppendTurn(models.RoleAssistant, PaymentSavedMessage)
	if err := e.sessions.SaveSession(ctx, session); err != nil {
		slog.Error("Engine.SubmitPayment: failed to save session after payment", "error", err, "sessionID", session.ID)
	}

	slog.Info("Engine.SubmitPayment: payment recorded", "sessionID", session.ID, "package", pkg, "method", form.PaymentMethod)
	return PaymentSavedMessage, nil
}

// persistPayment writes the record to the store and the NDJSON log. Both
// failures are logged; either success counts as saved.
func (e *Engine) persistPayment(record models.PaymentRecord) bool {
	saved := false
	if err := e.store.AddPaymentRecord(record); err != nil {
		slog.Error("Engine.persistPayment: store insert failed", "error", err)
	} else {
		saved = true
	}
	if e.paymentLog != nil {
		if err := e.paymentLog.Append(record); err != nil {
			slog.Error("Engine.persistPayment: log append failed", "error", err, "path", e.paymentLog.Path())
		} else {
			saved = true
		}
	}
	return saved
}

// SubmitMeeting handles the retail meeting scheduling form.
func (e *Engine) SubmitMeeting(ctx context.Context, sessionID string, form models.MeetingForm) (string, error) {
	session, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session.Variant != models.VariantRetail {
		return "", fmt.Errorf("variant %s does not take meeting submissions", session.Variant)
	}

	if err := form.Validate(); err != nil {
		return "", err
	}

	if session.Client.Name == "" {
		session.Client.Name = form.Name
	}

	record := models.MeetingRecord{
		Name:      form.Name,
		Brand:     session.Brand,
		Date:      form.Date,
		Time:      form.Time,
		Timestamp: time.Now(),
	}
	if !e.persistMeeting(record) {
		return MeetingSaveFailedMessage, nil
	}

	session.AppendTurn(models.RoleAssistant, MeetingSavedMessage)
	if err := e.sessions.SaveSession(ctx, session); err != nil {
		slog.Error("Engine.SubmitMeeting: failed to save session after meeting", "error", err, "sessionID", session.ID)
	}

	slog.Info("Engine.SubmitMeeting: meeting recorded", "sessionID", session.ID, "brand", session.Brand, "date", form.Date)
	return MeetingSavedMessage, nil
}

// persistMeeting writes the record to the store and the NDJSON log.
func (e *Engine) persistMeeting(record models.MeetingRecord) bool {
	saved := false
	if err := e.store.AddMeetingRecord(record); err != nil {
		slog.Error("Engine.persistMeeting: store insert failed", "error", err)
	} else {
		saved = true
	}
	if e.meetingLog != nil {
		if err := e.meetingLog.Append(record); err != nil {
			slog.Error("Engine.persistMeeting: log append failed", "error", err, "path", e.meetingLog.Path())
		} else {
			saved = true
		}
	}
	return saved
}

// lastAssistantReply returns the most recent assistant turn content, or "".
func lastAssistantReply(session *models.Session) string {
	for i := len(session.History) - 1; i >= 0; i-- {
		if session.History[i].Role == models.RoleAssistant {
			return session.History[i].Content
		}
	}
	return ""
}

// truncate caps s at n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
