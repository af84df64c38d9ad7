// Package models defines the core data structures for funnelbot.
//
// It includes conversation stages, collected client details, session state,
// and the record types persisted at payment/meeting submission, which are
// shared across modules.
package models

import (
	"errors"
	"strings"
	"time"
)

// ConversationStage identifies a phase of the scripted sales conversation.
// The set is closed; any stage may follow any stage (the transition table in
// the funnel package makes that permissiveness explicit).
type ConversationStage string

const (
	StageInitialGreeting    ConversationStage = "initial_greeting"
	StageServiceInquiry     ConversationStage = "service_inquiry"
	StageBasicInfo          ConversationStage = "basic_info"
	StageProcessExplanation ConversationStage = "process_explanation"
	StagePackageOffer       ConversationStage = "package_offer"
	StagePaymentDetails     ConversationStage = "payment_details"
	StageExamScheduling     ConversationStage = "exam_scheduling"
)

// Stages lists every conversation stage in funnel order.
var Stages = []ConversationStage{
	StageInitialGreeting,
	StageServiceInquiry,
	StageBasicInfo,
	StageProcessExplanation,
	StagePackageOffer,
	StagePaymentDetails,
	StageExamScheduling,
}

// stageLabels maps the classifier-facing labels to stages. Both the
// snake_case storage form and the CamelCase label form are accepted so the
// delegated classifier can parse either spelling from the model.
var stageLabels = map[string]ConversationStage{
	"initial_greeting":    StageInitialGreeting,
	"initialgreeting":     StageInitialGreeting,
	"service_inquiry":     StageServiceInquiry,
	"serviceinquiry":      StageServiceInquiry,
	"basic_info":          StageBasicInfo,
	"basicinfo":           StageBasicInfo,
	"process_explanation": StageProcessExplanation,
	"processexplanation":  StageProcessExplanation,
	"package_offer":       StagePackageOffer,
	"packageoffer":        StagePackageOffer,
	"payment_details":     StagePaymentDetails,
	"paymentdetails":      StagePaymentDetails,
	"exam_scheduling":     StageExamScheduling,
	"examscheduling":      StageExamScheduling,
}

// IsValidStage checks whether the given stage is a member of the closed set.
func IsValidStage(s ConversationStage) bool {
	for _, stage := range Stages {
		if stage == s {
			return true
		}
	}
	return false
}

// ParseStage resolves a classifier label to a stage. It is lenient about
// casing and underscores; the second return value is false for anything
// outside the closed set (including the "Other" sentinel).
func ParseStage(label string) (ConversationStage, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.Trim(normalized, ".\"'")
	stage, ok := stageLabels[normalized]
	return stage, ok
}

// Label returns the CamelCase label used when talking to the delegated
// classifier.
func (s ConversationStage) Label() string {
	switch s {
	case StageInitialGreeting:
		return "InitialGreeting"
	case StageServiceInquiry:
		return "ServiceInquiry"
	case StageBasicInfo:
		return "BasicInfo"
	case StageProcessExplanation:
		return "ProcessExplanation"
	case StagePackageOffer:
		return "PackageOffer"
	case StagePaymentDetails:
		return "PaymentDetails"
	case StageExamScheduling:
		return "ExamScheduling"
	default:
		return string(s)
	}
}

// Variant selects which assistant persona a session runs.
type Variant string

const (
	// VariantGED is the exam package upselling assistant.
	VariantGED Variant = "ged"
	// VariantRetail is the product bargaining assistant.
	VariantRetail Variant = "retail"
)

// IsValidVariant checks if the given variant is supported.
func IsValidVariant(v Variant) bool {
	return v == VariantGED || v == VariantRetail
}

// Turn roles. Every history entry carries an explicit role tag; role is
// never inferred from position.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single entry in the conversation history.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientInfo is the accumulating record of facts learned about the client
// during a session. The extraction pass fills fields first-write-wins; only
// the structured payment form may overwrite a populated field.
type ClientInfo struct {
	Service       string `json:"service,omitempty"`
	State         string `json:"state,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
	HasAccount    string `json:"has_account,omitempty"`
	Name          string `json:"name,omitempty"`
	DOB           string `json:"dob,omitempty"`
	Address       string `json:"address,omitempty"`
	Email         string `json:"email,omitempty"`
	Package       string `json:"package,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// HasPaymentPrereqs reports whether the fields the payment finalizer
// requires are all populated.
func (c ClientInfo) HasPaymentPrereqs() bool {
	return c.Name != "" && c.DOB != "" && c.Package != "" && c.PaymentMethod != ""
}

// Summary renders the known fields as a single line for inclusion in the
// completion request. Empty fields are omitted.
func (c ClientInfo) Summary() string {
	pairs := []struct{ key, value string }{
		{"service", c.Service},
		{"state", c.State},
		{"purpose", c.Purpose},
		{"has_account", c.HasAccount},
		{"name", c.Name},
		{"dob", c.DOB},
		{"address", c.Address},
		{"email", c.Email},
		{"package", c.Package},
		{"payment_method", c.PaymentMethod},
	}
	var parts []string
	for _, p := range pairs {
		if p.value != "" {
			parts = append(parts, p.key+"="+p.value)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ")
}

// Session holds all mutable state for one conversation. It is created at
// session start, owned by a single handler call at a time, and never shared
// across sessions.
type Session struct {
	ID          string            `json:"id"`
	Variant     Variant           `json:"variant"`
	Brand       string            `json:"brand,omitempty"`
	Stage       ConversationStage `json:"stage"`
	Client      ClientInfo        `json:"client"`
	History     []Turn            `json:"history"`
	RepeatCount int               `json:"repeat_count"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// AppendTurn appends a role-tagged turn to the conversation history.
func (s *Session) AppendTurn(role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content, Timestamp: time.Now()})
}

// IsPaymentStage reports whether the structured payment form should be
// presented instead of free-text input.
func (s *Session) IsPaymentStage() bool {
	return s.Stage == StagePaymentDetails
}

// meetingPrompts are the assistant-reply fragments that signal the front end
// to present the meeting scheduling form.
var meetingPrompts = []string{"schedule", "call"}

// IsMeetingStage reports whether the meeting scheduling form should be
// offered alongside the next input: the retail assistant's latest reply
// suggested scheduling a call.
func (s *Session) IsMeetingStage() bool {
	if s.Variant != VariantRetail {
		return false
	}
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role != RoleAssistant {
			continue
		}
		lower := strings.ToLower(s.History[i].Content)
		for _, p := range meetingPrompts {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}
	return false
}

// Error variables for better error handling and testability.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrUnknownVariant   = errors.New("unknown assistant variant")
	ErrUnknownBrand     = errors.New("unsupported brand")
	ErrMissingName      = errors.New("name is required")
	ErrMissingDOB       = errors.New("date of birth is required")
	ErrInvalidPackage   = errors.New("invalid package selection")
	ErrInvalidPayMethod = errors.New("invalid payment method")
	ErrMissingDate      = errors.New("meeting date is required")
	ErrMissingTime      = errors.New("meeting time is required")
)
