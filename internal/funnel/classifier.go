package funnel

import (
	"context"
	"log/slog"
	"strings"

	"github.com/funnelbot/funnelbot/internal/genai"
	"github.com/funnelbot/funnelbot/internal/models"
	"github.com/openai/openai-go"
)

// IntentClassifier maps a raw user utterance to a conversation stage. Both
// implementations are total: they normalize casing, never fail, and fall
// back to the current stage when nothing matches.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string, current models.ConversationStage) models.ConversationStage
}

// keywordRule pairs a target stage with the word set that selects it.
type keywordRule struct {
	stage models.ConversationStage
	terms []string
}

// keywordRules are evaluated in order; the first matching rule wins.
var keywordRules = []keywordRule{
	{models.StageServiceInquiry, []string{"ged", "service", "assistance", "help with"}},
	{models.StageBasicInfo, []string{"state", "job", "college", "account", "registered"}},
	{models.StageProcessExplanation, []string{"how does", "process", "explain"}},
	{models.StagePackageOffer, []string{"package", "price", "cost"}},
	{models.StagePaymentDetails, []string{"zelle", "cashapp", "pay", "payment"}},
	{models.StageExamScheduling, []string{"schedule", "test", "exam date"}},
}

// KeywordClassifier classifies by ordered containment checks against fixed
// word sets, with no other state.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the keyword strategy.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify returns the stage of the first matching rule, or the current
// stage when no keyword matches.
func (c *KeywordClassifier) Classify(_ context.Context, utterance string, current models.ConversationStage) models.ConversationStage {
	lower := strings.ToLower(utterance)
	for _, rule := range keywordRules {
		if containsAny(lower, rule.terms) {
			return rule.stage
		}
	}
	return current
}

// DelegatedClassifier asks the completion service for a single label from
// the closed stage set plus an "Other" sentinel.
type DelegatedClassifier struct {
	client genai.ClientInterface
}

// NewDelegatedClassifier creates the delegated strategy.
func NewDelegatedClassifier(client genai.ClientInterface) *DelegatedClassifier {
	return &DelegatedClassifier{client: client}
}

// classifierSystemPrompt constrains the model to the closed label set.
func classifierSystemPrompt() string {
	var labels []string
	for _, stage := range models.Stages {
		labels = append(labels, stage.Label())
	}
	labels = append(labels, "Other")
	return "You classify a single customer message from a sales conversation into exactly one stage label. " +
		"Reply with one label and nothing else. Labels: " + strings.Join(labels, ", ") + ". " +
		"Use Other when no stage fits."
}

// Classify delegates to the completion service. Unrecognized responses, the
// Other sentinel, and call failures all leave the stage unchanged.
func (c *DelegatedClassifier) Classify(ctx context.Context, utterance string, current models.ConversationStage) models.ConversationStage {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(classifierSystemPrompt()),
		openai.UserMessage(utterance),
	}

	label, err := c.client.GenerateWithMessages(ctx, messages)
	if err != nil {
		slog.Warn("DelegatedClassifier.Classify: classification call failed, keeping current stage", "error", err, "current", current)
		return current
	}

	stage, ok := models.ParseStage(label)
	if !ok {
		slog.Debug("DelegatedClassifier.Classify: unrecognized label, keeping current stage", "label", label, "current", current)
		return current
	}
	return stage
}
