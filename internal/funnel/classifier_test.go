package funnel

import (
	"context"
	"errors"
	"testing"

	"github.com/funnelbot/funnelbot/internal/models"
)

func TestKeywordClassifier(t *testing.T) {
	classifier := NewKeywordClassifier()
	ctx := context.Background()

	tests := []struct {
		name      string
		utterance string
		current   models.ConversationStage
		want      models.ConversationStage
	}{
		{"service inquiry", "I need help with the GED", models.StageInitialGreeting, models.StageServiceInquiry},
		{"basic info", "I'm in a different state now", models.StageServiceInquiry, models.StageBasicInfo},
		{"process explanation", "how does the whole thing work?", models.StageBasicInfo, models.StageProcessExplanation},
		{"package offer", "what's the price for the enterprise option", models.StageProcessExplanation, models.StagePackageOffer},
		{"payment details", "can I use zelle?", models.StagePackageOffer, models.StagePaymentDetails},
		{"exam scheduling", "when can I take the test?", models.StagePaymentDetails, models.StageExamScheduling},
		{"no match keeps current", "hmm let me think about it", models.StagePackageOffer, models.StagePackageOffer},
		{"case insensitive", "ZELLE works for me", models.StagePackageOffer, models.StagePaymentDetails},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(ctx, tt.utterance, tt.current)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.utterance, got, tt.want)
			}
		})
	}
}

func TestKeywordClassifierRuleOrder(t *testing.T) {
	classifier := NewKeywordClassifier()

	// "ged" and "package" both appear; the earlier rule must win.
	got := classifier.Classify(context.Background(), "ged package please", models.StageInitialGreeting)
	if got != models.StageServiceInquiry {
		t.Errorf("Classify = %v, want %v (first matching rule wins)", got, models.StageServiceInquiry)
	}
}

func TestDelegatedClassifier(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		err     error
		current models.ConversationStage
		want    models.ConversationStage
	}{
		{"camel case label", "PackageOffer", nil, models.StageBasicInfo, models.StagePackageOffer},
		{"snake case label", "payment_details", nil, models.StageBasicInfo, models.StagePaymentDetails},
		{"label with trailing period", "ExamScheduling.", nil, models.StageBasicInfo, models.StageExamScheduling},
		{"other sentinel keeps current", "Other", nil, models.StagePackageOffer, models.StagePackageOffer},
		{"garbage keeps current", "I think the customer wants a discount", nil, models.StagePackageOffer, models.StagePackageOffer},
		{"call failure keeps current", "", errors.New("timeout"), models.StageBasicInfo, models.StageBasicInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCompletionClient{reply: tt.reply, err: tt.err}
			classifier := NewDelegatedClassifier(fake)

			got := classifier.Classify(context.Background(), "anything", tt.current)
			if got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}
