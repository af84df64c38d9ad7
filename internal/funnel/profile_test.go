package funnel

import (
	"strings"
	"testing"

	"github.com/funnelbot/funnelbot/internal/models"
)

func TestGEDProfileCatalog(t *testing.T) {
	profile := GEDProfile()

	if profile.Variant != models.VariantGED {
		t.Errorf("Variant = %v, want %v", profile.Variant, models.VariantGED)
	}
	if got := profile.Amount("Enterprise"); got != "$389" {
		t.Errorf("Amount(Enterprise) = %q, want $389", got)
	}
	if got := profile.Amount("premium"); got != "$289" {
		t.Errorf("Amount(premium) = %q, want $289 (case-insensitive)", got)
	}
	if got := profile.Amount("Deluxe"); got != "Unknown" {
		t.Errorf("Amount(Deluxe) = %q, want Unknown", got)
	}
}

func TestGEDProfileSystemPrompt(t *testing.T) {
	prompt := GEDProfile().SystemPrompt("")

	// The persona carries the full persuasion playbook: strategy, tactics,
	// catalog, and the persistence example.
	for _, fragment := range []string{
		"Persuasion strategy",
		"Key tactics",
		"Limited spots available",
		"$2/day",
		"Most successful students choose Enterprise",
		"Enterprise ($389)",
		"Example persistence",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("system prompt missing %q", fragment)
		}
	}
}

func TestGEDProfileGreeting(t *testing.T) {
	profile := GEDProfile()
	greeting := profile.Greeting()

	found := false
	for _, g := range profile.Greetings {
		if g == greeting {
			found = true
		}
	}
	if !found {
		t.Errorf("Greeting() = %q, not in the greeting set", greeting)
	}
}

func TestGEDProfileSupportsAnyBrand(t *testing.T) {
	profile := GEDProfile()
	if !profile.SupportsBrand("") {
		t.Error("variant without brands should accept empty brand")
	}
}

func TestRetailProfileBrands(t *testing.T) {
	profile := RetailProfile()

	if !profile.SupportsBrand("apple") || !profile.SupportsBrand("Samsung") {
		t.Error("apple and samsung should be supported")
	}
	if profile.SupportsBrand("nokia") {
		t.Error("nokia should not be supported")
	}
}

func TestRetailProfileSystemPromptBrandSlot(t *testing.T) {
	profile := RetailProfile()
	prompt := profile.SystemPrompt("apple")

	if !strings.Contains(prompt, "Apple") {
		t.Errorf("SystemPrompt should contain title-cased brand, got %q", prompt)
	}
	if strings.Contains(prompt, "%s") {
		t.Error("SystemPrompt left the brand slot unfilled")
	}
}

func TestRetailProfileIsBargaining(t *testing.T) {
	profile := RetailProfile()

	if !profile.IsBargaining("can you give me a Discount on this?") {
		t.Error("IsBargaining = false for a discount request")
	}
	if profile.IsBargaining("what colors does it come in?") {
		t.Error("IsBargaining = true for a product question")
	}
}

func TestInferPackage(t *testing.T) {
	profile := GEDProfile()

	tests := []struct {
		reply string
		want  string
	}{
		{"The Premium package would suit you at $289.", "Premium"},
		{"I'd recommend the enterprise tier.", "Enterprise"},
		{"Let me know which one works for you.", ""},
	}
	for _, tt := range tests {
		if got := profile.InferPackage(tt.reply); got != tt.want {
			t.Errorf("InferPackage(%q) = %q, want %q", tt.reply, got, tt.want)
		}
	}
}
