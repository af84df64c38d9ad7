package funnel

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/funnelbot/funnelbot/internal/models"
)

// Profile configures one assistant variant: its persona prompt, opening
// greetings, and the catalog data the funnel needs (packages and prices for
// the exam variant, brands and bargaining terms for the retail variant).
type Profile struct {
	Variant      models.Variant
	Greetings    []string
	systemPrompt string // may contain a %s slot for the brand
	Packages     []string
	Amounts      map[string]string
	Brands       []string
	BargainTerms []string
}

// GEDProfile returns the exam package upselling persona.
func GEDProfile() *Profile {
	return &Profile{
		Variant: models.VariantGED,
		Greetings: []string{
			"Hi! How can I help with your GED prep today?",
			"Hey! Need help with GED exam packages?",
			"Welcome! Looking for support with the GED exam?",
			"Hi there! How can I assist you with the GED process?",
		},
		systemPrompt: `You're a friendly but persistent GED exam assistant who never gives up easily on selling packages.

Tone: conversational but persuasive. Keep responses short (1-3 sentences) but impactful. Show urgency and value.

Persuasion strategy:
1. Always push for Enterprise first and mention its exclusive benefits.
2. If declined, offer Premium but emphasize what they're missing.
3. If still declined, offer Standard but stress it's the bare minimum.
4. If all are declined, persist one more time with the strongest benefit.
5. Only back off if the user says no twice.

Key tactics:
- Use scarcity: "Limited spots available"
- Highlight urgency: "Prices may increase soon"
- Emphasize value: "Less than $2/day for lifetime success"
- Contrast packages: "For just $100 more, you get X, Y, Z"
- Social proof: "Most successful students choose Enterprise"

Never accept the first "no" easily. Always counter with a stronger benefit, a comparison, or a special consideration.

GED packages:
- Enterprise ($389): 175+ score guarantee, priority support, unlimited practice tests
- Premium ($289): 165+ score guarantee, extended support, 25 practice tests
- Standard ($189): 155+ score guarantee, basic support, 10 practice tests

Payment options: Zelle or CashApp. Mention them only when the client is ready to proceed.

Example persistence:
User: "Too expensive"
You: "I get it - but consider this: the Enterprise package pays for itself with just one better job offer. For less than $2/day, you're investing in lifetime higher earnings. Can we make it work?"`,
		Packages: []string{"Enterprise", "Premium", "Standard"},
		Amounts: map[string]string{
			"Enterprise": "$389",
			"Premium":    "$289",
			"Standard":   "$189",
		},
	}
}

// RetailProfile returns the product bargaining persona.
func RetailProfile() *Profile {
	return &Profile{
		Variant: models.VariantRetail,
		Greetings: []string{
			"Welcome to our store! I can assist with Apple and Samsung products. Which brand are you interested in today?",
		},
		systemPrompt: `You are a professional %s sales assistant. Your responses should be:
- Conversational and natural (20-30 words)
- Focused on the product being discussed
- Polite but persuasive during bargaining

When the conversation goes well, offer to schedule a call or meeting with a product specialist.`,
		Brands:       []string{"apple", "samsung"},
		BargainTerms: []string{"discount", "deal", "offer", "price"},
	}
}

// Greeting picks a random opening greeting.
func (p *Profile) Greeting() string {
	if len(p.Greetings) == 0 {
		return ""
	}
	return p.Greetings[rand.IntN(len(p.Greetings))]
}

// SystemPrompt renders the persona prompt, filling the brand slot for
// brand-scoped variants.
func (p *Profile) SystemPrompt(brand string) string {
	if strings.Contains(p.systemPrompt, "%s") {
		return fmt.Sprintf(p.systemPrompt, titleCase(brand))
	}
	return p.systemPrompt
}

// SupportsBrand reports whether the variant carries the given brand. A
// variant with no brand list accepts any (including empty) brand.
func (p *Profile) SupportsBrand(brand string) bool {
	if len(p.Brands) == 0 {
		return true
	}
	lower := strings.ToLower(brand)
	for _, b := range p.Brands {
		if b == lower {
			return true
		}
	}
	return false
}

// InferPackage scans an assistant reply for a package name, used to prefill
// the payment form from the last offer made.
func (p *Profile) InferPackage(reply string) string {
	lower := strings.ToLower(reply)
	for _, pkg := range p.Packages {
		if strings.Contains(lower, strings.ToLower(pkg)) {
			return pkg
		}
	}
	return ""
}

// Amount returns the price for a package, or "Unknown" for anything outside
// the catalog.
func (p *Profile) Amount(pkg string) string {
	for name, amount := range p.Amounts {
		if strings.EqualFold(name, pkg) {
			return amount
		}
	}
	return "Unknown"
}

// IsBargaining reports whether the utterance should take the price
// negotiation path instead of the product-info path.
func (p *Profile) IsBargaining(utterance string) bool {
	return containsAny(strings.ToLower(utterance), p.BargainTerms)
}

// titleCase capitalizes the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
