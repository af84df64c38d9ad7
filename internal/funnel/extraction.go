// Package funnel implements the conversation-stage tracking core: the
// extraction pass, intent classification, the stage tracker, the repetition
// guard, the response post-processor, the payment finalizer, and the per-turn
// engine that orchestrates them.
package funnel

import (
	"strings"

	"github.com/funnelbot/funnelbot/internal/models"
)

// usStateNames lists the 50 US states in scan order. States whose lowercase
// name contains another state's name as a substring (West Virginia/Virginia,
// Arkansas/Kansas) are ordered so the longer name is checked first; otherwise
// a containment scan would claim the wrong state.
var usStateNames = []string{
	"West Virginia", "Arkansas",
	"New Hampshire", "New Jersey", "New Mexico", "New York",
	"North Carolina", "North Dakota", "South Carolina", "South Dakota",
	"Rhode Island",
	"Alabama", "Alaska", "Arizona", "California", "Colorado",
	"Connecticut", "Delaware", "Florida", "Georgia", "Hawaii",
	"Idaho", "Illinois", "Indiana", "Iowa", "Kansas", "Kentucky",
	"Louisiana", "Maine", "Maryland", "Massachusetts", "Michigan",
	"Minnesota", "Mississippi", "Missouri", "Montana", "Nebraska",
	"Nevada", "Ohio", "Oklahoma", "Oregon", "Pennsylvania",
	"Tennessee", "Texas", "Utah", "Vermont", "Virginia",
	"Washington", "Wisconsin", "Wyoming",
}

// Account status phrase sets. The negative set is checked first: when an
// utterance matches both sets, "no" wins. That ordering is deliberate policy,
// not an accident of iteration.
var (
	accountNegatives = []string{
		"i don't have an account",
		"no account",
		"not registered",
		"haven't registered",
	}
	accountPositives = []string{
		"i have an account",
		"already registered",
		"yes i registered",
	}
)

// ExtractClientInfo scans an utterance for recognizable entities and fills
// any newly discovered values into info. Populated fields are never
// overwritten (first-write-wins); absence of a match is not an error.
func ExtractClientInfo(utterance string, info *models.ClientInfo) {
	lower := strings.ToLower(utterance)

	if info.State == "" {
		for _, name := range usStateNames {
			if strings.Contains(lower, strings.ToLower(name)) {
				info.State = name
				break
			}
		}
	}

	if info.HasAccount == "" {
		if containsAny(lower, accountNegatives) {
			info.HasAccount = "no"
		} else if containsAny(lower, accountPositives) {
			info.HasAccount = "yes"
		}
	}

	if info.Purpose == "" {
		if strings.Contains(lower, "job") {
			info.Purpose = "job"
		} else if strings.Contains(lower, "college") {
			info.Purpose = "college"
		}
	}
}

// containsAny reports whether s contains any of the given phrases. s must
// already be case-folded.
func containsAny(s string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}
