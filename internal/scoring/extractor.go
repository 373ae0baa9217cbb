package scoring

import (
	"context"
	"strings"
)

// lexicon maps note keywords to features. A coarse stand-in for the external
// text-analysis collaborator, usable in local runs and tests.
var lexicon = map[string]Feature{
	"delay":      {Name: "developmental_delay", Category: "development", Severity: 0.7},
	"regression": {Name: "skill_regression", Category: "development", Severity: 0.9},
	"nonverbal":  {Name: "limited_speech", Category: "communication", Severity: 0.8},
	"babbling":   {Name: "babbling_present", Category: "communication", Severity: 0.2},
	"pointing":   {Name: "gesture_use", Category: "communication", Severity: 0.2},
	"hypotonia":  {Name: "low_muscle_tone", Category: "motor", Severity: 0.8},
	"asymmetric": {Name: "asymmetric_movement", Category: "motor", Severity: 0.9},
	"walking":    {Name: "independent_walking", Category: "motor", Severity: 0.1},
	"withdrawn":  {Name: "social_withdrawal", Category: "social", Severity: 0.6},
	"eye":        {Name: "eye_contact_noted", Category: "social", Severity: 0.3},
	"tantrum":    {Name: "emotional_dysregulation", Category: "social", Severity: 0.4},
	"feeding":    {Name: "feeding_difficulty", Category: "adaptive", Severity: 0.5},
	"sleep":      {Name: "sleep_disturbance", Category: "adaptive", Severity: 0.4},
	"seizure":    {Name: "seizure_history", Category: "medical", Severity: 1.0},
	"hearing":    {Name: "hearing_concern", Category: "medical", Severity: 0.7},
}

// LexiconExtractor is a deterministic keyword extractor. Coverage grows with
// the number of distinct matched terms, saturating at five.
type LexiconExtractor struct{}

func NewLexiconExtractor() *LexiconExtractor {
	return &LexiconExtractor{}
}

func (x *LexiconExtractor) Extract(ctx context.Context, noteText string) (*ExtractedFeatures, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Features are collected in note token order so identical notes always
	// produce identical output.
	var features []Feature
	seen := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(noteText)) {
		token = strings.Trim(token, ".,;:!?()\"'")
		feature, ok := lexicon[token]
		if !ok || seen[feature.Name] {
			continue
		}
		seen[feature.Name] = true
		features = append(features, feature)
	}

	coverage := float64(len(features)) / 5
	if coverage > 1 {
		coverage = 1
	}
	return &ExtractedFeatures{Features: features, Coverage: coverage}, nil
}
