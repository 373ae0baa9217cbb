package scoring

import (
	"math"

	"caregate/internal/domain"
)

// fallbackBands is the fixed lookup table for the rule-based fallback scorer.
// Bands are keyed by the mean of answered values; no model or external call
// is involved.
var fallbackBands = []struct {
	upTo  float64
	score float64
}{
	{upTo: 25, score: 20},
	{upTo: 50, score: 45},
	{upTo: 75, score: 70},
	{upTo: math.Inf(1), score: 90},
}

// Fallback is the rule-based minimal scorer used when the scoring engine
// fails fatally. Records scored this way are marked degraded and always land
// in human review regardless of confidence.
type Fallback struct{}

func NewFallback() *Fallback {
	return &Fallback{}
}

// Score bands the mean of answered values into a fixed composite. Unanswered
// and NaN values lower completeness exactly as in the primary scorer.
func (f *Fallback) Score(answers []Answer) *domain.ScoreResult {
	var sum float64
	answered := 0
	for _, a := range answers {
		if math.IsNaN(a.Value) {
			continue
		}
		sum += clamp(a.Value, 0, 100)
		answered++
	}

	completeness := 0.0
	if len(answers) > 0 {
		completeness = float64(answered) / float64(len(answers))
	}

	mean := 0.0
	if answered > 0 {
		mean = sum / float64(answered)
	}
	score := fallbackBands[len(fallbackBands)-1].score
	for _, band := range fallbackBands {
		if mean <= band.upTo {
			score = band.score
			break
		}
	}

	return &domain.ScoreResult{
		RawScore:         score,
		CategoryScores:   map[string]float64{"overall": score},
		DataCompleteness: clamp(completeness, 0, 1),
		Fallback:         true,
	}
}
