// Package confidence fuses score and retrieval signals into a confidence
// level with an ordered, reproducible explanation.
//
// The composer never fails: partial inputs (degraded retrieval, fallback
// scores) produce best-effort output with explicit uncertainty language.
package confidence

import (
	"fmt"
	"sort"

	"caregate/internal/domain"
)

// Weights documents the confidence formula: a weighted average of data
// completeness, mean retrieval relevance, and cross-category agreement.
type Weights struct {
	Completeness float64
	Relevance    float64
	Agreement    float64
}

// DefaultWeights weighs the three factors equally.
func DefaultWeights() Weights {
	return Weights{Completeness: 1.0 / 3, Relevance: 1.0 / 3, Agreement: 1.0 / 3}
}

// Disclaimers appended to every composition, unconditionally.
const (
	DisclaimerLimitations = "This assessment is produced by a screening support tool and is not a medical diagnosis."
	DisclaimerAuthority   = "Final decisions rest with a qualified clinician; this output must not replace professional judgment."
)

// Composition is the composer output: a confidence level, its itemized
// factors in computation order, and matching explanation statements.
type Composition struct {
	Confidence  float64
	Factors     []domain.ConfidenceFactor
	Explanation []string
	Disclaimers []string
}

// Composer derives confidence and explanations.
type Composer struct {
	weights Weights
}

func New(weights Weights) *Composer {
	total := weights.Completeness + weights.Relevance + weights.Agreement
	if total <= 0 {
		weights = DefaultWeights()
	}
	return &Composer{weights: weights}
}

// Compose computes the confidence level and explanation for a scored request.
// Identical inputs always yield identical ordering, wording, and confidence;
// factor order is the computation order: completeness, relevance, agreement.
func (c *Composer) Compose(score *domain.ScoreResult, retrieval *domain.RetrievalResult) Composition {
	var comp Composition

	completeness := score.DataCompleteness
	comp.addFactor("data_completeness", c.weights.Completeness, completeness,
		fmt.Sprintf("Data completeness is %.0f%% of required inputs.", completeness*100))

	relevance := retrieval.MeanRelevance()
	switch {
	case retrieval == nil || retrieval.Degraded:
		comp.addFactor("guideline_relevance", c.weights.Relevance, 0,
			"Guideline retrieval was unavailable; no supporting documents inform this result.")
	case relevance == 0:
		comp.addFactor("guideline_relevance", c.weights.Relevance, 0,
			"No sufficiently relevant guidelines were found for this input.")
	default:
		comp.addFactor("guideline_relevance", c.weights.Relevance, relevance,
			fmt.Sprintf("Supporting guidelines matched with mean relevance %.2f across %d documents.", relevance, len(retrieval.Documents)))
	}

	agreement := categoryAgreement(score.CategoryScores)
	comp.addFactor("category_agreement", c.weights.Agreement, agreement,
		fmt.Sprintf("Category scores agree with consistency %.2f.", agreement))

	var weighted, total float64
	for _, f := range comp.Factors {
		weighted += f.Weight * f.Contribution
		total += f.Weight
	}
	if total > 0 {
		comp.Confidence = weighted / total
	}

	if score.Fallback {
		comp.Explanation = append(comp.Explanation,
			"The score was produced by the rule-based fallback scorer; treat this result with additional caution.")
	}
	if completeness < 1 {
		comp.Explanation = append(comp.Explanation,
			"Missing inputs increase uncertainty; answers to the remaining required questions would improve this assessment.")
	}

	comp.Disclaimers = []string{DisclaimerLimitations, DisclaimerAuthority}
	return comp
}

func (comp *Composition) addFactor(name string, weight, contribution float64, statement string) {
	comp.Factors = append(comp.Factors, domain.ConfidenceFactor{
		Name:         name,
		Weight:       weight,
		Contribution: contribution,
	})
	comp.Explanation = append(comp.Explanation, statement)
}

// categoryAgreement maps the population variance of category scores onto
// [0,1]: identical scores give 1, a spread at half the score range gives 0.
func categoryAgreement(categoryScores map[string]float64) float64 {
	if len(categoryScores) == 0 {
		return 0
	}
	if len(categoryScores) == 1 {
		return 1
	}

	values := make([]float64, 0, len(categoryScores))
	for _, v := range categoryScores {
		values = append(values, v)
	}
	sort.Float64s(values)

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	// 2500 = (half the 0-100 range) squared.
	agreement := 1 - variance/2500
	if agreement < 0 {
		return 0
	}
	return agreement
}
