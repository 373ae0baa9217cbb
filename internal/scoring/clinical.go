package scoring

import (
	"context"
	"fmt"
	"math"

	"caregate/internal/domain"
	dErrors "caregate/pkg/domain-errors"
)

// Feature is one structured observation extracted from free text. Severity is
// in [0,1].
type Feature struct {
	Name     string
	Category string
	Severity float64
}

// ExtractedFeatures is the output of the external text-analysis collaborator.
// Coverage estimates how much of the required clinical picture the note
// supports, in [0,1].
type ExtractedFeatures struct {
	Features []Feature
	Coverage float64
}

// FeatureExtractor maps clinical note text to structured features. Injected
// external model; this call dominates the 2-minute clinical-note budget.
type FeatureExtractor interface {
	Extract(ctx context.Context, noteText string) (*ExtractedFeatures, error)
}

// ScoreClinicalNote extracts features from the note and scores them like a
// screening response set: per-category mean severity scaled to [0,100],
// combined with the configured category weights.
func (e *Engine) ScoreClinicalNote(ctx context.Context, extractor FeatureExtractor, noteText string) (*domain.ScoreResult, error) {
	extracted, err := extractor.Extract(ctx, noteText)
	if err != nil {
		return nil, err
	}

	completeness := clamp(extracted.Coverage, 0, 1)
	if completeness < e.cfg.CompletenessFloor {
		return nil, dErrors.New(dErrors.CodeInsufficientData,
			fmt.Sprintf("note coverage %.2f below floor %.2f", completeness, e.cfg.CompletenessFloor))
	}

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[string]*bucket)
	for _, f := range extracted.Features {
		if math.IsNaN(f.Severity) {
			continue
		}
		b := buckets[f.Category]
		if b == nil {
			b = &bucket{}
			buckets[f.Category] = b
		}
		b.sum += clamp(f.Severity, 0, 1) * 100
		b.count++
	}

	categoryScores := make(map[string]float64, len(buckets))
	for category, b := range buckets {
		categoryScores[category] = clamp(b.sum/float64(b.count), 0, 100)
	}

	return &domain.ScoreResult{
		RawScore:         combine(categoryScores, e.cfg.CategoryWeights),
		CategoryScores:   categoryScores,
		DataCompleteness: completeness,
	}, nil
}
