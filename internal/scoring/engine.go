// Package scoring computes risk scores from screening responses or extracted
// clinical features. Scoring is pure arithmetic over injected inputs; the
// only I/O is the external feature-extraction call for clinical notes.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"

	"caregate/internal/domain"
	dErrors "caregate/pkg/domain-errors"
)

// Answer is one screening response value. Value may be NaN when the question
// was presented but not usably answered.
type Answer struct {
	QuestionID string
	Value      float64
}

// Question describes one item of the screening instrument.
type Question struct {
	ID       string
	Category string
	Required bool
}

// Config documents the scoring weights. Category weights combine bounded
// per-category scores into the composite; they need not sum to 1.
type Config struct {
	Questions       []Question
	CategoryWeights map[string]float64
	// CompletenessFloor is the minimum data completeness below which
	// scoring refuses to produce a result, default 0.5.
	CompletenessFloor float64
}

func (c Config) withDefaults() Config {
	if c.CompletenessFloor <= 0 {
		c.CompletenessFloor = 0.5
	}
	return c
}

// Engine scores typed inputs deterministically.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// ScoreScreening computes the weighted composite over categorized responses.
// Per-category scores are the mean of answered values, clamped to [0,100].
// NaN values count as missing and lower completeness; they never abort the
// computation. Completeness below the floor yields CodeInsufficientData.
func (e *Engine) ScoreScreening(ctx context.Context, answers []Answer) (*domain.ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byQuestion := make(map[string]float64, len(answers))
	for _, a := range answers {
		if math.IsNaN(a.Value) {
			continue
		}
		byQuestion[a.QuestionID] = a.Value
	}

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[string]*bucket)
	requiredTotal, requiredAnswered := 0, 0
	for _, q := range e.cfg.Questions {
		if q.Required {
			requiredTotal++
		}
		value, answered := byQuestion[q.ID]
		if !answered {
			continue
		}
		if q.Required {
			requiredAnswered++
		}
		b := buckets[q.Category]
		if b == nil {
			b = &bucket{}
			buckets[q.Category] = b
		}
		b.sum += value
		b.count++
	}

	completeness := 1.0
	if requiredTotal > 0 {
		completeness = float64(requiredAnswered) / float64(requiredTotal)
	}
	if completeness < e.cfg.CompletenessFloor {
		return nil, dErrors.New(dErrors.CodeInsufficientData,
			fmt.Sprintf("data completeness %.2f below floor %.2f", completeness, e.cfg.CompletenessFloor))
	}

	categoryScores := make(map[string]float64, len(buckets))
	for category, b := range buckets {
		categoryScores[category] = clamp(b.sum/float64(b.count), 0, 100)
	}

	return &domain.ScoreResult{
		RawScore:         combine(categoryScores, e.cfg.CategoryWeights),
		CategoryScores:   categoryScores,
		DataCompleteness: clamp(completeness, 0, 1),
	}, nil
}

// combine folds bounded category scores into the composite using the
// documented weights. Unweighted categories default to weight 1.
func combine(categoryScores, weights map[string]float64) float64 {
	if len(categoryScores) == 0 {
		return 0
	}
	// Map iteration order must not influence float accumulation.
	categories := make([]string, 0, len(categoryScores))
	for c := range categoryScores {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var weighted, total float64
	for _, c := range categories {
		w := 1.0
		if cw, ok := weights[c]; ok && cw > 0 {
			w = cw
		}
		weighted += w * categoryScores[c]
		total += w
	}
	if total == 0 {
		return 0
	}
	return clamp(weighted/total, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
