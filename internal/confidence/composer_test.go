package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caregate/internal/domain"
)

func retrievalWithRelevance(relevances ...float64) *domain.RetrievalResult {
	docs := make([]domain.RetrievedDocument, 0, len(relevances))
	for i, r := range relevances {
		docs = append(docs, domain.RetrievedDocument{
			Document:  domain.KnowledgeDocument{ID: string(rune('a' + i))},
			Relevance: r,
		})
	}
	return &domain.RetrievalResult{Documents: docs}
}

func TestCompose_ConfidenceLevel(t *testing.T) {
	composer := New(DefaultWeights())

	score := &domain.ScoreResult{
		RawScore:         40,
		CategoryScores:   map[string]float64{"communication": 40},
		DataCompleteness: 1,
	}

	comp := composer.Compose(score, retrievalWithRelevance(0.9, 0.8))

	// (1 + 0.85 + 1) / 3 with equal weights.
	assert.InDelta(t, 0.95, comp.Confidence, 1e-9)

	require.Len(t, comp.Factors, 3)
	assert.Equal(t, "data_completeness", comp.Factors[0].Name)
	assert.Equal(t, "guideline_relevance", comp.Factors[1].Name)
	assert.Equal(t, "category_agreement", comp.Factors[2].Name)
}

func TestCompose_Deterministic(t *testing.T) {
	composer := New(DefaultWeights())

	score := &domain.ScoreResult{
		RawScore: 62,
		CategoryScores: map[string]float64{
			"communication":   70,
			"gross_motor":     55,
			"problem_solving": 61,
		},
		DataCompleteness: 0.8,
	}
	retrieval := retrievalWithRelevance(0.92, 0.7, 0.66)

	first := composer.Compose(score, retrieval)
	second := composer.Compose(score, retrieval)

	assert.Equal(t, first, second)
}

func TestCompose_DisclaimersAlwaysPresent(t *testing.T) {
	composer := New(DefaultWeights())
	expected := []string{DisclaimerLimitations, DisclaimerAuthority}

	t.Run("complete input", func(t *testing.T) {
		comp := composer.Compose(&domain.ScoreResult{
			CategoryScores:   map[string]float64{"overall": 50},
			DataCompleteness: 1,
		}, retrievalWithRelevance(0.9))
		assert.Equal(t, expected, comp.Disclaimers)
	})

	t.Run("degraded retrieval and fallback score", func(t *testing.T) {
		comp := composer.Compose(&domain.ScoreResult{
			CategoryScores:   map[string]float64{"overall": 50},
			DataCompleteness: 0.5,
			Fallback:         true,
		}, &domain.RetrievalResult{Degraded: true})
		assert.Equal(t, expected, comp.Disclaimers)
	})
}

func TestCompose_DegradedRetrieval(t *testing.T) {
	composer := New(DefaultWeights())
	score := &domain.ScoreResult{
		CategoryScores:   map[string]float64{"overall": 50},
		DataCompleteness: 1,
	}

	t.Run("degraded result zeroes the relevance factor", func(t *testing.T) {
		comp := composer.Compose(score, &domain.RetrievalResult{Degraded: true})
		assert.Zero(t, comp.Factors[1].Contribution)
		assert.Contains(t, comp.Explanation[1], "unavailable")
	})

	t.Run("nil retrieval treated as degraded", func(t *testing.T) {
		comp := composer.Compose(score, nil)
		assert.Zero(t, comp.Factors[1].Contribution)
		assert.Contains(t, comp.Explanation[1], "unavailable")
	})

	t.Run("empty but healthy result uses the no-match wording", func(t *testing.T) {
		comp := composer.Compose(score, &domain.RetrievalResult{})
		assert.Zero(t, comp.Factors[1].Contribution)
		assert.Contains(t, comp.Explanation[1], "No sufficiently relevant guidelines")
	})
}

func TestCompose_UncertaintyStatements(t *testing.T) {
	composer := New(DefaultWeights())

	comp := composer.Compose(&domain.ScoreResult{
		CategoryScores:   map[string]float64{"overall": 45},
		DataCompleteness: 0.6,
		Fallback:         true,
	}, retrievalWithRelevance(0.8))

	joined := ""
	for _, s := range comp.Explanation {
		joined += s + "\n"
	}
	assert.Contains(t, joined, "fallback scorer")
	assert.Contains(t, joined, "Missing inputs increase uncertainty")
}

func TestCategoryAgreement(t *testing.T) {
	t.Run("identical scores agree fully", func(t *testing.T) {
		assert.Equal(t, 1.0, categoryAgreement(map[string]float64{"a": 60, "b": 60, "c": 60}))
	})
	t.Run("single category agrees fully", func(t *testing.T) {
		assert.Equal(t, 1.0, categoryAgreement(map[string]float64{"a": 10}))
	})
	t.Run("no categories give zero", func(t *testing.T) {
		assert.Zero(t, categoryAgreement(nil))
	})
	t.Run("maximal spread floors at zero", func(t *testing.T) {
		assert.Zero(t, categoryAgreement(map[string]float64{"a": 0, "b": 100}))
	})
}

func TestNew_InvalidWeightsFallBack(t *testing.T) {
	composer := New(Weights{})
	comp := composer.Compose(&domain.ScoreResult{
		CategoryScores:   map[string]float64{"overall": 50},
		DataCompleteness: 1,
	}, retrievalWithRelevance(1))
	assert.InDelta(t, 1.0, comp.Confidence, 1e-9)
}
