package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caregate/internal/domain"
	"caregate/pkg/platform/sentinel"
)

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to domain.DecisionState }{
		{domain.StatePending, domain.StateScored},
		{domain.StateScored, domain.StateExplained},
		{domain.StateExplained, domain.StateAutoAcceptable},
		{domain.StateExplained, domain.StateNeedsReview},
		{domain.StateAutoAcceptable, domain.StateFinalized},
		{domain.StateNeedsReview, domain.StateReviewed},
		{domain.StateReviewed, domain.StateFinalized},
		{domain.StatePending, domain.StateFailed},
		{domain.StateNeedsReview, domain.StateFailed},
	}
	for _, tc := range legal {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	illegal := []struct{ from, to domain.DecisionState }{
		{domain.StatePending, domain.StateExplained},
		{domain.StateScored, domain.StateAutoAcceptable},
		{domain.StateExplained, domain.StateFinalized},
		{domain.StateNeedsReview, domain.StateFinalized},
		{domain.StateReviewed, domain.StateNeedsReview},
		{domain.StateFinalized, domain.StateFailed},
		{domain.StateFailed, domain.StatePending},
		{domain.StateFinalized, domain.StateReviewed},
	}
	for _, tc := range illegal {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestClassify(t *testing.T) {
	g := New(0.7, 70)

	record := func(rawScore, confidence float64) *domain.DecisionRecord {
		return &domain.DecisionRecord{
			State:      domain.StateExplained,
			Score:      &domain.ScoreResult{RawScore: rawScore},
			Confidence: confidence,
		}
	}

	t.Run("confident low risk is auto acceptable", func(t *testing.T) {
		assert.Equal(t, domain.StateAutoAcceptable, g.Classify(record(40, 0.9), false))
	})
	t.Run("low confidence needs review", func(t *testing.T) {
		assert.Equal(t, domain.StateNeedsReview, g.Classify(record(40, 0.69), false))
	})
	t.Run("high risk needs review regardless of confidence", func(t *testing.T) {
		assert.Equal(t, domain.StateNeedsReview, g.Classify(record(70.1, 0.99), false))
	})
	t.Run("threshold boundaries are inclusive for auto", func(t *testing.T) {
		assert.Equal(t, domain.StateAutoAcceptable, g.Classify(record(70, 0.7), false))
	})
	t.Run("forced review wins over confident low risk", func(t *testing.T) {
		assert.Equal(t, domain.StateNeedsReview, g.Classify(record(40, 0.9), true))
	})
}

func TestApply(t *testing.T) {
	rec := &domain.DecisionRecord{State: domain.StatePending}

	require.NoError(t, Apply(rec, domain.StateScored))
	assert.Equal(t, domain.StateScored, rec.State)

	err := Apply(rec, domain.StateFinalized)
	require.ErrorIs(t, err, sentinel.ErrInvalidState)
	assert.Equal(t, domain.StateScored, rec.State, "failed apply must not mutate")
}

func TestApplyVerdict(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("approval preserves the original score", func(t *testing.T) {
		rec := &domain.DecisionRecord{
			State: domain.StateNeedsReview,
			Score: &domain.ScoreResult{RawScore: 82},
		}
		err := ApplyVerdict(rec, domain.Verdict{ReviewerID: "rev-1", Approve: true, Note: "agree"}, at)
		require.NoError(t, err)

		assert.Equal(t, domain.StateReviewed, rec.State)
		require.NotNil(t, rec.Review)
		assert.True(t, rec.Review.Approved)
		assert.Equal(t, "rev-1", rec.Review.ReviewedBy)
		assert.Equal(t, at, rec.Review.ReviewedAt)
		assert.Equal(t, 82.0, rec.Score.RawScore)
	})

	t.Run("override records the new score alongside the original", func(t *testing.T) {
		rec := &domain.DecisionRecord{
			State: domain.StateNeedsReview,
			Score: &domain.ScoreResult{RawScore: 82},
		}
		override := 55.0
		err := ApplyVerdict(rec, domain.Verdict{ReviewerID: "rev-1", OverrideScore: &override}, at)
		require.NoError(t, err)

		require.NotNil(t, rec.Review.OverrideScore)
		assert.Equal(t, 55.0, *rec.Review.OverrideScore)
		assert.Equal(t, 82.0, rec.Score.RawScore)
		assert.Equal(t, 55.0, rec.EffectiveScore())

		// The outcome holds its own copy of the override value.
		override = 99
		assert.Equal(t, 55.0, *rec.Review.OverrideScore)
	})

	t.Run("verdict outside NEEDS_REVIEW is rejected", func(t *testing.T) {
		for _, state := range []domain.DecisionState{
			domain.StatePending, domain.StateAutoAcceptable, domain.StateReviewed, domain.StateFinalized,
		} {
			rec := &domain.DecisionRecord{State: state}
			err := ApplyVerdict(rec, domain.Verdict{ReviewerID: "rev-1", Approve: true}, at)
			assert.ErrorIs(t, err, sentinel.ErrInvalidState, "state %s", state)
		}
	})
}

func TestNewDefaults(t *testing.T) {
	g := New(0, 0)
	assert.Equal(t, 0.7, g.ReviewThreshold)
	assert.Equal(t, 70.0, g.HighRiskThreshold)
}
