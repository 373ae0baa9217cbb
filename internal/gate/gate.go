// Package gate enforces the human-in-the-loop review state machine.
//
//	PENDING → SCORED → EXPLAINED → {AUTO_ACCEPTABLE, NEEDS_REVIEW}
//	AUTO_ACCEPTABLE → FINALIZED
//	NEEDS_REVIEW → REVIEWED → FINALIZED
//	any non-terminal → FAILED
package gate

import (
	"fmt"
	"time"

	"caregate/internal/domain"
	"caregate/pkg/platform/sentinel"
)

var transitions = map[domain.DecisionState][]domain.DecisionState{
	domain.StatePending:        {domain.StateScored, domain.StateFailed},
	domain.StateScored:         {domain.StateExplained, domain.StateFailed},
	domain.StateExplained:      {domain.StateAutoAcceptable, domain.StateNeedsReview, domain.StateFailed},
	domain.StateAutoAcceptable: {domain.StateFinalized, domain.StateFailed},
	domain.StateNeedsReview:    {domain.StateReviewed, domain.StateFailed},
	domain.StateReviewed:       {domain.StateFinalized, domain.StateFailed},
}

// CanTransition reports whether from → to is a legal transition.
func CanTransition(from, to domain.DecisionState) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Gate decides whether a scored, explained record may proceed without
// blocking on human review.
type Gate struct {
	// ReviewThreshold is the confidence floor below which review is
	// mandatory, default 0.7.
	ReviewThreshold float64
	// HighRiskThreshold is the raw score above which review is mandatory
	// even at high confidence, default 70.
	HighRiskThreshold float64
}

func New(reviewThreshold, highRiskThreshold float64) *Gate {
	if reviewThreshold <= 0 {
		reviewThreshold = 0.7
	}
	if highRiskThreshold <= 0 {
		highRiskThreshold = 70
	}
	return &Gate{ReviewThreshold: reviewThreshold, HighRiskThreshold: highRiskThreshold}
}

// Classify returns NEEDS_REVIEW or AUTO_ACCEPTABLE for an EXPLAINED record.
// forceReview pins the outcome to NEEDS_REVIEW (fallback-scored records).
// AUTO_ACCEPTABLE is never hidden from review, only non-blocking.
func (g *Gate) Classify(rec *domain.DecisionRecord, forceReview bool) domain.DecisionState {
	if forceReview {
		return domain.StateNeedsReview
	}
	if rec.Score != nil && rec.Score.RawScore > g.HighRiskThreshold {
		return domain.StateNeedsReview
	}
	if rec.Confidence < g.ReviewThreshold {
		return domain.StateNeedsReview
	}
	return domain.StateAutoAcceptable
}

// Apply moves the record to the target state after validating the
// transition. Terminal records and illegal edges yield
// sentinel.ErrInvalidState.
func Apply(rec *domain.DecisionRecord, to domain.DecisionState) error {
	if !CanTransition(rec.State, to) {
		return fmt.Errorf("transition %s -> %s: %w", rec.State, to, sentinel.ErrInvalidState)
	}
	rec.State = to
	return nil
}

// ApplyVerdict records a human verdict on a NEEDS_REVIEW record and moves it
// to REVIEWED. The original ScoreResult is preserved; an override is recorded
// alongside it.
func ApplyVerdict(rec *domain.DecisionRecord, verdict domain.Verdict, at time.Time) error {
	if rec.State != domain.StateNeedsReview {
		return fmt.Errorf("verdict on %s record: %w", rec.State, sentinel.ErrInvalidState)
	}
	outcome := &domain.ReviewOutcome{
		ReviewedBy: verdict.ReviewerID,
		ReviewedAt: at,
		Approved:   verdict.Approve,
		Note:       verdict.Note,
	}
	if verdict.OverrideScore != nil {
		v := *verdict.OverrideScore
		outcome.OverrideScore = &v
	}
	rec.Review = outcome
	return Apply(rec, domain.StateReviewed)
}
