package domain

import (
	"time"

	"github.com/google/uuid"
)

// DecisionState tracks a decision record through the review-gating lifecycle.
type DecisionState string

const (
	StatePending        DecisionState = "PENDING"
	StateScored         DecisionState = "SCORED"
	StateExplained      DecisionState = "EXPLAINED"
	StateAutoAcceptable DecisionState = "AUTO_ACCEPTABLE"
	StateNeedsReview    DecisionState = "NEEDS_REVIEW"
	StateReviewed       DecisionState = "REVIEWED"
	StateFinalized      DecisionState = "FINALIZED"
	StateFailed         DecisionState = "FAILED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s DecisionState) Terminal() bool {
	return s == StateFinalized || s == StateFailed
}

// PayloadKind identifies the input shape of an assessment request.
type PayloadKind string

const (
	KindScreening    PayloadKind = "screening"
	KindClinicalNote PayloadKind = "clinical-note"
	KindCareProfile  PayloadKind = "care-profile"
)

// RequestContext identifies the requester and the subject of an assessment.
// Immutable once created; owned by the orchestrator for the request lifetime.
type RequestContext struct {
	RequestID  string
	Requester  string
	Role       string
	PatientRef string
	Kind       PayloadKind
	// Deadline is the caller-supplied deadline; zero means the payload-kind
	// SLA alone governs.
	Deadline time.Time
}

// ScoreResult is the scoring engine output. Produced once per request and
// never mutated afterwards; review overrides are recorded separately so the
// original always survives in the audit trail.
type ScoreResult struct {
	// RawScore is bounded to [0,100].
	RawScore float64
	// CategoryScores are each bounded to [0,100].
	CategoryScores map[string]float64
	// DataCompleteness is the fraction of required inputs answered, in [0,1].
	DataCompleteness float64
	// Fallback marks scores produced by the rule-based fallback scorer.
	Fallback bool
}

// ConfidenceFactor is one itemized contributor to overall confidence.
// Collection order equals computation order so explanations reproduce.
type ConfidenceFactor struct {
	Name         string
	Weight       float64
	Contribution float64
}

// ReviewOutcome captures a human verdict. OverrideScore, when set, records
// the reviewer's replacement value alongside (never instead of) the original
// ScoreResult.
type ReviewOutcome struct {
	ReviewedBy    string
	ReviewedAt    time.Time
	Approved      bool
	OverrideScore *float64
	Note          string
}

// Verdict is the payload of a human-review submission.
type Verdict struct {
	ReviewerID    string
	Approve       bool
	OverrideScore *float64
	Note          string
}

// DecisionRecord is the unit of assessment output and audit logging. Exactly
// one exists per completed request. It is created in StatePending, mutated
// only through gate-validated state transitions, and immutable once a
// terminal state is reached.
type DecisionRecord struct {
	ID        uuid.UUID
	Request   RequestContext
	Score     *ScoreResult
	Retrieval *RetrievalResult
	// Confidence is in [0,1]; present exactly when Score is present.
	Confidence float64
	Factors    []ConfidenceFactor
	// Explanation is never empty once State leaves StatePending.
	Explanation []string
	// Disclaimers is never empty on any record returned to a caller.
	Disclaimers []string
	State       DecisionState
	// Degraded marks records produced under a subsystem failure (fallback
	// scorer or unavailable retrieval).
	Degraded  bool
	CreatedAt time.Time
	Review    *ReviewOutcome
	// CacheKey is the normalized-input hash this record is cached under,
	// kept on the record so later state transitions can refresh the cached
	// snapshot. Empty when the request was not cacheable.
	CacheKey string
}

// EffectiveScore returns the reviewer override when present, else the raw
// score. The original ScoreResult is never modified.
func (r *DecisionRecord) EffectiveScore() float64 {
	if r.Review != nil && r.Review.OverrideScore != nil {
		return *r.Review.OverrideScore
	}
	if r.Score == nil {
		return 0
	}
	return r.Score.RawScore
}

// Clone returns a deep copy so stores can hand out records without sharing
// mutable state across requests.
func (r *DecisionRecord) Clone() *DecisionRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Score != nil {
		score := *r.Score
		score.CategoryScores = make(map[string]float64, len(r.Score.CategoryScores))
		for k, v := range r.Score.CategoryScores {
			score.CategoryScores[k] = v
		}
		out.Score = &score
	}
	if r.Retrieval != nil {
		retr := *r.Retrieval
		retr.Documents = append([]RetrievedDocument(nil), r.Retrieval.Documents...)
		out.Retrieval = &retr
	}
	out.Factors = append([]ConfidenceFactor(nil), r.Factors...)
	out.Explanation = append([]string(nil), r.Explanation...)
	out.Disclaimers = append([]string(nil), r.Disclaimers...)
	if r.Review != nil {
		review := *r.Review
		if r.Review.OverrideScore != nil {
			v := *r.Review.OverrideScore
			review.OverrideScore = &v
		}
		out.Review = &review
	}
	return &out
}
