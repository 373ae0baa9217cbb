package audit

import "time"

// Action names the decision lifecycle events this core emits. Every
// non-PENDING state transition produces exactly one event; ActionDegraded is
// the only action not tied to a transition (it annotates fallback scoring).
type Action string

const (
	ActionScored         Action = "decision_scored"
	ActionExplained      Action = "decision_explained"
	ActionAutoAcceptable Action = "decision_auto_acceptable"
	ActionNeedsReview    Action = "decision_needs_review"
	ActionReviewed       Action = "decision_reviewed"
	ActionFinalized      Action = "decision_finalized"
	ActionFailed         Action = "decision_failed"
	ActionDegraded       Action = "decision_degraded"
)

// Event is emitted from domain logic at every decision state transition.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp      time.Time
	DecisionID     string
	State          string
	Action         Action
	Actor          string
	Reason         string
	RequestID      string
	InputsSummary  string
	OutputsSummary string
}
