package handler

import (
	"math"
	"time"

	"caregate/internal/domain"
	"caregate/internal/scoring"
	dErrors "caregate/pkg/domain-errors"
)

// AnswerDTO is one screening response. A null value marks a question that
// was presented but not usably answered.
type AnswerDTO struct {
	QuestionID string   `json:"question_id"`
	Value      *float64 `json:"value"`
}

// ScreeningRequest is the POST /assessments/screening payload.
type ScreeningRequest struct {
	Requester  string      `json:"requester"`
	Role       string      `json:"role"`
	PatientRef string      `json:"patient_ref"`
	DeadlineMS int64       `json:"deadline_ms,omitempty"`
	Answers    []AnswerDTO `json:"answers"`
}

func (r ScreeningRequest) Validate() error {
	if r.PatientRef == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "patient_ref is required")
	}
	if len(r.Answers) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "answers must not be empty")
	}
	for _, a := range r.Answers {
		if a.QuestionID == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "answer question_id is required")
		}
	}
	return nil
}

// ToDomain builds the request context and typed answers. Unanswered values
// become NaN, which the scoring engine counts as missing.
func (r ScreeningRequest) ToDomain(requestID string, now time.Time) (domain.RequestContext, []scoring.Answer) {
	answers := make([]scoring.Answer, 0, len(r.Answers))
	for _, a := range r.Answers {
		value := math.NaN()
		if a.Value != nil {
			value = *a.Value
		}
		answers = append(answers, scoring.Answer{QuestionID: a.QuestionID, Value: value})
	}
	return r.requestContext(requestID, now, domain.KindScreening), answers
}

func (r ScreeningRequest) requestContext(requestID string, now time.Time, kind domain.PayloadKind) domain.RequestContext {
	reqCtx := domain.RequestContext{
		RequestID:  requestID,
		Requester:  r.Requester,
		Role:       r.Role,
		PatientRef: r.PatientRef,
		Kind:       kind,
	}
	if r.DeadlineMS > 0 {
		reqCtx.Deadline = now.Add(time.Duration(r.DeadlineMS) * time.Millisecond)
	}
	return reqCtx
}

// ClinicalNoteRequest is the POST /assessments/clinical-note payload.
type ClinicalNoteRequest struct {
	Requester  string `json:"requester"`
	Role       string `json:"role"`
	PatientRef string `json:"patient_ref"`
	DeadlineMS int64  `json:"deadline_ms,omitempty"`
	Note       string `json:"note"`
}

func (r ClinicalNoteRequest) Validate() error {
	if r.PatientRef == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "patient_ref is required")
	}
	if r.Note == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "note must not be empty")
	}
	return nil
}

func (r ClinicalNoteRequest) ToDomain(requestID string, now time.Time) domain.RequestContext {
	reqCtx := domain.RequestContext{
		RequestID:  requestID,
		Requester:  r.Requester,
		Role:       r.Role,
		PatientRef: r.PatientRef,
		Kind:       domain.KindClinicalNote,
	}
	if r.DeadlineMS > 0 {
		reqCtx.Deadline = now.Add(time.Duration(r.DeadlineMS) * time.Millisecond)
	}
	return reqCtx
}

// ReviewRequest is the POST /assessments/{id}/review payload.
type ReviewRequest struct {
	ReviewerID    string   `json:"reviewer_id"`
	Verdict       string   `json:"verdict"` // "approve" | "override"
	OverrideScore *float64 `json:"override_score,omitempty"`
	Note          string   `json:"note,omitempty"`
}

func (r ReviewRequest) Validate() error {
	if r.ReviewerID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "reviewer_id is required")
	}
	switch r.Verdict {
	case "approve":
		return nil
	case "override":
		if r.OverrideScore == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "override verdict requires override_score")
		}
		if *r.OverrideScore < 0 || *r.OverrideScore > 100 {
			return dErrors.New(dErrors.CodeInvalidInput, "override_score must be within [0,100]")
		}
		return nil
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "verdict must be approve or override")
	}
}

func (r ReviewRequest) ToDomain() domain.Verdict {
	verdict := domain.Verdict{
		ReviewerID: r.ReviewerID,
		Approve:    r.Verdict == "approve",
		Note:       r.Note,
	}
	if r.OverrideScore != nil {
		v := *r.OverrideScore
		verdict.OverrideScore = &v
	}
	return verdict
}
