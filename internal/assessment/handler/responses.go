package handler

import (
	"time"

	"caregate/internal/domain"
)

// FactorDTO is one itemized confidence contributor.
type FactorDTO struct {
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// DocumentDTO is one retrieved guideline reference.
type DocumentDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Relevance   float64   `json:"relevance"`
	LastUpdated time.Time `json:"last_updated"`
}

// RetrievalDTO is the retrieval portion of a decision.
type RetrievalDTO struct {
	Documents []DocumentDTO `json:"documents"`
	Degraded  bool          `json:"degraded"`
}

// ReviewDTO is the recorded human verdict.
type ReviewDTO struct {
	ReviewedBy    string    `json:"reviewed_by"`
	ReviewedAt    time.Time `json:"reviewed_at"`
	Approved      bool      `json:"approved"`
	OverrideScore *float64  `json:"override_score,omitempty"`
	Note          string    `json:"note,omitempty"`
}

// DecisionResponse is the wire shape of a decision record.
type DecisionResponse struct {
	ID               string             `json:"id"`
	State            string             `json:"state"`
	PatientRef       string             `json:"patient_ref"`
	Kind             string             `json:"kind"`
	RawScore         *float64           `json:"raw_score,omitempty"`
	CategoryScores   map[string]float64 `json:"category_scores,omitempty"`
	DataCompleteness *float64           `json:"data_completeness,omitempty"`
	Confidence       *float64           `json:"confidence,omitempty"`
	Factors          []FactorDTO        `json:"confidence_factors,omitempty"`
	Explanation      []string           `json:"explanation"`
	Disclaimers      []string           `json:"disclaimers"`
	Degraded         bool               `json:"degraded"`
	Retrieval        *RetrievalDTO      `json:"retrieval,omitempty"`
	Review           *ReviewDTO         `json:"review,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// NewDecisionResponse maps a record onto the wire shape. Score and
// confidence appear together or not at all.
func NewDecisionResponse(rec *domain.DecisionRecord) DecisionResponse {
	resp := DecisionResponse{
		ID:          rec.ID.String(),
		State:       string(rec.State),
		PatientRef:  rec.Request.PatientRef,
		Kind:        string(rec.Request.Kind),
		Explanation: rec.Explanation,
		Disclaimers: rec.Disclaimers,
		Degraded:    rec.Degraded,
		CreatedAt:   rec.CreatedAt,
	}

	if rec.Score != nil {
		raw := rec.Score.RawScore
		completeness := rec.Score.DataCompleteness
		confidence := rec.Confidence
		resp.RawScore = &raw
		resp.CategoryScores = rec.Score.CategoryScores
		resp.DataCompleteness = &completeness
		resp.Confidence = &confidence
		for _, f := range rec.Factors {
			resp.Factors = append(resp.Factors, FactorDTO(f))
		}
	}

	if rec.Retrieval != nil {
		retr := &RetrievalDTO{Degraded: rec.Retrieval.Degraded, Documents: []DocumentDTO{}}
		for _, d := range rec.Retrieval.Documents {
			retr.Documents = append(retr.Documents, DocumentDTO{
				ID:          d.Document.ID,
				Title:       d.Document.Title,
				Source:      d.Document.Source,
				Relevance:   d.Relevance,
				LastUpdated: d.Document.LastUpdated,
			})
		}
		resp.Retrieval = retr
	}

	if rec.Review != nil {
		review := &ReviewDTO{
			ReviewedBy: rec.Review.ReviewedBy,
			ReviewedAt: rec.Review.ReviewedAt,
			Approved:   rec.Review.Approved,
			Note:       rec.Review.Note,
		}
		if rec.Review.OverrideScore != nil {
			v := *rec.Review.OverrideScore
			review.OverrideScore = &v
		}
		resp.Review = review
	}

	return resp
}

// GuidelineSearchResponse is the GET /guidelines/search wire shape.
type GuidelineSearchResponse struct {
	Documents []GuidelineDTO `json:"documents"`
	Degraded  bool           `json:"degraded"`
}

// GuidelineDTO includes document content, unlike the decision view which
// only references it.
type GuidelineDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Source      string    `json:"source"`
	Relevance   float64   `json:"relevance"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewGuidelineSearchResponse maps a retrieval result onto the wire shape.
func NewGuidelineSearchResponse(result *domain.RetrievalResult) GuidelineSearchResponse {
	resp := GuidelineSearchResponse{Documents: []GuidelineDTO{}, Degraded: result.Degraded}
	for _, d := range result.Documents {
		resp.Documents = append(resp.Documents, GuidelineDTO{
			ID:          d.Document.ID,
			Title:       d.Document.Title,
			Content:     d.Document.Content,
			Source:      d.Document.Source,
			Relevance:   d.Relevance,
			LastUpdated: d.Document.LastUpdated,
		})
	}
	return resp
}
