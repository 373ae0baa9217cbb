package knowledge

import (
	"context"
	"time"

	"caregate/internal/domain"
)

type seedDoc struct {
	id      string
	title   string
	content string
	source  string
	updated string
	status  domain.ReviewStatus
}

// seedCorpus is the built-in guideline set for local runs. Content is
// paraphrased screening guidance, not a clinical reference.
var seedCorpus = []seedDoc{
	{
		id:      "gl-asq-followup",
		title:   "Screening follow-up intervals",
		content: "When a developmental screening score falls in the monitoring zone, repeat the screening within two months and document caregiver concerns. Referral is indicated when two consecutive screenings remain below the cutoff.",
		source:  "internal-guidelines",
		updated: "2025-03-12",
		status:  domain.ReviewApproved,
	},
	{
		id:      "gl-communication-domain",
		title:   "Communication domain interpretation",
		content: "Communication category scores should be interpreted together with hearing history. Low expressive language scores with normal receptive scores warrant a hearing check before any referral decision.",
		source:  "internal-guidelines",
		updated: "2025-01-28",
		status:  domain.ReviewApproved,
	},
	{
		id:      "gl-motor-redflags",
		title:   "Gross motor red flags by age band",
		content: "Persistent asymmetric movement, loss of previously acquired motor skills, or significant hypotonia are red flags at any age and require clinician review regardless of composite screening score.",
		source:  "internal-guidelines",
		updated: "2024-11-02",
		status:  domain.ReviewApproved,
	},
	{
		id:      "gl-social-emotional",
		title:   "Social-emotional screening context",
		content: "Social-emotional scores are sensitive to recent family disruption. Screeners should record contextual stressors; a single elevated score should prompt monitoring rather than immediate referral when stressors are present.",
		source:  "internal-guidelines",
		updated: "2025-05-19",
		status:  domain.ReviewApproved,
	},
	{
		id:      "gl-premature-adjustment",
		title:   "Adjusted age for preterm children",
		content: "For children born before 37 weeks, use adjusted age for screening interpretation until 24 months. Unadjusted scoring overstates risk in this population.",
		source:  "internal-guidelines",
		updated: "2024-08-07",
		status:  domain.ReviewApproved,
	},
	{
		id:      "gl-referral-pathway",
		title:   "Referral pathway after high-risk result",
		content: "High-risk composite results require clinician review before any referral is communicated to caregivers. The reviewing clinician documents agreement or override with reasons.",
		source:  "internal-guidelines",
		updated: "2025-06-30",
		status:  domain.ReviewApproved,
	},
	{
		id:      "gl-draft-sleep",
		title:   "Sleep pattern screening (draft)",
		content: "Draft guidance on incorporating sleep questionnaires into routine screening. Pending committee review.",
		source:  "internal-guidelines",
		updated: "2025-07-15",
		status:  domain.ReviewPending,
	},
}

// Seed builds the built-in corpus, embedding each document with the given
// embedder so query and document vectors share one space.
func Seed(ctx context.Context, embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}) ([]domain.KnowledgeDocument, error) {
	docs := make([]domain.KnowledgeDocument, 0, len(seedCorpus))
	for _, sd := range seedCorpus {
		embedding, err := embedder.Embed(ctx, sd.title+" "+sd.content)
		if err != nil {
			return nil, err
		}
		updated, err := time.Parse("2006-01-02", sd.updated)
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.KnowledgeDocument{
			ID:           sd.id,
			Title:        sd.title,
			Content:      sd.content,
			Embedding:    embedding,
			LastUpdated:  updated,
			Source:       sd.source,
			ReviewStatus: sd.status,
		})
	}
	return docs, nil
}
