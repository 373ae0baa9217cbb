package domain

import "time"

// ReviewStatus gates whether a knowledge document may be retrieved.
type ReviewStatus string

const (
	ReviewApproved ReviewStatus = "approved"
	ReviewPending  ReviewStatus = "pending"
	ReviewRejected ReviewStatus = "rejected"
)

// KnowledgeDocument is a guideline document in the knowledge store. The store
// owns these; the retrieval pipeline holds read-only references. Only
// approved documents are retrievable.
type KnowledgeDocument struct {
	ID           string
	Title        string
	Content      string
	Embedding    []float32
	LastUpdated  time.Time
	Source       string
	ReviewStatus ReviewStatus
}

// RetrievedDocument pairs a document with its relevance to one query.
type RetrievedDocument struct {
	Document  KnowledgeDocument
	Relevance float64
}

// RetrievalResult is a relevance-descending, id-deduplicated document list
// scoped to one request. Degraded marks results returned after the knowledge
// store failed; such results are always empty.
type RetrievalResult struct {
	Documents []RetrievedDocument
	Degraded  bool
}

// MeanRelevance averages relevance over retrieved documents, 0 when empty or
// degraded.
func (r *RetrievalResult) MeanRelevance() float64 {
	if r == nil || r.Degraded || len(r.Documents) == 0 {
		return 0
	}
	var sum float64
	for _, d := range r.Documents {
		sum += d.Relevance
	}
	return sum / float64(len(r.Documents))
}
