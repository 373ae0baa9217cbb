// Package knowledge adapts a vector similarity index for guideline retrieval.
// The store is read-only from this core's perspective; corpus updates are an
// out-of-band write path.
package knowledge

import (
	"context"

	"caregate/internal/domain"
)

// Hit is one nearest-neighbour result. Distance is cosine distance in [0,2];
// lower is closer.
type Hit struct {
	DocID    string
	Distance float64
}

// Store is the knowledge store adapter contract. Implementations never retry
// internally; connectivity failures surface as sentinel.ErrUnavailable and the
// retry policy belongs to the retrieval pipeline.
type Store interface {
	SimilaritySearch(ctx context.Context, queryEmbedding []float32, k int) ([]Hit, error)
	Fetch(ctx context.Context, docID string) (*domain.KnowledgeDocument, error)
}
