package knowledge

import (
	"context"
	"math"
	"sort"
	"sync"

	"caregate/internal/domain"
	"caregate/pkg/platform/sentinel"
)

// InMemoryStore is a brute-force cosine index over a fixed corpus. Suitable
// for the seeded guideline set; swap for a real vector database behind the
// same Store interface at scale.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[string]domain.KnowledgeDocument

	// failNext simulates connectivity failures in tests.
	failNext int
}

func NewInMemoryStore(docs []domain.KnowledgeDocument) *InMemoryStore {
	m := make(map[string]domain.KnowledgeDocument, len(docs))
	for _, d := range docs {
		m[d.ID] = d
	}
	return &InMemoryStore{docs: m}
}

// FailNext makes the next n calls return sentinel.ErrUnavailable. Test hook
// for degraded-mode behaviour.
func (s *InMemoryStore) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

func (s *InMemoryStore) takeFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return true
	}
	return false
}

func (s *InMemoryStore) SimilaritySearch(ctx context.Context, queryEmbedding []float32, k int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.takeFailure() {
		return nil, sentinel.ErrUnavailable
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, 0, len(s.docs))
	for id, doc := range s.docs {
		hits = append(hits, Hit{DocID: id, Distance: cosineDistance(queryEmbedding, doc.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].DocID < hits[j].DocID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *InMemoryStore) Fetch(ctx context.Context, docID string) (*domain.KnowledgeDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.takeFailure() {
		return nil, sentinel.ErrUnavailable
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &doc, nil
}

// cosineDistance returns 1 - cosine similarity. Mismatched or zero vectors
// are treated as maximally distant rather than erroring.
func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 2
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
