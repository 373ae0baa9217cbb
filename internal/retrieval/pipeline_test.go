package retrieval

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caregate/internal/domain"
	"caregate/internal/knowledge"
	"caregate/pkg/requestcontext"
)

// stubEmbedder returns a fixed vector so document relevance is fully
// controlled by document embeddings.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func doc(id string, embedding []float32, updated time.Time, status domain.ReviewStatus) domain.KnowledgeDocument {
	return domain.KnowledgeDocument{
		ID:           id,
		Title:        "doc " + id,
		Content:      "content " + id,
		Embedding:    embedding,
		LastUpdated:  updated,
		Source:       "test",
		ReviewStatus: status,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRetrieve_FiltersAndRanks(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	store := knowledge.NewInMemoryStore([]domain.KnowledgeDocument{
		// relevance 1.0, older
		doc("exact-old", []float32{1, 0, 0}, now.AddDate(-1, 0, 0), domain.ReviewApproved),
		// relevance 1.0, fresh
		doc("exact-new", []float32{1, 0, 0}, now.AddDate(0, -1, 0), domain.ReviewApproved),
		// relevance ~0.71, above floor
		doc("close", []float32{1, 1, 0}, now, domain.ReviewApproved),
		// orthogonal, relevance 0, filtered by floor
		doc("far", []float32{0, 1, 0}, now, domain.ReviewApproved),
		// perfect match but unapproved, must never surface
		doc("draft", []float32{1, 0, 0}, now, domain.ReviewPending),
	})

	pipeline := New(store, stubEmbedder{}, Config{}, testLogger())

	result, err := pipeline.Retrieve(ctx, "query", 0)
	require.NoError(t, err)
	require.False(t, result.Degraded)

	ids := make([]string, 0, len(result.Documents))
	for _, d := range result.Documents {
		ids = append(ids, d.Document.ID)
		assert.GreaterOrEqual(t, d.Relevance, 0.6)
		assert.Equal(t, domain.ReviewApproved, d.Document.ReviewStatus)
	}
	// Recency splits the two exact matches; the weaker match sorts last.
	assert.Equal(t, []string{"exact-new", "exact-old", "close"}, ids)
}

func TestRetrieve_MinRelevanceOverride(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	store := knowledge.NewInMemoryStore([]domain.KnowledgeDocument{
		doc("exact", []float32{1, 0, 0}, now, domain.ReviewApproved),
		doc("close", []float32{1, 1, 0}, now, domain.ReviewApproved),
	})
	pipeline := New(store, stubEmbedder{}, Config{}, testLogger())

	result, err := pipeline.Retrieve(ctx, "query", 0.9)
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "exact", result.Documents[0].Document.ID)
}

func TestRetrieve_DegradedAfterRetry(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	store := knowledge.NewInMemoryStore([]domain.KnowledgeDocument{
		doc("exact", []float32{1, 0, 0}, now, domain.ReviewApproved),
	})
	pipeline := New(store, stubEmbedder{}, Config{}, testLogger())

	t.Run("single failure recovers on retry", func(t *testing.T) {
		store.FailNext(1)
		result, err := pipeline.Retrieve(ctx, "query", 0)
		require.NoError(t, err)
		assert.False(t, result.Degraded)
		assert.Len(t, result.Documents, 1)
	})

	t.Run("second failure degrades instead of erroring", func(t *testing.T) {
		store.FailNext(2)
		start := time.Now()
		result, err := pipeline.Retrieve(ctx, "query", 0)
		require.NoError(t, err)
		assert.True(t, result.Degraded)
		assert.Empty(t, result.Documents)
		assert.Less(t, time.Since(start), time.Second, "degradation must not burn the budget")
	})
}
