// Package retrieval ranks approved guideline documents for a query under a
// hard latency budget. Retrieval is advisory: the pipeline degrades to an
// empty result on store failure instead of failing the request.
package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"caregate/internal/domain"
	"caregate/internal/knowledge"
	"caregate/pkg/requestcontext"
)

var (
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "caregate_retrieval_duration_seconds",
		Help:    "Latency of guideline retrieval including retry",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})
	degradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caregate_retrieval_degraded_total",
		Help: "Retrievals that returned an empty degraded result",
	})
)

// Embedder converts text to a fixed-length vector. Injected external model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config tunes ranking and budgets.
type Config struct {
	// TopK is the nearest-neighbour fan-out, default 10.
	TopK int
	// MinRelevance drops weakly related documents, default 0.6.
	MinRelevance float64
	// Budget is the hard latency budget including the single retry,
	// default 1s.
	Budget time.Duration
	// RelevanceWeight/RecencyWeight combine into the final rank, defaults
	// 0.8/0.2.
	RelevanceWeight float64
	RecencyWeight   float64
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = 10
	}
	if c.MinRelevance <= 0 {
		c.MinRelevance = 0.6
	}
	if c.Budget <= 0 {
		c.Budget = time.Second
	}
	if c.RelevanceWeight <= 0 && c.RecencyWeight <= 0 {
		c.RelevanceWeight = 0.8
		c.RecencyWeight = 0.2
	}
	return c
}

// Pipeline is the retrieval-augmented guideline search.
type Pipeline struct {
	store    knowledge.Store
	embedder Embedder
	cfg      Config
	logger   *slog.Logger
}

func New(store knowledge.Store, embedder Embedder, cfg Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		embedder: embedder,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// Retrieve produces a relevance-ranked result for the query. minRelevance
// overrides the configured floor when positive. A store failure is retried
// once with a shortened deadline; a second failure yields an empty degraded
// result and a nil error.
func (p *Pipeline) Retrieve(ctx context.Context, query string, minRelevance float64) (*domain.RetrievalResult, error) {
	start := time.Now()
	defer func() { searchDuration.Observe(time.Since(start).Seconds()) }()

	if minRelevance <= 0 {
		minRelevance = p.cfg.MinRelevance
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Budget)
	defer cancel()

	embedding, err := p.embedder.Embed(ctx, query)
	if err != nil {
		p.logger.WarnContext(ctx, "query embedding failed, retrieval degraded", "error", err)
		degradedTotal.Inc()
		return &domain.RetrievalResult{Degraded: true}, nil
	}

	docs, err := p.search(ctx, embedding, minRelevance)
	if err != nil {
		// One retry with the remaining budget halved.
		retryCtx, retryCancel := shortenedDeadline(ctx)
		docs, err = p.search(retryCtx, embedding, minRelevance)
		retryCancel()
		if err != nil {
			p.logger.WarnContext(ctx, "knowledge store unavailable after retry", "error", err)
			degradedTotal.Inc()
			return &domain.RetrievalResult{Degraded: true}, nil
		}
	}

	p.rank(ctx, docs)
	return &domain.RetrievalResult{Documents: docs}, nil
}

// search runs one nearest-neighbour pass and filters unapproved or weakly
// relevant documents, deduplicating by document id.
func (p *Pipeline) search(ctx context.Context, embedding []float32, minRelevance float64) ([]domain.RetrievedDocument, error) {
	hits, err := p.store.SimilaritySearch(ctx, embedding, p.cfg.TopK)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(hits))
	docs := make([]domain.RetrievedDocument, 0, len(hits))
	for _, hit := range hits {
		if seen[hit.DocID] {
			continue
		}
		seen[hit.DocID] = true

		relevance := clamp01(1 - hit.Distance)
		if relevance < minRelevance {
			continue
		}
		doc, err := p.store.Fetch(ctx, hit.DocID)
		if err != nil {
			return nil, err
		}
		if doc.ReviewStatus != domain.ReviewApproved {
			continue
		}
		docs = append(docs, domain.RetrievedDocument{Document: *doc, Relevance: relevance})
	}
	return docs, nil
}

// rank orders survivors by the weighted combination of relevance and recency,
// ties broken by the more recently updated document.
func (p *Pipeline) rank(ctx context.Context, docs []domain.RetrievedDocument) {
	now := requestcontext.Now(ctx)
	combined := func(d domain.RetrievedDocument) float64 {
		return p.cfg.RelevanceWeight*d.Relevance + p.cfg.RecencyWeight*recencyScore(now, d.Document.LastUpdated)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		ci, cj := combined(docs[i]), combined(docs[j])
		if ci != cj {
			return ci > cj
		}
		return docs[i].Document.LastUpdated.After(docs[j].Document.LastUpdated)
	})
}

// recencyScore decays linearly from 1 (updated now) to 0 at two years old.
func recencyScore(now, updated time.Time) float64 {
	const horizon = 2 * 365 * 24 * time.Hour
	age := now.Sub(updated)
	if age <= 0 {
		return 1
	}
	if age >= horizon {
		return 0
	}
	return 1 - float64(age)/float64(horizon)
}

// shortenedDeadline halves the time remaining on ctx for the single retry.
func shortenedDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, remaining/2)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
