// Package assessment orchestrates the decision pipeline: scoring and
// retrieval fan out per request, their join feeds the confidence composer,
// and the gate decides whether human review blocks finalization.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"caregate/internal/assessment/metrics"
	"caregate/internal/assessment/ports"
	"caregate/internal/confidence"
	"caregate/internal/domain"
	"caregate/internal/gate"
	"caregate/internal/retrieval"
	"caregate/internal/scoring"
	dErrors "caregate/pkg/domain-errors"
	audit "caregate/pkg/platform/audit"
	"caregate/pkg/platform/sentinel"
	"caregate/pkg/requestcontext"
)

// Config carries the outer SLAs and cache policy.
type Config struct {
	// ScreeningSLA bounds risk scoring end to end, default 30s.
	ScreeningSLA time.Duration
	// ClinicalNoteSLA bounds note analysis end to end, default 2min.
	ClinicalNoteSLA time.Duration
	CacheTTL        time.Duration
}

func (c Config) withDefaults() Config {
	if c.ScreeningSLA <= 0 {
		c.ScreeningSLA = 30 * time.Second
	}
	if c.ClinicalNoteSLA <= 0 {
		c.ClinicalNoteSLA = 2 * time.Minute
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	return c
}

// Service is the per-request orchestrator. Stateless across requests; the
// only shared resources are the read-only knowledge store, the decision
// store, and the optional result cache.
type Service struct {
	engine    *scoring.Engine
	fallback  *scoring.Fallback
	extractor scoring.FeatureExtractor
	retriever *retrieval.Pipeline
	composer  *confidence.Composer
	gate      *gate.Gate
	store     ports.Store
	cache     ports.Cache
	audit     ports.AuditPort
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	cfg       Config
}

// New wires the orchestrator. cache may be nil (caching disabled); all other
// dependencies are required.
func New(
	engine *scoring.Engine,
	fallback *scoring.Fallback,
	extractor scoring.FeatureExtractor,
	retriever *retrieval.Pipeline,
	composer *confidence.Composer,
	g *gate.Gate,
	store ports.Store,
	cache ports.Cache,
	auditPort ports.AuditPort,
	logger *slog.Logger,
	m *metrics.Metrics,
	cfg Config,
) (*Service, error) {
	switch {
	case engine == nil:
		return nil, errors.New("scoring engine is required")
	case fallback == nil:
		return nil, errors.New("fallback scorer is required")
	case extractor == nil:
		return nil, errors.New("feature extractor is required")
	case retriever == nil:
		return nil, errors.New("retrieval pipeline is required")
	case composer == nil:
		return nil, errors.New("confidence composer is required")
	case g == nil:
		return nil, errors.New("decision gate is required")
	case store == nil:
		return nil, errors.New("decision store is required")
	case auditPort == nil:
		return nil, errors.New("audit port is required")
	case logger == nil:
		return nil, errors.New("logger is required")
	}
	return &Service{
		engine:    engine,
		fallback:  fallback,
		extractor: extractor,
		retriever: retriever,
		composer:  composer,
		gate:      g,
		store:     store,
		cache:     cache,
		audit:     auditPort,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("caregate/assessment"),
		cfg:       cfg.withDefaults(),
	}, nil
}

// ComputeRiskAssessment scores screening responses and gates the result.
func (s *Service) ComputeRiskAssessment(ctx context.Context, reqCtx domain.RequestContext, answers []scoring.Answer) (*domain.DecisionRecord, error) {
	reqCtx.Kind = domain.KindScreening
	key := screeningCacheKey(reqCtx, answers)
	query := screeningQuery(answers)

	return s.run(ctx, reqCtx, s.cfg.ScreeningSLA, key, query, answers,
		fmt.Sprintf("screening:%d answers", len(answers)),
		func(ctx context.Context) (*domain.ScoreResult, error) {
			return s.engine.ScoreScreening(ctx, answers)
		})
}

// AnalyzeClinicalInput extracts features from a clinical note, scores them,
// and gates the result. The extraction call dominates the 2-minute budget.
func (s *Service) AnalyzeClinicalInput(ctx context.Context, reqCtx domain.RequestContext, noteText string) (*domain.DecisionRecord, error) {
	reqCtx.Kind = domain.KindClinicalNote
	key := noteCacheKey(reqCtx, noteText)

	return s.run(ctx, reqCtx, s.cfg.ClinicalNoteSLA, key, noteText, nil,
		fmt.Sprintf("clinical-note:%d chars", len(noteText)),
		func(ctx context.Context) (*domain.ScoreResult, error) {
			return s.engine.ScoreClinicalNote(ctx, s.extractor, noteText)
		})
}

// RetrieveGuidelines exposes the retrieval pipeline directly. minRelevance
// overrides the configured floor when positive.
func (s *Service) RetrieveGuidelines(ctx context.Context, query string, minRelevance float64) (*domain.RetrievalResult, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.retrieve")
	defer span.End()
	return s.retriever.Retrieve(ctx, query, minRelevance)
}

// GetDecision loads a decision record by id.
func (s *Service) GetDecision(ctx context.Context, id uuid.UUID) (*domain.DecisionRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "decision")
	}
	return rec, nil
}

// SubmitReviewVerdict drives NEEDS_REVIEW → REVIEWED. The store's
// compare-and-swap makes a single winner of simultaneous submissions; the
// original ScoreResult is preserved next to any override.
func (s *Service) SubmitReviewVerdict(ctx context.Context, decisionID uuid.UUID, verdict domain.Verdict) (*domain.DecisionRecord, error) {
	rec, err := s.store.Get(ctx, decisionID)
	if err != nil {
		return nil, translateStoreErr(err, "decision")
	}

	if err := gate.ApplyVerdict(rec, verdict, requestcontext.Now(ctx)); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInvalidState,
			fmt.Sprintf("decision is in state %s, not %s", rec.State, domain.StateNeedsReview), err)
	}
	if err := s.store.Update(ctx, rec, domain.StateNeedsReview); err != nil {
		return nil, translateStoreErr(err, "review transition")
	}

	reason := "approved"
	if !verdict.Approve {
		reason = "overridden"
	}
	// The reviewed event is attributed to the reviewer, not the requester.
	s.emit(requestcontext.WithActor(ctx, verdict.ReviewerID), rec, audit.ActionReviewed, reason)

	// Refresh the cached snapshot so identical re-submissions see the
	// reviewed record, not the pre-review one.
	s.cacheStore(ctx, rec.CacheKey, rec)

	s.logger.InfoContext(ctx, "review verdict applied",
		"decision_id", rec.ID,
		"reviewer", verdict.ReviewerID,
		"approved", verdict.Approve,
	)
	return rec, nil
}

// FinalizeDecision drives AUTO_ACCEPTABLE or REVIEWED → FINALIZED, making
// the record immutable.
func (s *Service) FinalizeDecision(ctx context.Context, decisionID uuid.UUID) (*domain.DecisionRecord, error) {
	rec, err := s.store.Get(ctx, decisionID)
	if err != nil {
		return nil, translateStoreErr(err, "decision")
	}

	prev := rec.State
	if err := gate.Apply(rec, domain.StateFinalized); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInvalidState,
			fmt.Sprintf("cannot finalize from state %s", prev), err)
	}
	if err := s.store.Update(ctx, rec, prev); err != nil {
		return nil, translateStoreErr(err, "finalize transition")
	}

	s.emit(ctx, rec, audit.ActionFinalized, "")
	s.cacheStore(ctx, rec.CacheKey, rec)
	return rec, nil
}

// run executes the scoring/retrieval fan-out under the governing deadline
// and walks the record through the gate.
func (s *Service) run(
	ctx context.Context,
	reqCtx domain.RequestContext,
	sla time.Duration,
	cacheKey, query string,
	fallbackAnswers []scoring.Answer,
	inputsSummary string,
	scoreFn func(context.Context) (*domain.ScoreResult, error),
) (*domain.DecisionRecord, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.run",
		trace.WithAttributes(attribute.String("payload_kind", string(reqCtx.Kind))))
	defer span.End()

	if cached := s.cacheLookup(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	// The governing deadline is the smaller of the payload-kind SLA and the
	// caller-supplied deadline.
	deadline := requestcontext.Now(ctx).Add(sla)
	if !reqCtx.Deadline.IsZero() && reqCtx.Deadline.Before(deadline) {
		deadline = reqCtx.Deadline
	}
	runCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	rec := &domain.DecisionRecord{
		ID:        uuid.New(),
		Request:   reqCtx,
		State:     domain.StatePending,
		CreatedAt: requestcontext.Now(ctx),
		CacheKey:  cacheKey,
	}
	if err := s.store.Create(runCtx, rec); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create decision record", err)
	}

	scoreRes, retrRes, fatalScoreErr, err := s.fanOut(runCtx, query, scoreFn)
	if err != nil {
		return nil, s.abort(ctx, rec, reqCtx, err, inputsSummary)
	}

	forceReview := false
	if fatalScoreErr != nil {
		// Fatal-computation path: rule-based fallback plus mandatory review.
		s.logger.ErrorContext(ctx, "scoring engine failed, using rule-based fallback",
			"decision_id", rec.ID,
			"error", fatalScoreErr,
		)
		scoreRes = s.fallback.Score(fallbackAnswers)
		forceReview = true
		if s.metrics != nil {
			s.metrics.Degraded.Inc()
		}
		s.emit(ctx, rec, audit.ActionDegraded, "scoring fallback engaged")
	}

	rec.Score = scoreRes
	rec.Retrieval = retrRes
	rec.Degraded = scoreRes.Fallback || (retrRes != nil && retrRes.Degraded)

	outputsSummary := fmt.Sprintf("score=%.2f", scoreRes.RawScore)
	if err := s.transition(ctx, rec, domain.StateScored, audit.ActionScored, inputsSummary, outputsSummary); err != nil {
		return nil, err
	}

	comp := s.composer.Compose(scoreRes, retrRes)
	rec.Confidence = comp.Confidence
	rec.Factors = comp.Factors
	rec.Explanation = comp.Explanation
	rec.Disclaimers = comp.Disclaimers

	outputsSummary = fmt.Sprintf("score=%.2f confidence=%.2f", scoreRes.RawScore, comp.Confidence)
	if err := s.transition(ctx, rec, domain.StateExplained, audit.ActionExplained, inputsSummary, outputsSummary); err != nil {
		return nil, err
	}

	target := s.gate.Classify(rec, forceReview)
	action := audit.ActionAutoAcceptable
	if target == domain.StateNeedsReview {
		action = audit.ActionNeedsReview
	}
	if err := s.transition(ctx, rec, target, action, inputsSummary, outputsSummary); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Completed.WithLabelValues(string(reqCtx.Kind), string(rec.State)).Inc()
	}
	s.cacheStore(ctx, cacheKey, rec)

	s.logger.InfoContext(ctx, "assessment completed",
		"request_id", reqCtx.RequestID,
		"decision_id", rec.ID,
		"kind", reqCtx.Kind,
		"state", rec.State,
		"score", scoreRes.RawScore,
		"confidence", comp.Confidence,
		"degraded", rec.Degraded,
	)
	return rec, nil
}

// fanOut runs scoring and retrieval concurrently and joins them. This join
// is the pipeline's only synchronization point. A fatal scoring error is
// returned separately so retrieval still completes for the fallback path;
// recoverable and deadline errors abort both branches.
func (s *Service) fanOut(ctx context.Context, query string, scoreFn func(context.Context) (*domain.ScoreResult, error)) (
	*domain.ScoreResult, *domain.RetrievalResult, error, error,
) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		scoreRes     *domain.ScoreResult
		fatalErr     error
		retrievalRes *domain.RetrievalResult
	)

	g.Go(func() error {
		start := time.Now()
		defer func() {
			if s.metrics != nil {
				s.metrics.ObserveStage("score", time.Since(start))
			}
		}()
		res, err := scoreFn(gctx)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInsufficientData) ||
				errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, context.Canceled) {
				return err
			}
			fatalErr = err
			return nil
		}
		scoreRes = res
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		defer func() {
			if s.metrics != nil {
				s.metrics.ObserveStage("retrieve", time.Since(start))
			}
		}()
		// Retrieval degrades instead of failing; the error is always nil.
		res, _ := s.retriever.Retrieve(gctx, query, 0)
		retrievalRes = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return scoreRes, retrievalRes, fatalErr, nil
}

// abort fails the record, emits the mandatory FAILED audit event, and maps
// the cause onto a caller-facing error. No partial record is ever returned.
func (s *Service) abort(ctx context.Context, rec *domain.DecisionRecord, reqCtx domain.RequestContext, cause error, inputsSummary string) error {
	// Deadline expiry must not suppress the FAILED bookkeeping.
	ctx = context.WithoutCancel(ctx)

	prev := rec.State
	if gateErr := gate.Apply(rec, domain.StateFailed); gateErr == nil {
		if err := s.store.Update(ctx, rec, prev); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist FAILED state",
				"decision_id", rec.ID,
				"error", err,
			)
		}
	}

	reason := "insufficient data"
	code := dErrors.CodeInsufficientData
	if errors.Is(cause, context.DeadlineExceeded) {
		reason = "deadline exceeded"
		code = dErrors.CodeTimeout
	}
	s.emit(ctx, rec, audit.ActionFailed, reason)
	if s.metrics != nil {
		s.metrics.Failed.WithLabelValues(string(reqCtx.Kind), string(code)).Inc()
	}

	s.logger.WarnContext(ctx, "assessment aborted",
		"request_id", reqCtx.RequestID,
		"decision_id", rec.ID,
		"reason", reason,
	)

	if code == dErrors.CodeTimeout {
		return dErrors.Wrap(dErrors.CodeTimeout, "assessment exceeded its deadline", cause)
	}
	if dErrors.CodeOf(cause) == dErrors.CodeInsufficientData {
		return cause
	}
	return dErrors.Wrap(code, "assessment aborted", cause)
}

// transition applies a gate-validated state change, persists it with
// compare-and-swap, and emits exactly one audit event.
func (s *Service) transition(ctx context.Context, rec *domain.DecisionRecord, to domain.DecisionState, action audit.Action, inputsSummary, outputsSummary string) error {
	ctx = context.WithoutCancel(ctx)

	prev := rec.State
	if err := gate.Apply(rec, to); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "illegal state transition", err)
	}
	if err := s.store.Update(ctx, rec, prev); err != nil {
		return translateStoreErr(err, "state transition")
	}

	event := audit.Event{
		DecisionID:     rec.ID.String(),
		State:          string(rec.State),
		Action:         action,
		Actor:          actorFor(ctx, rec),
		RequestID:      rec.Request.RequestID,
		InputsSummary:  inputsSummary,
		OutputsSummary: outputsSummary,
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		// Fire-and-forget sink: log and continue, emission was attempted.
		s.logger.ErrorContext(ctx, "audit emission failed",
			"decision_id", rec.ID,
			"action", action,
			"error", err,
		)
	}
	return nil
}

// emit sends a non-transition audit event (degraded mode, review, failure).
func (s *Service) emit(ctx context.Context, rec *domain.DecisionRecord, action audit.Action, reason string) {
	event := audit.Event{
		DecisionID: rec.ID.String(),
		State:      string(rec.State),
		Action:     action,
		Actor:      actorFor(ctx, rec),
		Reason:     reason,
		RequestID:  rec.Request.RequestID,
	}
	if err := s.audit.Emit(context.WithoutCancel(ctx), event); err != nil {
		s.logger.ErrorContext(ctx, "audit emission failed",
			"decision_id", rec.ID,
			"action", action,
			"error", err,
		)
	}
}

func (s *Service) cacheLookup(ctx context.Context, key string) *domain.DecisionRecord {
	if s.cache == nil || key == "" {
		return nil
	}
	rec, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache lookup failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	if s.metrics != nil {
		s.metrics.CacheHits.Inc()
	}
	return rec
}

func (s *Service) cacheStore(ctx context.Context, key string, rec *domain.DecisionRecord) {
	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.Put(context.WithoutCancel(ctx), key, rec, s.cfg.CacheTTL); err != nil {
		s.logger.WarnContext(ctx, "cache store failed", "error", err)
	}
}

// actorFor resolves who an audit event is attributed to: the context actor
// (the reviewer on verdict submissions), else the original requester.
func actorFor(ctx context.Context, rec *domain.DecisionRecord) string {
	if actor := requestcontext.Actor(ctx); actor != "" {
		return actor
	}
	return rec.Request.Requester
}

func translateStoreErr(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(dErrors.CodeNotFound, what+" not found", err)
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(dErrors.CodeInvalidState, what+" lost the state race", err)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(dErrors.CodeUnavailable, what+" store unavailable", err)
	default:
		return dErrors.Wrap(dErrors.CodeInternal, what+" failed", err)
	}
}
