package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"caregate/internal/domain"
	"caregate/internal/scoring"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/httputil"
	"caregate/pkg/requestcontext"
)

// Service defines the assessment operations the transport depends on.
type Service interface {
	ComputeRiskAssessment(ctx context.Context, reqCtx domain.RequestContext, answers []scoring.Answer) (*domain.DecisionRecord, error)
	AnalyzeClinicalInput(ctx context.Context, reqCtx domain.RequestContext, noteText string) (*domain.DecisionRecord, error)
	RetrieveGuidelines(ctx context.Context, query string, minRelevance float64) (*domain.RetrievalResult, error)
	GetDecision(ctx context.Context, id uuid.UUID) (*domain.DecisionRecord, error)
	SubmitReviewVerdict(ctx context.Context, decisionID uuid.UUID, verdict domain.Verdict) (*domain.DecisionRecord, error)
	FinalizeDecision(ctx context.Context, decisionID uuid.UUID) (*domain.DecisionRecord, error)
}

// Handler wires assessment endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an assessment handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts assessment endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/assessments/screening", h.HandleScreening)
	r.Post("/assessments/clinical-note", h.HandleClinicalNote)
	r.Get("/assessments/{id}", h.HandleGetDecision)
	r.Post("/assessments/{id}/review", h.HandleReview)
	r.Post("/assessments/{id}/finalize", h.HandleFinalize)
	r.Get("/guidelines/search", h.HandleGuidelineSearch)
}

// HandleScreening handles POST /assessments/screening.
func (h *Handler) HandleScreening(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ScreeningRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx = requestcontext.WithActor(ctx, req.Requester)
	reqCtx, answers := req.ToDomain(requestID, requestcontext.Now(ctx))
	rec, err := h.service.ComputeRiskAssessment(ctx, reqCtx, answers)
	if err != nil {
		h.writeServiceError(ctx, w, requestID, "screening assessment failed", err)
		return
	}

	h.logger.InfoContext(ctx, "screening assessment served",
		"request_id", requestID,
		"decision_id", rec.ID,
		"state", rec.State,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, NewDecisionResponse(rec))
}

// HandleClinicalNote handles POST /assessments/clinical-note.
func (h *Handler) HandleClinicalNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ClinicalNoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx = requestcontext.WithActor(ctx, req.Requester)
	rec, err := h.service.AnalyzeClinicalInput(ctx, req.ToDomain(requestID, requestcontext.Now(ctx)), req.Note)
	if err != nil {
		h.writeServiceError(ctx, w, requestID, "clinical note analysis failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewDecisionResponse(rec))
}

// HandleGetDecision handles GET /assessments/{id}.
func (h *Handler) HandleGetDecision(w http.ResponseWriter, r *http.Request) {
	id, ok := h.decisionID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.GetDecision(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewDecisionResponse(rec))
}

// HandleReview handles POST /assessments/{id}/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := h.decisionID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.SubmitReviewVerdict(ctx, id, req.ToDomain())
	if err != nil {
		h.writeServiceError(ctx, w, requestID, "review submission rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewDecisionResponse(rec))
}

// HandleFinalize handles POST /assessments/{id}/finalize.
func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.decisionID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.FinalizeDecision(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewDecisionResponse(rec))
}

// HandleGuidelineSearch handles GET /guidelines/search.
func (h *Handler) HandleGuidelineSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "query parameter q is required"))
		return
	}

	minRelevance := 0.0
	if raw := r.URL.Query().Get("min_relevance"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "min_relevance must be within [0,1]"))
			return
		}
		minRelevance = parsed
	}

	result, err := h.service.RetrieveGuidelines(r.Context(), query, minRelevance)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewGuidelineSearchResponse(result))
}

func (h *Handler) decisionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "decision id must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, requestID, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestID,
		"error", err,
	)
	httputil.WriteError(w, err)
}
