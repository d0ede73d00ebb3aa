package rest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cardguard/cardguard-backend/internal/domain/errors"
	"github.com/cardguard/cardguard-backend/internal/domain/transaction"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/reference"
	"github.com/cardguard/cardguard-backend/internal/metrics"
	"github.com/cardguard/cardguard-backend/internal/service/scoring"
)

// SaveFailedWarning is returned alongside a successful analysis whose
// persistence failed.
const SaveFailedWarning = "analysis succeeded, save failed"

const defaultListLimit = 50

// AnalysisService is the scoring surface the handlers depend on.
type AnalysisService interface {
	Analyze(ctx context.Context, userID uuid.UUID, txn *transaction.Transaction) (*scoring.FraudAnalysis, error)
	GetAnalysis(ctx context.Context, userID, id uuid.UUID) (*scoring.AnalysisRecord, error)
	ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]*scoring.AnalysisRecord, error)
	DeleteAnalysis(ctx context.Context, userID, id uuid.UUID) error
	DeleteAnalyses(ctx context.Context, userID uuid.UUID) error
}

// Handler carries the dependencies for all route handlers.
type Handler struct {
	service   AnalysisService
	catalog   *reference.Provider
	registry  *metrics.Registry
	logger    *slog.Logger
	listLimit int
}

// NewHandler creates the route handler set.
func NewHandler(service AnalysisService, catalog *reference.Provider, registry *metrics.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		catalog:   catalog,
		registry:  registry,
		logger:    logger,
		listLimit: defaultListLimit,
	}
}

// handleAnalyzeTransaction scores a submitted transaction. A failed
// save still returns 200 with the analysis plus a warning.
func (h *Handler) handleAnalyzeTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Authorization required")
		return
	}

	var req AnalyzeTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("MALFORMED_BODY", "request body is not valid JSON"))
		return
	}

	txn, err := req.ToTransaction(time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	analysis, saveErr := h.service.Analyze(r.Context(), userID, txn)

	if h.registry != nil {
		h.registry.RecordAnalysis(r.Context(),
			float64(time.Since(start).Microseconds())/1000.0,
			analysis.OverallRiskScore, string(analysis.RiskLevel), analysis.IsFraudulent)
		for _, f := range analysis.RiskFactors {
			h.registry.RecordRiskFactor(r.Context(), f.Name, string(f.Severity))
		}
		if saveErr != nil {
			h.registry.RecordPersistenceFailure(r.Context())
		}
	}

	resp := AnalyzeTransactionResponse{
		Transaction: newTransactionSummary(txn),
		Analysis:    analysis,
	}
	if saveErr != nil {
		resp.Warning = SaveFailedWarning
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Authorization required")
		return
	}

	limit := h.listLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, errors.NewValidationError("INVALID_LIMIT", "limit must be a positive integer"))
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	records, err := h.service.ListAnalyses(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListAnalysesResponse{Analyses: records, Count: len(records)})
}

func (h *Handler) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Authorization required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.NewValidationError("INVALID_ID", "analysis id must be a UUID"))
		return
	}

	record, err := h.service.GetAnalysis(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Authorization required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.NewValidationError("INVALID_ID", "analysis id must be a UUID"))
		return
	}

	if err := h.service.DeleteAnalysis(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteAnalyses(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Authorization required")
		return
	}

	if err := h.service.DeleteAnalyses(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReferenceCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Catalog())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Response helpers

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps AppErrors to their status code and envelope; other
// errors become an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		writeJSON(w, appErr.StatusCode, ErrorResponse{Error: ErrorDetail{
			Code:    appErr.Code,
			Message: appErr.Message,
		}})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "An internal error occurred",
	}})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: ErrorDetail{
		Code:    "UNAUTHORIZED",
		Message: message,
	}})
}
