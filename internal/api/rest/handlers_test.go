package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cardguard/cardguard-backend/internal/domain/errors"
	"github.com/cardguard/cardguard-backend/internal/domain/transaction"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/config"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/reference"
	"github.com/cardguard/cardguard-backend/internal/service/scoring"
)

type mockAnalysisService struct {
	mock.Mock
}

func (m *mockAnalysisService) Analyze(ctx context.Context, userID uuid.UUID, txn *transaction.Transaction) (*scoring.FraudAnalysis, error) {
	args := m.Called(ctx, userID, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scoring.FraudAnalysis), args.Error(1)
}

func (m *mockAnalysisService) GetAnalysis(ctx context.Context, userID, id uuid.UUID) (*scoring.AnalysisRecord, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scoring.AnalysisRecord), args.Error(1)
}

func (m *mockAnalysisService) ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]*scoring.AnalysisRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*scoring.AnalysisRecord), args.Error(1)
}

func (m *mockAnalysisService) DeleteAnalysis(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockAnalysisService) DeleteAnalyses(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type testServer struct {
	handler http.Handler
	auth    *AuthMiddleware
	service *mockAnalysisService
	userID  uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Security.JWTSecret = "test-secret"

	service := new(mockAnalysisService)
	logger := slog.New(slog.DiscardHandler)
	handler := NewHandler(service, reference.NewProvider(), nil, logger)
	auth := NewAuthMiddleware(&cfg.Security)

	srv := NewServer(cfg, handler, auth, nil, logger)

	return &testServer{
		handler: srv.TestHandler(),
		auth:    auth,
		service: service,
		userID:  uuid.New(),
	}
}

func (ts *testServer) request(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if authed {
		token, err := ts.auth.IssueToken(ts.userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func validAnalyzeRequest() AnalyzeTransactionRequest {
	return AnalyzeTransactionRequest{
		CardNumber:       "4532015112830366",
		CardholderName:   "Jane Smith",
		Amount:           500,
		MerchantName:     "Corner Books",
		MerchantCategory: "retail",
		Location:         "Mumbai, India",
		OccurredAt:       time.Now().UTC().Add(-time.Minute).Format(time.RFC3339),
	}
}

func TestHandleAnalyzeTransaction(t *testing.T) {
	ts := newTestServer(t)

	analysis := &scoring.FraudAnalysis{
		ID:               uuid.New(),
		OverallRiskScore: 0,
		RiskLevel:        scoring.RiskLevelLow,
		Confidence:       65,
		CompletedAt:      time.Now().UTC(),
	}
	ts.service.On("Analyze", mock.Anything, ts.userID, mock.Anything).Return(analysis, nil)

	rec := ts.request(t, http.MethodPost, "/api/v1/analyses", validAnalyzeRequest(), true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeTransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, analysis.ID, resp.Analysis.ID)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, "****0366", resp.Transaction.MaskedCard)
	assert.NotContains(t, rec.Body.String(), "4532015112830366")
}

func TestHandleAnalyzeTransaction_SaveFailureWarns(t *testing.T) {
	ts := newTestServer(t)

	analysis := &scoring.FraudAnalysis{ID: uuid.New(), RiskLevel: scoring.RiskLevelLow}
	ts.service.On("Analyze", mock.Anything, ts.userID, mock.Anything).
		Return(analysis, errors.NewInternalError("failed to save analysis"))

	rec := ts.request(t, http.MethodPost, "/api/v1/analyses", validAnalyzeRequest(), true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeTransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, SaveFailedWarning, resp.Warning)
}

func TestHandleAnalyzeTransaction_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		mutate   func(*AnalyzeTransactionRequest)
		wantCode string
	}{
		{
			name:     "missing card",
			mutate:   func(r *AnalyzeTransactionRequest) { r.CardNumber = "" },
			wantCode: "INVALID_INPUT",
		},
		{
			name:     "card with letters",
			mutate:   func(r *AnalyzeTransactionRequest) { r.CardNumber = "4532abcd11112222" },
			wantCode: "INVALID_CARD_FORMAT",
		},
		{
			name:     "zero amount",
			mutate:   func(r *AnalyzeTransactionRequest) { r.Amount = 0 },
			wantCode: "INVALID_INPUT",
		},
		{
			name:     "unknown category",
			mutate:   func(r *AnalyzeTransactionRequest) { r.MerchantCategory = "crypto" },
			wantCode: "INVALID_CATEGORY",
		},
		{
			name:     "bad timestamp",
			mutate:   func(r *AnalyzeTransactionRequest) { r.OccurredAt = "yesterday" },
			wantCode: "INVALID_TIMESTAMP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validAnalyzeRequest()
			tt.mutate(&req)

			rec := ts.request(t, http.MethodPost, "/api/v1/analyses", req, true)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandlers_RequireAuth(t *testing.T) {
	ts := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/analyses"},
		{http.MethodGet, "/api/v1/analyses"},
		{http.MethodGet, "/api/v1/analyses/" + uuid.NewString()},
		{http.MethodDelete, "/api/v1/analyses"},
		{http.MethodGet, "/api/v1/reference/catalog"},
	}

	for _, p := range paths {
		rec := ts.request(t, p.method, p.path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestHandleGetAnalysis(t *testing.T) {
	ts := newTestServer(t)

	id := uuid.New()
	record := &scoring.AnalysisRecord{ID: id, UserID: ts.userID, MaskedCard: "****0366"}
	ts.service.On("GetAnalysis", mock.Anything, ts.userID, id).Return(record, nil)

	rec := ts.request(t, http.MethodGet, "/api/v1/analyses/"+id.String(), nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "****0366")
}

func TestHandleGetAnalysis_NotFound(t *testing.T) {
	ts := newTestServer(t)

	id := uuid.New()
	ts.service.On("GetAnalysis", mock.Anything, ts.userID, id).
		Return(nil, errors.ErrAnalysisNotFound)

	rec := ts.request(t, http.MethodGet, "/api/v1/analyses/"+id.String(), nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListAnalyses_LimitClamped(t *testing.T) {
	ts := newTestServer(t)

	ts.service.On("ListAnalyses", mock.Anything, ts.userID, 10).
		Return([]*scoring.AnalysisRecord{}, nil)

	rec := ts.request(t, http.MethodGet, "/api/v1/analyses?limit=10", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	ts.service.AssertExpectations(t)

	rec = ts.request(t, http.MethodGet, "/api/v1/analyses?limit=-1", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeleteAnalyses(t *testing.T) {
	ts := newTestServer(t)

	ts.service.On("DeleteAnalyses", mock.Anything, ts.userID).Return(nil)

	rec := ts.request(t, http.MethodDelete, "/api/v1/analyses", nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	ts.service.AssertExpectations(t)
}

func TestHandleReferenceCatalog(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/v1/reference/catalog", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var catalog reference.Catalog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	assert.Contains(t, catalog.MerchantCategories, transaction.CategoryRetail)
	assert.Contains(t, catalog.HighRiskRegions, "nigeria")
	assert.Equal(t, "INR", catalog.SupportedCurrency)
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/health", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_RoutesUnknownPath(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/v1/unknown", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
