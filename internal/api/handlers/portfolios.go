package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rupeeview/portfolio-backend/internal/api/request"
	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/service"
	"github.com/rupeeview/portfolio-backend/internal/validation"
)

// PortfolioHandler handles portfolio-related HTTP requests.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	metricsService   *service.MetricsService
	returnsService   *service.ReturnsService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(
	portfolioService *service.PortfolioService,
	metricsService *service.MetricsService,
	returnsService *service.ReturnsService,
) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		metricsService:   metricsService,
		returnsService:   returnsService,
	}
}

// Portfolios handles GET /api/portfolio/
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.portfolioService.GetAllPortfolios()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, portfolios)
}

// CreatePortfolio handles POST /api/portfolio/
func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if err := validation.ValidateCreatePortfolio(req); err != nil {
		respondServiceError(w, err)
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(req.Name, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, portfolio)
}

// Holdings handles GET /api/portfolio/{portfolioID}/holdings
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	holdings, err := h.portfolioService.GetHoldings(portfolioID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, holdings)
}

// Metrics handles GET /api/portfolio/{portfolioID}/metrics
func (h *PortfolioHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	metrics, err := h.metricsService.GetMetrics(portfolioID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// ReturnsResponse wraps the XIRR result with an explicit computability flag,
// so "not enough flows yet" is a well-formed answer rather than an error.
type ReturnsResponse struct {
	Computable bool                      `json:"computable"`
	Returns    *service.PortfolioReturns `json:"returns,omitempty"`
}

// Returns handles GET /api/portfolio/{portfolioID}/returns
func (h *PortfolioHandler) Returns(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	returns, err := h.returnsService.GetReturns(portfolioID)
	if errors.Is(err, apperrors.ErrReturnsNotComputable) {
		respondJSON(w, http.StatusOK, ReturnsResponse{Computable: false})
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ReturnsResponse{Computable: true, Returns: &returns})
}
