package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/ingest"
	"github.com/rupeeview/portfolio-backend/internal/validation"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Failed to encode JSON: %v", err)
		}
	}
}

// errorBody is the standard error payload.
type errorBody struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// respondServiceError maps service-layer errors onto the API's contract:
// fatal input problems are 400 with remediation text, the ambiguity gate is
// 422 with required-column guidance, missing resources are 404, and anything
// unexpected is a 500. Data-shaped problems never surface as a bare 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Details: vErr.Fields})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrAmbiguousClassification):
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:   "could not classify enough rows to ingest this file",
			Details: ingest.RejectionGuidance(),
		})
	case errors.Is(err, apperrors.ErrFileUnreadable),
		errors.Is(err, apperrors.ErrUnsupportedFileType),
		errors.Is(err, apperrors.ErrFileTooLarge),
		errors.Is(err, apperrors.ErrEmptyFile),
		errors.Is(err, apperrors.ErrMissingPortfolioContext),
		errors.Is(err, apperrors.ErrMissingRequiredField),
		errors.Is(err, apperrors.ErrInvalidUUID):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrAssetNotFound),
		errors.Is(err, apperrors.ErrHoldingNotFound),
		errors.Is(err, apperrors.ErrMetricsNotFound),
		errors.Is(err, apperrors.ErrProviderSettingsNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
