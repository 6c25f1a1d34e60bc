package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rupeeview/portfolio-backend/internal/api/request"
	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/service"
	"github.com/rupeeview/portfolio-backend/internal/validation"
)

// SettingsHandler handles market-data provider configuration requests. A nil
// service means no encryption key is configured and the endpoints answer 503.
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
	}
}

// disabled writes the 503 response when no settings service is wired.
func (h *SettingsHandler) disabled(w http.ResponseWriter) bool {
	if h.settingsService != nil {
		return false
	}
	respondJSON(w, http.StatusServiceUnavailable, errorBody{
		Error: "provider settings are disabled; set FERNET_KEY to enable them",
	})
	return true
}

// GetProvider handles GET /api/settings/provider.
// Reports the configured provider and whether a token is stored; the token
// itself is never returned.
func (h *SettingsHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	if h.disabled(w) {
		return
	}

	settings, err := h.settingsService.GetSettings()
	if errors.Is(err, apperrors.ErrProviderSettingsNotFound) {
		respondJSON(w, http.StatusOK, service.ProviderSettings{})
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// UpdateProvider handles PUT /api/settings/provider
func (h *SettingsHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	if h.disabled(w) {
		return
	}

	var req request.UpdateProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if err := validation.ValidateUpdateProvider(req); err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.settingsService.UpdateSettings(req.Provider, req.APIToken); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
