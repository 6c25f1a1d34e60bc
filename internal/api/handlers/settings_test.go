package handlers_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rupeeview/portfolio-backend/internal/api/handlers"
	"github.com/rupeeview/portfolio-backend/internal/repository"
	"github.com/rupeeview/portfolio-backend/internal/service"
	"github.com/rupeeview/portfolio-backend/internal/testutil"
)

// Throwaway fernet key for tests only.
const testFernetKey = "cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4="

func newSettingsHandler(t *testing.T, db *sql.DB) *handlers.SettingsHandler {
	t.Helper()
	svc, err := service.NewSettingsService(repository.NewSettingsRepository(db), testFernetKey)
	if err != nil {
		t.Fatalf("failed to build settings service: %v", err)
	}
	return handlers.NewSettingsHandler(svc)
}

// WHY: the token round-trips encrypted and is reported only as a boolean;
// the raw value must never appear in a response.
func TestProviderSettingsRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := newSettingsHandler(t, db)

	t.Run("unconfigured reads as empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/settings/provider", nil)
		rec := httptest.NewRecorder()
		handler.GetProvider(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body service.ProviderSettings
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Provider != "" || body.HasToken {
			t.Errorf("settings = %+v, want empty before configuration", body)
		}
	})

	t.Run("update stores provider and token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/settings/provider",
			strings.NewReader(`{"provider":"yahoo","apiToken":"secret-token"}`))
		rec := httptest.NewRecorder()
		handler.UpdateProvider(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("read reports token presence, never the token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/settings/provider", nil)
		rec := httptest.NewRecorder()
		handler.GetProvider(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "secret-token") {
			t.Fatalf("response leaks the raw token: %s", rec.Body.String())
		}
		var body service.ProviderSettings
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Provider != "yahoo" || !body.HasToken {
			t.Errorf("settings = %+v, want yahoo with a stored token", body)
		}
	})

	t.Run("rejects empty provider", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/settings/provider", strings.NewReader(`{"provider":""}`))
		rec := httptest.NewRecorder()
		handler.UpdateProvider(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// WHY: the encryption key is optional configuration; without it the server
// must still boot and the settings endpoints answer 503, not crash startup.
func TestProviderSettingsDisabledWithoutKey(t *testing.T) {
	handler := handlers.NewSettingsHandler(nil)

	t.Run("read is unavailable", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/settings/provider", nil)
		rec := httptest.NewRecorder()
		handler.GetProvider(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("update is unavailable", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/settings/provider",
			strings.NewReader(`{"provider":"yahoo","apiToken":"secret"}`))
		rec := httptest.NewRecorder()
		handler.UpdateProvider(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503; body: %s", rec.Code, rec.Body.String())
		}
	})
}
