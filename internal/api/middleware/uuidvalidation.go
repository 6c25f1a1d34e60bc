package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rupeeview/portfolio-backend/internal/api/response"
	"github.com/rupeeview/portfolio-backend/internal/validation"
)

// ValidatePortfolioID validates that the portfolioID URL parameter is present
// and is a valid UUID. Returns 400 Bad Request otherwise, before any handler
// touches the database.
//
// Example usage in router:
//
//	r.Route("/{portfolioID}", func(r chi.Router) {
//	    r.Use(middleware.ValidatePortfolioID)
//	    r.Get("/holdings", handler.Holdings)
//	})
func ValidatePortfolioID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "portfolioID")

		if id == "" {
			response.RespondError(w, http.StatusBadRequest, "portfolio ID is required", "")
			return
		}
		if err := validation.ValidateUUID(id); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid portfolio ID", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
