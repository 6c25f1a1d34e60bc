package validation

import (
	"strings"

	"github.com/rupeeview/portfolio-backend/internal/api/request"
)

// ValidateCreatePortfolio validates a portfolio creation request.
//
// Required fields:
//   - name: non-empty after trimming, at most 100 characters
func ValidateCreatePortfolio(req request.CreatePortfolioRequest) error {
	errors := make(map[string]string)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errors["name"] = "name is required"
	}
	if len(name) > 100 {
		errors["name"] = "name must be at most 100 characters"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateUpdateProvider validates a provider settings update.
//
// Required fields:
//   - provider: non-empty after trimming
func ValidateUpdateProvider(req request.UpdateProviderRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Provider) == "" {
		errors["provider"] = "provider is required"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
