// Package request defines the JSON request bodies accepted by the API.
package request

// CreatePortfolioRequest is the body for POST /api/portfolio/.
type CreatePortfolioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateProviderRequest is the body for PUT /api/settings/provider.
type UpdateProviderRequest struct {
	Provider string `json:"provider"`
	APIToken string `json:"apiToken"`
}
