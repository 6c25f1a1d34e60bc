package service

import (
	"strings"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/model"
	"github.com/rupeeview/portfolio-backend/internal/repository"
)

// PortfolioService handles portfolio CRUD operations.
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
	holdingRepo   *repository.HoldingRepository
}

// NewPortfolioService creates a new PortfolioService with the provided repository dependencies.
func NewPortfolioService(
	portfolioRepo *repository.PortfolioRepository,
	holdingRepo *repository.HoldingRepository,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		holdingRepo:   holdingRepo,
	}
}

// GetAllPortfolios retrieves all portfolios.
func (s *PortfolioService) GetAllPortfolios() ([]model.Portfolio, error) {
	return s.portfolioRepo.GetAll()
}

// GetPortfolio retrieves one portfolio by ID.
func (s *PortfolioService) GetPortfolio(id string) (model.Portfolio, error) {
	return s.portfolioRepo.Get(id)
}

// CreatePortfolio creates a new portfolio from a name and optional description.
func (s *PortfolioService) CreatePortfolio(name, description string) (model.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Portfolio{}, apperrors.ErrMissingRequiredField
	}
	return s.portfolioRepo.Insert(name, strings.TrimSpace(description))
}

// GetHoldings retrieves a portfolio's holdings with asset metadata. The
// portfolio must exist.
func (s *PortfolioService) GetHoldings(portfolioID string) ([]model.HoldingWithAsset, error) {
	if _, err := s.portfolioRepo.Get(portfolioID); err != nil {
		return nil, err
	}
	return s.holdingRepo.ListByPortfolio(portfolioID)
}
