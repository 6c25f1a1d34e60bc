package service

import (
	"time"

	"github.com/rupeeview/portfolio-backend/internal/repository"
	"github.com/rupeeview/portfolio-backend/internal/returns"
)

// PortfolioReturns is the XIRR read-path response.
type PortfolioReturns struct {
	PortfolioID       string    `json:"portfolioId"`
	AnnualizedReturn  float64   `json:"annualizedReturn"`
	TotalInvested     float64   `json:"totalInvested"`
	TotalCurrentValue float64   `json:"totalCurrentValue"`
	FlowCount         int       `json:"flowCount"`
	AsOf              time.Time `json:"asOf"`
}

// ReturnsService computes annualized returns from the recorded cash flows
// plus the portfolio's current value as the terminal inflow.
type ReturnsService struct {
	cashFlowRepo *repository.CashFlowRepository
	holdingRepo  *repository.HoldingRepository
}

// NewReturnsService creates a new ReturnsService with the provided repository dependencies.
func NewReturnsService(
	cashFlowRepo *repository.CashFlowRepository,
	holdingRepo *repository.HoldingRepository,
) *ReturnsService {
	return &ReturnsService{
		cashFlowRepo: cashFlowRepo,
		holdingRepo:  holdingRepo,
	}
}

// GetReturns computes the portfolio's XIRR. Returns
// apperrors.ErrReturnsNotComputable when the flow set cannot produce a rate,
// which callers surface as a well-defined "not computable" response rather
// than an error page.
func (s *ReturnsService) GetReturns(portfolioID string) (PortfolioReturns, error) {
	stored, err := s.cashFlowRepo.ListByPortfolio(portfolioID)
	if err != nil {
		return PortfolioReturns{}, err
	}
	holdings, err := s.holdingRepo.ListByPortfolio(portfolioID)
	if err != nil {
		return PortfolioReturns{}, err
	}

	result := PortfolioReturns{
		PortfolioID: portfolioID,
		AsOf:        time.Now().UTC(),
	}

	flows := make([]returns.CashFlow, 0, len(stored)+1)
	for _, f := range stored {
		flows = append(flows, returns.CashFlow{Date: f.FlowDate, Amount: f.Amount})
		if f.Amount < 0 {
			result.TotalInvested += -f.Amount
		}
	}
	result.FlowCount = len(stored)

	for _, h := range holdings {
		result.TotalCurrentValue += h.CurrentValue
	}
	if result.TotalCurrentValue > 0 {
		flows = append(flows, returns.CashFlow{Date: result.AsOf, Amount: result.TotalCurrentValue})
	}

	rate, err := returns.XIRR(flows)
	if err != nil {
		return result, err
	}
	result.AnnualizedReturn = rate
	return result, nil
}
