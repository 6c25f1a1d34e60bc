package service

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupeeview/portfolio-backend/internal/model"
	"github.com/rupeeview/portfolio-backend/internal/repository"
)

// riskBucketScores maps each risk bucket to its contribution on the 0-100
// risk scale. The portfolio score is the invested-value-weighted mean.
var riskBucketScores = map[model.RiskBucket]float64{
	model.RiskBucketHigh:   80,
	model.RiskBucketMedium: 50,
	model.RiskBucketLow:    20,
}

const (
	// Diversification penalties.
	minHoldingsForFullScore  = 5
	concentrationPenaltyOver = 40.0

	driftWarnDefaultPercent = 1.0
)

// MetricsService recomputes a portfolio's allocation/risk snapshot wholesale
// from persisted holdings. It never reads the uploaded file and never patches
// a stored snapshot incrementally; every holdings write is followed by a full
// recompute inside the same logical operation.
type MetricsService struct {
	holdingRepo      *repository.HoldingRepository
	metricsRepo      *repository.MetricsRepository
	driftWarnPercent float64
	logger           zerolog.Logger
}

// NewMetricsService creates a new MetricsService with the provided dependencies.
func NewMetricsService(
	holdingRepo *repository.HoldingRepository,
	metricsRepo *repository.MetricsRepository,
	driftWarnPercent float64,
	logger zerolog.Logger,
) *MetricsService {
	if driftWarnPercent <= 0 {
		driftWarnPercent = driftWarnDefaultPercent
	}
	return &MetricsService{
		holdingRepo:      holdingRepo,
		metricsRepo:      metricsRepo,
		driftWarnPercent: driftWarnPercent,
		logger:           logger.With().Str("module", "metrics").Logger(),
	}
}

// GetMetrics returns the stored snapshot for a portfolio.
func (s *MetricsService) GetMetrics(portfolioID string) (model.PortfolioMetrics, error) {
	return s.metricsRepo.Get(portfolioID)
}

// Recompute rebuilds and stores the metrics snapshot from persisted holdings.
func (s *MetricsService) Recompute(portfolioID string) (model.PortfolioMetrics, error) {
	holdings, err := s.holdingRepo.ListByPortfolio(portfolioID)
	if err != nil {
		return model.PortfolioMetrics{}, err
	}

	m := s.compute(portfolioID, holdings)
	if err := s.metricsRepo.Upsert(m); err != nil {
		return model.PortfolioMetrics{}, err
	}
	return m, nil
}

func (s *MetricsService) compute(portfolioID string, holdings []model.HoldingWithAsset) model.PortfolioMetrics {
	m := model.PortfolioMetrics{
		PortfolioID:    portfolioID,
		Allocation:     map[model.AssetClass]float64{},
		LastCalculated: time.Now().UTC(),
	}
	for _, class := range model.AllAssetClasses {
		m.Allocation[class] = 0
	}

	classTotals := map[model.AssetClass]float64{}
	riskWeighted := 0.0
	maxHolding := 0.0
	for _, h := range holdings {
		m.TotalInvestedValue += h.InvestedValue
		m.TotalCurrentValue += h.CurrentValue
		classTotals[h.AssetClass] += h.InvestedValue
		riskWeighted += riskBucketScores[h.RiskBucket] * h.InvestedValue
		if h.InvestedValue > maxHolding {
			maxHolding = h.InvestedValue
		}
	}

	if m.TotalInvestedValue <= 0 {
		return m
	}

	for class, total := range classTotals {
		m.Allocation[class] = total / m.TotalInvestedValue * 100
	}
	s.normalizeAllocation(portfolioID, m.Allocation)

	m.RiskScore = riskWeighted / m.TotalInvestedValue
	m.ConcentrationScore = maxHolding / m.TotalInvestedValue * 100
	m.DiversificationScore = diversificationScore(len(holdings), m.ConcentrationScore)

	if m.ConcentrationScore > 100 {
		s.logger.Warn().Str("portfolio", portfolioID).Float64("allocation", m.ConcentrationScore).
			Msg("consistency warning: holding allocation exceeds 100%")
	}

	return m
}

// normalizeAllocation forces the percentage vector to sum to exactly 100 by
// assigning the floating residual to the largest bucket. A drift beyond the
// configured threshold means an upstream invariant broke and is logged as a
// consistency warning before correction.
func (s *MetricsService) normalizeAllocation(portfolioID string, allocation map[model.AssetClass]float64) {
	sum := 0.0
	largest := model.AssetClassOther
	largestValue := -1.0
	for class, pct := range allocation {
		sum += pct
		if pct > largestValue {
			largest = class
			largestValue = pct
		}
	}

	drift := math.Abs(sum - 100)
	if drift > s.driftWarnPercent {
		s.logger.Warn().Str("portfolio", portfolioID).Float64("sum", sum).
			Msg("consistency warning: allocation drifted from 100%")
	}
	allocation[largest] += 100 - sum
}

// diversificationScore grades spread on a 0-100 scale, penalizing thin
// portfolios and single oversized positions.
func diversificationScore(holdingCount int, concentration float64) float64 {
	score := 100.0

	if holdingCount < minHoldingsForFullScore {
		score -= float64(minHoldingsForFullScore-holdingCount) * 15
	}
	if concentration > concentrationPenaltyOver {
		score -= concentration - concentrationPenaltyOver
	}

	if score < 0 {
		return 0
	}
	return score
}
