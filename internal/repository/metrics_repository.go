package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/model"
)

// MetricsRepository provides data access methods for the portfolio_metrics
// table. The table keeps exactly one row per portfolio.
type MetricsRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewMetricsRepository creates a new MetricsRepository with the provided database connection.
func NewMetricsRepository(db *sql.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

func (r *MetricsRepository) WithTx(tx *sql.Tx) *MetricsRepository {
	return &MetricsRepository{db: r.db, tx: tx}
}

// Get retrieves the stored metrics snapshot for a portfolio. Returns
// ErrMetricsNotFound when the portfolio has never been reconciled.
func (r *MetricsRepository) Get(portfolioID string) (model.PortfolioMetrics, error) {
	query := `
		SELECT portfolio_id, total_invested_value, total_current_value,
		       equity_percent, etf_percent, mutual_fund_percent, other_percent,
		       risk_score, diversification_score, concentration_score, last_calculated
		FROM portfolio_metrics
		WHERE portfolio_id = ?
	`

	var m model.PortfolioMetrics
	var equity, etf, mutualFund, other float64
	var lastCalculated string
	err := pick(r.db, r.tx).QueryRow(query, portfolioID).Scan(
		&m.PortfolioID, &m.TotalInvestedValue, &m.TotalCurrentValue,
		&equity, &etf, &mutualFund, &other,
		&m.RiskScore, &m.DiversificationScore, &m.ConcentrationScore, &lastCalculated,
	)
	if err == sql.ErrNoRows {
		return model.PortfolioMetrics{}, apperrors.ErrMetricsNotFound
	}
	if err != nil {
		return model.PortfolioMetrics{}, fmt.Errorf("failed to query portfolio metrics: %w", err)
	}

	m.Allocation = map[model.AssetClass]float64{
		model.AssetClassEquity:     equity,
		model.AssetClassETF:        etf,
		model.AssetClassMutualFund: mutualFund,
		model.AssetClassOther:      other,
	}
	if m.LastCalculated, err = ParseTime(lastCalculated); err != nil {
		return model.PortfolioMetrics{}, err
	}

	return m, nil
}

// Upsert replaces the metrics snapshot for a portfolio.
func (r *MetricsRepository) Upsert(m model.PortfolioMetrics) error {
	query := `
		INSERT INTO portfolio_metrics (
			portfolio_id, total_invested_value, total_current_value,
			equity_percent, etf_percent, mutual_fund_percent, other_percent,
			risk_score, diversification_score, concentration_score, last_calculated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id) DO UPDATE SET
			total_invested_value = excluded.total_invested_value,
			total_current_value = excluded.total_current_value,
			equity_percent = excluded.equity_percent,
			etf_percent = excluded.etf_percent,
			mutual_fund_percent = excluded.mutual_fund_percent,
			other_percent = excluded.other_percent,
			risk_score = excluded.risk_score,
			diversification_score = excluded.diversification_score,
			concentration_score = excluded.concentration_score,
			last_calculated = excluded.last_calculated
	`

	_, err := pick(r.db, r.tx).Exec(query,
		m.PortfolioID, m.TotalInvestedValue, m.TotalCurrentValue,
		m.Allocation[model.AssetClassEquity],
		m.Allocation[model.AssetClassETF],
		m.Allocation[model.AssetClassMutualFund],
		m.Allocation[model.AssetClassOther],
		m.RiskScore, m.DiversificationScore, m.ConcentrationScore,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio metrics: %w", err)
	}
	return nil
}
