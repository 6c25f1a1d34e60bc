package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rupeeview/portfolio-backend/internal/model"
)

// CashFlowRepository provides data access methods for the cash_flow table.
type CashFlowRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewCashFlowRepository creates a new CashFlowRepository with the provided database connection.
func NewCashFlowRepository(db *sql.DB) *CashFlowRepository {
	return &CashFlowRepository{db: db}
}

func (r *CashFlowRepository) WithTx(tx *sql.Tx) *CashFlowRepository {
	return &CashFlowRepository{db: r.db, tx: tx}
}

// Insert records one signed flow against a portfolio.
func (r *CashFlowRepository) Insert(flow model.CashFlow) (model.CashFlow, error) {
	if flow.ID == "" {
		flow.ID = uuid.New().String()
	}

	query := `
		INSERT INTO cash_flow (id, portfolio_id, asset_id, flow_date, amount)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := pick(r.db, r.tx).Exec(query,
		flow.ID, flow.PortfolioID, flow.AssetID,
		flow.FlowDate.Format(time.RFC3339), flow.Amount,
	)
	if err != nil {
		return model.CashFlow{}, fmt.Errorf("failed to insert cash flow: %w", err)
	}
	return flow, nil
}

// ListByPortfolio retrieves all flows for a portfolio in date order.
func (r *CashFlowRepository) ListByPortfolio(portfolioID string) ([]model.CashFlow, error) {
	query := `
		SELECT id, portfolio_id, asset_id, flow_date, amount
		FROM cash_flow
		WHERE portfolio_id = ?
		ORDER BY flow_date ASC, id ASC
	`

	rows, err := pick(r.db, r.tx).Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash flows: %w", err)
	}
	defer rows.Close()

	flows := []model.CashFlow{}
	for rows.Next() {
		var f model.CashFlow
		var flowDate string
		if err := rows.Scan(&f.ID, &f.PortfolioID, &f.AssetID, &flowDate, &f.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan cash flow row: %w", err)
		}
		if f.FlowDate, err = ParseTime(flowDate); err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cash_flow table: %w", err)
	}

	return flows, nil
}
