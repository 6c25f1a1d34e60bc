package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/model"
)

// HoldingRepository provides data access methods for the holding table.
type HoldingRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

func (r *HoldingRepository) WithTx(tx *sql.Tx) *HoldingRepository {
	return &HoldingRepository{db: r.db, tx: tx}
}

// GetByPortfolioAndAsset retrieves the single holding for a (portfolio,
// asset) pair. Returns ErrHoldingNotFound when no position exists yet.
func (r *HoldingRepository) GetByPortfolioAndAsset(portfolioID, assetID string) (model.Holding, error) {
	query := `
		SELECT id, portfolio_id, asset_id, quantity, average_price, invested_value, current_value, source, updated_at
		FROM holding
		WHERE portfolio_id = ? AND asset_id = ?
	`

	var h model.Holding
	var updatedAt string
	err := pick(r.db, r.tx).QueryRow(query, portfolioID, assetID).Scan(
		&h.ID, &h.PortfolioID, &h.AssetID,
		&h.Quantity, &h.AveragePrice, &h.InvestedValue, &h.CurrentValue,
		&h.Source, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return model.Holding{}, apperrors.ErrHoldingNotFound
	}
	if err != nil {
		return model.Holding{}, fmt.Errorf("failed to query holding: %w", err)
	}
	if h.UpdatedAt, err = ParseTime(updatedAt); err != nil {
		return model.Holding{}, err
	}

	return h, nil
}

// ListByPortfolio retrieves all holdings for a portfolio joined with their
// asset metadata, ordered by current value descending.
func (r *HoldingRepository) ListByPortfolio(portfolioID string) ([]model.HoldingWithAsset, error) {
	query := `
		SELECT h.id, h.portfolio_id, h.asset_id,
		       h.quantity, h.average_price, h.invested_value, h.current_value,
		       h.source, h.updated_at,
		       a.name, a.asset_type, a.symbol, a.isin, a.asset_class, a.risk_bucket
		FROM holding h
		JOIN asset a ON a.id = h.asset_id
		WHERE h.portfolio_id = ?
		ORDER BY h.current_value DESC, a.name ASC
	`

	rows, err := pick(r.db, r.tx).Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []model.HoldingWithAsset{}
	for rows.Next() {
		var h model.HoldingWithAsset
		var symbol, isin sql.NullString
		var updatedAt string
		if err := rows.Scan(
			&h.ID, &h.PortfolioID, &h.AssetID,
			&h.Quantity, &h.AveragePrice, &h.InvestedValue, &h.CurrentValue,
			&h.Source, &updatedAt,
			&h.AssetName, &h.AssetType, &symbol, &isin, &h.AssetClass, &h.RiskBucket,
		); err != nil {
			return nil, fmt.Errorf("failed to scan holding row: %w", err)
		}
		h.Symbol = symbol.String
		h.Isin = isin.String
		if h.UpdatedAt, err = ParseTime(updatedAt); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding table: %w", err)
	}

	return holdings, nil
}

// Insert creates a new holding row.
func (r *HoldingRepository) Insert(h model.Holding) (model.Holding, error) {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	h.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO holding (id, portfolio_id, asset_id, quantity, average_price, invested_value, current_value, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := pick(r.db, r.tx).Exec(query,
		h.ID, h.PortfolioID, h.AssetID,
		h.Quantity, h.AveragePrice, h.InvestedValue, h.CurrentValue,
		h.Source, h.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return model.Holding{}, fmt.Errorf("failed to insert holding: %w", err)
	}

	return h, nil
}

// Update overwrites the mutable fields of an existing holding.
func (r *HoldingRepository) Update(h model.Holding) error {
	query := `
		UPDATE holding
		SET quantity = ?, average_price = ?, invested_value = ?, current_value = ?, source = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := pick(r.db, r.tx).Exec(query,
		h.Quantity, h.AveragePrice, h.InvestedValue, h.CurrentValue,
		h.Source, time.Now().UTC().Format(time.RFC3339), h.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check holding update: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrHoldingNotFound
	}
	return nil
}
