package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rupeeview/portfolio-backend/internal/model"
)

// PriceRepository provides data access methods for the asset_price cache
// table. A symbol with no row simply has no stored price; callers treat a
// miss as "keep the previous value", never as zero.
type PriceRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

func (r *PriceRepository) WithTx(tx *sql.Tx) *PriceRepository {
	return &PriceRepository{db: r.db, tx: tx}
}

// GetPrices retrieves stored prices for the given symbols. Symbols with no
// stored price are absent from the result map.
func (r *PriceRepository) GetPrices(symbols []string) (map[string]model.AssetPrice, error) {
	prices := map[string]model.AssetPrice{}
	if len(symbols) == 0 {
		return prices, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(symbols)), ",")
	query := `
		SELECT symbol, price, price_date, updated_at
		FROM asset_price
		WHERE symbol IN (` + placeholders + `)
	`

	args := make([]any, len(symbols))
	for i, s := range symbols {
		args[i] = strings.ToUpper(s)
	}

	rows, err := pick(r.db, r.tx).Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.AssetPrice
		var priceDate, updatedAt string
		if err := rows.Scan(&p.Symbol, &p.Price, &priceDate, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset price row: %w", err)
		}
		if p.PriceDate, err = ParseTime(priceDate); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = ParseTime(updatedAt); err != nil {
			return nil, err
		}
		prices[p.Symbol] = p
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset_price table: %w", err)
	}

	return prices, nil
}

// Upsert stores the latest price for a symbol.
func (r *PriceRepository) Upsert(p model.AssetPrice) error {
	query := `
		INSERT INTO asset_price (symbol, price, price_date, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			price = excluded.price,
			price_date = excluded.price_date,
			updated_at = excluded.updated_at
	`

	_, err := pick(r.db, r.tx).Exec(query,
		strings.ToUpper(p.Symbol), p.Price,
		p.PriceDate.Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert asset price: %w", err)
	}
	return nil
}

// ListSymbols returns every symbol with a stored price, used by the
// scheduled refresh to know what to re-fetch.
func (r *PriceRepository) ListSymbols() ([]string, error) {
	rows, err := pick(r.db, r.tx).Query(`SELECT symbol FROM asset_price ORDER BY symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list price symbols: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset_price table: %w", err)
	}
	return symbols, nil
}
