package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/model"
)

// AssetRepository provides data access methods for the asset table. Asset
// identity is resolved by lookup priority (ISIN, symbol, name), never by
// primary key.
type AssetRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) WithTx(tx *sql.Tx) *AssetRepository {
	return &AssetRepository{db: r.db, tx: tx}
}

const assetColumns = `id, name, asset_type, symbol, isin, asset_class, risk_bucket, created_at, updated_at`

func (r *AssetRepository) scanAsset(row *sql.Row) (model.Asset, error) {
	var a model.Asset
	var symbol, isin sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.Name, &a.AssetType, &symbol, &isin, &a.AssetClass, &a.RiskBucket, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return model.Asset{}, apperrors.ErrAssetNotFound
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to scan asset row: %w", err)
	}

	a.Symbol = symbol.String
	a.Isin = isin.String
	if a.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.Asset{}, err
	}
	if a.UpdatedAt, err = ParseTime(updatedAt); err != nil {
		return model.Asset{}, err
	}
	return a, nil
}

// GetByIsin retrieves an asset by exact, case-normalized ISIN.
func (r *AssetRepository) GetByIsin(isin string) (model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM asset WHERE UPPER(isin) = ?`
	return r.scanAsset(pick(r.db, r.tx).QueryRow(query, strings.ToUpper(isin)))
}

// GetBySymbol retrieves an asset by exact, case-normalized symbol.
func (r *AssetRepository) GetBySymbol(symbol string) (model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM asset WHERE UPPER(symbol) = ?`
	return r.scanAsset(pick(r.db, r.tx).QueryRow(query, strings.ToUpper(symbol)))
}

// GetByNameAndType retrieves an asset by exact case-insensitive name,
// scoped to the given asset type.
func (r *AssetRepository) GetByNameAndType(name string, assetType model.AssetType) (model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM asset WHERE LOWER(name) = ? AND asset_type = ?`
	return r.scanAsset(pick(r.db, r.tx).QueryRow(query, strings.ToLower(strings.TrimSpace(name)), assetType))
}

// GetByNameSubstring retrieves the first asset whose name contains the given
// text (or vice versa), scoped to the asset type. Used as the last
// resolution tier before creating a new asset.
func (r *AssetRepository) GetByNameSubstring(name string, assetType model.AssetType) (model.Asset, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	query := `
		SELECT ` + assetColumns + `
		FROM asset
		WHERE asset_type = ?
		  AND (instr(LOWER(name), ?) > 0 OR instr(?, LOWER(name)) > 0)
		ORDER BY length(name) ASC
		LIMIT 1
	`
	return r.scanAsset(pick(r.db, r.tx).QueryRow(query, assetType, needle, needle))
}

// Insert creates a new asset. Asset class and risk bucket are derived from
// the asset type's fixed profile.
func (r *AssetRepository) Insert(name string, assetType model.AssetType, symbol, isin string) (model.Asset, error) {
	class, risk := assetType.Profile()
	now := time.Now().UTC()
	a := model.Asset{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(name),
		AssetType:  assetType,
		Symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
		Isin:       strings.ToUpper(strings.TrimSpace(isin)),
		AssetClass: class,
		RiskBucket: risk,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	query := `
		INSERT INTO asset (id, name, asset_type, symbol, isin, asset_class, risk_bucket, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := pick(r.db, r.tx).Exec(query,
		a.ID, a.Name, a.AssetType, nullable(a.Symbol), nullable(a.Isin),
		a.AssetClass, a.RiskBucket,
		a.CreatedAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to insert asset: %w", err)
	}

	return a, nil
}

// UpdateIsin backfills an asset's ISIN after a successful scheme-master
// lookup. The only mutation this pipeline performs on an existing asset.
func (r *AssetRepository) UpdateIsin(assetID, isin string) error {
	query := `UPDATE asset SET isin = ?, updated_at = ? WHERE id = ? AND (isin IS NULL OR isin = '')`

	_, err := pick(r.db, r.tx).Exec(query, strings.ToUpper(isin), time.Now().UTC().Format(time.RFC3339), assetID)
	if err != nil {
		return fmt.Errorf("failed to update asset isin: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
