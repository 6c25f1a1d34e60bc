package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
)

// ProviderSettings is the single-row market-data provider configuration.
// The API token is stored fernet-encrypted; decryption happens in the
// service layer.
type ProviderSettings struct {
	Provider          string
	APITokenEncrypted string
	UpdatedAt         time.Time
}

// SettingsRepository provides data access methods for the provider_settings
// singleton table.
type SettingsRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSettingsRepository creates a new SettingsRepository with the provided database connection.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) WithTx(tx *sql.Tx) *SettingsRepository {
	return &SettingsRepository{db: r.db, tx: tx}
}

// Get retrieves the provider settings. Returns ErrProviderSettingsNotFound
// when no provider has been configured yet.
func (r *SettingsRepository) Get() (ProviderSettings, error) {
	query := `SELECT provider, api_token_encrypted, updated_at FROM provider_settings WHERE id = 1`

	var s ProviderSettings
	var updatedAt string
	err := pick(r.db, r.tx).QueryRow(query).Scan(&s.Provider, &s.APITokenEncrypted, &updatedAt)
	if err == sql.ErrNoRows {
		return ProviderSettings{}, apperrors.ErrProviderSettingsNotFound
	}
	if err != nil {
		return ProviderSettings{}, fmt.Errorf("failed to query provider settings: %w", err)
	}
	if s.UpdatedAt, err = ParseTime(updatedAt); err != nil {
		return ProviderSettings{}, err
	}
	return s, nil
}

// Upsert stores the provider settings, replacing any existing row.
func (r *SettingsRepository) Upsert(provider, encryptedToken string) error {
	query := `
		INSERT INTO provider_settings (id, provider, api_token_encrypted, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			api_token_encrypted = excluded.api_token_encrypted,
			updated_at = excluded.updated_at
	`

	_, err := pick(r.db, r.tx).Exec(query, provider, encryptedToken, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert provider settings: %w", err)
	}
	return nil
}
