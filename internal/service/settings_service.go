package service

import (
	"fmt"
	"strings"

	"github.com/fernet/fernet-go"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/repository"
)

// ProviderSettings is the decrypted provider configuration returned to
// callers. The token itself is never returned, only whether one is set.
type ProviderSettings struct {
	Provider string `json:"provider"`
	HasToken bool   `json:"hasToken"`
}

// SettingsService manages the market-data provider configuration. API tokens
// are encrypted with a fernet key before they touch the database.
type SettingsService struct {
	settingsRepo *repository.SettingsRepository
	key          *fernet.Key
}

// NewSettingsService creates a new SettingsService. The fernet key comes from
// configuration; an invalid key is a startup error, not a request error.
func NewSettingsService(settingsRepo *repository.SettingsRepository, fernetKey string) (*SettingsService, error) {
	key, err := fernet.DecodeKey(fernetKey)
	if err != nil {
		return nil, fmt.Errorf("invalid fernet key: %w", err)
	}
	return &SettingsService{settingsRepo: settingsRepo, key: key}, nil
}

// GetSettings returns the configured provider without exposing the token.
func (s *SettingsService) GetSettings() (ProviderSettings, error) {
	stored, err := s.settingsRepo.Get()
	if err != nil {
		return ProviderSettings{}, err
	}
	return ProviderSettings{
		Provider: stored.Provider,
		HasToken: stored.APITokenEncrypted != "",
	}, nil
}

// UpdateSettings stores the provider name and an encrypted copy of the token.
// An empty token clears the stored one.
func (s *SettingsService) UpdateSettings(provider, token string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return apperrors.ErrMissingRequiredField
	}

	encrypted := ""
	if token != "" {
		tok, err := fernet.EncryptAndSign([]byte(token), s.key)
		if err != nil {
			return fmt.Errorf("failed to encrypt provider token: %w", err)
		}
		encrypted = string(tok)
	}

	return s.settingsRepo.Upsert(provider, encrypted)
}

// ProviderToken decrypts and returns the stored token for outbound market
// data calls. Returns an empty string when no token is configured.
func (s *SettingsService) ProviderToken() (string, error) {
	stored, err := s.settingsRepo.Get()
	if err == apperrors.ErrProviderSettingsNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if stored.APITokenEncrypted == "" {
		return "", nil
	}

	plain := fernet.VerifyAndDecrypt([]byte(stored.APITokenEncrypted), 0, []*fernet.Key{s.key})
	if plain == nil {
		return "", fmt.Errorf("stored provider token failed verification")
	}
	return string(plain), nil
}
