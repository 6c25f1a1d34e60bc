package service

import (
	"database/sql"

	"github.com/rupeeview/portfolio-backend/internal/database"
	"github.com/rupeeview/portfolio-backend/internal/repository"
	"github.com/rupeeview/portfolio-backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db         *sql.DB
	schemeRepo *repository.SchemeRepository
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB, schemeRepo *repository.SchemeRepository) *SystemService {
	return &SystemService{
		db:         db,
		schemeRepo: schemeRepo,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

func (s *SystemService) CheckVersion() string {
	return version.Version
}

// SchemeCount reports how many scheme-master rows have been synced, so the
// health endpoint can show whether mutual-fund resolution is available.
func (s *SystemService) SchemeCount() (int, error) {
	return s.schemeRepo.Count()
}
