package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func (r *PortfolioRepository) WithTx(tx *sql.Tx) *PortfolioRepository {
	return &PortfolioRepository{db: r.db, tx: tx}
}

// GetAll retrieves all portfolios ordered by creation time.
func (r *PortfolioRepository) GetAll() ([]model.Portfolio, error) {
	query := `
		SELECT id, name, description, created_at
		FROM portfolio
		ORDER BY created_at ASC
	`

	rows, err := pick(r.db, r.tx).Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		var p model.Portfolio
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio row: %w", err)
		}
		if p.CreatedAt, err = ParseTime(createdAt); err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// Get retrieves one portfolio by ID. Returns ErrPortfolioNotFound when the
// ID does not exist.
func (r *PortfolioRepository) Get(id string) (model.Portfolio, error) {
	query := `
		SELECT id, name, description, created_at
		FROM portfolio
		WHERE id = ?
	`

	var p model.Portfolio
	var createdAt string
	err := pick(r.db, r.tx).QueryRow(query, id).Scan(&p.ID, &p.Name, &p.Description, &createdAt)
	if err == sql.ErrNoRows {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to query portfolio: %w", err)
	}
	if p.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.Portfolio{}, err
	}

	return p, nil
}

// Insert creates a new portfolio and returns it with the generated ID.
func (r *PortfolioRepository) Insert(name, description string) (model.Portfolio, error) {
	p := model.Portfolio{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	query := `
		INSERT INTO portfolio (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := pick(r.db, r.tx).Exec(query, p.ID, p.Name, p.Description, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to insert portfolio: %w", err)
	}

	return p, nil
}
