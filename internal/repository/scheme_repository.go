package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/model"
)

// SchemeRepository provides data access methods for the scheme_master
// reference table synced from the AMFI NAVAll feed.
type SchemeRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSchemeRepository creates a new SchemeRepository with the provided database connection.
func NewSchemeRepository(db *sql.DB) *SchemeRepository {
	return &SchemeRepository{db: db}
}

func (r *SchemeRepository) WithTx(tx *sql.Tx) *SchemeRepository {
	return &SchemeRepository{db: r.db, tx: tx}
}

const schemeColumns = `scheme_code, scheme_name, normalized_name, fund_house, isin_growth, isin_div_payout, isin_div_reinvest, nav, nav_date, is_active, last_updated`

func scanScheme(scan func(dest ...any) error) (model.SchemeMaster, error) {
	var s model.SchemeMaster
	var navDate sql.NullString
	var lastUpdated string

	err := scan(
		&s.SchemeCode, &s.SchemeName, &s.NormalizedName, &s.FundHouse,
		&s.IsinGrowth, &s.IsinDivPayout, &s.IsinDivReinvest,
		&s.Nav, &navDate, &s.IsActive, &lastUpdated,
	)
	if err != nil {
		return model.SchemeMaster{}, err
	}

	if navDate.Valid && navDate.String != "" {
		if s.NavDate, err = ParseTime(navDate.String); err != nil {
			return model.SchemeMaster{}, err
		}
	}
	if s.LastUpdated, err = ParseTime(lastUpdated); err != nil {
		return model.SchemeMaster{}, err
	}
	return s, nil
}

// GetByNormalizedName retrieves active schemes whose normalized name matches
// exactly.
func (r *SchemeRepository) GetByNormalizedName(normalized string) ([]model.SchemeMaster, error) {
	query := `
		SELECT ` + schemeColumns + `
		FROM scheme_master
		WHERE normalized_name = ? AND is_active = TRUE
		ORDER BY scheme_code ASC
	`
	return r.querymany(query, normalized)
}

// SearchByNameSubstring retrieves active schemes whose normalized name
// contains the given text, capped to keep the fuzzy-match candidate set small.
func (r *SchemeRepository) SearchByNameSubstring(text string, limit int) ([]model.SchemeMaster, error) {
	if limit <= 0 {
		limit = 25
	}
	query := `
		SELECT ` + schemeColumns + `
		FROM scheme_master
		WHERE instr(normalized_name, ?) > 0 AND is_active = TRUE
		ORDER BY length(normalized_name) ASC, scheme_code ASC
		LIMIT ?
	`
	return r.querymany(query, strings.TrimSpace(text), limit)
}

// GetByIsin retrieves the scheme carrying the given ISIN in any of its three
// variant columns. Returns ErrSchemeNotFound when no scheme matches.
func (r *SchemeRepository) GetByIsin(isin string) (model.SchemeMaster, error) {
	query := `
		SELECT ` + schemeColumns + `
		FROM scheme_master
		WHERE isin_growth = ? OR isin_div_payout = ? OR isin_div_reinvest = ?
		LIMIT 1
	`

	upper := strings.ToUpper(isin)
	s, err := scanScheme(pick(r.db, r.tx).QueryRow(query, upper, upper, upper).Scan)
	if err == sql.ErrNoRows {
		return model.SchemeMaster{}, apperrors.ErrSchemeNotFound
	}
	if err != nil {
		return model.SchemeMaster{}, fmt.Errorf("failed to query scheme by isin: %w", err)
	}
	return s, nil
}

// UpsertBatch replaces scheme rows from a feed sync inside a single
// transaction. Returns the number of rows written.
func (r *SchemeRepository) UpsertBatch(schemes []model.SchemeMaster) (int, error) {
	if len(schemes) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO scheme_master (
			scheme_code, scheme_name, normalized_name, fund_house,
			isin_growth, isin_div_payout, isin_div_reinvest,
			nav, nav_date, is_active, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scheme_code) DO UPDATE SET
			scheme_name = excluded.scheme_name,
			normalized_name = excluded.normalized_name,
			fund_house = excluded.fund_house,
			isin_growth = excluded.isin_growth,
			isin_div_payout = excluded.isin_div_payout,
			isin_div_reinvest = excluded.isin_div_reinvest,
			nav = excluded.nav,
			nav_date = excluded.nav_date,
			is_active = excluded.is_active,
			last_updated = excluded.last_updated
	`

	run := func(q querier) (int, error) {
		now := time.Now().UTC().Format(time.RFC3339)
		written := 0
		for _, s := range schemes {
			var navDate any
			if !s.NavDate.IsZero() {
				navDate = s.NavDate.Format(time.RFC3339)
			}
			_, err := q.Exec(query,
				s.SchemeCode, s.SchemeName, s.NormalizedName, s.FundHouse,
				s.IsinGrowth, s.IsinDivPayout, s.IsinDivReinvest,
				s.Nav, navDate, s.IsActive, now,
			)
			if err != nil {
				return written, fmt.Errorf("failed to upsert scheme %s: %w", s.SchemeCode, err)
			}
			written++
		}
		return written, nil
	}

	// Inside an externally managed transaction already.
	if r.tx != nil {
		return run(r.tx)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin scheme sync transaction: %w", err)
	}
	written, err := run(tx)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scheme sync: %w", err)
	}
	return written, nil
}

// Count returns the number of scheme rows, used by the health endpoint to
// report whether the reference data has been synced.
func (r *SchemeRepository) Count() (int, error) {
	var n int
	err := pick(r.db, r.tx).QueryRow(`SELECT COUNT(*) FROM scheme_master`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count schemes: %w", err)
	}
	return n, nil
}

func (r *SchemeRepository) querymany(query string, args ...any) ([]model.SchemeMaster, error) {
	rows, err := pick(r.db, r.tx).Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheme_master: %w", err)
	}
	defer rows.Close()

	schemes := []model.SchemeMaster{}
	for rows.Next() {
		s, err := scanScheme(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheme row: %w", err)
		}
		schemes = append(schemes, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheme_master: %w", err)
	}
	return schemes, nil
}
