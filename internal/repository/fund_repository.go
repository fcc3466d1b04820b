package repository

import (
	"context"
	"database/sql"
	"fmt"

	"fundadmin/internal/apperrors"
	"fundadmin/internal/model"
)

// FundRepository provides data access methods for the fund table.
// Scheme codes are stored as NULL when the feed has not supplied one, so
// the UNIQUE constraint only binds real codes.
type FundRepository struct {
	db *sql.DB
}

// NewFundRepository creates a new FundRepository with the provided database connection.
func NewFundRepository(db *sql.DB) *FundRepository {
	return &FundRepository{db: db}
}

// GetByID retrieves a fund by ID.
// Returns apperrors.ErrFundNotFound if it does not exist.
func (r *FundRepository) GetByID(id string) (model.Fund, error) {
	query := `
		SELECT id, amc_id, name, scheme_code, created_at
		FROM fund
		WHERE id = ?
	`

	f, err := r.scanFund(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return model.Fund{}, apperrors.ErrFundNotFound
	}
	if err != nil {
		return model.Fund{}, fmt.Errorf("failed to query fund: %w", err)
	}

	return f, nil
}

// GetByAmcAndName retrieves a fund by its (AMC, display name) pair.
// Returns nil, nil if no such fund exists.
func (r *FundRepository) GetByAmcAndName(amcID, name string) (*model.Fund, error) {
	query := `
		SELECT id, amc_id, name, scheme_code, created_at
		FROM fund
		WHERE amc_id = ? AND name = ?
	`

	f, err := r.scanFund(r.db.QueryRow(query, amcID, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query fund by amc and name: %w", err)
	}

	return &f, nil
}

// GetBySchemeCode retrieves the fund owning the given scheme code.
// Returns nil, nil if no fund owns the code.
func (r *FundRepository) GetBySchemeCode(code string) (*model.Fund, error) {
	query := `
		SELECT id, amc_id, name, scheme_code, created_at
		FROM fund
		WHERE scheme_code = ?
	`

	f, err := r.scanFund(r.db.QueryRow(query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query fund by scheme code: %w", err)
	}

	return &f, nil
}

// GetByAmc retrieves all funds belonging to an AMC, ordered by name.
func (r *FundRepository) GetByAmc(amcID string) ([]model.Fund, error) {
	query := `
		SELECT id, amc_id, name, scheme_code, created_at
		FROM fund
		WHERE amc_id = ?
		ORDER BY name ASC
	`

	rows, err := r.db.Query(query, amcID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund table: %w", err)
	}
	defer rows.Close()

	funds := []model.Fund{}

	for rows.Next() {
		f, err := r.scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund results: %w", err)
		}
		funds = append(funds, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund table: %w", err)
	}

	return funds, nil
}

// Insert creates a new fund row. An empty SchemeCode is stored as NULL.
func (r *FundRepository) Insert(ctx context.Context, f *model.Fund) error {
	query := `
		INSERT INTO fund (id, amc_id, name, scheme_code)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, f.ID, f.AmcID, f.Name, nullableString(f.SchemeCode))
	if err != nil {
		return fmt.Errorf("failed to insert fund: %w", err)
	}

	return nil
}

// UpdateSchemeCode assigns or corrects a fund's scheme code.
func (r *FundRepository) UpdateSchemeCode(ctx context.Context, fundID, code string) error {
	query := `
		UPDATE fund
		SET scheme_code = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, nullableString(code), fundID)
	if err != nil {
		return fmt.Errorf("failed to update fund scheme code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrFundNotFound
	}

	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func (r *FundRepository) scanFund(s scanner) (model.Fund, error) {
	var f model.Fund
	var schemeCode, createdAt sql.NullString

	if err := s.Scan(&f.ID, &f.AmcID, &f.Name, &schemeCode, &createdAt); err != nil {
		return model.Fund{}, err
	}

	if schemeCode.Valid {
		f.SchemeCode = schemeCode.String
	}
	if createdAt.Valid {
		f.CreatedAt, _ = ParseTime(createdAt.String)
	}

	return f, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
