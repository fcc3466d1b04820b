package repository

import (
	"context"
	"database/sql"
	"fmt"

	"fundadmin/internal/apperrors"
	"fundadmin/internal/model"
)

// AmcRepository provides data access methods for the amc_entry table.
type AmcRepository struct {
	db *sql.DB
}

// NewAmcRepository creates a new AmcRepository with the provided database connection.
func NewAmcRepository(db *sql.DB) *AmcRepository {
	return &AmcRepository{db: db}
}

// GetByName retrieves an AMC by its exact display name.
// Returns nil, nil if no AMC with that name exists.
func (r *AmcRepository) GetByName(name string) (*model.AmcEntry, error) {
	query := `
		SELECT id, name, created_at
		FROM amc_entry
		WHERE name = ?
	`

	var a model.AmcEntry
	var createdAt sql.NullString

	err := r.db.QueryRow(query, name).Scan(&a.ID, &a.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query amc_entry by name: %w", err)
	}

	if createdAt.Valid {
		a.CreatedAt, _ = ParseTime(createdAt.String)
	}

	return &a, nil
}

// GetByID retrieves an AMC by ID.
// Returns apperrors.ErrAmcNotFound if it does not exist.
func (r *AmcRepository) GetByID(id string) (model.AmcEntry, error) {
	query := `
		SELECT id, name, created_at
		FROM amc_entry
		WHERE id = ?
	`

	var a model.AmcEntry
	var createdAt sql.NullString

	err := r.db.QueryRow(query, id).Scan(&a.ID, &a.Name, &createdAt)
	if err == sql.ErrNoRows {
		return model.AmcEntry{}, apperrors.ErrAmcNotFound
	}
	if err != nil {
		return model.AmcEntry{}, fmt.Errorf("failed to query amc_entry: %w", err)
	}

	if createdAt.Valid {
		a.CreatedAt, _ = ParseTime(createdAt.String)
	}

	return a, nil
}

// GetAll retrieves all AMCs ordered by name.
// Returns an empty slice if none exist.
func (r *AmcRepository) GetAll() ([]model.AmcEntry, error) {
	query := `
		SELECT id, name, created_at
		FROM amc_entry
		ORDER BY name ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query amc_entry table: %w", err)
	}
	defer rows.Close()

	amcs := []model.AmcEntry{}

	for rows.Next() {
		var a model.AmcEntry
		var createdAt sql.NullString

		if err := rows.Scan(&a.ID, &a.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan amc_entry results: %w", err)
		}
		if createdAt.Valid {
			a.CreatedAt, _ = ParseTime(createdAt.String)
		}
		amcs = append(amcs, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating amc_entry table: %w", err)
	}

	return amcs, nil
}

// Insert creates a new AMC row.
func (r *AmcRepository) Insert(ctx context.Context, a *model.AmcEntry) error {
	query := `
		INSERT INTO amc_entry (id, name)
		VALUES (?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, a.ID, a.Name)
	if err != nil {
		return fmt.Errorf("failed to insert amc_entry: %w", err)
	}

	return nil
}
