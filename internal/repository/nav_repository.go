package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fundadmin/internal/model"
)

// chunkSize bounds the number of rows per multi-row statement so the
// total bind-variable count stays well under the sqlite limit.
const chunkSize = 500

// NavRepository provides data access methods for the nav_record fact
// table: keyed lookups, bulk insert/update used by the batch upserter,
// and the per-record upsert repair path.
type NavRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewNavRepository creates a new NavRepository with the provided database connection.
func NewNavRepository(db *sql.DB) *NavRepository {
	return &NavRepository{db: db}
}

// WithTx returns a copy of the repository that executes statements on the
// given transaction.
func (r *NavRepository) WithTx(tx *sql.Tx) *NavRepository {
	return &NavRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *NavRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetExistingIDs retrieves the row IDs of NAV records whose (fund, date)
// key matches any of the given values, keyed by model.NavValue.Key().
//
// The query over-selects with independent fund_id IN and date IN clauses
// and filters by composite key in memory; tuple IN is not portable and
// the over-selection is bounded by the batch.
func (r *NavRepository) GetExistingIDs(values []model.NavValue) (map[string]string, error) {
	existing := make(map[string]string, len(values))
	if len(values) == 0 {
		return existing, nil
	}

	fundSet := make(map[string]bool)
	dateSet := make(map[string]bool)
	wanted := make(map[string]bool, len(values))
	for _, v := range values {
		fundSet[v.FundID] = true
		dateSet[v.Date.Format("2006-01-02")] = true
		wanted[v.Key()] = true
	}

	fundIDs := make([]string, 0, len(fundSet))
	for id := range fundSet {
		fundIDs = append(fundIDs, id)
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}

	for start := 0; start < len(fundIDs); start += chunkSize {
		end := start + chunkSize
		if end > len(fundIDs) {
			end = len(fundIDs)
		}
		if err := r.queryExistingChunk(fundIDs[start:end], dates, wanted, existing); err != nil {
			return nil, err
		}
	}

	return existing, nil
}

func (r *NavRepository) queryExistingChunk(fundIDs, dates []string, wanted map[string]bool, existing map[string]string) error {
	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT id, fund_id, date
		FROM nav_record
		WHERE fund_id IN (` + placeholders(len(fundIDs)) + `)
		AND date IN (` + placeholders(len(dates)) + `)
	`

	args := make([]any, 0, len(fundIDs)+len(dates))
	for _, id := range fundIDs {
		args = append(args, id)
	}
	for _, d := range dates {
		args = append(args, d)
	}

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to query existing nav_record keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, fundID, dateStr string
		if err := rows.Scan(&id, &fundID, &dateStr); err != nil {
			return fmt.Errorf("failed to scan nav_record key: %w", err)
		}
		key := fundID + "|" + dateStr
		if wanted[key] {
			existing[key] = id
		}
	}

	return rows.Err()
}

// BulkInsert inserts NAV records in multi-row chunks, ignoring conflicts
// on the (fund, date) key. Tolerating conflicts covers the race where a
// concurrent run created a row after the existence check.
func (r *NavRepository) BulkInsert(ctx context.Context, records []model.NavRecord) error {
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		if err := r.insertChunk(ctx, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *NavRepository) insertChunk(ctx context.Context, records []model.NavRecord) error {
	query := "INSERT OR IGNORE INTO nav_record (id, fund_id, date, nav) VALUES "
	args := make([]any, 0, len(records)*4)

	for i, rec := range records {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, rec.ID, rec.FundID, rec.Date.Format("2006-01-02"), rec.Nav.String())
	}

	if _, err := r.getQuerier().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to bulk insert nav_record rows: %w", err)
	}

	return nil
}

// BulkUpdate rewrites the NAV value of existing rows by ID.
func (r *NavRepository) BulkUpdate(ctx context.Context, records []model.NavRecord) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := r.getQuerier().PrepareContext(ctx, "UPDATE nav_record SET nav = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare nav_record update: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Nav.String(), rec.ID); err != nil {
			return fmt.Errorf("failed to update nav_record %s: %w", rec.ID, err)
		}
	}

	return nil
}

// Upsert writes a single NAV value by (fund, date) key, inserting or
// updating as needed. This is the row-by-row repair path used when a
// bulk flush fails.
func (r *NavRepository) Upsert(ctx context.Context, id string, v model.NavValue) error {
	query := `
		INSERT INTO nav_record (id, fund_id, date, nav)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fund_id, date) DO UPDATE SET nav = excluded.nav
	`

	_, err := r.getQuerier().ExecContext(ctx, query, id, v.FundID, v.Date.Format("2006-01-02"), v.Nav.String())
	if err != nil {
		return fmt.Errorf("failed to upsert nav_record: %w", err)
	}

	return nil
}

// Count returns the total number of rows in the fact table.
func (r *NavRepository) Count() (int, error) {
	var count int
	if err := r.getQuerier().QueryRow("SELECT COUNT(*) FROM nav_record").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count nav_record rows: %w", err)
	}
	return count, nil
}

// GetHistory retrieves a fund's NAV series within the inclusive date
// range, oldest first.
func (r *NavRepository) GetHistory(fundID string, startDate, endDate time.Time) ([]model.NavRecord, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("startDate (%s) must be before or equal to endDate (%s)",
			startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	}

	query := `
		SELECT id, fund_id, date, nav
		FROM nav_record
		WHERE fund_id = ?
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC
	`

	rows, err := r.getQuerier().Query(query, fundID,
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query nav_record table: %w", err)
	}
	defer rows.Close()

	records := []model.NavRecord{}

	for rows.Next() {
		var rec model.NavRecord
		var dateStr, navStr string

		if err := rows.Scan(&rec.ID, &rec.FundID, &dateStr, &navStr); err != nil {
			return nil, fmt.Errorf("failed to scan nav_record results: %w", err)
		}

		rec.Date, err = ParseTime(dateStr)
		if err != nil || rec.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		rec.Nav, err = decimal.NewFromString(navStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse nav value: %w", err)
		}

		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nav_record table: %w", err)
	}

	return records, nil
}
