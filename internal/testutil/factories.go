package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fundadmin/internal/model"
)

// AmcBuilder provides a fluent interface for creating test AMCs.
//
// Example usage:
//
//	// Simple creation with defaults
//	amc := testutil.NewAmc().Build(t, db)
//
//	// Customized AMC
//	amc := testutil.NewAmc().
//	    WithName("Axis Mutual Fund").
//	    Build(t, db)
type AmcBuilder struct {
	ID   string
	Name string
}

// NewAmc creates an AmcBuilder with sensible defaults.
func NewAmc() *AmcBuilder {
	return &AmcBuilder{
		ID:   MakeID(),
		Name: MakeAmcName("Test Mutual Fund"),
	}
}

// WithID sets a custom ID.
func (b *AmcBuilder) WithID(id string) *AmcBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *AmcBuilder) WithName(name string) *AmcBuilder {
	b.Name = name
	return b
}

// Build creates the AMC in the database and returns it.
func (b *AmcBuilder) Build(t *testing.T, db *sql.DB) model.AmcEntry {
	t.Helper()

	query := `
		INSERT INTO amc_entry (id, name)
		VALUES (?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name)
	if err != nil {
		t.Fatalf("Failed to create test amc: %v", err)
	}

	return model.AmcEntry{
		ID:   b.ID,
		Name: b.Name,
	}
}

// FundBuilder provides a fluent interface for creating test funds.
//
// Example usage:
//
//	fund := testutil.NewFund(amc.ID).
//	    WithName("Test Scheme - Growth").
//	    WithSchemeCode("120503").
//	    Build(t, db)
type FundBuilder struct {
	ID         string
	AmcID      string
	Name       string
	SchemeCode string
}

// NewFund creates a FundBuilder with sensible defaults under the given AMC.
func NewFund(amcID string) *FundBuilder {
	return &FundBuilder{
		ID:         MakeID(),
		AmcID:      amcID,
		Name:       MakeFundName("Test Scheme"),
		SchemeCode: MakeSchemeCode(),
	}
}

// WithID sets a custom ID.
func (b *FundBuilder) WithID(id string) *FundBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *FundBuilder) WithName(name string) *FundBuilder {
	b.Name = name
	return b
}

// WithSchemeCode sets a custom scheme code.
func (b *FundBuilder) WithSchemeCode(code string) *FundBuilder {
	b.SchemeCode = code
	return b
}

// WithoutSchemeCode clears the scheme code (stored as NULL).
func (b *FundBuilder) WithoutSchemeCode() *FundBuilder {
	b.SchemeCode = ""
	return b
}

// Build creates the fund in the database and returns it.
func (b *FundBuilder) Build(t *testing.T, db *sql.DB) model.Fund {
	t.Helper()

	query := `
		INSERT INTO fund (id, amc_id, name, scheme_code)
		VALUES (?, ?, ?, ?)
	`

	var schemeCode interface{}
	if b.SchemeCode != "" {
		schemeCode = b.SchemeCode
	}

	_, err := db.Exec(query, b.ID, b.AmcID, b.Name, schemeCode)
	if err != nil {
		t.Fatalf("Failed to create test fund: %v", err)
	}

	return model.Fund{
		ID:         b.ID,
		AmcID:      b.AmcID,
		Name:       b.Name,
		SchemeCode: b.SchemeCode,
	}
}

// NavRecordBuilder provides a fluent interface for creating test NAV records.
//
// Example usage:
//
//	rec := testutil.NewNavRecord(fund.ID).
//	    WithDate(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)).
//	    WithNav("10.50").
//	    Build(t, db)
type NavRecordBuilder struct {
	ID     string
	FundID string
	Date   time.Time
	Nav    string
}

// NewNavRecord creates a NavRecordBuilder with sensible defaults for the
// given fund.
func NewNavRecord(fundID string) *NavRecordBuilder {
	return &NavRecordBuilder{
		ID:     MakeID(),
		FundID: fundID,
		Date:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Nav:    "100.00",
	}
}

// WithID sets a custom ID.
func (b *NavRecordBuilder) WithID(id string) *NavRecordBuilder {
	b.ID = id
	return b
}

// WithDate sets a custom date.
func (b *NavRecordBuilder) WithDate(date time.Time) *NavRecordBuilder {
	b.Date = date
	return b
}

// WithNav sets a custom NAV value.
func (b *NavRecordBuilder) WithNav(nav string) *NavRecordBuilder {
	b.Nav = nav
	return b
}

// Build creates the NAV record in the database and returns it.
func (b *NavRecordBuilder) Build(t *testing.T, db *sql.DB) model.NavRecord {
	t.Helper()

	query := `
		INSERT INTO nav_record (id, fund_id, date, nav)
		VALUES (?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.FundID, b.Date.Format("2006-01-02"), b.Nav)
	if err != nil {
		t.Fatalf("Failed to create test nav record: %v", err)
	}

	nav, err := decimal.NewFromString(b.Nav)
	if err != nil {
		t.Fatalf("Invalid test nav value %q: %v", b.Nav, err)
	}

	return model.NavRecord{
		ID:     b.ID,
		FundID: b.FundID,
		Date:   b.Date,
		Nav:    nav,
	}
}

// Convenience functions

// CreateAmc creates an AMC with the given name and default values.
//
// Example usage:
//
//	amc := testutil.CreateAmc(t, db, "HDFC Mutual Fund")
func CreateAmc(t *testing.T, db *sql.DB, name string) model.AmcEntry {
	t.Helper()
	return NewAmc().WithName(name).Build(t, db)
}

// CreateFund creates a fund with the given name under an AMC.
func CreateFund(t *testing.T, db *sql.DB, amcID, name string) model.Fund {
	t.Helper()
	return NewFund(amcID).WithName(name).Build(t, db)
}

// CreateNavRecord creates a NAV record for a fund on a date.
func CreateNavRecord(t *testing.T, db *sql.DB, fundID string, date time.Time, nav string) model.NavRecord {
	t.Helper()
	return NewNavRecord(fundID).WithDate(date).WithNav(nav).Build(t, db)
}
