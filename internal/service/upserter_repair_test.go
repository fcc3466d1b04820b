package service

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // Test Package

	"fundadmin/internal/model"
	"fundadmin/internal/repository"
)

// newRepairTestService builds an IngestService on a fresh in-memory
// store. This is an in-package test, so the fixture is inlined instead
// of using internal/testutil (which depends on this package).
func newRepairTestService(t *testing.T) (*IngestService, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Foreign keys must be enforced for the repair path to be reachable.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	schema := `
		CREATE TABLE amc_entry (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE fund (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			amc_id VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			scheme_code VARCHAR(20) UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(amc_id) REFERENCES amc_entry(id)
		);
		CREATE TABLE nav_record (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			fund_id VARCHAR(36) NOT NULL,
			date DATE NOT NULL,
			nav TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(fund_id) REFERENCES fund(id),
			CONSTRAINT unique_fund_date UNIQUE (fund_id, date)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := NewIngestService(
		db,
		repository.NewAmcRepository(db),
		repository.NewFundRepository(db),
		repository.NewNavRepository(db),
		nil,
		1000,
		time.UTC,
		log,
	)

	return svc, db
}

// TestIngestService_FlushBatchRepair tests the row-by-row repair path
// taken when the bulk flush transaction fails.
//
// WHY: A single bad row must never lose an entire batch. When the bulk
// insert aborts (here on a foreign key violation), every healthy row in
// the batch must still be persisted through per-record upserts, with
// only the offending row skipped.
func TestIngestService_FlushBatchRepair(t *testing.T) {
	t.Run("persists healthy rows when one row aborts the bulk flush", func(t *testing.T) {
		svc, db := newRepairTestService(t)

		amcID := "amc-1"
		fundID := "fund-1"
		if _, err := db.Exec("INSERT INTO amc_entry (id, name) VALUES (?, ?)", amcID, "Fund House A"); err != nil {
			t.Fatalf("Failed to insert amc: %v", err)
		}
		if _, err := db.Exec("INSERT INTO fund (id, amc_id, name, scheme_code) VALUES (?, ?, ?, ?)",
			fundID, amcID, "Scheme One", "101"); err != nil {
			t.Fatalf("Failed to insert fund: %v", err)
		}

		nav := decimal.RequireFromString("10.50")
		batch := []model.NavValue{
			{FundID: fundID, Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Nav: nav},
			{FundID: "no-such-fund", Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Nav: nav},
			{FundID: fundID, Date: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), Nav: nav},
		}

		n, err := svc.flushBatch(context.Background(), batch)
		if err != nil {
			t.Fatalf("flushBatch() returned unexpected error: %v", err)
		}
		if n != 3 {
			t.Errorf("Expected 3 processed keys, got %d", n)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM nav_record").Scan(&count); err != nil {
			t.Fatalf("Failed to count nav records: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 persisted rows, got %d", count)
		}

		for _, date := range []string{"2024-04-01", "2024-04-02"} {
			var got int
			err := db.QueryRow("SELECT COUNT(*) FROM nav_record WHERE fund_id = ? AND date = ?", fundID, date).Scan(&got)
			if err != nil {
				t.Fatalf("Failed to query nav record for %s: %v", date, err)
			}
			if got != 1 {
				t.Errorf("Expected row for %s to survive the repair, got %d", date, got)
			}
		}

		var orphans int
		if err := db.QueryRow("SELECT COUNT(*) FROM nav_record WHERE fund_id = ?", "no-such-fund").Scan(&orphans); err != nil {
			t.Fatalf("Failed to count orphan rows: %v", err)
		}
		if orphans != 0 {
			t.Errorf("Expected the bad row to be skipped, found %d rows", orphans)
		}
	})
}
