package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"fundadmin/internal/service"
	"fundadmin/internal/testutil"
)

var ingestDate = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

// runReport ingests one report for the standard test date and fails the
// test on invalid options.
func runReport(t *testing.T, db *sql.DB, report string) *service.RunSummary {
	t.Helper()

	feed := testutil.NewMockFeedClient()
	feed.MockReport = report

	svc := testutil.NewTestIngestService(t, db, feed)

	date := ingestDate
	summary, err := svc.Run(context.Background(), service.RunOptions{Date: &date})
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}
	return summary
}

func fundSchemeCode(t *testing.T, db *sql.DB, fundID string) string {
	t.Helper()

	var code sql.NullString
	if err := db.QueryRow("SELECT scheme_code FROM fund WHERE id = ?", fundID).Scan(&code); err != nil {
		t.Fatalf("Failed to read fund scheme code: %v", err)
	}
	return code.String
}

func navFundID(t *testing.T, db *sql.DB, date time.Time) string {
	t.Helper()

	var fundID string
	if err := db.QueryRow("SELECT fund_id FROM nav_record WHERE date = ?", date.Format("2006-01-02")).Scan(&fundID); err != nil {
		t.Fatalf("Failed to read nav record: %v", err)
	}
	return fundID
}

// TestIngestService_AmcResolution tests get-or-create behavior for fund
// families.
//
// WHY: Every feed line carries its family by name only. Re-ingesting must
// never duplicate an AMC, and one run must create each family exactly once
// regardless of how many schemes it lists.
func TestIngestService_AmcResolution(t *testing.T) {
	t.Run("creates the amc on first sighting", func(t *testing.T) {
		db := testutil.SetupTestDB(t)

		runReport(t, db, testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("101", "Scheme One", "10.50", "01-Apr-2024"),
		))

		testutil.AssertRowCount(t, db, "amc_entry", 1)

		var name string
		if err := db.QueryRow("SELECT name FROM amc_entry").Scan(&name); err != nil {
			t.Fatalf("Failed to read amc: %v", err)
		}
		if name != "Fund House A" {
			t.Errorf("Expected amc name 'Fund House A', got '%s'", name)
		}
	})

	t.Run("reuses an existing amc by name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.CreateAmc(t, db, "Fund House A")

		runReport(t, db, testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("101", "Scheme One", "10.50", "01-Apr-2024"),
		))

		testutil.AssertRowCount(t, db, "amc_entry", 1)
	})

	t.Run("creates one amc for many schemes of the same family", func(t *testing.T) {
		db := testutil.SetupTestDB(t)

		runReport(t, db, testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("101", "Scheme One", "10.50", "01-Apr-2024"),
			testutil.FeedLine("102", "Scheme Two", "22.75", "01-Apr-2024"),
			testutil.FeedLine("103", "Scheme Three", "5.10", "01-Apr-2024"),
		))

		testutil.AssertRowCount(t, db, "amc_entry", 1)
		testutil.AssertRowCount(t, db, "fund", 3)
	})
}

// TestIngestService_FundResolution tests fund identity resolution and
// scheme-code reconciliation.
//
// WHY: Feed fund names drift across days while scheme codes are durable.
// The precedence rules decide whether a line maps to an existing fund,
// corrects a stored code, or creates a new fund; getting them wrong
// either duplicates funds or attaches NAVs to the wrong scheme.
func TestIngestService_FundResolution(t *testing.T) {
	t.Run("creates a fund with its scheme code", func(t *testing.T) {
		db := testutil.SetupTestDB(t)

		runReport(t, db, testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("101", "Scheme One", "10.50", "01-Apr-2024"),
		))

		testutil.AssertRowCount(t, db, "fund", 1)

		var code string
		if err := db.QueryRow("SELECT scheme_code FROM fund").Scan(&code); err != nil {
			t.Fatalf("Failed to read fund: %v", err)
		}
		if code != "101" {
			t.Errorf("Expected scheme code '101', got '%s'", code)
		}
	})

	t.Run("stores the placeholder scheme code as null", func(t *testing.T) {
		db := testutil.SetupTestDB(t)

		runReport(t, db, testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("-", "Scheme One", "10.50", "01-Apr-2024"),
		))

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM fund WHERE scheme_code IS NULL").Scan(&count); err != nil {
			t.Fatalf("Failed to count funds: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 fund with null scheme code, got %d", count)
		}
	})

	t.Run("backfills an unowned scheme code onto the fund found by name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		amc := testutil.CreateAmc(t, db, "Fund House A")
		fund := testutil.NewFund(amc.ID).WithName("Scheme One").WithoutSchemeCode().Build(t, db)

		runReport(t, db, testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("101", "Scheme One", "10.50", "01-Apr-2024"),
		))

		testutil.AssertRowCount(t, db, "fund", 1)
		if code := fundSchemeCode(t, db, fund.ID); code != "101" {
			t.Errorf("Expected backfilled scheme code '101', got '%s'", code)
		}
	})

	t.Run("reuses the code owner when the name is unknown", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		amc := testutil.CreateAmc(t, db, "Fund House A")
		fund := testutil.NewFund(amc.ID).WithName("Scheme One - Old Name").WithSchemeCode("101").Build(t, db)

		runReport(t, db, testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("101", "Scheme One - New Name", "10.50", "01-Apr-2024"),
		))

		testutil.AssertRowCount(t, db, "fund", 1)
		if got := navFundID(t, db, ingestDate); got != fund.ID {
			t.Errorf("Expected nav attached to existing fund %s, got %s", fund.ID, got)
		}
	})

	t.Run("resolves a code conflict to the established owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		amc := testutil.CreateAmc(t, db, "Fund House A")
		byName := testutil.NewFund(amc.ID).WithName("Scheme One").WithSchemeCode("111").Build(t, db)
		owner := testutil.NewFund(amc.ID).WithName("Scheme Other").WithSchemeCode("222").Build(t, db)

		// The line matches byName by name but claims owner's code under a
		// different name; the established owner wins.
		runReport(t, db, testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("222", "Scheme One", "10.50", "01-Apr-2024"),
		))

		testutil.AssertRowCount(t, db, "fund", 2)
		if got := navFundID(t, db, ingestDate); got != owner.ID {
			t.Errorf("Expected nav attached to code owner %s, got %s", owner.ID, got)
		}
		if code := fundSchemeCode(t, db, byName.ID); code != "111" {
			t.Errorf("Expected untouched scheme code '111', got '%s'", code)
		}
	})

	t.Run("corrects a stored scheme code when the line carries a new unowned one", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		amc := testutil.CreateAmc(t, db, "Fund House A")
		fund := testutil.NewFund(amc.ID).WithName("Scheme One").WithSchemeCode("111").Build(t, db)

		runReport(t, db, testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("999", "Scheme One", "10.50", "01-Apr-2024"),
		))

		testutil.AssertRowCount(t, db, "fund", 1)
		if code := fundSchemeCode(t, db, fund.ID); code != "999" {
			t.Errorf("Expected corrected scheme code '999', got '%s'", code)
		}
	})

	t.Run("reuses a fund of the same name across runs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)

		report := testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("101", "Scheme One", "10.50", "01-Apr-2024"),
		)
		runReport(t, db, report)
		runReport(t, db, report)

		testutil.AssertRowCount(t, db, "amc_entry", 1)
		testutil.AssertRowCount(t, db, "fund", 1)
	})
}
