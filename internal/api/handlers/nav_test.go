package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fundadmin/internal/service"
	"fundadmin/internal/testutil"
)

func TestNavHandler_Ingest(t *testing.T) {
	newIngestRequest := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/nav/ingest", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("ingests a single date and returns the summary", func(t *testing.T) {
		db := testutil.SetupTestDB(t)

		feed := testutil.NewMockFeedClient()
		feed.MockReport = testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("101", "Scheme One", "10.50", "01-Apr-2024"),
		)

		handler := NewNavHandler(testutil.NewTestIngestService(t, db, feed))

		w := httptest.NewRecorder()
		handler.Ingest(w, newIngestRequest(`{"date": "01-Apr-2024"}`))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var summary service.RunSummary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&summary)

		if summary.TotalFetched != 1 {
			t.Errorf("Expected 1 fetched record, got %d", summary.TotalFetched)
		}
		if summary.TotalPersisted != 1 {
			t.Errorf("Expected 1 persisted record, got %d", summary.TotalPersisted)
		}

		testutil.AssertRowCount(t, db, "nav_record", 1)
	})

	t.Run("ingests a date range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)

		feed := testutil.NewMockFeedClient()
		feed.WithReport("01-Apr-2024", testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("101", "Scheme One", "10.50", "01-Apr-2024"),
		))
		feed.WithReport("02-Apr-2024", testutil.BuildFeedReport("Fund House A",
			testutil.FeedLine("101", "Scheme One", "10.60", "02-Apr-2024"),
		))

		handler := NewNavHandler(testutil.NewTestIngestService(t, db, feed))

		w := httptest.NewRecorder()
		handler.Ingest(w, newIngestRequest(`{"start_date": "01-Apr-2024", "end_date": "02-Apr-2024"}`))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		if feed.FetchCount != 2 {
			t.Errorf("Expected 2 fetches, got %d", feed.FetchCount)
		}
		testutil.AssertRowCount(t, db, "nav_record", 2)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewNavHandler(testutil.NewTestIngestService(t, db, testutil.NewMockFeedClient()))

		w := httptest.NewRecorder()
		handler.Ingest(w, newIngestRequest(`{"date": "2024-04-01"}`))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects an incomplete range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewNavHandler(testutil.NewTestIngestService(t, db, testutil.NewMockFeedClient()))

		w := httptest.NewRecorder()
		handler.Ingest(w, newIngestRequest(`{"start_date": "01-Apr-2024"}`))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects an invalid body", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewNavHandler(testutil.NewTestIngestService(t, db, testutil.NewMockFeedClient()))

		w := httptest.NewRecorder()
		handler.Ingest(w, newIngestRequest(`{not json`))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}
