package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fundadmin/internal/api/response"
	"fundadmin/internal/apperrors"
	"fundadmin/internal/model"
	"fundadmin/internal/testutil"
)

func setupMasterHandler(t *testing.T) (*MasterHandler, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ms := testutil.NewTestMasterService(t, db)
	return NewMasterHandler(ms), db
}

func TestMasterHandler_ListAmcs(t *testing.T) {
	t.Run("returns empty list when no amcs exist", func(t *testing.T) {
		handler, _ := setupMasterHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/amc", nil)
		w := httptest.NewRecorder()

		handler.ListAmcs(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var amcs []model.AmcEntry
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&amcs)

		if len(amcs) != 0 {
			t.Errorf("Expected 0 amcs, got %d", len(amcs))
		}
	})

	t.Run("returns 500 with the retrieval error when the store is unavailable", func(t *testing.T) {
		handler, db := setupMasterHandler(t)

		// Close the database connection to simulate failure
		db.Close()

		req := httptest.NewRequest(http.MethodGet, "/api/amc", nil)
		w := httptest.NewRecorder()

		handler.ListAmcs(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("Expected 500, got %d: %s", w.Code, w.Body.String())
		}

		var errResp response.ErrorResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&errResp)

		if errResp.Error != apperrors.ErrFailedToRetrieveAmcs.Error() {
			t.Errorf("Expected error %q, got %q", apperrors.ErrFailedToRetrieveAmcs.Error(), errResp.Error)
		}
	})

	t.Run("returns all amcs", func(t *testing.T) {
		handler, db := setupMasterHandler(t)

		testutil.CreateAmc(t, db, "Fund House A")
		testutil.CreateAmc(t, db, "Fund House B")

		req := httptest.NewRequest(http.MethodGet, "/api/amc", nil)
		w := httptest.NewRecorder()

		handler.ListAmcs(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var amcs []model.AmcEntry
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&amcs)

		if len(amcs) != 2 {
			t.Errorf("Expected 2 amcs, got %d", len(amcs))
		}
	})
}

func TestMasterHandler_ListFunds(t *testing.T) {
	t.Run("returns funds for an amc", func(t *testing.T) {
		handler, db := setupMasterHandler(t)

		amc := testutil.CreateAmc(t, db, "Fund House A")
		testutil.CreateFund(t, db, amc.ID, "Scheme One")
		testutil.CreateFund(t, db, amc.ID, "Scheme Two")

		other := testutil.CreateAmc(t, db, "Fund House B")
		testutil.CreateFund(t, db, other.ID, "Scheme Three")

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/amc/"+amc.ID+"/funds",
			map[string]string{"id": amc.ID},
		)
		w := httptest.NewRecorder()

		handler.ListFunds(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var funds []model.Fund
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&funds)

		if len(funds) != 2 {
			t.Errorf("Expected 2 funds, got %d", len(funds))
		}
	})

	t.Run("returns 404 for an unknown amc", func(t *testing.T) {
		handler, _ := setupMasterHandler(t)

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/amc/unknown/funds",
			map[string]string{"id": "unknown"},
		)
		w := httptest.NewRecorder()

		handler.ListFunds(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestMasterHandler_GetNavHistory(t *testing.T) {
	t.Run("returns the full series without date bounds", func(t *testing.T) {
		handler, db := setupMasterHandler(t)

		amc := testutil.CreateAmc(t, db, "Fund House A")
		fund := testutil.CreateFund(t, db, amc.ID, "Scheme One")
		testutil.CreateNavRecord(t, db, fund.ID, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "10.50")
		testutil.CreateNavRecord(t, db, fund.ID, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), "10.60")

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/fund/"+fund.ID+"/nav",
			map[string]string{"id": fund.ID},
		)
		w := httptest.NewRecorder()

		handler.GetNavHistory(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var records []model.NavRecord
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&records)

		if len(records) != 2 {
			t.Errorf("Expected 2 records, got %d", len(records))
		}
	})

	t.Run("bounds the series inclusively", func(t *testing.T) {
		handler, db := setupMasterHandler(t)

		amc := testutil.CreateAmc(t, db, "Fund House A")
		fund := testutil.CreateFund(t, db, amc.ID, "Scheme One")
		for day := 1; day <= 5; day++ {
			testutil.CreateNavRecord(t, db, fund.ID, time.Date(2024, 4, day, 0, 0, 0, 0, time.UTC), "10.50")
		}

		req := testutil.NewRequestWithQueryAndURLParams(
			http.MethodGet,
			"/api/fund/"+fund.ID+"/nav",
			map[string]string{"start_date": "2024-04-02", "end_date": "2024-04-04"},
			map[string]string{"id": fund.ID},
		)
		w := httptest.NewRecorder()

		handler.GetNavHistory(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var records []model.NavRecord
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&records)

		if len(records) != 3 {
			t.Errorf("Expected 3 records, got %d", len(records))
		}
	})

	t.Run("returns 404 for an unknown fund", func(t *testing.T) {
		handler, _ := setupMasterHandler(t)

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/fund/unknown/nav",
			map[string]string{"id": "unknown"},
		)
		w := httptest.NewRecorder()

		handler.GetNavHistory(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects malformed date parameters", func(t *testing.T) {
		handler, _ := setupMasterHandler(t)

		req := testutil.NewRequestWithQueryAndURLParams(
			http.MethodGet,
			"/api/fund/some-id/nav",
			map[string]string{"start_date": "01-Apr-2024"},
			map[string]string{"id": "some-id"},
		)
		w := httptest.NewRecorder()

		handler.GetNavHistory(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects a start date after the end date", func(t *testing.T) {
		handler, _ := setupMasterHandler(t)

		req := testutil.NewRequestWithQueryAndURLParams(
			http.MethodGet,
			"/api/fund/some-id/nav",
			map[string]string{"start_date": "2024-04-30", "end_date": "2024-04-01"},
			map[string]string{"id": "some-id"},
		)
		w := httptest.NewRecorder()

		handler.GetNavHistory(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}
