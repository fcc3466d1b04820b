package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fundadmin/internal/amfi"
	"fundadmin/internal/api/response"
	"fundadmin/internal/apperrors"
	"fundadmin/internal/service"
)

// NavHandler triggers NAV ingestion runs over HTTP. The same pipeline
// runs on the daily schedule; this endpoint exists for manual and
// backfill invocations.
type NavHandler struct {
	ingestService *service.IngestService
}

// NewNavHandler creates a new NavHandler
func NewNavHandler(ingestService *service.IngestService) *NavHandler {
	return &NavHandler{
		ingestService: ingestService,
	}
}

// IngestRequest is the body of a manual ingestion trigger. Dates use the
// feed's dd-MMM-yyyy format. All fields are optional; with no date at
// all the run ingests yesterday in the business timezone.
type IngestRequest struct {
	Date      string `json:"date,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	BatchSize int    `json:"batch_size,omitempty"`
}

// Ingest handles POST requests that trigger an ingestion run. The run
// executes synchronously and the response carries its summary.
//
// Endpoint: POST /api/nav/ingest
func (h *NavHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	opts := service.RunOptions{BatchSize: req.BatchSize}

	var err error
	if opts.Date, err = parseFeedDate(req.Date); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date format, expected DD-Mon-YYYY", err.Error())
		return
	}
	if opts.StartDate, err = parseFeedDate(req.StartDate); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid start_date format, expected DD-Mon-YYYY", err.Error())
		return
	}
	if opts.EndDate, err = parseFeedDate(req.EndDate); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid end_date format, expected DD-Mon-YYYY", err.Error())
		return
	}

	summary, err := h.ingestService.Run(r.Context(), opts)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidDateRange):
			response.RespondError(w, http.StatusBadRequest, "start_date and end_date must be provided together, without date, and in order", nil)
		case errors.Is(err, apperrors.ErrInvalidBatchSize):
			response.RespondError(w, http.StatusBadRequest, "batch_size must be positive", nil)
		default:
			response.RespondError(w, http.StatusInternalServerError, "ingestion run failed", err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}

// parseFeedDate parses an optional dd-MMM-yyyy date string.
func parseFeedDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(amfi.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidDate, err)
	}
	return &t, nil
}
