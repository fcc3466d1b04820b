package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fundadmin/internal/api/response"
	"fundadmin/internal/apperrors"
	"fundadmin/internal/service"
)

// MasterHandler serves the fund master data maintained by the ingestion
// pipeline: AMCs, funds, and NAV history.
type MasterHandler struct {
	masterService *service.MasterService
}

// NewMasterHandler creates a new MasterHandler
func NewMasterHandler(masterService *service.MasterService) *MasterHandler {
	return &MasterHandler{
		masterService: masterService,
	}
}

// ListAmcs handles GET requests for all AMCs.
//
// Endpoint: GET /api/amc
func (h *MasterHandler) ListAmcs(w http.ResponseWriter, r *http.Request) {
	amcs, err := h.masterService.ListAmcs()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveAmcs.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, amcs)
}

// ListFunds handles GET requests for all funds under one AMC.
//
// Endpoint: GET /api/amc/{id}/funds
func (h *MasterHandler) ListFunds(w http.ResponseWriter, r *http.Request) {
	amcID := chi.URLParam(r, "id")

	funds, err := h.masterService.ListFunds(amcID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAmcNotFound) {
			response.RespondError(w, http.StatusNotFound, "amc not found", nil)
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveFunds.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, funds)
}

// GetNavHistory handles GET requests for a fund's NAV series. The
// optional start_date and end_date query parameters (YYYY-MM-DD) bound
// the series inclusively; either may be omitted.
//
// Endpoint: GET /api/fund/{id}/nav?start_date=2024-04-01&end_date=2024-04-30
func (h *MasterHandler) GetNavHistory(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "id")

	startDate, err := parseDateParam(r, "start_date", time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid start_date format, expected YYYY-MM-DD", err.Error())
		return
	}

	endDate, err := parseDateParam(r, "end_date", time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid end_date format, expected YYYY-MM-DD", err.Error())
		return
	}

	if startDate.After(endDate) {
		response.RespondError(w, http.StatusBadRequest, "start_date must be before or equal to end_date", nil)
		return
	}

	records, err := h.masterService.GetNavHistory(fundID, startDate, endDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrFundNotFound) {
			response.RespondError(w, http.StatusNotFound, "fund not found", nil)
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveNavHistory.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, records)
}

// parseDateParam reads a YYYY-MM-DD query parameter, falling back to the
// given default when the parameter is absent.
func parseDateParam(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidDate, err)
	}
	return t, nil
}
