package service

import (
	"fmt"
	"time"

	"fundadmin/internal/apperrors"
	"fundadmin/internal/model"
	"fundadmin/internal/repository"
)

// MasterService exposes the read surface of the fund master data the
// ingestion pipeline maintains: AMC listings, funds per AMC, and NAV
// history per fund.
type MasterService struct {
	amcRepo  *repository.AmcRepository
	fundRepo *repository.FundRepository
	navRepo  *repository.NavRepository
}

// NewMasterService creates a new MasterService with the provided repositories.
func NewMasterService(
	amcRepo *repository.AmcRepository,
	fundRepo *repository.FundRepository,
	navRepo *repository.NavRepository,
) *MasterService {
	return &MasterService{
		amcRepo:  amcRepo,
		fundRepo: fundRepo,
		navRepo:  navRepo,
	}
}

// ListAmcs retrieves all AMCs ordered by name.
func (s *MasterService) ListAmcs() ([]model.AmcEntry, error) {
	amcs, err := s.amcRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveAmcs, err)
	}
	return amcs, nil
}

// ListFunds retrieves all funds under an AMC.
// Returns apperrors.ErrAmcNotFound if the AMC does not exist.
func (s *MasterService) ListFunds(amcID string) ([]model.Fund, error) {
	if _, err := s.amcRepo.GetByID(amcID); err != nil {
		return nil, err
	}

	funds, err := s.fundRepo.GetByAmc(amcID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveFunds, err)
	}
	return funds, nil
}

// GetNavHistory retrieves a fund's NAV series within the inclusive date
// range. Returns apperrors.ErrFundNotFound if the fund does not exist.
func (s *MasterService) GetNavHistory(fundID string, startDate, endDate time.Time) ([]model.NavRecord, error) {
	if _, err := s.fundRepo.GetByID(fundID); err != nil {
		return nil, err
	}

	records, err := s.navRepo.GetHistory(fundID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveNavHistory, err)
	}
	return records, nil
}
