package service

import (
	"database/sql"

	"fundadmin/internal/database"
	"fundadmin/internal/repository"
	"fundadmin/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db      *sql.DB
	navRepo *repository.NavRepository
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB, navRepo *repository.NavRepository) *SystemService {
	return &SystemService{
		db:      db,
		navRepo: navRepo,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// VersionInfo reports the application version and the current size of
// the NAV fact table.
type VersionInfo struct {
	AppVersion     string `json:"appVersion"`
	NavRecordCount int    `json:"navRecordCount"`
}

// CheckVersion returns version information and the fact table row count.
func (s *SystemService) CheckVersion() (VersionInfo, error) {
	count, err := s.navRepo.Count()
	if err != nil {
		return VersionInfo{}, err
	}

	return VersionInfo{
		AppVersion:     version.Version,
		NavRecordCount: count,
	}, nil
}
