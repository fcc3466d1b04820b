package testutil

import (
	"database/sql"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fundadmin/internal/amfi"
	"fundadmin/internal/repository"
	"fundadmin/internal/service"
)

func NewTestMasterService(t *testing.T, db *sql.DB) *service.MasterService {
	t.Helper()

	amcRepo := repository.NewAmcRepository(db)
	fundRepo := repository.NewFundRepository(db)
	navRepo := repository.NewNavRepository(db)

	return service.NewMasterService(amcRepo, fundRepo, navRepo)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, repository.NewNavRepository(db))
}

// NewTestIngestService creates an IngestService wired to the given feed
// client. This is useful for exercising the ingestion pipeline without
// making real feed requests.
func NewTestIngestService(t *testing.T, db *sql.DB, feed amfi.Client) *service.IngestService {
	t.Helper()

	return NewTestIngestServiceWithBatchSize(t, db, feed, 1000)
}

// NewTestIngestServiceWithBatchSize creates an IngestService with a
// custom default batch size, for tests that exercise flush boundaries.
func NewTestIngestServiceWithBatchSize(t *testing.T, db *sql.DB, feed amfi.Client, batchSize int) *service.IngestService {
	t.Helper()

	amcRepo := repository.NewAmcRepository(db)
	fundRepo := repository.NewFundRepository(db)
	navRepo := repository.NewNavRepository(db)

	return service.NewIngestService(
		db,
		amcRepo,
		fundRepo,
		navRepo,
		feed,
		batchSize,
		time.UTC,
		NewTestLogger(),
	)
}

// NewTestLogger returns a logger that discards its output.
func NewTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeAmcName generates a unique AMC name for testing.
//
// Example usage:
//
//	name := testutil.MakeAmcName("Axis Mutual Fund")
//	// Returns: "Axis Mutual Fund ABC123"
func MakeAmcName(base string) string {
	if base == "" {
		base = "Mutual Fund"
	}
	return base + " " + randomAlphanumeric(6)
}

// MakeFundName generates a unique fund name for testing.
//
// Example usage:
//
//	name := testutil.MakeFundName("Bluechip Fund")
//	// Returns: "Bluechip Fund XYZ789"
func MakeFundName(base string) string {
	if base == "" {
		base = "Fund"
	}
	return base + " " + randomAlphanumeric(6)
}

// MakeSchemeCode generates a numeric scheme code for testing.
//
// Example usage:
//
//	code := testutil.MakeSchemeCode()
//	// Returns: "482913"
func MakeSchemeCode() string {
	return randomDigits(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}

// randomDigits generates a random numeric string of specified length.
func randomDigits(length int) string {
	const charset = "0123456789"
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
