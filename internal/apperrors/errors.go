package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrAmcNotFound indicates that an AMC with the given ID or name does not exist.
	ErrAmcNotFound = errors.New("amc not found")

	// ErrFundNotFound indicates that a fund with the given ID does not exist.
	ErrFundNotFound = errors.New("fund not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidDate indicates that a date parameter is missing or not in
	// dd-MMM-yyyy format.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidBatchSize indicates a zero or negative batch size override.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	// ErrFeedUnavailable indicates the upstream NAV feed could not be fetched
	// after exhausting all retry attempts.
	ErrFeedUnavailable = errors.New("nav feed unavailable")

	// ErrFailedToRetrieveAmcs indicates the AMC listing query failed.
	ErrFailedToRetrieveAmcs = errors.New("failed to retrieve amcs")

	// ErrFailedToRetrieveFunds indicates the fund listing query failed.
	ErrFailedToRetrieveFunds = errors.New("failed to retrieve funds")

	// ErrFailedToRetrieveNavHistory indicates the NAV history query failed.
	ErrFailedToRetrieveNavHistory = errors.New("failed to retrieve nav history")
)
