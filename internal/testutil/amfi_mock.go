package testutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fundadmin/internal/amfi"
)

// MockFeedClient is a mock implementation of amfi.Client for testing.
// It returns predefined report text instead of making actual feed requests.
type MockFeedClient struct {
	// Reports maps a dd-MMM-yyyy date string to the report to return
	// for that date. Dates without an entry fall back to MockReport.
	Reports map[string]string
	// MockReport is the report returned for dates without a Reports entry
	MockReport string
	// MockError is the error to return from FetchNAVReport
	MockError error
	// Errors maps a dd-MMM-yyyy date string to an error for that date only
	Errors map[string]error
	// FetchCount tracks how many times FetchNAVReport was called
	FetchCount int
	// FetchedDates records every date requested, in order
	FetchedDates []time.Time
}

// NewMockFeedClient creates a new mock feed client with a small default
// report of one fund family and two schemes.
func NewMockFeedClient() *MockFeedClient {
	return &MockFeedClient{
		Reports:    make(map[string]string),
		Errors:     make(map[string]error),
		MockReport: SampleFeedReport("01-Apr-2024"),
	}
}

// FetchNAVReport returns the configured report or error for the date.
func (m *MockFeedClient) FetchNAVReport(_ context.Context, date time.Time) (string, error) {
	m.FetchCount++
	m.FetchedDates = append(m.FetchedDates, date)

	key := date.Format(amfi.DateLayout)
	if err, ok := m.Errors[key]; ok {
		return "", err
	}
	if m.MockError != nil {
		return "", m.MockError
	}
	if report, ok := m.Reports[key]; ok {
		return report, nil
	}
	return m.MockReport, nil
}

// WithReport configures the report to return for one date.
func (m *MockFeedClient) WithReport(date, report string) *MockFeedClient {
	m.Reports[date] = report
	return m
}

// WithError configures the mock to fail every fetch with err.
func (m *MockFeedClient) WithError(err error) *MockFeedClient {
	m.MockError = err
	return m
}

// WithErrorOn configures the mock to fail fetches for one date only.
func (m *MockFeedClient) WithErrorOn(date string, err error) *MockFeedClient {
	m.Errors[date] = err
	return m
}

// FeedLine renders one scheme line in the feed's ;-delimited layout.
// Pass date as dd-MMM-yyyy, or "" for a line without a NAV date.
func FeedLine(schemeCode, fundName, nav, date string) string {
	return fmt.Sprintf("%s;%s;;;%s;;;%s", schemeCode, fundName, nav, date)
}

// BuildFeedReport assembles a report section for one fund family from
// pre-rendered scheme lines.
func BuildFeedReport(family string, lines ...string) string {
	var b strings.Builder
	b.WriteString("Scheme Code;Scheme Name;ISIN Div Payout/ ISIN Growth;ISIN Div Reinvestment;Net Asset Value;Repurchase Price;Sale Price;Date\n")
	b.WriteString("\n")
	b.WriteString("Open Ended Schemes(Equity Scheme - Large Cap Fund)\n")
	b.WriteString("\n")
	b.WriteString(family + "\n")
	for _, line := range lines {
		b.WriteString(line + "\n")
	}
	return b.String()
}

// SampleFeedReport returns a two-scheme report for one fund family with
// every NAV dated the given dd-MMM-yyyy date.
func SampleFeedReport(date string) string {
	return BuildFeedReport("Test Mutual Fund",
		FeedLine("100001", "Test Scheme - Growth", "25.4381", date),
		FeedLine("100002", "Test Scheme - IDCW", "18.2046", date),
	)
}
