package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fundadmin/internal/amfi"
	"fundadmin/internal/apperrors"
	"fundadmin/internal/model"
	"fundadmin/internal/repository"
)

// IngestService drives the NAV ingestion pipeline: fetch a date's feed,
// parse it, resolve AMC/fund identities, and batch-upsert the NAV fact
// rows. One date is processed at a time; a multi-date run never aborts
// because one date failed.
type IngestService struct {
	db       *sql.DB
	amcRepo  *repository.AmcRepository
	fundRepo *repository.FundRepository
	navRepo  *repository.NavRepository
	feed     amfi.Client

	batchSize int
	location  *time.Location
	log       *logrus.Logger
}

// NewIngestService creates a new IngestService. location is the business
// timezone used for the "yesterday" default; batchSize is the default
// flush threshold, overridable per run.
func NewIngestService(
	db *sql.DB,
	amcRepo *repository.AmcRepository,
	fundRepo *repository.FundRepository,
	navRepo *repository.NavRepository,
	feed amfi.Client,
	batchSize int,
	location *time.Location,
	log *logrus.Logger,
) *IngestService {
	return &IngestService{
		db:        db,
		amcRepo:   amcRepo,
		fundRepo:  fundRepo,
		navRepo:   navRepo,
		feed:      feed,
		batchSize: batchSize,
		location:  location,
		log:       log,
	}
}

// RunOptions selects what a single invocation ingests: a single date, an
// inclusive date range, or neither (yesterday in the business timezone).
type RunOptions struct {
	Date      *time.Time
	StartDate *time.Time
	EndDate   *time.Time
	BatchSize int // 0 means the configured default
}

// RunSummary aggregates statistics for one invocation. It is in-memory
// only and reported to the caller; it is never persisted.
type RunSummary struct {
	RecordsPerDay   map[string]int `json:"recordsPerDay"`
	RecordsPerMonth map[string]int `json:"recordsPerMonth"`
	TotalFetched    int            `json:"totalFetched"`
	TotalPersisted  int            `json:"totalPersisted"`
	TotalInStore    int            `json:"totalInStore"`
	FailedDates     []string       `json:"failedDates,omitempty"`
}

func newRunSummary() *RunSummary {
	return &RunSummary{
		RecordsPerDay:   make(map[string]int),
		RecordsPerMonth: make(map[string]int),
	}
}

func (s *RunSummary) record(date time.Time, fetched, persisted int) {
	s.RecordsPerDay[date.Format("2006-01-02")] += fetched
	s.RecordsPerMonth[date.Format("2006-01")] += fetched
	s.TotalFetched += fetched
	s.TotalPersisted += persisted
}

// String renders the operator-facing run summary.
func (s *RunSummary) String() string {
	var b strings.Builder

	b.WriteString("Summary:\n")
	b.WriteString("Records fetched per day:\n")
	for _, day := range sortedKeys(s.RecordsPerDay) {
		fmt.Fprintf(&b, "  %s: %d\n", day, s.RecordsPerDay[day])
	}

	b.WriteString("\nRecords fetched per month:\n")
	for _, month := range sortedKeys(s.RecordsPerMonth) {
		fmt.Fprintf(&b, "  %s: %d\n", month, s.RecordsPerMonth[month])
	}

	fmt.Fprintf(&b, "\nTotal records fetched: %d\n", s.TotalFetched)
	fmt.Fprintf(&b, "Total records persisted: %d\n", s.TotalPersisted)
	fmt.Fprintf(&b, "Total records in store: %d\n", s.TotalInStore)

	if len(s.FailedDates) > 0 {
		fmt.Fprintf(&b, "Failed dates: %s\n", strings.Join(s.FailedDates, ", "))
	}

	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Run executes one ingestion invocation per the given options and always
// returns a summary; per-date failures are recorded in it, not returned.
// The error return is reserved for invalid options.
func (s *IngestService) Run(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = s.batchSize
	}
	if batchSize < 0 {
		return nil, apperrors.ErrInvalidBatchSize
	}

	if (opts.StartDate == nil) != (opts.EndDate == nil) {
		return nil, apperrors.ErrInvalidDateRange
	}
	if opts.StartDate != nil && opts.Date != nil {
		return nil, apperrors.ErrInvalidDateRange
	}

	summary := newRunSummary()

	switch {
	case opts.StartDate != nil:
		if opts.StartDate.After(*opts.EndDate) {
			return nil, apperrors.ErrInvalidDateRange
		}
		s.ingestRange(ctx, *opts.StartDate, *opts.EndDate, batchSize, summary)
	case opts.Date != nil:
		s.ingestOne(ctx, *opts.Date, batchSize, summary)
	default:
		s.ingestOne(ctx, s.Yesterday(), batchSize, summary)
	}

	total, err := s.navRepo.Count()
	if err != nil {
		s.log.WithError(err).Error("failed to count nav records for summary")
	} else {
		summary.TotalInStore = total
	}

	return summary, nil
}

// Yesterday returns the previous calendar day in the business timezone.
func (s *IngestService) Yesterday() time.Time {
	now := time.Now().In(s.location)
	y := now.AddDate(0, 0, -1)
	return time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)
}

// ingestRange walks calendar dates from start to end inclusive. A date
// that fails is recorded and the loop continues to the next date.
func (s *IngestService) ingestRange(ctx context.Context, start, end time.Time, batchSize int, summary *RunSummary) {
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		s.ingestOne(ctx, d, batchSize, summary)
	}
}

func (s *IngestService) ingestOne(ctx context.Context, date time.Time, batchSize int, summary *RunSummary) {
	fetched, persisted, err := s.ingestDate(ctx, date, batchSize)
	if err != nil {
		s.log.WithError(err).WithField("date", date.Format(amfi.DateLayout)).
			Error("failed to ingest nav data; continuing")
		summary.FailedDates = append(summary.FailedDates, date.Format("2006-01-02"))
		summary.record(date, 0, 0)
		return
	}

	s.log.WithFields(logrus.Fields{
		"date":      date.Format(amfi.DateLayout),
		"fetched":   fetched,
		"persisted": persisted,
	}).Info("ingested nav data")
	summary.record(date, fetched, persisted)
}

// ingestDate runs the fetch-parse-resolve-upsert cycle for one date and
// returns how many records the feed yielded and how many distinct
// (fund, date) keys were persisted.
func (s *IngestService) ingestDate(ctx context.Context, date time.Time, batchSize int) (int, int, error) {
	raw, err := s.feed.FetchNAVReport(ctx, date)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", apperrors.ErrFeedUnavailable, err)
	}

	cache := newResolverCache()
	batch := make([]model.NavValue, 0, batchSize)

	var fetched, persisted int
	var runErr error

	flush := func() {
		if runErr != nil || len(batch) == 0 {
			return
		}
		n, err := s.flushBatch(ctx, batch)
		if err != nil {
			runErr = err
			return
		}
		persisted += n
		batch = batch[:0]
	}

	parseErr := amfi.Parse(strings.NewReader(raw), func(line amfi.ParsedLine) {
		if runErr != nil {
			return
		}

		value, ok := s.resolveLine(ctx, cache, line)
		if !ok {
			return
		}
		fetched++
		if value == nil {
			return
		}

		batch = append(batch, *value)
		if len(batch) >= batchSize {
			flush()
		}
	})
	if parseErr != nil && runErr == nil {
		runErr = fmt.Errorf("failed to read nav report: %w", parseErr)
	}

	flush()

	if runErr != nil {
		return fetched, persisted, runErr
	}

	return fetched, persisted, nil
}

// resolveLine turns one parsed feed line into a pending NAV value. The
// second return is false when the line could not be resolved at all; a
// nil value with true means the line was counted but is not persistable
// (no usable date or NAV value).
func (s *IngestService) resolveLine(ctx context.Context, cache *resolverCache, line amfi.ParsedLine) (*model.NavValue, bool) {
	amc, err := s.resolveAmc(ctx, cache, line.FamilyName)
	if err != nil {
		s.log.WithError(err).WithField("family", line.FamilyName).
			Error("failed to resolve amc; skipping line")
		return nil, false
	}

	fund, err := s.resolveFund(ctx, cache, amc, line)
	if err != nil {
		s.log.WithError(err).WithField("fund", line.FundName).
			Error("failed to resolve fund; skipping line")
		return nil, false
	}

	if line.Date == nil {
		// The parser keeps lines with unparseable dates; the fact
		// table's (fund, date) key makes them unpersistable here.
		s.log.WithField("fund", line.FundName).Warn("nav line has no parseable date; not persisted")
		return nil, true
	}

	nav, err := decimal.NewFromString(line.Nav)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"fund": line.FundName,
			"nav":  line.Nav,
		}).Warn("nav line has no parseable value; not persisted")
		return nil, true
	}

	return &model.NavValue{
		FundID: fund.ID,
		Date:   *line.Date,
		Nav:    nav,
	}, true
}
