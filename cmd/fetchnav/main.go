package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"fundadmin/internal/amfi"
	"fundadmin/internal/config"
	"fundadmin/internal/database"
	"fundadmin/internal/repository"
	"fundadmin/internal/service"
)

// fetchnav runs one NAV ingestion pass from the command line: a single
// date, an inclusive range, or yesterday in the business timezone when
// no date flag is given. With -csv the parsed feed is written to a file
// instead of the database.
func main() {
	var (
		dateFlag      = flag.String("date", "", "ingest a single date (DD-Mon-YYYY, e.g. 01-Apr-2024)")
		startDateFlag = flag.String("start-date", "", "start of an inclusive date range (DD-Mon-YYYY)")
		endDateFlag   = flag.String("end-date", "", "end of an inclusive date range (DD-Mon-YYYY)")
		batchSize     = flag.Int("batch-size", 0, "records per upsert batch (0 uses the configured default)")
		csvPath       = flag.String("csv", "", "write the parsed feed to this CSV file instead of the database")
	)
	flag.Parse()

	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	location, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatal("failed to load business timezone")
	}

	opts := service.RunOptions{BatchSize: *batchSize}
	if opts.Date, err = parseDateFlag(*dateFlag); err != nil {
		log.WithError(err).Fatal("invalid -date")
	}
	if opts.StartDate, err = parseDateFlag(*startDateFlag); err != nil {
		log.WithError(err).Fatal("invalid -start-date")
	}
	if opts.EndDate, err = parseDateFlag(*endDateFlag); err != nil {
		log.WithError(err).Fatal("invalid -end-date")
	}

	feedClient := amfi.NewFeedClientWithTimeout(cfg.Feed.URLTemplate, cfg.Feed.Timeout)
	feedClient.MaxAttempts = cfg.Feed.MaxAttempts
	feedClient.RetryDelay = cfg.Feed.RetryDelay

	ctx := context.Background()

	if *csvPath != "" {
		if err := exportCSV(ctx, feedClient, opts, location, *csvPath, log); err != nil {
			log.WithError(err).Fatal("csv export failed")
		}
		return
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	ingestService := service.NewIngestService(
		db,
		repository.NewAmcRepository(db),
		repository.NewFundRepository(db),
		repository.NewNavRepository(db),
		feedClient,
		cfg.Ingest.BatchSize,
		location,
		log,
	)

	summary, err := ingestService.Run(ctx, opts)
	if err != nil {
		log.WithError(err).Fatal("ingestion run failed")
	}

	// Partial failures are reported in the summary, not the exit code, so
	// a long backfill with a few bad dates still completes.
	fmt.Print(summary.String())
}

// exportCSV fetches and parses the selected dates and writes every
// scheme line to one CSV file. Nothing touches the database. Lines with
// no parseable NAV date get an empty date cell.
func exportCSV(
	ctx context.Context,
	feed amfi.Client,
	opts service.RunOptions,
	location *time.Location,
	path string,
	log *logrus.Logger,
) error {
	dates, err := resolveDates(opts, location)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Date", "Fund Family", "Scheme Name", "Net Asset Value"}); err != nil {
		return err
	}

	for _, date := range dates {
		raw, err := feed.FetchNAVReport(ctx, date)
		if err != nil {
			log.WithError(err).WithField("date", date.Format(amfi.DateLayout)).
				Error("failed to fetch nav report; continuing")
			continue
		}

		for _, line := range amfi.ParseReport(raw) {
			dateCell := ""
			if line.Date != nil {
				dateCell = line.Date.Format("2006-01-02")
			}
			if err := w.Write([]string{dateCell, line.FamilyName, line.FundName, line.Nav}); err != nil {
				return err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	log.WithField("path", path).Info("csv export complete")
	return nil
}

// resolveDates expands the run options into the concrete dates to fetch.
func resolveDates(opts service.RunOptions, location *time.Location) ([]time.Time, error) {
	switch {
	case opts.StartDate != nil && opts.EndDate != nil:
		if opts.StartDate.After(*opts.EndDate) {
			return nil, fmt.Errorf("start date %s is after end date %s",
				opts.StartDate.Format(amfi.DateLayout), opts.EndDate.Format(amfi.DateLayout))
		}
		var dates []time.Time
		for d := *opts.StartDate; !d.After(*opts.EndDate); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}
		return dates, nil
	case (opts.StartDate != nil) != (opts.EndDate != nil):
		return nil, fmt.Errorf("-start-date and -end-date must be provided together")
	case opts.Date != nil:
		return []time.Time{*opts.Date}, nil
	default:
		now := time.Now().In(location)
		y := now.AddDate(0, 0, -1)
		return []time.Time{time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)}, nil
	}
}

// parseDateFlag parses an optional DD-Mon-YYYY flag value.
func parseDateFlag(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(amfi.DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
