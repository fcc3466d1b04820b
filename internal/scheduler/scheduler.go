// Package scheduler wires the daily NAV ingestion trigger. The cron
// expression is evaluated in the business timezone so the run fires at a
// fixed local time regardless of where the process runs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"fundadmin/internal/service"
)

// Scheduler runs the yesterday-mode ingestion on a recurring schedule.
type Scheduler struct {
	cron   *cron.Cron
	ingest *service.IngestService
	log    *logrus.Logger
}

// New creates a Scheduler firing per the cron expression schedule in the
// given timezone. Each firing ingests the previous business day.
func New(ingest *service.IngestService, schedule string, location *time.Location, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(location)),
		ingest: ingest,
		log:    log,
	}

	if _, err := s.cron.AddFunc(schedule, s.runDaily); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("daily nav ingestion scheduled")
}

// Stop stops the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runDaily() {
	s.log.Info("daily nav ingestion starting")

	summary, err := s.ingest.Run(context.Background(), service.RunOptions{})
	if err != nil {
		s.log.WithError(err).Error("daily nav ingestion failed")
		return
	}

	s.log.WithFields(logrus.Fields{
		"fetched":   summary.TotalFetched,
		"persisted": summary.TotalPersisted,
	}).Info("daily nav ingestion finished")
}
