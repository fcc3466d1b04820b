package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fundadmin/internal/model"
)

// flushBatch writes one batch of resolved NAV values to the fact table
// and returns how many (fund, date) keys were persisted.
//
// The fast path partitions the batch against existing rows and commits a
// bulk conflict-ignoring insert plus a keyed bulk update in a single
// transaction. If that transaction fails, the slow path repairs row by
// row with per-record upserts so a single bad row cannot lose the batch.
func (s *IngestService) flushBatch(ctx context.Context, batch []model.NavValue) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	// Within-batch duplicates collapse to one row per (fund, date) key,
	// last value wins.
	deduped := dedupeBatch(batch)

	existing, err := s.navRepo.GetExistingIDs(deduped)
	if err != nil {
		return 0, fmt.Errorf("failed to load existing nav keys: %w", err)
	}

	inserts := make([]model.NavRecord, 0, len(deduped))
	updates := make([]model.NavRecord, 0)

	for _, v := range deduped {
		rec := model.NavRecord{
			FundID: v.FundID,
			Date:   v.Date,
			Nav:    v.Nav,
		}
		if id, ok := existing[v.Key()]; ok {
			rec.ID = id
			updates = append(updates, rec)
		} else {
			rec.ID = uuid.New().String()
			inserts = append(inserts, rec)
		}
	}

	if err := s.flushBulk(ctx, inserts, updates); err != nil {
		s.log.WithError(err).Error("bulk nav flush failed; falling back to per-record upserts")
		s.flushPerRecord(ctx, deduped, existing)
	}

	return len(deduped), nil
}

func (s *IngestService) flushBulk(ctx context.Context, inserts, updates []model.NavRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin nav flush transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	txRepo := s.navRepo.WithTx(tx)

	if err := txRepo.BulkInsert(ctx, inserts); err != nil {
		return err
	}
	if err := txRepo.BulkUpdate(ctx, updates); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit nav flush transaction: %w", err)
	}

	return nil
}

// flushPerRecord is the repair path: each value is upserted on its own,
// and an individual failure is logged and skipped so the rest of the
// batch is unaffected.
func (s *IngestService) flushPerRecord(ctx context.Context, values []model.NavValue, existing map[string]string) {
	for _, v := range values {
		id, ok := existing[v.Key()]
		if !ok {
			id = uuid.New().String()
		}
		if err := s.navRepo.Upsert(ctx, id, v); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"fundId": v.FundID,
				"date":   v.Date.Format("2006-01-02"),
			}).Error("failed to upsert nav record; skipping")
		}
	}
}

func dedupeBatch(batch []model.NavValue) []model.NavValue {
	index := make(map[string]int, len(batch))
	deduped := make([]model.NavValue, 0, len(batch))

	for _, v := range batch {
		if i, ok := index[v.Key()]; ok {
			deduped[i] = v
			continue
		}
		index[v.Key()] = len(deduped)
		deduped = append(deduped, v)
	}

	return deduped
}
