package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// NavRecord represents one row of the NAV fact table: the per-unit price
// of a fund on a calendar date. Unique on (fund, date); re-ingestion for
// the same key updates the value in place, never appends.
type NavRecord struct {
	ID     string          `json:"id"`
	FundID string          `json:"fundId"`
	Date   time.Time       `json:"date"`
	Nav    decimal.Decimal `json:"nav"`
}

// NavValue is a pending NAV observation headed for the fact table,
// produced by resolving a parsed feed line against the fund master.
type NavValue struct {
	FundID string
	Date   time.Time
	Nav    decimal.Decimal
}

// Key returns the (fund, date) identity used for upsert partitioning and
// within-batch de-duplication.
func (v NavValue) Key() string {
	return v.FundID + "|" + v.Date.Format("2006-01-02")
}
