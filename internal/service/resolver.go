package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fundadmin/internal/amfi"
	"fundadmin/internal/model"
)

// resolverCache memoizes AMC and fund lookups for the duration of one
// ingestion run. It is owned by a single run and never shared; separate
// invocations resolve from scratch and rely on storage-level uniqueness.
type resolverCache struct {
	amcs  map[string]model.AmcEntry
	funds map[string]model.Fund
}

func newResolverCache() *resolverCache {
	return &resolverCache{
		amcs:  make(map[string]model.AmcEntry),
		funds: make(map[string]model.Fund),
	}
}

func fundCacheKey(amcID, fundName string) string {
	return amcID + "|" + fundName
}

// resolveAmc returns the AMC for a fund-family name, creating it on first
// sighting. Idempotent get-or-create, memoized per run.
func (s *IngestService) resolveAmc(ctx context.Context, cache *resolverCache, familyName string) (model.AmcEntry, error) {
	if amc, ok := cache.amcs[familyName]; ok {
		return amc, nil
	}

	existing, err := s.amcRepo.GetByName(familyName)
	if err != nil {
		return model.AmcEntry{}, err
	}
	if existing != nil {
		cache.amcs[familyName] = *existing
		return *existing, nil
	}

	amc := model.AmcEntry{
		ID:   uuid.New().String(),
		Name: familyName,
	}
	if err := s.amcRepo.Insert(ctx, &amc); err != nil {
		// A concurrent run may have created the same family between the
		// lookup and the insert; re-read before giving up.
		if retry, lookupErr := s.amcRepo.GetByName(familyName); lookupErr == nil && retry != nil {
			cache.amcs[familyName] = *retry
			return *retry, nil
		}
		return model.AmcEntry{}, fmt.Errorf("failed to create amc %q: %w", familyName, err)
	}

	cache.amcs[familyName] = amc
	return amc, nil
}

// resolveFund maps a feed line to the fund it describes, creating the
// fund when unknown and reconciling scheme codes.
//
// The feed's fund-name spelling is not perfectly stable across days, but
// a scheme code is a durable key once observed. The precedence rules:
//
//  1. Found by (amc, name) with a differing, usable code on the line:
//     a. another fund already owns that code: if its name differs this
//     is a naming collision and the existing code owner wins (logged,
//     nothing overwritten); if the name matches, the found fund's
//     code is corrected to the line's code.
//     b. the code is unowned: back-fill it onto the found fund.
//  2. Not found by (amc, name): a fund owning the line's code is reused
//     (same fund under a different framing, logged); otherwise a new
//     fund is created under this AMC.
func (s *IngestService) resolveFund(ctx context.Context, cache *resolverCache, amc model.AmcEntry, line amfi.ParsedLine) (model.Fund, error) {
	key := fundCacheKey(amc.ID, line.FundName)
	if fund, ok := cache.funds[key]; ok {
		return fund, nil
	}

	fund, err := s.lookupOrCreateFund(ctx, amc, line)
	if err != nil {
		return model.Fund{}, err
	}

	cache.funds[key] = fund
	return fund, nil
}

func (s *IngestService) lookupOrCreateFund(ctx context.Context, amc model.AmcEntry, line amfi.ParsedLine) (model.Fund, error) {
	found, err := s.fundRepo.GetByAmcAndName(amc.ID, line.FundName)
	if err != nil {
		return model.Fund{}, err
	}

	if found != nil {
		return s.reconcileSchemeCode(ctx, *found, line)
	}

	// No fund under this (amc, name); the scheme code may still identify
	// an already-known fund.
	if line.HasSchemeCode() {
		owner, err := s.fundRepo.GetBySchemeCode(line.SchemeCode)
		if err != nil {
			return model.Fund{}, err
		}
		if owner != nil {
			s.log.WithFields(logrus.Fields{
				"schemeCode":   line.SchemeCode,
				"existingFund": owner.Name,
				"feedFund":     line.FundName,
			}).Warn("scheme code already exists; reusing existing fund")
			return *owner, nil
		}
	}

	fund := model.Fund{
		ID:    uuid.New().String(),
		AmcID: amc.ID,
		Name:  line.FundName,
	}
	if line.HasSchemeCode() {
		fund.SchemeCode = line.SchemeCode
	}
	if err := s.fundRepo.Insert(ctx, &fund); err != nil {
		return model.Fund{}, fmt.Errorf("failed to create fund %q: %w", line.FundName, err)
	}

	return fund, nil
}

func (s *IngestService) reconcileSchemeCode(ctx context.Context, fund model.Fund, line amfi.ParsedLine) (model.Fund, error) {
	if !line.HasSchemeCode() || fund.SchemeCode == line.SchemeCode {
		return fund, nil
	}

	owner, err := s.fundRepo.GetBySchemeCode(line.SchemeCode)
	if err != nil {
		return model.Fund{}, err
	}

	if owner != nil && owner.ID != fund.ID {
		if owner.Name != line.FundName {
			// Naming collision: the established code owner is
			// authoritative, the colliding line resolves to it.
			s.log.WithFields(logrus.Fields{
				"schemeCode":   line.SchemeCode,
				"feedFund":     line.FundName,
				"existingFund": owner.Name,
			}).Warn("scheme code conflict; using existing fund")
			return *owner, nil
		}

		s.log.WithFields(logrus.Fields{
			"fund":       line.FundName,
			"schemeCode": line.SchemeCode,
		}).Info("updating scheme code for fund")
	}

	if err := s.fundRepo.UpdateSchemeCode(ctx, fund.ID, line.SchemeCode); err != nil {
		return model.Fund{}, err
	}
	fund.SchemeCode = line.SchemeCode

	return fund, nil
}
