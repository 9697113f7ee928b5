package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/info-evry/astro-ndi-sub000/internal/archive"
	"github.com/info-evry/astro-ndi-sub000/internal/audit"
	dErrors "github.com/info-evry/astro-ndi-sub000/pkg/domain-errors"
	"github.com/info-evry/astro-ndi-sub000/pkg/platform/sentinel"
)

// ExpirationResult reports what an expiration check observed and did.
// Expired reflects the archive's state after the call; Updated is true only
// for the single call that actually applied anonymization.
type ExpirationResult struct {
	EventYear int  `json:"event_year"`
	Expired   bool `json:"expired"`
	Updated   bool `json:"updated"`
}

// CheckExpiration compares the archive's retention deadline to now and, once
// elapsed, anonymizes the stored member and payment-event snapshots and flips
// is_expired. Safe to call arbitrarily often: after the first successful
// application every later call is a no-op, and the conditional store write
// keeps a concurrent double-application from counting twice.
func (s *Service) CheckExpiration(ctx context.Context, year int) (ExpirationResult, error) {
	result := ExpirationResult{EventYear: year}

	a, err := s.archives.GetByYear(ctx, year)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return result, nil
		}
		s.logger.ErrorContext(ctx, "expiration check read failed",
			"event_year", year,
			"error", err.Error(),
		)
		return result, dErrors.New(dErrors.CodeInternal, "failed to read archive")
	}

	if a.IsExpired {
		result.Expired = true
		return result, nil
	}
	if s.clock().Before(a.ExpirationDate) {
		return result, nil
	}

	members := archive.AnonymizeMembers(a.Members)
	events := archive.AnonymizePaymentEvents(a.PaymentEvents)
	updated, err := s.archives.ApplyExpiration(ctx, year, members, events)
	if err != nil {
		s.logger.ErrorContext(ctx, "expiration apply failed",
			"event_year", year,
			"error", err.Error(),
		)
		return result, dErrors.New(dErrors.CodeInternal, "failed to anonymize archive")
	}

	result.Expired = true
	result.Updated = updated
	if updated {
		s.metrics.ExpirationsApplied.Inc()
		s.invalidateCache(ctx)
		s.emitAudit(ctx, audit.Event{
			Action:    audit.ActionArchiveExpired,
			EventYear: year,
			Detail:    fmt.Sprintf("anonymized %d members, %d payment events", len(members), len(events)),
		})
		s.logger.InfoContext(ctx, "archive anonymized after retention window",
			"event_year", year,
			"members", len(members),
			"payment_events", len(events),
		)
	}
	return result, nil
}

// CheckAllExpirations sweeps every non-expired archive. Intended for the
// daily worker as well as manual triggering from the admin surface.
func (s *Service) CheckAllExpirations(ctx context.Context) ([]ExpirationResult, error) {
	years, err := s.archives.ListNonExpiredYears(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "expiration sweep listing failed", "error", err.Error())
		return nil, dErrors.New(dErrors.CodeInternal, "failed to list archives")
	}

	s.metrics.ExpirationSweeps.Inc()
	results := make([]ExpirationResult, 0, len(years))
	for _, year := range years {
		result, err := s.CheckExpiration(ctx, year)
		if err != nil {
			// One bad archive must not stall the rest of the sweep.
			s.logger.ErrorContext(ctx, "expiration check failed during sweep",
				"event_year", year,
				"error", err.Error(),
			)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}
