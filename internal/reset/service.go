// Package reset gates and performs the destructive wipe of the live
// registration store between event cycles. The only thing standing between
// an admin and a year of lost data is the archive-existence check here, so
// the flow is deliberately two-step: a warning response first, force second.
package reset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/info-evry/astro-ndi-sub000/internal/archive"
	"github.com/info-evry/astro-ndi-sub000/internal/archive/metrics"
	"github.com/info-evry/astro-ndi-sub000/internal/audit"
	"github.com/info-evry/astro-ndi-sub000/internal/registration"
	dErrors "github.com/info-evry/astro-ndi-sub000/pkg/domain-errors"
)

// ConfirmationToken is the literal a caller must supply to reset anything.
const ConfirmationToken = "RESET_ALL_DATA"

// Archiver is the slice of the archive service the coordinator consults.
type Archiver interface {
	CurrentYear(ctx context.Context) int
	Exists(ctx context.Context, year int) (bool, error)
	Create(ctx context.Context, year int) (archive.Summary, error)
}

// Service coordinates reset safety checks and the wipe itself. It never
// touches archives; they outlive every reset.
type Service struct {
	reg      registration.Store
	archiver Archiver
	metrics  *metrics.Metrics
	audit    *audit.Publisher
	logger   *slog.Logger
}

func New(reg registration.Store, archiver Archiver, m *metrics.Metrics, auditPublisher *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{
		reg:      reg,
		archiver: archiver,
		metrics:  m,
		audit:    auditPublisher,
		logger:   logger,
	}
}

// SafetyReport says whether wiping now would lose unarchived data.
type SafetyReport struct {
	EventYear     int                 `json:"event_year"`
	ArchiveExists bool                `json:"archive_exists"`
	LiveCounts    registration.Counts `json:"live_counts"`
	Safe          bool                `json:"safe"`
}

// Request carries the caller's reset intent.
type Request struct {
	Confirmation       string `json:"confirmation"`
	Force              bool   `json:"force"`
	CreateArchiveFirst bool   `json:"create_archive_first"`
}

// Result reports what a reset call did. A Warning with Performed still false
// is the normal "no archive, confirm intent" response, not an error.
type Result struct {
	Performed      bool                `json:"performed"`
	Warning        string              `json:"warning,omitempty"`
	EventYear      int                 `json:"event_year"`
	LiveCounts     registration.Counts `json:"live_counts"`
	Deleted        registration.Counts `json:"deleted"`
	ArchiveCreated bool                `json:"archive_created"`
}

// CheckSafety resolves the current event year and reports whether a wipe
// would be safe: an archive exists for it, or there is nothing to lose.
func (s *Service) CheckSafety(ctx context.Context) (SafetyReport, error) {
	year := s.archiver.CurrentYear(ctx)
	exists, err := s.archiver.Exists(ctx, year)
	if err != nil {
		s.logger.ErrorContext(ctx, "reset safety archive check failed",
			"event_year", year,
			"error", err.Error(),
		)
		return SafetyReport{}, dErrors.New(dErrors.CodeInternal, "failed to check archive")
	}
	counts, err := s.reg.Counts(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "reset safety count failed", "error", err.Error())
		return SafetyReport{}, dErrors.New(dErrors.CodeInternal, "failed to count live data")
	}
	return SafetyReport{
		EventYear:     year,
		ArchiveExists: exists,
		LiveCounts:    counts,
		Safe:          exists || counts.Empty(),
	}, nil
}

// WipeAll deletes all live payment events, members and teams, in that
// dependency order, and reports per-table counts.
func (s *Service) WipeAll(ctx context.Context) (registration.Counts, error) {
	deleted, err := s.reg.DeleteAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "live data wipe failed", "error", err.Error())
		return registration.Counts{}, dErrors.New(dErrors.CodeInternal, "failed to wipe live data")
	}
	return deleted, nil
}

// Reset performs the gated wipe for a new event cycle.
func (s *Service) Reset(ctx context.Context, req Request) (Result, error) {
	if req.Confirmation != ConfirmationToken {
		return Result{}, dErrors.New(dErrors.CodeBadRequest, "confirmation token mismatch")
	}

	year := s.archiver.CurrentYear(ctx)
	result := Result{EventYear: year}

	exists, err := s.archiver.Exists(ctx, year)
	if err != nil {
		s.logger.ErrorContext(ctx, "reset archive check failed",
			"event_year", year,
			"error", err.Error(),
		)
		return Result{}, dErrors.New(dErrors.CodeInternal, "failed to check archive")
	}

	counts, err := s.reg.Counts(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "reset count failed", "error", err.Error())
		return Result{}, dErrors.New(dErrors.CodeInternal, "failed to count live data")
	}
	result.LiveCounts = counts

	if req.CreateArchiveFirst && !exists && (counts.Teams > 0 || counts.Members > 0) {
		if _, err := s.archiver.Create(ctx, year); err != nil {
			return Result{}, err
		}
		result.ArchiveCreated = true
		exists = true
	}

	if !exists && !req.Force {
		if counts.Empty() {
			// Nothing archived, but also nothing to lose.
			exists = true
		} else {
			result.Warning = fmt.Sprintf(
				"no archive exists for %d; resetting would discard %d teams, %d members and %d payment events. Retry with force to proceed",
				year, counts.Teams, counts.Members, counts.PaymentEvents)
			return result, nil
		}
	}

	deleted, err := s.WipeAll(ctx)
	if err != nil {
		return Result{}, err
	}
	result.Performed = true
	result.Deleted = deleted

	s.metrics.ResetsPerformed.Inc()
	if s.audit != nil {
		auditEvent := audit.Event{
			Action:    audit.ActionDataReset,
			EventYear: year,
			Detail: fmt.Sprintf("deleted %d teams, %d members, %d payment events (archive created: %t)",
				deleted.Teams, deleted.Members, deleted.PaymentEvents, result.ArchiveCreated),
		}
		if err := s.audit.Emit(ctx, auditEvent); err != nil {
			s.logger.WarnContext(ctx, "audit emit failed",
				"action", string(auditEvent.Action),
				"error", err.Error(),
			)
		}
	}
	s.logger.InfoContext(ctx, "live data reset",
		"event_year", year,
		"deleted_teams", deleted.Teams,
		"deleted_members", deleted.Members,
		"deleted_payment_events", deleted.PaymentEvents,
		"archive_created", result.ArchiveCreated,
	)
	return result, nil
}
