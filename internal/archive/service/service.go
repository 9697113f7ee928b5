// Package service orchestrates the archive lifecycle: snapshot construction,
// retention enforcement, listing and export. Pure computation (stats,
// fingerprint, anonymization) lives in the archive package; storage behind
// the archive.Store interface.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/info-evry/astro-ndi-sub000/internal/archive"
	"github.com/info-evry/astro-ndi-sub000/internal/archive/metrics"
	"github.com/info-evry/astro-ndi-sub000/internal/audit"
	"github.com/info-evry/astro-ndi-sub000/internal/eventyear"
	"github.com/info-evry/astro-ndi-sub000/internal/registration"
	"github.com/info-evry/astro-ndi-sub000/internal/settings"
	dErrors "github.com/info-evry/astro-ndi-sub000/pkg/domain-errors"
	"github.com/info-evry/astro-ndi-sub000/pkg/platform/sentinel"
)

// DefaultRetentionYears applies when the retention setting is unset or
// unparseable. Three years matches the legal default the organizers operate
// under.
const DefaultRetentionYears = 3

// Plausible bounds for an event year; anything outside is caller error.
const (
	minEventYear = 2000
	maxEventYear = 2100
)

// Clock lets tests pin "now".
type Clock func() time.Time

// Service implements the archive builder, reader and expiration enforcer.
type Service struct {
	archives archive.Store
	reg      registration.Store
	settings settings.Store
	resolver *eventyear.Resolver
	cache    *SummaryCache
	metrics  *metrics.Metrics
	audit    *audit.Publisher
	logger   *slog.Logger
	clock    Clock
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithSummaryCache enables the redis-backed archive summary cache.
func WithSummaryCache(cache *SummaryCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func New(
	archives archive.Store,
	reg registration.Store,
	settingsStore settings.Store,
	resolver *eventyear.Resolver,
	m *metrics.Metrics,
	auditPublisher *audit.Publisher,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		archives: archives,
		reg:      reg,
		settings: settingsStore,
		resolver: resolver,
		metrics:  m,
		audit:    auditPublisher,
		logger:   logger,
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CurrentYear reports the resolved event year.
func (s *Service) CurrentYear(ctx context.Context) int {
	return s.resolver.Resolve(ctx)
}

// Exists reports whether an archive exists for the given year.
func (s *Service) Exists(ctx context.Context, year int) (bool, error) {
	_, err := s.archives.GetByYear(ctx, year)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check archive existence: %w", err)
	}
	return true, nil
}

// Create snapshots the live store into a new archive for the given year. A
// year of 0 means "resolve the current event year". The write is a single
// insert; the storage-level uniqueness on event_year decides conflicts, not
// a pre-check.
func (s *Service) Create(ctx context.Context, year int) (archive.Summary, error) {
	if year == 0 {
		year = s.resolver.Resolve(ctx)
	}
	if year < minEventYear || year > maxEventYear {
		return archive.Summary{}, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("event year %d out of range", year))
	}

	snapshot, err := s.fetchSnapshot(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "snapshot fetch failed",
			"event_year", year,
			"error", err.Error(),
		)
		return archive.Summary{}, dErrors.New(dErrors.CodeInternal, "failed to read live data")
	}
	if len(snapshot.Teams) == 0 && len(snapshot.Members) == 0 {
		return archive.Summary{}, dErrors.New(dErrors.CodePreconditionFailed, "no data to archive")
	}

	now := s.clock()
	a := &archive.Archive{
		EventYear:         year,
		ArchivedAt:        now,
		ExpirationDate:    now.AddDate(s.retentionYears(ctx), 0, 0),
		TotalTeams:        len(snapshot.Teams),
		TotalParticipants: len(snapshot.Members),
		TotalRevenue:      totalRevenue(snapshot.Members),
		Teams:             snapshot.Teams,
		Members:           snapshot.Members,
		PaymentEvents:     snapshot.PaymentEvents,
		Stats:             archive.ComputeStats(snapshot.Teams, snapshot.Members, snapshot.PaymentEvents),
	}
	a.DataHash, err = archive.Fingerprint(snapshot)
	if err != nil {
		return archive.Summary{}, dErrors.New(dErrors.CodeInternal, "failed to fingerprint snapshot")
	}

	if err := s.archives.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return archive.Summary{}, dErrors.New(dErrors.CodeConflict,
				fmt.Sprintf("archive already exists for %d", year))
		}
		s.logger.ErrorContext(ctx, "archive insert failed",
			"event_year", year,
			"error", err.Error(),
		)
		return archive.Summary{}, dErrors.New(dErrors.CodeInternal, "failed to persist archive")
	}

	s.metrics.ArchivesCreated.Inc()
	s.invalidateCache(ctx)
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionArchiveCreated,
		EventYear: year,
		Detail: fmt.Sprintf("%d teams, %d participants, revenue %d",
			a.TotalTeams, a.TotalParticipants, a.TotalRevenue),
	})
	s.logger.InfoContext(ctx, "archive created",
		"event_year", year,
		"teams", a.TotalTeams,
		"participants", a.TotalParticipants,
		"data_hash", a.DataHash,
	)
	return a.Summary(), nil
}

// Get returns the archive for a year, enforcing the retention window first
// so readers always observe the current (possibly anonymized) state.
func (s *Service) Get(ctx context.Context, year int) (*archive.Archive, error) {
	if _, err := s.CheckExpiration(ctx, year); err != nil {
		return nil, err
	}
	a, err := s.archives.GetByYear(ctx, year)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("no archive for %d", year))
		}
		s.logger.ErrorContext(ctx, "archive read failed",
			"event_year", year,
			"error", err.Error(),
		)
		return nil, dErrors.New(dErrors.CodeInternal, "failed to read archive")
	}
	return a, nil
}

// List returns summaries for all archives, heaviest blobs excluded. Served
// from the redis cache when warm.
func (s *Service) List(ctx context.Context) ([]archive.Summary, error) {
	if s.cache != nil {
		if summaries, ok := s.cache.Get(ctx); ok {
			return summaries, nil
		}
	}
	summaries, err := s.archives.ListSummaries(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "archive listing failed", "error", err.Error())
		return nil, dErrors.New(dErrors.CodeInternal, "failed to list archives")
	}
	if s.cache != nil {
		s.cache.Set(ctx, summaries)
	}
	return summaries, nil
}

// fetchSnapshot pulls the three entity lists in parallel; all reads are
// consistent enough for archival since registration is closed by then.
func (s *Service) fetchSnapshot(ctx context.Context) (archive.Snapshot, error) {
	var snapshot archive.Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.reg.ListTeams(ctx)
		snapshot.Teams = teams
		return err
	})
	g.Go(func() error {
		members, err := s.reg.ListMembers(ctx)
		snapshot.Members = members
		return err
	})
	g.Go(func() error {
		events, err := s.reg.ListPaymentEvents(ctx)
		snapshot.PaymentEvents = events
		return err
	})
	if err := g.Wait(); err != nil {
		return archive.Snapshot{}, err
	}
	return snapshot, nil
}

func (s *Service) retentionYears(ctx context.Context) int {
	value, err := s.settings.Get(ctx, settings.KeyRetentionYears)
	if err != nil {
		return DefaultRetentionYears
	}
	years, err := strconv.Atoi(value)
	if err != nil || years < 0 {
		s.logger.WarnContext(ctx, "ignoring invalid retention setting",
			"value", value,
		)
		return DefaultRetentionYears
	}
	return years
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// emitAudit records a lifecycle event; audit failures are logged, never
// propagated, so the mutation they describe is not rolled back.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", string(event.Action),
			"error", err.Error(),
		)
	}
}

func totalRevenue(members []registration.Member) int64 {
	var total int64
	for _, m := range members {
		if m.PaymentAmount != nil {
			total += *m.PaymentAmount
		}
	}
	return total
}
