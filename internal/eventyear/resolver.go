// Package eventyear decides which calendar year counts as "the current
// event" for archival and reset purposes. The event runs overnight around
// the turn of November/December, so registrations that trickle in during
// January still belong to the previous edition.
package eventyear

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/info-evry/astro-ndi-sub000/internal/registration"
	"github.com/info-evry/astro-ndi-sub000/internal/settings"
)

// Clock lets tests pin "now".
type Clock func() time.Time

// Resolver computes the current event year per call; it is deliberately not
// a process-wide value since an admin override or fresh registrations can
// change the answer between requests.
type Resolver struct {
	settings settings.Store
	reg      registration.Store
	logger   *slog.Logger
	clock    Clock
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) Option {
	return func(r *Resolver) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func New(settingsStore settings.Store, reg registration.Store, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		settings: settingsStore,
		reg:      reg,
		logger:   logger,
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve returns the current event year. It never fails: an explicit admin
// override wins, then the busiest registration month, then the calendar year.
// Query failures degrade silently to the calendar year because this resolver
// gates other workflows.
func (r *Resolver) Resolve(ctx context.Context) int {
	if value, err := r.settings.Get(ctx, settings.KeyCurrentEventYear); err == nil {
		if year, err := strconv.Atoi(value); err == nil {
			return year
		}
		r.logger.WarnContext(ctx, "ignoring non-numeric event year override",
			"value", value,
		)
	}

	buckets, err := r.reg.RegistrationMonths(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "falling back to calendar year",
			"error", err.Error(),
		)
		return r.clock().Year()
	}
	if len(buckets) == 0 {
		return r.clock().Year()
	}

	busiest := buckets[0]
	for _, b := range buckets[1:] {
		if b.Count > busiest.Count {
			busiest = b
		}
	}

	// January registrations are stragglers of the previous edition.
	if busiest.Month == time.January {
		return busiest.Year - 1
	}
	return busiest.Year
}
