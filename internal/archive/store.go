package archive

import (
	"context"

	"github.com/info-evry/astro-ndi-sub000/internal/registration"
)

// Store persists archives. At most one archive exists per event year, and the
// uniqueness lives at the storage layer: Create is insert-or-fail, never
// check-then-insert, so concurrent builders cannot both succeed.
type Store interface {
	// Create persists a new archive in a single write. Returns
	// sentinel.ErrConflict when an archive already exists for the year.
	Create(ctx context.Context, a *Archive) error
	// GetByYear returns the full archive, snapshots included, or
	// sentinel.ErrNotFound.
	GetByYear(ctx context.Context, year int) (*Archive, error)
	// ListSummaries returns listing metadata for all archives, newest year
	// first, without the snapshot blobs.
	ListSummaries(ctx context.Context) ([]Summary, error)
	// ListNonExpiredYears returns the years whose retention window has not
	// been enforced yet.
	ListNonExpiredYears(ctx context.Context) ([]int, error)
	// ApplyExpiration overwrites the member and payment-event snapshots with
	// the given anonymized copies and flips is_expired, but only where
	// is_expired is still false. Returns whether a row was updated, which is
	// false when a concurrent enforcer won the race.
	ApplyExpiration(ctx context.Context, year int, members []registration.Member, events []registration.PaymentEvent) (bool, error)
}
