package registration

import "context"

// Store is the live registration store consumed by the archival and reset
// subsystems. Day-to-day CRUD lives behind other interfaces; this one only
// exposes what snapshotting and wiping need.
type Store interface {
	// ListTeams returns every team. Implementations must not expose the
	// credential column; archives must never carry secrets.
	ListTeams(ctx context.Context) ([]Team, error)
	// ListMembers returns every member with all fields, payment fields
	// included.
	ListMembers(ctx context.Context) ([]Member, error)
	// ListPaymentEvents returns the checkout event log. A missing event-log
	// table is tolerated and reported as an empty slice.
	ListPaymentEvents(ctx context.Context) ([]PaymentEvent, error)
	// RegistrationMonths groups member creation timestamps by (year, month).
	RegistrationMonths(ctx context.Context) ([]MonthCount, error)
	// Counts reports per-table row counts.
	Counts(ctx context.Context) (Counts, error)
	// DeleteAll wipes payment events, then members, then teams, in one
	// transaction, and reports how many rows each table lost.
	DeleteAll(ctx context.Context) (Counts, error)
}
