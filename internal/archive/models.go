package archive

import (
	"time"

	"github.com/info-evry/astro-ndi-sub000/internal/registration"
)

// Archive is the one-per-year snapshot of a completed event. It is created
// once by the builder and mutated exactly once by the expiration enforcer,
// which replaces the member and payment-event snapshots with anonymized
// copies and flips IsExpired. Stats and DataHash are write-once: they keep
// describing the original snapshot even after anonymization.
type Archive struct {
	EventYear         int                        `json:"event_year"`
	ArchivedAt        time.Time                  `json:"archived_at"`
	ExpirationDate    time.Time                  `json:"expiration_date"`
	IsExpired         bool                       `json:"is_expired"`
	TotalTeams        int                        `json:"total_teams"`
	TotalParticipants int                        `json:"total_participants"`
	TotalRevenue      int64                      `json:"total_revenue"`
	Teams             []registration.Team        `json:"teams_snapshot"`
	Members           []registration.Member      `json:"members_snapshot"`
	PaymentEvents     []registration.PaymentEvent `json:"payment_events_snapshot"`
	Stats             Stats                      `json:"stats"`
	DataHash          string                     `json:"data_hash"`
}

// Summary is the lightweight listing shape: everything except the snapshot
// blobs.
type Summary struct {
	EventYear         int       `json:"event_year"`
	ArchivedAt        time.Time `json:"archived_at"`
	ExpirationDate    time.Time `json:"expiration_date"`
	IsExpired         bool      `json:"is_expired"`
	TotalTeams        int       `json:"total_teams"`
	TotalParticipants int       `json:"total_participants"`
	TotalRevenue      int64     `json:"total_revenue"`
	Stats             Stats     `json:"stats"`
}

// Summary projects the listing shape out of a full archive.
func (a *Archive) Summary() Summary {
	return Summary{
		EventYear:         a.EventYear,
		ArchivedAt:        a.ArchivedAt,
		ExpirationDate:    a.ExpirationDate,
		IsExpired:         a.IsExpired,
		TotalTeams:        a.TotalTeams,
		TotalParticipants: a.TotalParticipants,
		TotalRevenue:      a.TotalRevenue,
		Stats:             a.Stats,
	}
}

// Snapshot is the raw triple the builder persists and the fingerprinter
// hashes. Field order is fixed; the canonical encoding depends on it.
type Snapshot struct {
	Teams         []registration.Team         `json:"teams"`
	Members       []registration.Member       `json:"members"`
	PaymentEvents []registration.PaymentEvent `json:"payment_events"`
}
