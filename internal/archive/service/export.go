package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/info-evry/astro-ndi-sub000/internal/archive"
	"github.com/info-evry/astro-ndi-sub000/internal/registration"
)

// ExportMetadata describes the archive an export bundle came from.
type ExportMetadata struct {
	EventYear      int       `json:"event_year"`
	ArchivedAt     time.Time `json:"archived_at"`
	ExpirationDate time.Time `json:"expiration_date"`
	IsExpired      bool      `json:"is_expired"`
	DataHash       string    `json:"data_hash"`
	ExportedAt     time.Time `json:"exported_at"`
}

// ExportBundle carries an archive's snapshot as derived documents: structured
// data plus CSV text per entity, the write-once statistics, and a
// human-readable note on anonymization status. The participant column set
// shrinks once the archive is expired so exports cannot resurrect scrubbed
// identifiers.
type ExportBundle struct {
	Metadata         ExportMetadata              `json:"metadata"`
	Stats            archive.Stats               `json:"stats"`
	Teams            []registration.Team         `json:"teams"`
	TeamsCSV         string                      `json:"teams_csv"`
	Participants     []registration.Member       `json:"participants"`
	ParticipantsCSV  string                      `json:"participants_csv"`
	PaymentEvents    []registration.PaymentEvent `json:"payment_events,omitempty"`
	PaymentEventsCSV string                      `json:"payment_events_csv,omitempty"`
	Note             string                      `json:"note"`
}

// Export builds the export bundle for a year, enforcing expiration first via
// the reader path so a just-elapsed retention window is applied before any
// data leaves the system.
func (s *Service) Export(ctx context.Context, year int) (*ExportBundle, error) {
	a, err := s.Get(ctx, year)
	if err != nil {
		return nil, err
	}

	bundle := &ExportBundle{
		Metadata: ExportMetadata{
			EventYear:      a.EventYear,
			ArchivedAt:     a.ArchivedAt,
			ExpirationDate: a.ExpirationDate,
			IsExpired:      a.IsExpired,
			DataHash:       a.DataHash,
			ExportedAt:     s.clock(),
		},
		Stats:        a.Stats,
		Teams:        a.Teams,
		TeamsCSV:     teamsCSV(a.Teams),
		Participants: a.Members,
	}
	bundle.ParticipantsCSV = participantsCSV(a.Members, a.IsExpired)
	if len(a.PaymentEvents) > 0 {
		bundle.PaymentEvents = a.PaymentEvents
		bundle.PaymentEventsCSV = paymentEventsCSV(a.PaymentEvents)
	}

	if a.IsExpired {
		bundle.Note = fmt.Sprintf(
			"Archive %d: personal data anonymized on retention expiry (deadline %s). Statistics reflect the original snapshot.",
			a.EventYear, a.ExpirationDate.Format("2006-01-02"))
	} else {
		bundle.Note = fmt.Sprintf(
			"Archive %d: personal data readable until %s, anonymized automatically afterwards.",
			a.EventYear, a.ExpirationDate.Format("2006-01-02"))
	}
	return bundle, nil
}

func teamsCSV(teams []registration.Team) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "name", "room", "created_at"})
	for _, t := range teams {
		_ = w.Write([]string{
			t.ID.String(),
			t.Name,
			t.Room,
			t.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	return buf.String()
}

func participantsCSV(members []registration.Member, expired bool) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "team_id"}
	if !expired {
		header = append(header, "first_name", "last_name", "email")
	}
	header = append(header, "bac_level", "is_leader", "food_preference",
		"checked_in", "payment_status", "payment_amount", "payment_tier")
	_ = w.Write(header)

	for _, m := range members {
		row := []string{m.ID.String(), m.TeamID.String()}
		if !expired {
			row = append(row, m.FirstName, m.LastName, derefString(m.Email))
		}
		row = append(row,
			m.BacLevel,
			strconv.FormatBool(m.IsLeader),
			m.FoodPreference,
			strconv.FormatBool(m.CheckedIn),
			string(m.PaymentStatus),
			formatAmount(m.PaymentAmount),
			m.PaymentTier,
		)
		_ = w.Write(row)
	}
	w.Flush()
	return buf.String()
}

func paymentEventsCSV(events []registration.PaymentEvent) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "member_id", "event_type", "amount", "tier", "created_at"})
	for _, e := range events {
		_ = w.Write([]string{
			e.ID.String(),
			e.MemberID.String(),
			e.EventType,
			strconv.FormatInt(e.Amount, 10),
			e.Tier,
			e.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	return buf.String()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatAmount(amount *int64) string {
	if amount == nil {
		return ""
	}
	return strconv.FormatInt(*amount, 10)
}
