package archive

import (
	"github.com/info-evry/astro-ndi-sub000/internal/registration"
)

// Stats is the aggregate statistics document computed once at archive time
// from the pre-anonymization snapshot. It is the permanent historical record
// of an event and stays numerically accurate after the personal rows are
// scrubbed, because anonymization never removes count-bearing rows.
type Stats struct {
	TotalTeams             int            `json:"total_teams"`
	TotalParticipants      int            `json:"total_participants"`
	ParticipantsByBacLevel map[string]int `json:"participants_by_bac_level"`
	FoodPreferences        map[string]int `json:"food_preferences"`
	Attendance             Attendance     `json:"attendance"`
	Payments               Payments       `json:"payments"`
	RegistrationTimeline   map[string]int `json:"registration_timeline"`
}

type Attendance struct {
	CheckedIn int `json:"checked_in"`
	NoShow    int `json:"no_show"`
}

type Payments struct {
	TotalRevenue int64 `json:"total_revenue"`
	Paid         int   `json:"paid"`
	Unpaid       int   `json:"unpaid"`
	PaidOnline   int   `json:"paid_online"`
	PaidOnsite   int   `json:"paid_onsite"`
}

// ComputeStats derives the aggregate statistics document from a snapshot.
// Pure: no I/O, deterministic, and tolerant of empty inputs and nil optional
// fields.
func ComputeStats(teams []registration.Team, members []registration.Member, events []registration.PaymentEvent) Stats {
	stats := Stats{
		TotalTeams:             len(teams),
		TotalParticipants:      len(members),
		ParticipantsByBacLevel: make(map[string]int),
		FoodPreferences:        make(map[string]int),
		RegistrationTimeline:   make(map[string]int),
	}

	for _, m := range members {
		stats.ParticipantsByBacLevel[m.BacLevel]++
		if m.FoodPreference != "" {
			stats.FoodPreferences[m.FoodPreference]++
		}

		if m.CheckedIn {
			stats.Attendance.CheckedIn++
		} else {
			stats.Attendance.NoShow++
		}

		if m.PaymentAmount != nil {
			stats.Payments.TotalRevenue += *m.PaymentAmount
		}
		if m.PaymentStatus == registration.PaymentStatusPaid {
			stats.Payments.Paid++
			// Online payments carry a checkout correlator; onsite ones do not.
			if m.CheckoutID != nil && *m.CheckoutID != "" {
				stats.Payments.PaidOnline++
			} else {
				stats.Payments.PaidOnsite++
			}
		} else {
			stats.Payments.Unpaid++
		}

		stats.RegistrationTimeline[m.CreatedAt.Format("2006-01-02")]++
	}

	return stats
}
