package archive

import (
	"github.com/info-evry/astro-ndi-sub000/internal/registration"
)

// AnonymizedFirstName replaces a member's first name once the retention
// window elapses. The last name becomes empty rather than a placeholder so
// exports read as a single marker, not a fake full name.
const AnonymizedFirstName = "ANONYMIZED"

// AnonymizeMembers returns GDPR-scrubbed copies of the given members. Direct
// identifiers (names, email) and payment correlators are removed; identity
// and statistical fields (id, team_id, bac level, leadership, food
// preference, attendance, payment status/amount/tier) are preserved so
// referential integrity and historical counts survive.
//
// The input slice is never mutated, and re-anonymizing already-anonymized
// records is a no-op.
func AnonymizeMembers(members []registration.Member) []registration.Member {
	if members == nil {
		return nil
	}
	out := make([]registration.Member, len(members))
	for i, m := range members {
		m.FirstName = AnonymizedFirstName
		m.LastName = ""
		m.Email = nil
		m.CheckoutID = nil
		m.TransactionID = nil
		out[i] = m
	}
	return out
}

// AnonymizePaymentEvents returns scrubbed copies of the given payment events.
// The checkout correlator and the provider's free-form metadata (which may
// embed personal data) are removed; id, member_id, event type, amount, tier
// and timestamp are preserved.
func AnonymizePaymentEvents(events []registration.PaymentEvent) []registration.PaymentEvent {
	if events == nil {
		return nil
	}
	out := make([]registration.PaymentEvent, len(events))
	for i, e := range events {
		e.CheckoutID = nil
		e.Metadata = nil
		out[i] = e
	}
	return out
}
