package registration

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks whether a member has settled the participation fee.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// Team is one registered team. Teams carry no personal data beyond their
// name; the login credential column never leaves the store layer.
type Team struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Room      string    `json:"room"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is one registered participant, including payment fields. Pointer
// fields are optional in the live store and may be nil.
type Member struct {
	ID             uuid.UUID     `json:"id"`
	TeamID         uuid.UUID     `json:"team_id"`
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name"`
	Email          *string       `json:"email"`
	BacLevel       string        `json:"bac_level"`
	IsLeader       bool          `json:"is_leader"`
	FoodPreference string        `json:"food_preference"`
	CheckedIn      bool          `json:"checked_in"`
	CheckedInAt    *time.Time    `json:"checked_in_at"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	PaymentAmount  *int64        `json:"payment_amount"`
	PaymentTier    string        `json:"payment_tier"`
	CheckoutID     *string       `json:"checkout_id"`
	TransactionID  *string       `json:"transaction_id"`
	CreatedAt      time.Time     `json:"created_at"`
}

// PaymentEvent is one row of the checkout-provider event log. Metadata is the
// provider's raw payload and may embed personal data.
type PaymentEvent struct {
	ID         uuid.UUID `json:"id"`
	MemberID   uuid.UUID `json:"member_id"`
	EventType  string    `json:"event_type"`
	Amount     int64     `json:"amount"`
	Tier       string    `json:"tier"`
	CheckoutID *string   `json:"checkout_id"`
	Metadata   *string   `json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}

// Counts reports per-table row counts for the live store.
type Counts struct {
	Teams         int `json:"teams"`
	Members       int `json:"members"`
	PaymentEvents int `json:"payment_events"`
}

// Empty reports whether the live store holds no registration data at all.
func (c Counts) Empty() bool {
	return c.Teams == 0 && c.Members == 0 && c.PaymentEvents == 0
}

// MonthCount is one (year, month) registration bucket.
type MonthCount struct {
	Year  int
	Month time.Month
	Count int
}
