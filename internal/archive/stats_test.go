package archive

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/info-evry/astro-ndi-sub000/internal/registration"
)

type StatsSuite struct {
	suite.Suite
}

func TestStatsSuite(t *testing.T) {
	suite.Run(t, new(StatsSuite))
}

func (s *StatsSuite) member(mutate func(*registration.Member)) registration.Member {
	m := registration.Member{
		ID:             uuid.New(),
		TeamID:         uuid.New(),
		FirstName:      "Alice",
		LastName:       "Martin",
		BacLevel:       "bac+2",
		FoodPreference: "vegetarian",
		PaymentStatus:  registration.PaymentStatusUnpaid,
		CreatedAt:      time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(&m)
	}
	return m
}

func (s *StatsSuite) TestEmptyInputs() {
	stats := ComputeStats(nil, nil, nil)
	s.Equal(0, stats.TotalTeams)
	s.Equal(0, stats.TotalParticipants)
	s.Empty(stats.ParticipantsByBacLevel)
	s.Empty(stats.FoodPreferences)
	s.Empty(stats.RegistrationTimeline)
	s.Zero(stats.Payments.TotalRevenue)
	s.Zero(stats.Attendance.CheckedIn)
	s.Zero(stats.Attendance.NoShow)
}

func (s *StatsSuite) TestRevenueSumsPaymentAmounts() {
	amount1, amount2 := int64(500), int64(1500)
	members := []registration.Member{
		s.member(func(m *registration.Member) { m.PaymentAmount = &amount1 }),
		s.member(func(m *registration.Member) { m.PaymentAmount = &amount2 }),
		s.member(nil), // nil amount counts as 0
	}
	stats := ComputeStats(nil, members, nil)
	s.Equal(int64(2000), stats.Payments.TotalRevenue)
}

func (s *StatsSuite) TestAttendancePartitionsParticipants() {
	members := []registration.Member{
		s.member(func(m *registration.Member) { m.CheckedIn = true }),
		s.member(func(m *registration.Member) { m.CheckedIn = true }),
		s.member(nil),
	}
	stats := ComputeStats(nil, members, nil)
	s.Equal(2, stats.Attendance.CheckedIn)
	s.Equal(1, stats.Attendance.NoShow)
	s.Equal(stats.TotalParticipants, stats.Attendance.CheckedIn+stats.Attendance.NoShow)
}

func (s *StatsSuite) TestPaymentBreakdown() {
	checkout := "cs_live_123"
	members := []registration.Member{
		s.member(func(m *registration.Member) {
			m.PaymentStatus = registration.PaymentStatusPaid
			m.CheckoutID = &checkout
		}),
		s.member(func(m *registration.Member) {
			m.PaymentStatus = registration.PaymentStatusPaid
		}),
		s.member(nil),
	}
	stats := ComputeStats(nil, members, nil)
	s.Equal(2, stats.Payments.Paid)
	s.Equal(1, stats.Payments.Unpaid)
	s.Equal(1, stats.Payments.PaidOnline)
	s.Equal(1, stats.Payments.PaidOnsite)
}

func (s *StatsSuite) TestHistograms() {
	members := []registration.Member{
		s.member(func(m *registration.Member) { m.BacLevel = "bac+3" }),
		s.member(func(m *registration.Member) { m.BacLevel = "bac+3" }),
		s.member(func(m *registration.Member) { m.FoodPreference = "" }),
	}
	stats := ComputeStats(nil, members, nil)
	s.Equal(2, stats.ParticipantsByBacLevel["bac+3"])
	s.Equal(1, stats.ParticipantsByBacLevel["bac+2"])
	// Empty food preferences are excluded, not counted under "".
	s.Equal(2, stats.FoodPreferences["vegetarian"])
	s.NotContains(stats.FoodPreferences, "")
}

func (s *StatsSuite) TestRegistrationTimelineBucketsByDay() {
	members := []registration.Member{
		s.member(func(m *registration.Member) {
			m.CreatedAt = time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC)
		}),
		s.member(func(m *registration.Member) {
			m.CreatedAt = time.Date(2024, 11, 20, 23, 30, 0, 0, time.UTC)
		}),
		s.member(func(m *registration.Member) {
			m.CreatedAt = time.Date(2024, 11, 21, 0, 15, 0, 0, time.UTC)
		}),
	}
	stats := ComputeStats(nil, members, nil)
	s.Equal(2, stats.RegistrationTimeline["2024-11-20"])
	s.Equal(1, stats.RegistrationTimeline["2024-11-21"])
}
