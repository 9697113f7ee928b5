package eventyear

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/info-evry/astro-ndi-sub000/internal/platform/logger"
	"github.com/info-evry/astro-ndi-sub000/internal/registration"
	"github.com/info-evry/astro-ndi-sub000/internal/settings"
)

type ResolverSuite struct {
	suite.Suite
	ctx      context.Context
	reg      *registration.InMemoryStore
	settings *settings.InMemoryStore
	resolver *Resolver
	now      time.Time
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()
	s.reg = registration.NewInMemoryStore()
	s.settings = settings.NewInMemoryStore()
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.resolver = New(s.settings, s.reg, logger.New(),
		WithClock(func() time.Time { return s.now }))
}

func (s *ResolverSuite) seedMembers(when time.Time, count int) {
	members, _ := s.reg.ListMembers(s.ctx)
	for i := 0; i < count; i++ {
		members = append(members, registration.Member{
			ID:        uuid.New(),
			CreatedAt: when,
		})
	}
	teams, _ := s.reg.ListTeams(s.ctx)
	events, _ := s.reg.ListPaymentEvents(s.ctx)
	s.reg.Seed(teams, members, events)
}

func (s *ResolverSuite) TestOverrideWins() {
	s.settings.Set(settings.KeyCurrentEventYear, "2022")
	s.seedMembers(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), 50)
	s.Equal(2022, s.resolver.Resolve(s.ctx))
}

func (s *ResolverSuite) TestNonNumericOverrideIgnored() {
	s.settings.Set(settings.KeyCurrentEventYear, "next year")
	s.seedMembers(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), 5)
	s.Equal(2024, s.resolver.Resolve(s.ctx))
}

func (s *ResolverSuite) TestBusiestMonthWins() {
	s.seedMembers(time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC), 40)
	s.seedMembers(time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC), 3)
	s.Equal(2024, s.resolver.Resolve(s.ctx))
}

func (s *ResolverSuite) TestJanuaryAttributedToPriorYear() {
	// December 2024 cluster plus a larger January 2025 cluster: both belong
	// to the 2024 edition.
	s.seedMembers(time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC), 10)
	s.seedMembers(time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC), 25)
	s.Equal(2024, s.resolver.Resolve(s.ctx))
}

func (s *ResolverSuite) TestEmptyDataFallsBackToCalendarYear() {
	s.Equal(2025, s.resolver.Resolve(s.ctx))
}

func (s *ResolverSuite) TestStoreFailureFallsBackSilently() {
	resolver := New(s.settings, failingStore{}, logger.New(),
		WithClock(func() time.Time { return s.now }))
	s.Equal(2025, resolver.Resolve(s.ctx))
}

// failingStore simulates an unreachable live store.
type failingStore struct {
	registration.Store
}

func (failingStore) RegistrationMonths(context.Context) ([]registration.MonthCount, error) {
	return nil, context.DeadlineExceeded
}
