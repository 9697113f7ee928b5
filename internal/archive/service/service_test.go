package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/info-evry/astro-ndi-sub000/internal/archive"
	"github.com/info-evry/astro-ndi-sub000/internal/archive/metrics"
	"github.com/info-evry/astro-ndi-sub000/internal/audit"
	"github.com/info-evry/astro-ndi-sub000/internal/eventyear"
	"github.com/info-evry/astro-ndi-sub000/internal/platform/logger"
	"github.com/info-evry/astro-ndi-sub000/internal/registration"
	"github.com/info-evry/astro-ndi-sub000/internal/settings"
	dErrors "github.com/info-evry/astro-ndi-sub000/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	archives   *archive.InMemoryStore
	reg        *registration.InMemoryStore
	settings   *settings.InMemoryStore
	auditStore *audit.InMemoryStore
	service    *Service
	now        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.archives = archive.NewInMemoryStore()
	s.reg = registration.NewInMemoryStore()
	s.settings = settings.NewInMemoryStore()
	s.auditStore = audit.NewInMemoryStore()
	s.now = time.Date(2024, 12, 10, 8, 0, 0, 0, time.UTC)

	log := logger.New()
	resolver := eventyear.New(s.settings, s.reg, log,
		eventyear.WithClock(func() time.Time { return s.now }))
	s.service = New(
		s.archives, s.reg, s.settings, resolver,
		metrics.NewWithRegisterer(prometheus.NewRegistry()),
		audit.NewPublisher(s.auditStore),
		log,
		WithClock(func() time.Time { return s.now }),
	)
}

// seedEvent populates 2 teams and 5 members, one paid 500, plus one payment
// event, registered in November/December 2024.
func (s *ServiceSuite) seedEvent() {
	team1, team2 := uuid.New(), uuid.New()
	amount := int64(500)
	checkout := "cs_live_42"
	members := make([]registration.Member, 5)
	for i := range members {
		members[i] = registration.Member{
			ID:        uuid.New(),
			TeamID:    team1,
			FirstName: "Member",
			LastName:  "Five",
			BacLevel:  "bac+2",
			CreatedAt: time.Date(2024, 11, 18+i, 12, 0, 0, 0, time.UTC),
		}
	}
	members[0].PaymentStatus = registration.PaymentStatusPaid
	members[0].PaymentAmount = &amount
	members[0].CheckoutID = &checkout
	for i := 1; i < 5; i++ {
		members[i].PaymentStatus = registration.PaymentStatusUnpaid
	}

	s.reg.Seed(
		[]registration.Team{
			{ID: team1, Name: "Segfault Club", CreatedAt: time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)},
			{ID: team2, Name: "Null Pointers", CreatedAt: time.Date(2024, 11, 16, 0, 0, 0, 0, time.UTC)},
		},
		members,
		[]registration.PaymentEvent{
			{ID: uuid.New(), MemberID: members[0].ID, EventType: "checkout.completed", Amount: 500, CheckoutID: &checkout, CreatedAt: s.now},
		},
	)
}

func (s *ServiceSuite) TestCreateSnapshotsLiveData() {
	s.seedEvent()

	summary, err := s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)

	s.Equal(2024, summary.EventYear)
	s.Equal(2, summary.TotalTeams)
	s.Equal(5, summary.TotalParticipants)
	s.Equal(int64(500), summary.TotalRevenue)
	s.Equal(1, summary.Stats.Payments.Paid)
	s.Equal(4, summary.Stats.Payments.Unpaid)
	s.False(summary.IsExpired)
	// Default retention is 3 years.
	s.Equal(s.now.AddDate(3, 0, 0), summary.ExpirationDate)

	a, err := s.archives.GetByYear(s.ctx, 2024)
	s.Require().NoError(err)
	s.Len(a.Teams, 2)
	s.Len(a.Members, 5)
	s.Len(a.PaymentEvents, 1)
	s.Len(a.DataHash, 64)
}

func (s *ServiceSuite) TestCreateConflict() {
	s.seedEvent()
	_, err := s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, 2024)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestCreateRequiresData() {
	_, err := s.service.Create(s.ctx, 2024)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodePreconditionFailed))
}

func (s *ServiceSuite) TestCreateRejectsImplausibleYear() {
	s.seedEvent()
	_, err := s.service.Create(s.ctx, 1789)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestCreateResolvesYearWhenZero() {
	s.seedEvent()
	summary, err := s.service.Create(s.ctx, 0)
	s.Require().NoError(err)
	// Registrations cluster in November 2024.
	s.Equal(2024, summary.EventYear)
}

func (s *ServiceSuite) TestCreateHonorsRetentionSetting() {
	s.seedEvent()
	s.settings.Set(settings.KeyRetentionYears, "5")

	summary, err := s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)
	s.Equal(s.now.AddDate(5, 0, 0), summary.ExpirationDate)
}

func (s *ServiceSuite) TestGetNotFound() {
	_, err := s.service.Get(s.ctx, 2019)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestZeroRetentionExpiresImmediately() {
	s.seedEvent()
	s.settings.Set(settings.KeyRetentionYears, "0")
	_, err := s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)

	result, err := s.service.CheckExpiration(s.ctx, 2024)
	s.Require().NoError(err)
	s.True(result.Expired)
	s.True(result.Updated)

	a, err := s.archives.GetByYear(s.ctx, 2024)
	s.Require().NoError(err)
	s.True(a.IsExpired)
	for _, m := range a.Members {
		s.Equal(archive.AnonymizedFirstName, m.FirstName)
		s.Empty(m.LastName)
		s.Nil(m.Email)
		s.NotEqual(uuid.Nil, m.TeamID)
	}
	// The paid member's amount survives anonymization.
	var amounts []int64
	for _, m := range a.Members {
		if m.PaymentAmount != nil {
			amounts = append(amounts, *m.PaymentAmount)
		}
	}
	s.Equal([]int64{500}, amounts)
	// Stats and hash still describe the original snapshot.
	s.Equal(int64(500), a.Stats.Payments.TotalRevenue)
	s.Len(a.DataHash, 64)
}

func (s *ServiceSuite) TestExpirationIsExactlyOnce() {
	s.seedEvent()
	s.settings.Set(settings.KeyRetentionYears, "0")
	_, err := s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)

	first, err := s.service.CheckExpiration(s.ctx, 2024)
	s.Require().NoError(err)
	s.True(first.Expired)
	s.True(first.Updated)

	second, err := s.service.CheckExpiration(s.ctx, 2024)
	s.Require().NoError(err)
	s.True(second.Expired)
	s.False(second.Updated)
}

func (s *ServiceSuite) TestExpirationBeforeDeadlineIsNoop() {
	s.seedEvent()
	_, err := s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)

	result, err := s.service.CheckExpiration(s.ctx, 2024)
	s.Require().NoError(err)
	s.False(result.Expired)
	s.False(result.Updated)

	a, err := s.archives.GetByYear(s.ctx, 2024)
	s.Require().NoError(err)
	s.False(a.IsExpired)
	s.Equal("Member", a.Members[0].FirstName)
}

func (s *ServiceSuite) TestExpirationWithoutArchiveIsNoop() {
	result, err := s.service.CheckExpiration(s.ctx, 2019)
	s.Require().NoError(err)
	s.False(result.Expired)
	s.False(result.Updated)
}

func (s *ServiceSuite) TestGetAppliesLazily() {
	s.seedEvent()
	s.settings.Set(settings.KeyRetentionYears, "0")
	_, err := s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)

	a, err := s.service.Get(s.ctx, 2024)
	s.Require().NoError(err)
	s.True(a.IsExpired)
	s.Equal(archive.AnonymizedFirstName, a.Members[0].FirstName)
}

func (s *ServiceSuite) TestCheckAllExpirations() {
	s.seedEvent()
	s.settings.Set(settings.KeyRetentionYears, "0")
	_, err := s.service.Create(s.ctx, 2023)
	s.Require().NoError(err)
	s.settings.Set(settings.KeyRetentionYears, "10")
	_, err = s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)

	results, err := s.service.CheckAllExpirations(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(results, 2)

	byYear := map[int]ExpirationResult{}
	for _, r := range results {
		byYear[r.EventYear] = r
	}
	s.True(byYear[2023].Updated)
	s.False(byYear[2024].Updated)
}

func (s *ServiceSuite) TestListSummaries() {
	s.seedEvent()
	_, err := s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)

	summaries, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(summaries, 1)
	s.Equal(2024, summaries[0].EventYear)
}

func (s *ServiceSuite) TestLifecycleIsAudited() {
	s.seedEvent()
	s.settings.Set(settings.KeyRetentionYears, "0")
	_, err := s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)
	_, err = s.service.CheckExpiration(s.ctx, 2024)
	s.Require().NoError(err)

	events, err := s.auditStore.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionArchiveCreated, events[0].Action)
	s.Equal(audit.ActionArchiveExpired, events[1].Action)
}
