package service

import (
	"strings"

	"github.com/info-evry/astro-ndi-sub000/internal/settings"
)

func (s *ServiceSuite) TestExportBeforeExpiration() {
	s.seedEvent()
	_, err := s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)

	bundle, err := s.service.Export(s.ctx, 2024)
	s.Require().NoError(err)

	s.Equal(2024, bundle.Metadata.EventYear)
	s.False(bundle.Metadata.IsExpired)
	s.Len(bundle.Metadata.DataHash, 64)
	s.Len(bundle.Teams, 2)
	s.Len(bundle.Participants, 5)
	s.Len(bundle.PaymentEvents, 1)
	s.Contains(bundle.Note, "readable until")

	header := strings.SplitN(bundle.ParticipantsCSV, "\n", 2)[0]
	s.Contains(header, "first_name")
	s.Contains(header, "email")
	s.Contains(bundle.ParticipantsCSV, "Member")

	s.Contains(bundle.TeamsCSV, "Segfault Club")
	s.Contains(bundle.PaymentEventsCSV, "checkout.completed")
}

func (s *ServiceSuite) TestExportAfterExpirationShrinksColumns() {
	s.seedEvent()
	s.settings.Set(settings.KeyRetentionYears, "0")
	_, err := s.service.Create(s.ctx, 2024)
	s.Require().NoError(err)

	// Export runs the reader path, so the elapsed window is applied first.
	bundle, err := s.service.Export(s.ctx, 2024)
	s.Require().NoError(err)

	s.True(bundle.Metadata.IsExpired)
	s.Contains(bundle.Note, "anonymized")

	header := strings.SplitN(bundle.ParticipantsCSV, "\n", 2)[0]
	s.NotContains(header, "first_name")
	s.NotContains(header, "last_name")
	s.NotContains(header, "email")
	s.Contains(header, "bac_level")
	s.Contains(header, "payment_amount")
	s.NotContains(bundle.ParticipantsCSV, "Five")
}

func (s *ServiceSuite) TestExportNotFound() {
	_, err := s.service.Export(s.ctx, 2019)
	s.Require().Error(err)
}
