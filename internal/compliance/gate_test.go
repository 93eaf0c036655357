package compliance

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"holly/internal/audit"
	"holly/internal/lead"
	id "holly/pkg/domain"
	"holly/pkg/platform/sentinel"
)

type GateSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	store       *lead.InMemoryStore
	suppression *InMemorySuppressionList
	auditStore  *audit.InMemoryStore
	gate        *Gate
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.store = lead.NewInMemoryStore()
	s.suppression = NewInMemorySuppressionList()
	s.auditStore = audit.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.gate = NewGate(s.store, s.suppression, audit.NewPublisher(s.auditStore, nil, logger), logger)
}

func (s *GateSuite) newLead(consent lead.Consent) *lead.Lead {
	l := &lead.Lead{
		ID:        id.NewLeadID(),
		Email:     "avery@example.com",
		Phone:     "+15550100",
		Status:    lead.StatusNew,
		Consent:   consent,
		CreatedAt: s.now,
	}
	s.Require().NoError(s.store.Create(s.ctx, l))
	return l
}

func (s *GateSuite) TestIsAllowed() {
	s.Run("allows consented channel with destination", func() {
		l := s.newLead(lead.Consent{SMS: true})
		allowed, err := s.gate.IsAllowed(s.ctx, l, id.ChannelSMS)
		s.Require().NoError(err)
		s.True(allowed)
	})

	s.Run("denies channel without consent", func() {
		l := s.newLead(lead.Consent{Email: true})
		allowed, err := s.gate.IsAllowed(s.ctx, l, id.ChannelSMS)
		s.Require().NoError(err)
		s.False(allowed)
	})

	s.Run("denies consented channel without destination", func() {
		l := s.newLead(lead.Consent{SMS: true})
		l.Phone = ""
		allowed, err := s.gate.IsAllowed(s.ctx, l, id.ChannelSMS)
		s.Require().NoError(err)
		s.False(allowed)
	})

	s.Run("denies suppressed destination regardless of consent", func() {
		l := s.newLead(lead.Consent{SMS: true})
		s.Require().NoError(s.suppression.Add(s.ctx, l.Phone))
		allowed, err := s.gate.IsAllowed(s.ctx, l, id.ChannelSMS)
		s.Require().NoError(err)
		s.False(allowed)
	})
}

func (s *GateSuite) TestWithdraw() {
	s.Run("withdrawal flips consent and records the trail", func() {
		l := s.newLead(lead.Consent{SMS: true, Email: true})
		s.Require().NoError(s.gate.Withdraw(s.ctx, l.ID, id.ChannelSMS, s.now))

		got, history, err := s.store.LoadWithHistory(s.ctx, l.ID)
		s.Require().NoError(err)
		s.False(got.Consent.SMS)
		s.True(got.Consent.Email)
		s.Require().Len(history.Activities, 1)
		s.Equal(lead.ActivityConsentWithdrawn, history.Activities[0].Type)

		events, err := s.auditStore.ListByLead(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventConsentWithdrawn), events[0].Action)
	})

	s.Run("repeated withdrawal is a no-op", func() {
		l := s.newLead(lead.Consent{SMS: true})
		s.Require().NoError(s.gate.Withdraw(s.ctx, l.ID, id.ChannelSMS, s.now))
		s.Require().NoError(s.gate.Withdraw(s.ctx, l.ID, id.ChannelSMS, s.now))

		_, history, err := s.store.LoadWithHistory(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Len(history.Activities, 1)
	})

	s.Run("unknown lead is not found", func() {
		err := s.gate.Withdraw(s.ctx, id.NewLeadID(), id.ChannelSMS, s.now)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *GateSuite) TestSuppress() {
	s.Require().NoError(s.gate.Suppress(s.ctx, "+15550100"))
	s.Require().NoError(s.gate.Suppress(s.ctx, "+15550100"))

	suppressed, err := s.suppression.IsSuppressed(s.ctx, "+15550100")
	s.Require().NoError(err)
	s.True(suppressed)
}
