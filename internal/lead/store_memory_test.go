package lead

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "holly/pkg/domain"
	"holly/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *MemoryStoreSuite) newLead(status Status, due time.Time) *Lead {
	l := &Lead{
		ID:                  id.NewLeadID(),
		FirstName:           "Avery",
		Email:               "avery@example.com",
		Phone:               "+15550100",
		Status:              status,
		Consent:             Consent{SMS: true},
		ManagedByAutonomous: true,
		NextReviewAt:        &due,
		CreatedAt:           s.now.Add(-24 * time.Hour),
	}
	s.Require().NoError(s.store.Create(s.ctx, l))
	return l
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	s.Run("creates and retrieves a lead", func() {
		l := s.newLead(StatusNew, s.now)
		got, err := s.store.Get(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Equal(l.Email, got.Email)
	})

	s.Run("duplicate create conflicts", func() {
		l := s.newLead(StatusNew, s.now)
		s.Require().ErrorIs(s.store.Create(s.ctx, l), sentinel.ErrConflict)
	})

	s.Run("unknown lead is not found", func() {
		_, err := s.store.Get(s.ctx, id.NewLeadID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("mutating a returned copy does not affect the store", func() {
		l := s.newLead(StatusNew, s.now)
		got, err := s.store.Get(s.ctx, l.ID)
		s.Require().NoError(err)
		got.Status = StatusLost

		again, err := s.store.Get(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Equal(StatusNew, again.Status)
	})
}

func (s *MemoryStoreSuite) TestFindDueLeads() {
	s.Run("selects only due, managed, enabled, non-terminal leads", func() {
		due := s.newLead(StatusNew, s.now.Add(-time.Minute))
		s.newLead(StatusContacted, s.now.Add(time.Hour)) // not yet due

		s.newLead(StatusConverted, s.now.Add(-time.Minute)) // terminal

		disabled := s.newLead(StatusNew, s.now.Add(-time.Minute))
		s.Require().NoError(s.store.ApplyOutcome(s.ctx, disabled.ID, Outcome{Disable: true}))

		unmanaged := &Lead{ID: id.NewLeadID(), Status: StatusNew, NextReviewAt: &s.now}
		s.Require().NoError(s.store.Create(s.ctx, unmanaged))

		unscheduled := &Lead{ID: id.NewLeadID(), Status: StatusNew, ManagedByAutonomous: true}
		s.Require().NoError(s.store.Create(s.ctx, unscheduled))

		found, err := s.store.FindDueLeads(s.ctx, s.now, 0)
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal(due.ID, found[0].ID)
	})

	s.Run("orders by next review time and honors the limit", func() {
		s.store = NewInMemoryStore()
		later := s.newLead(StatusNew, s.now.Add(-time.Minute))
		earlier := s.newLead(StatusNew, s.now.Add(-time.Hour))

		found, err := s.store.FindDueLeads(s.ctx, s.now, 0)
		s.Require().NoError(err)
		s.Require().Len(found, 2)
		s.Equal(earlier.ID, found[0].ID)
		s.Equal(later.ID, found[1].ID)

		limited, err := s.store.FindDueLeads(s.ctx, s.now, 1)
		s.Require().NoError(err)
		s.Require().Len(limited, 1)
		s.Equal(earlier.ID, limited[0].ID)
	})
}

func (s *MemoryStoreSuite) TestClaimLead() {
	s.Run("claim with matching version bumps it", func() {
		l := s.newLead(StatusNew, s.now)
		claimed, err := s.store.ClaimLead(s.ctx, l.ID, l.Version)
		s.Require().NoError(err)
		s.True(claimed)

		got, err := s.store.Get(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Equal(l.Version+1, got.Version)
	})

	s.Run("claim with stale version fails", func() {
		l := s.newLead(StatusNew, s.now)
		claimed, err := s.store.ClaimLead(s.ctx, l.ID, l.Version)
		s.Require().NoError(err)
		s.True(claimed)

		claimed, err = s.store.ClaimLead(s.ctx, l.ID, l.Version)
		s.Require().NoError(err)
		s.False(claimed)
	})

	s.Run("exactly one concurrent claimer wins", func() {
		l := s.newLead(StatusNew, s.now)

		const claimers = 16
		var wg sync.WaitGroup
		wins := make(chan bool, claimers)
		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				claimed, err := s.store.ClaimLead(s.ctx, l.ID, l.Version)
				s.NoError(err)
				wins <- claimed
			}()
		}
		wg.Wait()
		close(wins)

		won := 0
		for claimed := range wins {
			if claimed {
				won++
			}
		}
		s.Equal(1, won)
	})
}

func (s *MemoryStoreSuite) TestApplyOutcome() {
	s.Run("writes status, schedule, and history atomically", func() {
		l := s.newLead(StatusNew, s.now)
		status := StatusContacted
		next := s.now.Add(24 * time.Hour)
		out := Outcome{
			NewStatus:       &status,
			NextReviewAt:    &next,
			LastContactedAt: &s.now,
			Activity: &Activity{
				ID:        id.NewActivityID(),
				LeadID:    l.ID,
				Type:      ActivityMessageSent,
				Channel:   id.ChannelSMS,
				CreatedAt: s.now,
			},
			Communication: &Communication{
				ID:        id.NewCommunicationID(),
				LeadID:    l.ID,
				Direction: DirectionOutbound,
				Channel:   id.ChannelSMS,
				Body:      "hello",
				CreatedAt: s.now,
			},
		}
		s.Require().NoError(s.store.ApplyOutcome(s.ctx, l.ID, out))

		got, history, err := s.store.LoadWithHistory(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Equal(StatusContacted, got.Status)
		s.Require().NotNil(got.NextReviewAt)
		s.True(got.NextReviewAt.Equal(next))
		s.Require().Len(history.Activities, 1)
		s.Require().Len(history.Communications, 1)
		s.Equal("hello", history.Communications[0].Body)
	})

	s.Run("clear next review removes the schedule", func() {
		l := s.newLead(StatusNew, s.now)
		s.Require().NoError(s.store.ApplyOutcome(s.ctx, l.ID, Outcome{ClearNextReview: true}))

		got, err := s.store.Get(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Nil(got.NextReviewAt)
	})

	s.Run("unknown lead is not found", func() {
		s.Require().ErrorIs(s.store.ApplyOutcome(s.ctx, id.NewLeadID(), Outcome{}), sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestConsentAndDeletion() {
	s.Run("set consent flips a single channel", func() {
		l := s.newLead(StatusNew, s.now)
		s.Require().NoError(s.store.SetConsent(s.ctx, l.ID, id.ChannelSMS, false))

		got, err := s.store.Get(s.ctx, l.ID)
		s.Require().NoError(err)
		s.False(got.Consent.SMS)
		s.False(got.Consent.Email)
	})

	s.Run("delete cascades to history", func() {
		l := s.newLead(StatusNew, s.now)
		s.Require().NoError(s.store.AppendActivity(s.ctx, Activity{
			ID:        id.NewActivityID(),
			LeadID:    l.ID,
			Type:      ActivityMessageSent,
			CreatedAt: s.now,
		}))
		s.Require().NoError(s.store.Delete(s.ctx, l.ID))

		_, _, err := s.store.LoadWithHistory(s.ctx, l.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.Require().ErrorIs(s.store.Delete(s.ctx, l.ID), sentinel.ErrNotFound)
	})
}
