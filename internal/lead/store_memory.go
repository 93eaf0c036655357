package lead

import (
	"context"
	"sort"
	"sync"
	"time"

	id "holly/pkg/domain"
	"holly/pkg/platform/sentinel"
)

// InMemoryStore keeps leads and history in process memory. Used by unit tests
// and local development; PostgresStore is the production implementation.
type InMemoryStore struct {
	mu             sync.RWMutex
	leads          map[id.LeadID]*Lead
	activities     map[id.LeadID][]Activity
	communications map[id.LeadID][]Communication
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		leads:          make(map[id.LeadID]*Lead),
		activities:     make(map[id.LeadID][]Activity),
		communications: make(map[id.LeadID][]Communication),
	}
}

func (s *InMemoryStore) Create(_ context.Context, l *Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[l.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *l
	s.leads[l.ID] = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, leadID id.LeadID) (*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(leadID)
}

func (s *InMemoryStore) getLocked(leadID id.LeadID) (*Lead, error) {
	l, ok := s.leads[leadID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *InMemoryStore) FindDueLeads(_ context.Context, now time.Time, limit int) ([]*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*Lead
	for _, l := range s.leads {
		if !l.UnderAutonomousReview() {
			continue
		}
		if l.NextReviewAt == nil || l.NextReviewAt.After(now) {
			continue
		}
		cp := *l
		due = append(due, &cp)
	}
	// Stable ordering: (next_review_at, id), matching the Postgres query.
	sort.Slice(due, func(i, j int) bool {
		if due[i].NextReviewAt.Equal(*due[j].NextReviewAt) {
			return due[i].ID.String() < due[j].ID.String()
		}
		return due[i].NextReviewAt.Before(*due[j].NextReviewAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *InMemoryStore) LoadWithHistory(_ context.Context, leadID id.LeadID) (*Lead, *History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.getLocked(leadID)
	if err != nil {
		return nil, nil, err
	}
	h := &History{
		Activities:     append([]Activity{}, s.activities[leadID]...),
		Communications: append([]Communication{}, s.communications[leadID]...),
	}
	return l, h, nil
}

func (s *InMemoryStore) ClaimLead(_ context.Context, leadID id.LeadID, version int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if l.Version != version {
		return false, nil
	}
	l.Version++
	l.UpdatedAt = time.Now()
	return true, nil
}

func (s *InMemoryStore) ApplyOutcome(_ context.Context, leadID id.LeadID, out Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if out.NewStatus != nil {
		l.Status = *out.NewStatus
	}
	if out.Disable {
		l.HollyDisabled = true
	}
	if out.ClearNextReview {
		l.NextReviewAt = nil
	} else if out.NextReviewAt != nil {
		t := *out.NextReviewAt
		l.NextReviewAt = &t
	}
	if out.LastContactedAt != nil {
		t := *out.LastContactedAt
		l.LastContactedAt = &t
	}
	l.UpdatedAt = time.Now()
	if out.Activity != nil {
		s.activities[leadID] = append(s.activities[leadID], *out.Activity)
	}
	if out.Communication != nil {
		s.communications[leadID] = append(s.communications[leadID], *out.Communication)
	}
	return nil
}

func (s *InMemoryStore) SetConsent(_ context.Context, leadID id.LeadID, ch id.Channel, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadID]
	if !ok {
		return sentinel.ErrNotFound
	}
	switch ch {
	case id.ChannelEmail:
		l.Consent.Email = granted
	case id.ChannelSMS:
		l.Consent.SMS = granted
	case id.ChannelCall:
		l.Consent.Call = granted
	default:
		return sentinel.ErrInvalidState
	}
	l.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) AppendActivity(_ context.Context, a Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[a.LeadID]; !ok {
		return sentinel.ErrNotFound
	}
	s.activities[a.LeadID] = append(s.activities[a.LeadID], a)
	return nil
}

func (s *InMemoryStore) AppendCommunication(_ context.Context, c Communication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[c.LeadID]; !ok {
		return sentinel.ErrNotFound
	}
	s.communications[c.LeadID] = append(s.communications[c.LeadID], c)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, leadID id.LeadID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[leadID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.leads, leadID)
	delete(s.activities, leadID)
	delete(s.communications, leadID)
	return nil
}
