package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"holly/internal/audit"
	"holly/internal/compliance"
	"holly/internal/lead"
	id "holly/pkg/domain"
)

const testSecret = "admin-secret"

type ComplianceHandlerSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	store       *lead.InMemoryStore
	suppression *compliance.InMemorySuppressionList
	auditStore  *audit.InMemoryStore
	router      http.Handler
}

func TestComplianceHandlerSuite(t *testing.T) {
	suite.Run(t, new(ComplianceHandlerSuite))
}

func (s *ComplianceHandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.store = lead.NewInMemoryStore()
	s.suppression = compliance.NewInMemorySuppressionList()
	s.auditStore = audit.NewInMemoryStore()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditPub := audit.NewPublisher(s.auditStore, nil, logger)
	gate := compliance.NewGate(s.store, s.suppression, auditPub, logger)

	router := chi.NewRouter()
	New(gate, s.store, auditPub, logger, nil, testSecret).Register(router)
	s.router = router
}

func (s *ComplianceHandlerSuite) newLead() *lead.Lead {
	l := &lead.Lead{
		ID:        id.NewLeadID(),
		FirstName: "Avery",
		Email:     "avery@example.com",
		Phone:     "+15550100",
		Status:    lead.StatusContacted,
		Consent:   lead.Consent{SMS: true, Email: true},
		CreatedAt: s.now,
	}
	s.Require().NoError(s.store.Create(s.ctx, l))
	return l
}

func (s *ComplianceHandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testSecret)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ComplianceHandlerSuite) TestAuth() {
	req := httptest.NewRequest(http.MethodPost, "/compliance/withdraw", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ComplianceHandlerSuite) TestWithdraw() {
	s.Run("withdraws consent for one channel", func() {
		l := s.newLead()
		rec := s.do(http.MethodPost, "/compliance/withdraw",
			`{"lead_id":"`+l.ID.String()+`","channel":"sms"}`)
		s.Equal(http.StatusNoContent, rec.Code)

		got, err := s.store.Get(s.ctx, l.ID)
		s.Require().NoError(err)
		s.False(got.Consent.SMS)
		s.True(got.Consent.Email)
	})

	s.Run("missing fields are a bad request", func() {
		rec := s.do(http.MethodPost, "/compliance/withdraw", `{"lead_id":""}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("invalid channel is rejected", func() {
		l := s.newLead()
		rec := s.do(http.MethodPost, "/compliance/withdraw",
			`{"lead_id":"`+l.ID.String()+`","channel":"fax"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown lead is not found", func() {
		rec := s.do(http.MethodPost, "/compliance/withdraw",
			`{"lead_id":"`+id.NewLeadID().String()+`","channel":"sms"}`)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *ComplianceHandlerSuite) TestSuppress() {
	rec := s.do(http.MethodPost, "/compliance/suppress", `{"destination":"+15550100"}`)
	s.Equal(http.StatusNoContent, rec.Code)

	suppressed, err := s.suppression.IsSuppressed(s.ctx, "+15550100")
	s.Require().NoError(err)
	s.True(suppressed)
}

func (s *ComplianceHandlerSuite) TestDelete() {
	s.Run("deletes the lead and audits the request", func() {
		l := s.newLead()
		rec := s.do(http.MethodDelete, "/leads/"+l.ID.String(), "")
		s.Equal(http.StatusNoContent, rec.Code)

		_, err := s.store.Get(s.ctx, l.ID)
		s.Require().Error(err)

		events, err := s.auditStore.ListByLead(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventLeadDeleted), events[0].Action)
	})

	s.Run("unknown lead is not found", func() {
		rec := s.do(http.MethodDelete, "/leads/"+id.NewLeadID().String(), "")
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("malformed id is rejected", func() {
		rec := s.do(http.MethodDelete, "/leads/not-a-uuid", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ComplianceHandlerSuite) TestExport() {
	l := s.newLead()
	s.Require().NoError(s.store.AppendActivity(s.ctx, lead.Activity{
		ID:        id.NewActivityID(),
		LeadID:    l.ID,
		Type:      lead.ActivityMessageSent,
		Channel:   id.ChannelSMS,
		CreatedAt: s.now,
	}))
	s.Require().NoError(s.store.AppendCommunication(s.ctx, lead.Communication{
		ID:        id.NewCommunicationID(),
		LeadID:    l.ID,
		Direction: lead.DirectionOutbound,
		Channel:   id.ChannelSMS,
		Body:      "hello",
		CreatedAt: s.now,
	}))

	rec := s.do(http.MethodGet, "/leads/"+l.ID.String()+"/export", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp ExportResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(l.ID.String(), resp.Lead.ID)
	s.Equal("avery@example.com", resp.Lead.Email)
	s.Require().Len(resp.Activities, 1)
	s.Require().Len(resp.Communications, 1)
	s.Equal("hello", resp.Communications[0].Body)

	// The export itself lands on the audit trail.
	events, err := s.auditStore.ListByLead(s.ctx, l.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventLeadExported), events[0].Action)
}
