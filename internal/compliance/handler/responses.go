package handler

import (
	"time"

	"holly/internal/audit"
	"holly/internal/lead"
	dErrors "holly/pkg/domain-errors"
)

// WithdrawRequest is the body for POST /compliance/withdraw.
type WithdrawRequest struct {
	LeadID  string `json:"lead_id"`
	Channel string `json:"channel"`
}

func (r WithdrawRequest) Validate() error {
	if r.LeadID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "lead_id is required")
	}
	if r.Channel == "" {
		return dErrors.New(dErrors.CodeBadRequest, "channel is required")
	}
	return nil
}

// SuppressRequest is the body for POST /compliance/suppress.
type SuppressRequest struct {
	Destination string `json:"destination"`
}

func (r SuppressRequest) Validate() error {
	if r.Destination == "" {
		return dErrors.New(dErrors.CodeBadRequest, "destination is required")
	}
	return nil
}

// ExportResponse is the full data-export document for one lead.
type ExportResponse struct {
	Lead           ExportLead            `json:"lead"`
	Activities     []ExportActivity      `json:"activities"`
	Communications []ExportCommunication `json:"communications"`
	AuditEvents    []ExportAuditEvent    `json:"audit_events"`
}

type ExportLead struct {
	ID                  string     `json:"id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Status              string     `json:"status"`
	ConsentEmail        bool       `json:"consent_email"`
	ConsentSMS          bool       `json:"consent_sms"`
	ConsentCall         bool       `json:"consent_call"`
	ManagedByAutonomous bool       `json:"managed_by_autonomous"`
	HollyDisabled       bool       `json:"holly_disabled"`
	NextReviewAt        *time.Time `json:"next_review_at,omitempty"`
	LastContactedAt     *time.Time `json:"last_contacted_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type ExportActivity struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Channel    string    `json:"channel,omitempty"`
	ProviderID string    `json:"provider_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ExportCommunication struct {
	ID        string    `json:"id"`
	Direction string    `json:"direction"`
	Channel   string    `json:"channel"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type ExportAuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Action    string    `json:"action"`
	Channel   string    `json:"channel,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

func newExportResponse(l *lead.Lead, history *lead.History, events []audit.Event) ExportResponse {
	resp := ExportResponse{
		Lead: ExportLead{
			ID:                  l.ID.String(),
			FirstName:           l.FirstName,
			LastName:            l.LastName,
			Email:               l.Email,
			Phone:               l.Phone,
			Status:              string(l.Status),
			ConsentEmail:        l.Consent.Email,
			ConsentSMS:          l.Consent.SMS,
			ConsentCall:         l.Consent.Call,
			ManagedByAutonomous: l.ManagedByAutonomous,
			HollyDisabled:       l.HollyDisabled,
			NextReviewAt:        l.NextReviewAt,
			LastContactedAt:     l.LastContactedAt,
			CreatedAt:           l.CreatedAt,
			UpdatedAt:           l.UpdatedAt,
		},
		Activities:     make([]ExportActivity, 0, len(history.Activities)),
		Communications: make([]ExportCommunication, 0, len(history.Communications)),
		AuditEvents:    make([]ExportAuditEvent, 0, len(events)),
	}
	for _, a := range history.Activities {
		resp.Activities = append(resp.Activities, ExportActivity{
			ID:         a.ID.String(),
			Type:       string(a.Type),
			Channel:    a.Channel.String(),
			ProviderID: a.ProviderID,
			Detail:     a.Detail,
			CreatedAt:  a.CreatedAt,
		})
	}
	for _, c := range history.Communications {
		resp.Communications = append(resp.Communications, ExportCommunication{
			ID:        c.ID.String(),
			Direction: string(c.Direction),
			Channel:   c.Channel.String(),
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		})
	}
	for _, e := range events {
		resp.AuditEvents = append(resp.AuditEvents, ExportAuditEvent{
			Timestamp: e.Timestamp,
			Category:  string(e.Category),
			Action:    e.Action,
			Channel:   e.Channel,
			Decision:  e.Decision,
			Reason:    e.Reason,
		})
	}
	return resp
}
