// Package audit captures an append-only trail of compliance-relevant actions:
// outreach, consent changes, and data subject requests. Events are persisted
// through the store and optionally fanned out to Kafka.
package audit

import (
	"time"

	id "holly/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	LeadID    id.LeadID
	Action    string
	Channel   string
	Decision  string
	Reason    string
	RequestID string
}

// AuditEvent enumerates the actions the engine records.
type AuditEvent string

const (
	EventOutreachSent      AuditEvent = "outreach_sent"
	EventOutreachFailed    AuditEvent = "outreach_failed"
	EventComplianceDenied  AuditEvent = "compliance_denied"
	EventConsentWithdrawn  AuditEvent = "consent_withdrawn"
	EventStatusChanged     AuditEvent = "status_changed"
	EventLeadDisabled      AuditEvent = "lead_disabled"
	EventLeadDeleted       AuditEvent = "lead_deleted"
	EventLeadExported      AuditEvent = "lead_exported"
	EventCycleCompleted    AuditEvent = "cycle_completed"
	EventPolicyAnomaly     AuditEvent = "policy_anomaly"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventOutreachSent:     CategoryCompliance,
	EventOutreachFailed:   CategoryOperations,
	EventComplianceDenied: CategoryCompliance,
	EventConsentWithdrawn: CategoryCompliance,
	EventStatusChanged:    CategoryOperations,
	EventLeadDisabled:     CategoryCompliance,
	EventLeadDeleted:      CategoryCompliance,
	EventLeadExported:     CategoryCompliance,
	EventCycleCompleted:   CategoryOperations,
	EventPolicyAnomaly:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
