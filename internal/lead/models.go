// Package lead holds the lead domain model: the pipeline record itself plus
// its append-only history of activities and communications.
package lead

import (
	"time"

	id "holly/pkg/domain"
	dErrors "holly/pkg/domain-errors"
)

// Status is a lead's position in the sales pipeline.
type Status string

const (
	StatusNew                Status = "new"
	StatusContacted          Status = "contacted"
	StatusEngaged            Status = "engaged"
	StatusCallScheduled      Status = "call_scheduled"
	StatusCallCompleted      Status = "call_completed"
	StatusApplicationStarted Status = "application_started"
	StatusNurturing          Status = "nurturing"
	StatusConverted          Status = "converted"
	StatusLost               Status = "lost"
	StatusDealsWon           Status = "deals_won"
)

var validStatuses = map[Status]bool{
	StatusNew:                true,
	StatusContacted:          true,
	StatusEngaged:            true,
	StatusCallScheduled:      true,
	StatusCallCompleted:      true,
	StatusApplicationStarted: true,
	StatusNurturing:          true,
	StatusConverted:          true,
	StatusLost:               true,
	StatusDealsWon:           true,
}

// terminalStatuses is the single source of truth for statuses that end
// autonomous management. A terminal lead is never scheduled for review again.
var terminalStatuses = map[Status]bool{
	StatusLost:      true,
	StatusConverted: true,
	StatusDealsWon:  true,
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !validStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid lead status")
	}
	return st, nil
}

// IsTerminal reports whether the status ends autonomous management.
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

func (s Status) String() string { return string(s) }

// Consent carries the per-channel consent flags. Absence of a flag means the
// channel may never be used for outreach.
type Consent struct {
	Email bool
	SMS   bool
	Call  bool
}

// Allows reports whether the lead has consented to the given channel.
func (c Consent) Allows(ch id.Channel) bool {
	switch ch {
	case id.ChannelEmail:
		return c.Email
	case id.ChannelSMS:
		return c.SMS
	case id.ChannelCall:
		return c.Call
	}
	return false
}

// Any reports whether at least one channel is consented.
func (c Consent) Any() bool {
	return c.Email || c.SMS || c.Call
}

// Lead is a prospective customer tracked through the pipeline. ID, CreatedAt,
// and the contact identifiers are immutable after creation; everything else
// moves through the Policy Engine or manual admin action.
type Lead struct {
	ID        id.LeadID
	FirstName string
	LastName  string
	Email     string
	Phone     string

	Status              Status
	Consent             Consent
	ManagedByAutonomous bool
	HollyDisabled       bool
	NextReviewAt        *time.Time
	LastContactedAt     *time.Time

	// Version is the optimistic claim counter. Every claim bumps it, so a
	// concurrent runner holding a stale version cannot claim the same lead.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Destination returns the contact identifier for the given channel.
func (l *Lead) Destination(ch id.Channel) string {
	switch ch {
	case id.ChannelEmail:
		return l.Email
	case id.ChannelSMS, id.ChannelCall:
		return l.Phone
	}
	return ""
}

// UnderAutonomousReview reports whether the lead is eligible for the
// autonomous review cycle at all, independent of its next-review time.
func (l *Lead) UnderAutonomousReview() bool {
	return l.ManagedByAutonomous && !l.HollyDisabled && !l.Status.IsTerminal()
}

// ActivityType labels an append-only event log entry.
type ActivityType string

const (
	ActivityMessageSent      ActivityType = "message_sent"
	ActivityCallInitiated    ActivityType = "call_initiated"
	ActivityCallScheduled    ActivityType = "call_scheduled"
	ActivityCallCompleted    ActivityType = "call_completed"
	ActivityStatusChanged    ActivityType = "status_changed"
	ActivityAttemptFailed    ActivityType = "attempt_failed"
	ActivityComplianceDenied ActivityType = "compliance_denied"
	ActivityConsentWithdrawn ActivityType = "consent_withdrawn"
	ActivityOptOutRequested  ActivityType = "opt_out_requested"
	ActivityAutomationPaused ActivityType = "automation_paused"
	ActivityWebhookReceived  ActivityType = "webhook_received"
)

// Activity is one entry in a lead's event log. Immutable once created.
type Activity struct {
	ID         id.ActivityID
	LeadID     id.LeadID
	Type       ActivityType
	Channel    id.Channel // empty when not channel-related
	ProviderID string     // provider-assigned identifier for outreach events
	Detail     string
	CreatedAt  time.Time
}

// Direction distinguishes inbound from outbound communications.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Communication is a specific message exchanged with a lead. Immutable.
type Communication struct {
	ID        id.CommunicationID
	LeadID    id.LeadID
	Direction Direction
	Channel   id.Channel
	Body      string
	CreatedAt time.Time
}
