package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // database/sql driver for the outbox connection

	id "holly/pkg/domain"
)

// OutboxSchema creates the audit outbox table. The outbox worker (or a Kafka
// connector) drains it; the table is the durable record when Kafka is down.
const OutboxSchema = `
CREATE TABLE IF NOT EXISTS audit_outbox (
	id UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// OutboxStore implements Store using the transactional outbox pattern on a
// database/sql connection.
type OutboxStore struct {
	db *sql.DB
}

func NewOutbox(db *sql.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

// outboxPayload is the JSON structure written to the outbox and published
// downstream. Field names match Event for deserialization by consumers.
type outboxPayload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	LeadID    string `json:"LeadID,omitempty"`
	Action    string `json:"Action"`
	Channel   string `json:"Channel,omitempty"`
	Decision  string `json:"Decision,omitempty"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
}

// Append writes an audit event to the outbox table.
func (s *OutboxStore) Append(ctx context.Context, event Event) error {
	eventID := uuid.New()

	// Always derive category from action - eventCategories is the source of truth.
	category := AuditEvent(event.Action).Category()

	payload := outboxPayload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Action:    event.Action,
		Channel:   event.Channel,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	}
	if !event.LeadID.IsNil() {
		payload.LeadID = event.LeadID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if !event.LeadID.IsNil() {
		aggregateType = "lead"
		aggregateID = event.LeadID.String()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		eventID, aggregateType, aggregateID, event.Action, payloadBytes, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByLead reads events back from the outbox for a lead's data export.
func (s *OutboxStore) ListByLead(ctx context.Context, leadID id.LeadID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM audit_outbox
		WHERE aggregate_type = 'lead' AND aggregate_id = $1
		ORDER BY created_at`, leadID.String())
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan outbox payload: %w", err)
		}
		var p outboxPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
		}
		ts, _ := time.Parse(time.RFC3339Nano, p.Timestamp)
		events = append(events, Event{
			Category:  EventCategory(p.Category),
			Timestamp: ts,
			LeadID:    leadID,
			Action:    p.Action,
			Channel:   p.Channel,
			Decision:  p.Decision,
			Reason:    p.Reason,
			RequestID: p.RequestID,
		})
	}
	return events, rows.Err()
}
