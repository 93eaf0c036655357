package audit

import (
	"context"
	"log/slog"
	"time"

	id "holly/pkg/domain"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. When a Kafka
// sink is configured, events are additionally published best-effort.
type Publisher struct {
	store  Store
	kafka  *KafkaPublisher
	logger *slog.Logger
}

func NewPublisher(store Store, kafka *KafkaPublisher, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, kafka: kafka, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if base.Category == "" {
		base.Category = AuditEvent(base.Action).Category()
	}
	if err := p.store.Append(ctx, base); err != nil {
		return err
	}
	if p.kafka != nil {
		if err := p.kafka.Publish(ctx, base); err != nil && p.logger != nil {
			// The store already holds the event; Kafka lag is an ops concern,
			// not a caller error.
			p.logger.WarnContext(ctx, "kafka audit publish failed",
				"action", base.Action,
				"error", err,
			)
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, leadID id.LeadID) ([]Event, error) {
	return p.store.ListByLead(ctx, leadID)
}
