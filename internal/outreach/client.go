// Package outreach abstracts the third-party messaging and voice providers.
// The engine only depends on the Client interface; the HTTP implementation
// and the in-memory fake both satisfy it.
package outreach

import (
	"context"
	"fmt"

	id "holly/pkg/domain"
)

// Status is the provider-reported delivery state of a send.
type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Payload is the rendered message content. Subject is only used for email.
type Payload struct {
	Subject string
	Body    string
}

// SendResult carries the provider-assigned identifier used to correlate
// delivery callbacks with the activity log.
type SendResult struct {
	ProviderID string
	Status     Status
}

// Client sends a message or places a call through a provider. Implementations
// must honor ctx cancellation; a timed-out call returns a ProviderError.
type Client interface {
	Send(ctx context.Context, ch id.Channel, destination string, payload Payload) (SendResult, error)
}

// ProviderError reports an outreach provider failure (non-2xx or timeout).
// It is never fatal to a review cycle; the runner records the attempt and
// backs off.
type ProviderError struct {
	Channel    id.Channel
	StatusCode int // zero for transport-level failures
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider error on %s: status %d", e.Channel, e.StatusCode)
	}
	return fmt.Sprintf("provider error on %s: %v", e.Channel, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
