// Package compliance guards every outreach action: per-lead consent flags
// plus the organization-level suppression list. It also serves the manual
// data-subject surfaces (consent withdrawal, deletion, export).
package compliance

import (
	"context"
	"log/slog"
	"time"

	"holly/internal/audit"
	"holly/internal/lead"
	id "holly/pkg/domain"
	"holly/pkg/requestcontext"
)

// Gate is the consent-checking predicate guarding outreach actions. IsAllowed
// is read-only; Withdraw is the admin-facing mutation.
type Gate struct {
	store       lead.Store
	suppression SuppressionList
	audit       *audit.Publisher
	logger      *slog.Logger
}

func NewGate(store lead.Store, suppression SuppressionList, auditPub *audit.Publisher, logger *slog.Logger) *Gate {
	return &Gate{
		store:       store,
		suppression: suppression,
		audit:       auditPub,
		logger:      logger,
	}
}

// IsAllowed reports whether the given channel may be used for this lead.
// Consent must be granted and the destination must not be on the suppression
// list. Fails closed: a suppression lookup error denies the action and is
// returned so the caller can distinguish denial from infrastructure failure.
func (g *Gate) IsAllowed(ctx context.Context, l *lead.Lead, ch id.Channel) (bool, error) {
	if !l.Consent.Allows(ch) {
		return false, nil
	}
	destination := l.Destination(ch)
	if destination == "" {
		return false, nil
	}
	suppressed, err := g.suppression.IsSuppressed(ctx, destination)
	if err != nil {
		return false, err
	}
	return !suppressed, nil
}

// Withdraw flips the consent flag for one channel off. Idempotent:
// withdrawing an already-withdrawn consent is a no-op, not an error.
func (g *Gate) Withdraw(ctx context.Context, leadID id.LeadID, ch id.Channel, now time.Time) error {
	l, err := g.store.Get(ctx, leadID)
	if err != nil {
		return err
	}
	if !l.Consent.Allows(ch) {
		return nil
	}
	if err := g.store.SetConsent(ctx, leadID, ch, false); err != nil {
		return err
	}
	if err := g.store.AppendActivity(ctx, lead.Activity{
		ID:        id.NewActivityID(),
		LeadID:    leadID,
		Type:      lead.ActivityConsentWithdrawn,
		Channel:   ch,
		CreatedAt: now,
	}); err != nil {
		return err
	}
	return g.audit.Emit(ctx, audit.Event{
		Timestamp: now,
		LeadID:    leadID,
		Action:    string(audit.EventConsentWithdrawn),
		Channel:   ch.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
}

// Suppress places a destination on the organization suppression list and is
// likewise idempotent.
func (g *Gate) Suppress(ctx context.Context, destination string) error {
	return g.suppression.Add(ctx, destination)
}
