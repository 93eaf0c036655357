package lead

import (
	"context"
	"time"

	id "holly/pkg/domain"
)

// Outcome is the atomic write applied at the end of one lead's review: status
// transition, next-review scheduling, and the resulting activity and
// communication records. The store applies it as a single transaction so a
// partially-processed cycle never leaves a lead half-written.
type Outcome struct {
	NewStatus       *Status
	Disable         bool // set HollyDisabled, pausing autonomous management
	NextReviewAt    *time.Time
	ClearNextReview bool // explicit null write for terminal decisions
	LastContactedAt *time.Time
	Activity        *Activity
	Communication   *Communication
}

// Store is the persistence boundary for leads and their history. The review
// Runner is the only writer of NextReviewAt; admin surfaces use the consent
// and deletion operations.
//
// Implementations return sentinel.ErrNotFound for missing leads.
type Store interface {
	Create(ctx context.Context, l *Lead) error
	Get(ctx context.Context, leadID id.LeadID) (*Lead, error)

	// FindDueLeads returns leads under autonomous management, not disabled,
	// in a non-terminal status, whose NextReviewAt is at or before now.
	// Ordering is stable (next_review_at, id) so pagination via limit is
	// deterministic.
	FindDueLeads(ctx context.Context, now time.Time, limit int) ([]*Lead, error)

	// LoadWithHistory returns the lead snapshot plus its full ordered history.
	LoadWithHistory(ctx context.Context, leadID id.LeadID) (*Lead, *History, error)

	// ClaimLead atomically bumps the lead's version if and only if it still
	// matches the caller's snapshot. Returns false when another runner
	// claimed the lead first.
	ClaimLead(ctx context.Context, leadID id.LeadID, version int64) (bool, error)

	// ApplyOutcome atomically writes the review outcome.
	ApplyOutcome(ctx context.Context, leadID id.LeadID, out Outcome) error

	// SetConsent flips one channel consent flag. Idempotent.
	SetConsent(ctx context.Context, leadID id.LeadID, ch id.Channel, granted bool) error

	AppendActivity(ctx context.Context, a Activity) error
	AppendCommunication(ctx context.Context, c Communication) error

	// Delete removes the lead and cascades to activities and communications.
	// Used only for explicit data-deletion requests.
	Delete(ctx context.Context, leadID id.LeadID) error
}
