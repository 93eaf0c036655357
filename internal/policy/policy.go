// Package policy is the review decision engine. Decide is a pure function of
// the lead snapshot, its ordered history, and the evaluation time, which keeps
// the rules centralized, deterministic, and testable without I/O.
package policy

import (
	"time"

	"holly/internal/lead"
	id "holly/pkg/domain"
)

// Action tags what the runner should do for a lead this cycle.
type Action string

const (
	ActionNone          Action = "no_action"
	ActionSendMessage   Action = "send_message"
	ActionPlaceCall     Action = "place_call"
	ActionAdvanceStatus Action = "advance_status"
	ActionMarkLost      Action = "mark_lost"
	ActionMarkDisabled  Action = "mark_disabled"
)

// Decision is the output of one policy evaluation. It is consumed immediately
// by the runner and never persisted as its own entity.
type Decision struct {
	Action Action

	// Channel and Template describe the proposed outreach. The proposal is
	// speculative; the runner performs the authoritative compliance check.
	Channel  id.Channel
	Template string

	// NewStatus is the target status for ActionAdvanceStatus and the
	// terminal actions.
	NewStatus lead.Status

	// NextReviewDelay is never negative. Zero means "do not reschedule" and
	// only accompanies terminal decisions.
	NextReviewDelay time.Duration

	Reason  string
	Anomaly bool // unexpected or missing data degraded this decision
}

// RequiresOutreach reports whether the decision proposes a channel action
// that must pass the compliance gate before execution.
func (d Decision) RequiresOutreach() bool {
	return d.Action == ActionSendMessage || d.Action == ActionPlaceCall
}

// Config holds the policy thresholds. They are supplied by deployment
// configuration; the defaults here exist for tests and local development.
type Config struct {
	MaxAttempts    int
	AttemptWindow  time.Duration
	RetryDelay     time.Duration
	FollowUpDelay  time.Duration
	EngagedDelay   time.Duration
	NurtureDelay   time.Duration
	CallRetryDelay time.Duration
	DefaultDelay   time.Duration
}

// DefaultConfig returns the development defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		AttemptWindow:  14 * 24 * time.Hour,
		RetryDelay:     30 * time.Minute,
		FollowUpDelay:  24 * time.Hour,
		EngagedDelay:   4 * time.Hour,
		NurtureDelay:   72 * time.Hour,
		CallRetryDelay: 2 * time.Hour,
		DefaultDelay:   24 * time.Hour,
	}
}

// Engine evaluates a lead against the ordered rule table.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Decide evaluates the rule table top-to-bottom and returns the first match.
// It never panics on malformed or missing optional data; anomalies degrade to
// NoAction with a short retry delay so the lead is looked at again soon.
func (e *Engine) Decide(l *lead.Lead, h *lead.History, now time.Time) Decision {
	if l == nil {
		return Decision{
			Action:          ActionNone,
			NextReviewDelay: e.cfg.RetryDelay,
			Reason:          "missing lead snapshot",
			Anomaly:         true,
		}
	}
	if h == nil {
		h = &lead.History{}
	}

	c := &evalContext{
		lead:        l,
		history:     h,
		now:         now,
		cfg:         e.cfg,
		windowStart: now.Add(-e.cfg.AttemptWindow),
	}
	c.attempts = h.OutreachAttemptsSince(c.windowStart)

	for _, r := range rules {
		if r.when(c) {
			d := r.decide(c)
			if d.NextReviewDelay < 0 {
				d.NextReviewDelay = e.cfg.RetryDelay
				d.Anomaly = true
			}
			return d
		}
	}

	return Decision{
		Action:          ActionNone,
		NextReviewDelay: e.cfg.DefaultDelay,
		Reason:          "no rule matched",
	}
}
