package lead

import "time"

// History is the ordered record the Policy Engine reads: activities and
// communications sorted ascending by creation time. Stores guarantee the
// ordering so policy evaluation stays deterministic.
type History struct {
	Activities     []Activity
	Communications []Communication
}

// outreachAttemptTypes are the activity types that count as an outreach
// attempt, successful or not.
var outreachAttemptTypes = map[ActivityType]bool{
	ActivityMessageSent:   true,
	ActivityCallInitiated: true,
	ActivityAttemptFailed: true,
}

// OutreachAttemptsSince counts outreach attempts recorded at or after cutoff.
func (h *History) OutreachAttemptsSince(cutoff time.Time) int {
	n := 0
	for _, a := range h.Activities {
		if outreachAttemptTypes[a.Type] && !a.CreatedAt.Before(cutoff) {
			n++
		}
	}
	return n
}

// LastInboundAt returns the time of the most recent inbound communication.
func (h *History) LastInboundAt() (time.Time, bool) {
	for i := len(h.Communications) - 1; i >= 0; i-- {
		if h.Communications[i].Direction == DirectionInbound {
			return h.Communications[i].CreatedAt, true
		}
	}
	return time.Time{}, false
}

// InboundSince reports whether the lead has responded at or after t.
func (h *History) InboundSince(t time.Time) bool {
	last, ok := h.LastInboundAt()
	return ok && !last.Before(t)
}

// LastActivityOfType returns the most recent activity of the given type.
func (h *History) LastActivityOfType(t ActivityType) (Activity, bool) {
	for i := len(h.Activities) - 1; i >= 0; i-- {
		if h.Activities[i].Type == t {
			return h.Activities[i], true
		}
	}
	return Activity{}, false
}

// HasActivitySince reports whether an activity of the given type was recorded
// at or after t.
func (h *History) HasActivitySince(t ActivityType, since time.Time) bool {
	a, ok := h.LastActivityOfType(t)
	return ok && !a.CreatedAt.Before(since)
}

// FirstOutreachSince returns the time of the earliest outreach attempt at or
// after cutoff.
func (h *History) FirstOutreachSince(cutoff time.Time) (time.Time, bool) {
	for _, a := range h.Activities {
		if outreachAttemptTypes[a.Type] && !a.CreatedAt.Before(cutoff) {
			return a.CreatedAt, true
		}
	}
	return time.Time{}, false
}
