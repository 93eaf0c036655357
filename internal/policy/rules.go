package policy

import (
	"time"

	"holly/internal/lead"
	id "holly/pkg/domain"
)

// Message templates proposed by the rules. The outreach layer owns rendering.
const (
	TemplateIntro    = "intro"
	TemplateFollowUp = "follow_up"
	TemplateNurture  = "nurture"
)

// evalContext carries everything a rule may read. Rules never mutate it.
type evalContext struct {
	lead        *lead.Lead
	history     *lead.History
	now         time.Time
	cfg         Config
	windowStart time.Time
	attempts    int
}

type rule struct {
	name   string
	when   func(c *evalContext) bool
	decide func(c *evalContext) Decision
}

// rules is the ordered decision table, evaluated top-to-bottom; the first
// matching rule wins. Order matters: safety rules (terminal state, opt-out,
// consent exhaustion) come before progression rules, which come before
// outreach rules.
var rules = []rule{
	{
		name: "terminal status",
		when: func(c *evalContext) bool { return c.lead.Status.IsTerminal() },
		decide: func(c *evalContext) Decision {
			// The due-leads query excludes terminal leads; reaching this rule
			// means the snapshot raced a manual status change.
			return Decision{
				Action: ActionNone,
				Reason: "lead is in a terminal status",
			}
		},
	},
	{
		name: "opt-out requested",
		when: func(c *evalContext) bool {
			_, ok := c.history.LastActivityOfType(lead.ActivityOptOutRequested)
			return ok
		},
		decide: func(c *evalContext) Decision {
			return Decision{
				Action: ActionMarkDisabled,
				Reason: "lead requested to stop automated outreach",
			}
		},
	},
	{
		name: "missing contact identifiers",
		when: func(c *evalContext) bool {
			return c.lead.Email == "" && c.lead.Phone == ""
		},
		decide: func(c *evalContext) Decision {
			return Decision{
				Action:          ActionNone,
				NextReviewDelay: c.cfg.RetryDelay,
				Reason:          "lead has no contact identifiers",
				Anomaly:         true,
			}
		},
	},
	{
		name: "no consented channel",
		when: func(c *evalContext) bool { return !c.lead.Consent.Any() },
		decide: func(c *evalContext) Decision {
			// Nothing Holly is ever allowed to send; hand the lead back to a
			// human rather than rescheduling forever.
			return Decision{
				Action: ActionMarkDisabled,
				Reason: "no channel has consent",
			}
		},
	},
	{
		name: "scheduled call in the past",
		when: func(c *evalContext) bool {
			if c.lead.Status != lead.StatusCallScheduled {
				return false
			}
			scheduled, ok := c.history.LastActivityOfType(lead.ActivityCallScheduled)
			return ok && scheduled.CreatedAt.Before(c.now)
		},
		decide: func(c *evalContext) Decision {
			scheduled, _ := c.history.LastActivityOfType(lead.ActivityCallScheduled)
			if c.history.HasActivitySince(lead.ActivityCallCompleted, scheduled.CreatedAt) {
				return Decision{
					Action:          ActionAdvanceStatus,
					NewStatus:       lead.StatusCallCompleted,
					NextReviewDelay: c.cfg.EngagedDelay,
					Reason:          "completion signal found for scheduled call",
				}
			}
			return Decision{
				Action:          ActionPlaceCall,
				Channel:         id.ChannelCall,
				NextReviewDelay: c.cfg.CallRetryDelay,
				Reason:          "scheduled call passed without completion signal",
			}
		},
	},
	{
		name: "unresponsive after max attempts",
		when: func(c *evalContext) bool {
			if c.attempts < c.cfg.MaxAttempts {
				return false
			}
			first, ok := c.history.FirstOutreachSince(c.windowStart)
			return ok && !c.history.InboundSince(first)
		},
		decide: func(c *evalContext) Decision {
			if c.lead.Status == lead.StatusNurturing {
				return Decision{
					Action:    ActionMarkLost,
					NewStatus: lead.StatusLost,
					Reason:    "no response during nurturing after attempt limit",
				}
			}
			return Decision{
				Action:          ActionAdvanceStatus,
				NewStatus:       lead.StatusNurturing,
				NextReviewDelay: c.cfg.NurtureDelay,
				Reason:          "no response after attempt limit, moving to nurturing",
			}
		},
	},
	{
		name: "inbound reply pending",
		when: func(c *evalContext) bool {
			if c.lead.Status != lead.StatusNew && c.lead.Status != lead.StatusContacted {
				return false
			}
			if c.lead.LastContactedAt == nil {
				return false
			}
			return c.history.InboundSince(*c.lead.LastContactedAt)
		},
		decide: func(c *evalContext) Decision {
			return Decision{
				Action:          ActionAdvanceStatus,
				NewStatus:       lead.StatusEngaged,
				NextReviewDelay: c.cfg.EngagedDelay,
				Reason:          "lead replied since last outreach",
			}
		},
	},
	{
		name: "first touch",
		when: func(c *evalContext) bool { return c.lead.Status == lead.StatusNew },
		decide: func(c *evalContext) Decision {
			d := proposeMessage(c, TemplateIntro, c.cfg.FollowUpDelay, "first outreach to a new lead")
			if d.RequiresOutreach() {
				// The first successful touch moves the lead out of NEW so the
				// intro rule does not fire again next cycle.
				d.NewStatus = lead.StatusContacted
			}
			return d
		},
	},
	{
		name: "nurture touch",
		when: func(c *evalContext) bool { return c.lead.Status == lead.StatusNurturing },
		decide: func(c *evalContext) Decision {
			return proposeMessage(c, TemplateNurture, c.cfg.NurtureDelay, "periodic nurture outreach")
		},
	},
	{
		name: "follow up",
		when: func(c *evalContext) bool {
			switch c.lead.Status {
			case lead.StatusContacted, lead.StatusEngaged, lead.StatusCallCompleted, lead.StatusApplicationStarted:
				return true
			}
			return false
		},
		decide: func(c *evalContext) Decision {
			return proposeMessage(c, TemplateFollowUp, c.cfg.FollowUpDelay, "follow-up outreach")
		},
	},
}

// proposeMessage picks the preferred consented channel with a usable
// destination. The proposal is speculative: the runner still runs the
// compliance gate before anything is sent.
func proposeMessage(c *evalContext, template string, delay time.Duration, reason string) Decision {
	ch, ok := preferredChannel(c.lead)
	if !ok {
		return Decision{
			Action:          ActionNone,
			NextReviewDelay: c.cfg.RetryDelay,
			Reason:          "no consented channel has a destination",
			Anomaly:         true,
		}
	}
	if ch == id.ChannelCall {
		return Decision{
			Action:          ActionPlaceCall,
			Channel:         ch,
			NextReviewDelay: delay,
			Reason:          reason,
		}
	}
	return Decision{
		Action:          ActionSendMessage,
		Channel:         ch,
		Template:        template,
		NextReviewDelay: delay,
		Reason:          reason,
	}
}

// preferredChannel orders channels sms > email > call, skipping channels
// without consent or without a destination identifier.
func preferredChannel(l *lead.Lead) (id.Channel, bool) {
	if l.Consent.SMS && l.Phone != "" {
		return id.ChannelSMS, true
	}
	if l.Consent.Email && l.Email != "" {
		return id.ChannelEmail, true
	}
	if l.Consent.Call && l.Phone != "" {
		return id.ChannelCall, true
	}
	return "", false
}
