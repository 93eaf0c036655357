// Package review implements the autonomous review cycle: selecting due leads,
// asking the policy engine for a decision, gating it through compliance, and
// applying the outcome exactly once per lead per cycle.
package review

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"holly/internal/audit"
	"holly/internal/compliance"
	"holly/internal/lead"
	"holly/internal/outreach"
	"holly/internal/policy"
	"holly/internal/review/metrics"
	id "holly/pkg/domain"
	"holly/pkg/requestcontext"
)

// Config holds the runner knobs. Policy thresholds live in policy.Config;
// these govern the cycle itself.
type Config struct {
	Concurrency     int
	BatchLimit      int
	ProviderBackoff time.Duration
}

// LeadOutcome classifies how one lead fared in a cycle.
type LeadOutcome string

const (
	OutcomeProcessed LeadOutcome = "processed"
	OutcomeSkipped   LeadOutcome = "skipped"
	OutcomeErrored   LeadOutcome = "errored"
)

// CycleReport aggregates per-lead outcomes for one cycle invocation.
type CycleReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Due        int       `json:"due"`
	Processed  int       `json:"processed"`
	Skipped    int       `json:"skipped"`
	Errored    int       `json:"errored"`
}

// Runner executes review cycles. It is stateless across invocations: all
// state that matters (nextReviewAt, status, claim versions) is persisted, so
// any process instance can run the next cycle.
type Runner struct {
	store    lead.Store
	engine   *policy.Engine
	gate     *compliance.Gate
	outreach outreach.Client
	audit    *audit.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cfg      Config
}

func NewRunner(
	store lead.Store,
	engine *policy.Engine,
	gate *compliance.Gate,
	outreachClient outreach.Client,
	auditPub *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
	cfg Config,
) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Runner{
		store:    store,
		engine:   engine,
		gate:     gate,
		outreach: outreachClient,
		audit:    auditPub,
		logger:   logger,
		metrics:  m,
		cfg:      cfg,
	}
}

// RunCycle processes every due lead once. Leads are independent, so they are
// reviewed concurrently under a bounded worker pool; per-lead failures are
// isolated and only aggregated into the report. The cycle is safe to
// interrupt: each lead's state is committed atomically at the end of its own
// processing.
func (r *Runner) RunCycle(ctx context.Context, now time.Time) (*CycleReport, error) {
	tracer := otel.Tracer("holly/review")
	ctx, span := tracer.Start(ctx, "review.RunCycle")
	defer span.End()

	start := time.Now()
	report := &CycleReport{StartedAt: now}

	due, err := r.store.FindDueLeads(ctx, now, r.cfg.BatchLimit)
	if err != nil {
		return nil, err
	}
	report.Due = len(due)
	span.SetAttributes(attribute.Int("review.due", len(due)))

	results := make([]LeadOutcome, len(due))

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for i, l := range due {
		g.Go(func() error {
			if ctx.Err() != nil {
				// Interrupted mid-cycle: unprocessed leads stay due and are
				// picked up by the next trigger.
				results[i] = OutcomeSkipped
				return nil
			}
			results[i] = r.reviewLead(ctx, l, now)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		switch res {
		case OutcomeProcessed:
			report.Processed++
		case OutcomeSkipped:
			report.Skipped++
		case OutcomeErrored:
			report.Errored++
		}
		r.metrics.IncrementLeadOutcome(string(res))
	}

	report.FinishedAt = now.Add(time.Since(start))
	r.metrics.ObserveCycleDuration(time.Since(start))

	if err := r.audit.Emit(ctx, audit.Event{
		Timestamp: now,
		Action:    string(audit.EventCycleCompleted),
		Reason:    requestcontext.RequestID(ctx),
	}); err != nil {
		r.logger.WarnContext(ctx, "cycle audit emit failed", "error", err)
	}

	r.logger.InfoContext(ctx, "review cycle completed",
		"request_id", requestcontext.RequestID(ctx),
		"due", report.Due,
		"processed", report.Processed,
		"skipped", report.Skipped,
		"errored", report.Errored,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// reviewLead runs steps claim → load → decide → gate → act → persist for one
// lead. Every return path before ApplyOutcome leaves the lead's NextReviewAt
// untouched, so it simply stays due for the next cycle.
func (r *Runner) reviewLead(ctx context.Context, snapshot *lead.Lead, now time.Time) LeadOutcome {
	ctx, span := otel.Tracer("holly/review").Start(ctx, "review.lead",
		trace.WithAttributes(attribute.String("lead.id", snapshot.ID.String())))
	defer span.End()

	log := r.logger.With("lead_id", snapshot.ID.String(), "request_id", requestcontext.RequestID(ctx))

	claimed, err := r.store.ClaimLead(ctx, snapshot.ID, snapshot.Version)
	if err != nil {
		log.ErrorContext(ctx, "lead claim failed", "error", err)
		return OutcomeErrored
	}
	if !claimed {
		// Another runner holds the lead; exactly one of us proceeds.
		return OutcomeSkipped
	}

	current, history, err := r.store.LoadWithHistory(ctx, snapshot.ID)
	if err != nil {
		log.ErrorContext(ctx, "lead history load failed", "error", err)
		return OutcomeErrored
	}

	decision := r.engine.Decide(current, history, now)
	r.metrics.IncrementDecision(string(decision.Action))
	if decision.Anomaly {
		r.metrics.IncrementAnomaly()
		log.WarnContext(ctx, "policy decision degraded by anomaly", "reason", decision.Reason)
		r.emit(ctx, audit.Event{
			Timestamp: now,
			LeadID:    current.ID,
			Action:    string(audit.EventPolicyAnomaly),
			Reason:    decision.Reason,
		})
	}

	if decision.RequiresOutreach() {
		return r.executeOutreach(ctx, log, current, decision, now)
	}
	return r.applyDecision(ctx, log, current, decision, now, nil, nil)
}

// executeOutreach performs the gate check and provider call for channel
// actions, then persists the outcome.
func (r *Runner) executeOutreach(ctx context.Context, log *slog.Logger, l *lead.Lead, decision policy.Decision, now time.Time) LeadOutcome {
	allowed, err := r.gate.IsAllowed(ctx, l, decision.Channel)
	if err != nil {
		// Fail closed without writing; the lead stays due.
		log.ErrorContext(ctx, "compliance check failed", "channel", decision.Channel, "error", err)
		return OutcomeErrored
	}
	if !allowed {
		log.InfoContext(ctx, "outreach denied by compliance gate", "channel", decision.Channel)
		r.emit(ctx, audit.Event{
			Timestamp: now,
			LeadID:    l.ID,
			Action:    string(audit.EventComplianceDenied),
			Channel:   decision.Channel.String(),
			Decision:  string(decision.Action),
			Reason:    decision.Reason,
		})
		denied := lead.Activity{
			ID:        id.NewActivityID(),
			LeadID:    l.ID,
			Type:      lead.ActivityComplianceDenied,
			Channel:   decision.Channel,
			Detail:    decision.Reason,
			CreatedAt: now,
		}
		// Downgrade to no-action but keep the decision's schedule.
		downgraded := policy.Decision{Action: policy.ActionNone, NextReviewDelay: decision.NextReviewDelay}
		return r.applyDecision(ctx, log, l, downgraded, now, &denied, nil)
	}

	var payload outreach.Payload
	if decision.Action == policy.ActionSendMessage {
		payload, err = outreach.Render(decision.Template, l, decision.Channel)
		if err != nil {
			log.ErrorContext(ctx, "outreach template render failed", "template", decision.Template, "error", err)
			return OutcomeErrored
		}
	}

	destination := l.Destination(decision.Channel)
	result, err := r.outreach.Send(ctx, decision.Channel, destination, payload)
	if err != nil {
		log.WarnContext(ctx, "outreach send failed", "channel", decision.Channel, "error", err)
		r.emit(ctx, audit.Event{
			Timestamp: now,
			LeadID:    l.ID,
			Action:    string(audit.EventOutreachFailed),
			Channel:   decision.Channel.String(),
			Reason:    err.Error(),
		})
		backoffAt := now.Add(r.cfg.ProviderBackoff)
		failed := lead.Outcome{
			NextReviewAt: &backoffAt,
			Activity: &lead.Activity{
				ID:        id.NewActivityID(),
				LeadID:    l.ID,
				Type:      lead.ActivityAttemptFailed,
				Channel:   decision.Channel,
				Detail:    err.Error(),
				CreatedAt: now,
			},
		}
		// Status is deliberately unchanged on provider failure.
		if err := r.store.ApplyOutcome(ctx, l.ID, failed); err != nil {
			log.ErrorContext(ctx, "backoff write failed", "error", err)
		}
		return OutcomeErrored
	}

	r.emit(ctx, audit.Event{
		Timestamp: now,
		LeadID:    l.ID,
		Action:    string(audit.EventOutreachSent),
		Channel:   decision.Channel.String(),
		Decision:  result.ProviderID,
	})

	activityType := lead.ActivityMessageSent
	if decision.Action == policy.ActionPlaceCall {
		activityType = lead.ActivityCallInitiated
	}
	sent := lead.Activity{
		ID:         id.NewActivityID(),
		LeadID:     l.ID,
		Type:       activityType,
		Channel:    decision.Channel,
		ProviderID: result.ProviderID,
		CreatedAt:  now,
	}
	var comm *lead.Communication
	if decision.Action == policy.ActionSendMessage {
		comm = &lead.Communication{
			ID:        id.NewCommunicationID(),
			LeadID:    l.ID,
			Direction: lead.DirectionOutbound,
			Channel:   decision.Channel,
			Body:      payload.Body,
			CreatedAt: now,
		}
	}
	return r.applyDecision(ctx, log, l, decision, now, &sent, comm)
}

// applyDecision translates the decision into one atomic store write.
func (r *Runner) applyDecision(ctx context.Context, log *slog.Logger, l *lead.Lead, decision policy.Decision, now time.Time, activity *lead.Activity, comm *lead.Communication) LeadOutcome {
	out := lead.Outcome{Activity: activity, Communication: comm}

	switch decision.Action {
	case policy.ActionAdvanceStatus, policy.ActionMarkLost:
		status := decision.NewStatus
		out.NewStatus = &status
		if activity == nil {
			out.Activity = &lead.Activity{
				ID:        id.NewActivityID(),
				LeadID:    l.ID,
				Type:      lead.ActivityStatusChanged,
				Detail:    string(l.Status) + " -> " + string(status),
				CreatedAt: now,
			}
		}
		r.emit(ctx, audit.Event{
			Timestamp: now,
			LeadID:    l.ID,
			Action:    string(audit.EventStatusChanged),
			Decision:  string(status),
			Reason:    decision.Reason,
		})
	case policy.ActionMarkDisabled:
		out.Disable = true
		if activity == nil {
			out.Activity = &lead.Activity{
				ID:        id.NewActivityID(),
				LeadID:    l.ID,
				Type:      lead.ActivityAutomationPaused,
				Detail:    decision.Reason,
				CreatedAt: now,
			}
		}
		r.emit(ctx, audit.Event{
			Timestamp: now,
			LeadID:    l.ID,
			Action:    string(audit.EventLeadDisabled),
			Reason:    decision.Reason,
		})
	}

	if decision.Action == policy.ActionSendMessage || decision.Action == policy.ActionPlaceCall {
		out.LastContactedAt = &now
		// An outreach decision may carry a status transition, e.g. the first
		// touch moving NEW to CONTACTED.
		if decision.NewStatus != "" {
			status := decision.NewStatus
			out.NewStatus = &status
		}
	}

	terminal := out.NewStatus != nil && out.NewStatus.IsTerminal()
	switch {
	case decision.NextReviewDelay > 0:
		at := now.Add(decision.NextReviewDelay)
		out.NextReviewAt = &at
	case terminal || out.Disable || l.Status.IsTerminal():
		// Zero delay on a terminal decision means "never review again".
		out.ClearNextReview = true
	default:
		// A zero delay outside a terminal decision is a policy bug; keep the
		// lead visible rather than dropping it from review.
		at := now.Add(r.cfg.ProviderBackoff)
		out.NextReviewAt = &at
		log.WarnContext(ctx, "non-terminal decision without delay", "action", decision.Action)
	}

	if err := r.store.ApplyOutcome(ctx, l.ID, out); err != nil {
		log.ErrorContext(ctx, "outcome write failed", "action", decision.Action, "error", err)
		return OutcomeErrored
	}
	return OutcomeProcessed
}

// emit records an audit event, logging rather than failing the lead when the
// audit sink is unavailable.
func (r *Runner) emit(ctx context.Context, event audit.Event) {
	if err := r.audit.Emit(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
