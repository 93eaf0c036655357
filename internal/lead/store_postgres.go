package lead

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "holly/pkg/domain"
	"holly/pkg/platform/sentinel"
)

// Schema creates the lead tables. Applied by deployment tooling and by the
// integration test containers.
const Schema = `
CREATE TABLE IF NOT EXISTS leads (
	id UUID PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	consent_email BOOLEAN NOT NULL DEFAULT FALSE,
	consent_sms BOOLEAN NOT NULL DEFAULT FALSE,
	consent_call BOOLEAN NOT NULL DEFAULT FALSE,
	managed_by_autonomous BOOLEAN NOT NULL DEFAULT FALSE,
	holly_disabled BOOLEAN NOT NULL DEFAULT FALSE,
	next_review_at TIMESTAMPTZ,
	last_contacted_at TIMESTAMPTZ,
	version BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_leads_due
	ON leads (next_review_at, id)
	WHERE managed_by_autonomous AND NOT holly_disabled;

CREATE TABLE IF NOT EXISTS activities (
	id UUID PRIMARY KEY,
	lead_id UUID NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	channel TEXT NOT NULL DEFAULT '',
	provider_id TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_activities_lead ON activities (lead_id, created_at);

CREATE TABLE IF NOT EXISTS communications (
	id UUID PRIMARY KEY,
	lead_id UUID NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	direction TEXT NOT NULL,
	channel TEXT NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_communications_lead ON communications (lead_id, created_at);
`

const leadColumns = `id, first_name, last_name, email, phone, status,
	consent_email, consent_sms, consent_call,
	managed_by_autonomous, holly_disabled,
	next_review_at, last_contacted_at, version, created_at, updated_at`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, l *Lead) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		uuid.UUID(l.ID), l.FirstName, l.LastName, l.Email, l.Phone, string(l.Status),
		l.Consent.Email, l.Consent.SMS, l.Consent.Call,
		l.ManagedByAutonomous, l.HollyDisabled,
		l.NextReviewAt, l.LastContactedAt, l.Version, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	var leadID uuid.UUID
	var status string
	err := row.Scan(&leadID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &status,
		&l.Consent.Email, &l.Consent.SMS, &l.Consent.Call,
		&l.ManagedByAutonomous, &l.HollyDisabled,
		&l.NextReviewAt, &l.LastContactedAt, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan lead: %w", err)
	}
	l.ID = id.LeadID(leadID)
	l.Status = Status(status)
	return &l, nil
}

func (s *PostgresStore) Get(ctx context.Context, leadID id.LeadID) (*Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, uuid.UUID(leadID))
	return scanLead(row)
}

func (s *PostgresStore) FindDueLeads(ctx context.Context, now time.Time, limit int) ([]*Lead, error) {
	// LIMIT NULL means no limit; keeps limit <= 0 consistent with the
	// in-memory store.
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE managed_by_autonomous
		  AND NOT holly_disabled
		  AND status NOT IN ($1, $2, $3)
		  AND next_review_at IS NOT NULL
		  AND next_review_at <= $4
		ORDER BY next_review_at, id
		LIMIT $5`,
		string(StatusLost), string(StatusConverted), string(StatusDealsWon), now, lim,
	)
	if err != nil {
		return nil, fmt.Errorf("query due leads: %w", err)
	}
	defer rows.Close()

	var due []*Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, l)
	}
	return due, rows.Err()
}

func (s *PostgresStore) LoadWithHistory(ctx context.Context, leadID id.LeadID) (*Lead, *History, error) {
	l, err := s.Get(ctx, leadID)
	if err != nil {
		return nil, nil, err
	}

	h := &History{}
	actRows, err := s.pool.Query(ctx, `
		SELECT id, lead_id, type, channel, provider_id, detail, created_at
		FROM activities WHERE lead_id = $1 ORDER BY created_at, id`, uuid.UUID(leadID))
	if err != nil {
		return nil, nil, fmt.Errorf("query activities: %w", err)
	}
	defer actRows.Close()
	for actRows.Next() {
		var a Activity
		var aID, lID uuid.UUID
		var aType, channel string
		if err := actRows.Scan(&aID, &lID, &aType, &channel, &a.ProviderID, &a.Detail, &a.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan activity: %w", err)
		}
		a.ID = id.ActivityID(aID)
		a.LeadID = id.LeadID(lID)
		a.Type = ActivityType(aType)
		a.Channel = id.Channel(channel)
		h.Activities = append(h.Activities, a)
	}
	if err := actRows.Err(); err != nil {
		return nil, nil, err
	}

	commRows, err := s.pool.Query(ctx, `
		SELECT id, lead_id, direction, channel, body, created_at
		FROM communications WHERE lead_id = $1 ORDER BY created_at, id`, uuid.UUID(leadID))
	if err != nil {
		return nil, nil, fmt.Errorf("query communications: %w", err)
	}
	defer commRows.Close()
	for commRows.Next() {
		var c Communication
		var cID, lID uuid.UUID
		var direction, channel string
		if err := commRows.Scan(&cID, &lID, &direction, &channel, &c.Body, &c.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan communication: %w", err)
		}
		c.ID = id.CommunicationID(cID)
		c.LeadID = id.LeadID(lID)
		c.Direction = Direction(direction)
		c.Channel = id.Channel(channel)
		h.Communications = append(h.Communications, c)
	}
	return l, h, commRows.Err()
}

// ClaimLead is the compare-and-swap guarding at-most-once processing per
// cycle. The version predicate makes the update a no-op when another runner
// already claimed the lead.
func (s *PostgresStore) ClaimLead(ctx context.Context, leadID id.LeadID, version int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE leads SET version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`, uuid.UUID(leadID), version)
	if err != nil {
		return false, fmt.Errorf("claim lead: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ApplyOutcome(ctx context.Context, leadID id.LeadID, out Outcome) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin outcome tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	set := "updated_at = now()"
	args := []any{uuid.UUID(leadID)}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if out.NewStatus != nil {
		set += ", status = " + arg(string(*out.NewStatus))
	}
	if out.Disable {
		set += ", holly_disabled = TRUE"
	}
	if out.ClearNextReview {
		set += ", next_review_at = NULL"
	} else if out.NextReviewAt != nil {
		set += ", next_review_at = " + arg(*out.NextReviewAt)
	}
	if out.LastContactedAt != nil {
		set += ", last_contacted_at = " + arg(*out.LastContactedAt)
	}

	tag, err := tx.Exec(ctx, "UPDATE leads SET "+set+" WHERE id = $1", args...)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}

	if out.Activity != nil {
		if err := insertActivity(ctx, tx, *out.Activity); err != nil {
			return err
		}
	}
	if out.Communication != nil {
		if err := insertCommunication(ctx, tx, *out.Communication); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertActivity(ctx context.Context, tx pgx.Tx, a Activity) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO activities (id, lead_id, type, channel, provider_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(a.ID), uuid.UUID(a.LeadID), string(a.Type), string(a.Channel),
		a.ProviderID, a.Detail, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func insertCommunication(ctx context.Context, tx pgx.Tx, c Communication) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO communications (id, lead_id, direction, channel, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(c.ID), uuid.UUID(c.LeadID), string(c.Direction), string(c.Channel),
		c.Body, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert communication: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetConsent(ctx context.Context, leadID id.LeadID, ch id.Channel, granted bool) error {
	var column string
	switch ch {
	case id.ChannelEmail:
		column = "consent_email"
	case id.ChannelSMS:
		column = "consent_sms"
	case id.ChannelCall:
		column = "consent_call"
	default:
		return sentinel.ErrInvalidState
	}
	tag, err := s.pool.Exec(ctx,
		"UPDATE leads SET "+column+" = $2, updated_at = now() WHERE id = $1",
		uuid.UUID(leadID), granted)
	if err != nil {
		return fmt.Errorf("set consent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendActivity(ctx context.Context, a Activity) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin activity tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := insertActivity(ctx, tx, a); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) AppendCommunication(ctx context.Context, c Communication) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin communication tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := insertCommunication(ctx, tx, c); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Delete(ctx context.Context, leadID id.LeadID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, uuid.UUID(leadID))
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
