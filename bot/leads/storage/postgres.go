package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/katarsees/leadbot/bot/leads"
)

// Postgres is the durable leads.Store; leads and correlations survive
// process restarts, which is what lets an operator resolve a notification
// sent before the last deploy.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an already connected pool (see core/database.Connect).
func NewPostgres(db *sqlx.DB) (*Postgres, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: nil db")
	}
	return &Postgres{db: db}, nil
}

const queryTimeout = 5 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// SaveLead persists the record.
func (p *Postgres) SaveLead(ctx context.Context, lead leads.LeadRecord) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO leads (id, requester_id, display_name, handle, body, category, discount_code, proposed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		lead.ID, lead.RequesterID, lead.DisplayName, lead.Handle,
		lead.Body, string(lead.Category), lead.DiscountCode, lead.ProposedAt, lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// SaveCorrelation persists the pending correlation for a notification.
func (p *Postgres) SaveCorrelation(ctx context.Context, corr leads.Correlation) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO correlations (chat_id, message_id, lead_id, requester_id, origin_message_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6)`,
		corr.Notification.ChatID, corr.Notification.MessageID,
		corr.LeadID, corr.RequesterID, corr.OriginMessageID, corr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert correlation: %w", err)
	}
	return nil
}

type corrRow struct {
	ChatID          int64     `db:"chat_id"`
	MessageID       int       `db:"message_id"`
	LeadID          uuid.UUID `db:"lead_id"`
	RequesterID     int64     `db:"requester_id"`
	OriginMessageID int       `db:"origin_message_id"`
	CreatedAt       time.Time `db:"created_at"`
}

// ResolveCorrelation flips a pending correlation to resolved in a single
// statement, so two rapid taps race on the database row and exactly one
// update wins. The requester guard sits inside the same statement: a payload
// carrying the wrong requester never consumes the row. Losers are classified
// by re-reading the row.
func (p *Postgres) ResolveCorrelation(ctx context.Context, ref leads.NotificationRef, requesterID int64, verb leads.Verb) (leads.Correlation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var row corrRow
	err := p.db.GetContext(ctx, &row, `
		UPDATE correlations
		SET status = 'resolved', verb = $4, resolved_at = now()
		WHERE chat_id = $1 AND message_id = $2 AND requester_id = $3 AND status = 'pending'
		RETURNING chat_id, message_id, lead_id, requester_id, origin_message_id, created_at`,
		ref.ChatID, ref.MessageID, requesterID, string(verb),
	)
	if err == nil {
		return leads.Correlation{
			Notification:    leads.NotificationRef{ChatID: row.ChatID, MessageID: row.MessageID},
			LeadID:          row.LeadID,
			RequesterID:     row.RequesterID,
			OriginMessageID: row.OriginMessageID,
			CreatedAt:       row.CreatedAt,
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return leads.Correlation{}, fmt.Errorf("resolve correlation: %w", err)
	}

	var check struct {
		Status      string `db:"status"`
		RequesterID int64  `db:"requester_id"`
	}
	err = p.db.GetContext(ctx, &check, `
		SELECT status, requester_id FROM correlations WHERE chat_id = $1 AND message_id = $2`,
		ref.ChatID, ref.MessageID,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return leads.Correlation{}, leads.ErrNotFound
	case err != nil:
		return leads.Correlation{}, fmt.Errorf("correlation status: %w", err)
	case check.Status != "pending":
		return leads.Correlation{}, leads.ErrAlreadyResolved
	default:
		return leads.Correlation{}, leads.ErrMalformedDecision
	}
}

// RecentLeads returns up to limit newest records.
func (p *Postgres) RecentLeads(ctx context.Context, limit int) ([]leads.LeadRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var records []leads.LeadRecord
	err := p.db.SelectContext(ctx, &records, `
		SELECT id, requester_id, display_name, handle, body, category, discount_code, proposed_at, created_at
		FROM leads
		ORDER BY created_at DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select leads: %w", err)
	}
	return records, nil
}
