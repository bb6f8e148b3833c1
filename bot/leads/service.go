package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/katarsees/leadbot/core/logger"
)

// instaDiscountCode is the Instagram promo word the original campaign uses;
// course leads mentioning it are flagged for the operator.
const instaDiscountCode = "INSTAZNIJKA"

// OperatorNotifier delivers a rendered lead envelope to the operator and
// returns the notification reference on confirmed delivery.
type OperatorNotifier interface {
	SendLead(ctx context.Context, lead LeadRecord) (NotificationRef, error)
}

// Options configure a Service.
type Options struct {
	Store    Store
	Notifier OperatorNotifier
	// OperatorID is the only identity allowed to resolve leads.
	OperatorID int64
	// ParseProposedTime extracts a requested consultation date from free
	// text; nil disables the extraction.
	ParseProposedTime func(string) (time.Time, bool)
}

// Service is the lead intake and review core: it records leads, correlates
// operator notifications, and applies operator decisions.
type Service struct {
	store         Store
	notifier      OperatorNotifier
	operatorID    int64
	parseProposed func(string) (time.Time, bool)
	now           func() time.Time
}

// NewService wires a Service from its collaborators.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("leads: nil store")
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("leads: nil notifier")
	}
	if opts.OperatorID == 0 {
		return nil, fmt.Errorf("leads: operator id is required")
	}
	return &Service{
		store:         opts.Store,
		notifier:      opts.Notifier,
		operatorID:    opts.OperatorID,
		parseProposed: opts.ParseProposedTime,
		now:           time.Now,
	}, nil
}

// NewLead carries the raw inputs that finalize a lead.
type NewLead struct {
	RequesterID     int64
	DisplayName     string
	Handle          string
	Body            string
	Category        Category
	OriginMessageID int
}

// Record validates and persists a lead, notifies the operator and stores
// the correlation. The correlation is written only after the notification
// was confirmed delivered, so a transport failure leaves no half-delivered
// lead behind: the record stays stored, the requester can retry, and no
// decision can ever reference it.
func (s *Service) Record(ctx context.Context, in NewLead) (LeadRecord, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return LeadRecord{}, ErrEmptyBody
	}

	lead := LeadRecord{
		ID:          uuid.New(),
		RequesterID: in.RequesterID,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Handle:      strings.TrimPrefix(strings.TrimSpace(in.Handle), "@"),
		Body:        body,
		Category:    in.Category,
		CreatedAt:   s.now().UTC(),
	}
	if lead.Category == "" {
		lead.Category = CategoryGeneral
	}
	if lead.Category == CategoryCourse && strings.Contains(strings.ToLower(body), strings.ToLower(instaDiscountCode)) {
		lead.DiscountCode = instaDiscountCode
	}
	if lead.Category == CategoryConsultation && s.parseProposed != nil {
		if t, ok := s.parseProposed(body); ok {
			lead.ProposedAt = &t
		}
	}

	if err := s.store.SaveLead(ctx, lead); err != nil {
		return LeadRecord{}, fmt.Errorf("save lead: %w", err)
	}

	ref, err := s.notifier.SendLead(ctx, lead)
	if err != nil {
		logger.Error(ctx, "service.leads", "lead.notify",
			slog.String("status", "fail"),
			slog.String("lead_id", lead.ID.String()),
			slog.String("category", string(lead.Category)),
			slog.Int64("requester_id", lead.RequesterID),
			slog.String("err", err.Error()),
		)
		return LeadRecord{}, &DeliveryError{Err: err}
	}

	corr := Correlation{
		Notification:    ref,
		LeadID:          lead.ID,
		RequesterID:     lead.RequesterID,
		OriginMessageID: in.OriginMessageID,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.SaveCorrelation(ctx, corr); err != nil {
		return LeadRecord{}, fmt.Errorf("save correlation: %w", err)
	}

	logger.Info(ctx, "service.leads", "lead.recorded",
		slog.String("status", "ok"),
		slog.String("lead_id", lead.ID.String()),
		slog.String("category", string(lead.Category)),
		slog.Int64("requester_id", lead.RequesterID),
		slog.Int64("notification_chat_id", ref.ChatID),
		slog.Int("notification_msg_id", ref.MessageID),
	)
	return lead, nil
}

// Decision is an inbound operator action on a lead notification.
type Decision struct {
	ActorID int64
	Ref     NotificationRef
	Payload string
}

// Outcome is the result of a successfully applied decision.
type Outcome struct {
	Verb        Verb
	Correlation Correlation
}

// Decide authorizes, decodes and resolves an operator decision. Each step
// fails with its own workflow error and leaves the correlation untouched;
// only a successful resolve transitions it, exactly once.
func (s *Service) Decide(ctx context.Context, d Decision) (Outcome, error) {
	if d.ActorID != s.operatorID {
		logger.Warn(ctx, "service.review", "decision.unauthorized",
			slog.Int64("user_id", d.ActorID),
		)
		return Outcome{}, ErrUnauthorized
	}

	verb, requesterID, err := DecodeDecision(d.Payload)
	if err != nil {
		logger.Warn(ctx, "service.review", "decision.malformed",
			slog.String("payload", logger.SanitizeLimit(d.Payload, 64)),
		)
		return Outcome{}, err
	}

	// The resolve is conditional on the payload requester matching the
	// stored correlation, so a forged payload never consumes the row.
	corr, err := s.store.ResolveCorrelation(ctx, d.Ref, requesterID, verb)
	switch {
	case IsStale(err):
		logger.Info(ctx, "service.review", "decision.stale",
			slog.String("verb", string(verb)),
			slog.Int64("notification_chat_id", d.Ref.ChatID),
			slog.Int("notification_msg_id", d.Ref.MessageID),
			slog.String("err", err.Error()),
		)
		return Outcome{}, err
	case errors.Is(err, ErrMalformedDecision):
		logger.Warn(ctx, "service.review", "decision.requester_mismatch",
			slog.Int64("requester_id", requesterID),
			slog.Int64("notification_chat_id", d.Ref.ChatID),
			slog.Int("notification_msg_id", d.Ref.MessageID),
		)
		return Outcome{}, err
	case err != nil:
		return Outcome{}, fmt.Errorf("resolve correlation: %w", err)
	}

	logger.Info(ctx, "service.review", "decision.applied",
		slog.String("status", "ok"),
		slog.String("verb", string(verb)),
		slog.String("lead_id", corr.LeadID.String()),
		slog.Int64("requester_id", corr.RequesterID),
	)
	return Outcome{Verb: verb, Correlation: corr}, nil
}

// Recent returns up to limit newest leads for operator review commands.
func (s *Service) Recent(ctx context.Context, limit int) ([]LeadRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	records, err := s.store.RecentLeads(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent leads: %w", err)
	}
	return records, nil
}
