package bot

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/katarsees/leadbot/bot/leads"
	"github.com/katarsees/leadbot/core/logger"
	"github.com/katarsees/leadbot/core/telegram/callbacks"
	tghelpers "github.com/katarsees/leadbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// handleDecision applies an operator tap on a lead notification button.
// On success exactly one outcome message reaches the requester and the
// notification is edited in place, which also drops the buttons. Every
// failure notifies only the actor.
func (a *App) handleDecision(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "review.decision")

	cb := c.Callback()
	if cb == nil || cb.Message == nil {
		return nil
	}
	ref := leads.NotificationRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.ID}

	outcome, err := a.service.Decide(ctx, leads.Decision{
		ActorID: c.Sender().ID,
		Ref:     ref,
		Payload: callbacks.CallbackPayload(c),
	})
	if err != nil {
		return a.noticeDecisionError(c, err)
	}
	corr := outcome.Correlation

	if err := a.notifier.sendToRequester(corr.RequesterID, corr.OriginMessageID, verbOutcomes[outcome.Verb]); err != nil {
		// The correlation is already resolved; the outcome just did not
		// reach the requester (blocked bot, deleted account). Surface it
		// to the operator instead of failing silently.
		logger.Error(ctx, "service.review", "outcome.notify",
			slog.String("status", "fail"),
			slog.String("verb", string(outcome.Verb)),
			slog.Int64("requester_id", corr.RequesterID),
			slog.String("err", err.Error()),
		)
		_ = tghelpers.SendText(c, textNoticeFailed)
		return err
	}

	return tghelpers.EditHTML(c, renderResolvedEnvelope(cb.Message.Text, outcome.Verb, a.now()))
}

// noticeDecisionError maps workflow errors to operator-facing notices.
// A second tap on an already-resolved lead is a soft no-op, not a failure.
func (a *App) noticeDecisionError(c tele.Context, err error) error {
	switch {
	case errors.Is(err, leads.ErrAlreadyResolved):
		_ = tghelpers.SendText(c, textNoticeResolved)
		return nil
	case errors.Is(err, leads.ErrNotFound):
		_ = tghelpers.SendText(c, textNoticeNotFound)
		return err
	case errors.Is(err, leads.ErrUnauthorized):
		_ = tghelpers.SendText(c, textNoticeUnauthorized)
		return err
	case errors.Is(err, leads.ErrMalformedDecision):
		_ = tghelpers.SendText(c, textNoticeMalformed)
		return err
	default:
		_ = tghelpers.SendText(c, textNoticeFailed)
		return err
	}
}

// handleTestAlert routes a synthetic lead through the real notification
// path so the operator can verify delivery end to end.
func (a *App) handleTestAlert(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "review.test_alert")
	if _, err := a.notifier.SendLead(ctx, a.selfCheckLead()); err != nil {
		_ = tghelpers.SendText(c, textNoticeFailed)
		return err
	}
	return tghelpers.SendText(c, textTestAlertDone)
}

// selfCheckLead builds the synthetic record for /test_alert. It is addressed
// to the operator and no correlation is stored for it, so tapping its
// buttons reports a stale decision instead of messaging anyone.
func (a *App) selfCheckLead() leads.LeadRecord {
	return leads.LeadRecord{
		ID:          uuid.New(),
		RequesterID: a.cfg.Telegram.OperatorID,
		DisplayName: "Самоперевірка",
		Body:        textTestAlert,
		Category:    leads.CategoryGeneral,
		CreatedAt:   a.now().UTC(),
	}
}

// handleRecentLeads sends the operator a digest of the newest leads.
func (a *App) handleRecentLeads(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "review.recent")

	records, err := a.service.Recent(ctx, 10)
	if err != nil {
		_ = tghelpers.SendText(c, textNoticeFailed)
		return err
	}
	if len(records) == 0 {
		return tghelpers.SendText(c, textNoLeads)
	}
	return tghelpers.SendHTML(c, renderRecentLeads(records))
}
