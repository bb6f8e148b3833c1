package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/katarsees/leadbot/bot/leads"
	"github.com/katarsees/leadbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// decisionCallbackKey is the callback unique under which decision buttons
// are registered; the payload encodes the verb and requester.
const decisionCallbackKey = "lead"

// telegramNotifier delivers lead envelopes to the operator chat. The bot
// instance only exists once the runtime is up, so it is bound in OnStart.
type telegramNotifier struct {
	bot        atomic.Pointer[tele.Bot]
	operatorID int64
}

func newTelegramNotifier(operatorID int64) *telegramNotifier {
	return &telegramNotifier{operatorID: operatorID}
}

// Bind attaches the running bot instance to the notifier.
func (n *telegramNotifier) Bind(b *tele.Bot) {
	n.bot.Store(b)
}

// SendLead sends the HTML envelope with decision buttons to the operator
// synchronously and returns the delivered message reference.
func (n *telegramNotifier) SendLead(_ context.Context, lead leads.LeadRecord) (leads.NotificationRef, error) {
	b := n.bot.Load()
	if b == nil {
		return leads.NotificationRef{}, fmt.Errorf("telegram transport is not started")
	}

	msg, err := b.Send(
		tele.ChatID(n.operatorID),
		renderLeadEnvelope(lead),
		&tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: decisionKeyboard(lead.RequesterID)},
	)
	if err != nil {
		return leads.NotificationRef{}, fmt.Errorf("send operator notification: %w", err)
	}
	return leads.NotificationRef{ChatID: msg.Chat.ID, MessageID: msg.ID}, nil
}

// sendToRequester delivers a message to the requester's private chat,
// optionally threading it onto the message that produced the lead.
func (n *telegramNotifier) sendToRequester(requesterID int64, originMessageID int, text string) error {
	b := n.bot.Load()
	if b == nil {
		return fmt.Errorf("telegram transport is not started")
	}

	opts := &tele.SendOptions{}
	if originMessageID != 0 {
		opts.ReplyTo = &tele.Message{ID: originMessageID, Chat: &tele.Chat{ID: requesterID}}
	}
	if _, err := b.Send(tele.ChatID(requesterID), text, opts); err != nil {
		return fmt.Errorf("send to requester: %w", err)
	}
	return nil
}

func decisionKeyboard(requesterID int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	accept := markup.Data(btnAccept, decisionCallbackKey, leads.EncodeDecision(leads.VerbAccept, requesterID))
	reject := markup.Data(btnReject, decisionCallbackKey, leads.EncodeDecision(leads.VerbReject, requesterID))
	clarify := markup.Data(btnClarify, decisionCallbackKey, leads.EncodeDecision(leads.VerbClarify, requesterID))
	markup.InlineKeyboard = keyboard.ToInlineKeyboard([][]tele.Btn{
		{accept, reject},
		{clarify},
	})
	return markup
}
