package bot

import (
	"errors"
	"strings"

	"github.com/katarsees/leadbot/bot/leads"
	tghelpers "github.com/katarsees/leadbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// handleAwaitedText finalizes a lead from the category the session awaits.
// The session may have expired between routing and handling; in that case
// the text degrades to a general lead rather than getting dropped.
func (a *App) handleAwaitedText(c tele.Context) error {
	uid := c.Sender().ID
	return a.sessions.Serialize(uid, func() error {
		category := leads.CategoryGeneral
		if cat, ok := awaitedCategory(a.sessions.Get(uid)); ok {
			category = cat
		}
		return a.recordLead(c, category)
	})
}

// handleImplicitLead turns idle free text into a general lead.
func (a *App) handleImplicitLead(c tele.Context) error {
	uid := c.Sender().ID
	return a.sessions.Serialize(uid, func() error {
		return a.recordLead(c, leads.CategoryGeneral)
	})
}

// handleDocument nudges non-text updates back to the menu.
func (a *App) handleDocument(c tele.Context) error {
	tghelpers.WithHandler(c, "intake.document")
	return tghelpers.SendText(c, textMenuHint, &tele.SendOptions{ReplyMarkup: mainKeyboard()})
}

// recordLead runs the intake pipeline for the current message. Callers must
// hold the requester's serialization lock.
func (a *App) recordLead(c tele.Context, category leads.Category) error {
	ctx := tghelpers.WithHandler(c, "intake.record")
	sender := c.Sender()

	var originID int
	if msg := c.Message(); msg != nil {
		originID = msg.ID
	}

	_, err := a.service.Record(ctx, leads.NewLead{
		RequesterID:     sender.ID,
		DisplayName:     strings.TrimSpace(sender.FirstName + " " + sender.LastName),
		Handle:          sender.Username,
		Body:            c.Text(),
		Category:        category,
		OriginMessageID: originID,
	})
	switch {
	case errors.Is(err, leads.ErrEmptyBody):
		// Session stays armed so the requester can simply try again.
		return tghelpers.SendText(c, textEmptyBody)
	case err != nil:
		// Delivery and storage failures alike: neutral notice to the
		// requester, the session survives for a retry, and the error
		// propagates so the router logs it.
		_ = tghelpers.SendText(c, textSendFailed)
		return err
	}

	a.sessions.Clear(sender.ID)
	return tghelpers.SendText(c, categoryAcks[category], &tele.SendOptions{ReplyMarkup: mainKeyboard()})
}
