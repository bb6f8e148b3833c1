package bot

import (
	"github.com/katarsees/leadbot/bot/leads"
	tghelpers "github.com/katarsees/leadbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// handleStart resets any pending session and shows the main menu.
func (a *App) handleStart(c tele.Context) error {
	tghelpers.WithHandler(c, "menu.start")
	a.sessions.Clear(c.Sender().ID)
	return tghelpers.SendText(c, textWelcome, &tele.SendOptions{ReplyMarkup: mainKeyboard()})
}

// handleBack mirrors handleStart but with the "back" copy.
func (a *App) handleBack(c tele.Context) error {
	tghelpers.WithHandler(c, "menu.back")
	a.sessions.Clear(c.Sender().ID)
	return tghelpers.SendText(c, textBack, &tele.SendOptions{ReplyMarkup: mainKeyboard()})
}

// handlePayment replies with the payment link; it never touches the session,
// so a pending request survives a payment lookup.
func (a *App) handlePayment(c tele.Context) error {
	tghelpers.WithHandler(c, "menu.payment")
	return tghelpers.SendText(c, paymentText(a.cfg.Leads.PaymentLink))
}

// handleLearning shows the course offer and the signup keyboard.
func (a *App) handleLearning(c tele.Context) error {
	tghelpers.WithHandler(c, "menu.learning")
	return tghelpers.SendHTML(c, textLearning, learningKeyboard())
}

// selectCategory returns a handler that arms the awaiting-text session for
// the given category and prompts the requester. Re-tapping another category
// button simply overwrites the pending state.
func (a *App) selectCategory(category leads.Category, prompt string) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.WithHandler(c, "menu.category."+string(category))
		uid := c.Sender().ID
		return a.sessions.Serialize(uid, func() error {
			a.sessions.Set(uid, StateAwaitingRequest, string(category))
			return tghelpers.SendText(c, prompt)
		})
	}
}
