package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/katarsees/leadbot/bot/leads"
	"github.com/katarsees/leadbot/core/telegram/format"
	"github.com/katarsees/leadbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Reply keyboard button labels. These double as command aliases so a tap
// routes like a command even while the bot awaits free text.
const (
	btnDiagnostics  = "🔮 Діагностика"
	btnPayment      = "💰 Оплата"
	btnLearning     = "📚 Навчання"
	btnConsultation = "🗓️ Запис на консультацію"
	btnCourseSignup = "📝 Запис на курс"
	btnBack         = "⬅️ Назад"
)

const (
	textWelcome = "🌕 Вітаю! Я — помічниця Katarsees. Оберіть, що вас цікавить:"
	textBack    = "⬅️ Повертаємось до головного меню:"
	textMenuHint = "Оберіть дію на клавіатурі нижче ⬇️"

	textPromptDiagnostics = "✨ Напишіть коротко, що вас турбує. Я передам повідомлення Katarsees 🕯️"
	textPromptConsult     = "📅 Щоб записатися на консультацію, напишіть зручний день і час.\nKatarsees підтвердить запис у повідомленні 🌙"
	textPromptCourse      = "🧘 Вкажіть формат (повний курс / група / один урок), своє ім’я та @username або телефон.\nKatarsees зв’яжеться з вами найближчим часом 🌕"

	textLearning = "✨ <b>Навчання Яснобачення і Ментальна магія</b>\n\n" +
		"1️⃣ Повний курс (3 міс., індивідуально): <b>25 000₴</b>/міс\n" +
		"2️⃣ Група (самостійне): <b>5 000₴</b>/міс\n" +
		"3️⃣ Один урок: <b>1 000₴</b>\n\n" +
		"Instagram-бонус: напишіть слово <b>INSTAZNIJKA</b> — і отримаєте знижку 🌙\n\n" +
		"Щоб залишити заявку, натисніть «📝 Запис на курс»."

	textAckDiagnostics = "✅ Дякую! Повідомлення передано Katarsees. Очікуйте відповідь 🌙"
	textAckConsult     = "✅ Заявку на консультацію збережено. Очікуйте підтвердження 🌙"
	textAckCourse      = "✅ Дякую! Заявку на навчання збережено. Katarsees зв’яжеться з вами 🌙"
	textAckGeneral     = "✅ Дякую! Повідомлення передано Katarsees. Очікуйте відповідь 🌙"

	textEmptyBody   = "🕯️ Повідомлення порожнє. Напишіть, будь ласка, кілька слів — і я передам його Katarsees."
	textSendFailed  = "🌧️ Не вдалося передати повідомлення. Спробуйте, будь ласка, ще раз трохи пізніше."
	textRateLimited = "⏳ Занадто швидко. Зачекайте секунду й повторіть."

	textOutcomeAccept  = "✅ Katarsees прийняла вашу заявку. Очікуйте повідомлення 🌙"
	textOutcomeReject  = "🌑 На жаль, Katarsees зараз не зможе опрацювати цю заявку."
	textOutcomeClarify = "❓ Katarsees просить уточнити деталі. Напишіть, будь ласка, докладніше 🌙"

	textNoticeUnauthorized = "⛔ Доступ обмежено."
	textNoticeMalformed    = "⚠️ Не вдалося розпізнати дію."
	textNoticeResolved     = "🔁 Заявку вже опрацьовано."
	textNoticeNotFound     = "🗑 Заявку не знайдено або вона застаріла."
	textNoticeFailed       = "⚠️ Сталася помилка. Спробуйте ще раз."

	textTestAlert     = "🔔 Тестове сповіщення: бот на зв’язку й готовий передавати заявки."
	textTestAlertDone = "✅ Тестове сповіщення надіслано. Перевірте повідомлення вище."
	textNoLeads       = "Поки що немає жодної заявки."
)

// Decision affordance labels shown under the operator notification.
const (
	btnAccept  = "✅ Прийняти"
	btnReject  = "❌ Відхилити"
	btnClarify = "❓ Уточнити"
)

var categoryTitles = map[leads.Category]string{
	leads.CategoryDiagnostics:  "діагностика",
	leads.CategoryConsultation: "запис на консультацію",
	leads.CategoryCourse:       "навчання",
	leads.CategoryGeneral:      "загальне звернення",
}

var categoryAcks = map[leads.Category]string{
	leads.CategoryDiagnostics:  textAckDiagnostics,
	leads.CategoryConsultation: textAckConsult,
	leads.CategoryCourse:       textAckCourse,
	leads.CategoryGeneral:      textAckGeneral,
}

var verbAnnotations = map[leads.Verb]string{
	leads.VerbAccept:  "✅ Прийнято",
	leads.VerbReject:  "❌ Відхилено",
	leads.VerbClarify: "❓ Запитано уточнення",
}

var verbOutcomes = map[leads.Verb]string{
	leads.VerbAccept:  textOutcomeAccept,
	leads.VerbReject:  textOutcomeReject,
	leads.VerbClarify: textOutcomeClarify,
}

func mainKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnDiagnostics, btnPayment},
		[]string{btnLearning},
		[]string{btnConsultation},
	)
}

func learningKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnCourseSignup},
		[]string{btnBack},
	)
}

func paymentText(link string) string {
	return fmt.Sprintf("💳 Оплата: %s\n\nПісля оплати надішліть квитанцію 🌙", link)
}

// renderLeadEnvelope builds the operator-facing HTML envelope for a lead.
func renderLeadEnvelope(lead leads.LeadRecord) string {
	title := categoryTitles[lead.Category]
	if title == "" {
		title = string(lead.Category)
	}

	name := lead.DisplayName
	if name == "" {
		name = "—"
	}
	handle := "—"
	if lead.Handle != "" {
		handle = "@" + lead.Handle
	}

	var proposed string
	if lead.ProposedAt != nil {
		proposed = "🗓️ Бажаний час: " + format.Bold(lead.ProposedAt.Format("02.01.2006 15:04"))
	}
	var discount string
	if lead.DiscountCode != "" {
		discount = "🌟 Знижка: " + format.Bold(lead.DiscountCode)
	}

	return format.Lines(
		"🔔 "+format.Bold(fmt.Sprintf("Нова заявка (%s)!", title)),
		"👤 Ім’я: "+format.EscapeHTML(name),
		"🆔 ID: "+format.Code(fmt.Sprintf("%d", lead.RequesterID)),
		"🗣️ Користувач: "+format.EscapeHTML(handle),
		"✍️ Текст: "+format.Italic(lead.Body),
		proposed,
		discount,
	)
}

// renderResolvedEnvelope annotates the notification after a decision. The
// plain notification text is re-escaped because Telegram strips entities
// from Message.Text.
func renderResolvedEnvelope(plain string, verb leads.Verb, when time.Time) string {
	return format.Lines(
		format.EscapeHTML(plain),
		format.Bold(verbAnnotations[verb])+" · "+when.Format("02.01.2006 15:04"),
	)
}

// renderRecentLeads builds the operator's /leads digest.
func renderRecentLeads(records []leads.LeadRecord) string {
	if len(records) == 0 {
		return textNoLeads
	}
	var b strings.Builder
	b.WriteString(format.Bold(fmt.Sprintf("Останні заявки (%d):", len(records))))
	for _, lead := range records {
		title := categoryTitles[lead.Category]
		if title == "" {
			title = string(lead.Category)
		}
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("• %s — %s, %s\n", lead.CreatedAt.Format("02.01 15:04"), format.EscapeHTML(title), format.Code(fmt.Sprintf("%d", lead.RequesterID))))
		b.WriteString(format.Italic(truncateBody(lead.Body, 120)))
	}
	return b.String()
}

func truncateBody(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
