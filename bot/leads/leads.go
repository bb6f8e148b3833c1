// Package leads implements the request–review–resolution workflow: lead
// records assembled from requester messages, the operator-facing
// notification with its correlation back to the requester, and the
// decision state machine applied when the operator resolves a lead.
package leads

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies what the requester is asking for.
type Category string

const (
	CategoryDiagnostics  Category = "diagnostics"
	CategoryConsultation Category = "consultation"
	CategoryCourse       Category = "course"
	// CategoryGeneral is the implicit fallback for free text sent without
	// picking a menu section first.
	CategoryGeneral Category = "general"
)

// ParseCategory maps a stored or wire value back to a known category.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryDiagnostics:
		return CategoryDiagnostics, true
	case CategoryConsultation:
		return CategoryConsultation, true
	case CategoryCourse:
		return CategoryCourse, true
	case CategoryGeneral:
		return CategoryGeneral, true
	}
	return "", false
}

// LeadRecord is a finalized request, immutable once created.
type LeadRecord struct {
	ID          uuid.UUID `db:"id"`
	RequesterID int64     `db:"requester_id"`
	DisplayName string    `db:"display_name"`
	// Handle is the requester's public username without the @ prefix;
	// empty when the account has none.
	Handle   string   `db:"handle"`
	Body     string   `db:"body"`
	Category Category `db:"category"`
	// DiscountCode is set when the body carries a known promo word.
	DiscountCode string    `db:"discount_code"`
	CreatedAt    time.Time `db:"created_at"`
	// ProposedAt is the parsed date/time a consultation requester asked
	// for, when the body contains one.
	ProposedAt *time.Time `db:"proposed_at"`
}

// NotificationRef identifies the operator-facing notification message.
type NotificationRef struct {
	ChatID    int64 `db:"chat_id"`
	MessageID int   `db:"message_id"`
}

// Correlation maps an operator notification back to the requester who
// produced the lead. Created exactly once per delivered lead; resolved at
// most once.
type Correlation struct {
	Notification NotificationRef
	LeadID       uuid.UUID
	RequesterID  int64
	// OriginMessageID references the requester's message that finalized
	// the lead, for reply threading; zero when unknown.
	OriginMessageID int
	CreatedAt       time.Time
}

// Verb is a terminal operator decision. Verbs do not transition into one
// another; the first resolved verb wins.
type Verb string

const (
	VerbAccept  Verb = "accept"
	VerbReject  Verb = "reject"
	VerbClarify Verb = "clarify"
)

// ParseVerb validates a wire verb tag.
func ParseVerb(s string) (Verb, bool) {
	switch Verb(s) {
	case VerbAccept:
		return VerbAccept, true
	case VerbReject:
		return VerbReject, true
	case VerbClarify:
		return VerbClarify, true
	}
	return "", false
}
