package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/katarsees/leadbot/bot/leads"
)

func TestSelfCheckLeadGoesThroughNotificationPath(t *testing.T) {
	fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	app := &App{cfg: &Config{}, now: func() time.Time { return fixed }}
	app.cfg.Telegram.OperatorID = 99

	lead := app.selfCheckLead()
	if lead.RequesterID != 99 {
		t.Fatalf("requester = %d, want operator 99", lead.RequesterID)
	}
	if lead.Category != leads.CategoryGeneral {
		t.Fatalf("category = %q, want general", lead.Category)
	}
	if !lead.CreatedAt.Equal(fixed) {
		t.Fatalf("created_at = %v, want %v", lead.CreatedAt, fixed)
	}

	// The synthetic record renders through the same envelope as real leads.
	envelope := renderLeadEnvelope(lead)
	if !strings.Contains(envelope, "Самоперевірка") || !strings.Contains(envelope, textTestAlert) {
		t.Fatalf("envelope missing self-check body: %q", envelope)
	}
	if !strings.Contains(envelope, "99") {
		t.Fatalf("envelope missing operator id: %q", envelope)
	}
}
