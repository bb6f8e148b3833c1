package bot

import (
	"github.com/katarsees/leadbot/bot/leads"
	"github.com/katarsees/leadbot/core/telegram/state"
)

// StateAwaitingRequest marks a requester whose next free-text message
// finalizes a lead. The payload carries the awaited category.
const StateAwaitingRequest state.Kind = "awaiting_request"

// awaitedCategory extracts the category a pending session is waiting for.
func awaitedCategory(s state.State) (leads.Category, bool) {
	if s.Kind != StateAwaitingRequest {
		return "", false
	}
	return leads.ParseCategory(s.Payload)
}
