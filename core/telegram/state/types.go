package state

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// Kind identifies a finite-state-machine step used in conversations.
type Kind string

const (
	// KindIdle indicates there is no active conversation with the user.
	KindIdle Kind = "idle"
)

// State is the conversational position of a single user. Payload carries
// step-specific data (for this bot: the category a free-text reply belongs
// to). SetAt is recorded on every transition and drives lazy TTL expiry.
type State struct {
	Kind    Kind
	Payload string
	SetAt   time.Time
}

// Idle reports whether the state represents no active conversation.
func (s State) Idle() bool {
	return s.Kind == "" || s.Kind == KindIdle
}

// Manager orchestrates user sessions and FSM state transitions.
// Implementations guarantee at most one stored state per user and treat
// states older than the configured TTL as idle on read.
type Manager interface {
	Get(userID int64) State
	Set(userID int64, kind Kind, payload string)
	Clear(userID int64)
	InProgress(userID int64) bool

	// Serialize runs fn while holding a per-user lock, so units of work
	// for the same user execute in arrival order. Units for different
	// users proceed concurrently.
	Serialize(userID int64, fn func() error) error

	ManagerHandler(c tele.Context) error
}
