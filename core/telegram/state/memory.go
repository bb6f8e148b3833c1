package state

import (
	"sync"
	"time"

	"log/slog"

	"github.com/katarsees/leadbot/core/logger"
	tghelpers "github.com/katarsees/leadbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.Mutex
	sessions map[int64]State
	locks    map[int64]*sync.Mutex
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryManager constructs an in-memory Manager. A ttl of zero disables
// expiry; otherwise states older than ttl read as idle and are evicted on
// the next access, with no background sweep.
func NewMemoryManager(ttl time.Duration) Manager {
	return &memoryManager{
		sessions: make(map[int64]State),
		locks:    make(map[int64]*sync.Mutex),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *memoryManager) expired(s State) bool {
	if m.ttl <= 0 || s.SetAt.IsZero() {
		return false
	}
	return m.now().Sub(s.SetAt) > m.ttl
}

// Get returns the current state for a user. Absent or expired entries come
// back as idle; expired entries are dropped on the spot.
func (m *memoryManager) Get(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return State{Kind: KindIdle}
	}
	if m.expired(s) {
		delete(m.sessions, userID)
		return State{Kind: KindIdle}
	}
	return s
}

// Set replaces whatever state the user held before. Setting KindIdle is
// equivalent to Clear.
func (m *memoryManager) Set(userID int64, kind Kind, payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if kind == "" || kind == KindIdle {
		delete(m.sessions, userID)
		return
	}
	m.sessions[userID] = State{Kind: kind, Payload: payload, SetAt: m.now()}
}

// Clear removes the session entry for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
}

// InProgress reports whether the user currently has an active, unexpired state.
func (m *memoryManager) InProgress(userID int64) bool {
	return !m.Get(userID).Idle()
}

// Serialize holds a per-user lock around fn. Lock entries are created on
// first use and kept for the lifetime of the manager; the set of users is
// bounded by the audience of the bot.
func (m *memoryManager) Serialize(userID int64, fn func() error) error {
	m.mu.Lock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn()
}

// ManagerHandler executes the handler registered for the user's current
// state kind, if any.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	current := m.Get(userID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("session_state", string(current.Kind)),
	)

	if handler, ok := fsmHandlers[current.Kind]; ok {
		return handler(c)
	}
	return nil
}
