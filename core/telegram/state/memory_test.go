package state

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryManagerSingleStatePerUser(t *testing.T) {
	m := NewMemoryManager(0)

	m.Set(7, Kind("awaiting"), "diagnostics")
	m.Set(7, Kind("awaiting"), "course")

	got := m.Get(7)
	if got.Kind != Kind("awaiting") || got.Payload != "course" {
		t.Fatalf("expected latest state to win, got %+v", got)
	}

	m.Clear(7)
	if !m.Get(7).Idle() {
		t.Fatal("expected idle after clear")
	}
}

func TestMemoryManagerSetIdleClears(t *testing.T) {
	m := NewMemoryManager(0)
	m.Set(1, Kind("awaiting"), "general")
	m.Set(1, KindIdle, "")
	if m.InProgress(1) {
		t.Fatal("setting idle should clear the session")
	}
}

func TestMemoryManagerLazyTTLExpiry(t *testing.T) {
	mgr := NewMemoryManager(2 * time.Hour).(*memoryManager)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	mgr.now = func() time.Time { return now }

	mgr.Set(42, Kind("awaiting"), "consult")

	now = base.Add(time.Hour)
	if mgr.Get(42).Idle() {
		t.Fatal("state within TTL must stay active")
	}

	now = base.Add(2*time.Hour + time.Minute)
	if !mgr.Get(42).Idle() {
		t.Fatal("state older than TTL must read as idle")
	}
	// expired entry must be evicted, not merely masked
	mgr.mu.Lock()
	_, ok := mgr.sessions[42]
	mgr.mu.Unlock()
	if ok {
		t.Fatal("expired entry should be evicted on read")
	}
}

func TestMemoryManagerSerializeSameUser(t *testing.T) {
	m := NewMemoryManager(0)
	const n = 50
	var order []int
	var wg sync.WaitGroup
	var seq sync.Mutex

	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			_ = m.Serialize(9, func() error {
				seq.Lock()
				order = append(order, i)
				seq.Unlock()
				m.Set(9, Kind("awaiting"), "general")
				if m.Get(9).Idle() {
					t.Error("state lost under concurrent same-user access")
				}
				return nil
			})
		}()
	}
	wg.Wait()

	if len(order) != n {
		t.Fatalf("expected %d serialized units, got %d", n, len(order))
	}
}
