package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/katarsees/leadbot/bot/leads"
)

func testLead(requesterID int64) leads.LeadRecord {
	return leads.LeadRecord{
		ID:          uuid.New(),
		RequesterID: requesterID,
		Body:        "тест",
		Category:    leads.CategoryGeneral,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestMemoryResolveOnce(t *testing.T) {
	store := NewMemory()
	ref := leads.NotificationRef{ChatID: 1, MessageID: 10}
	corr := leads.Correlation{Notification: ref, LeadID: uuid.New(), RequesterID: 7}

	if err := store.SaveCorrelation(context.Background(), corr); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.ResolveCorrelation(context.Background(), ref, 7, leads.VerbAccept)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.RequesterID != 7 {
		t.Fatalf("requester = %d, want 7", got.RequesterID)
	}

	if _, err := store.ResolveCorrelation(context.Background(), ref, 7, leads.VerbReject); !errors.Is(err, leads.ErrAlreadyResolved) {
		t.Fatalf("second resolve err = %v, want ErrAlreadyResolved", err)
	}
}

func TestMemoryResolveRequesterMismatchKeepsPending(t *testing.T) {
	store := NewMemory()
	ref := leads.NotificationRef{ChatID: 1, MessageID: 10}
	if err := store.SaveCorrelation(context.Background(), leads.Correlation{Notification: ref, RequesterID: 7}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.ResolveCorrelation(context.Background(), ref, 8, leads.VerbAccept); !errors.Is(err, leads.ErrMalformedDecision) {
		t.Fatalf("mismatch err = %v, want ErrMalformedDecision", err)
	}
	if _, err := store.ResolveCorrelation(context.Background(), ref, 7, leads.VerbAccept); err != nil {
		t.Fatalf("resolve after mismatch: %v", err)
	}
}

func TestMemoryResolveUnknownRef(t *testing.T) {
	store := NewMemory()
	ref := leads.NotificationRef{ChatID: 1, MessageID: 999}
	if _, err := store.ResolveCorrelation(context.Background(), ref, 7, leads.VerbAccept); !errors.Is(err, leads.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryConcurrentResolveExactlyOneWinner(t *testing.T) {
	store := NewMemory()
	ref := leads.NotificationRef{ChatID: 1, MessageID: 10}
	if err := store.SaveCorrelation(context.Background(), leads.Correlation{Notification: ref, RequesterID: 7}); err != nil {
		t.Fatalf("save: %v", err)
	}

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ResolveCorrelation(context.Background(), ref, 7, leads.VerbAccept)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, stale int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, leads.ErrAlreadyResolved):
			stale++
		default:
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if wins != 1 || stale != attempts-1 {
		t.Fatalf("wins=%d stale=%d, want 1/%d", wins, stale, attempts-1)
	}
}

func TestMemoryRecentLeadsNewestFirst(t *testing.T) {
	store := NewMemory()
	first := testLead(1)
	second := testLead(2)
	third := testLead(3)
	for _, lead := range []leads.LeadRecord{first, second, third} {
		if err := store.SaveLead(context.Background(), lead); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := store.RecentLeads(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != third.ID || got[1].ID != second.ID {
		t.Fatal("records not in newest-first order")
	}
}
