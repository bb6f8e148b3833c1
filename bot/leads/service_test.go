package leads

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeStore struct {
	leads        []LeadRecord
	correlations map[NotificationRef]*struct {
		corr     Correlation
		resolved bool
	}
	saveLeadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{correlations: make(map[NotificationRef]*struct {
		corr     Correlation
		resolved bool
	})}
}

func (s *fakeStore) SaveLead(_ context.Context, lead LeadRecord) error {
	if s.saveLeadErr != nil {
		return s.saveLeadErr
	}
	s.leads = append(s.leads, lead)
	return nil
}

func (s *fakeStore) SaveCorrelation(_ context.Context, corr Correlation) error {
	s.correlations[corr.Notification] = &struct {
		corr     Correlation
		resolved bool
	}{corr: corr}
	return nil
}

func (s *fakeStore) ResolveCorrelation(_ context.Context, ref NotificationRef, requesterID int64, _ Verb) (Correlation, error) {
	entry, ok := s.correlations[ref]
	if !ok {
		return Correlation{}, ErrNotFound
	}
	if entry.resolved {
		return Correlation{}, ErrAlreadyResolved
	}
	if entry.corr.RequesterID != requesterID {
		return Correlation{}, ErrMalformedDecision
	}
	entry.resolved = true
	return entry.corr, nil
}

func (s *fakeStore) RecentLeads(_ context.Context, limit int) ([]LeadRecord, error) {
	if limit > len(s.leads) {
		limit = len(s.leads)
	}
	out := make([]LeadRecord, 0, limit)
	for i := len(s.leads) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.leads[i])
	}
	return out, nil
}

type fakeNotifier struct {
	sent    []LeadRecord
	nextRef NotificationRef
	err     error
}

func (n *fakeNotifier) SendLead(_ context.Context, lead LeadRecord) (NotificationRef, error) {
	if n.err != nil {
		return NotificationRef{}, n.err
	}
	n.sent = append(n.sent, lead)
	return n.nextRef, nil
}

func newTestService(t *testing.T, store *fakeStore, notifier *fakeNotifier) *Service {
	t.Helper()
	svc, err := NewService(Options{
		Store:      store,
		Notifier:   notifier,
		OperatorID: 99,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRecordStoresLeadAndCorrelation(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{nextRef: NotificationRef{ChatID: 99, MessageID: 500}}
	svc := newTestService(t, store, notifier)

	lead, err := svc.Record(context.Background(), NewLead{
		RequesterID:     7,
		DisplayName:     "  Olena K  ",
		Handle:          "@olena",
		Body:            "  хочу діагностику  ",
		Category:        CategoryDiagnostics,
		OriginMessageID: 42,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if lead.Body != "хочу діагностику" {
		t.Fatalf("body = %q, expected trimmed", lead.Body)
	}
	if lead.DisplayName != "Olena K" || lead.Handle != "olena" {
		t.Fatalf("identity not normalized: %q %q", lead.DisplayName, lead.Handle)
	}
	if len(store.leads) != 1 || len(notifier.sent) != 1 {
		t.Fatalf("leads=%d sent=%d, want 1/1", len(store.leads), len(notifier.sent))
	}

	entry, ok := store.correlations[notifier.nextRef]
	if !ok {
		t.Fatal("correlation not stored under notification ref")
	}
	if entry.corr.LeadID != lead.ID || entry.corr.RequesterID != 7 || entry.corr.OriginMessageID != 42 {
		t.Fatalf("correlation mismatch: %+v", entry.corr)
	}
}

func TestRecordEmptyBody(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(t, store, notifier)

	_, err := svc.Record(context.Background(), NewLead{RequesterID: 7, Body: "   \n\t "})
	if !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("err = %v, want ErrEmptyBody", err)
	}
	if len(store.leads) != 0 || len(notifier.sent) != 0 {
		t.Fatal("empty body must not store or notify")
	}
}

func TestRecordDefaultsToGeneralCategory(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &fakeNotifier{})

	lead, err := svc.Record(context.Background(), NewLead{RequesterID: 7, Body: "просто питання"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if lead.Category != CategoryGeneral {
		t.Fatalf("category = %q, want general", lead.Category)
	}
}

func TestRecordFlagsInstaDiscountOnCourseLeads(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &fakeNotifier{})

	lead, err := svc.Record(context.Background(), NewLead{
		RequesterID: 7,
		Body:        "Повний курс, instaznijka, @someone",
		Category:    CategoryCourse,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if lead.DiscountCode != "INSTAZNIJKA" {
		t.Fatalf("discount = %q, want INSTAZNIJKA", lead.DiscountCode)
	}

	other, err := svc.Record(context.Background(), NewLead{
		RequesterID: 7,
		Body:        "instaznijka",
		Category:    CategoryDiagnostics,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if other.DiscountCode != "" {
		t.Fatal("discount detection must be course-only")
	}
}

func TestRecordParsesProposedConsultationTime(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	want := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	svc, err := NewService(Options{
		Store:      store,
		Notifier:   notifier,
		OperatorID: 99,
		ParseProposedTime: func(string) (time.Time, bool) {
			return want, true
		},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	lead, err := svc.Record(context.Background(), NewLead{
		RequesterID: 7,
		Body:        "15.09.2026",
		Category:    CategoryConsultation,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if lead.ProposedAt == nil || !lead.ProposedAt.Equal(want) {
		t.Fatalf("proposed = %v, want %v", lead.ProposedAt, want)
	}
}

func TestRecordDeliveryFailureLeavesNoCorrelation(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{err: fmt.Errorf("telegram: 502")}
	svc := newTestService(t, store, notifier)

	_, err := svc.Record(context.Background(), NewLead{RequesterID: 7, Body: "текст"})
	var dErr *DeliveryError
	if !errors.As(err, &dErr) {
		t.Fatalf("err = %v, want DeliveryError", err)
	}
	if len(store.leads) != 1 {
		t.Fatal("lead record should survive a delivery failure")
	}
	if len(store.correlations) != 0 {
		t.Fatal("no correlation may exist for an undelivered notification")
	}
}

func TestDecideAppliesOperatorDecision(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{nextRef: NotificationRef{ChatID: 99, MessageID: 500}}
	svc := newTestService(t, store, notifier)

	lead, err := svc.Record(context.Background(), NewLead{RequesterID: 7, Body: "текст"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	outcome, err := svc.Decide(context.Background(), Decision{
		ActorID: 99,
		Ref:     notifier.nextRef,
		Payload: EncodeDecision(VerbAccept, 7),
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if outcome.Verb != VerbAccept || outcome.Correlation.LeadID != lead.ID {
		t.Fatalf("outcome mismatch: %+v", outcome)
	}

	// Second tap on the same notification is stale.
	_, err = svc.Decide(context.Background(), Decision{
		ActorID: 99,
		Ref:     notifier.nextRef,
		Payload: EncodeDecision(VerbReject, 7),
	})
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("second decide err = %v, want ErrAlreadyResolved", err)
	}
}

func TestDecideRejectsNonOperator(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{nextRef: NotificationRef{ChatID: 99, MessageID: 500}}
	svc := newTestService(t, store, notifier)

	if _, err := svc.Record(context.Background(), NewLead{RequesterID: 7, Body: "текст"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	_, err := svc.Decide(context.Background(), Decision{
		ActorID: 7,
		Ref:     notifier.nextRef,
		Payload: EncodeDecision(VerbAccept, 7),
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	// The correlation must stay live for the real operator.
	if _, err := svc.Decide(context.Background(), Decision{
		ActorID: 99,
		Ref:     notifier.nextRef,
		Payload: EncodeDecision(VerbAccept, 7),
	}); err != nil {
		t.Fatalf("operator decide after rejected attempt: %v", err)
	}
}

func TestDecideUnknownNotification(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &fakeNotifier{})

	_, err := svc.Decide(context.Background(), Decision{
		ActorID: 99,
		Ref:     NotificationRef{ChatID: 99, MessageID: 12345},
		Payload: EncodeDecision(VerbAccept, 7),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !IsStale(err) {
		t.Fatal("ErrNotFound must classify as stale")
	}
}

func TestDecideRequesterMismatch(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{nextRef: NotificationRef{ChatID: 99, MessageID: 500}}
	svc := newTestService(t, store, notifier)

	if _, err := svc.Record(context.Background(), NewLead{RequesterID: 7, Body: "текст"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	_, err := svc.Decide(context.Background(), Decision{
		ActorID: 99,
		Ref:     notifier.nextRef,
		Payload: EncodeDecision(VerbAccept, 8),
	})
	if !errors.Is(err, ErrMalformedDecision) {
		t.Fatalf("err = %v, want ErrMalformedDecision", err)
	}

	// The mismatch must not consume the correlation: the correct payload
	// still resolves.
	outcome, err := svc.Decide(context.Background(), Decision{
		ActorID: 99,
		Ref:     notifier.nextRef,
		Payload: EncodeDecision(VerbAccept, 7),
	})
	if err != nil {
		t.Fatalf("legitimate decide after mismatch: %v", err)
	}
	if outcome.Correlation.RequesterID != 7 {
		t.Fatalf("requester = %d, want 7", outcome.Correlation.RequesterID)
	}
}
