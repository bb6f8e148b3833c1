// Package storage provides the lead store backends: an in-memory map store
// for development and tests, and a postgres store that survives restarts.
package storage

import (
	"context"
	"sync"

	"github.com/katarsees/leadbot/bot/leads"
)

type corrEntry struct {
	corr     leads.Correlation
	resolved bool
	verb     leads.Verb
}

// Memory is a process-local leads.Store. Correlations resolve exactly once
// under the store mutex; nothing is evicted, the working set is bounded by
// the number of leads taken in one process lifetime.
type Memory struct {
	mu           sync.Mutex
	records      []leads.LeadRecord
	correlations map[leads.NotificationRef]*corrEntry
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		correlations: make(map[leads.NotificationRef]*corrEntry),
	}
}

// SaveLead appends the record.
func (m *Memory) SaveLead(_ context.Context, lead leads.LeadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, lead)
	return nil
}

// SaveCorrelation stores the pending correlation for a notification.
func (m *Memory) SaveCorrelation(_ context.Context, corr leads.Correlation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.correlations[corr.Notification] = &corrEntry{corr: corr}
	return nil
}

// ResolveCorrelation performs the atomic lookup-and-invalidate. A payload
// whose requester disagrees with the stored correlation does not consume it.
func (m *Memory) ResolveCorrelation(_ context.Context, ref leads.NotificationRef, requesterID int64, verb leads.Verb) (leads.Correlation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.correlations[ref]
	if !ok {
		return leads.Correlation{}, leads.ErrNotFound
	}
	if entry.resolved {
		return leads.Correlation{}, leads.ErrAlreadyResolved
	}
	if entry.corr.RequesterID != requesterID {
		return leads.Correlation{}, leads.ErrMalformedDecision
	}
	entry.resolved = true
	entry.verb = verb
	return entry.corr, nil
}

// RecentLeads returns up to limit newest records.
func (m *Memory) RecentLeads(_ context.Context, limit int) ([]leads.LeadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	out := make([]leads.LeadRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}
