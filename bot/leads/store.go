package leads

import "context"

// Store persists lead records and their correlations. Implementations live
// in the storage subpackage; the service is oblivious to the backend.
type Store interface {
	// SaveLead persists an immutable lead record.
	SaveLead(ctx context.Context, lead LeadRecord) error

	// SaveCorrelation persists the mapping for an operator notification.
	// It is called only after the notification was confirmed delivered.
	SaveCorrelation(ctx context.Context, corr Correlation) error

	// ResolveCorrelation atomically marks the correlation for ref as
	// resolved with verb and returns it, but only when the stored requester
	// matches requesterID. A missing correlation yields ErrNotFound; one
	// resolved earlier yields ErrAlreadyResolved; a requester mismatch
	// yields ErrMalformedDecision and leaves the correlation pending. Under
	// concurrent decisions for the same ref exactly one call succeeds.
	ResolveCorrelation(ctx context.Context, ref NotificationRef, requesterID int64, verb Verb) (Correlation, error)

	// RecentLeads returns up to limit newest lead records.
	RecentLeads(ctx context.Context, limit int) ([]LeadRecord, error)
}
