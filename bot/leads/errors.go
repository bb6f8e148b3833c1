package leads

import "fmt"

// WorkflowError is a typed, recoverable workflow failure. Code feeds the
// err_code attribute of handler summary logs.
type WorkflowError struct {
	code string
	msg  string
}

func (e *WorkflowError) Error() string { return e.msg }

// Code returns the stable machine-readable error code.
func (e *WorkflowError) Code() string { return e.code }

var (
	// ErrEmptyBody means the trimmed lead body was empty; nothing was
	// recorded and the requester should be re-prompted.
	ErrEmptyBody = &WorkflowError{code: "empty_body", msg: "lead body is empty"}

	// ErrUnauthorized means the decision actor is not the configured
	// operator. Only the actor is notified; no state changes.
	ErrUnauthorized = &WorkflowError{code: "unauthorized", msg: "decision from non-operator identity"}

	// ErrMalformedDecision means the decision payload did not decode into
	// a known verb and requester.
	ErrMalformedDecision = &WorkflowError{code: "malformed_decision", msg: "malformed decision payload"}

	// ErrAlreadyResolved is the stale-decision case for re-delivered or
	// re-tapped decisions: the correlation exists but was resolved before.
	ErrAlreadyResolved = &WorkflowError{code: "stale_decision", msg: "lead already resolved"}

	// ErrNotFound is the stale-decision case for notifications with no
	// live correlation.
	ErrNotFound = &WorkflowError{code: "stale_decision", msg: "no correlation for notification"}
)

// IsStale reports whether err is either stale-decision variant.
func IsStale(err error) bool {
	return err == ErrAlreadyResolved || err == ErrNotFound
}

// DeliveryError wraps a transport failure while notifying the operator.
// It is surfaced to the caller rather than retried here; the lead is kept
// but no correlation exists, so it was never considered delivered.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("lead delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Code returns the stable machine-readable error code.
func (e *DeliveryError) Code() string { return "delivery_failed" }
