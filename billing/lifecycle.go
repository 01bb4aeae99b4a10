package billing

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Tracker follows each purchase through its lifecycle. It is an observer,
// not an enforcer: transitions come from the vendor, and the vendor is the
// system of record, so an unreachable transition is recorded as a
// consistency anomaly but the vendor-reported state is accepted anyway.
//
// State is in-memory only and scoped to the life of a purchase attempt;
// Forget discards it once the outcome has been delivered.
type Tracker struct {
	log    *zap.Logger
	report AnomalyReporter

	mu     sync.Mutex
	states map[string]PurchaseState
}

func NewTracker(log *zap.Logger, report AnomalyReporter) *Tracker {
	return &Tracker{
		log:    log,
		report: report,
		states: make(map[string]PurchaseState),
	}
}

// Observe records a vendor-reported state for purchaseID and returns the
// state now tracked. The first observation for a key seeds it unchecked;
// later observations are validated against the state machine
//
//	Created → InvoiceCreated → Confirmed → Paid → Consumed | Closed
//
// with Cancelled, Paused and Terminated reachable from any non-terminal
// state, and Paused resumable to anywhere.
func (t *Tracker) Observe(purchaseID string, reported PurchaseState) PurchaseState {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, known := t.states[purchaseID]
	if known && !reachable(last, reported) {
		detail := fmt.Sprintf("purchase state %s is not reachable from %s", reported, last)
		t.log.Warn("unreachable purchase state transition",
			zap.String("purchase_id", purchaseID),
			zap.String("from", last.String()),
			zap.String("to", reported.String()),
		)
		if t.report != nil {
			t.report(Anomaly{
				Kind:   AnomalyUnreachableTransition,
				Key:    purchaseID,
				Detail: detail,
			})
		}
	}

	// Vendor state always wins.
	t.states[purchaseID] = reported
	return reported
}

// State returns the last tracked state for purchaseID.
func (t *Tracker) State(purchaseID string) (PurchaseState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[purchaseID]
	return s, ok
}

// Confirmed reports whether purchaseID is already known to be in Confirmed
// or a later state, in which case a confirm call is a no-op.
func (t *Tracker) Confirmed(purchaseID string) bool {
	s, ok := t.State(purchaseID)
	return ok && s.AtLeast(StateConfirmed)
}

// Forget discards tracking state for purchaseID.
func (t *Tracker) Forget(purchaseID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.states, purchaseID)
}

func reachable(from, to PurchaseState) bool {
	if from == to {
		// Vendors re-report states; a repeat is not a transition.
		return true
	}
	if to == StateUnrecognized {
		return false
	}
	if from.Terminal() {
		return false
	}

	// Cancellation, pause and termination edges exist from every
	// non-terminal state.
	switch to {
	case StateCancelled, StatePaused, StateTerminated:
		return true
	}

	// A paused purchase may resume anywhere.
	if from == StatePaused {
		return true
	}

	switch from {
	case StateCreated:
		return to == StateInvoiceCreated
	case StateInvoiceCreated:
		return to == StateConfirmed
	case StateConfirmed:
		return to == StatePaid
	case StatePaid:
		return to == StateConsumed || to == StateClosed
	case StateUnrecognized:
		// Nothing to validate against.
		return true
	default:
		return false
	}
}
